package service

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"chain-explorer/internal/domain/entity"
	"chain-explorer/internal/domain/service"
	"chain-explorer/internal/infrastructure/logger"
	"chain-explorer/internal/infrastructure/metrics"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type headFunc func(ctx context.Context) (uint64, error)

func (f headFunc) LatestBlockNumber(ctx context.Context) (uint64, error) { return f(ctx) }

type fakeTokens struct {
	meta     *entity.TokenMetadata
	metaErr  error
	balances map[string]string
}

func (f *fakeTokens) GetTokenMetadata(context.Context, string) (*entity.TokenMetadata, error) {
	return f.meta, f.metaErr
}

func (f *fakeTokens) GetTokenBalance(_ context.Context, holder string, _ string) (string, error) {
	b, ok := f.balances[holder]
	if !ok {
		return "", errors.New("execution reverted")
	}
	return b, nil
}

func transferEvent(block uint64, index uint, from, to string, amount int64) entity.LogEntry {
	return entity.LogEntry{
		BlockNumber:     block,
		LogIndex:        index,
		TransactionHash: common.BigToHash(big.NewInt(int64(block))).Hex(),
		Address:         tokenContract,
		Topics: []common.Hash{
			TransferTopic,
			common.BytesToHash(common.HexToAddress(from).Bytes()),
			common.BytesToHash(common.HexToAddress(to).Bytes()),
		},
		Data: common.LeftPadBytes(big.NewInt(amount).Bytes(), 32),
	}
}

func logsInWindow(entries []entity.LogEntry, queries *[]entity.LogQuery) service.LogFetcherFunc {
	return func(_ context.Context, q entity.LogQuery) ([]entity.LogEntry, error) {
		*queries = append(*queries, q)
		out := make([]entity.LogEntry, 0)
		for _, e := range entries {
			if e.BlockNumber >= q.FromBlock && e.BlockNumber <= q.ToBlock {
				out = append(out, e)
			}
		}
		return out, nil
	}
}

func TestLogViewService_RecentTransfers(t *testing.T) {
	decimals := uint8(2)
	tokens := &fakeTokens{
		meta:     &entity.TokenMetadata{Address: tokenContract, Symbol: "TKN", Decimals: &decimals},
		balances: map[string]string{alice: "1000", bob: "250"},
	}
	var queries []entity.LogQuery
	logs := logsInWindow([]entity.LogEntry{
		transferEvent(50, 0, alice, bob, 150),
		transferEvent(48, 3, bob, alice, 5),
	}, &queries)
	head := headFunc(func(context.Context) (uint64, error) { return 50, nil })

	svc := NewLogViewService(logs, head, tokens, 1, 10, metrics.New(), logger.NewNopLogger())
	page, err := svc.RecentTransfers(context.Background(), tokenContract, 5, 0)
	require.NoError(t, err)

	assert.Equal(t, tokenContract, page.Address)
	assert.True(t, page.Done)
	require.Len(t, page.Transfers, 2)

	first := page.Transfers[0]
	assert.Equal(t, alice, first.From)
	assert.Equal(t, bob, first.To)
	assert.Equal(t, "1.5 TKN", first.Quantity)
	require.NotNil(t, first.FromBalance)
	assert.Equal(t, "10 TKN", *first.FromBalance)
	require.NotNil(t, first.ToBalance)
	assert.Equal(t, "2.5 TKN", *first.ToBalance)

	assert.Equal(t, uint64(48), page.Transfers[1].Entry.BlockNumber)
	assert.Equal(t, "0.05 TKN", page.Transfers[1].Quantity)

	require.NotEmpty(t, queries)
	require.NotNil(t, queries[0].Address)
	assert.Equal(t, tokenContract, *queries[0].Address)
	assert.Equal(t, TransferTopic, queries[0].Topics[0][0])
	for _, q := range queries {
		assert.GreaterOrEqual(t, q.FromBlock, uint64(46))
	}
}

func TestLogViewService_MissingMetadata(t *testing.T) {
	tokens := &fakeTokens{metaErr: errors.New("not a token"), balances: map[string]string{}}
	var queries []entity.LogQuery
	logs := logsInWindow([]entity.LogEntry{transferEvent(10, 0, alice, bob, 7)}, &queries)
	head := headFunc(func(context.Context) (uint64, error) { return 10, nil })

	svc := NewLogViewService(logs, head, tokens, 1, 1, metrics.New(), logger.NewNopLogger())
	page, err := svc.RecentTransfers(context.Background(), tokenContract, 0, 0)
	require.NoError(t, err)

	require.Len(t, page.Transfers, 1)
	assert.Nil(t, page.Token)
	assert.Equal(t, "7", page.Transfers[0].Quantity)
	assert.Nil(t, page.Transfers[0].FromBalance)
}

func TestLogViewService_InvalidAddress(t *testing.T) {
	svc := NewLogViewService(nil, nil, &fakeTokens{}, 1, 1, metrics.New(), logger.NewNopLogger())

	page, err := svc.RecentTransfers(context.Background(), "0x1234", 0, 0)
	assert.Error(t, err)
	assert.Nil(t, page)
}

func TestLogViewService_HeadFailure(t *testing.T) {
	head := headFunc(func(context.Context) (uint64, error) { return 0, errors.New("dial tcp: connection refused") })
	svc := NewLogViewService(service.LogFetcherFunc(nil), head, &fakeTokens{}, 1, 1, metrics.New(), logger.NewNopLogger())

	page, err := svc.RecentTransfers(context.Background(), tokenContract, 0, 0)
	assert.Nil(t, page)
	var transportErr *entity.TransportError
	assert.ErrorAs(t, err, &transportErr)
}
