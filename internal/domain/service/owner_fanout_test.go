package service

import (
	"context"
	"errors"
	"testing"

	"chain-explorer/internal/domain/entity"
	"chain-explorer/internal/infrastructure/logger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	ownerA = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	ownerB = "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"
)

func ownerWord(address string) []byte {
	return common.LeftPadBytes(common.HexToAddress(address).Bytes(), 32)
}

func TestDecodeOwnerWord(t *testing.T) {
	owner, err := DecodeOwnerWord(ownerWord(ownerA))
	require.NoError(t, err)
	assert.Equal(t, ownerA, owner)

	_, err = DecodeOwnerWord(common.HexToAddress(ownerA).Bytes())
	assert.ErrorIs(t, err, entity.ErrMalformedOwner)
}

func TestOwnerFanout_InputOrder(t *testing.T) {
	fetcher := OwnerFetcherFunc(func(_ context.Context, _ string, tokenID string) ([][]byte, error) {
		switch tokenID {
		case "1":
			return [][]byte{ownerWord(ownerB)}, nil
		case "2":
			return [][]byte{ownerWord(ownerA), ownerWord(ownerB)}, nil
		}
		return nil, nil
	})

	var seen []string
	owners, err := NewOwnerFanout(logger.NewNopLogger()).EnumerateOwnersFunc(
		context.Background(), testContract, []string{"1", "2", "3"}, fetcher,
		func(tokenID string, _ []string) { seen = append(seen, tokenID) })
	require.NoError(t, err)

	assert.Equal(t, entity.OwnerSet{ownerB, ownerA, ownerB}, owners)
	assert.Equal(t, []string{"1", "2", "3"}, seen)
}

func TestOwnerFanout_PartialOnFailure(t *testing.T) {
	var calls []string
	fetcher := OwnerFetcherFunc(func(_ context.Context, _ string, tokenID string) ([][]byte, error) {
		calls = append(calls, tokenID)
		if tokenID == "B" {
			return nil, errors.New("execution reverted")
		}
		return [][]byte{ownerWord(ownerA)}, nil
	})

	owners, err := NewOwnerFanout(logger.NewNopLogger()).EnumerateOwners(context.Background(), testContract, []string{"A", "B", "C"}, fetcher)
	require.Error(t, err)

	assert.Equal(t, entity.OwnerSet{ownerA}, owners)
	assert.Equal(t, []string{"A", "B"}, calls)
	var transportErr *entity.TransportError
	assert.ErrorAs(t, err, &transportErr)
}

func TestOwnerFanout_MalformedWord(t *testing.T) {
	fetcher := OwnerFetcherFunc(func(_ context.Context, _ string, tokenID string) ([][]byte, error) {
		if tokenID == "2" {
			return [][]byte{{0x01, 0x02}}, nil
		}
		return [][]byte{ownerWord(ownerB)}, nil
	})

	owners, err := NewOwnerFanout(logger.NewNopLogger()).EnumerateOwners(context.Background(), testContract, []string{"1", "2"}, fetcher)
	assert.ErrorIs(t, err, entity.ErrMalformedOwner)
	assert.Equal(t, entity.OwnerSet{ownerB}, owners)
}

func TestOwnerFanout_NoTokens(t *testing.T) {
	fetcher := OwnerFetcherFunc(func(context.Context, string, string) ([][]byte, error) {
		t.Fatal("fetcher must not be called")
		return nil, nil
	})

	owners, err := NewOwnerFanout(logger.NewNopLogger()).EnumerateOwners(context.Background(), testContract, nil, fetcher)
	require.NoError(t, err)
	assert.Empty(t, owners)
}
