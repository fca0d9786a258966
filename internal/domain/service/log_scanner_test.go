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

func transferLog(block uint64, index uint) entity.LogEntry {
	return entity.LogEntry{
		BlockNumber:     block,
		LogIndex:        index,
		TransactionHash: common.BigToHash(common.Big1).Hex(),
		Address:         testContract,
		Data:            common.LeftPadBytes([]byte{0x01}, 32),
		Topics:          []common.Hash{{0x01}, {0x02}, {0x03}},
	}
}

func TestClassifyLog(t *testing.T) {
	good := transferLog(10, 0)
	assert.Equal(t, entity.LogRejectNone, ClassifyLog(good))

	removed := good
	removed.Removed = true
	assert.Equal(t, entity.LogRejectRemoved, ClassifyLog(removed))

	twoTopics := good
	twoTopics.Topics = good.Topics[:2]
	assert.Equal(t, entity.LogRejectTopics, ClassifyLog(twoTopics))

	noData := good
	noData.Data = nil
	assert.Equal(t, entity.LogRejectEmptyData, ClassifyLog(noData))
}

func TestLogStreamFilter_DedupAndReject(t *testing.T) {
	var rejected []entity.LogRejectReason
	filter := NewLogStreamFilter(func(r entity.LogRejectReason) { rejected = append(rejected, r) })

	removed := transferLog(9, 1)
	removed.Removed = true

	first := filter.Filter([]entity.LogEntry{transferLog(10, 0), removed, transferLog(10, 0)})
	assert.Len(t, first, 1)
	assert.Equal(t, []entity.LogRejectReason{entity.LogRejectRemoved}, rejected)

	second := filter.Filter([]entity.LogEntry{transferLog(10, 0), transferLog(9, 0)})
	require.Len(t, second, 1)
	assert.Equal(t, uint64(9), second[0].BlockNumber)
}

func TestAdvanceCursor(t *testing.T) {
	tests := []struct {
		name  string
		prev  entity.BlockCursor
		batch []entity.LogEntry
		span  uint64
		want  entity.BlockCursor
		ok    bool
	}{
		{
			name: "empty batch steps below window",
			prev: entity.BlockCursor{FromBlock: 100, ToBlock: 100},
			span: 1,
			want: entity.BlockCursor{FromBlock: 99, ToBlock: 99},
			ok:   true,
		},
		{
			name:  "batch pins upper bound to last entry",
			prev:  entity.BlockCursor{FromBlock: 91, ToBlock: 100},
			batch: []entity.LogEntry{transferLog(98, 0), transferLog(95, 3)},
			span:  10,
			want:  entity.BlockCursor{FromBlock: 86, ToBlock: 95},
			ok:    true,
		},
		{
			name: "wider span",
			prev: entity.BlockCursor{FromBlock: 91, ToBlock: 100},
			span: 10,
			want: entity.BlockCursor{FromBlock: 81, ToBlock: 90},
			ok:   true,
		},
		{
			name: "genesis",
			prev: entity.BlockCursor{FromBlock: 0, ToBlock: 0},
			span: 1,
			want: entity.BlockCursor{FromBlock: 0, ToBlock: 0},
			ok:   false,
		},
		{
			name: "clamped at zero",
			prev: entity.BlockCursor{FromBlock: 3, ToBlock: 5},
			span: 10,
			want: entity.BlockCursor{FromBlock: 0, ToBlock: 2},
			ok:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := AdvanceCursor(tt.prev, tt.batch, tt.span)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, got.FromBlock, tt.prev.FromBlock)
		})
	}
}

type staticHead uint64

func (h staticHead) LatestBlockNumber(context.Context) (uint64, error) { return uint64(h), nil }

// blockLogs answers every query with the logs inside its window and records the windows
type blockLogs struct {
	logs    []entity.LogEntry
	failAt  *uint64
	windows []entity.BlockCursor
}

func (b *blockLogs) FetchLogs(_ context.Context, q entity.LogQuery) ([]entity.LogEntry, error) {
	b.windows = append(b.windows, entity.BlockCursor{FromBlock: q.FromBlock, ToBlock: q.ToBlock})
	if b.failAt != nil && q.ToBlock == *b.failAt {
		return nil, errors.New("query timeout")
	}
	out := make([]entity.LogEntry, 0)
	for _, l := range b.logs {
		if l.BlockNumber >= q.FromBlock && l.BlockNumber <= q.ToBlock {
			out = append(out, l)
		}
	}
	return out, nil
}

func TestLogScanner_WalksBackward(t *testing.T) {
	logs := &blockLogs{logs: []entity.LogEntry{transferLog(98, 0), transferLog(98, 2), transferLog(95, 1)}}
	scanner := NewLogScanner(logs, staticHead(100), 1, nil, logger.NewNopLogger())

	result, err := scanner.Scan(context.Background(), LogScanRequest{Depth: 6})
	require.NoError(t, err)

	require.Len(t, result.Entries, 3)
	assert.Equal(t, uint64(98), result.Entries[0].BlockNumber)
	assert.Equal(t, uint(2), result.Entries[0].LogIndex)
	assert.Equal(t, uint(0), result.Entries[1].LogIndex)
	assert.Equal(t, uint64(95), result.Entries[2].BlockNumber)
	assert.True(t, result.Done)

	for i := 1; i < len(logs.windows); i++ {
		assert.LessOrEqual(t, logs.windows[i].FromBlock, logs.windows[i-1].FromBlock)
	}
	assert.Equal(t, entity.BlockCursor{FromBlock: 100, ToBlock: 100}, logs.windows[0])
	assert.Equal(t, uint64(95), logs.windows[len(logs.windows)-1].FromBlock)
}

func TestLogScanner_Limit(t *testing.T) {
	logs := &blockLogs{logs: []entity.LogEntry{transferLog(100, 0), transferLog(99, 0), transferLog(97, 0)}}
	scanner := NewLogScanner(logs, staticHead(100), 1, nil, logger.NewNopLogger())

	result, err := scanner.Scan(context.Background(), LogScanRequest{Limit: 2})
	require.NoError(t, err)
	require.Len(t, result.Entries, 2)
	assert.False(t, result.Done)
	assert.Equal(t, uint64(99), result.Entries[1].BlockNumber)
}

func TestLogScanner_PartialOnFailure(t *testing.T) {
	failAt := uint64(97)
	logs := &blockLogs{logs: []entity.LogEntry{transferLog(99, 0)}, failAt: &failAt}
	scanner := NewLogScanner(logs, staticHead(100), 1, nil, logger.NewNopLogger())

	result, err := scanner.Scan(context.Background(), LogScanRequest{Depth: 10})
	require.Error(t, err)
	var transportErr *entity.TransportError
	assert.ErrorAs(t, err, &transportErr)

	require.NotNil(t, result)
	assert.Len(t, result.Entries, 1)
	assert.Equal(t, entity.BlockCursor{FromBlock: 97, ToBlock: 97}, result.Next)
	assert.False(t, result.Done)
}

func TestLogScanner_RejectsMalformed(t *testing.T) {
	bad := transferLog(100, 1)
	bad.Topics = bad.Topics[:1]
	logs := &blockLogs{logs: []entity.LogEntry{transferLog(100, 0), bad}}

	var rejected []entity.LogRejectReason
	scanner := NewLogScanner(logs, staticHead(100), 1, func(r entity.LogRejectReason) { rejected = append(rejected, r) }, logger.NewNopLogger())

	result, err := scanner.Scan(context.Background(), LogScanRequest{Depth: 1})
	require.NoError(t, err)
	assert.Len(t, result.Entries, 1)
	assert.NotEmpty(t, rejected)
	assert.Equal(t, entity.LogRejectTopics, rejected[0])
}
