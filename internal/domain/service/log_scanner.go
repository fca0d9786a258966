package service

import (
	"context"
	"fmt"
	"slices"

	"chain-explorer/internal/domain/entity"
	"chain-explorer/internal/infrastructure/logger"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// LogScanRequest describes a backward log scan
type LogScanRequest struct {
	Address *string
	Topics  [][]common.Hash
	// StartBlock overrides the chain head as the first upper bound
	StartBlock *uint64
	// Depth is the number of blocks below the start to cover, 0 means down to genesis
	Depth uint64
	// Limit stops the scan once this many entries were collected, 0 means no limit
	Limit int
}

// LogScanResult holds the entries found, newest first, and the cursor to resume from
type LogScanResult struct {
	Entries []entity.LogEntry  `json:"logs"`
	Next    entity.BlockCursor `json:"next"`
	Probes  int                `json:"probes"`
	Done    bool               `json:"done"`
}

// LogScanner walks backward from the chain head, one window per probe
type LogScanner struct {
	fetcher  LogFetcher
	head     HeadFetcher
	span     uint64
	onReject func(entity.LogRejectReason)
	logger   *logger.Logger
}

// NewLogScanner creates a scanner. A span of 1 probes a single block per call.
func NewLogScanner(fetcher LogFetcher, head HeadFetcher, span uint64, onReject func(entity.LogRejectReason), logger *logger.Logger) *LogScanner {
	if span == 0 {
		span = 1
	}
	return &LogScanner{
		fetcher:  fetcher,
		head:     head,
		span:     span,
		onReject: onReject,
		logger:   logger.WithComponent("log-scanner"),
	}
}

func newestFirst(a, b entity.LogEntry) int {
	switch {
	case a.BlockNumber != b.BlockNumber:
		if a.BlockNumber > b.BlockNumber {
			return -1
		}
		return 1
	case a.LogIndex != b.LogIndex:
		if a.LogIndex > b.LogIndex {
			return -1
		}
		return 1
	default:
		return 0
	}
}

// Scan collects filtered, deduplicated entries. On a fetch failure the entries
// gathered so far and the cursor of the failed probe are returned with the error.
func (s *LogScanner) Scan(ctx context.Context, req LogScanRequest) (*LogScanResult, error) {
	var start uint64
	if req.StartBlock != nil {
		start = *req.StartBlock
	} else {
		head, err := s.head.LatestBlockNumber(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get chain head: %w", entity.NewTransportError("block number", err))
		}
		start = head
	}

	lowest := uint64(0)
	if req.Depth > 0 && start+1 > req.Depth {
		lowest = start + 1 - req.Depth
	}

	cursor := entity.BlockCursor{ToBlock: start}
	if start+1 > s.span {
		cursor.FromBlock = start + 1 - s.span
	}
	if cursor.FromBlock < lowest {
		cursor.FromBlock = lowest
	}

	filter := NewLogStreamFilter(s.onReject)
	result := &LogScanResult{Entries: make([]entity.LogEntry, 0)}

	for {
		if req.Limit > 0 && len(result.Entries) >= req.Limit {
			break
		}
		if err := ctx.Err(); err != nil {
			result.Next = cursor
			return result, err
		}

		batch, err := s.fetcher.FetchLogs(ctx, entity.LogQuery{
			FromBlock: cursor.FromBlock,
			ToBlock:   cursor.ToBlock,
			Address:   req.Address,
			Topics:    req.Topics,
		})
		result.Probes++
		if err != nil {
			s.logger.Error("Failed to fetch logs",
				zap.Uint64("from_block", cursor.FromBlock),
				zap.Uint64("to_block", cursor.ToBlock),
				zap.Error(err))
			result.Next = cursor
			return result, fmt.Errorf("failed to fetch logs for blocks %d-%d: %w",
				cursor.FromBlock, cursor.ToBlock, entity.NewTransportError("fetch logs", err))
		}

		fresh := filter.Filter(batch)
		slices.SortStableFunc(fresh, newestFirst)
		result.Entries = append(result.Entries, fresh...)

		s.logger.Debug("Probed logs",
			zap.Uint64("from_block", cursor.FromBlock),
			zap.Uint64("to_block", cursor.ToBlock),
			zap.Int("fetched", len(batch)),
			zap.Int("accepted", len(fresh)))

		next, ok := AdvanceCursor(cursor, fresh, s.span)
		if !ok || next.ToBlock < lowest {
			result.Done = true
			cursor = next
			break
		}
		if next.FromBlock < lowest {
			next.FromBlock = lowest
		}
		cursor = next
	}

	if req.Limit > 0 && len(result.Entries) > req.Limit {
		result.Entries = result.Entries[:req.Limit]
	}
	result.Next = cursor
	return result, nil
}
