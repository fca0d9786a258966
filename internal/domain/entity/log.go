package entity

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// LogEntry represents an event log returned by a log query
type LogEntry struct {
	BlockNumber     uint64        `json:"blockNumber"`
	LogIndex        uint          `json:"logIndex"`
	TransactionHash string        `json:"transactionHash"`
	Address         string        `json:"address"`
	Data            []byte        `json:"data"`
	Topics          []common.Hash `json:"topics"`
	Removed         bool          `json:"removed"`
}

// Key identifies a log entry for deduplication
func (l LogEntry) Key() string {
	return fmt.Sprintf("%d:%d:%s", l.BlockNumber, l.LogIndex, l.TransactionHash)
}

// BlockCursor bounds a log scan. Scans walk backward, so FromBlock never increases.
type BlockCursor struct {
	FromBlock uint64 `json:"fromBlock"`
	ToBlock   uint64 `json:"toBlock"`
}

// LogQuery is the request passed to a log fetcher
type LogQuery struct {
	FromBlock uint64
	ToBlock   uint64
	Address   *string
	Topics    [][]common.Hash
}

// LogRejectReason describes why a log entry was filtered out
type LogRejectReason string

const (
	LogRejectNone      LogRejectReason = ""
	LogRejectRemoved   LogRejectReason = "removed"
	LogRejectTopics    LogRejectReason = "topic_count"
	LogRejectEmptyData LogRejectReason = "empty_data"
)
