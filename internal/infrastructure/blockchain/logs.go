package blockchain

import (
	"context"
	"math/big"

	"chain-explorer/internal/domain/entity"
	"chain-explorer/internal/domain/service"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

// LogQueryFetcher runs log queries through eth_getLogs
type LogQueryFetcher struct {
	client *EthereumClient
}

// NewLogQueryFetcher creates a new log fetcher
func NewLogQueryFetcher(client *EthereumClient) service.LogFetcher {
	return &LogQueryFetcher{client: client}
}

// FetchLogs converts the query and returns the matching entries in provider order
func (f *LogQueryFetcher) FetchLogs(ctx context.Context, query entity.LogQuery) ([]entity.LogEntry, error) {
	filter := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(query.FromBlock),
		ToBlock:   new(big.Int).SetUint64(query.ToBlock),
		Topics:    query.Topics,
	}
	if query.Address != nil {
		filter.Addresses = []common.Address{common.HexToAddress(*query.Address)}
	}

	logs, err := f.client.FilterLogs(ctx, filter)
	if err != nil {
		return nil, err
	}

	entries := make([]entity.LogEntry, 0, len(logs))
	for _, l := range logs {
		entries = append(entries, entity.LogEntry{
			BlockNumber:     l.BlockNumber,
			LogIndex:        l.Index,
			TransactionHash: l.TxHash.Hex(),
			Address:         l.Address.Hex(),
			Data:            l.Data,
			Topics:          l.Topics,
			Removed:         l.Removed,
		})
	}
	return entries, nil
}
