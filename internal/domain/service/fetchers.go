package service

import (
	"context"

	"chain-explorer/internal/domain/entity"
)

// PageFetcher queries one page of asset transfers for a contract.
// A nil cursor requests the first page.
type PageFetcher interface {
	FetchTransfers(ctx context.Context, contractAddress string, cursor *string) (*entity.TransferPage, error)
}

// PageFetcherFunc adapts a function to PageFetcher
type PageFetcherFunc func(ctx context.Context, contractAddress string, cursor *string) (*entity.TransferPage, error)

func (f PageFetcherFunc) FetchTransfers(ctx context.Context, contractAddress string, cursor *string) (*entity.TransferPage, error) {
	return f(ctx, contractAddress, cursor)
}

// OwnerFetcher returns the raw owner words (32-byte, left-padded) of a token
type OwnerFetcher interface {
	FetchOwners(ctx context.Context, contractAddress string, tokenID string) ([][]byte, error)
}

// OwnerFetcherFunc adapts a function to OwnerFetcher
type OwnerFetcherFunc func(ctx context.Context, contractAddress string, tokenID string) ([][]byte, error)

func (f OwnerFetcherFunc) FetchOwners(ctx context.Context, contractAddress string, tokenID string) ([][]byte, error) {
	return f(ctx, contractAddress, tokenID)
}

// LogFetcher runs a log query
type LogFetcher interface {
	FetchLogs(ctx context.Context, query entity.LogQuery) ([]entity.LogEntry, error)
}

// LogFetcherFunc adapts a function to LogFetcher
type LogFetcherFunc func(ctx context.Context, query entity.LogQuery) ([]entity.LogEntry, error)

func (f LogFetcherFunc) FetchLogs(ctx context.Context, query entity.LogQuery) ([]entity.LogEntry, error) {
	return f(ctx, query)
}

// HeadFetcher returns the current chain head
type HeadFetcher interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
}

// TokenMetadataFetcher resolves token metadata and balances
type TokenMetadataFetcher interface {
	GetTokenMetadata(ctx context.Context, contractAddress string) (*entity.TokenMetadata, error)
	GetTokenBalance(ctx context.Context, holder string, contractAddress string) (string, error)
}

// BlockFetcher returns a block with its transactions. An empty tag or "latest" selects the chain head.
type BlockFetcher interface {
	FetchBlock(ctx context.Context, tag string) (*entity.Block, error)
}
