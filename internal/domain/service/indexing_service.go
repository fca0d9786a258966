package service

import (
	"context"

	"chain-explorer/internal/domain/entity"
)

// IndexingService defines the interface for decoding streamed transactions
type IndexingService interface {
	// ProcessTransaction decodes the calldata of a transaction event
	ProcessTransaction(ctx context.Context, tx *entity.Transaction) (*entity.TransactionCall, error)

	// ProcessTransactionBatch decodes multiple transactions in batch
	ProcessTransactionBatch(ctx context.Context, transactions []*entity.Transaction) error
}
