package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"chain-explorer/internal/domain/entity"
	"chain-explorer/internal/domain/service"
	"chain-explorer/internal/infrastructure/logger"
	"chain-explorer/internal/infrastructure/metrics"

	"go.uber.org/zap"
)

// IndexingApplicationService implements IndexingService interface
type IndexingApplicationService struct {
	decoder   service.CalldataDecoder
	publisher service.CallPublisher
	metrics   *metrics.Metrics
	logger    *logger.Logger
}

// NewIndexingApplicationService creates a new indexing application service
func NewIndexingApplicationService(
	decoder service.CalldataDecoder,
	publisher service.CallPublisher,
	metrics *metrics.Metrics,
	logger *logger.Logger,
) service.IndexingService {
	return &IndexingApplicationService{
		decoder:   decoder,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger.WithComponent("indexing-service"),
	}
}

// ProcessTransaction decodes a transaction event and publishes the result
func (s *IndexingApplicationService) ProcessTransaction(ctx context.Context, tx *entity.Transaction) (*entity.TransactionCall, error) {
	call, err := decodeTransaction(s.decoder, tx)
	s.metrics.ObserveDecode(call.Call, err)

	if pubErr := s.publisher.PublishCalls(ctx, []*entity.TransactionCall{call}); pubErr != nil {
		return call, fmt.Errorf("failed to publish decoded transaction: %w", pubErr)
	}

	if err != nil {
		s.logger.Debug("Failed to decode transaction calldata",
			zap.String("tx_hash", tx.Hash),
			zap.String("to", tx.To),
			zap.Error(err))
		return call, err
	}

	return call, nil
}

// ProcessTransactionBatch decodes multiple transactions and publishes them together.
// Decode failures are carried in the published records and do not fail the batch.
func (s *IndexingApplicationService) ProcessTransactionBatch(ctx context.Context, transactions []*entity.Transaction) error {
	start := time.Now()

	calls := make([]*entity.TransactionCall, 0, len(transactions))
	withData, known, failed := 0, 0, 0

	for _, tx := range transactions {
		if hasCalldata(tx.Data) {
			withData++
		}

		call, err := decodeTransaction(s.decoder, tx)
		s.metrics.ObserveDecode(call.Call, err)
		switch {
		case err != nil:
			failed++
			s.logger.Debug("Failed to decode transaction calldata",
				zap.String("tx_hash", tx.Hash),
				zap.Error(err))
		case call.Call != nil && call.Call.Known():
			known++
		}
		calls = append(calls, call)
	}

	s.logger.Info("Batch transaction analysis",
		zap.Int("total_transactions", len(transactions)),
		zap.Int("transactions_with_data", withData),
		zap.Int("known_methods", known),
		zap.Int("decode_failures", failed))

	err := s.publisher.PublishCalls(ctx, calls)
	s.metrics.ObserveDuration("process_batch", start, err)
	if err != nil {
		return fmt.Errorf("failed to publish decoded batch: %w", err)
	}

	s.logger.Info("Successfully processed transaction batch",
		zap.Int("count", len(transactions)),
		zap.Duration("duration", time.Since(start)))
	return nil
}

// decodeTransaction decodes the calldata of tx. Plain value transfers carry no call.
// On failure the returned record holds the error text.
func decodeTransaction(decoder service.CalldataDecoder, tx *entity.Transaction) (*entity.TransactionCall, error) {
	call := &entity.TransactionCall{
		Hash:        tx.Hash,
		From:        tx.From,
		To:          tx.To,
		Value:       tx.Value,
		BlockNumber: tx.BlockNumber,
		Network:     tx.Network,
	}

	if !hasCalldata(tx.Data) {
		return call, nil
	}

	decoded, err := decoder.DecodeHex(tx.Data)
	if err != nil {
		call.Error = err.Error()
		return call, err
	}
	call.Call = decoded
	return call, nil
}

func hasCalldata(data string) bool {
	data = strings.TrimSpace(data)
	return data != "" && data != "0x" && data != "0X"
}
