package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"chain-explorer/internal/domain/entity"
	"chain-explorer/internal/domain/service"
	"chain-explorer/internal/infrastructure/logger"
	"chain-explorer/internal/infrastructure/metrics"

	"go.uber.org/zap"
)

// BlockDecodingService fetches a block and decodes the calldata of every transaction in it
type BlockDecodingService struct {
	blocks     service.BlockFetcher
	decoder    service.CalldataDecoder
	classifier service.ContractClassifierService
	metrics    *metrics.Metrics
	logger     *logger.Logger
}

// NewBlockDecodingService creates a new block decoding service
func NewBlockDecodingService(
	blocks service.BlockFetcher,
	decoder service.CalldataDecoder,
	classifier service.ContractClassifierService,
	metrics *metrics.Metrics,
	logger *logger.Logger,
) *BlockDecodingService {
	return &BlockDecodingService{
		blocks:     blocks,
		decoder:    decoder,
		classifier: classifier,
		metrics:    metrics,
		logger:     logger.WithComponent("block-decoding"),
	}
}

// DecodeBlock loads the block identified by tag and decodes each transaction in block order.
// A transaction that fails to decode keeps its error text and does not fail the block.
func (s *BlockDecodingService) DecodeBlock(ctx context.Context, tag string) (*entity.BlockCalls, error) {
	start := time.Now()

	block, err := s.blocks.FetchBlock(ctx, tag)
	s.metrics.ObserveDuration("fetch_block", start, err)
	if err != nil {
		s.logger.Error("Failed to fetch block", zap.String("tag", tag), zap.Error(err))
		return nil, fmt.Errorf("failed to fetch block %q: %w", tag, err)
	}

	result := &entity.BlockCalls{
		Number:       block.Number,
		Hash:         block.Hash,
		ParentHash:   block.ParentHash,
		Timestamp:    block.Timestamp,
		Miner:        block.Miner,
		GasUsed:      block.GasUsed,
		Transactions: make([]entity.TransactionCall, 0, len(block.Transactions)),
	}

	byContract := make(map[string][]entity.TransactionCall)
	failed := 0
	for i := range block.Transactions {
		call, err := decodeTransaction(s.decoder, &block.Transactions[i])
		s.metrics.ObserveDecode(call.Call, err)
		if err != nil {
			failed++
		}
		result.Transactions = append(result.Transactions, *call)

		if call.To != "" && call.Call != nil {
			key := strings.ToLower(call.To)
			byContract[key] = append(byContract[key], *call)
		}
	}

	result.Contracts = s.classifyContracts(byContract)

	s.logger.Info("Decoded block",
		zap.Uint64("number", block.Number),
		zap.Int("transactions", len(result.Transactions)),
		zap.Int("contracts", len(result.Contracts)),
		zap.Int("decode_failures", failed))

	return result, nil
}

func (s *BlockDecodingService) classifyContracts(byContract map[string][]entity.TransactionCall) []entity.ContractProfile {
	addresses := make([]string, 0, len(byContract))
	for address := range byContract {
		addresses = append(addresses, address)
	}
	sort.Strings(addresses)

	profiles := make([]entity.ContractProfile, 0, len(addresses))
	for _, address := range addresses {
		calls := byContract[address]
		profile := s.classifier.ClassifyContract(calls[0].To, calls)
		if profile.Standard == entity.TokenStandardUnknown {
			continue
		}
		profiles = append(profiles, *profile)
	}
	return profiles
}
