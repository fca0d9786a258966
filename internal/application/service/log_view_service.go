package service

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"chain-explorer/internal/domain/entity"
	"chain-explorer/internal/domain/service"
	"chain-explorer/internal/infrastructure/logger"
	"chain-explorer/internal/infrastructure/metrics"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const balanceConcurrency = 4

// TransferTopic is the topic of Transfer(address,address,uint256)
var TransferTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

// LogViewService renders recent transfer events of a token contract
type LogViewService struct {
	scanner    *service.LogScanner
	tokens     service.TokenMetadataFetcher
	scanBlocks uint64
	metrics    *metrics.Metrics
	logger     *logger.Logger
}

// NewLogViewService creates a new log view service. span is the number of
// blocks per log query and scanBlocks the default scan depth.
func NewLogViewService(
	logs service.LogFetcher,
	head service.HeadFetcher,
	tokens service.TokenMetadataFetcher,
	span uint64,
	scanBlocks uint64,
	metrics *metrics.Metrics,
	logger *logger.Logger,
) *LogViewService {
	return &LogViewService{
		scanner:    service.NewLogScanner(logs, head, span, metrics.ObserveRejectedLog, logger),
		tokens:     tokens,
		scanBlocks: scanBlocks,
		metrics:    metrics,
		logger:     logger.WithComponent("log-view"),
	}
}

// RecentTransfers scans the last blocks (0 selects the configured depth) for
// transfer events of address, newest first. When the scan fails part way the
// entries found so far are returned together with the error.
func (s *LogViewService) RecentTransfers(ctx context.Context, address string, blocks uint64, limit int) (*entity.TransferLogPage, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid contract address %q", address)
	}
	contract := common.HexToAddress(address).Hex()
	if blocks == 0 {
		blocks = s.scanBlocks
	}

	start := time.Now()
	scan, scanErr := s.scanner.Scan(ctx, service.LogScanRequest{
		Address: &contract,
		Topics:  [][]common.Hash{{TransferTopic}},
		Depth:   blocks,
		Limit:   limit,
	})
	s.metrics.ObserveDuration("scan_logs", start, scanErr)
	if scan == nil {
		return nil, scanErr
	}

	page := &entity.TransferLogPage{
		Address:   contract,
		Transfers: make([]entity.TransferLogView, 0, len(scan.Entries)),
		Next:      scan.Next,
		Probes:    scan.Probes,
		Done:      scan.Done,
	}

	token, err := s.tokens.GetTokenMetadata(ctx, contract)
	if err != nil {
		s.logger.Warn("Failed to load token metadata", zap.String("address", contract), zap.Error(err))
	} else {
		page.Token = token
	}

	for _, entry := range scan.Entries {
		page.Transfers = append(page.Transfers, buildTransferView(entry, page.Token))
	}

	if err := s.fillBalances(ctx, contract, page); err != nil {
		s.logger.Warn("Failed to load balances", zap.String("address", contract), zap.Error(err))
	}

	s.logger.Debug("Scanned transfer logs",
		zap.String("address", contract),
		zap.Int("transfers", len(page.Transfers)),
		zap.Int("probes", page.Probes),
		zap.Bool("done", page.Done))

	return page, scanErr
}

// buildTransferView reads sender and recipient from the indexed topics and the amount from data
func buildTransferView(entry entity.LogEntry, token *entity.TokenMetadata) entity.TransferLogView {
	view := entity.TransferLogView{
		ID:    fmt.Sprintf("%s:%d", entry.TransactionHash, entry.LogIndex),
		Entry: entry,
		From:  common.BytesToAddress(entry.Topics[1].Bytes()).Hex(),
		To:    common.BytesToAddress(entry.Topics[2].Bytes()).Hex(),
		Token: token,
	}

	data := entry.Data
	if len(data) > common.HashLength {
		data = data[:common.HashLength]
	}
	raw := decimal.NewFromBigInt(new(big.Int).SetBytes(data), 0)
	view.Quantity = token.FormatAmount(raw)

	return view
}

// fillBalances loads the current balance of every distinct sender and recipient
func (s *LogViewService) fillBalances(ctx context.Context, contract string, page *entity.TransferLogPage) error {
	holders := make(map[string]struct{})
	for _, v := range page.Transfers {
		holders[v.From] = struct{}{}
		holders[v.To] = struct{}{}
	}
	if len(holders) == 0 {
		return nil
	}

	var mu sync.Mutex
	balances := make(map[string]string, len(holders))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(balanceConcurrency)
	for holder := range holders {
		g.Go(func() error {
			raw, err := s.tokens.GetTokenBalance(gctx, holder, contract)
			if err != nil {
				return fmt.Errorf("failed to get balance of %s: %w", holder, err)
			}
			amount, err := decimal.NewFromString(raw)
			if err != nil {
				return fmt.Errorf("invalid balance %q for %s: %w", raw, holder, err)
			}
			formatted := page.Token.FormatAmount(amount)

			mu.Lock()
			balances[holder] = formatted
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()

	for i := range page.Transfers {
		if b, ok := balances[page.Transfers[i].From]; ok {
			page.Transfers[i].FromBalance = &b
		}
		if b, ok := balances[page.Transfers[i].To]; ok {
			page.Transfers[i].ToBalance = &b
		}
	}

	return err
}
