package blockchain

import (
	"context"
	"fmt"
	"strings"

	"chain-explorer/internal/domain/entity"
	"chain-explorer/internal/domain/service"
	"chain-explorer/internal/infrastructure/logger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const assetTransfersMethod = "alchemy_getAssetTransfers"

// DefaultTransferCategories is the category filter used when none is configured
var DefaultTransferCategories = []string{"external", "internal", "erc20", "erc721", "erc1155"}

type assetTransfersParams struct {
	FromBlock         string   `json:"fromBlock"`
	ContractAddresses []string `json:"contractAddresses"`
	Category          []string `json:"category"`
	ExcludeZeroValue  bool     `json:"excludeZeroValue"`
	MaxCount          string   `json:"maxCount,omitempty"`
	PageKey           *string  `json:"pageKey,omitempty"`
}

type erc1155Metadata struct {
	TokenID string `json:"tokenId"`
	Value   string `json:"value"`
}

type assetTransferJSON struct {
	BlockNum        string             `json:"blockNum"`
	Hash            string             `json:"hash"`
	From            string             `json:"from"`
	To              *string            `json:"to"`
	Value           *float64           `json:"value"`
	TokenID         *string            `json:"tokenId"`
	ERC721TokenID   *string            `json:"erc721TokenId"`
	ERC1155Metadata []erc1155Metadata  `json:"erc1155Metadata"`
	Asset           *string            `json:"asset"`
	Category        string             `json:"category"`
	RawContract     entity.RawContract `json:"rawContract"`
}

type assetTransfersResponse struct {
	Transfers []assetTransferJSON `json:"transfers"`
	PageKey   string              `json:"pageKey"`
}

// AssetTransferFetcher queries the indexing provider's asset transfer endpoint
type AssetTransferFetcher struct {
	client     *EthereumClient
	categories []string
	maxCount   int
	logger     *logger.Logger
}

// NewAssetTransferFetcher creates a new asset transfer fetcher
func NewAssetTransferFetcher(client *EthereumClient, categories []string, maxCount int, logger *logger.Logger) service.PageFetcher {
	if len(categories) == 0 {
		categories = DefaultTransferCategories
	}
	return &AssetTransferFetcher{
		client:     client,
		categories: categories,
		maxCount:   maxCount,
		logger:     logger.WithComponent("asset-transfers"),
	}
}

// FetchTransfers requests one page of transfers of a contract
func (f *AssetTransferFetcher) FetchTransfers(ctx context.Context, contractAddress string, cursor *string) (*entity.TransferPage, error) {
	if !common.IsHexAddress(contractAddress) {
		return nil, fmt.Errorf("invalid contract address %q", contractAddress)
	}

	params := assetTransfersParams{
		FromBlock:         "0x0",
		ContractAddresses: []string{common.HexToAddress(contractAddress).Hex()},
		Category:          f.categories,
		PageKey:           cursor,
	}
	if f.maxCount > 0 {
		params.MaxCount = fmt.Sprintf("0x%x", f.maxCount)
	}

	var resp assetTransfersResponse
	if err := f.client.CallContext(ctx, &resp, assetTransfersMethod, params); err != nil {
		return nil, errors.Wrapf(err, "asset transfers for %s", contractAddress)
	}

	page := &entity.TransferPage{
		Records: make([]entity.TransferRecord, 0, len(resp.Transfers)),
	}
	for _, t := range resp.Transfers {
		page.Records = append(page.Records, convertAssetTransfer(t))
	}
	if resp.PageKey != "" {
		next := resp.PageKey
		page.NextCursor = &next
	}

	f.logger.Debug("Fetched transfer page",
		zap.String("address", contractAddress),
		zap.Int("records", len(page.Records)),
		zap.Bool("has_next", page.NextCursor != nil))

	return page, nil
}

func convertAssetTransfer(t assetTransferJSON) entity.TransferRecord {
	record := entity.TransferRecord{
		BlockNumber:     t.BlockNum,
		TransactionHash: t.Hash,
		From:            t.From,
		To:              t.To,
		Value:           t.Value,
		Asset:           t.Asset,
		Category:        entity.TransferCategory(strings.ToLower(t.Category)),
		RawContract:     t.RawContract,
	}

	switch {
	case t.TokenID != nil:
		record.TokenID = t.TokenID
	case t.ERC721TokenID != nil:
		record.TokenID = t.ERC721TokenID
	case len(t.ERC1155Metadata) > 0:
		id := t.ERC1155Metadata[0].TokenID
		record.TokenID = &id
	}

	return record
}
