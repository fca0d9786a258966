package blockchain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"chain-explorer/internal/domain/entity"
	"chain-explorer/internal/domain/service"
	"chain-explorer/internal/infrastructure/logger"

	"github.com/coocood/freecache"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// TokenMetadataService reads name, symbol, decimals and balances from ERC20-like contracts.
// Metadata is cached in memory since it does not change for a deployed contract.
type TokenMetadataService struct {
	client *EthereumClient
	abi    abi.ABI
	cache  *freecache.Cache
	ttl    time.Duration
	logger *logger.Logger
}

// NewTokenMetadataService creates a new token metadata service. cacheSizeMB is the
// in-memory cache size in megabytes.
func NewTokenMetadataService(client *EthereumClient, cacheSizeMB int, ttl time.Duration, logger *logger.Logger) service.TokenMetadataFetcher {
	if cacheSizeMB <= 0 {
		cacheSizeMB = 1
	}
	return &TokenMetadataService{
		client: client,
		abi:    getERC20ABI(),
		cache:  freecache.NewCache(cacheSizeMB * 1024 * 1024),
		ttl:    ttl,
		logger: logger.WithComponent("token-metadata"),
	}
}

// GetTokenMetadata returns the token's metadata. Fields the contract does not
// implement are left empty.
func (s *TokenMetadataService) GetTokenMetadata(ctx context.Context, contractAddress string) (*entity.TokenMetadata, error) {
	if !common.IsHexAddress(contractAddress) {
		return nil, fmt.Errorf("invalid contract address %q", contractAddress)
	}
	address := common.HexToAddress(contractAddress)
	key := []byte("meta:" + strings.ToLower(address.Hex()))

	if cached, err := s.cache.Get(key); err == nil {
		var meta entity.TokenMetadata
		if err := json.Unmarshal(cached, &meta); err == nil {
			return &meta, nil
		}
	}

	meta := &entity.TokenMetadata{Address: address.Hex()}
	var lastErr error

	if name, err := s.callText(ctx, address, "name"); err == nil {
		meta.Name = name
	} else {
		lastErr = err
	}
	if symbol, err := s.callText(ctx, address, "symbol"); err == nil {
		meta.Symbol = symbol
	} else {
		lastErr = err
	}
	if decimals, err := s.callDecimals(ctx, address); err == nil {
		meta.Decimals = &decimals
	} else {
		lastErr = err
	}

	if meta.Name == "" && meta.Symbol == "" && meta.Decimals == nil && lastErr != nil {
		return nil, fmt.Errorf("failed to read token metadata for %s: %w", address.Hex(), lastErr)
	}

	if encoded, err := json.Marshal(meta); err == nil {
		if err := s.cache.Set(key, encoded, int(s.ttl.Seconds())); err != nil {
			s.logger.Warn("Failed to cache token metadata", zap.String("address", address.Hex()), zap.Error(err))
		}
	}

	return meta, nil
}

// GetTokenBalance returns the raw balanceOf value of holder as a base-10 string
func (s *TokenMetadataService) GetTokenBalance(ctx context.Context, holder string, contractAddress string) (string, error) {
	if !common.IsHexAddress(holder) {
		return "", fmt.Errorf("invalid holder address %q", holder)
	}
	out, err := s.call(ctx, common.HexToAddress(contractAddress), "balanceOf", common.HexToAddress(holder))
	if err != nil {
		return "", err
	}
	values, err := s.abi.Unpack("balanceOf", out)
	if err != nil || len(values) == 0 {
		return "", fmt.Errorf("failed to unpack balanceOf: %w", err)
	}
	balance, ok := values[0].(*big.Int)
	if !ok {
		return "", fmt.Errorf("unexpected balanceOf result %T", values[0])
	}
	return balance.String(), nil
}

func (s *TokenMetadataService) call(ctx context.Context, address common.Address, method string, args ...interface{}) ([]byte, error) {
	data, err := s.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}
	out, err := s.client.CallContract(ctx, address, data)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s returned no data", method)
	}
	return out, nil
}

// callText reads a string getter. Older tokens return bytes32 instead of string.
func (s *TokenMetadataService) callText(ctx context.Context, address common.Address, method string) (string, error) {
	out, err := s.call(ctx, address, method)
	if err != nil {
		return "", err
	}
	if values, err := s.abi.Unpack(method, out); err == nil && len(values) == 1 {
		if text, ok := values[0].(string); ok {
			return text, nil
		}
	}
	if len(out) == 32 {
		return string(bytes.TrimRight(out, "\x00")), nil
	}
	return "", fmt.Errorf("failed to unpack %s", method)
}

func (s *TokenMetadataService) callDecimals(ctx context.Context, address common.Address) (uint8, error) {
	out, err := s.call(ctx, address, "decimals")
	if err != nil {
		return 0, err
	}
	values, err := s.abi.Unpack("decimals", out)
	if err != nil || len(values) == 0 {
		return 0, fmt.Errorf("failed to unpack decimals: %w", err)
	}
	decimals, ok := values[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("unexpected decimals result %T", values[0])
	}
	return decimals, nil
}

// getERC20ABI returns the ERC20 read-only ABI
func getERC20ABI() abi.ABI {
	erc20ABI := `[
		{
			"constant": true,
			"inputs": [],
			"name": "name",
			"outputs": [{"name": "", "type": "string"}],
			"type": "function"
		},
		{
			"constant": true,
			"inputs": [],
			"name": "symbol",
			"outputs": [{"name": "", "type": "string"}],
			"type": "function"
		},
		{
			"constant": true,
			"inputs": [],
			"name": "decimals",
			"outputs": [{"name": "", "type": "uint8"}],
			"type": "function"
		},
		{
			"constant": true,
			"inputs": [{"name": "_owner", "type": "address"}],
			"name": "balanceOf",
			"outputs": [{"name": "balance", "type": "uint256"}],
			"type": "function"
		}
	]`

	parsed, _ := abi.JSON(strings.NewReader(erc20ABI))
	return parsed
}
