package blockchain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"chain-explorer/internal/domain/service"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

const erc721OwnerABI = `[{"constant":true,"inputs":[{"name":"tokenId","type":"uint256"}],"name":"ownerOf","outputs":[{"name":"","type":"address"}],"type":"function"}]`

// TokenOwnerFetcher resolves the owner of an NFT with an ownerOf eth_call
type TokenOwnerFetcher struct {
	client *EthereumClient
	abi    abi.ABI
}

// NewTokenOwnerFetcher creates a new token owner fetcher
func NewTokenOwnerFetcher(client *EthereumClient) (service.OwnerFetcher, error) {
	parsed, err := abi.JSON(strings.NewReader(erc721OwnerABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ownerOf ABI: %w", err)
	}
	return &TokenOwnerFetcher{client: client, abi: parsed}, nil
}

// FetchOwners returns the raw 32-byte owner word of the token
func (f *TokenOwnerFetcher) FetchOwners(ctx context.Context, contractAddress string, tokenID string) ([][]byte, error) {
	id, ok := new(big.Int).SetString(strings.TrimSpace(tokenID), 0)
	if !ok {
		return nil, fmt.Errorf("invalid token id %q", tokenID)
	}

	data, err := f.abi.Pack("ownerOf", id)
	if err != nil {
		return nil, errors.Wrap(err, "pack ownerOf")
	}

	out, err := f.client.CallContract(ctx, common.HexToAddress(contractAddress), data)
	if err != nil {
		return nil, errors.Wrapf(err, "ownerOf(%s) on %s", tokenID, contractAddress)
	}
	if len(out) == 0 {
		return [][]byte{}, nil
	}

	return [][]byte{out}, nil
}
