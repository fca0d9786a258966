package service

import (
	"context"
	"fmt"

	"chain-explorer/internal/domain/entity"
	"chain-explorer/internal/infrastructure/logger"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

const ownerWordLength = 32

// OwnerFanout enumerates the owners of a list of tokens, one lookup per token
type OwnerFanout struct {
	logger *logger.Logger
}

// NewOwnerFanout creates a new owner fanout
func NewOwnerFanout(logger *logger.Logger) *OwnerFanout {
	return &OwnerFanout{
		logger: logger.WithComponent("owner-fanout"),
	}
}

// DecodeOwnerWord converts a left-padded 32-byte value to a checksummed address
func DecodeOwnerWord(word []byte) (string, error) {
	if len(word) != ownerWordLength {
		return "", fmt.Errorf("%w: got %d bytes, want %d", entity.ErrMalformedOwner, len(word), ownerWordLength)
	}
	return common.BytesToAddress(word[ownerWordLength-common.AddressLength:]).Hex(), nil
}

// EnumerateOwners looks up owners token by token in input order.
// When a lookup fails the owners gathered so far are returned together with the error.
func (f *OwnerFanout) EnumerateOwners(ctx context.Context, contractAddress string, tokenIDs []string, fetcher OwnerFetcher) (entity.OwnerSet, error) {
	return f.enumerate(ctx, contractAddress, tokenIDs, fetcher, nil)
}

// EnumerateOwnersFunc behaves like EnumerateOwners and reports the owners of each token as soon as they are decoded
func (f *OwnerFanout) EnumerateOwnersFunc(
	ctx context.Context,
	contractAddress string,
	tokenIDs []string,
	fetcher OwnerFetcher,
	onToken func(tokenID string, owners []string),
) (entity.OwnerSet, error) {
	return f.enumerate(ctx, contractAddress, tokenIDs, fetcher, onToken)
}

func (f *OwnerFanout) enumerate(
	ctx context.Context,
	contractAddress string,
	tokenIDs []string,
	fetcher OwnerFetcher,
	onToken func(tokenID string, owners []string),
) (entity.OwnerSet, error) {
	owners := make(entity.OwnerSet, 0, len(tokenIDs))

	for i, tokenID := range tokenIDs {
		if err := ctx.Err(); err != nil {
			return owners, err
		}

		words, err := fetcher.FetchOwners(ctx, contractAddress, tokenID)
		if err != nil {
			f.logger.Error("Failed to fetch token owners",
				zap.String("contract", contractAddress),
				zap.String("token_id", tokenID),
				zap.Int("token_index", i),
				zap.Int("owners_retained", len(owners)),
				zap.Error(err))
			return owners, fmt.Errorf("failed to fetch owners of token %s: %w", tokenID, entity.NewTransportError("fetch owners", err))
		}

		decoded := make([]string, 0, len(words))
		for _, word := range words {
			owner, err := DecodeOwnerWord(word)
			if err != nil {
				return owners, fmt.Errorf("failed to decode owner of token %s: %w", tokenID, err)
			}
			decoded = append(decoded, owner)
		}

		owners = owners.Append(decoded...)
		if onToken != nil {
			onToken(tokenID, decoded)
		}
	}

	f.logger.Debug("Enumerated token owners",
		zap.String("contract", contractAddress),
		zap.Int("tokens", len(tokenIDs)),
		zap.Int("owners", len(owners)))

	return owners, nil
}
