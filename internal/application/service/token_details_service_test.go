package service

import (
	"context"
	"errors"
	"testing"

	"chain-explorer/internal/domain/entity"
	"chain-explorer/internal/domain/service"
	"chain-explorer/internal/infrastructure/logger"
	"chain-explorer/internal/infrastructure/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoPageTransfers() service.PageFetcherFunc {
	return func(_ context.Context, _ string, cursor *string) (*entity.TransferPage, error) {
		if cursor == nil {
			return &entity.TransferPage{
				Records:    []entity.TransferRecord{nftTransfer("0x1", "1"), nftTransfer("0x2", "2")},
				NextCursor: strPtr("next"),
			}, nil
		}
		return &entity.TransferPage{
			Records: []entity.TransferRecord{
				nftTransfer("0x3", "1"),
				{TransactionHash: "0x4", From: alice, Category: entity.TransferCategoryExternal},
			},
		}, nil
	}
}

func ownersByToken(owners map[string]string) service.OwnerFetcherFunc {
	return func(_ context.Context, _ string, tokenID string) ([][]byte, error) {
		owner, ok := owners[tokenID]
		if !ok {
			return nil, errors.New("execution reverted")
		}
		return [][]byte{ownerWord(owner)}, nil
	}
}

func TestTokenDetailsService_Lookup(t *testing.T) {
	svc := NewTokenDetailsService(twoPageTransfers(), ownersByToken(map[string]string{"1": alice, "2": bob}), 0, metrics.New(), logger.NewNopLogger())

	var updates []entity.TokenDetails
	details, err := svc.Lookup(context.Background(), tokenContract, func(d entity.TokenDetails) {
		updates = append(updates, d)
	})
	require.NoError(t, err)

	assert.NotEmpty(t, details.LookupID)
	assert.Len(t, details.Transfers, 4)
	assert.True(t, details.Complete)
	assert.False(t, details.Loading)
	assert.Empty(t, details.Error)
	assert.Equal(t, entity.OwnerSet{alice, bob}, details.Owners)
	assert.Equal(t, "2 nfts, 4 transfers: erc721: 3, external: 1", details.Summary)

	require.NotEmpty(t, updates)
	assert.True(t, updates[0].Loading)
	assert.Empty(t, updates[0].Transfers)
	for i := 1; i < len(updates); i++ {
		assert.GreaterOrEqual(t, len(updates[i].Transfers), len(updates[i-1].Transfers))
		assert.GreaterOrEqual(t, len(updates[i].Owners), len(updates[i-1].Owners))
	}
	assert.False(t, updates[len(updates)-1].Loading)
}

func TestTokenDetailsService_PageLimit(t *testing.T) {
	svc := NewTokenDetailsService(twoPageTransfers(), ownersByToken(map[string]string{"1": alice, "2": bob}), 1, metrics.New(), logger.NewNopLogger())

	details, err := svc.Lookup(context.Background(), tokenContract, nil)
	require.NoError(t, err)

	assert.Len(t, details.Transfers, 2)
	assert.False(t, details.Complete)
	require.NotNil(t, details.LastCursor)
	assert.Equal(t, "next", *details.LastCursor)
}

func TestTokenDetailsService_TransferFailure(t *testing.T) {
	pages := 0
	failing := service.PageFetcherFunc(func(_ context.Context, _ string, cursor *string) (*entity.TransferPage, error) {
		pages++
		if cursor == nil {
			return &entity.TransferPage{Records: []entity.TransferRecord{nftTransfer("0x1", "1")}, NextCursor: strPtr("next")}, nil
		}
		return nil, errors.New("429 too many requests")
	})
	ownerCalls := 0
	owners := service.OwnerFetcherFunc(func(context.Context, string, string) ([][]byte, error) {
		ownerCalls++
		return nil, nil
	})

	svc := NewTokenDetailsService(failing, owners, 0, metrics.New(), logger.NewNopLogger())
	details, err := svc.Lookup(context.Background(), tokenContract, nil)
	require.Error(t, err)

	require.NotNil(t, details)
	assert.Empty(t, details.Transfers)
	assert.Empty(t, details.Owners)
	assert.False(t, details.Loading)
	assert.Contains(t, details.Error, "429")
	assert.Equal(t, 2, pages)
	assert.Zero(t, ownerCalls)
}

func TestTokenDetailsService_OwnerFailureKeepsPartialOwners(t *testing.T) {
	svc := NewTokenDetailsService(twoPageTransfers(), ownersByToken(map[string]string{"1": alice}), 0, metrics.New(), logger.NewNopLogger())

	details, err := svc.Lookup(context.Background(), tokenContract, nil)
	require.Error(t, err)

	assert.Len(t, details.Transfers, 4)
	assert.Equal(t, entity.OwnerSet{alice}, details.Owners)
	assert.Contains(t, details.Error, "execution reverted")
	assert.False(t, details.Loading)
}
