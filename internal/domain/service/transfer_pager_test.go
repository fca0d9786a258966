package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"chain-explorer/internal/domain/entity"
	"chain-explorer/internal/infrastructure/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testContract = "0x72541Ad75E05BC77C7A92304225937a8F6653372"

func strPtr(s string) *string { return &s }

// pagedSource serves pages keyed by cursor ("" is the first page) and records the cursors it was asked for
type pagedSource struct {
	pages   map[string]*entity.TransferPage
	failAt  string
	cursors []string
}

func (s *pagedSource) FetchTransfers(_ context.Context, _ string, cursor *string) (*entity.TransferPage, error) {
	key := ""
	if cursor != nil {
		key = *cursor
	}
	s.cursors = append(s.cursors, key)
	if s.failAt != "" && key == s.failAt {
		return nil, errors.New("rate limited")
	}
	page, ok := s.pages[key]
	if !ok {
		return nil, fmt.Errorf("unexpected cursor %q", key)
	}
	return page, nil
}

func record(hash string, category entity.TransferCategory) entity.TransferRecord {
	return entity.TransferRecord{TransactionHash: hash, From: testContract, Category: category}
}

func threePages() *pagedSource {
	return &pagedSource{pages: map[string]*entity.TransferPage{
		"":   {Records: []entity.TransferRecord{record("0x1", entity.TransferCategoryERC721), record("0x2", entity.TransferCategoryERC721)}, NextCursor: strPtr("p2")},
		"p2": {Records: []entity.TransferRecord{record("0x3", entity.TransferCategoryExternal)}, NextCursor: strPtr("p3")},
		"p3": {Records: []entity.TransferRecord{record("0x4", entity.TransferCategoryERC20)}},
	}}
}

func hashes(records []entity.TransferRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.TransactionHash)
	}
	return out
}

func TestTransferPager_FetchAllUnbounded(t *testing.T) {
	source := threePages()
	pager := NewTransferPager(logger.NewNopLogger())

	result, err := pager.FetchAll(context.Background(), testContract, source, 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"0x1", "0x2", "0x3", "0x4"}, hashes(result.Records))
	assert.Equal(t, 3, result.Pages)
	assert.True(t, result.Complete)
	assert.Nil(t, result.LastCursor)
	assert.NoError(t, result.Warning())
	assert.Equal(t, []string{"", "p2", "p3"}, source.cursors)
}

func TestTransferPager_PageLimit(t *testing.T) {
	source := threePages()
	pager := NewTransferPager(logger.NewNopLogger())

	result, err := pager.FetchAll(context.Background(), testContract, source, 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"0x1", "0x2"}, hashes(result.Records))
	assert.False(t, result.Complete)
	require.NotNil(t, result.LastCursor)
	assert.Equal(t, "p2", *result.LastCursor)
	assert.Equal(t, []string{""}, source.cursors)

	warning := result.Warning()
	require.Error(t, warning)
	assert.ErrorIs(t, warning, entity.ErrIncompleteFetch)
	assert.Contains(t, warning.Error(), "p2")
}

func TestTransferPager_FailureDiscardsRecords(t *testing.T) {
	source := threePages()
	source.failAt = "p3"
	pager := NewTransferPager(logger.NewNopLogger())

	result, err := pager.FetchAll(context.Background(), testContract, source, 0)
	require.Error(t, err)
	assert.Nil(t, result)

	var transportErr *entity.TransportError
	assert.ErrorAs(t, err, &transportErr)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestTransferPager_EmptyFirstPage(t *testing.T) {
	source := &pagedSource{pages: map[string]*entity.TransferPage{"": {}}}
	pager := NewTransferPager(logger.NewNopLogger())

	result, err := pager.FetchAll(context.Background(), testContract, source, 0)
	require.NoError(t, err)
	assert.Empty(t, result.Records)
	assert.NotNil(t, result.Records)
	assert.True(t, result.Complete)
}

func TestTransferPager_Stream(t *testing.T) {
	pager := NewTransferPager(logger.NewNopLogger())

	var events []PageEvent
	for ev := range pager.Stream(context.Background(), testContract, threePages(), 0) {
		events = append(events, ev)
	}

	require.Len(t, events, 4)
	for i := 0; i < 3; i++ {
		assert.False(t, events[i].Done)
		assert.Equal(t, i+1, events[i].PageNumber)
	}
	assert.Equal(t, []string{"0x3"}, hashes(events[1].Page.Records))

	last := events[3]
	assert.True(t, last.Done)
	assert.True(t, last.Complete)
	assert.NoError(t, last.Err)
}

func TestTransferPager_StreamError(t *testing.T) {
	source := threePages()
	source.failAt = "p2"
	pager := NewTransferPager(logger.NewNopLogger())

	var events []PageEvent
	for ev := range pager.Stream(context.Background(), testContract, source, 0) {
		events = append(events, ev)
	}

	require.Len(t, events, 2)
	assert.False(t, events[0].Done)
	assert.True(t, events[1].Done)
	assert.False(t, events[1].Complete)
	assert.Error(t, events[1].Err)
}
