package service

import (
	"context"
	"fmt"

	"chain-explorer/internal/domain/entity"
	"chain-explorer/internal/infrastructure/logger"

	"go.uber.org/zap"
)

// TransferPager walks a cursor-driven transfer query one page at a time
type TransferPager struct {
	logger *logger.Logger
}

// NewTransferPager creates a new transfer pager
func NewTransferPager(logger *logger.Logger) *TransferPager {
	return &TransferPager{
		logger: logger.WithComponent("transfer-pager"),
	}
}

// PageEvent is delivered by Stream for every fetched page, and once more with Done set
type PageEvent struct {
	Page       *entity.TransferPage
	PageNumber int
	Done       bool
	Complete   bool
	LastCursor *string
	Err        error
}

// walk issues page requests strictly in order and hands each page to visit.
// It returns the number of pages fetched, whether the source ran out and the
// cursor it stopped at.
func (p *TransferPager) walk(
	ctx context.Context,
	address string,
	fetcher PageFetcher,
	maxPages int,
	visit func(page *entity.TransferPage, pageNumber int) error,
) (int, bool, *string, error) {
	var cursor *string
	pageCount := 0
	fetched := 0

	for {
		if err := ctx.Err(); err != nil {
			return fetched, false, cursor, err
		}

		page, err := fetcher.FetchTransfers(ctx, address, cursor)
		if err != nil {
			p.logger.Error("Failed to fetch transfer page",
				zap.String("address", address),
				zap.Int("page", fetched+1),
				zap.Error(err))
			return fetched, false, cursor, entity.NewTransportError("fetch transfers", err)
		}
		if page == nil {
			page = &entity.TransferPage{}
		}
		fetched++

		if err := visit(page, fetched); err != nil {
			return fetched, false, cursor, err
		}

		if page.NextCursor == nil {
			return fetched, true, nil, nil
		}

		cursor = page.NextCursor
		pageCount++
		if maxPages > 0 && pageCount >= maxPages {
			p.logger.Warn("Page limit reached, transfer set may be incomplete",
				zap.String("address", address),
				zap.Int("max_pages", maxPages),
				zap.String("next_cursor", *cursor))
			return fetched, false, cursor, nil
		}
	}
}

// FetchAll accumulates every record across pages in arrival order.
// maxPages <= 0 means no limit. On error nothing is returned.
func (p *TransferPager) FetchAll(ctx context.Context, address string, fetcher PageFetcher, maxPages int) (*entity.TransferFetchResult, error) {
	records := make([]entity.TransferRecord, 0)

	pages, complete, cursor, err := p.walk(ctx, address, fetcher, maxPages, func(page *entity.TransferPage, _ int) error {
		records = append(records, page.Records...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transfers for %s: %w", address, err)
	}

	p.logger.Debug("Fetched transfers",
		zap.String("address", address),
		zap.Int("pages", pages),
		zap.Int("records", len(records)),
		zap.Bool("complete", complete))

	return &entity.TransferFetchResult{
		Records:    records,
		Pages:      pages,
		Complete:   complete,
		LastCursor: cursor,
	}, nil
}

// Stream runs the same loop as FetchAll but yields pages on a channel as they arrive.
// The channel is closed after a final event with Done set.
func (p *TransferPager) Stream(ctx context.Context, address string, fetcher PageFetcher, maxPages int) <-chan PageEvent {
	events := make(chan PageEvent)

	go func() {
		defer close(events)

		send := func(ev PageEvent) error {
			select {
			case events <- ev:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		_, complete, cursor, err := p.walk(ctx, address, fetcher, maxPages, func(page *entity.TransferPage, pageNumber int) error {
			return send(PageEvent{Page: page, PageNumber: pageNumber})
		})
		if err != nil && ctx.Err() != nil {
			return
		}
		_ = send(PageEvent{Done: true, Complete: err == nil && complete, LastCursor: cursor, Err: err})
	}()

	return events
}
