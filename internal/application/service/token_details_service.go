package service

import (
	"context"
	"fmt"

	"chain-explorer/internal/domain/entity"
	"chain-explorer/internal/domain/service"
	"chain-explorer/internal/infrastructure/logger"
	"chain-explorer/internal/infrastructure/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TokenDetailsService gathers the transfers of a contract and the owners of its NFTs
type TokenDetailsService struct {
	transfers service.PageFetcher
	owners    service.OwnerFetcher
	pager     *service.TransferPager
	fanout    *service.OwnerFanout
	maxPages  int
	metrics   *metrics.Metrics
	logger    *logger.Logger
}

// NewTokenDetailsService creates a new token details service. maxPages <= 0 disables the page limit.
func NewTokenDetailsService(
	transfers service.PageFetcher,
	owners service.OwnerFetcher,
	maxPages int,
	metrics *metrics.Metrics,
	logger *logger.Logger,
) *TokenDetailsService {
	return &TokenDetailsService{
		transfers: transfers,
		owners:    owners,
		pager:     service.NewTransferPager(logger),
		fanout:    service.NewOwnerFanout(logger),
		maxPages:  maxPages,
		metrics:   metrics,
		logger:    logger.WithComponent("token-details"),
	}
}

// Lookup fetches transfers page by page, then the owner of every NFT seen in them.
// onUpdate, when set, receives a snapshot after every page and every token.
//
// A transfer failure discards all transfers. An owner failure keeps the owners
// gathered before it. In both cases the returned details carry the error text.
func (s *TokenDetailsService) Lookup(ctx context.Context, address string, onUpdate func(entity.TokenDetails)) (*entity.TokenDetails, error) {
	details := &entity.TokenDetails{
		LookupID:  uuid.NewString(),
		Address:   address,
		Transfers: make([]entity.TransferRecord, 0),
		Owners:    make(entity.OwnerSet, 0),
		Loading:   true,
	}
	log := s.logger.WithFields(map[string]interface{}{
		"lookup_id": details.LookupID,
		"address":   address,
	})

	emit := func() {
		if onUpdate != nil {
			onUpdate(snapshotDetails(details))
		}
	}
	fail := func(err error) (*entity.TokenDetails, error) {
		details.Error = err.Error()
		details.Loading = false
		emit()
		return details, err
	}

	emit()

	pages := 0
	finished := false
	for ev := range s.pager.Stream(ctx, address, s.transfers, s.maxPages) {
		if !ev.Done {
			pages = ev.PageNumber
			details.Transfers = append(details.Transfers, ev.Page.Records...)
			emit()
			continue
		}

		finished = true
		if ev.Err != nil {
			details.Transfers = make([]entity.TransferRecord, 0)
			log.Error("Failed to fetch transfers", zap.Error(ev.Err))
			return fail(fmt.Errorf("failed to fetch transfers for %s: %w", address, ev.Err))
		}
		details.Complete = ev.Complete
		details.LastCursor = ev.LastCursor
	}
	if !finished {
		details.Transfers = make([]entity.TransferRecord, 0)
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		return fail(fmt.Errorf("transfer stream for %s ended unexpectedly", address))
	}

	fetch := &entity.TransferFetchResult{Pages: pages, Complete: details.Complete, LastCursor: details.LastCursor}
	s.metrics.ObserveTransferFetch(fetch)
	if warning := fetch.Warning(); warning != nil {
		log.Warn("Transfer set is incomplete", zap.Error(warning))
	}

	tokenIDs := entity.NFTTokenIDs(details.Transfers)
	details.Summary = service.SummarizeTransfers(details.Transfers, len(tokenIDs))

	owners, err := s.fanout.EnumerateOwnersFunc(ctx, address, tokenIDs, s.owners, func(_ string, owners []string) {
		s.metrics.ObserveOwnerLookup(nil)
		details.Owners = details.Owners.Append(owners...)
		emit()
	})
	if err != nil {
		s.metrics.ObserveOwnerLookup(err)
		details.Owners = owners
		log.Warn("Owner enumeration stopped early",
			zap.Int("owners_retained", len(owners)),
			zap.Error(err))
		return fail(err)
	}

	details.Loading = false
	emit()

	log.Info("Token lookup finished",
		zap.Int("transfers", len(details.Transfers)),
		zap.Int("nfts", len(tokenIDs)),
		zap.Int("owners", len(details.Owners)),
		zap.Bool("complete", details.Complete))

	return details, nil
}

func snapshotDetails(d *entity.TokenDetails) entity.TokenDetails {
	out := *d
	out.Transfers = append(make([]entity.TransferRecord, 0, len(d.Transfers)), d.Transfers...)
	out.Owners = append(make(entity.OwnerSet, 0, len(d.Owners)), d.Owners...)
	return out
}
