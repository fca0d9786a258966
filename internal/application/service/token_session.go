package service

import (
	"context"
	"sync"

	"chain-explorer/internal/domain/entity"
	"chain-explorer/internal/infrastructure/logger"
	"chain-explorer/internal/infrastructure/metrics"

	"go.uber.org/zap"
)

// TokenSession runs at most one token lookup at a time. Submitting a new
// address cancels the running lookup and resets the state; updates from a
// cancelled lookup are dropped.
type TokenSession struct {
	details  *TokenDetailsService
	onUpdate func(entity.TokenDetails)
	metrics  *metrics.Metrics
	logger   *logger.Logger

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	running    bool
	state      entity.TokenDetails
	wg         sync.WaitGroup
}

// NewTokenSession creates a session. onUpdate may be nil; it is called with
// every accepted state while the session lock is held, so it must not call
// back into the session.
func NewTokenSession(details *TokenDetailsService, metrics *metrics.Metrics, logger *logger.Logger, onUpdate func(entity.TokenDetails)) *TokenSession {
	return &TokenSession{
		details:  details,
		onUpdate: onUpdate,
		metrics:  metrics,
		logger:   logger.WithComponent("token-session"),
		state: entity.TokenDetails{
			Transfers: make([]entity.TransferRecord, 0),
			Owners:    make(entity.OwnerSet, 0),
		},
	}
}

// Submit starts a lookup for address and returns its generation
func (s *TokenSession) Submit(ctx context.Context, address string) uint64 {
	s.mu.Lock()
	if s.running && s.cancel != nil {
		s.cancel()
		s.metrics.ObserveSuperseded()
		s.logger.Info("Superseding running lookup",
			zap.Uint64("generation", s.generation),
			zap.String("previous_address", s.state.Address),
			zap.String("address", address))
	}

	s.generation++
	gen := s.generation
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	s.state = entity.TokenDetails{
		Address:   address,
		Transfers: make([]entity.TransferRecord, 0),
		Owners:    make(entity.OwnerSet, 0),
		Loading:   true,
	}
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()

		final, err := s.details.Lookup(runCtx, address, func(d entity.TokenDetails) {
			s.apply(gen, d, false)
		})
		if final != nil {
			s.apply(gen, snapshotDetails(final), true)
		}
		if err != nil && runCtx.Err() == nil {
			s.logger.Warn("Lookup finished with error",
				zap.Uint64("generation", gen),
				zap.String("address", address),
				zap.Error(err))
		}
	}()

	return gen
}

// apply stores d if gen is still current
func (s *TokenSession) apply(gen uint64, d entity.TokenDetails, last bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return false
	}
	s.state = d
	if last {
		s.running = false
	}
	if s.onUpdate != nil {
		s.onUpdate(d)
	}
	return true
}

// Snapshot returns a copy of the current state
func (s *TokenSession) Snapshot() entity.TokenDetails {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshotDetails(&s.state)
}

// Generation returns the generation of the most recent submission
func (s *TokenSession) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Wait blocks until every started lookup has returned
func (s *TokenSession) Wait() {
	s.wg.Wait()
}

// Close cancels the running lookup and waits for it
func (s *TokenSession) Close() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
	s.Wait()
}
