package service

import (
	"context"

	"chain-explorer/internal/domain/entity"
)

// CallPublisher delivers decoded transactions downstream
type CallPublisher interface {
	PublishCalls(ctx context.Context, calls []*entity.TransactionCall) error
}

// LookupResultPublisher delivers token lookup states
type LookupResultPublisher interface {
	PublishLookupResult(ctx context.Context, details *entity.TokenDetails) error
}
