package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"chain-explorer/internal/domain/entity"
	"chain-explorer/internal/domain/service"
	"chain-explorer/internal/infrastructure/config"
	"chain-explorer/internal/infrastructure/logger"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Publisher is the subset of a NATS connection used for publishing
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher publishes decoded transactions and token lookup results as JSON
type NATSPublisher struct {
	conn   func() Publisher
	config *config.NATSConfig
	logger *logger.Logger
}

// NewNATSPublisher creates a publisher sharing the consumer's connection.
// Publishing is a no-op while the consumer has no connection.
func NewNATSPublisher(consumer *NATSConsumer, cfg *config.NATSConfig, logger *logger.Logger) *NATSPublisher {
	return NewPublisherWithConn(func() Publisher {
		if conn := consumer.Conn(); conn != nil {
			return conn
		}
		return nil
	}, cfg, logger)
}

// NewPublisherWithConn creates a publisher over an arbitrary connection source
func NewPublisherWithConn(conn func() Publisher, cfg *config.NATSConfig, logger *logger.Logger) *NATSPublisher {
	return &NATSPublisher{
		conn:   conn,
		config: cfg,
		logger: logger.WithComponent("nats-publisher"),
	}
}

var (
	_ service.CallPublisher         = (*NATSPublisher)(nil)
	_ service.LookupResultPublisher = (*NATSPublisher)(nil)
	_ Publisher                     = (*nats.Conn)(nil)
)

// PublishCalls publishes each decoded transaction as its own message
func (p *NATSPublisher) PublishCalls(ctx context.Context, calls []*entity.TransactionCall) error {
	conn := p.conn()
	if conn == nil {
		p.logger.Debug("NATS not connected, dropping decoded calls", zap.Int("count", len(calls)))
		return nil
	}

	for _, call := range calls {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := json.Marshal(call)
		if err != nil {
			return fmt.Errorf("failed to marshal decoded call %s: %w", call.Hash, err)
		}
		if err := conn.Publish(p.config.DecodedSubject, data); err != nil {
			return fmt.Errorf("failed to publish decoded call %s: %w", call.Hash, err)
		}
	}

	p.logger.Debug("Published decoded calls",
		zap.String("subject", p.config.DecodedSubject),
		zap.Int("count", len(calls)))
	return nil
}

// PublishLookupResult publishes a token lookup state
func (p *NATSPublisher) PublishLookupResult(ctx context.Context, details *entity.TokenDetails) error {
	conn := p.conn()
	if conn == nil {
		return nil
	}

	data, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to marshal lookup result: %w", err)
	}
	if err := conn.Publish(p.config.LookupResultSubject, data); err != nil {
		return fmt.Errorf("failed to publish lookup result: %w", err)
	}
	return nil
}
