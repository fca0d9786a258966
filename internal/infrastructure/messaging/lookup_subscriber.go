package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"chain-explorer/internal/infrastructure/config"
	"chain-explorer/internal/infrastructure/logger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// LookupRequest asks for the details of a token contract
type LookupRequest struct {
	Address string `json:"address"`
}

// LookupSubmitter starts a token lookup, superseding any running one
type LookupSubmitter interface {
	Submit(ctx context.Context, address string) uint64
}

// LookupSubscriber feeds token lookup requests from NATS into a session
type LookupSubscriber struct {
	consumer  *NATSConsumer
	submitter LookupSubmitter
	config    *config.NATSConfig
	logger    *logger.Logger
	sub       *nats.Subscription
	ctx       context.Context
}

// NewLookupSubscriber creates a new lookup subscriber
func NewLookupSubscriber(consumer *NATSConsumer, submitter LookupSubmitter, cfg *config.NATSConfig, logger *logger.Logger) *LookupSubscriber {
	return &LookupSubscriber{
		consumer:  consumer,
		submitter: submitter,
		config:    cfg,
		logger:    logger.WithComponent("lookup-subscriber"),
	}
}

// Start subscribes to the lookup subject. Lookups run under ctx.
func (l *LookupSubscriber) Start(ctx context.Context) error {
	conn := l.consumer.Conn()
	if conn == nil {
		l.logger.Info("NATS is not connected, lookup subscription disabled")
		return nil
	}

	l.ctx = ctx
	sub, err := conn.Subscribe(l.config.LookupSubject, l.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", l.config.LookupSubject, err)
	}
	l.sub = sub

	l.logger.Info("Listening for token lookups", zap.String("subject", l.config.LookupSubject))
	return nil
}

// Stop removes the subscription
func (l *LookupSubscriber) Stop() error {
	if l.sub == nil {
		return nil
	}
	err := l.sub.Unsubscribe()
	l.sub = nil
	return err
}

func (l *LookupSubscriber) handleMessage(msg *nats.Msg) {
	address, err := ParseLookupRequest(msg.Data)
	if err != nil {
		l.logger.Warn("Invalid lookup request", zap.Error(err))
		if msg.Reply != "" {
			reply, _ := json.Marshal(map[string]string{"error": err.Error()})
			_ = msg.Respond(reply)
		}
		return
	}

	gen := l.submitter.Submit(l.ctx, address)
	l.logger.Info("Token lookup submitted",
		zap.String("address", address),
		zap.Uint64("generation", gen))

	if msg.Reply != "" {
		reply, _ := json.Marshal(map[string]interface{}{"address": address, "generation": gen})
		_ = msg.Respond(reply)
	}
}

// ParseLookupRequest accepts either a JSON LookupRequest or a bare address
func ParseLookupRequest(data []byte) (string, error) {
	raw := strings.TrimSpace(string(data))
	address := raw
	if strings.HasPrefix(raw, "{") {
		var req LookupRequest
		if err := json.Unmarshal([]byte(raw), &req); err != nil {
			return "", fmt.Errorf("failed to unmarshal lookup request: %w", err)
		}
		address = strings.TrimSpace(req.Address)
	}
	if !common.IsHexAddress(address) {
		return "", fmt.Errorf("invalid address %q", address)
	}
	return common.HexToAddress(address).Hex(), nil
}
