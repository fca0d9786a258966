package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	app_service "chain-explorer/internal/application/service"
	"chain-explorer/internal/domain/entity"
	domain_service "chain-explorer/internal/domain/service"
	"chain-explorer/internal/infrastructure/api"
	"chain-explorer/internal/infrastructure/blockchain"
	"chain-explorer/internal/infrastructure/config"
	"chain-explorer/internal/infrastructure/logger"
	"chain-explorer/internal/infrastructure/messaging"
	"chain-explorer/internal/infrastructure/metrics"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Decode streamed transactions and serve the explorer API",
	Long:  "Consume transactions from NATS, publish their decoded calldata, answer token lookups from NATS and serve the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(cmd *cobra.Command) error {
	cfg, log, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	app := fx.New(
		// Provide dependencies
		fx.Supply(cfg),
		fx.Supply(log),
		fx.Supply(&cfg.NATS),
		fx.Provide(func() *zap.Logger { return log.Logger }),

		// Infrastructure providers
		fx.Provide(
			metrics.New,
			newSelectorRegistry,
			blockchain.NewCalldataDecoderService,
			blockchain.NewContractClassifierService,
			newEthereumClient,
			func(c *blockchain.EthereumClient) domain_service.BlockFetcher { return c },
			messaging.NewNATSConsumer,
			messaging.NewNATSPublisher,
			func(p *messaging.NATSPublisher) domain_service.CallPublisher { return p },
		),

		// Application providers
		fx.Provide(
			app_service.NewIndexingApplicationService,
			app_service.NewBlockDecodingService,
			newTokenDetailsService,
			newLogViewService,
			newTokenSession,
			func(s *app_service.TokenSession) messaging.LookupSubmitter { return s },
			messaging.NewLookupSubscriber,
			newAPIServer,
		),

		// Lifecycle hooks
		fx.Invoke(recordSelectorStats),
		fx.Invoke(startEthereumClient),
		fx.Invoke(startIndexer),
		fx.Invoke(startLookups),
		fx.Invoke(startAPIServer),

		fx.WithLogger(func() fxevent.Logger {
			return fxevent.NopLogger
		}),
	)

	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		log.Error("Failed to start application", zap.Error(err))
		return err
	}

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down application...")

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.Stop(stopCtx); err != nil {
		log.Error("Failed to stop application gracefully", zap.Error(err))
		return err
	}

	log.Info("Application stopped successfully")
	return nil
}

// newTokenSession publishes every accepted lookup state
func newTokenSession(
	details *app_service.TokenDetailsService,
	publisher *messaging.NATSPublisher,
	m *metrics.Metrics,
	log *logger.Logger,
) *app_service.TokenSession {
	return app_service.NewTokenSession(details, m, log, func(d entity.TokenDetails) {
		if err := publisher.PublishLookupResult(context.Background(), &d); err != nil {
			log.Warn("Failed to publish lookup result", zap.String("address", d.Address), zap.Error(err))
		}
	})
}

func newAPIServer(
	cfg *config.Config,
	registry *blockchain.SelectorRegistry,
	decoder domain_service.CalldataDecoder,
	classifier domain_service.ContractClassifierService,
	blocks *app_service.BlockDecodingService,
	tokens *app_service.TokenDetailsService,
	logs *app_service.LogViewService,
	consumer *messaging.NATSConsumer,
	m *metrics.Metrics,
	log *logger.Logger,
) *api.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}

	handler := api.NewHandler(api.Dependencies{
		Registry:   registry,
		Decoder:    decoder,
		Classifier: classifier,
		Blocks:     blocks,
		Tokens:     tokens,
		Logs:       logs,
		Metrics:    m,
		Health: func() map[string]string {
			status := map[string]string{}
			if cfg.NATS.Enabled {
				status["nats"] = "ok"
				if !consumer.IsConnected() {
					status["nats"] = "disconnected"
				}
			}
			return status
		},
	}, log)

	return api.NewServer(cfg.App.HTTPPort, api.NewRouter(handler, metricsPath), log)
}

func recordSelectorStats(registry *blockchain.SelectorRegistry, m *metrics.Metrics, log *logger.Logger) {
	m.SetSelectorStats(registry.Len(), len(registry.Collisions()))
	log.Info("Selector registry built",
		zap.Int("selectors", registry.Len()),
		zap.Int("collisions", len(registry.Collisions())))
}

func startEthereumClient(lifecycle fx.Lifecycle, client *blockchain.EthereumClient) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return client.Connect(ctx)
		},
		OnStop: func(ctx context.Context) error {
			client.Close()
			return nil
		},
	})
}

// startIndexer connects to NATS and runs the decode worker pool
func startIndexer(
	lifecycle fx.Lifecycle,
	consumer *messaging.NATSConsumer,
	indexingService domain_service.IndexingService,
	log *zap.Logger,
	cfg *config.Config,
) {
	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting indexing service...",
				zap.String("url", cfg.NATS.URL),
				zap.String("stream_name", cfg.NATS.StreamName),
				zap.String("subject_prefix", cfg.NATS.SubjectPrefix),
				zap.Bool("enabled", cfg.NATS.Enabled))

			if err := consumer.Connect(ctx); err != nil {
				return fmt.Errorf("failed to connect to NATS: %w", err)
			}

			go func() {
				defer close(done)
				processMessages(runCtx, consumer.GetMessageChannel(), indexingService, log,
					cfg.App.BatchSize, cfg.App.WorkerPoolSize, batchFlushInterval)
			}()

			log.Info("Indexing service started successfully")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Stopping indexing service...")
			cancel()
			select {
			case <-done:
			case <-ctx.Done():
				log.Warn("Timed out waiting for decode workers")
			}
			return consumer.Disconnect()
		},
	})
}

// startLookups subscribes to token lookup requests. Registered after
// startIndexer so it stops before the NATS connection is closed.
func startLookups(
	lifecycle fx.Lifecycle,
	subscriber *messaging.LookupSubscriber,
	session *app_service.TokenSession,
) {
	runCtx, cancel := context.WithCancel(context.Background())

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return subscriber.Start(runCtx)
		},
		OnStop: func(ctx context.Context) error {
			err := subscriber.Stop()
			cancel()
			session.Close()
			return err
		},
	})
}

func startAPIServer(lifecycle fx.Lifecycle, server *api.Server) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return server.Start()
		},
		OnStop: func(ctx context.Context) error {
			return server.Stop(ctx)
		},
	})
}
