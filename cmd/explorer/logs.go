package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	app_service "chain-explorer/internal/application/service"
	"chain-explorer/internal/infrastructure/blockchain"
	"chain-explorer/internal/infrastructure/config"
	"chain-explorer/internal/infrastructure/logger"
	"chain-explorer/internal/infrastructure/metrics"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var logsCmd = &cobra.Command{
	Use:   "logs <address>",
	Short: "Show recent transfer events of a token contract, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		blocks, _ := cmd.Flags().GetUint64("blocks")
		limit, _ := cmd.Flags().GetInt("limit")
		return recentTransfers(cmd, args[0], blocks, limit)
	},
}

func init() {
	rootCmd.AddCommand(logsCmd)
	logsCmd.Flags().Uint64("blocks", 0, "Number of blocks to scan back from the head (0 = explorer.log_scan_blocks)")
	logsCmd.Flags().Int("limit", 0, "Stop after this many transfers (0 = no limit)")
}

func recentTransfers(cmd *cobra.Command, address string, blocks uint64, limit int) error {
	if !common.IsHexAddress(address) {
		return fmt.Errorf("invalid address %q", address)
	}

	cfg, log, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := connectEthereumClient(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer client.Close()

	page, scanErr := newLogViewService(cfg, client, metrics.New(), log).RecentTransfers(ctx, address, blocks, limit)
	if page != nil {
		if err := printJSON(cmd.OutOrStdout(), page); err != nil {
			return err
		}
	}
	return scanErr
}

func newLogViewService(cfg *config.Config, client *blockchain.EthereumClient, m *metrics.Metrics, log *logger.Logger) *app_service.LogViewService {
	return app_service.NewLogViewService(
		blockchain.NewLogQueryFetcher(client),
		client,
		blockchain.NewTokenMetadataService(client, cfg.Explorer.TokenCacheSize, cfg.Explorer.TokenCacheTTL, log),
		cfg.Explorer.LogScanSpan,
		cfg.Explorer.LogScanBlocks,
		m,
		log,
	)
}
