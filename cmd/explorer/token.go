package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	app_service "chain-explorer/internal/application/service"
	"chain-explorer/internal/domain/entity"
	"chain-explorer/internal/infrastructure/blockchain"
	"chain-explorer/internal/infrastructure/config"
	"chain-explorer/internal/infrastructure/logger"
	"chain-explorer/internal/infrastructure/metrics"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token <address>",
	Short: "List the transfers of a token contract and the owners of its NFTs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return lookupToken(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().Int("max-pages", -1, "Override explorer.max_pages (0 = unlimited)")
	tokenCmd.Flags().Bool("progress", false, "Print a progress line for every update")
}

func lookupToken(cmd *cobra.Command, address string) error {
	if !common.IsHexAddress(address) {
		return fmt.Errorf("invalid address %q", address)
	}

	cfg, log, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	if maxPages, _ := cmd.Flags().GetInt("max-pages"); maxPages >= 0 {
		cfg.Explorer.MaxPages = maxPages
	}
	progress, _ := cmd.Flags().GetBool("progress")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := connectEthereumClient(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer client.Close()

	details, err := newTokenDetailsService(cfg, client, metrics.New(), log)
	if err != nil {
		return err
	}

	var onUpdate func(entity.TokenDetails)
	if progress {
		onUpdate = func(d entity.TokenDetails) {
			fmt.Fprintf(cmd.ErrOrStderr(), "transfers=%d owners=%d loading=%t\n", len(d.Transfers), len(d.Owners), d.Loading)
		}
	}

	result, lookupErr := details.Lookup(ctx, common.HexToAddress(address).Hex(), onUpdate)
	if result != nil {
		if err := printJSON(cmd.OutOrStdout(), result); err != nil {
			return err
		}
	}
	return lookupErr
}

func newTokenDetailsService(
	cfg *config.Config,
	client *blockchain.EthereumClient,
	m *metrics.Metrics,
	log *logger.Logger,
) (*app_service.TokenDetailsService, error) {
	owners, err := blockchain.NewTokenOwnerFetcher(client)
	if err != nil {
		return nil, err
	}
	transfers := blockchain.NewAssetTransferFetcher(client, cfg.Ethereum.TransferCategories, cfg.Ethereum.MaxTransferCount, log)
	return app_service.NewTokenDetailsService(transfers, owners, cfg.Explorer.MaxPages, m, log), nil
}
