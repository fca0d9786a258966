package main

import (
	"context"
	"os/signal"
	"syscall"

	app_service "chain-explorer/internal/application/service"
	"chain-explorer/internal/infrastructure/blockchain"
	"chain-explorer/internal/infrastructure/metrics"

	"github.com/spf13/cobra"
)

var blockCmd = &cobra.Command{
	Use:   "block [tag]",
	Short: "Fetch a block and decode the calldata of every transaction",
	Long:  "Fetch a block by number, hash or \"latest\" (the default) and decode the calldata of every transaction in it",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tag := "latest"
		if len(args) == 1 {
			tag = args[0]
		}
		return decodeBlock(cmd, tag)
	},
}

func init() {
	rootCmd.AddCommand(blockCmd)
}

func decodeBlock(cmd *cobra.Command, tag string) error {
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

	registry := newSelectorRegistry(log)
	blocks := app_service.NewBlockDecodingService(
		client,
		blockchain.NewCalldataDecoderService(registry, log),
		blockchain.NewContractClassifierService(log),
		metrics.New(),
		log,
	)

	block, err := blocks.DecodeBlock(ctx, tag)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), block)
}
