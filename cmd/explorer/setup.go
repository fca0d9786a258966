package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"chain-explorer/internal/infrastructure/blockchain"
	"chain-explorer/internal/infrastructure/config"
	"chain-explorer/internal/infrastructure/logger"

	"github.com/spf13/cobra"
)

// loadRuntime reads the config file named by the persistent flags and builds the logger
func loadRuntime(cmd *cobra.Command) (*config.Config, *logger.Logger, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.App.LogLevel = level
	}
	if rpcURL, _ := cmd.Flags().GetString("rpc-url"); rpcURL != "" {
		cfg.Ethereum.RPCURL = rpcURL
	}

	log, err := logger.NewLogger(cfg.App.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, log, nil
}

func newSelectorRegistry(log *logger.Logger) *blockchain.SelectorRegistry {
	return blockchain.NewSelectorRegistry(blockchain.DefaultAbiCollections(), log)
}

func newEthereumClient(cfg *config.Config, log *logger.Logger) *blockchain.EthereumClient {
	return blockchain.NewEthereumClient(cfg.Ethereum.RPCURL, cfg.Ethereum.RequestTimeout, log)
}

// connectEthereumClient builds and dials a client for one-shot commands
func connectEthereumClient(ctx context.Context, cfg *config.Config, log *logger.Logger) (*blockchain.EthereumClient, error) {
	client := newEthereumClient(cfg, log)
	if err := client.Connect(ctx); err != nil {
		return nil, err
	}
	return client, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
