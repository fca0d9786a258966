package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "chain-explorer",
	Short:        "Ethereum calldata decoder and token explorer",
	Long:         "Decodes transaction calldata against known token ABIs, inspects token contracts and serves the results over HTTP and NATS",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a config file (searches ./config.yaml, ./config/ and /etc/chain-explorer/ when empty)")
	rootCmd.PersistentFlags().String("log-level", "", "Override app.log_level")
	rootCmd.PersistentFlags().String("rpc-url", "", "Override ethereum.rpc_url")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
