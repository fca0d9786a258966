package main

import (
	"fmt"

	"chain-explorer/internal/infrastructure/blockchain"
	"chain-explorer/internal/infrastructure/logger"

	"github.com/spf13/cobra"
)

var decodeCmd = &cobra.Command{
	Use:   "decode <calldata>...",
	Short: "Decode hex calldata against the built-in token ABIs",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return decodeCalldata(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(decodeCmd)
}

func decodeCalldata(cmd *cobra.Command, args []string) error {
	log := logger.NewNopLogger()
	registry := newSelectorRegistry(log)
	decoder := blockchain.NewCalldataDecoderService(registry, log)

	failed := 0
	for _, data := range args {
		call, err := decoder.DecodeHex(data)
		if err != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", data, err)
			continue
		}
		if err := printJSON(cmd.OutOrStdout(), call); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d inputs could not be decoded", failed, len(args))
	}
	return nil
}
