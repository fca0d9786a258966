package main

import (
	"fmt"
	"text/tabwriter"

	"chain-explorer/internal/infrastructure/api"
	"chain-explorer/internal/infrastructure/blockchain"
	"chain-explorer/internal/infrastructure/logger"

	"github.com/spf13/cobra"
)

var selectorsCmd = &cobra.Command{
	Use:   "selectors",
	Short: "List the registered function selectors and the collisions resolved while building the registry",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		return listSelectors(cmd, asJSON)
	},
}

func init() {
	rootCmd.AddCommand(selectorsCmd)
	selectorsCmd.Flags().Bool("json", false, "Print the listing as JSON")
}

func listSelectors(cmd *cobra.Command, asJSON bool) error {
	log := logger.NewNopLogger()
	listing := api.BuildSelectorsResponse(newSelectorRegistry(log), blockchain.NewContractClassifierService(log))
	if asJSON {
		return printJSON(cmd.OutOrStdout(), listing)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SELECTOR\tSIGNATURE\tSOURCE\tDECODABLE")
	for _, s := range listing.Selectors {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", s.Selector, s.Signature, s.Source, s.Decodable)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(listing.Collisions) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d collisions (later collection wins):\n", len(listing.Collisions))
		for _, c := range listing.Collisions {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s  %s replaced by %s\n", c.Selector, c.Replaced, c.Winner)
		}
	}
	return nil
}
