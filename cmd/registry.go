package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/orgair-cli/internal/dedup"
)

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Inspect the document dedup registry",
}

var registryListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every known content digest",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, err := dedup.NewRegistry(cfg.Ingest.RegistryFile)
		if err != nil {
			return eris.Wrap(err, "registry open")
		}
		for _, digest := range reg.Digests() {
			fmt.Fprintln(cmd.OutOrStdout(), digest)
		}
		return nil
	},
}

var registryStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print registry size and location",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, err := dedup.NewRegistry(cfg.Ingest.RegistryFile)
		if err != nil {
			return eris.Wrap(err, "registry open")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "registry: %s\ndocuments: %d\n",
			cfg.Ingest.RegistryFile, reg.Size())
		return nil
	},
}

func init() {
	registryCmd.AddCommand(registryListCmd)
	registryCmd.AddCommand(registryStatsCmd)
	rootCmd.AddCommand(registryCmd)
}
