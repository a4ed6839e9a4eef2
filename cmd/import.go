package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/orgair-cli/internal/roster"
)

var importFilePath string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a company roster from CSV or XLSX",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		companies, err := roster.Load(importFilePath)
		if err != nil {
			return eris.Wrap(err, "import roster")
		}

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		n, err := s.UpsertCompanies(ctx, companies)
		if err != nil {
			return eris.Wrap(err, "import upsert")
		}

		zap.L().Info("import complete",
			zap.Int("companies", n),
			zap.String("file", importFilePath),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importFilePath, "file", "", "path to roster file (required)")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}
