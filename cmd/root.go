package main

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/orgair-cli/internal/config"
	"github.com/sells-group/orgair-cli/internal/objstore"
	"github.com/sells-group/orgair-cli/internal/store"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "orgair",
	Short: "Organizational AI-readiness research pipeline",
	Long:  "Downloads SEC filings, parses and chunks them, collects hiring and patent evidence, and scores companies on AI readiness.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "root: load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "root: init logger")
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// openStore opens and migrates the configured database backend.
func openStore(ctx context.Context) (store.Store, error) {
	s, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// openObjstore opens the artifact store at the configured root.
func openObjstore() (*objstore.Store, error) {
	return objstore.New(cfg.Objstore.Root)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
