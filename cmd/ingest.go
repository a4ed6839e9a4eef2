package main

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/orgair-cli/internal/chunker"
	"github.com/sells-group/orgair-cli/internal/config"
	"github.com/sells-group/orgair-cli/internal/dedup"
	"github.com/sells-group/orgair-cli/internal/docpipe"
	"github.com/sells-group/orgair-cli/internal/fetcher"
	"github.com/sells-group/orgair-cli/internal/model"
	"github.com/sells-group/orgair-cli/internal/parser"
)

var (
	ingestTickers    string
	ingestCategories string
	ingestAfter      string
	ingestLimit      int
	ingestDryRun     bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Download, parse, dedupe, chunk, and persist SEC filings",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		tickers := config.SplitList(ingestTickers)
		if len(tickers) == 0 {
			s, err := openStore(ctx)
			if err != nil {
				return err
			}
			companies, err := s.ListCompanies(ctx)
			s.Close()
			if err != nil {
				return eris.Wrap(err, "ingest list companies")
			}
			for _, c := range companies {
				tickers = append(tickers, c.Ticker)
			}
		}
		if len(tickers) == 0 {
			return eris.New("ingest: no tickers given and no companies imported")
		}

		categoriesRaw := ingestCategories
		if categoriesRaw == "" {
			categoriesRaw = cfg.Ingest.FilingCategories
		}
		categories, err := parseCategories(categoriesRaw)
		if err != nil {
			return err
		}

		afterRaw := ingestAfter
		if afterRaw == "" {
			afterRaw = cfg.Ingest.AfterDate
		}
		after, err := time.Parse("2006-01-02", afterRaw)
		if err != nil {
			return eris.Wrapf(err, "ingest: parse after date %q", afterRaw)
		}

		limit := ingestLimit
		if limit <= 0 {
			limit = cfg.Ingest.FilingLimit
		}

		registry, err := dedup.NewRegistry(cfg.Ingest.RegistryFile)
		if err != nil {
			return eris.Wrap(err, "ingest registry")
		}

		downloader := fetcher.NewEDGARClient(fetcher.NewClient(fetcher.Options{
			UserAgent:    cfg.EDGAR.UserAgent,
			MinDelay:     time.Duration(cfg.Ingest.RequestDelay * float64(time.Second)),
			RateLimiters: fetcher.DefaultRateLimiters(),
		}))

		var pipeStore docpipe.DocumentStore
		var pipeObjstore docpipe.ObjectStore
		if !ingestDryRun {
			s, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()
			obj, err := openObjstore()
			if err != nil {
				return err
			}
			pipeStore = s
			pipeObjstore = obj
		}

		pipe := docpipe.New(
			downloader,
			parser.New(cfg.Ingest.PdfToTextPath),
			registry,
			chunker.New(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap),
			pipeStore,
			pipeObjstore,
		)

		state := docpipe.NewState(uuid.New().String(), tickers, categories, after, limit)
		if err := pipe.Run(ctx, state); err != nil {
			return eris.Wrap(err, "ingest run")
		}

		zap.L().Info("ingest complete",
			zap.String("run_id", state.RunID),
			zap.Int("attempted", state.Summary.AttemptedDownloads),
			zap.Int("unique", state.Summary.UniqueFilingsProcessed),
			zap.Int("duplicates", state.Summary.SkippedDuplicates),
			zap.Int("parse_failures", state.Summary.ParseFailures),
			zap.Int("chunks", state.Summary.ChunksCreated),
			zap.Int("errors", len(state.Summary.Errors)),
		)
		return nil
	},
}

// parseCategories maps comma-separated form names onto filing categories.
func parseCategories(raw string) ([]model.FilingCategory, error) {
	known := map[string]model.FilingCategory{
		"10-K":    model.FilingAnnualReport,
		"10-Q":    model.FilingQuarterlyReport,
		"8-K":     model.FilingCurrentReport,
		"DEF 14A": model.FilingProxyStatement,
		"DEF14A":  model.FilingProxyStatement,
	}
	var categories []model.FilingCategory
	for _, part := range config.SplitList(raw) {
		category, ok := known[strings.ToUpper(part)]
		if !ok {
			return nil, eris.Errorf("ingest: unknown filing category %q", part)
		}
		categories = append(categories, category)
	}
	if len(categories) == 0 {
		return nil, eris.New("ingest: at least one filing category required")
	}
	return categories, nil
}

func init() {
	f := ingestCmd.Flags()
	f.StringVar(&ingestTickers, "tickers", "", "comma-separated tickers (default: all imported companies)")
	f.StringVar(&ingestCategories, "categories", "", "comma-separated filing categories (default from config)")
	f.StringVar(&ingestAfter, "after", "", "only filings after this date, YYYY-MM-DD (default from config)")
	f.IntVar(&ingestLimit, "limit", 0, "max filings per category per ticker (default from config)")
	f.BoolVar(&ingestDryRun, "dry-run", false, "run the pipeline without persisting")
	rootCmd.AddCommand(ingestCmd)
}
