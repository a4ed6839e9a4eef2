package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/orgair-cli/internal/keywords"
	"github.com/sells-group/orgair-cli/internal/model"
	"github.com/sells-group/orgair-cli/internal/sigpipe"
	"github.com/sells-group/orgair-cli/internal/store"
)

var (
	leadershipTickers string
	leadershipDryRun  bool
)

// Sections of stored filings the leadership analyzer reads. Proxy
// statements carry the compensation discussion; annual reports carry
// the business narrative.
var leadershipSections = []string{"executive_compensation", "business"}

var leadershipCmd = &cobra.Command{
	Use:   "leadership",
	Short: "Score leadership signals from stored proxy and annual filings",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		companies, err := selectCompanies(ctx, s, leadershipTickers)
		if err != nil {
			return err
		}

		vocab, err := keywords.Load()
		if err != nil {
			return eris.Wrap(err, "leadership vocabulary")
		}
		analyzer := sigpipe.NewLeadershipAnalyzer(vocab)

		obj, err := openObjstore()
		if err != nil {
			return err
		}

		runID := uuid.New().String()
		now := time.Now().UTC()
		analyzed := 0

		for _, company := range companies {
			sections, filings, err := collectLeadershipSections(cmd, s, company.Ticker)
			if err != nil {
				return err
			}
			if filings == 0 {
				zap.L().Warn("no stored filings to analyze",
					zap.String("ticker", company.Ticker))
				continue
			}

			breakdown := analyzer.Analyze(sections)
			analyzed++

			zap.L().Info("leadership analyzed",
				zap.String("ticker", company.Ticker),
				zap.Float64("score", breakdown.Total),
				zap.Int("filings", filings),
				zap.Strings("execs", breakdown.ExecsFound),
			)

			if leadershipDryRun {
				continue
			}

			sig := model.ExternalSignal{
				ID:            uuid.New(),
				CompanyID:     company.ID,
				Category:      model.CategoryLeadershipSignals,
				Source:        "sec_filings",
				SignalDate:    now,
				RawValue:      fmt.Sprintf("Found %d tech executive titles across %d filings", len(breakdown.ExecsFound), filings),
				Score:         breakdown.Total,
				EvidenceCount: len(breakdown.ExecsFound) + len(breakdown.Metrics) + len(breakdown.BoardSignals),
				Confidence:    0.75,
				CreatedAt:     now,
			}
			if err := s.SaveSignal(ctx, sig); err != nil {
				return eris.Wrapf(err, "leadership save signal for %s", company.Ticker)
			}
			key := fmt.Sprintf("signals/leadership/%s/%s.json", company.Ticker, runID)
			if _, err := obj.UploadJSON(breakdown, key); err != nil {
				return eris.Wrapf(err, "leadership archive for %s", company.Ticker)
			}
		}

		zap.L().Info("leadership complete",
			zap.String("run_id", runID),
			zap.Int("companies", analyzed),
		)
		return nil
	},
}

// collectLeadershipSections gathers the relevant sections of every
// stored proxy statement and annual report for a ticker.
func collectLeadershipSections(cmd *cobra.Command, s store.Store, ticker string) ([]string, int, error) {
	var sections []string
	filings := 0
	for _, category := range []model.FilingCategory{model.FilingProxyStatement, model.FilingAnnualReport} {
		docs, err := s.ListDocuments(cmd.Context(), store.DocumentFilter{Ticker: ticker, Category: category})
		if err != nil {
			return nil, 0, eris.Wrapf(err, "leadership list %s filings for %s", category, ticker)
		}
		for _, doc := range docs {
			found := false
			for _, name := range leadershipSections {
				if text, ok := doc.Sections[name]; ok && text != "" {
					sections = append(sections, text)
					found = true
				}
			}
			// Only filings that contributed a section count toward
			// the evidence base.
			if found {
				filings++
			}
		}
	}
	return sections, filings, nil
}

func init() {
	f := leadershipCmd.Flags()
	f.StringVar(&leadershipTickers, "tickers", "", "comma-separated tickers (default: all imported companies)")
	f.BoolVar(&leadershipDryRun, "dry-run", false, "analyze without persisting")
	rootCmd.AddCommand(leadershipCmd)
}
