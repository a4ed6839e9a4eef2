package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/orgair-cli/internal/sigpipe"
)

var scoreTickers string

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Recompute composite AI-readiness summaries",
	Long: `Reduces each company's stored signals to one score per category
(most recent signal wins) and recomputes the weighted composite:
0.30 hiring + 0.25 innovation + 0.25 digital + 0.20 leadership.
The composite is only set when all four categories have been scored.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		companies, err := selectCompanies(ctx, s, scoreTickers)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TICKER\tHIRING\tINNOVATION\tDIGITAL\tLEADERSHIP\tCOMPOSITE\tSIGNALS")

		for _, company := range companies {
			signals, err := s.ListSignals(ctx, company.ID)
			if err != nil {
				return eris.Wrapf(err, "score list signals for %s", company.Ticker)
			}

			summary := sigpipe.BuildSummary(company, signals)
			if err := s.SaveSummary(ctx, summary); err != nil {
				return eris.Wrapf(err, "score save summary for %s", company.Ticker)
			}

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
				company.Ticker,
				formatScore(summary.HiringScore),
				formatScore(summary.InnovationScore),
				formatScore(summary.DigitalScore),
				formatScore(summary.LeadershipScore),
				formatScore(summary.CompositeScore),
				summary.SignalCount,
			)
		}
		if err := w.Flush(); err != nil {
			return eris.Wrap(err, "score flush output")
		}

		zap.L().Info("score complete", zap.Int("companies", len(companies)))
		return nil
	},
}

// formatScore renders an absent category as a dash so it cannot be
// mistaken for a true zero.
func formatScore(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *v)
}

func init() {
	scoreCmd.Flags().StringVar(&scoreTickers, "tickers", "", "comma-separated tickers (default: all imported companies)")
	rootCmd.AddCommand(scoreCmd)
}
