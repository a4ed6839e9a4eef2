package main

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/orgair-cli/internal/config"
	"github.com/sells-group/orgair-cli/internal/fetcher"
	"github.com/sells-group/orgair-cli/internal/keywords"
	"github.com/sells-group/orgair-cli/internal/model"
	"github.com/sells-group/orgair-cli/internal/sigpipe"
	"github.com/sells-group/orgair-cli/internal/store"
)

var (
	signalsTickers string
	signalsJobs    bool
	signalsPatents bool
	signalsTech    bool
	signalsDryRun  bool
)

var signalsCmd = &cobra.Command{
	Use:   "signals",
	Short: "Collect and score external AI-readiness signals",
	Long:  "Fetches job postings and patents for the tracked companies, classifies them against the AI vocabulary, and persists category signals.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if !signalsJobs && !signalsPatents && !signalsTech {
			return eris.New("signals: select at least one of --jobs, --patents, --tech")
		}
		if signalsTech && !signalsJobs {
			return eris.New("signals: --tech derives from job postings and requires --jobs")
		}

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		companies, err := selectCompanies(ctx, s, signalsTickers)
		if err != nil {
			return err
		}

		vocab, err := keywords.Load()
		if err != nil {
			return eris.Wrap(err, "signals vocabulary")
		}

		var pipeStore sigpipe.SignalStore
		var pipeObjstore sigpipe.ObjectStore
		if !signalsDryRun {
			obj, err := openObjstore()
			if err != nil {
				return err
			}
			pipeStore = s
			pipeObjstore = obj
		}

		pipe := sigpipe.New(
			fetcher.NewJobClient(cfg.Jobs),
			fetcher.NewPatentClient(cfg.Patents),
			sigpipe.NewClassifier(vocab, cfg.Signals),
			sigpipe.NewTechDetector(vocab),
			pipeStore,
			pipeObjstore,
		)

		state := sigpipe.NewState(uuid.New().String(), companies)
		if err := pipe.Run(ctx, state, sigpipe.Options{
			Jobs:    signalsJobs,
			Patents: signalsPatents,
			Tech:    signalsTech,
		}); err != nil {
			return eris.Wrap(err, "signals run")
		}

		zap.L().Info("signals complete",
			zap.String("run_id", state.RunID),
			zap.Int("companies", len(companies)),
			zap.Int("jobs", state.Summary.JobsCollected),
			zap.Int("ai_jobs", state.Summary.AIJobs),
			zap.Int("patents", state.Summary.PatentsCollected),
			zap.Int("ai_patents", state.Summary.AIPatents),
			zap.Int("scored", state.Summary.CompaniesScored),
			zap.Int("errors", len(state.Summary.Errors)),
		)
		return nil
	},
}

// selectCompanies resolves the ticker filter against the stored roster.
// An empty filter selects every imported company.
func selectCompanies(ctx context.Context, s store.Store, tickersCSV string) ([]model.Company, error) {
	companies, err := s.ListCompanies(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "list companies")
	}

	wanted := config.SplitList(tickersCSV)
	if len(wanted) == 0 {
		if len(companies) == 0 {
			return nil, eris.New("no companies imported; run import first")
		}
		return companies, nil
	}

	byTicker := make(map[string]model.Company, len(companies))
	for _, c := range companies {
		byTicker[c.Ticker] = c
	}

	var selected []model.Company
	for _, t := range wanted {
		c, ok := byTicker[strings.ToUpper(t)]
		if !ok {
			return nil, eris.Errorf("unknown ticker %q; import it first", t)
		}
		selected = append(selected, c)
	}
	return selected, nil
}

func init() {
	f := signalsCmd.Flags()
	f.StringVar(&signalsTickers, "tickers", "", "comma-separated tickers (default: all imported companies)")
	f.BoolVar(&signalsJobs, "jobs", false, "collect job posting signals")
	f.BoolVar(&signalsPatents, "patents", false, "collect patent signals")
	f.BoolVar(&signalsTech, "tech", false, "derive tech-stack signals from job postings")
	f.BoolVar(&signalsDryRun, "dry-run", false, "run without persisting")
	rootCmd.AddCommand(signalsCmd)
}
