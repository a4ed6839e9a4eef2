package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/orgair-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the read-only research API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(s),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

// newRouter builds the read-only API. All mutation happens through the
// CLI commands; the server only exposes what the pipelines produced.
func newRouter(s store.Store) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/companies", func(w http.ResponseWriter, req *http.Request) {
			companies, err := s.ListCompanies(req.Context())
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, companies)
		})

		r.Get("/companies/{ticker}", func(w http.ResponseWriter, req *http.Request) {
			company, err := s.GetCompany(req.Context(), ticker(req))
			if err != nil {
				writeError(w, err)
				return
			}
			if company == nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "company not found"})
				return
			}
			writeJSON(w, http.StatusOK, company)
		})

		r.Get("/companies/{ticker}/documents", func(w http.ResponseWriter, req *http.Request) {
			docs, err := s.ListDocuments(req.Context(), store.DocumentFilter{Ticker: ticker(req)})
			if err != nil {
				writeError(w, err)
				return
			}
			// Strip full text from the listing; it can run to megabytes.
			for i := range docs {
				docs[i].FullText = ""
			}
			writeJSON(w, http.StatusOK, docs)
		})

		r.Get("/companies/{ticker}/signals", func(w http.ResponseWriter, req *http.Request) {
			company, err := s.GetCompany(req.Context(), ticker(req))
			if err != nil {
				writeError(w, err)
				return
			}
			if company == nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "company not found"})
				return
			}
			signals, err := s.ListSignals(req.Context(), company.ID)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, signals)
		})

		r.Get("/companies/{ticker}/summary", func(w http.ResponseWriter, req *http.Request) {
			company, err := s.GetCompany(req.Context(), ticker(req))
			if err != nil {
				writeError(w, err)
				return
			}
			if company == nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "company not found"})
				return
			}
			summary, err := s.GetSummary(req.Context(), company.ID)
			if err != nil {
				writeError(w, err)
				return
			}
			if summary == nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "no summary; run score first"})
				return
			}
			writeJSON(w, http.StatusOK, summary)
		})

		r.Get("/summaries", func(w http.ResponseWriter, req *http.Request) {
			summaries, err := s.ListSummaries(req.Context())
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, summaries)
		})
	})

	return r
}

func ticker(req *http.Request) string {
	return strings.ToUpper(chi.URLParam(req, "ticker"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	zap.L().Error("request failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
