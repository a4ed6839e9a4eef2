// Package config loads application configuration from file and environment.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Objstore ObjstoreConfig `yaml:"objstore" mapstructure:"objstore"`
	EDGAR    EDGARConfig    `yaml:"edgar" mapstructure:"edgar"`
	Jobs     JobsConfig     `yaml:"jobs" mapstructure:"jobs"`
	Patents  PatentsConfig  `yaml:"patents" mapstructure:"patents"`
	Ingest   IngestConfig   `yaml:"ingest" mapstructure:"ingest"`
	Signals  SignalsConfig  `yaml:"signals" mapstructure:"signals"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ObjstoreConfig configures the artifact object store.
type ObjstoreConfig struct {
	Root string `yaml:"root" mapstructure:"root"`
}

// EDGARConfig configures SEC filing acquisition.
type EDGARConfig struct {
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	DownloadDir string `yaml:"download_dir" mapstructure:"download_dir"`
}

// JobsConfig configures the job-board search client.
type JobsConfig struct {
	BaseURL      string  `yaml:"base_url" mapstructure:"base_url"`
	APIKey       string  `yaml:"api_key" mapstructure:"api_key"`
	ResultsLimit int     `yaml:"results_limit" mapstructure:"results_limit"`
	HoursOld     int     `yaml:"hours_old" mapstructure:"hours_old"`
	RequestDelay float64 `yaml:"request_delay_secs" mapstructure:"request_delay_secs"`
}

// PatentsConfig configures the PatentsView search client.
type PatentsConfig struct {
	BaseURL      string  `yaml:"base_url" mapstructure:"base_url"`
	APIKey       string  `yaml:"api_key" mapstructure:"api_key"`
	YearsBack    int     `yaml:"years_back" mapstructure:"years_back"`
	ResultsLimit int     `yaml:"results_limit" mapstructure:"results_limit"`
	RequestDelay float64 `yaml:"request_delay_secs" mapstructure:"request_delay_secs"`
}

// IngestConfig configures the document pipeline.
type IngestConfig struct {
	ChunkSize        int     `yaml:"chunk_size" mapstructure:"chunk_size"`
	ChunkOverlap     int     `yaml:"chunk_overlap" mapstructure:"chunk_overlap"`
	RegistryFile     string  `yaml:"registry_file" mapstructure:"registry_file"`
	RequestDelay     float64 `yaml:"request_delay_secs" mapstructure:"request_delay_secs"`
	PdfToTextPath    string  `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
	FilingLimit      int     `yaml:"filing_limit" mapstructure:"filing_limit"`
	FilingCategories string  `yaml:"filing_categories" mapstructure:"filing_categories"`
	AfterDate        string  `yaml:"after_date" mapstructure:"after_date"`
}

// SignalsConfig configures signal classification thresholds and per-keyword rates.
type SignalsConfig struct {
	JobRelevanceThreshold    int     `yaml:"job_relevance_threshold" mapstructure:"job_relevance_threshold"`
	SparseRelevanceThreshold int     `yaml:"sparse_relevance_threshold" mapstructure:"sparse_relevance_threshold"`
	PatentRelevanceThreshold int     `yaml:"patent_relevance_threshold" mapstructure:"patent_relevance_threshold"`
	JobScorePerKeyword       float64 `yaml:"job_score_per_keyword" mapstructure:"job_score_per_keyword"`
	PatentScorePerKeyword    float64 `yaml:"patent_score_per_keyword" mapstructure:"patent_score_per_keyword"`
}

// ServerConfig configures the read-only HTTP facade.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ORGAIR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "orgair.db")
	v.SetDefault("objstore.root", "data/objstore")
	v.SetDefault("edgar.user_agent", "Sells Advisors blake@sellsadvisors.com")
	v.SetDefault("edgar.download_dir", "data/raw/sec")
	v.SetDefault("jobs.base_url", "http://localhost:8090/v1/jobs/search")
	v.SetDefault("jobs.results_limit", 50)
	v.SetDefault("jobs.hours_old", 72)
	v.SetDefault("jobs.request_delay_secs", 6.0)
	v.SetDefault("patents.base_url", "https://search.patentsview.org/api/v1/patent/")
	v.SetDefault("patents.years_back", 5)
	v.SetDefault("patents.results_limit", 100)
	v.SetDefault("patents.request_delay_secs", 1.5)
	v.SetDefault("ingest.chunk_size", 750)
	v.SetDefault("ingest.chunk_overlap", 50)
	v.SetDefault("ingest.registry_file", "data/processed/registry/document_registry.txt")
	v.SetDefault("ingest.request_delay_secs", 0.1)
	v.SetDefault("ingest.pdftotext_path", "pdftotext")
	v.SetDefault("ingest.filing_limit", 2)
	v.SetDefault("ingest.filing_categories", "10-K,10-Q,8-K,DEF 14A")
	v.SetDefault("ingest.after_date", "2021-01-01")
	v.SetDefault("signals.job_relevance_threshold", 2)
	v.SetDefault("signals.sparse_relevance_threshold", 1)
	v.SetDefault("signals.patent_relevance_threshold", 1)
	v.SetDefault("signals.job_score_per_keyword", 15.0)
	v.SetDefault("signals.patent_score_per_keyword", 20.0)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

// SplitList splits a comma-separated config value into trimmed, non-empty parts.
func SplitList(s string) []string {
	parts := strings.Split(s, ",")
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
