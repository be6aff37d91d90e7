// Package config loads and validates slangcrawler configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Render backend names accepted by renderer.backend.
const (
	BackendChromedp = "chromedp"
	BackendColly    = "colly"
)

// Provider names accepted by docstore.provider.
const (
	DocstoreJSONL    = "jsonl"
	DocstorePostgres = "postgres"
)

// Provider names accepted by artifacts.provider.
const (
	ArtifactsNone  = "none"
	ArtifactsLocal = "local"
	ArtifactsGCS   = "gcs"
)

// Provider names accepted by publisher.provider.
const (
	PublisherNone   = "none"
	PublisherPubSub = "pubsub"
)

// Config captures every knob the slangcrawler commands read.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Scraper   ScraperConfig   `mapstructure:"scraper"`
	Renderer  RendererConfig  `mapstructure:"renderer"`
	Normalize NormalizeConfig `mapstructure:"normalize"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Docstore  DocstoreConfig  `mapstructure:"docstore"`
	Artifacts ArtifactsConfig `mapstructure:"artifacts"`
	Publisher PublisherConfig `mapstructure:"publisher"`
	Server    ServerConfig    `mapstructure:"server"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// ScraperConfig governs the page range, worker pool, and pacing of a run.
type ScraperConfig struct {
	MaxPage  int           `mapstructure:"max_page"`
	Workers  int           `mapstructure:"workers"`
	MinDelay time.Duration `mapstructure:"min_delay"`
	MaxDelay time.Duration `mapstructure:"max_delay"`
	Output   string        `mapstructure:"output"`
}

// RendererConfig configures the page rendering backend each worker owns.
type RendererConfig struct {
	Backend     string        `mapstructure:"backend"`
	BaseURL     string        `mapstructure:"base_url"`
	UserAgent   string        `mapstructure:"user_agent"`
	NavTimeout  time.Duration `mapstructure:"nav_timeout"`
	DomainQPS   float64       `mapstructure:"domain_qps"`
	BlockImages bool          `mapstructure:"block_images"`
}

// NormalizeConfig tunes the cleaning and embedding pipeline.
type NormalizeConfig struct {
	Input               string        `mapstructure:"input"`
	CaseFold            bool          `mapstructure:"case_fold"`
	RejectSentinelVotes bool          `mapstructure:"reject_sentinel_votes"`
	BatchSize           int           `mapstructure:"batch_size"`
	Concurrency         int           `mapstructure:"concurrency"`
	MaxRetries          int           `mapstructure:"max_retries"`
	RetryDelay          time.Duration `mapstructure:"retry_delay"`
}

// EmbeddingConfig locates the OpenAI-compatible embedding endpoint.
type EmbeddingConfig struct {
	Host      string `mapstructure:"host"`
	Model     string `mapstructure:"model"`
	Token     string `mapstructure:"token"`
	Dimension int    `mapstructure:"dimension"`
}

// DocstoreConfig selects where cleaned documents are persisted.
type DocstoreConfig struct {
	Provider string `mapstructure:"provider"`
	Path     string `mapstructure:"path"`
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
}

// ArtifactsConfig selects where run artifacts (dataset, summary) are archived.
type ArtifactsConfig struct {
	Provider string `mapstructure:"provider"`
	Dir      string `mapstructure:"dir"`
	Bucket   string `mapstructure:"bucket"`
	Prefix   string `mapstructure:"prefix"`
}

// PublisherConfig selects where run summaries are announced.
type PublisherConfig struct {
	Provider  string `mapstructure:"provider"`
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// ServerConfig controls the search API server.
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	SearchLimit    int           `mapstructure:"search_limit"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// Load builds a Config from disk/environment. Environment variables use the
// SLANGCRAWLER_ prefix with dots replaced by underscores, so
// SLANGCRAWLER_SCRAPER_MAX_PAGE overrides scraper.max_page.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SLANGCRAWLER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.development", true)

	v.SetDefault("scraper.max_page", 10)
	v.SetDefault("scraper.workers", 3)
	v.SetDefault("scraper.min_delay", "1s")
	v.SetDefault("scraper.max_delay", "3s")
	v.SetDefault("scraper.output", "data/slang.csv")

	v.SetDefault("renderer.backend", BackendChromedp)
	v.SetDefault("renderer.base_url", "https://www.urbandictionary.com")
	v.SetDefault("renderer.user_agent", "slangcrawler/1.0 (+https://github.com/slangwatch/slangcrawler)")
	v.SetDefault("renderer.nav_timeout", "25s")
	// Zero disables the shared limiter; per-worker pauses already pace the
	// site under the default delays.
	v.SetDefault("renderer.domain_qps", 0.0)
	v.SetDefault("renderer.block_images", true)

	v.SetDefault("normalize.input", "data/slang.csv")
	v.SetDefault("normalize.case_fold", false)
	v.SetDefault("normalize.reject_sentinel_votes", false)
	v.SetDefault("normalize.batch_size", 64)
	v.SetDefault("normalize.concurrency", 4)
	v.SetDefault("normalize.max_retries", 3)
	v.SetDefault("normalize.retry_delay", "500ms")

	v.SetDefault("embedding.host", "http://localhost:11434/v1")
	v.SetDefault("embedding.model", "all-minilm")
	v.SetDefault("embedding.token", "none")
	v.SetDefault("embedding.dimension", 384)

	v.SetDefault("docstore.provider", DocstoreJSONL)
	v.SetDefault("docstore.path", "data/slang_documents.jsonl")
	v.SetDefault("docstore.table", "slang_documents")

	v.SetDefault("artifacts.provider", ArtifactsNone)
	v.SetDefault("artifacts.dir", "artifacts")
	v.SetDefault("artifacts.prefix", "runs")

	v.SetDefault("publisher.provider", PublisherNone)
	v.SetDefault("publisher.topic", "slang-runs")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.search_limit", 5)
	v.SetDefault("server.request_timeout", "15s")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Scraper.MaxPage < 1 {
		return fmt.Errorf("scraper.max_page must be >= 1")
	}
	if c.Scraper.Workers < 1 || c.Scraper.Workers > 4 {
		return fmt.Errorf("scraper.workers must be between 1 and 4")
	}
	if c.Scraper.MinDelay < 0 {
		return fmt.Errorf("scraper.min_delay must be >= 0")
	}
	if c.Scraper.MaxDelay < c.Scraper.MinDelay {
		return fmt.Errorf("scraper.max_delay must be >= scraper.min_delay")
	}
	if c.Scraper.Output == "" {
		return fmt.Errorf("scraper.output must be set")
	}

	switch c.Renderer.Backend {
	case BackendChromedp, BackendColly:
	default:
		return fmt.Errorf("renderer.backend must be %q or %q", BackendChromedp, BackendColly)
	}
	if c.Renderer.BaseURL == "" {
		return fmt.Errorf("renderer.base_url must be set")
	}
	if c.Renderer.NavTimeout <= 0 {
		return fmt.Errorf("renderer.nav_timeout must be > 0")
	}
	if c.Renderer.DomainQPS < 0 {
		return fmt.Errorf("renderer.domain_qps must be >= 0")
	}

	if c.Normalize.Input == "" {
		return fmt.Errorf("normalize.input must be set")
	}
	if c.Normalize.BatchSize < 1 {
		return fmt.Errorf("normalize.batch_size must be >= 1")
	}
	if c.Normalize.Concurrency < 1 {
		return fmt.Errorf("normalize.concurrency must be >= 1")
	}
	if c.Normalize.MaxRetries < 1 {
		return fmt.Errorf("normalize.max_retries must be >= 1")
	}

	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model must be set")
	}
	if c.Embedding.Dimension < 1 {
		return fmt.Errorf("embedding.dimension must be >= 1")
	}

	switch c.Docstore.Provider {
	case DocstoreJSONL:
		if c.Docstore.Path == "" {
			return fmt.Errorf("docstore.path must be set for the jsonl provider")
		}
	case DocstorePostgres:
		if c.Docstore.DSN == "" {
			return fmt.Errorf("docstore.dsn must be set for the postgres provider")
		}
		if c.Docstore.Table == "" {
			return fmt.Errorf("docstore.table must be set for the postgres provider")
		}
	default:
		return fmt.Errorf("docstore.provider must be %q or %q", DocstoreJSONL, DocstorePostgres)
	}

	switch c.Artifacts.Provider {
	case ArtifactsNone:
	case ArtifactsLocal:
		if c.Artifacts.Dir == "" {
			return fmt.Errorf("artifacts.dir must be set for the local provider")
		}
	case ArtifactsGCS:
		if c.Artifacts.Bucket == "" {
			return fmt.Errorf("artifacts.bucket must be set for the gcs provider")
		}
	default:
		return fmt.Errorf("artifacts.provider must be %q, %q, or %q", ArtifactsNone, ArtifactsLocal, ArtifactsGCS)
	}

	switch c.Publisher.Provider {
	case PublisherNone:
	case PublisherPubSub:
		if c.Publisher.ProjectID == "" {
			return fmt.Errorf("publisher.project_id must be set for the pubsub provider")
		}
		if c.Publisher.Topic == "" {
			return fmt.Errorf("publisher.topic must be set for the pubsub provider")
		}
	default:
		return fmt.Errorf("publisher.provider must be %q or %q", PublisherNone, PublisherPubSub)
	}

	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Server.SearchLimit < 1 {
		return fmt.Errorf("server.search_limit must be >= 1")
	}

	return nil
}
