package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/fx"
)

var Module = fx.Module("config",
	fx.Provide(NewConfig),
)

// Config holds all application configuration
type Config struct {
	// Server settings
	ServerPort    int    `env:"SERVER_PORT" envDefault:"8080"`
	ServerAddress string `env:"SERVER_ADDRESS" envDefault:"0.0.0.0"`
	Environment   string `env:"ENVIRONMENT" envDefault:"local"`
	Debug         bool   `env:"DEBUG" envDefault:"false"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`

	// Remote object store (Dropbox-protocol)
	Storage StorageConfig

	// Outbound HTTP retrieval
	Fetch FetchConfig

	// Retrieval-upload pipeline
	Pipeline PipelineConfig

	// Jurisdiction strategy overrides
	Reports ReportsConfig

	// OpenTelemetry
	Otel OtelConfig

	// Server timeouts
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"600s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"120s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// StorageConfig holds credentials and endpoints for the remote object store.
// The client exchanges the long-lived refresh token for short-lived bearer
// tokens against TokenURL.
type StorageConfig struct {
	ClientID     string `env:"DROPBOX_CLIENT_ID"`
	ClientSecret string `env:"DROPBOX_CLIENT_SECRET"`
	RefreshToken string `env:"DROPBOX_REFRESH_TOKEN"`

	APIURL     string `env:"STORAGE_API_URL" envDefault:"https://api.dropboxapi.com"`
	ContentURL string `env:"STORAGE_CONTENT_URL" envDefault:"https://content.dropboxapi.com"`
	TokenURL   string `env:"STORAGE_TOKEN_URL" envDefault:"https://api.dropbox.com/oauth2/token"`

	// Root of the report tree in the remote store
	Root string `env:"STORAGE_ROOT" envDefault:"/ASSESSMENT_REPORTS"`

	// Subtree that unlock requests may write into
	UnlockPrefix string `env:"UNLOCK_ALLOWED_PREFIX" envDefault:"/ASSESSMENT_REPORTS/"`
}

// Enabled returns true if the store credentials are fully configured
func (s *StorageConfig) Enabled() bool {
	return s.ClientID != "" && s.ClientSecret != "" && s.RefreshToken != ""
}

// NewReportsRoot is the branch that freshly provisioned report folders live under
func (s *StorageConfig) NewReportsRoot() string {
	return s.Root + "/1 - NEW REPORTS"
}

// TemplateDir is where the provisioning template seeds live
func (s *StorageConfig) TemplateDir() string {
	return s.Root + "/_Documents/Instructions"
}

// FetchConfig controls outbound document retrieval
type FetchConfig struct {
	Timeout     time.Duration `env:"FETCH_TIMEOUT" envDefault:"30s"`
	MaxRetries  int           `env:"FETCH_MAX_RETRIES" envDefault:"3"`
	BackoffBase time.Duration `env:"FETCH_BACKOFF_BASE" envDefault:"500ms"`
	RateLimit   float64       `env:"FETCH_RATE_LIMIT" envDefault:"4"`
	RateBurst   int           `env:"FETCH_RATE_BURST" envDefault:"2"`
	UserAgent   string        `env:"FETCH_USER_AGENT" envDefault:"arvault/1.1"`
}

// PipelineConfig controls the download-then-upload pipeline
type PipelineConfig struct {
	// Workers is the number of candidates fetched concurrently per job
	Workers int `env:"PIPELINE_WORKERS" envDefault:"5"`
}

// ReportsConfig holds jurisdiction strategy settings
type ReportsConfig struct {
	// StrategiesFile optionally points at a YAML file whose entries are
	// merged over the built-in jurisdiction table
	StrategiesFile string `env:"JURISDICTIONS_FILE"`
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
