// Package config handles application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration.
type Config struct {
	App      App
	HTTP     HTTP
	Job      Job
	Discover Discover
	Resolve  Resolve
	Fetch    Fetch
	Bus      Bus
	Storage  Storage
	Proxy    Proxy
}

// App holds application-wide configuration.
type App struct {
	LogLevel string `env:"TOKVAULT_APP_LOG_LEVEL" envDefault:"info"`
}

// HTTP holds HTTP server configuration.
type HTTP struct {
	Port            string        `env:"TOKVAULT_HTTP_PORT"             envDefault:":8080"`
	HandlerTimeout  time.Duration `env:"TOKVAULT_HTTP_HANDLER_TIMEOUT"  envDefault:"20s"`
	ShutdownTimeout time.Duration `env:"TOKVAULT_HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Job holds pipeline configuration.
type Job struct {
	// DefaultCount is the per-job link cap applied when the caller does not
	// request a specific count.
	DefaultCount int `env:"TOKVAULT_JOB_DEFAULT_COUNT" envDefault:"10"`
	// Timeout is the wall-clock budget for one pipeline run.
	Timeout time.Duration `env:"TOKVAULT_JOB_TIMEOUT" envDefault:"30m"`
	// TTL is how long a finished job record stays queryable.
	TTL             time.Duration `env:"TOKVAULT_JOB_TTL"              envDefault:"24h"`
	CleanupInterval time.Duration `env:"TOKVAULT_JOB_CLEANUP_INTERVAL" envDefault:"1h"`
}

// Discover holds profile discovery configuration.
type Discover struct {
	// Origin is the canonical origin video links are normalized against.
	Origin string `env:"TOKVAULT_DISCOVER_ORIGIN" envDefault:"https://www.tiktok.com"`
	// StateScriptID is the DOM id of the embedded-state script tag. Parsing
	// it is preferred over anchor scraping, which is layout-fragile.
	StateScriptID string `env:"TOKVAULT_DISCOVER_STATE_SCRIPT_ID" envDefault:"SIGI_STATE"`
	// Attempts is how many times the renderer retries a profile page.
	Attempts int           `env:"TOKVAULT_DISCOVER_ATTEMPTS" envDefault:"3"`
	Timeout  time.Duration `env:"TOKVAULT_DISCOVER_TIMEOUT"  envDefault:"30s"`
}

// Resolve holds resolution service configuration.
type Resolve struct {
	Endpoint string        `env:"TOKVAULT_RESOLVE_ENDPOINT" envDefault:"https://lovetik.com/api/ajax/search"`
	Timeout  time.Duration `env:"TOKVAULT_RESOLVE_TIMEOUT"  envDefault:"15s"`
}

// Fetch holds media download configuration.
type Fetch struct {
	Timeout time.Duration `env:"TOKVAULT_FETCH_TIMEOUT"  envDefault:"10m"`
	TempDir string        `env:"TOKVAULT_FETCH_TEMP_DIR" envDefault:"./data/tmp"`
}

// Bus holds progress bus configuration.
type Bus struct {
	// Buffer is the per-subscriber event buffer. When a subscriber falls
	// behind, events overflowing its buffer are dropped for that subscriber
	// so producers are never blocked.
	Buffer int `env:"TOKVAULT_BUS_BUFFER" envDefault:"16"`
	// IdleTimeout closes a subscription that sees no matching event in time;
	// it guards against pipelines that died before the terminal notice.
	IdleTimeout time.Duration `env:"TOKVAULT_BUS_IDLE_TIMEOUT" envDefault:"60s"`
}

// Storage holds storage backend configuration. Bucket is required; the
// process refuses to start without it.
type Storage struct {
	Bucket string `env:"TOKVAULT_STORAGE_BUCKET"`
	Region string `env:"TOKVAULT_STORAGE_REGION" envDefault:"us-east-1"`
	// Endpoint is optional, for S3-compatible backends.
	Endpoint        string `env:"TOKVAULT_STORAGE_ENDPOINT"`
	AccessKeyID     string `env:"TOKVAULT_STORAGE_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"TOKVAULT_STORAGE_SECRET_ACCESS_KEY"`
	// Prefix is the optional destination collection inside the bucket.
	// Empty means the backend's default placement.
	Prefix string `env:"TOKVAULT_STORAGE_PREFIX"`
}

// Proxy holds proxy configuration for outbound requests.
type Proxy struct {
	// List is a comma-separated list of proxy URLs.
	List          string        `env:"TOKVAULT_PROXY_LIST"`
	HealthCheck   bool          `env:"TOKVAULT_PROXY_HEALTH_CHECK"   envDefault:"false"`
	HealthTimeout time.Duration `env:"TOKVAULT_PROXY_HEALTH_TIMEOUT" envDefault:"5s"`

	// Proxies is the parsed list of proxy URLs.
	Proxies []string `env:"-"`
}

// ErrBucketRequired is returned by Validate when no storage bucket is configured.
var ErrBucketRequired = errors.New("storage bucket is required")

// New loads configuration from environment variables.
func New() (*Config, error) {
	cfg := &Config{}

	err := env.Parse(cfg)
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	err = cfg.Fetch.SetAbsPaths()
	if err != nil {
		return nil, fmt.Errorf("set absolute paths: %w", err)
	}

	cfg.Proxy.parseList()

	return cfg, nil
}

// Validate checks startup requirements. It is called once from main so the
// process fails fast on missing credentials rather than on the first job.
func (c *Config) Validate() error {
	if c.Storage.Bucket == "" {
		return ErrBucketRequired
	}

	return nil
}

// SetAbsPaths converts the temp directory to an absolute path.
func (f *Fetch) SetAbsPaths() error {
	var err error
	if f.TempDir, err = filepath.Abs(f.TempDir); err != nil {
		return fmt.Errorf("temp dir: %w", err)
	}

	return nil
}

// parseList parses the comma-separated proxy list.
func (p *Proxy) parseList() {
	if p.List == "" {
		return
	}

	for proxy := range strings.SplitSeq(p.List, ",") {
		proxy = strings.TrimSpace(proxy)
		if proxy != "" {
			p.Proxies = append(p.Proxies, proxy)
		}
	}
}
