// Package config handles application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ultradl/internal/errs"
	"ultradl/pkg/urls"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	App       App
	Server    Server
	HTTP      HTTP
	Dir       Dir
	Analytics Analytics
	Metrics   Metrics
	Proxy     Proxy
	Clipboard Clipboard
	Donate    Donate
	Panel     Panel
}

// App holds application-wide configuration.
type App struct {
	LogLevel  string `env:"ULTRADL_APP_LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"ULTRADL_APP_LOG_FORMAT" envDefault:"json"`
}

// Server points at the media service that answers /info and /download.
type Server struct {
	BaseURL string `env:"ULTRADL_SERVER_BASE_URL" envDefault:"http://127.0.0.1:5000"`
}

// HTTP holds outbound HTTP client configuration.
type HTTP struct {
	InfoTimeout     time.Duration `env:"ULTRADL_HTTP_INFO_TIMEOUT"     envDefault:"30s"`
	DownloadTimeout time.Duration `env:"ULTRADL_HTTP_DOWNLOAD_TIMEOUT" envDefault:"30m"`
	UserAgent       string        `env:"ULTRADL_HTTP_USER_AGENT"       envDefault:"ultradl/1.0"`
}

// Dir holds where saved files land.
type Dir struct {
	Output string `env:"ULTRADL_DIR_OUTPUT" envDefault:"./downloads"`
	// IndexFilenames saves batch items as media_<i>.<ext> instead of overwriting media.<ext>.
	IndexFilenames bool `env:"ULTRADL_DIR_INDEX_FILENAMES" envDefault:"true"`
}

// SetAbsPaths converts all directory paths to absolute paths.
func (c *Dir) SetAbsPaths() error {
	var err error
	if c.Output, err = filepath.Abs(c.Output); err != nil {
		return fmt.Errorf("output: %w", err)
	}

	return nil
}

// Analytics holds event tracking configuration.
type Analytics struct {
	Enabled  bool          `env:"ULTRADL_ANALYTICS_ENABLED"  envDefault:"false"`
	Endpoint string        `env:"ULTRADL_ANALYTICS_ENDPOINT" envDefault:"https://plausible.io/api/event"`
	Domain   string        `env:"ULTRADL_ANALYTICS_DOMAIN"   envDefault:""`
	Timeout  time.Duration `env:"ULTRADL_ANALYTICS_TIMEOUT"  envDefault:"5s"`
	Rate     float64       `env:"ULTRADL_ANALYTICS_RATE"     envDefault:"5"`
	Burst    int           `env:"ULTRADL_ANALYTICS_BURST"    envDefault:"10"`
}

// Metrics holds the Prometheus endpoint configuration.
type Metrics struct {
	// Addr is where /metrics is served; empty disables the server.
	Addr string `env:"ULTRADL_METRICS_ADDR" envDefault:""`
}

// Proxy holds proxy configuration for outbound requests.
type Proxy struct {
	// List is a comma-separated list of proxy URLs
	List          string        `env:"ULTRADL_PROXY_LIST"           envDefault:""`
	HealthCheck   bool          `env:"ULTRADL_PROXY_HEALTH_CHECK"   envDefault:"false"`
	HealthTimeout time.Duration `env:"ULTRADL_PROXY_HEALTH_TIMEOUT" envDefault:"5s"`
}

// Clipboard holds clipboard behavior.
type Clipboard struct {
	Autofill bool `env:"ULTRADL_CLIPBOARD_AUTOFILL" envDefault:"true"`
}

// Donate holds donation addresses.
type Donate struct {
	// List is COIN=address pairs separated by commas.
	List string `env:"ULTRADL_DONATE_ADDRESSES" envDefault:""`

	// Addresses is the parsed list, keyed by upper-case coin.
	Addresses map[string]string `env:"-"`
	// Coins keeps List order for display.
	Coins []string `env:"-"`
}

// parseList parses the comma-separated COIN=address list.
func (d *Donate) parseList() error {
	d.Addresses = make(map[string]string)
	d.Coins = nil

	if strings.TrimSpace(d.List) == "" {
		return nil
	}

	for pair := range strings.SplitSeq(d.List, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		coin, addr, ok := strings.Cut(pair, "=")
		coin = strings.ToUpper(strings.TrimSpace(coin))
		addr = strings.TrimSpace(addr)

		if !ok || coin == "" || addr == "" {
			return fmt.Errorf("%w: %q", errs.ErrInvalidDonateAddresses, pair)
		}

		if _, dup := d.Addresses[coin]; !dup {
			d.Coins = append(d.Coins, coin)
		}
		d.Addresses[coin] = addr
	}

	return nil
}

// Panel holds log panel configuration.
type Panel struct {
	// Export is where the log panel is written on exit; a .xz suffix compresses it.
	Export string `env:"ULTRADL_PANEL_EXPORT" envDefault:""`
}

// Options tune how New loads configuration.
type Options struct {
	// EnvFile is loaded before parsing; a missing file is not an error.
	EnvFile string
}

// New loads configuration from an optional .env file and environment variables.
func New() (*Config, error) {
	return NewWithOptions(Options{EnvFile: envFileFromEnv()})
}

// NewWithOptions is New with explicit options.
func NewWithOptions(opt Options) (*Config, error) {
	cfg, err := LoadWithOptions(opt)
	if err != nil {
		return nil, err
	}

	err = cfg.Finalize()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load is New without Finalize, for callers that override values first.
func Load() (*Config, error) {
	return LoadWithOptions(Options{EnvFile: envFileFromEnv()})
}

// LoadWithOptions is Load with explicit options.
func LoadWithOptions(opt Options) (*Config, error) {
	if opt.EnvFile != "" {
		// godotenv.Load never overrides variables that are already set.
		err := godotenv.Load(opt.EnvFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}

	cfg := &Config{}

	err := env.Parse(cfg)
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	return cfg, nil
}

// Finalize validates and derives fields. Call it again after overriding values.
func (c *Config) Finalize() error {
	c.Server.BaseURL = strings.TrimRight(strings.TrimSpace(c.Server.BaseURL), "/")
	if !urls.IsURLValid(c.Server.BaseURL) {
		return fmt.Errorf("%w: %q", errs.ErrInvalidBaseURL, c.Server.BaseURL)
	}

	err := c.Dir.SetAbsPaths()
	if err != nil {
		return fmt.Errorf("set absolute paths: %w", err)
	}

	err = c.Donate.parseList()
	if err != nil {
		return fmt.Errorf("donate: %w", err)
	}

	return nil
}

const (
	envFileVar     = "ULTRADL_ENV_FILE"
	defaultEnvFile = ".env"
)

func envFileFromEnv() string {
	if v, ok := os.LookupEnv(envFileVar); ok {
		return v
	}

	return defaultEnvFile
}
