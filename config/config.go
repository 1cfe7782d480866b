package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Poller     PollerConfig     `yaml:"poller"`
	Database   DatabaseConfig   `yaml:"database"`
	Tariff     TariffConfig     `yaml:"tariff"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// PollerConfig holds the telemetry poller configuration.
type PollerConfig struct {
	Enabled         bool          `yaml:"enabled"`
	IntervalSeconds int           `yaml:"interval_seconds"`
	Interval        time.Duration `yaml:"-"` // Ignored by YAML parser
	Timezone        string        `yaml:"timezone"`
	Request         PollerRequest `yaml:"request"`

	// Categories whose devices carry a cumulative energy counter; they are
	// billed by counter deltas, everything else with a switch is session-tracked.
	MeteredCategories []string `yaml:"metered_categories"`

	// cur_power scaling differs between device firmware generations
	// (raw/10 vs raw/1000). The default applies unless the device model
	// has an explicit override.
	PowerDivisor          float64            `yaml:"power_divisor"`
	PowerDivisorOverrides map[string]float64 `yaml:"power_divisor_overrides"`
}

// PollerRequest defines the HTTP request for the telemetry source.
type PollerRequest struct {
	URL      string            `yaml:"url"`
	Headers  map[string]string `yaml:"headers"`
	PageSize int               `yaml:"pageSize"`
	Payload  map[string]any    `yaml:"payload"`
}

// TariffConfig holds the fallback rates used when the stored tariff
// settings do not cover a device's category.
type TariffConfig struct {
	DefaultRatePerKWh float64            `yaml:"default_rate_per_kwh"`
	Categories        map[string]float64 `yaml:"categories"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Poller.IntervalSeconds <= 0 {
		cfg.Poller.IntervalSeconds = 60
	}
	cfg.Poller.Interval = time.Duration(cfg.Poller.IntervalSeconds) * time.Second

	if cfg.Poller.Request.PageSize <= 0 {
		cfg.Poller.Request.PageSize = 100
	}

	if cfg.Poller.Timezone == "" {
		cfg.Poller.Timezone = "Europe/Warsaw"
	}

	if cfg.Poller.PowerDivisor <= 0 {
		cfg.Poller.PowerDivisor = 10
	}

	if len(cfg.Poller.MeteredCategories) == 0 {
		cfg.Poller.MeteredCategories = []string{"cz"}
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	return &cfg, nil
}

// PowerDivisorFor returns the cur_power divisor for a device model.
func (p *PollerConfig) PowerDivisorFor(model string) float64 {
	if d, ok := p.PowerDivisorOverrides[model]; ok && d > 0 {
		return d
	}
	return p.PowerDivisor
}

// IsMetered reports whether a category is billed by its cumulative counter.
func (p *PollerConfig) IsMetered(category string) bool {
	for _, c := range p.MeteredCategories {
		if c == category {
			return true
		}
	}
	return false
}
