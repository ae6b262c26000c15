// Copyright 2025 Certen Protocol
//
// Package config loads ledgercore's process configuration from a YAML
// file with ${VAR_NAME} / ${VAR_NAME:-default} environment substitution.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/certen/ledgercore/pkg/cell"
	"github.com/certen/ledgercore/pkg/cellerr"
)

// Config holds all of ledgercore's process-level settings.
type Config struct {
	Environment string `yaml:"environment"`

	Store      StoreSettings      `yaml:"store"`
	Logging    LoggingSettings    `yaml:"logging"`
	Monitoring MonitoringSettings `yaml:"monitoring"`
}

// StoreSettings configures the Backend a Store runs on and its cache.
type StoreSettings struct {
	Backend   string `yaml:"backend"` // "memory", "goleveldb", "postgres"
	DataDir   string `yaml:"data_dir"`
	CacheSize int    `yaml:"cache_size"`

	Postgres PostgresSettings `yaml:"postgres"`

	// EmbedThreshold and ChunkSize are accepted here only so a rendered
	// config is self-documenting; they are validated against, never
	// applied, since the wire format fixes both constants (§9).
	EmbedThreshold int `yaml:"embed_threshold"`
	ChunkSize      int `yaml:"chunk_size"`
}

// PostgresSettings configures a Postgres-backed Store.
type PostgresSettings struct {
	DatabaseURL string   `yaml:"database_url"`
	MaxConns    int      `yaml:"max_conns"`
	MinConns    int      `yaml:"min_conns"`
	MaxIdleTime Duration `yaml:"max_idle_time"`
	MaxLifetime Duration `yaml:"max_lifetime"`
}

// LoggingSettings configures internal/logging.
type LoggingSettings struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// MonitoringSettings configures the prometheus exposition endpoint.
type MonitoringSettings struct {
	MetricsPort int    `yaml:"metrics_port"`
	MetricsPath string `yaml:"metrics_path"`
}

// Duration is a YAML-decodable time.Duration, parsed from strings like
// "30s" rather than an integer count of nanoseconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration { return time.Duration(d) }

// envVarPattern matches ${VAR_NAME} or ${VAR_NAME:-default}.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
// before YAML parsing, falling back to the :- default when unset.
func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultValue := ""
		if len(groups) >= 4 {
			defaultValue = groups[3]
		}
		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

// Load reads path, substitutes environment variables, parses the YAML,
// applies defaults, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	expanded := substituteEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Store.Backend == "" {
		c.Store.Backend = "memory"
	}
	if c.Store.DataDir == "" {
		c.Store.DataDir = "./data"
	}
	if c.Store.CacheSize == 0 {
		c.Store.CacheSize = 1024
	}
	if c.Store.EmbedThreshold == 0 {
		c.Store.EmbedThreshold = cell.EmbedThreshold
	}
	if c.Store.ChunkSize == 0 {
		c.Store.ChunkSize = cell.ChunkSize
	}
	if c.Store.Postgres.MaxConns == 0 {
		c.Store.Postgres.MaxConns = 20
	}
	if c.Store.Postgres.MinConns == 0 {
		c.Store.Postgres.MinConns = 5
	}
	if c.Store.Postgres.MaxIdleTime == 0 {
		c.Store.Postgres.MaxIdleTime = Duration(5 * time.Minute)
	}
	if c.Store.Postgres.MaxLifetime == 0 {
		c.Store.Postgres.MaxLifetime = Duration(time.Hour)
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	if c.Monitoring.MetricsPort == 0 {
		c.Monitoring.MetricsPort = 9090
	}
	if c.Monitoring.MetricsPath == "" {
		c.Monitoring.MetricsPath = "/metrics"
	}
}

// Validate rejects a config that would silently change the wire format's
// meaning or that names an unsupported backend.
func (c *Config) Validate() error {
	var errs []string

	switch c.Store.Backend {
	case "memory", "goleveldb", "postgres":
	default:
		errs = append(errs, fmt.Sprintf("store.backend: unsupported value %q", c.Store.Backend))
	}

	if c.Store.Backend == "postgres" && c.Store.Postgres.DatabaseURL == "" {
		errs = append(errs, "store.postgres.database_url is required when store.backend is postgres")
	}

	if c.Store.EmbedThreshold != cell.EmbedThreshold {
		errs = append(errs, fmt.Sprintf(
			"store.embed_threshold must equal %d (the wire format's fixed embedding threshold), got %d",
			cell.EmbedThreshold, c.Store.EmbedThreshold))
	}
	if c.Store.ChunkSize != cell.ChunkSize {
		errs = append(errs, fmt.Sprintf(
			"store.chunk_size must equal %d (the wire format's fixed chunk size), got %d",
			cell.ChunkSize, c.Store.ChunkSize))
	}

	if len(errs) > 0 {
		joined := errs[0]
		for _, e := range errs[1:] {
			joined += "\n  - " + e
		}
		return cellerr.NewConfigInvalid(fmt.Sprintf("invalid configuration:\n  - %s", joined))
	}
	return nil
}
