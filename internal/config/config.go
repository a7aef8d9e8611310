// Package config loads the engine configuration (app.yml), the
// operator's source list (sources.yml) and the environment overrides
// layered on top of both.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFetchConcurrency bounds how many sources harvest in parallel
// when neither app.yml nor FETCH_CONCURRENCY says otherwise.
const DefaultFetchConcurrency = 5

type Config struct {
	App struct {
		DataDir string `yaml:"data_dir"`
		OpsPort int    `yaml:"ops_port"`
	} `yaml:"app"`

	LogLevel string `yaml:"log_level"`

	Harvest struct {
		Concurrency     int     `yaml:"concurrency"`
		Schedule        string  `yaml:"schedule"`
		HostRatePerSec  float64 `yaml:"host_rate_per_sec"`
		HostRateBurst   int     `yaml:"host_rate_burst"`
		CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
	} `yaml:"harvest"`

	Paths struct {
		FilterConfigDir string `yaml:"filter_config_dir"`
		SourcesFile     string `yaml:"sources_file"`
	} `yaml:"paths"`
}

// Default is the configuration a bare checkout runs with.
func Default() Config {
	var cfg Config
	cfg.App.DataDir = "."
	cfg.App.OpsPort = 9090
	cfg.LogLevel = "info"
	cfg.Harvest.Concurrency = DefaultFetchConcurrency
	cfg.Harvest.Schedule = "0 */6 * * *"
	cfg.Harvest.HostRatePerSec = 2
	cfg.Harvest.HostRateBurst = 4
	cfg.Harvest.CacheTTLSeconds = 60
	cfg.Paths.FilterConfigDir = "config"
	cfg.Paths.SourcesFile = "config/sources.yml"
	return cfg
}

// Load reads path over the defaults. A missing file is fine: the
// defaults plus env overrides are a complete configuration.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv folds the supported environment overrides into cfg. Env wins
// over the file: FETCH_CONCURRENCY, LOG_LEVEL, DATA_DIR.
func (c *Config) ApplyEnv() error {
	if v := strings.TrimSpace(os.Getenv("FETCH_CONCURRENCY")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FETCH_CONCURRENCY must be an integer, got %q", v)
		}
		c.Harvest.Concurrency = n
	}
	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		c.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv("DATA_DIR")); v != "" {
		c.App.DataDir = v
	}
	return nil
}
