package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"gasgauge/internal/networks"
)

// Config holds application settings. The zero value is unusable; start
// from Default or Load.
type Config struct {
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	RPC struct {
		// Endpoints overrides the default public RPC URL per network key.
		Endpoints      map[string]string `yaml:"endpoints"`
		TimeoutSeconds int               `yaml:"timeout_seconds"`
	} `yaml:"rpc"`

	CoinGecko struct {
		APIKey string `yaml:"api_key"`
	} `yaml:"coingecko"`

	Sampler struct {
		// Networks to poll; empty means every registered network.
		Networks []string `yaml:"networks"`
		// Cron is a six-field spec with seconds.
		Cron string `yaml:"cron"`
		// AlertBelowGwei logs a warning when a sampled base fee drops
		// under the threshold; 0 disables the alert.
		AlertBelowGwei float64 `yaml:"alert_below_gwei"`
	} `yaml:"sampler"`
}

// Default returns a Config with sensible defaults: local SQLite file,
// localhost API, all networks sampled every five minutes.
func Default() *Config {
	cfg := &Config{}
	cfg.Database.Path = "gasgauge.db"
	cfg.Server.Addr = "localhost:8080"
	cfg.RPC.TimeoutSeconds = 15
	cfg.Sampler.Networks = networks.Keys()
	cfg.Sampler.Cron = "0 */5 * * * *"
	return cfg
}

// Load reads config from a YAML file, then applies environment
// variable overrides and fills defaults. A missing file is not an
// error; the defaults carry.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides.
	if v := os.Getenv("GASGAUGE_DB"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("GASGAUGE_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("COINGECKO_API_KEY"); v != "" {
		cfg.CoinGecko.APIKey = v
	}
	if v := os.Getenv("GASGAUGE_ALERT_BELOW"); v != "" {
		if threshold, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Sampler.AlertBelowGwei = threshold
		}
	}
	// GASGAUGE_RPC_ETHEREUM and friends override per-network endpoints.
	for _, key := range networks.Keys() {
		if v := os.Getenv("GASGAUGE_RPC_" + strings.ToUpper(key)); v != "" {
			if cfg.RPC.Endpoints == nil {
				cfg.RPC.Endpoints = make(map[string]string)
			}
			cfg.RPC.Endpoints[key] = v
		}
	}

	// Defaults.
	if cfg.Database.Path == "" {
		cfg.Database.Path = "gasgauge.db"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = "localhost:8080"
	}
	if cfg.RPC.TimeoutSeconds <= 0 {
		cfg.RPC.TimeoutSeconds = 15
	}
	if len(cfg.Sampler.Networks) == 0 {
		cfg.Sampler.Networks = networks.Keys()
	}
	if cfg.Sampler.Cron == "" {
		cfg.Sampler.Cron = "0 */5 * * * *"
	}

	return cfg, nil
}

// EndpointFor returns the RPC URL to use for a network: the configured
// override when present, otherwise the registry default.
func (c *Config) EndpointFor(key string) (string, bool) {
	if url, ok := c.RPC.Endpoints[key]; ok && url != "" {
		return url, true
	}
	n, ok := networks.Get(key)
	if !ok {
		return "", false
	}
	return n.RPC, true
}
