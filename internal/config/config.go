package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the API server configuration. Values come from an optional YAML
// file, then the environment on top.
type Config struct {
	Port        int    `yaml:"port"`
	DatabaseURL string `yaml:"database_url"`
	RedisURL    string `yaml:"redis_url"`

	// Road graph for the /route endpoints. Empty generates a demo grid.
	GraphFile     string `yaml:"graph_file"`
	LandmarkCount int    `yaml:"landmark_count"`

	SolveBudget         time.Duration `yaml:"solve_budget"`
	SolverSeed          int64         `yaml:"solver_seed"`
	CallbackMaxAttempts int           `yaml:"callback_max_attempts"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:          8080,
		LandmarkCount: 4,
		SolveBudget:   30 * time.Second,
	}
}

// Load reads path (when non-empty) and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return cfg, fmt.Errorf("invalid port %d", cfg.Port)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Port = n
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.RedisURL = v
	}
	if v := os.Getenv("GRAPH_FILE"); v != "" {
		c.GraphFile = v
	}
	if v := os.Getenv("LANDMARK_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.LandmarkCount = n
		}
	}
	if v := os.Getenv("SOLVE_BUDGET_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.SolveBudget = time.Duration(n) * time.Millisecond
		}
	}
	if v := os.Getenv("SOLVER_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.SolverSeed = n
		}
	}
	if v := os.Getenv("CALLBACK_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.CallbackMaxAttempts = n
		}
	}
}

// Addr is the listen address derived from Port.
func (c Config) Addr() string { return fmt.Sprintf(":%d", c.Port) }
