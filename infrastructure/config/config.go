// Package config loads OMEN's configuration from a YAML file with
// environment variable overrides, using a load-then-override-then-
// default pattern.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Ledger    LedgerSection    `yaml:"ledger"`
	Pipeline  PipelineSection  `yaml:"pipeline"`
	Database  DatabaseSection  `yaml:"database"`
	Cache     CacheSection     `yaml:"cache"`
	Webhook   WebhookSection   `yaml:"webhook"`
	LiveGate  LiveGateSection  `yaml:"live_gate"`
	Generator GeneratorSection `yaml:"generator"`
}

type LedgerSection struct {
	BaseDir              string  `yaml:"base_dir"`
	AutoSealAfterHours   float64 `yaml:"auto_seal_after_hours"`
	SealGracePeriodHours float64 `yaml:"seal_grace_period_hours"`
	HotDays              int     `yaml:"hot_days"`
	WarmDays             int     `yaml:"warm_days"`
	ColdDays             int     `yaml:"cold_days"`
}

type PipelineSection struct {
	RulesetVersion         string  `yaml:"ruleset_version"`
	MinConfidenceForOutput float64 `yaml:"min_confidence_for_output"`
	Live                   bool    `yaml:"live"`
}

type DatabaseSection struct {
	DSN          string        `yaml:"dsn"`
	Enabled      bool          `yaml:"enabled"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
	QueryTimeout time.Duration `yaml:"query_timeout"`
}

type CacheSection struct {
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
}

type WebhookSection struct {
	URL        string `yaml:"url"`
	Secret     string `yaml:"secret"`
	MaxRetries int    `yaml:"max_retries"`
}

type LiveGateSection struct {
	MasterSwitch        bool    `yaml:"master_switch"`
	MinRealSourceRatio  float64 `yaml:"min_real_source_ratio"`
	RequiredRealSources []string `yaml:"required_real_sources"`
}

type GeneratorSection struct {
	PollIntervalSeconds int `yaml:"poll_interval_seconds"`
	FetchTimeoutSeconds int `yaml:"fetch_timeout_seconds"`
	FetchLimit          int `yaml:"fetch_limit"`
}

// Default returns the out-of-box configuration matching each package's
// own DefaultConfig, so an empty/missing config file still runs.
func Default() Config {
	return Config{
		Ledger: LedgerSection{
			BaseDir:              "./data/ledger",
			AutoSealAfterHours:   24,
			SealGracePeriodHours: 2,
			HotDays:              7,
			WarmDays:             30,
			ColdDays:             365,
		},
		Pipeline: PipelineSection{
			RulesetVersion:         "v1.0.0",
			MinConfidenceForOutput: 0.3,
		},
		Database: DatabaseSection{
			MaxOpenConns: 10,
			MaxIdleConns: 5,
			QueryTimeout: 30 * time.Second,
		},
		Cache: CacheSection{
			RedisAddr: "localhost:6379",
			RedisDB:   0,
		},
		Webhook: WebhookSection{
			MaxRetries: 3,
		},
		LiveGate: LiveGateSection{
			MasterSwitch:       false,
			MinRealSourceRatio: 0.80,
		},
		Generator: GeneratorSection{
			PollIntervalSeconds: 120,
			FetchTimeoutSeconds: 15,
			FetchLimit:          100,
		},
	}
}

// Load reads configPath if present (otherwise starts from Default),
// applies environment overrides, and validates the result.
func Load(configPath string) (Config, error) {
	cfg := Default()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return Config{}, fmt.Errorf("read config file %s: %w", configPath, err)
			}
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config file %s: %w", configPath, err)
			}
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OMEN_LEDGER_BASE_DIR"); v != "" {
		cfg.Ledger.BaseDir = v
	}
	if v := os.Getenv("OMEN_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
		cfg.Database.Enabled = true
	}
	if v := os.Getenv("OMEN_CACHE_REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("OMEN_WEBHOOK_URL"); v != "" {
		cfg.Webhook.URL = v
	}
	if v := os.Getenv("OMEN_WEBHOOK_SECRET"); v != "" {
		cfg.Webhook.Secret = v
	}
	if v := os.Getenv("OMEN_ALLOW_LIVE_MODE"); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			cfg.LiveGate.MasterSwitch = parsed
		}
	}
	if v := os.Getenv("OMEN_PIPELINE_MIN_CONFIDENCE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Pipeline.MinConfidenceForOutput = parsed
		}
	}
	if v := os.Getenv("OMEN_PIPELINE_LIVE"); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			cfg.Pipeline.Live = parsed
		}
	}
}

// Validate catches the configuration mistakes that would otherwise
// surface as confusing runtime errors.
func (c Config) Validate() error {
	if c.Database.Enabled && c.Database.DSN == "" {
		return fmt.Errorf("database dsn is required when database is enabled")
	}
	if c.Pipeline.MinConfidenceForOutput < 0 || c.Pipeline.MinConfidenceForOutput > 1 {
		return fmt.Errorf("pipeline.min_confidence_for_output must be in [0,1]")
	}
	if c.LiveGate.MinRealSourceRatio < 0 || c.LiveGate.MinRealSourceRatio > 1 {
		return fmt.Errorf("live_gate.min_real_source_ratio must be in [0,1]")
	}
	if c.Ledger.WarmDays < c.Ledger.HotDays {
		return fmt.Errorf("ledger.warm_days must be >= hot_days")
	}
	if c.Ledger.ColdDays < c.Ledger.WarmDays {
		return fmt.Errorf("ledger.cold_days must be >= warm_days")
	}
	return nil
}
