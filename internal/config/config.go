// Package config loads service configuration from a yaml file, .env and WRL_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"wallet-risk-lab/internal/domain"
	"wallet-risk-lab/internal/model"
	"wallet-risk-lab/internal/scheduler"
	"wallet-risk-lab/internal/scoring"
)

// EnvPrefix prefixes every environment override, e.g. WRL_SCORING_MODE.
const EnvPrefix = "WRL"

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Log        LogConfig        `mapstructure:"log"`
	Scoring    ScoringConfig    `mapstructure:"scoring"`
	Input      InputConfig      `mapstructure:"input"`
	Postgres   PostgresConfig   `mapstructure:"postgres"`
	Clickhouse ClickhouseConfig `mapstructure:"clickhouse"`
	Server     ServerConfig     `mapstructure:"server"`
	Subgraph   SubgraphConfig   `mapstructure:"subgraph"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type ScoringConfig struct {
	Mode               string  `mapstructure:"mode"`
	Seed               int64   `mapstructure:"seed"`
	Epochs             int     `mapstructure:"epochs"`
	LearningRate       float64 `mapstructure:"learning_rate"`
	L2                 float64 `mapstructure:"l2"`
	Workers            int     `mapstructure:"workers"`
	MinTrainingWallets int     `mapstructure:"min_training_wallets"`
}

type InputConfig struct {
	Schema string `mapstructure:"schema"`
}

type PostgresConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"` // 0 keeps the pgxpool default
}

type ClickhouseConfig struct {
	DSN string `mapstructure:"dsn"`
}

type ServerConfig struct {
	HTTPAddr   string `mapstructure:"http_addr"`
	Schedule   string `mapstructure:"schedule"` // cron spec with seconds field
	RunOnStart bool   `mapstructure:"run_on_start"`
}

type SubgraphConfig struct {
	URL        string        `mapstructure:"url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Delay      time.Duration `mapstructure:"delay"`
	MaxRetries int           `mapstructure:"max_retries"`
}

// Load reads configuration. A .env file in the working directory is applied
// to the process environment first when present. The yaml file at path is
// read unless envOnly is set or path is empty.
func Load(path string, envOnly bool) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if !envOnly && path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
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
	mc := model.DefaultConfig()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("scoring.mode", scoring.ModeHybrid)
	v.SetDefault("scoring.seed", mc.Seed)
	v.SetDefault("scoring.epochs", mc.Epochs)
	v.SetDefault("scoring.learning_rate", mc.LearningRate)
	v.SetDefault("scoring.l2", mc.L2)
	v.SetDefault("scoring.workers", 1)
	v.SetDefault("scoring.min_training_wallets", scoring.DefaultMinTrainingWallets)
	v.SetDefault("input.schema", string(domain.SchemaActionLog))
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.max_conns", 0)
	v.SetDefault("clickhouse.dsn", "")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("server.schedule", "0 0 * * * *")
	v.SetDefault("server.run_on_start", true)
	v.SetDefault("subgraph.url", "https://api.thegraph.com/subgraphs/name/graphprotocol/compound-v2")
	v.SetDefault("subgraph.timeout", "30s")
	v.SetDefault("subgraph.delay", "500ms")
	v.SetDefault("subgraph.max_retries", 3)
}

// Validate checks values that would otherwise fail deep inside a run.
func (c Config) Validate() error {
	switch c.Scoring.Mode {
	case scoring.ModeHybrid, scoring.ModeRule, scoring.ModeProbability, scoring.ModeWeighted:
	default:
		return fmt.Errorf("%w: scoring.mode %q", ErrInvalidConfig, c.Scoring.Mode)
	}
	if err := c.Scoring.ModelConfig().Validate(); err != nil {
		return fmt.Errorf("%w: scoring: %v", ErrInvalidConfig, err)
	}
	if c.Scoring.Workers < 1 {
		return fmt.Errorf("%w: scoring.workers must be >= 1, got %d", ErrInvalidConfig, c.Scoring.Workers)
	}
	if c.Scoring.MinTrainingWallets < 1 {
		return fmt.Errorf("%w: scoring.min_training_wallets must be >= 1, got %d", ErrInvalidConfig, c.Scoring.MinTrainingWallets)
	}
	if !domain.Schema(c.Input.Schema).IsValid() {
		return fmt.Errorf("%w: input.schema %q", ErrInvalidConfig, c.Input.Schema)
	}
	if err := scheduler.ValidateSpec(c.Server.Schedule); err != nil {
		return fmt.Errorf("%w: server.schedule: %v", ErrInvalidConfig, err)
	}
	if c.Postgres.MaxConns < 0 {
		return fmt.Errorf("%w: postgres.max_conns must be non-negative, got %d", ErrInvalidConfig, c.Postgres.MaxConns)
	}
	if c.Subgraph.Timeout <= 0 {
		return fmt.Errorf("%w: subgraph.timeout must be positive", ErrInvalidConfig)
	}
	if c.Subgraph.Delay < 0 || c.Subgraph.MaxRetries < 0 {
		return fmt.Errorf("%w: subgraph.delay and subgraph.max_retries must be non-negative", ErrInvalidConfig)
	}
	switch strings.ToLower(c.Log.Encoding) {
	case "json", "console":
	default:
		return fmt.Errorf("%w: log.encoding %q", ErrInvalidConfig, c.Log.Encoding)
	}
	return nil
}

// ModelConfig returns the classifier hyperparameters.
func (s ScoringConfig) ModelConfig() model.Config {
	return model.Config{
		Seed:         s.Seed,
		Epochs:       s.Epochs,
		LearningRate: s.LearningRate,
		L2:           s.L2,
	}
}

// StrategyConfig returns the scoring.Config for FromConfig.
func (s ScoringConfig) StrategyConfig() scoring.Config {
	return scoring.Config{
		Mode:               s.Mode,
		MinTrainingWallets: s.MinTrainingWallets,
		Model:              s.ModelConfig(),
	}
}
