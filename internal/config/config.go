package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "AMM"

// LogConfig controls the process logger and its optional rotating file.
type LogConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// SimulateConfig holds configuration for the simulate command.
type SimulateConfig struct {
	Log                 LogConfig
	Pools               string
	Ops                 string
	Journal             string
	RPCURL              string
	Deployer            string
	PGDSN               string
	Workers             int
	QueueSize           int
	LegacyCurveFallback bool
	MaxPoolsPerChain    int
	MaxRetries          int
	RetryBackoff        time.Duration
}

// LoadSimulate merges config file, environment variables, and flags into SimulateConfig.
func LoadSimulate(cfgFile string, flags *pflag.FlagSet) (SimulateConfig, error) {
	v := newViper()
	v.SetDefault("pools", "./pools.yaml")
	v.SetDefault("ops", "./ops.jsonl")
	v.SetDefault("journal", "./data/events.jsonl")
	v.SetDefault("workers", 8)
	v.SetDefault("queue-size", 0)
	v.SetDefault("legacy-curve-fallback", false)
	v.SetDefault("max-pools-per-chain", 100)
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)

	if err := readInto(v, cfgFile, flags); err != nil {
		return SimulateConfig{}, err
	}

	cfg := SimulateConfig{
		Log:                 logConfig(v),
		Pools:               v.GetString("pools"),
		Ops:                 v.GetString("ops"),
		Journal:             v.GetString("journal"),
		RPCURL:              v.GetString("rpc"),
		Deployer:            v.GetString("deployer"),
		PGDSN:               v.GetString("pg-dsn"),
		Workers:             v.GetInt("workers"),
		QueueSize:           v.GetInt("queue-size"),
		LegacyCurveFallback: v.GetBool("legacy-curve-fallback"),
		MaxPoolsPerChain:    v.GetInt("max-pools-per-chain"),
		MaxRetries:          v.GetInt("max-retries"),
		RetryBackoff:        v.GetDuration("retry-backoff"),
	}
	if cfg.Workers <= 0 {
		return SimulateConfig{}, fmt.Errorf("workers must be positive, got %d", cfg.Workers)
	}
	if cfg.QueueSize < 0 {
		return SimulateConfig{}, fmt.Errorf("queue-size must not be negative, got %d", cfg.QueueSize)
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("log-level", "info")
	v.SetDefault("log-max-size", 100)
	v.SetDefault("log-max-backups", 5)
	v.SetDefault("log-max-age", 28)
	return v
}

// readInto binds flags and reads cfgFile, or an optional ./config.* file.
func readInto(v *viper.Viper, cfgFile string, flags *pflag.FlagSet) error {
	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

func logConfig(v *viper.Viper) LogConfig {
	return LogConfig{
		Level:      v.GetString("log-level"),
		File:       v.GetString("log-file"),
		MaxSizeMB:  v.GetInt("log-max-size"),
		MaxBackups: v.GetInt("log-max-backups"),
		MaxAgeDays: v.GetInt("log-max-age"),
	}
}
