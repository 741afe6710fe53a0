package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"crossLiquidity/internal/config"
)

func main() {
	root := &cobra.Command{
		Use:          "amm",
		Short:        "Cross-chain AMM pool simulator",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "Create pools and replay an operations file against them",
		RunE:  runSimulate,
	}

	simulateCmd.Flags().String("pools", "./pools.yaml", "pool definitions YAML")
	simulateCmd.Flags().String("ops", "./ops.jsonl", "operations JSONL to replay")
	simulateCmd.Flags().String("journal", "./data/events.jsonl", "event journal JSONL, empty disables")
	simulateCmd.Flags().String("rpc", "", "EVM RPC URL for token metadata and deployment estimates")
	simulateCmd.Flags().String("deployer", "", "factory deployer address used for CREATE2 pool addresses (requires --rpc)")
	simulateCmd.Flags().String("pg-dsn", "", "Postgres DSN for pool snapshots")
	simulateCmd.Flags().Int("workers", 8, "concurrent pool workers")
	simulateCmd.Flags().Int("queue-size", 0, "worker queue size, 0 means unbounded")
	simulateCmd.Flags().Bool("legacy-curve-fallback", false, "price unsupported pool types with the legacy parity formula")
	simulateCmd.Flags().Int("max-pools-per-chain", 100, "pool limit per chain, 0 disables")
	simulateCmd.Flags().Int("max-retries", 5, "maximum RPC retry attempts")
	simulateCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial RPC retry backoff")
	addLogFlags(simulateCmd)

	root.AddCommand(simulateCmd)

	aggregateCmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Aggregate the event journal into window metrics",
		RunE:  runAggregate,
	}

	aggregateCmd.Flags().String("in", "./data/events.jsonl", "input event journal JSONL")
	aggregateCmd.Flags().String("window", "5m", "aggregation window (e.g. 1m, 5m, 1h)")
	aggregateCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	aggregateCmd.Flags().Int("batch-size", 1000, "batch size for DB writes")
	aggregateCmd.Flags().String("state-file", "", "optional local state file for progress tracking")
	aggregateCmd.Flags().String("recompute-from", "", "recompute from timestamp (unix seconds or RFC3339)")
	addLogFlags(aggregateCmd)

	root.AddCommand(aggregateCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addLogFlags(cmd *cobra.Command) {
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	cmd.Flags().String("log-file", "", "also write JSON logs to this rotating file")
	cmd.Flags().Int("log-max-size", 100, "log file size in MB before rotation")
	cmd.Flags().Int("log-max-backups", 5, "rotated log files to keep")
	cmd.Flags().Int("log-max-age", 28, "days to keep rotated log files")
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevel()
	if err := zcfg.Level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, err
	}

	zcfg.EncoderConfig.TimeKey = "ts"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	if cfg.File == "" {
		return logger, nil
	}

	rotating := zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	})
	fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(zcfg.EncoderConfig), rotating, zcfg.Level)
	return logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, fileCore)
	})), nil
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
