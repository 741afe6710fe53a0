package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"crossLiquidity/internal/chain"
	"crossLiquidity/internal/config"
	"crossLiquidity/internal/factory"
	"crossLiquidity/internal/liquidity"
	"crossLiquidity/internal/model"
	"crossLiquidity/internal/replay"
	"crossLiquidity/internal/storage"
	"crossLiquidity/internal/storage/postgres"
	"crossLiquidity/internal/store"
	"crossLiquidity/internal/token"
)

const maxRetryDelay = 10 * time.Second

func runSimulate(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSimulate(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Deployer != "" && cfg.RPCURL == "" {
		return fmt.Errorf("deployer requires an rpc url")
	}
	if cfg.Deployer != "" && !common.IsHexAddress(cfg.Deployer) {
		return fmt.Errorf("invalid deployer address: %s", cfg.Deployer)
	}

	poolConfigs, err := config.LoadPools(cfg.Pools)
	if err != nil {
		return err
	}
	ops, err := replay.ReadOps(cfg.Ops)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var deployer factory.Factory = factory.StaticFactory{}
	if cfg.RPCURL != "" {
		chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
		if err != nil {
			return fmt.Errorf("connect rpc: %w", err)
		}
		defer chainClient.Close()

		retry := chain.RetryPolicy{MaxRetries: cfg.MaxRetries, BaseDelay: cfg.RetryBackoff, MaxDelay: maxRetryDelay}
		resolver := token.NewResolver(chainClient, retry, logger)
		for i := range poolConfigs {
			updated := resolver.Enrich(ctx, &poolConfigs[i])
			logger.Debug("token metadata", zap.String("pool", poolConfigs[i].Name), zap.Int("assets_updated", updated))
		}
		if cfg.Deployer != "" {
			deployer = factory.NewChainFactory(chainClient, common.HexToAddress(cfg.Deployer), factory.DefaultCostModel(), retry, logger)
		}
	}

	opts := make([]liquidity.Option, 0, 1)
	if cfg.Journal != "" {
		journal := storage.NewJournal(cfg.Journal)
		defer func() {
			if err := journal.Close(); err != nil {
				logger.Warn("close journal", zap.String("path", journal.Path()), zap.Error(err))
			}
		}()
		opts = append(opts, liquidity.WithJournal(journal))
	}
	manager := liquidity.NewManager(liquidity.Config{
		LegacyCurveFallback: cfg.LegacyCurveFallback,
		MaxPoolsPerChain:    cfg.MaxPoolsPerChain,
	}, store.New(0), deployer, logger, opts...)

	logger.Info("simulate start",
		zap.String("pools", cfg.Pools),
		zap.String("ops", cfg.Ops),
		zap.String("journal", cfg.Journal),
		zap.Int("pool_configs", len(poolConfigs)),
		zap.Int("operations", len(ops)),
		zap.Int("workers", cfg.Workers),
		zap.Bool("legacy_curve_fallback", cfg.LegacyCurveFallback),
	)

	ids := createPools(ctx, manager, poolConfigs, logger)

	runner := replay.NewRunner(replay.Config{Workers: cfg.Workers, QueueSize: cfg.QueueSize}, manager, ids, logger)
	summary, err := runner.Run(ctx, ops)
	if err != nil {
		return err
	}

	pools, err := manager.ListPools(ctx)
	if err != nil {
		return err
	}

	if cfg.PGDSN != "" {
		if err := persistPools(ctx, cfg.PGDSN, pools); err != nil {
			return err
		}
		logger.Info("pool snapshots stored", zap.String("pg_dsn", redactDSN(cfg.PGDSN)), zap.Int("pools", len(pools)))
	}

	return printReport(cmd.OutOrStdout(), summary, pools)
}

// createPools registers every config and maps pool names to ids. A rejected
// config is logged and its operations later count as unknown-pool failures.
func createPools(ctx context.Context, manager *liquidity.Manager, configs []model.PoolConfig, logger *zap.Logger) map[string]uuid.UUID {
	ids := make(map[string]uuid.UUID, len(configs))
	for _, poolCfg := range configs {
		id, err := manager.CreatePool(ctx, poolCfg)
		if err != nil {
			logger.Warn("pool rejected", zap.String("pool", poolCfg.Name), zap.Error(err))
			continue
		}
		ids[poolCfg.Name] = id
	}
	return ids
}

func persistPools(ctx context.Context, dsn string, pools []model.Pool) error {
	pg, err := postgres.NewStore(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()
	if err := pg.EnsureSchema(ctx); err != nil {
		return err
	}
	if err := pg.UpsertPools(ctx, pools); err != nil {
		return fmt.Errorf("upsert pools: %w", err)
	}
	return nil
}

type report struct {
	Summary replay.Summary `json:"summary"`
	Pools   []model.Pool   `json:"pools"`
}

func printReport(w io.Writer, summary replay.Summary, pools []model.Pool) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report{Summary: summary, Pools: pools})
}
