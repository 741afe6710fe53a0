package liquidity

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"crossLiquidity/internal/factory"
	"crossLiquidity/internal/model"
	"crossLiquidity/internal/storage"
	"crossLiquidity/internal/store"
)

const (
	DefaultMaxPoolsPerChain = 100

	minAssets       = 2
	weightTolerance = 1e-3
	feeCap          = 0.10
	feeCapEpsilon   = 1e-12
)

// Config controls Manager behavior.
type Config struct {
	// LegacyCurveFallback prices pool types without a curve of their own with
	// the constant-product parity formula instead of rejecting the swap.
	LegacyCurveFallback bool
	// MaxPoolsPerChain limits pools per supported chain; 0 disables the limit.
	MaxPoolsPerChain int
}

func DefaultConfig() Config {
	return Config{MaxPoolsPerChain: DefaultMaxPoolsPerChain}
}

type Option func(*Manager)

// WithValuator replaces the naive raw-unit valuation used for share pricing.
func WithValuator(v Valuator) Option {
	return func(m *Manager) {
		if v != nil {
			m.valuator = v
		}
	}
}

// WithJournal records every committed mutation to sink.
func WithJournal(sink storage.Storage) Option {
	return func(m *Manager) {
		m.journal = sink
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// Manager creates pools and applies deposits, withdrawals, and swaps to them.
// Every mutation runs under the exclusive lock of its own pool only.
type Manager struct {
	cfg      Config
	pools    *store.Store
	factory  factory.Factory
	valuator Valuator
	journal  storage.Storage
	logger   *zap.Logger
	now      func() time.Time

	createMu sync.Mutex
}

func NewManager(cfg Config, pools *store.Store, deployer factory.Factory, logger *zap.Logger, opts ...Option) *Manager {
	if pools == nil {
		pools = store.New(0)
	}
	if deployer == nil {
		deployer = factory.StaticFactory{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Manager{
		cfg:      cfg,
		pools:    pools,
		factory:  deployer,
		valuator: NaiveValuator{},
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreatePool validates cfg, deploys it through the factory, and registers an
// Active pool with empty reserves.
func (m *Manager) CreatePool(ctx context.Context, cfg model.PoolConfig) (uuid.UUID, error) {
	if err := ValidatePoolConfig(cfg); err != nil {
		return uuid.Nil, err
	}

	m.createMu.Lock()
	defer m.createMu.Unlock()

	if err := m.checkPoolLimit(ctx, cfg); err != nil {
		return uuid.Nil, err
	}

	deployment, err := m.factory.Deploy(ctx, cfg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("deploy pool %q: %w", cfg.Name, err)
	}

	now := m.now().UTC()
	pool := &model.Pool{
		ID:              uuid.New(),
		Name:            cfg.Name,
		Type:            cfg.Type,
		Assets:          make([]model.Asset, len(cfg.Assets)),
		Providers:       make(map[string]*model.Provider),
		Fees:            cfg.Fees,
		Params:          cfg.Params,
		SupportedChains: append([]string(nil), cfg.SupportedChains...),
		Status:          model.StatusActive,
		Deployment:      deployment,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for i, asset := range cfg.Assets {
		asset.Reserve = 0
		pool.Assets[i] = asset
	}

	created := newEvent(pool, model.EventCreate, now)
	if err := m.pools.InsertThen(pool, func() { m.record(created) }); err != nil {
		return uuid.Nil, err
	}

	m.logger.Info("pool created",
		zap.String("pool_id", pool.ID.String()),
		zap.String("name", pool.Name),
		zap.String("type", pool.Type.String()),
		zap.Int("assets", len(pool.Assets)),
		zap.String("address", deployment.Address),
	)
	return pool.ID, nil
}

// ValidatePoolConfig checks cfg and reports the first violated rule.
func ValidatePoolConfig(cfg model.PoolConfig) error {
	if len(cfg.Assets) < minAssets {
		return &ValidationError{Rule: "min-assets", Detail: fmt.Sprintf("pool needs at least %d assets, got %d", minAssets, len(cfg.Assets))}
	}

	if cfg.Type == model.WeightedPool {
		var sum float64
		for _, asset := range cfg.Assets {
			sum += asset.Weight
		}
		if math.IsNaN(sum) || math.Abs(sum-1) > weightTolerance {
			return &ValidationError{Rule: "weight-sum", Detail: fmt.Sprintf("weights sum to %v", sum)}
		}
	}

	if total := cfg.Fees.CappedTotal(); total > feeCap+feeCapEpsilon {
		return &ValidationError{Rule: "fee-cap", Detail: fmt.Sprintf("trading+protocol+bridge fees %v exceed %v", total, feeCap)}
	}

	fees := []struct {
		name  string
		value float64
	}{
		{"trading", cfg.Fees.Trading},
		{"protocol", cfg.Fees.Protocol},
		{"bridge", cfg.Fees.Bridge},
		{"withdrawal", cfg.Fees.Withdrawal},
		{"performance", cfg.Fees.Performance},
	}
	for _, fee := range fees {
		if math.IsNaN(fee.value) || fee.value < 0 || fee.value > 1 {
			return &ValidationError{Rule: "fee-range", Detail: fmt.Sprintf("%s fee %v outside [0,1]", fee.name, fee.value)}
		}
	}

	seen := make(map[string]struct{}, len(cfg.Assets))
	for _, asset := range cfg.Assets {
		if asset.ID == "" {
			return &ValidationError{Rule: "asset-id", Detail: "asset id is empty"}
		}
		if _, dup := seen[asset.ID]; dup {
			return &ValidationError{Rule: "asset-id", Detail: fmt.Sprintf("duplicate asset %s", asset.ID)}
		}
		seen[asset.ID] = struct{}{}

		if asset.TokenAddress != "" && !common.IsHexAddress(asset.TokenAddress) {
			return &ValidationError{Rule: "token-address", Detail: fmt.Sprintf("asset %s token address %q", asset.ID, asset.TokenAddress)}
		}
	}
	return nil
}

func (m *Manager) checkPoolLimit(ctx context.Context, cfg model.PoolConfig) error {
	if m.cfg.MaxPoolsPerChain <= 0 {
		return nil
	}
	pools, err := m.pools.List(ctx)
	if err != nil {
		return err
	}

	counts := make(map[string]int)
	for _, pool := range pools {
		for _, chainName := range chainsOf(pool.SupportedChains, pool.Assets) {
			counts[chainName]++
		}
	}
	for _, chainName := range chainsOf(cfg.SupportedChains, cfg.Assets) {
		if counts[chainName] >= m.cfg.MaxPoolsPerChain {
			return &ValidationError{Rule: "pool-limit", Detail: fmt.Sprintf("chain %s already has %d pools", chainName, counts[chainName])}
		}
	}
	return nil
}

func chainsOf(supported []string, assets []model.Asset) []string {
	if len(supported) > 0 {
		return uniqueStrings(supported)
	}
	chains := make([]string, 0, len(assets))
	for _, asset := range assets {
		if asset.Chain != "" {
			chains = append(chains, asset.Chain)
		}
	}
	return uniqueStrings(chains)
}

func uniqueStrings(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

// GetPoolInfo returns a copy of the pool, or false when it does not exist.
func (m *Manager) GetPoolInfo(ctx context.Context, poolID uuid.UUID) (model.Pool, bool, error) {
	pool, err := m.pools.Get(ctx, poolID)
	if err != nil {
		if errors.Is(err, store.ErrPoolNotFound) {
			return model.Pool{}, false, nil
		}
		return model.Pool{}, false, err
	}
	return pool, true, nil
}

// ListPools returns copies of all pools ordered by creation time.
func (m *Manager) ListPools(ctx context.Context) ([]model.Pool, error) {
	return m.pools.List(ctx)
}

// SetPoolStatus moves a pool to status. Any status may follow any other.
func (m *Manager) SetPoolStatus(ctx context.Context, poolID uuid.UUID, status model.PoolStatus) error {
	if _, err := model.ParsePoolStatus(status.String()); err != nil {
		return &ValidationError{Rule: "status", Detail: err.Error()}
	}

	var event model.EventRecord
	err := m.update(ctx, poolID, &event, func(pool *model.Pool) error {
		now := m.now().UTC()
		pool.Status = status
		pool.UpdatedAt = now
		event = newEvent(pool, model.EventStatus, now)
		return nil
	})
	if err != nil {
		return err
	}

	m.logger.Info("pool status changed", zap.String("pool_id", poolID.String()), zap.String("status", status.String()))
	return nil
}

// update commits fn to the pool and journals *event, as filled in by fn, before
// the pool lock is released, so the journal keeps each pool's commit order.
func (m *Manager) update(ctx context.Context, poolID uuid.UUID, event *model.EventRecord, fn func(*model.Pool) error) error {
	err := m.pools.UpdateThen(ctx, poolID, fn, func() { m.record(*event) })
	if errors.Is(err, store.ErrPoolNotFound) {
		return &NotFoundError{Kind: "pool", ID: poolID.String()}
	}
	return err
}

func (m *Manager) record(event model.EventRecord) {
	if m.journal == nil {
		return
	}
	if err := m.journal.PutEventBatch([]model.EventRecord{event}); err != nil {
		m.logger.Warn("journal write failed",
			zap.String("pool_id", event.PoolID),
			zap.String("kind", event.Kind),
			zap.Error(err),
		)
	}
}

func requireActive(pool *model.Pool) error {
	if pool.Status != model.StatusActive {
		return &StateError{PoolID: pool.ID, Status: pool.Status}
	}
	return nil
}

func newEvent(pool *model.Pool, kind string, at time.Time) model.EventRecord {
	return model.EventRecord{
		PoolID:    pool.ID.String(),
		PoolName:  pool.Name,
		Kind:      kind,
		Timestamp: uint64(at.Unix()),
		TVL:       pool.TVL,
		Status:    pool.Status.String(),
	}
}
