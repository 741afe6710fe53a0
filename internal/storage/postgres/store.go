package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"crossLiquidity/internal/model"
)

//go:embed schema.sql
var schema string

// Store provides Postgres persistence for pool snapshots, window metrics, and
// aggregation progress.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the tables this store writes to when they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// UpsertPools inserts or updates pool snapshots keyed by pool id.
func (s *Store) UpsertPools(ctx context.Context, pools []model.Pool) error {
	if len(pools) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, pool := range pools {
		row, err := snapshotOf(pool)
		if err != nil {
			return fmt.Errorf("pool %s: %w", pool.ID, err)
		}
		batch.Queue(`
			INSERT INTO pools (
				pool_id, name, pool_type, status, tvl, assets, fees, metrics, provider_count,
				deployment_address, deployment_chain, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			ON CONFLICT (pool_id)
			DO UPDATE SET
				name = EXCLUDED.name,
				status = EXCLUDED.status,
				tvl = EXCLUDED.tvl,
				assets = EXCLUDED.assets,
				fees = EXCLUDED.fees,
				metrics = EXCLUDED.metrics,
				provider_count = EXCLUDED.provider_count,
				updated_at = EXCLUDED.updated_at
		`,
			row.id,
			row.name,
			row.poolType,
			row.status,
			row.tvl,
			row.assets,
			row.fees,
			row.metrics,
			row.providers,
			row.address,
			row.chainID,
			row.createdAt,
			row.updatedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range pools {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// UpsertWindowMetrics inserts or updates window metrics.
func (s *Store) UpsertWindowMetrics(ctx context.Context, metrics []model.PoolWindowMetrics) error {
	if len(metrics) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, m := range metrics {
		batch.Queue(`
			INSERT INTO pool_window_metrics (
				pool_id, pool_name, window_size_seconds, window_start_ts, window_end_ts,
				swap_count, deposit_count, withdraw_count, volume, fees, tvl, fee_rate, apr,
				fee_method, tvl_method, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,now(),now())
			ON CONFLICT (pool_id, window_size_seconds, window_start_ts)
			DO UPDATE SET
				pool_name = EXCLUDED.pool_name,
				window_end_ts = EXCLUDED.window_end_ts,
				swap_count = EXCLUDED.swap_count,
				deposit_count = EXCLUDED.deposit_count,
				withdraw_count = EXCLUDED.withdraw_count,
				volume = EXCLUDED.volume,
				fees = EXCLUDED.fees,
				tvl = EXCLUDED.tvl,
				fee_rate = EXCLUDED.fee_rate,
				apr = EXCLUDED.apr,
				fee_method = EXCLUDED.fee_method,
				tvl_method = EXCLUDED.tvl_method,
				updated_at = now()
		`,
			m.PoolID,
			m.PoolName,
			m.WindowSizeSecs,
			m.WindowStart,
			m.WindowEnd,
			int64(m.SwapCount),
			int64(m.DepositCount),
			int64(m.WithdrawCount),
			m.Volume,
			m.Fees,
			m.TVL,
			m.FeeRate,
			m.APR,
			m.FeeMethod,
			m.TVLMethod,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range metrics {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadState returns last_processed_ts for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var ts int64
	row := s.pool.QueryRow(ctx, `SELECT last_processed_ts FROM aggregator_state WHERE name=$1`, name)
	if err := row.Scan(&ts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	if ts < 0 {
		return 0, false, fmt.Errorf("state %s holds negative timestamp %d", name, ts)
	}
	return uint64(ts), true, nil
}

// SaveState upserts last_processed_ts for a name.
func (s *Store) SaveState(ctx context.Context, name string, ts uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO aggregator_state (name, last_processed_ts, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_processed_ts = EXCLUDED.last_processed_ts, updated_at = now()
	`, name, int64(ts))
	return err
}

type poolSnapshot struct {
	id        string
	name      string
	poolType  string
	status    string
	tvl       string
	assets    []byte
	fees      []byte
	metrics   []byte
	providers int32
	address   string
	chainID   int64
	createdAt time.Time
	updatedAt time.Time
}

// snapshotOf flattens a pool into column values; nested records become JSON.
func snapshotOf(pool model.Pool) (poolSnapshot, error) {
	assets, err := json.Marshal(pool.Assets)
	if err != nil {
		return poolSnapshot{}, fmt.Errorf("encode assets: %w", err)
	}
	fees, err := json.Marshal(pool.Fees)
	if err != nil {
		return poolSnapshot{}, fmt.Errorf("encode fees: %w", err)
	}
	metrics, err := json.Marshal(pool.Metrics)
	if err != nil {
		return poolSnapshot{}, fmt.Errorf("encode metrics: %w", err)
	}
	return poolSnapshot{
		id:        pool.ID.String(),
		name:      pool.Name,
		poolType:  pool.Type.String(),
		status:    pool.Status.String(),
		tvl:       strconv.FormatUint(pool.TVL, 10),
		assets:    assets,
		fees:      fees,
		metrics:   metrics,
		providers: int32(len(pool.Providers)),
		address:   pool.Deployment.Address,
		chainID:   int64(pool.Deployment.ChainID),
		createdAt: pool.CreatedAt,
		updatedAt: pool.UpdatedAt,
	}, nil
}
