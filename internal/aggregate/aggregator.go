package aggregate

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"crossLiquidity/internal/model"
	"crossLiquidity/internal/storage"
)

const (
	feeMethodJournal = "journal_exact"
	tvlMethodClosing = "journal_closing"
	tvlMethodNone    = "unavailable"
)

// MetricsStore persists finished windows.
type MetricsStore interface {
	UpsertWindowMetrics(ctx context.Context, metrics []model.PoolWindowMetrics) error
}

// Config controls aggregation behavior.
type Config struct {
	WindowSeconds uint64
	BatchSize     int
	RecomputeFrom uint64
	StateStore    StateStore
}

// Stats counts journal lines by outcome.
type Stats struct {
	Total   int
	Windows int
	Skipped int
	Late    int
	Failed  int
}

// Aggregator folds the event journal into per-pool window metrics.
type Aggregator struct {
	cfg          Config
	store        MetricsStore
	logger       *zap.Logger
	accumulators map[string]*Accumulator
}

func NewAggregator(cfg Config, store MetricsStore, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Aggregator{
		cfg:          cfg,
		store:        store,
		logger:       logger,
		accumulators: make(map[string]*Accumulator),
	}
}

// Run aggregates a JSONL event journal. Records at or before the saved
// progress timestamp are skipped, and progress is saved after every flushed
// batch and at the end.
func (a *Aggregator) Run(ctx context.Context, inputPath string) (Stats, error) {
	var stats Stats
	if a.store == nil {
		return stats, fmt.Errorf("store is nil")
	}
	if a.cfg.WindowSeconds == 0 {
		return stats, fmt.Errorf("window seconds must be > 0")
	}
	if a.cfg.BatchSize <= 0 {
		a.cfg.BatchSize = 1000
	}

	startTs, err := a.loadStartTimestamp(ctx)
	if err != nil {
		return stats, err
	}

	file, err := os.Open(inputPath)
	if err != nil {
		return stats, fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	batch := make([]model.PoolWindowMetrics, 0, a.cfg.BatchSize)
	maxTs := startTs

	err = storage.ScanJournal(file, func(_ int, record model.EventRecord, decodeErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Total++

		if decodeErr != nil {
			stats.Failed++
			a.logger.Warn("decode journal record", zap.Error(decodeErr))
			return nil
		}
		if record.PoolID == "" {
			stats.Failed++
			a.logger.Warn("journal record without pool id", zap.String("kind", record.Kind))
			return nil
		}
		if record.Timestamp <= startTs {
			stats.Skipped++
			return nil
		}

		start := windowStart(record.Timestamp, a.cfg.WindowSeconds)
		acc := a.accumulators[record.PoolID]
		switch {
		case acc == nil:
			acc = NewAccumulator(record, start, start+a.cfg.WindowSeconds)
			a.accumulators[record.PoolID] = acc
		case start < acc.WindowStart:
			stats.Late++
			a.logger.Warn("journal record behind open window",
				zap.String("pool_id", record.PoolID),
				zap.Uint64("timestamp", record.Timestamp),
				zap.Uint64("window_start", acc.WindowStart),
			)
			return nil
		case start > acc.WindowStart:
			batch = append(batch, a.flushAccumulator(acc))
			stats.Windows++
			acc = NewAccumulator(record, start, start+a.cfg.WindowSeconds)
			a.accumulators[record.PoolID] = acc
		}

		acc.AddEvent(record)
		if record.Timestamp > maxTs {
			maxTs = record.Timestamp
		}

		if len(batch) < a.cfg.BatchSize {
			return nil
		}
		if err := a.store.UpsertWindowMetrics(ctx, batch); err != nil {
			return err
		}
		batch = batch[:0]
		return a.saveState(ctx, a.resumePoint(startTs))
	})
	if err != nil {
		return stats, err
	}

	// Trailing windows are written but stay open: the journal may still grow
	// into them, so the next run must rebuild them from their first record.
	resume := a.resumePoint(maxTs)
	for _, acc := range a.accumulators {
		batch = append(batch, a.flushAccumulator(acc))
		stats.Windows++
	}
	a.accumulators = make(map[string]*Accumulator)

	if len(batch) > 0 {
		if err := a.store.UpsertWindowMetrics(ctx, batch); err != nil {
			return stats, err
		}
	}

	if err := a.saveState(ctx, resume); err != nil {
		return stats, err
	}

	a.logger.Info("aggregate complete",
		zap.Int("total", stats.Total),
		zap.Int("windows", stats.Windows),
		zap.Int("skipped", stats.Skipped),
		zap.Int("late", stats.Late),
		zap.Int("failed", stats.Failed),
	)

	return stats, nil
}

func (a *Aggregator) loadStartTimestamp(ctx context.Context) (uint64, error) {
	if a.cfg.RecomputeFrom > 0 {
		return a.cfg.RecomputeFrom - 1, nil
	}
	if a.cfg.StateStore == nil {
		return 0, nil
	}
	last, ok, err := a.cfg.StateStore.Load(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return last, nil
}

func (a *Aggregator) saveState(ctx context.Context, ts uint64) error {
	if a.cfg.StateStore == nil {
		return nil
	}
	return a.cfg.StateStore.Save(ctx, ts)
}

// resumePoint is the last timestamp that is safe to skip on the next run: just
// before the earliest window still open, or fallback when none is open.
func (a *Aggregator) resumePoint(fallback uint64) uint64 {
	start, ok := minOpenWindowStart(a.accumulators)
	if !ok {
		return fallback
	}
	if start == 0 {
		return 0
	}
	return start - 1
}

func (a *Aggregator) flushAccumulator(acc *Accumulator) model.PoolWindowMetrics {
	tvlMethod := tvlMethodClosing
	var tvl *string
	if acc.ClosingTVL > 0 {
		val := strconv.FormatUint(acc.ClosingTVL, 10)
		tvl = &val
	} else {
		tvlMethod = tvlMethodNone
	}

	feeRate := computeRate(acc.Fees, acc.ClosingTVL)
	return model.PoolWindowMetrics{
		PoolID:         acc.PoolID,
		PoolName:       acc.PoolName,
		WindowSizeSecs: int64(a.cfg.WindowSeconds),
		WindowStart:    time.Unix(int64(acc.WindowStart), 0).UTC(),
		WindowEnd:      time.Unix(int64(acc.WindowEnd), 0).UTC(),
		SwapCount:      acc.SwapCount,
		DepositCount:   acc.DepositCount,
		WithdrawCount:  acc.WithdrawCount,
		Volume:         formatAmount(acc.Volume),
		Fees:           formatAmount(acc.Fees),
		TVL:            tvl,
		FeeRate:        feeRate,
		APR:            computeAPR(feeRate, a.cfg.WindowSeconds),
		FeeMethod:      feeMethodJournal,
		TVLMethod:      tvlMethod,
	}
}

func windowStart(ts uint64, windowSec uint64) uint64 {
	return ts - (ts % windowSec)
}

func minOpenWindowStart(acc map[string]*Accumulator) (uint64, bool) {
	var (
		min   uint64
		found bool
	)
	for _, entry := range acc {
		if entry == nil {
			continue
		}
		if !found || entry.WindowStart < min {
			min = entry.WindowStart
			found = true
		}
	}
	return min, found
}
