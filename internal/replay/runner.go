package replay

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/alitto/pond/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"crossLiquidity/internal/model"
)

// Manager is the subset of pool operations a replay drives.
type Manager interface {
	AddLiquidity(ctx context.Context, poolID uuid.UUID, providerID string, amounts map[string]uint64) (model.AddResult, error)
	RemoveLiquidity(ctx context.Context, poolID uuid.UUID, providerID string, sharePercentage float64) (model.RemoveResult, error)
	ExecuteSwap(ctx context.Context, poolID uuid.UUID, inputAsset, outputAsset string, amountIn, minimumOutput uint64) (model.SwapResult, error)
	SetPoolStatus(ctx context.Context, poolID uuid.UUID, status model.PoolStatus) error
}

// Config sizes the worker pool.
type Config struct {
	Workers   int
	QueueSize int
}

// Summary counts replayed operations.
type Summary struct {
	Pools     int
	Total     int
	Succeeded int
	Failed    int
	Unknown   int
}

// Runner replays operations against a Manager. Each pool's operations run in
// file order inside one task; distinct pools run in parallel.
type Runner struct {
	cfg     Config
	manager Manager
	pools   map[string]uuid.UUID
	logger  *zap.Logger
}

func NewRunner(cfg Config, manager Manager, pools map[string]uuid.UUID, logger *zap.Logger) *Runner {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{cfg: cfg, manager: manager, pools: pools, logger: logger}
}

// Run replays ops and reports how many succeeded. Operation failures are
// counted, not returned; Run fails only when ctx is cancelled.
func (r *Runner) Run(ctx context.Context, ops []Op) (Summary, error) {
	summary := Summary{Total: len(ops)}

	queues := make(map[uuid.UUID][]Op)
	order := make([]uuid.UUID, 0)
	for _, op := range ops {
		id, ok := r.pools[op.Pool]
		if !ok {
			summary.Unknown++
			r.logger.Warn("op references unknown pool", zap.Int("line", op.Line), zap.String("pool", op.Pool))
			continue
		}
		if _, seen := queues[id]; !seen {
			order = append(order, id)
		}
		queues[id] = append(queues[id], op)
	}
	summary.Pools = len(order)

	var succeeded, failed atomic.Int64

	pool := pond.NewPool(r.cfg.Workers, pond.WithQueueSize(r.cfg.QueueSize))
	defer pool.StopAndWait()

	group := pool.NewGroupContext(ctx)
	groupCtx := group.Context()
	for _, id := range order {
		id, queue := id, queues[id]
		group.Submit(func() {
			for _, op := range queue {
				if groupCtx.Err() != nil {
					return
				}
				if err := r.apply(groupCtx, id, op); err != nil {
					failed.Add(1)
					r.logger.Warn("op failed",
						zap.Int("line", op.Line),
						zap.String("op", op.Kind),
						zap.String("pool", op.Pool),
						zap.Error(err),
					)
					continue
				}
				succeeded.Add(1)
			}
		})
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, pond.ErrGroupStopped) {
		return summary, err
	}
	summary.Succeeded = int(succeeded.Load())
	summary.Failed = int(failed.Load()) + summary.Unknown
	if err := ctx.Err(); err != nil {
		return summary, err
	}

	r.logger.Info("replay complete",
		zap.Int("pools", summary.Pools),
		zap.Int("total", summary.Total),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

func (r *Runner) apply(ctx context.Context, poolID uuid.UUID, op Op) error {
	switch op.Kind {
	case OpAdd:
		_, err := r.manager.AddLiquidity(ctx, poolID, op.Provider, op.Amounts)
		return err
	case OpRemove:
		_, err := r.manager.RemoveLiquidity(ctx, poolID, op.Provider, op.Share)
		return err
	case OpSwap:
		_, err := r.manager.ExecuteSwap(ctx, poolID, op.Input, op.Output, op.Amount, op.MinOutput)
		return err
	case OpStatus:
		return r.manager.SetPoolStatus(ctx, poolID, *op.Status)
	default:
		return fmt.Errorf("unknown op %q", op.Kind)
	}
}
