package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v4"
	"golang.org/x/sync/semaphore"

	"crossLiquidity/internal/model"
)

// DefaultMaxReaders bounds concurrent readers of one pool.
const DefaultMaxReaders = 64

var (
	ErrPoolNotFound = errors.New("pool not found")
	ErrPoolExists   = errors.New("pool already exists")
)

// Store holds pools as independently lockable entries. Each entry is guarded by
// a weighted semaphore: readers take one unit, writers take all of them.
type Store struct {
	entries    *xsync.Map[uuid.UUID, *entry]
	maxReaders int64
}

type entry struct {
	sem  *semaphore.Weighted
	pool *model.Pool
}

func New(maxReaders int64) *Store {
	if maxReaders <= 0 {
		maxReaders = DefaultMaxReaders
	}
	return &Store{
		entries:    xsync.NewMap[uuid.UUID, *entry](),
		maxReaders: maxReaders,
	}
}

// Insert registers a copy of pool under its ID.
func (s *Store) Insert(pool *model.Pool) error {
	return s.InsertThen(pool, nil)
}

// InsertThen is Insert with committed run while the new pool is still locked,
// so no other caller can observe or mutate it before committed returns.
func (s *Store) InsertThen(pool *model.Pool, committed func()) error {
	if pool == nil {
		return fmt.Errorf("pool is nil")
	}
	e := &entry{sem: semaphore.NewWeighted(s.maxReaders), pool: pool.Clone()}
	e.sem.TryAcquire(s.maxReaders)
	defer e.sem.Release(s.maxReaders)

	if _, loaded := s.entries.LoadOrStore(pool.ID, e); loaded {
		return fmt.Errorf("%w: %s", ErrPoolExists, pool.ID)
	}
	if committed != nil {
		committed()
	}
	return nil
}

// View runs fn with shared access to the pool. fn must not modify it.
func (s *Store) View(ctx context.Context, id uuid.UUID, fn func(*model.Pool) error) error {
	e, err := s.acquire(ctx, id, 1)
	if err != nil {
		return err
	}
	defer e.sem.Release(1)
	return fn(e.pool)
}

// Update runs fn with exclusive access to a draft copy of the pool. The draft
// replaces the stored pool only when fn returns nil.
func (s *Store) Update(ctx context.Context, id uuid.UUID, fn func(*model.Pool) error) error {
	return s.UpdateThen(ctx, id, fn, nil)
}

// UpdateThen is Update with committed run after the draft replaces the stored
// pool and before the pool lock is released. Side effects made in committed
// therefore happen in the same order as the commits of that pool.
func (s *Store) UpdateThen(ctx context.Context, id uuid.UUID, fn func(*model.Pool) error, committed func()) error {
	e, err := s.acquire(ctx, id, s.maxReaders)
	if err != nil {
		return err
	}
	defer e.sem.Release(s.maxReaders)

	draft := e.pool.Clone()
	if err := fn(draft); err != nil {
		return err
	}
	e.pool = draft
	if committed != nil {
		committed()
	}
	return nil
}

// Get returns a copy of the pool.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (model.Pool, error) {
	var out model.Pool
	err := s.View(ctx, id, func(pool *model.Pool) error {
		out = *pool.Clone()
		return nil
	})
	return out, err
}

// List returns copies of all pools ordered by creation time.
func (s *Store) List(ctx context.Context) ([]model.Pool, error) {
	ids := make([]uuid.UUID, 0, s.entries.Size())
	s.entries.Range(func(id uuid.UUID, _ *entry) bool {
		ids = append(ids, id)
		return true
	})

	pools := make([]model.Pool, 0, len(ids))
	for _, id := range ids {
		pool, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		pools = append(pools, pool)
	}
	sort.Slice(pools, func(i, j int) bool {
		if pools[i].CreatedAt.Equal(pools[j].CreatedAt) {
			return pools[i].ID.String() < pools[j].ID.String()
		}
		return pools[i].CreatedAt.Before(pools[j].CreatedAt)
	})
	return pools, nil
}

// Len returns the number of pools.
func (s *Store) Len() int {
	return s.entries.Size()
}

func (s *Store) acquire(ctx context.Context, id uuid.UUID, weight int64) (*entry, error) {
	e, ok := s.entries.Load(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPoolNotFound, id)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := e.sem.Acquire(ctx, weight); err != nil {
		return nil, err
	}
	return e, nil
}
