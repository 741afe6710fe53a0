package aggregate

import (
	"context"
	"fmt"
)

// StateTable is a keyed progress table shared by several aggregations.
// *postgres.Store implements it over the aggregator_state table.
type StateTable interface {
	LoadState(ctx context.Context, name string) (uint64, bool, error)
	SaveState(ctx context.Context, name string, ts uint64) error
}

// TableStateStore binds one row of a StateTable to a StateStore.
type TableStateStore struct {
	table StateTable
	name  string
}

func NewTableStateStore(table StateTable, name string) (*TableStateStore, error) {
	if table == nil {
		return nil, fmt.Errorf("state table required")
	}
	if name == "" {
		return nil, fmt.Errorf("state name required")
	}
	return &TableStateStore{table: table, name: name}, nil
}

func (s *TableStateStore) Load(ctx context.Context) (uint64, bool, error) {
	ts, ok, err := s.table.LoadState(ctx, s.name)
	if err != nil {
		return 0, false, fmt.Errorf("load state %q: %w", s.name, err)
	}
	return ts, ok, nil
}

func (s *TableStateStore) Save(ctx context.Context, ts uint64) error {
	if err := s.table.SaveState(ctx, s.name, ts); err != nil {
		return fmt.Errorf("save state %q: %w", s.name, err)
	}
	return nil
}
