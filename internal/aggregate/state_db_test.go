package aggregate

import (
	"context"
	"errors"
	"testing"
)

type memoryStateTable struct {
	rows map[string]uint64
	err  error
}

func (m *memoryStateTable) LoadState(_ context.Context, name string) (uint64, bool, error) {
	if m.err != nil {
		return 0, false, m.err
	}
	ts, ok := m.rows[name]
	return ts, ok, nil
}

func (m *memoryStateTable) SaveState(_ context.Context, name string, ts uint64) error {
	if m.err != nil {
		return m.err
	}
	m.rows[name] = ts
	return nil
}

func TestTableStateStoreKeepsRowsApart(t *testing.T) {
	ctx := context.Background()
	table := &memoryStateTable{rows: map[string]uint64{}}

	fiveMin, err := NewTableStateStore(table, "aggregator:300")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	hourly, err := NewTableStateStore(table, "aggregator:3600")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if _, ok, err := fiveMin.Load(ctx); err != nil || ok {
		t.Fatalf("expected empty state, got ok=%v err=%v", ok, err)
	}
	if err := fiveMin.Save(ctx, 1200); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := hourly.Save(ctx, 3600); err != nil {
		t.Fatalf("save: %v", err)
	}

	if ts, ok, err := fiveMin.Load(ctx); err != nil || !ok || ts != 1200 {
		t.Fatalf("unexpected five minute state: ts=%d ok=%v err=%v", ts, ok, err)
	}
	if ts, ok, err := hourly.Load(ctx); err != nil || !ok || ts != 3600 {
		t.Fatalf("unexpected hourly state: ts=%d ok=%v err=%v", ts, ok, err)
	}
}

func TestTableStateStoreWrapsErrors(t *testing.T) {
	boom := errors.New("boom")
	store, err := NewTableStateStore(&memoryStateTable{err: boom}, "aggregator:60")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, _, err := store.Load(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped load error, got %v", err)
	}
	if err := store.Save(context.Background(), 1); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped save error, got %v", err)
	}
}

func TestNewTableStateStoreValidates(t *testing.T) {
	if _, err := NewTableStateStore(nil, "x"); err == nil {
		t.Fatal("expected error for nil table")
	}
	if _, err := NewTableStateStore(&memoryStateTable{}, ""); err == nil {
		t.Fatal("expected error for empty name")
	}
}
