package replay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"

	"crossLiquidity/internal/liquidity"
	"crossLiquidity/internal/model"
)

func pair(name string) model.PoolConfig {
	return model.PoolConfig{
		Name: name,
		Type: model.ConstantProduct,
		Assets: []model.Asset{
			{ID: "A", Chain: "ethereum", Weight: 0.5},
			{ID: "B", Chain: "ethereum", Weight: 0.5},
		},
		Fees: model.FeeStructure{Trading: 0.003, Protocol: 0.001},
	}
}

func setup(t *testing.T, names ...string) (*liquidity.Manager, map[string]uuid.UUID) {
	t.Helper()
	m := liquidity.NewManager(liquidity.DefaultConfig(), nil, nil, nil)
	ids := make(map[string]uuid.UUID, len(names))
	for _, name := range names {
		id, err := m.CreatePool(context.Background(), pair(name))
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		ids[name] = id
	}
	return m, ids
}

func TestDecodeOps(t *testing.T) {
	input := `
# seed
{"op":"add","pool":"p1","provider":"alice","amounts":{"A":1000000,"B":1000000}}

{"op":"swap","pool":"p1","input":"A","output":"B","amount":10000,"min_output":9800}
{"op":"remove","pool":"p1","provider":"alice","share":25.5}
{"op":"status","pool":"p1","status":"paused"}
`
	ops, err := DecodeOps(strings.NewReader(input))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(ops) != 4 {
		t.Fatalf("expected 4 ops, got %d", len(ops))
	}
	if ops[0].Line != 3 || ops[0].Amounts["B"] != 1_000_000 {
		t.Fatalf("add op mismatch: %+v", ops[0])
	}
	if ops[1].Amount != 10_000 || ops[1].MinOutput != 9_800 || ops[1].Input != "A" {
		t.Fatalf("swap op mismatch: %+v", ops[1])
	}
	if ops[2].Share != 25.5 {
		t.Fatalf("remove op mismatch: %+v", ops[2])
	}
	if ops[3].Status == nil || *ops[3].Status != model.StatusPaused {
		t.Fatalf("status op mismatch: %+v", ops[3])
	}
}

func TestDecodeOpsErrors(t *testing.T) {
	cases := map[string]string{
		"bad json":       `{"op":`,
		"unknown op":     `{"op":"mint","pool":"p1"}`,
		"missing pool":   `{"op":"add"}`,
		"missing status": `{"op":"status","pool":"p1"}`,
		"bad status":     `{"op":"status","pool":"p1","status":"frozen"}`,
	}
	for name, input := range cases {
		if _, err := DecodeOps(strings.NewReader(input)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestRunnerReplaysPerPoolInOrder(t *testing.T) {
	m, ids := setup(t, "p1", "p2")
	paused := model.StatusPaused

	ops := []Op{
		{Line: 1, Kind: OpAdd, Pool: "p1", Provider: "alice", Amounts: map[string]uint64{"A": 1_000_000, "B": 1_000_000}},
		{Line: 2, Kind: OpAdd, Pool: "p2", Provider: "bob", Amounts: map[string]uint64{"A": 1_000_000, "B": 1_000_000}},
		{Line: 3, Kind: OpSwap, Pool: "p1", Input: "A", Output: "B", Amount: 10_000, MinOutput: 9_800},
		{Line: 4, Kind: OpSwap, Pool: "p2", Input: "A", Output: "B", Amount: 10_000, MinOutput: 9_950},
		{Line: 5, Kind: OpStatus, Pool: "p2", Status: &paused},
		{Line: 6, Kind: OpAdd, Pool: "p2", Provider: "bob", Amounts: map[string]uint64{"A": 1}},
		{Line: 7, Kind: OpRemove, Pool: "p1", Provider: "alice", Share: 50},
		{Line: 8, Kind: OpSwap, Pool: "ghost", Input: "A", Output: "B", Amount: 1},
	}

	runner := NewRunner(Config{Workers: 4}, m, ids, nil)
	summary, err := runner.Run(context.Background(), ops)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := Summary{Pools: 2, Total: 8, Succeeded: 5, Failed: 3, Unknown: 1}
	if summary != want {
		t.Fatalf("summary %+v, want %+v", summary, want)
	}

	p1, _, _ := m.GetPoolInfo(context.Background(), ids["p1"])
	if p1.Reserves()[0] != 504_980 || p1.Reserves()[1] != 495_050 {
		t.Fatalf("p1 reserves %v", p1.Reserves())
	}
	p2, _, _ := m.GetPoolInfo(context.Background(), ids["p2"])
	if p2.Status != model.StatusPaused || p2.Metrics.TradeCount != 0 {
		t.Fatalf("p2 mismatch: status %s trades %d", p2.Status, p2.Metrics.TradeCount)
	}
}

func TestRunnerManyPools(t *testing.T) {
	names := make([]string, 32)
	for i := range names {
		names[i] = fmt.Sprintf("pool-%02d", i)
	}
	m, ids := setup(t, names...)

	var ops []Op
	for _, name := range names {
		ops = append(ops, Op{Kind: OpAdd, Pool: name, Provider: "lp", Amounts: map[string]uint64{"A": 1_000_000, "B": 1_000_000}})
		for i := 0; i < 10; i++ {
			ops = append(ops, Op{Kind: OpSwap, Pool: name, Input: "A", Output: "B", Amount: 1_000})
		}
	}

	summary, err := NewRunner(Config{Workers: 8, QueueSize: 4}, m, ids, nil).Run(context.Background(), ops)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Succeeded != len(ops) || summary.Failed != 0 {
		t.Fatalf("summary mismatch: %+v", summary)
	}

	var first []uint64
	for _, name := range names {
		pool, _, _ := m.GetPoolInfo(context.Background(), ids[name])
		if first == nil {
			first = pool.Reserves()
			continue
		}
		if got := pool.Reserves(); got[0] != first[0] || got[1] != first[1] {
			t.Fatalf("%s diverged: %v vs %v", name, got, first)
		}
	}
}

func TestRunnerCancelled(t *testing.T) {
	m, ids := setup(t, "p1")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ops := []Op{{Kind: OpAdd, Pool: "p1", Provider: "lp", Amounts: map[string]uint64{"A": 1}}}
	_, err := NewRunner(Config{Workers: 1}, m, ids, nil).Run(ctx, ops)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	pool, _, _ := m.GetPoolInfo(context.Background(), ids["p1"])
	if pool.TVL != 0 {
		t.Fatalf("cancelled replay mutated pool: tvl %d", pool.TVL)
	}
}
