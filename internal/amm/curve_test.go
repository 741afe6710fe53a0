package amm

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
	"pgregory.net/rapid"

	"crossLiquidity/internal/model"
)

func TestConstantProductScenario(t *testing.T) {
	out, err := ConstantProduct(1_000_000, 1_000_000, 10_000)
	if err != nil {
		t.Fatalf("constant product: %v", err)
	}
	if out != 9_901 {
		t.Fatalf("output mismatch: %d", out)
	}
}

func TestConstantProductEmptyReserves(t *testing.T) {
	if _, err := ConstantProduct(0, 1_000, 10); !errors.Is(err, ErrEmptyReserves) {
		t.Fatalf("expected ErrEmptyReserves, got %v", err)
	}
	if _, err := LegacyParity(1_000, 0, 10); !errors.Is(err, ErrEmptyReserves) {
		t.Fatalf("expected ErrEmptyReserves, got %v", err)
	}
}

func TestCurveFor(t *testing.T) {
	if _, err := CurveFor(model.ConstantProduct, false); err != nil {
		t.Fatalf("constant product curve: %v", err)
	}
	for _, poolType := range []model.PoolType{
		model.ConstantSum, model.StableSwap, model.WeightedPool,
		model.ConcentratedLiquidity, model.OrderBook, model.Hybrid,
	} {
		if _, err := CurveFor(poolType, false); !errors.Is(err, ErrUnsupportedCurve) {
			t.Fatalf("%s: expected ErrUnsupportedCurve, got %v", poolType, err)
		}
		curve, err := CurveFor(poolType, true)
		if err != nil {
			t.Fatalf("%s with fallback: %v", poolType, err)
		}
		out, err := curve(1_000_000, 1_000_000, 10_000)
		if err != nil {
			t.Fatalf("%s fallback output: %v", poolType, err)
		}
		if out != 9_900 {
			t.Fatalf("%s fallback output mismatch: %d", poolType, out)
		}
	}
}

// The post-trade product before fee accrual never exceeds k and loses less
// than one unit of the output reserve to flooring.
func TestConstantProductBounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		in := rapid.Uint64Range(1, 1<<40).Draw(t, "in")
		out := rapid.Uint64Range(1, 1<<40).Draw(t, "out")
		amountIn := rapid.Uint64Range(0, 1<<40).Draw(t, "amountIn")

		got, err := ConstantProduct(in, out, amountIn)
		if err != nil {
			t.Fatalf("constant product: %v", err)
		}
		if got > out {
			t.Fatalf("output %d exceeds reserve %d", got, out)
		}

		k := new(uint256.Int).Mul(uint256.NewInt(in), uint256.NewInt(out))
		newIn := uint256.NewInt(in + amountIn)
		after := new(uint256.Int).Mul(newIn, uint256.NewInt(out-got))
		if after.Gt(k) {
			t.Fatalf("product grew: %s > %s", after, k)
		}
		lower := new(uint256.Int).Add(after, newIn)
		if !lower.Gt(k) {
			t.Fatalf("product lost a full unit: %s + %s <= %s", after, newIn, k)
		}

		legacy, err := LegacyParity(in, out, amountIn)
		if err != nil {
			t.Fatalf("legacy parity: %v", err)
		}
		if got < legacy || got-legacy > 1 {
			t.Fatalf("curves diverge: %d vs %d", got, legacy)
		}
	})
}
