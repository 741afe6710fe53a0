package amm

import (
	"math"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Decimal converts a raw amount without loss.
func Decimal(amount uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), 0)
}

// Sum adds amounts, failing on uint64 overflow.
func Sum(values ...uint64) (uint64, error) {
	total := new(uint256.Int)
	for _, v := range values {
		total.Add(total, uint256.NewInt(v))
	}
	if !total.IsUint64() {
		return 0, ErrOverflow
	}
	return total.Uint64(), nil
}

// SaturatingAdd returns a+b, or math.MaxUint64 on overflow.
func SaturatingAdd(a, b uint64) uint64 {
	if sum, err := Sum(a, b); err == nil {
		return sum
	}
	return math.MaxUint64
}

// FeeAmount is floor(amount * fraction).
func FeeAmount(amount uint64, fraction float64) (uint64, error) {
	if !validFraction(fraction) {
		return 0, ErrInvalidFraction
	}
	fee := Decimal(amount).Mul(decimal.NewFromFloat(fraction)).Floor()
	return toUint64(fee)
}

// ShareOf is the percentage a deposit worth added receives against an existing
// pool worth total. An empty pool grants exactly 100.
func ShareOf(added, total decimal.Decimal) float64 {
	if total.IsZero() {
		return 100
	}
	return added.Div(total.Add(added)).Mul(hundred).InexactFloat64()
}

// Withdrawal is floor(reserve * share / 100) for share in [0,100].
func Withdrawal(reserve uint64, share float64) (uint64, error) {
	if !validFraction(share) || share > 100 {
		return 0, ErrInvalidFraction
	}
	amount := Decimal(reserve).Mul(decimal.NewFromFloat(share)).Shift(-2).Floor()
	return toUint64(amount)
}

// PriceImpact is min(100, amountIn / sum(reserves) * 100), or 100 for an empty pool.
func PriceImpact(amountIn uint64, reserves []uint64) float64 {
	depth := decimal.Zero
	for _, r := range reserves {
		depth = depth.Add(Decimal(r))
	}
	if depth.IsZero() {
		return 100
	}
	impact := Decimal(amountIn).Div(depth).Mul(hundred)
	if impact.GreaterThan(hundred) {
		return 100
	}
	return impact.InexactFloat64()
}

// IncrementalMean folds sample into a running integer mean; count includes sample.
func IncrementalMean(mean, count, sample uint64) uint64 {
	if count == 0 {
		return 0
	}
	acc := new(uint256.Int).Mul(uint256.NewInt(mean), uint256.NewInt(count-1))
	acc.Add(acc, uint256.NewInt(sample))
	return acc.Div(acc, uint256.NewInt(count)).Uint64()
}

func validFraction(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f >= 0
}

func toUint64(d decimal.Decimal) (uint64, error) {
	b := d.BigInt()
	if !b.IsUint64() {
		return 0, ErrOverflow
	}
	return b.Uint64(), nil
}
