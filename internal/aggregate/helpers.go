package aggregate

import (
	"time"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"crossLiquidity/internal/amm"
)

const ratioScale = 18

var yearSeconds = decimal.NewFromInt(int64(365 * 24 * time.Hour / time.Second))

func formatAmount(value *uint256.Int) string {
	if value == nil {
		return "0"
	}
	return value.ToBig().String()
}

// computeRate returns fees/tvl with ratioScale decimals, or nil when either is zero.
func computeRate(fees *uint256.Int, tvl uint64) *string {
	if fees == nil || fees.IsZero() || tvl == 0 {
		return nil
	}
	rate := decimal.NewFromBigInt(fees.ToBig(), 0).DivRound(amm.Decimal(tvl), ratioScale)
	text := rate.StringFixed(ratioScale)
	return &text
}

// computeAPR annualizes a per-window fee rate.
func computeAPR(feeRate *string, windowSeconds uint64) *string {
	if feeRate == nil || windowSeconds == 0 {
		return nil
	}
	rate, err := decimal.NewFromString(*feeRate)
	if err != nil {
		return nil
	}
	apr := rate.Mul(yearSeconds).DivRound(amm.Decimal(windowSeconds), ratioScale)
	text := apr.StringFixed(ratioScale)
	return &text
}
