package liquidity

import (
	"fmt"

	"github.com/shopspring/decimal"

	"crossLiquidity/internal/amm"
	"crossLiquidity/internal/model"
)

// Valuator converts an asset amount into a common unit for share pricing.
type Valuator interface {
	Valuate(asset model.Asset, amount uint64) (decimal.Decimal, error)
}

// NaiveValuator values every asset unit at 1, ignoring price and decimals.
type NaiveValuator struct{}

func (NaiveValuator) Valuate(_ model.Asset, amount uint64) (decimal.Decimal, error) {
	return amm.Decimal(amount), nil
}

// PriceTableValuator scales amounts by asset decimals and a fixed per-asset price.
type PriceTableValuator struct {
	Prices map[string]decimal.Decimal
}

func (v PriceTableValuator) Valuate(asset model.Asset, amount uint64) (decimal.Decimal, error) {
	price, ok := v.Prices[asset.ID]
	if !ok {
		return decimal.Zero, fmt.Errorf("no price for asset %s", asset.ID)
	}
	return amm.Decimal(amount).Shift(-int32(asset.Decimals)).Mul(price), nil
}
