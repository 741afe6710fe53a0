package factory

import (
	"fmt"

	"github.com/shopspring/decimal"

	"crossLiquidity/internal/model"
)

// CostModel estimates deployment gas as (base + perAsset*assets) * complexity.
type CostModel struct {
	BaseGas     uint64
	PerAssetGas uint64
	Complexity  map[model.PoolType]float64
}

func DefaultCostModel() CostModel {
	return CostModel{
		BaseGas:     300_000,
		PerAssetGas: 100_000,
		Complexity: map[model.PoolType]float64{
			model.ConstantProduct:       1.0,
			model.ConstantSum:           1.0,
			model.WeightedPool:          1.2,
			model.StableSwap:            1.4,
			model.ConcentratedLiquidity: 1.8,
			model.OrderBook:             2.0,
			model.Hybrid:                2.2,
		},
	}
}

// Estimate returns the gas estimate for a pool with the given asset count.
func (m CostModel) Estimate(assets int, poolType model.PoolType) (uint64, error) {
	if assets < 0 {
		return 0, fmt.Errorf("negative asset count")
	}
	multiplier, ok := m.Complexity[poolType]
	if !ok || multiplier <= 0 {
		multiplier = 1
	}
	linear := decimal.NewFromInt(int64(assets)).
		Mul(decimal.NewFromInt(int64(m.PerAssetGas))).
		Add(decimal.NewFromInt(int64(m.BaseGas)))
	gas := linear.Mul(decimal.NewFromFloat(multiplier)).Ceil().BigInt()
	if !gas.IsUint64() {
		return 0, fmt.Errorf("gas estimate overflows: %s", gas)
	}
	return gas.Uint64(), nil
}
