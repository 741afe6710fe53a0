package amm

import (
	"fmt"

	"github.com/holiman/uint256"

	"crossLiquidity/internal/model"
)

// Curve returns the output amount for amountIn traded against a pair of reserves.
type Curve func(inReserve, outReserve, amountIn uint64) (uint64, error)

var curves = map[model.PoolType]Curve{
	model.ConstantProduct: ConstantProduct,
}

// CurveFor returns the pricing function for a pool type. Types without a curve
// of their own fail with ErrUnsupportedCurve unless legacyFallback selects LegacyParity.
func CurveFor(poolType model.PoolType, legacyFallback bool) (Curve, error) {
	if curve, ok := curves[poolType]; ok {
		return curve, nil
	}
	if legacyFallback {
		return LegacyParity, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedCurve, poolType)
}

// ConstantProduct holds k = in*out fixed before fees:
// out - floor(k / (in + amountIn)).
func ConstantProduct(inReserve, outReserve, amountIn uint64) (uint64, error) {
	if inReserve == 0 || outReserve == 0 {
		return 0, ErrEmptyReserves
	}
	k := new(uint256.Int).Mul(uint256.NewInt(inReserve), uint256.NewInt(outReserve))
	newIn := new(uint256.Int).Add(uint256.NewInt(inReserve), uint256.NewInt(amountIn))
	newOut := new(uint256.Int).Div(k, newIn)
	// newIn >= inReserve so newOut <= outReserve
	return outReserve - newOut.Uint64(), nil
}

// LegacyParity is amountIn*out / (in + amountIn), floored.
func LegacyParity(inReserve, outReserve, amountIn uint64) (uint64, error) {
	if inReserve == 0 || outReserve == 0 {
		return 0, ErrEmptyReserves
	}
	num := new(uint256.Int).Mul(uint256.NewInt(amountIn), uint256.NewInt(outReserve))
	den := new(uint256.Int).Add(uint256.NewInt(inReserve), uint256.NewInt(amountIn))
	return new(uint256.Int).Div(num, den).Uint64(), nil
}
