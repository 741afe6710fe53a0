package liquidity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"crossLiquidity/internal/amm"
	"crossLiquidity/internal/model"
)

// ExecuteSwap trades amountIn of inputAsset for outputAsset. Trading and
// protocol fees stay in the input reserve.
func (m *Manager) ExecuteSwap(ctx context.Context, poolID uuid.UUID, inputAsset, outputAsset string, amountIn, minimumOutput uint64) (model.SwapResult, error) {
	var (
		result model.SwapResult
		event  model.EventRecord
	)
	err := m.update(ctx, poolID, &event, func(pool *model.Pool) error {
		if err := requireActive(pool); err != nil {
			return err
		}
		if amountIn == 0 {
			return &ValidationError{Rule: "zero-amount", Detail: "swap input is zero"}
		}
		if inputAsset == outputAsset {
			return &ValidationError{Rule: "same-asset", Detail: fmt.Sprintf("cannot swap %s for itself", inputAsset)}
		}
		in := pool.AssetIndex(inputAsset)
		if in < 0 {
			return &NotFoundError{Kind: "asset", ID: inputAsset}
		}
		out := pool.AssetIndex(outputAsset)
		if out < 0 {
			return &NotFoundError{Kind: "asset", ID: outputAsset}
		}

		curve, err := amm.CurveFor(pool.Type, m.cfg.LegacyCurveFallback)
		if err != nil {
			return &UnsupportedPoolTypeError{Type: pool.Type}
		}
		output, err := curve(pool.Assets[in].Reserve, pool.Assets[out].Reserve, amountIn)
		if err != nil {
			if errors.Is(err, amm.ErrEmptyReserves) {
				return &ValidationError{Rule: "empty-reserves", Detail: fmt.Sprintf("%s/%s reserves are empty", inputAsset, outputAsset)}
			}
			return err
		}
		if output < minimumOutput {
			return &SlippageExceededError{Output: output, Minimum: minimumOutput}
		}

		tradingFee, err := amm.FeeAmount(amountIn, pool.Fees.Trading)
		if err != nil {
			return fmt.Errorf("trading fee: %w", err)
		}
		protocolFee, err := amm.FeeAmount(amountIn, pool.Fees.Protocol)
		if err != nil {
			return fmt.Errorf("protocol fee: %w", err)
		}
		fees, err := amm.Sum(tradingFee, protocolFee)
		if err != nil || fees > amountIn {
			return fmt.Errorf("fees %d exceed input %d", fees, amountIn)
		}

		newIn, err := amm.Sum(pool.Assets[in].Reserve, amountIn-fees)
		if err != nil {
			return fmt.Errorf("reserve of %s: %w", inputAsset, err)
		}
		pool.Assets[in].Reserve = newIn
		pool.Assets[out].Reserve -= output
		tvl, err := amm.Sum(pool.Reserves()...)
		if err != nil {
			return fmt.Errorf("total value locked: %w", err)
		}
		pool.TVL = tvl

		now := m.now().UTC()
		metrics := &pool.Metrics
		metrics.TradeCount++
		metrics.Volume24h = amm.SaturatingAdd(metrics.Volume24h, amountIn)
		metrics.FeesGenerated24h = amm.SaturatingAdd(metrics.FeesGenerated24h, fees)
		metrics.AverageTradeSize = amm.IncrementalMean(metrics.AverageTradeSize, metrics.TradeCount, amountIn)
		metrics.LastTradeAt = now
		pool.UpdatedAt = now

		result = model.SwapResult{
			PoolID:       pool.ID,
			InputAsset:   inputAsset,
			OutputAsset:  outputAsset,
			InputAmount:  amountIn,
			OutputAmount: output,
			FeesPaid:     fees,
			PriceImpact:  amm.PriceImpact(amountIn, pool.Reserves()),
			ExecutedAt:   now,
		}
		event = newEvent(pool, model.EventSwap, now)
		event.InputAsset = inputAsset
		event.OutputAsset = outputAsset
		event.InputAmount = amountIn
		event.OutputAmount = output
		event.Fees = fees
		return nil
	})
	if err != nil {
		return model.SwapResult{}, err
	}

	m.logger.Debug("swap executed",
		zap.String("pool_id", poolID.String()),
		zap.String("in", inputAsset),
		zap.String("out", outputAsset),
		zap.Uint64("amount_in", amountIn),
		zap.Uint64("amount_out", result.OutputAmount),
		zap.Uint64("fees", result.FeesPaid),
		zap.Float64("price_impact", result.PriceImpact),
	)
	return result, nil
}
