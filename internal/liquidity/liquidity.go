package liquidity

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"crossLiquidity/internal/amm"
	"crossLiquidity/internal/model"
)

// Shares below this are treated as fully withdrawn.
const shareEpsilon = 1e-9

// AddLiquidity deposits amounts into an Active pool on behalf of providerID.
// The deposit's share is added to the provider's existing share; other
// providers are not diluted.
func (m *Manager) AddLiquidity(ctx context.Context, poolID uuid.UUID, providerID string, amounts map[string]uint64) (model.AddResult, error) {
	var (
		result model.AddResult
		event  model.EventRecord
	)
	err := m.update(ctx, poolID, &event, func(pool *model.Pool) error {
		if err := requireActive(pool); err != nil {
			return err
		}
		if providerID == "" {
			return &ValidationError{Rule: "provider-id", Detail: "provider id is empty"}
		}

		added := decimal.Zero
		deposited := false
		for assetID, amount := range amounts {
			idx := pool.AssetIndex(assetID)
			if idx < 0 {
				return &NotFoundError{Kind: "asset", ID: assetID}
			}
			if amount == 0 {
				continue
			}
			value, err := m.valuator.Valuate(pool.Assets[idx], amount)
			if err != nil {
				return fmt.Errorf("value deposit of %s: %w", assetID, err)
			}
			added = added.Add(value)
			deposited = true
		}
		if !deposited {
			return &ValidationError{Rule: "zero-amount", Detail: "deposit contains no positive amount"}
		}

		total := decimal.Zero
		for _, asset := range pool.Assets {
			value, err := m.valuator.Valuate(asset, asset.Reserve)
			if err != nil {
				return fmt.Errorf("value reserve of %s: %w", asset.ID, err)
			}
			total = total.Add(value)
		}
		share := amm.ShareOf(added, total)

		for assetID, amount := range amounts {
			idx := pool.AssetIndex(assetID)
			reserve, err := amm.Sum(pool.Assets[idx].Reserve, amount)
			if err != nil {
				return fmt.Errorf("reserve of %s: %w", assetID, err)
			}
			pool.Assets[idx].Reserve = reserve
		}
		tvl, err := amm.Sum(pool.Reserves()...)
		if err != nil {
			return fmt.Errorf("total value locked: %w", err)
		}
		if limit := pool.Params.MaximumLiquidity; limit > 0 && tvl > limit {
			return &ValidationError{Rule: "max-liquidity", Detail: fmt.Sprintf("deposit would lift liquidity to %d above %d", tvl, limit)}
		}
		pool.TVL = tvl

		now := m.now().UTC()
		provider, ok := pool.Providers[providerID]
		if !ok {
			provider = &model.Provider{
				ID:       providerID,
				Provided: make(map[string]uint64, len(amounts)),
				JoinedAt: now,
			}
			pool.Providers[providerID] = provider
		}
		for assetID, amount := range amounts {
			if amount == 0 {
				continue
			}
			provided, err := amm.Sum(provider.Provided[assetID], amount)
			if err != nil {
				return fmt.Errorf("provided %s: %w", assetID, err)
			}
			provider.Provided[assetID] = provided
		}
		provider.SharePercentage += share
		provider.LastActivity = now
		pool.UpdatedAt = now

		result = model.AddResult{
			PoolID:        pool.ID,
			ProviderID:    providerID,
			AmountsAdded:  copyAmounts(amounts),
			ShareReceived: share,
			NewTotalShare: provider.SharePercentage,
		}
		event = newEvent(pool, model.EventAdd, now)
		event.ProviderID = providerID
		event.Amounts = copyAmounts(amounts)
		event.Share = share
		return nil
	})
	if err != nil {
		return model.AddResult{}, err
	}

	m.logger.Debug("liquidity added",
		zap.String("pool_id", poolID.String()),
		zap.String("provider", providerID),
		zap.Float64("share", result.ShareReceived),
		zap.Float64("total_share", result.NewTotalShare),
	)
	return result, nil
}

// RemoveLiquidity withdraws sharePercentage percent of every reserve for
// providerID. The withdrawal fee is reported in the result but not deducted.
func (m *Manager) RemoveLiquidity(ctx context.Context, poolID uuid.UUID, providerID string, sharePercentage float64) (model.RemoveResult, error) {
	var (
		result model.RemoveResult
		event  model.EventRecord
	)
	err := m.update(ctx, poolID, &event, func(pool *model.Pool) error {
		if err := requireActive(pool); err != nil {
			return err
		}
		provider, ok := pool.Providers[providerID]
		if !ok {
			return &NotFoundError{Kind: "provider", ID: providerID}
		}
		if math.IsNaN(sharePercentage) || sharePercentage <= 0 || sharePercentage > 100 {
			return &ValidationError{Rule: "share-range", Detail: fmt.Sprintf("share %v outside (0,100]", sharePercentage)}
		}
		if sharePercentage > provider.SharePercentage+shareEpsilon {
			return &InsufficientShareError{Requested: sharePercentage, Held: provider.SharePercentage}
		}

		withdrawn := make(map[string]uint64, len(pool.Assets))
		amounts := make([]uint64, 0, len(pool.Assets))
		for i := range pool.Assets {
			asset := &pool.Assets[i]
			amount, err := amm.Withdrawal(asset.Reserve, sharePercentage)
			if err != nil {
				return fmt.Errorf("withdrawal of %s: %w", asset.ID, err)
			}
			asset.Reserve -= amount
			withdrawn[asset.ID] = amount
			amounts = append(amounts, amount)
		}
		gross, err := amm.Sum(amounts...)
		if err != nil {
			return fmt.Errorf("withdrawal total: %w", err)
		}
		fee, err := amm.FeeAmount(gross, pool.Fees.Withdrawal)
		if err != nil {
			return fmt.Errorf("withdrawal fee: %w", err)
		}
		tvl, err := amm.Sum(pool.Reserves()...)
		if err != nil {
			return fmt.Errorf("total value locked: %w", err)
		}
		pool.TVL = tvl

		remaining := provider.SharePercentage - sharePercentage
		if remaining < shareEpsilon {
			remaining = 0
		}
		now := m.now().UTC()
		provider.SharePercentage = remaining
		provider.LastActivity = now
		pool.UpdatedAt = now

		result = model.RemoveResult{
			PoolID:           pool.ID,
			ProviderID:       providerID,
			AmountsWithdrawn: withdrawn,
			FeesPaid:         fee,
			RemainingShare:   remaining,
		}
		event = newEvent(pool, model.EventRemove, now)
		event.ProviderID = providerID
		event.Amounts = copyAmounts(withdrawn)
		event.Fees = fee
		event.Share = sharePercentage
		return nil
	})
	if err != nil {
		return model.RemoveResult{}, err
	}

	m.logger.Debug("liquidity removed",
		zap.String("pool_id", poolID.String()),
		zap.String("provider", providerID),
		zap.Float64("share", sharePercentage),
		zap.Uint64("fee", result.FeesPaid),
	)
	return result, nil
}

func copyAmounts(in map[string]uint64) map[string]uint64 {
	out := make(map[string]uint64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
