package model

import (
	"time"

	"github.com/google/uuid"
)

// AddResult reports a completed deposit.
type AddResult struct {
	PoolID        uuid.UUID         `json:"pool_id"`
	ProviderID    string            `json:"provider_id"`
	AmountsAdded  map[string]uint64 `json:"amounts_added"`
	ShareReceived float64           `json:"share_received"`
	NewTotalShare float64           `json:"new_total_share"`
}

// RemoveResult reports a completed withdrawal. FeesPaid is informational and
// is not deducted from AmountsWithdrawn.
type RemoveResult struct {
	PoolID           uuid.UUID         `json:"pool_id"`
	ProviderID       string            `json:"provider_id"`
	AmountsWithdrawn map[string]uint64 `json:"amounts_withdrawn"`
	FeesPaid         uint64            `json:"fees_paid"`
	RemainingShare   float64           `json:"remaining_share"`
}

// SwapResult reports a completed trade.
type SwapResult struct {
	PoolID       uuid.UUID `json:"pool_id"`
	InputAsset   string    `json:"input_asset"`
	OutputAsset  string    `json:"output_asset"`
	InputAmount  uint64    `json:"input_amount"`
	OutputAmount uint64    `json:"output_amount"`
	FeesPaid     uint64    `json:"fees_paid"`
	PriceImpact  float64   `json:"price_impact"`
	ExecutedAt   time.Time `json:"executed_at"`
}
