package model

// Event kinds written to the journal.
const (
	EventCreate = "create"
	EventAdd    = "add"
	EventRemove = "remove"
	EventSwap   = "swap"
	EventStatus = "status"
)

// EventRecord is the JSON representation of one committed pool mutation.
type EventRecord struct {
	PoolID       string            `json:"pool_id"`
	PoolName     string            `json:"pool_name"`
	Kind         string            `json:"kind"`
	Timestamp    uint64            `json:"timestamp"`
	ProviderID   string            `json:"provider_id,omitempty"`
	Amounts      map[string]uint64 `json:"amounts,omitempty"`
	InputAsset   string            `json:"input_asset,omitempty"`
	OutputAsset  string            `json:"output_asset,omitempty"`
	InputAmount  uint64            `json:"input_amount,omitempty"`
	OutputAmount uint64            `json:"output_amount,omitempty"`
	Fees         uint64            `json:"fees,omitempty"`
	Share        float64           `json:"share,omitempty"`
	TVL          uint64            `json:"tvl"`
	Status       string            `json:"status"`
}
