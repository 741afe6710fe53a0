package model

import (
	"time"

	"github.com/google/uuid"
)

// Pool is the full state of one liquidity pool.
type Pool struct {
	ID              uuid.UUID            `json:"id"`
	Name            string               `json:"name"`
	Type            PoolType             `json:"type"`
	Assets          []Asset              `json:"assets"`
	TVL             uint64               `json:"total_value_locked"`
	Providers       map[string]*Provider `json:"providers"`
	Fees            FeeStructure         `json:"fees"`
	Params          PoolParameters       `json:"parameters"`
	Metrics         PoolMetrics          `json:"metrics"`
	SupportedChains []string             `json:"supported_chains"`
	Status          PoolStatus           `json:"status"`
	Deployment      Deployment           `json:"deployment"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// Asset is one reserve held by a pool.
type Asset struct {
	ID           string      `json:"id" yaml:"id"`
	Chain        string      `json:"chain" yaml:"chain"`
	TokenAddress string      `json:"token_address,omitempty" yaml:"token_address"`
	Symbol       string      `json:"symbol,omitempty" yaml:"symbol"`
	Decimals     uint8       `json:"decimals" yaml:"decimals"`
	Reserve      uint64      `json:"reserve" yaml:"reserve"`
	Weight       float64     `json:"weight" yaml:"weight"`
	Bridge       *BridgeInfo `json:"bridge,omitempty" yaml:"bridge"`
}

// BridgeInfo describes how an asset reaches the pool from its origin chain.
type BridgeInfo struct {
	Protocol      string        `json:"protocol" yaml:"protocol"`
	Address       string        `json:"address" yaml:"address"`
	Fee           float64       `json:"fee" yaml:"fee"`
	TransferTime  time.Duration `json:"transfer_time" yaml:"transfer_time"`
	SecurityLevel SecurityLevel `json:"security_level" yaml:"security_level"`
}

// Provider is a liquidity provider's position in one pool.
type Provider struct {
	ID              string            `json:"id"`
	Provided        map[string]uint64 `json:"provided"`
	SharePercentage float64           `json:"share_percentage"`
	FeesEarned      uint64            `json:"fees_earned"`
	JoinedAt        time.Time         `json:"joined_at"`
	LastActivity    time.Time         `json:"last_activity"`
	ImpermanentLoss float64           `json:"impermanent_loss"`
}

// FeeStructure holds fee fractions in [0,1].
type FeeStructure struct {
	Trading      float64         `json:"trading" yaml:"trading"`
	Protocol     float64         `json:"protocol" yaml:"protocol"`
	Bridge       float64         `json:"bridge" yaml:"bridge"`
	Withdrawal   float64         `json:"withdrawal" yaml:"withdrawal"`
	Performance  float64         `json:"performance" yaml:"performance"`
	Distribution FeeDistribution `json:"distribution" yaml:"distribution"`
}

// CappedTotal is the sum subject to the pool fee cap.
func (f FeeStructure) CappedTotal() float64 {
	return f.Trading + f.Protocol + f.Bridge
}

// FeeDistribution splits collected fees between recipients.
type FeeDistribution struct {
	LiquidityProviders float64 `json:"liquidity_providers" yaml:"liquidity_providers"`
	Treasury           float64 `json:"treasury" yaml:"treasury"`
	Governance         float64 `json:"governance" yaml:"governance"`
	Insurance          float64 `json:"insurance" yaml:"insurance"`
	Burn               float64 `json:"burn" yaml:"burn"`
}

// PoolParameters bound pool behavior. Zero values mean unset.
type PoolParameters struct {
	SlippageTolerance    float64       `json:"slippage_tolerance" yaml:"slippage_tolerance"`
	MinimumLiquidity     uint64        `json:"minimum_liquidity" yaml:"minimum_liquidity"`
	MaximumLiquidity     uint64        `json:"maximum_liquidity" yaml:"maximum_liquidity"`
	RebalancingThreshold float64       `json:"rebalancing_threshold" yaml:"rebalancing_threshold"`
	PriceImpactLimit     float64       `json:"price_impact_limit" yaml:"price_impact_limit"`
	VolatilityThreshold  float64       `json:"volatility_threshold" yaml:"volatility_threshold"`
	TWAPPeriod           time.Duration `json:"twap_period" yaml:"twap_period"`
}

// PoolMetrics are running trade statistics.
type PoolMetrics struct {
	Volume24h        uint64    `json:"volume_24h"`
	FeesGenerated24h uint64    `json:"fees_generated_24h"`
	TradeCount       uint64    `json:"trade_count"`
	AverageTradeSize uint64    `json:"average_trade_size"`
	LastTradeAt      time.Time `json:"last_trade_at"`
}

// AssetIndex returns the position of the asset id, or -1.
func (p Pool) AssetIndex(id string) int {
	for i := range p.Assets {
		if p.Assets[i].ID == id {
			return i
		}
	}
	return -1
}

// Reserves returns the reserve amounts in asset order.
func (p Pool) Reserves() []uint64 {
	out := make([]uint64, len(p.Assets))
	for i, asset := range p.Assets {
		out[i] = asset.Reserve
	}
	return out
}

// Clone returns a deep copy that shares no mutable state with p.
func (p *Pool) Clone() *Pool {
	if p == nil {
		return nil
	}
	out := *p
	out.Assets = make([]Asset, len(p.Assets))
	for i, asset := range p.Assets {
		if asset.Bridge != nil {
			bridge := *asset.Bridge
			asset.Bridge = &bridge
		}
		out.Assets[i] = asset
	}
	out.Providers = make(map[string]*Provider, len(p.Providers))
	for id, provider := range p.Providers {
		out.Providers[id] = provider.Clone()
	}
	if p.SupportedChains != nil {
		out.SupportedChains = append([]string(nil), p.SupportedChains...)
	}
	return &out
}

func (p *Provider) Clone() *Provider {
	if p == nil {
		return nil
	}
	out := *p
	out.Provided = make(map[string]uint64, len(p.Provided))
	for asset, amount := range p.Provided {
		out.Provided[asset] = amount
	}
	return &out
}
