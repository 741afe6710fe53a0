package model

import (
	"fmt"
	"strings"
)

// PoolType tags the pricing curve a pool uses.
type PoolType int

const (
	ConstantProduct PoolType = iota
	ConstantSum
	StableSwap
	WeightedPool
	ConcentratedLiquidity
	OrderBook
	Hybrid
)

var poolTypeNames = [...]string{
	ConstantProduct:       "constant_product",
	ConstantSum:           "constant_sum",
	StableSwap:            "stable_swap",
	WeightedPool:          "weighted",
	ConcentratedLiquidity: "concentrated_liquidity",
	OrderBook:             "order_book",
	Hybrid:                "hybrid",
}

func (t PoolType) String() string {
	if t < 0 || int(t) >= len(poolTypeNames) {
		return fmt.Sprintf("pool_type(%d)", int(t))
	}
	return poolTypeNames[t]
}

// ParsePoolType accepts the snake_case name of a pool type.
func ParsePoolType(input string) (PoolType, error) {
	name := strings.ToLower(strings.TrimSpace(input))
	for i, candidate := range poolTypeNames {
		if candidate == name {
			return PoolType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown pool type: %q", input)
}

func (t PoolType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *PoolType) UnmarshalText(text []byte) error {
	parsed, err := ParsePoolType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// PoolStatus is the lifecycle state of a pool. Only Active pools accept mutations.
type PoolStatus int

const (
	StatusActive PoolStatus = iota
	StatusPaused
	StatusDraining
	StatusMigrating
	StatusEmergency
	StatusDeprecated
)

var poolStatusNames = [...]string{
	StatusActive:     "active",
	StatusPaused:     "paused",
	StatusDraining:   "draining",
	StatusMigrating:  "migrating",
	StatusEmergency:  "emergency",
	StatusDeprecated: "deprecated",
}

func (s PoolStatus) String() string {
	if s < 0 || int(s) >= len(poolStatusNames) {
		return fmt.Sprintf("status(%d)", int(s))
	}
	return poolStatusNames[s]
}

// ParsePoolStatus accepts the lower-case name of a status.
func ParsePoolStatus(input string) (PoolStatus, error) {
	name := strings.ToLower(strings.TrimSpace(input))
	for i, candidate := range poolStatusNames {
		if candidate == name {
			return PoolStatus(i), nil
		}
	}
	return 0, fmt.Errorf("unknown pool status: %q", input)
}

func (s PoolStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *PoolStatus) UnmarshalText(text []byte) error {
	parsed, err := ParsePoolStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// SecurityLevel grades a bridge used to move an asset between chains.
type SecurityLevel string

const (
	SecurityBasic    SecurityLevel = "basic"
	SecurityStandard SecurityLevel = "standard"
	SecurityHigh     SecurityLevel = "high"
	SecurityMaximum  SecurityLevel = "maximum"
)
