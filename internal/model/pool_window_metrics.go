package model

import "time"

// PoolWindowMetrics stores aggregated journal metrics for a pool window.
type PoolWindowMetrics struct {
	PoolID         string
	PoolName       string
	WindowSizeSecs int64
	WindowStart    time.Time
	WindowEnd      time.Time
	SwapCount      uint64
	DepositCount   uint64
	WithdrawCount  uint64
	Volume         string
	Fees           string
	TVL            *string
	FeeRate        *string
	APR            *string
	FeeMethod      string
	TVLMethod      string
}
