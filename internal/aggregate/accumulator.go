package aggregate

import (
	"github.com/holiman/uint256"

	"crossLiquidity/internal/model"
)

// Accumulator holds aggregate values for a pool window.
type Accumulator struct {
	PoolID        string
	PoolName      string
	WindowStart   uint64
	WindowEnd     uint64
	SwapCount     uint64
	DepositCount  uint64
	WithdrawCount uint64
	Volume        *uint256.Int
	Fees          *uint256.Int
	ClosingTVL    uint64
	LastTS        uint64
}

func NewAccumulator(record model.EventRecord, windowStart, windowEnd uint64) *Accumulator {
	return &Accumulator{
		PoolID:      record.PoolID,
		PoolName:    record.PoolName,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		Volume:      new(uint256.Int),
		Fees:        new(uint256.Int),
		ClosingTVL:  record.TVL,
		LastTS:      record.Timestamp,
	}
}

// AddEvent folds one journal record into the window. The TVL of the latest
// record seen becomes the window's closing TVL.
func (a *Accumulator) AddEvent(record model.EventRecord) {
	if record.Timestamp >= a.LastTS {
		a.LastTS = record.Timestamp
		a.ClosingTVL = record.TVL
	}
	if record.PoolName != "" {
		a.PoolName = record.PoolName
	}

	switch record.Kind {
	case model.EventSwap:
		a.SwapCount++
		a.Volume.Add(a.Volume, uint256.NewInt(record.InputAmount))
		a.Fees.Add(a.Fees, uint256.NewInt(record.Fees))
	case model.EventAdd:
		a.DepositCount++
	case model.EventRemove:
		a.WithdrawCount++
	}
}
