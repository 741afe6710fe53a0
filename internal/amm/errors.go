package amm

import "errors"

var (
	ErrOverflow         = errors.New("amount overflows uint64")
	ErrEmptyReserves    = errors.New("pool reserves are empty")
	ErrUnsupportedCurve = errors.New("no pricing curve for pool type")
	ErrInvalidFraction  = errors.New("fraction must be finite and non-negative")
)
