package liquidity

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"crossLiquidity/internal/model"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrNotFound            = errors.New("not found")
	ErrPoolNotActive       = errors.New("pool not active")
	ErrInsufficientShare   = errors.New("insufficient share")
	ErrSlippageExceeded    = errors.New("slippage exceeded")
	ErrUnsupportedPoolType = errors.New("unsupported pool type")
)

// ValidationError reports the first rule a request or pool config violates.
type ValidationError struct {
	Rule   string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed [%s]: %s", e.Rule, e.Detail)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NotFoundError reports an unknown pool, provider, or asset.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// StateError is returned for mutations against a pool that is not Active.
type StateError struct {
	PoolID uuid.UUID
	Status model.PoolStatus
}

func (e *StateError) Error() string {
	return fmt.Sprintf("pool %s is %s", e.PoolID, e.Status)
}

func (e *StateError) Unwrap() error {
	return ErrPoolNotActive
}

type InsufficientShareError struct {
	Requested float64
	Held      float64
}

func (e *InsufficientShareError) Error() string {
	return fmt.Sprintf("requested share %.6f exceeds held %.6f", e.Requested, e.Held)
}

func (e *InsufficientShareError) Unwrap() error {
	return ErrInsufficientShare
}

type SlippageExceededError struct {
	Output  uint64
	Minimum uint64
}

func (e *SlippageExceededError) Error() string {
	return fmt.Sprintf("output %d below minimum %d", e.Output, e.Minimum)
}

func (e *SlippageExceededError) Unwrap() error {
	return ErrSlippageExceeded
}

// UnsupportedPoolTypeError is returned when a pool type has no pricing curve.
type UnsupportedPoolTypeError struct {
	Type model.PoolType
}

func (e *UnsupportedPoolTypeError) Error() string {
	return fmt.Sprintf("pool type %s has no pricing curve", e.Type)
}

func (e *UnsupportedPoolTypeError) Unwrap() error {
	return ErrUnsupportedPoolType
}
