package storage

import "crossLiquidity/internal/model"

// Storage receives every committed pool event. Implementations must accept
// concurrent calls.
type Storage interface {
	PutEventBatch(events []model.EventRecord) error
}

