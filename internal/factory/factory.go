package factory

import (
	"context"

	"crossLiquidity/internal/model"
)

// Factory deploys the on-chain counterpart of a pool.
type Factory interface {
	Deploy(ctx context.Context, cfg model.PoolConfig) (model.Deployment, error)
}

// StaticFactory returns a fixed deployment record without touching any chain.
type StaticFactory struct{}

func (StaticFactory) Deploy(ctx context.Context, _ model.PoolConfig) (model.Deployment, error) {
	if err := ctx.Err(); err != nil {
		return model.Deployment{}, err
	}
	return model.Deployment{
		Address:     "0x1234567890",
		Cost:        100_000,
		GasEstimate: 500_000,
	}, nil
}
