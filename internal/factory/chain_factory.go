package factory

import (
	"bytes"
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"crossLiquidity/internal/chain"
	"crossLiquidity/internal/model"
)

// ChainFactory prices a deployment against a live node and derives the
// CREATE2 address the pool contract would receive. It sends no transaction.
type ChainFactory struct {
	client   *chain.Client
	deployer common.Address
	cost     CostModel
	retry    chain.RetryPolicy
	logger   *zap.Logger
}

func NewChainFactory(client *chain.Client, deployer common.Address, cost CostModel, retry chain.RetryPolicy, logger *zap.Logger) *ChainFactory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChainFactory{
		client:   client,
		deployer: deployer,
		cost:     cost,
		retry:    retry,
		logger:   logger,
	}
}

func (f *ChainFactory) Deploy(ctx context.Context, cfg model.PoolConfig) (model.Deployment, error) {
	if f.client == nil {
		return model.Deployment{}, fmt.Errorf("chain client is nil")
	}

	var chainID *big.Int
	err := f.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		chainID, err = f.client.GetChainID(ctx)
		if err != nil {
			f.logger.Warn("chain id fetch failed", zap.Error(err))
		}
		return err
	})
	if err != nil {
		return model.Deployment{}, fmt.Errorf("get chain id: %w", err)
	}
	if !chainID.IsUint64() {
		return model.Deployment{}, fmt.Errorf("chain id does not fit in uint64: %s", chainID)
	}

	var gasPrice *big.Int
	err = f.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		gasPrice, err = f.client.SuggestGasPrice(ctx)
		if err != nil {
			f.logger.Warn("gas price fetch failed", zap.Error(err))
		}
		return err
	})
	if err != nil {
		return model.Deployment{}, fmt.Errorf("get gas price: %w", err)
	}

	gas, err := f.cost.Estimate(len(cfg.Assets), cfg.Type)
	if err != nil {
		return model.Deployment{}, err
	}
	cost := new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(gas))
	if !cost.IsUint64() {
		return model.Deployment{}, fmt.Errorf("deployment cost overflows: %s wei", cost)
	}

	address := PoolAddress(f.deployer, chainID, cfg)
	f.logger.Debug("pool deployment estimated",
		zap.String("pool", cfg.Name),
		zap.String("address", address.Hex()),
		zap.Uint64("chain_id", chainID.Uint64()),
		zap.Uint64("gas", gas),
		zap.String("gas_price", gasPrice.String()),
	)

	return model.Deployment{
		Address:     address.Hex(),
		ChainID:     chainID.Uint64(),
		Cost:        cost.Uint64(),
		GasEstimate: gas,
	}, nil
}

// PoolAddress derives a deterministic CREATE2 address from the deployer, the
// chain, and the pool's name, type, and assets.
func PoolAddress(deployer common.Address, chainID *big.Int, cfg model.PoolConfig) common.Address {
	parts := [][]byte{[]byte(cfg.Name), []byte(cfg.Type.String())}
	for _, asset := range cfg.Assets {
		parts = append(parts, []byte(asset.Chain), []byte(asset.ID))
	}
	salt := crypto.Keccak256Hash(bytes.Join(parts, []byte{0}))

	var id []byte
	if chainID != nil {
		id = chainID.Bytes()
	}
	initCodeHash := crypto.Keccak256(common.LeftPadBytes(id, 32), []byte(cfg.Type.String()))
	return crypto.CreateAddress2(deployer, [32]byte(salt), initCodeHash)
}
