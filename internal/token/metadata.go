package token

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"crossLiquidity/internal/chain"
	"crossLiquidity/internal/model"
)

// Meta is the ERC20 metadata used to fill in pool asset decimals and symbols.
type Meta struct {
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
}

// MetaCache caches token metadata by address.
type MetaCache struct {
	mu   sync.RWMutex
	data map[common.Address]Meta
}

func NewMetaCache() *MetaCache {
	return &MetaCache{data: make(map[common.Address]Meta)}
}

func (c *MetaCache) Get(address common.Address) (Meta, bool) {
	c.mu.RLock()
	meta, ok := c.data[address]
	c.mu.RUnlock()
	return meta, ok
}

func (c *MetaCache) Set(address common.Address, meta Meta) {
	c.mu.Lock()
	c.data[address] = meta
	c.mu.Unlock()
}

// Resolver looks up ERC20 metadata for pool assets.
type Resolver struct {
	client *chain.Client
	cache  *MetaCache
	retry  chain.RetryPolicy
	logger *zap.Logger
}

func NewResolver(client *chain.Client, retry chain.RetryPolicy, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		client: client,
		cache:  NewMetaCache(),
		retry:  retry,
		logger: logger,
	}
}

// Resolve returns cached metadata or fetches it from chain.
func (r *Resolver) Resolve(ctx context.Context, token common.Address) (Meta, error) {
	if meta, ok := r.cache.Get(token); ok {
		return meta, nil
	}

	var meta Meta
	err := r.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		meta, err = FetchMeta(ctx, r.client, token, r.logger)
		return err
	})
	if err != nil {
		return meta, err
	}
	r.cache.Set(token, meta)
	return meta, nil
}

// Enrich fills decimals, and symbol when empty, for every asset of cfg that has
// a token address. Lookup failures are logged and leave the asset unchanged.
// It returns the number of assets updated.
func (r *Resolver) Enrich(ctx context.Context, cfg *model.PoolConfig) int {
	updated := 0
	for i := range cfg.Assets {
		asset := &cfg.Assets[i]
		if asset.TokenAddress == "" {
			continue
		}
		if !common.IsHexAddress(asset.TokenAddress) {
			r.logger.Warn("skip invalid token address", zap.String("pool", cfg.Name), zap.String("asset", asset.ID), zap.String("token", asset.TokenAddress))
			continue
		}
		meta, err := r.Resolve(ctx, common.HexToAddress(asset.TokenAddress))
		if err != nil {
			r.logger.Warn("token metadata fetch failed", zap.String("pool", cfg.Name), zap.String("asset", asset.ID), zap.Error(err))
			continue
		}
		asset.Decimals = meta.Decimals
		if asset.Symbol == "" {
			asset.Symbol = meta.Symbol
		}
		updated++
	}
	return updated
}

// FetchMeta loads token metadata via ERC20 calls.
func FetchMeta(ctx context.Context, chainClient *chain.Client, token common.Address, logger *zap.Logger) (Meta, error) {
	meta := Meta{Address: token.Hex()}
	if logger == nil {
		logger = zap.NewNop()
	}
	if chainClient == nil {
		return meta, fmt.Errorf("chain client is nil")
	}

	withString, err := stringABI()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 string abi: %w", err)
	}
	withBytes32, err := bytes32ABI()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 bytes32 abi: %w", err)
	}

	call := func(method string, parsed abi.ABI) ([]interface{}, error) {
		data, err := parsed.Pack(method)
		if err != nil {
			return nil, fmt.Errorf("pack %s: %w", method, err)
		}
		msg := ethereum.CallMsg{To: &token, Data: data}
		resp, err := chainClient.CallContract(ctx, msg, nil)
		if err != nil {
			return nil, fmt.Errorf("call %s: %w", method, err)
		}
		values, err := parsed.Unpack(method, resp)
		if err != nil {
			return nil, fmt.Errorf("unpack %s: %w", method, err)
		}
		if len(values) == 0 {
			return nil, fmt.Errorf("%s returned nothing", method)
		}
		return values, nil
	}

	text := func(method string) (string, bool) {
		if values, err := call(method, withString); err == nil {
			if s, ok := values[0].(string); ok {
				return s, true
			}
		}
		values, err := call(method, withBytes32)
		if err != nil {
			logger.Debug("text call failed", zap.String("token", token.Hex()), zap.String("method", method), zap.Error(err))
			return "", false
		}
		return bytes32ToString(values[0])
	}

	values, err := call("decimals", withString)
	if err != nil {
		return meta, err
	}
	decimals, err := asUint8(values[0])
	if err != nil {
		return meta, err
	}
	meta.Decimals = decimals

	if symbol, ok := text("symbol"); ok {
		meta.Symbol = symbol
	}
	if name, ok := text("name"); ok {
		meta.Name = name
	}
	return meta, nil
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00")), true
	case []byte:
		return string(bytes.TrimRight(v, "\x00")), true
	default:
		return "", false
	}
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case *big.Int:
		if !v.IsUint64() || v.Uint64() > 255 {
			return 0, fmt.Errorf("decimals out of range: %s", v)
		}
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}
