package model

// PoolConfig is the input to pool creation.
type PoolConfig struct {
	Name            string         `json:"name" yaml:"name"`
	Type            PoolType       `json:"type" yaml:"type"`
	Assets          []Asset        `json:"assets" yaml:"assets"`
	Fees            FeeStructure   `json:"fees" yaml:"fees"`
	Params          PoolParameters `json:"parameters" yaml:"parameters"`
	SupportedChains []string       `json:"supported_chains" yaml:"supported_chains"`
}

// Deployment is the record returned by a pool factory.
type Deployment struct {
	Address     string `json:"address"`
	ChainID     uint64 `json:"chain_id,omitempty"`
	Cost        uint64 `json:"cost"`
	GasEstimate uint64 `json:"gas_estimate"`
}
