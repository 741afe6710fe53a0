package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"crossLiquidity/internal/model"
)

const poolsYAML = `
pools:
  - name: usdc-weth
    type: constant_product
    supported_chains: [ethereum, arbitrum]
    assets:
      - id: USDC
        chain: ethereum
        token_address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
        decimals: 6
        weight: 0.5
      - id: WETH
        chain: arbitrum
        decimals: 18
        weight: 0.5
        bridge:
          protocol: layerzero
          address: "0x0000000000000000000000000000000000000001"
          fee: 0.0005
          transfer_time: 2m
          security_level: high
    fees:
      trading: 0.003
      protocol: 0.001
      withdrawal: 0.005
    parameters:
      maximum_liquidity: 1000000000
      twap_period: 30m
  - name: stables
    type: stable_swap
    assets:
      - {id: DAI, chain: ethereum, weight: 0.5}
      - {id: USDT, chain: ethereum, weight: 0.5}
`

func TestParsePools(t *testing.T) {
	pools, err := ParsePools([]byte(poolsYAML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(pools) != 2 {
		t.Fatalf("expected 2 pools, got %d", len(pools))
	}

	first := pools[0]
	if first.Type != model.ConstantProduct || first.Fees.Trading != 0.003 {
		t.Fatalf("first pool mismatch: %+v", first)
	}
	if first.Params.TWAPPeriod != 30*time.Minute || first.Params.MaximumLiquidity != 1_000_000_000 {
		t.Fatalf("parameters mismatch: %+v", first.Params)
	}
	weth := first.Assets[1]
	if weth.Bridge == nil || weth.Bridge.TransferTime != 2*time.Minute || weth.Bridge.SecurityLevel != model.SecurityHigh {
		t.Fatalf("bridge mismatch: %+v", weth.Bridge)
	}
	if first.Assets[0].Decimals != 6 || first.Assets[0].TokenAddress == "" {
		t.Fatalf("asset mismatch: %+v", first.Assets[0])
	}
	if pools[1].Type != model.StableSwap || len(pools[1].Assets) != 2 {
		t.Fatalf("second pool mismatch: %+v", pools[1])
	}
}

func TestParsePoolsErrors(t *testing.T) {
	cases := map[string]string{
		"unknown type":   "pools:\n  - name: p\n    type: curved\n",
		"unknown key":    "pools:\n  - name: p\n    colour: red\n",
		"duplicate name": "pools:\n  - name: p\n  - name: p\n",
		"missing name":   "pools:\n  - type: weighted\n",
	}
	for name, doc := range cases {
		if _, err := ParsePools([]byte(doc)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadPoolsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pools.yaml")
	if err := os.WriteFile(path, []byte(poolsYAML), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	pools, err := LoadPools(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(pools) != 2 {
		t.Fatalf("expected 2 pools, got %d", len(pools))
	}

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	pools, err = LoadPools(empty)
	if err != nil || len(pools) != 0 {
		t.Fatalf("empty file: pools %v err %v", pools, err)
	}
}
