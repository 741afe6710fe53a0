package token

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const erc20ABIStringJSON = `[
  {"inputs": [], "name": "decimals", "outputs": [{"type": "uint8"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "symbol", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "name", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"}
]`

const erc20ABIBytes32JSON = `[
  {"inputs": [], "name": "decimals", "outputs": [{"type": "uint8"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "symbol", "outputs": [{"type": "bytes32"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "name", "outputs": [{"type": "bytes32"}], "stateMutability": "view", "type": "function"}
]`

// Some older tokens return symbol and name as bytes32, so both layouts are kept.
var (
	stringABI  = lazyABI(erc20ABIStringJSON)
	bytes32ABI = lazyABI(erc20ABIBytes32JSON)
)

func lazyABI(definition string) func() (abi.ABI, error) {
	var (
		once   sync.Once
		parsed abi.ABI
		err    error
	)
	return func() (abi.ABI, error) {
		once.Do(func() {
			parsed, err = abi.JSON(strings.NewReader(definition))
		})
		return parsed, err
	}
}
