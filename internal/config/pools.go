package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"crossLiquidity/internal/model"
)

// PoolFile is the YAML document listing pools to create.
type PoolFile struct {
	Pools []model.PoolConfig `yaml:"pools"`
}

// LoadPools reads pool definitions from a YAML file.
func LoadPools(path string) ([]model.PoolConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pools: %w", err)
	}
	return ParsePools(data)
}

// ParsePools decodes a pool document. Unknown keys are rejected and pool
// names must be unique, since operations refer to pools by name.
func ParsePools(data []byte) ([]model.PoolConfig, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc PoolFile
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode pools: %w", err)
	}

	seen := make(map[string]struct{}, len(doc.Pools))
	for i, pool := range doc.Pools {
		if pool.Name == "" {
			return nil, fmt.Errorf("pool %d: name is empty", i)
		}
		if _, ok := seen[pool.Name]; ok {
			return nil, fmt.Errorf("pool %q defined twice", pool.Name)
		}
		seen[pool.Name] = struct{}{}
	}
	return doc.Pools, nil
}
