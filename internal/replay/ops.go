package replay

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"crossLiquidity/internal/model"
)

// Operation kinds accepted in an operations file.
const (
	OpAdd    = "add"
	OpRemove = "remove"
	OpSwap   = "swap"
	OpStatus = "status"
)

// Op is one line of an operations file. Pools are referenced by name.
type Op struct {
	Line      int               `json:"-"`
	Kind      string            `json:"op"`
	Pool      string            `json:"pool"`
	Provider  string            `json:"provider,omitempty"`
	Amounts   map[string]uint64 `json:"amounts,omitempty"`
	Share     float64           `json:"share,omitempty"`
	Input     string            `json:"input,omitempty"`
	Output    string            `json:"output,omitempty"`
	Amount    uint64            `json:"amount,omitempty"`
	MinOutput uint64            `json:"min_output,omitempty"`
	Status    *model.PoolStatus `json:"status,omitempty"`
}

// ReadOps reads an operations JSONL file.
func ReadOps(path string) ([]Op, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ops: %w", err)
	}
	defer file.Close()
	return DecodeOps(file)
}

// DecodeOps parses operations line by line. A malformed line or an unknown
// kind fails the whole file.
func DecodeOps(r io.Reader) ([]Op, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	var (
		ops    []Op
		lineNo int
	)
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] == '#' {
			continue
		}

		var op Op
		if err := json.Unmarshal(line, &op); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		op.Line = lineNo
		if err := op.validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		ops = append(ops, op)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan ops: %w", err)
	}
	return ops, nil
}

func (op Op) validate() error {
	if op.Pool == "" {
		return fmt.Errorf("pool is required")
	}
	switch op.Kind {
	case OpAdd, OpRemove, OpSwap:
		return nil
	case OpStatus:
		if op.Status == nil {
			return fmt.Errorf("status op needs a status")
		}
		return nil
	default:
		return fmt.Errorf("unknown op %q", op.Kind)
	}
}
