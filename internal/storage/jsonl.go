package storage

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"crossLiquidity/internal/model"
)

const maxJournalLine = 10 * 1024 * 1024

// ErrJournalClosed is returned by writes after Close.
var ErrJournalClosed = errors.New("journal closed")

// Journal appends committed pool events to a JSONL file. The file is opened
// on the first write and held until Close.
type Journal struct {
	path string

	mu     sync.Mutex
	file   *os.File
	out    *bufio.Writer
	closed bool
}

func NewJournal(path string) *Journal {
	return &Journal{path: path}
}

func (j *Journal) Path() string {
	return j.path
}

// PutEventBatch writes events as one line each and flushes before returning,
// so a batch is never split across concurrent callers.
func (j *Journal) PutEventBatch(events []model.EventRecord) error {
	if len(events) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range events {
		if err := enc.Encode(&events[i]); err != nil {
			return fmt.Errorf("encode %s event for pool %s: %w", events[i].Kind, events[i].PoolID, err)
		}
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.openLocked(); err != nil {
		return err
	}
	if _, err := j.out.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("append journal: %w", err)
	}
	if err := j.out.Flush(); err != nil {
		return fmt.Errorf("flush journal: %w", err)
	}
	return nil
}

// Close flushes and releases the file. It is safe to call more than once.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return nil
	}
	j.closed = true
	if j.file == nil {
		return nil
	}
	flushErr := j.out.Flush()
	closeErr := j.file.Close()
	j.file, j.out = nil, nil
	if flushErr != nil {
		return fmt.Errorf("flush journal: %w", flushErr)
	}
	return closeErr
}

func (j *Journal) openLocked() error {
	if j.closed {
		return ErrJournalClosed
	}
	if j.file != nil {
		return nil
	}
	if dir := filepath.Dir(j.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create journal dir: %w", err)
		}
	}
	file, err := os.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	j.file = file
	j.out = bufio.NewWriter(file)
	return nil
}

// ScanJournal decodes JSONL records from r in order, skipping blank lines. A
// line that fails to decode is passed to fn with a non-nil decodeErr and a
// zero record; fn decides whether to continue. Scanning stops at the first
// error fn returns.
func ScanJournal(r io.Reader, fn func(line int, record model.EventRecord, decodeErr error) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxJournalLine)

	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var record model.EventRecord
		decodeErr := json.Unmarshal(raw, &record)
		if decodeErr != nil {
			record = model.EventRecord{}
			decodeErr = fmt.Errorf("line %d: %w", line, decodeErr)
		}
		if err := fn(line, record, decodeErr); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan journal: %w", err)
	}
	return nil
}
