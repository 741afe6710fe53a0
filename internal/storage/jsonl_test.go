package storage

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"crossLiquidity/internal/model"
)

func TestJournalAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "journal.jsonl")
	journal := NewJournal(path)

	first := []model.EventRecord{
		{PoolID: "p1", PoolName: "eth-usdc", Kind: model.EventCreate, Timestamp: 100, Status: "active"},
	}
	second := []model.EventRecord{
		{PoolID: "p1", PoolName: "eth-usdc", Kind: model.EventSwap, Timestamp: 160, InputAsset: "ETH", OutputAsset: "USDC", InputAmount: 10, OutputAmount: 9, Fees: 1, TVL: 2000, Status: "active"},
	}
	if err := journal.PutEventBatch(first); err != nil {
		t.Fatalf("put first: %v", err)
	}
	if err := journal.PutEventBatch(nil); err != nil {
		t.Fatalf("put empty: %v", err)
	}
	if err := journal.PutEventBatch(second); err != nil {
		t.Fatalf("put second: %v", err)
	}

	// Writes are flushed per batch, so the file is readable before Close.
	got := readEvents(t, path)
	want := append(first, second...)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("journal mismatch: %+v != %+v", got, want)
	}

	if err := journal.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := journal.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if err := journal.PutEventBatch(first); !errors.Is(err, ErrJournalClosed) {
		t.Fatalf("expected ErrJournalClosed, got %v", err)
	}
}

func TestJournalReopenAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	for i := 0; i < 2; i++ {
		journal := NewJournal(path)
		if err := journal.PutEventBatch([]model.EventRecord{{PoolID: "p", Kind: model.EventAdd, Timestamp: uint64(i)}}); err != nil {
			t.Fatalf("put: %v", err)
		}
		if err := journal.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}
	if got := readEvents(t, path); len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
}

func TestJournalConcurrentWriters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	journal := NewJournal(path)
	defer journal.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			batch := []model.EventRecord{
				{PoolID: "p", Kind: model.EventAdd, Timestamp: uint64(i)},
				{PoolID: "p", Kind: model.EventRemove, Timestamp: uint64(i)},
			}
			if err := journal.PutEventBatch(batch); err != nil {
				t.Errorf("put: %v", err)
			}
		}(i)
	}
	wg.Wait()

	got := readEvents(t, path)
	if len(got) != 16 {
		t.Fatalf("expected 16 events, got %d", len(got))
	}
	for i := 0; i < len(got); i += 2 {
		if got[i].Kind != model.EventAdd || got[i+1].Kind != model.EventRemove || got[i].Timestamp != got[i+1].Timestamp {
			t.Fatalf("batch split at line %d: %+v %+v", i+1, got[i], got[i+1])
		}
	}
}

func TestScanJournalReportsDecodeErrors(t *testing.T) {
	input := strings.Join([]string{
		`{"pool_id":"p1","kind":"swap","timestamp":10}`,
		``,
		`not json`,
		`{"pool_id":"p2","kind":"add","timestamp":11}`,
	}, "\n")

	var lines []int
	var ids []string
	var bad int
	err := ScanJournal(strings.NewReader(input), func(line int, record model.EventRecord, decodeErr error) error {
		if decodeErr != nil {
			bad++
			if !strings.Contains(decodeErr.Error(), "line 3") {
				t.Errorf("decode error lacks line number: %v", decodeErr)
			}
			return nil
		}
		lines = append(lines, line)
		ids = append(ids, record.PoolID)
		return nil
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if bad != 1 {
		t.Fatalf("expected 1 bad line, got %d", bad)
	}
	if !reflect.DeepEqual(lines, []int{1, 4}) || !reflect.DeepEqual(ids, []string{"p1", "p2"}) {
		t.Fatalf("unexpected records: lines=%v ids=%v", lines, ids)
	}
}

func TestScanJournalStopsOnCallbackError(t *testing.T) {
	stop := errors.New("stop")
	calls := 0
	input := "{\"pool_id\":\"a\"}\n{\"pool_id\":\"b\"}\n"
	err := ScanJournal(strings.NewReader(input), func(int, model.EventRecord, error) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) || calls != 1 {
		t.Fatalf("expected stop after one call, got err=%v calls=%d", err, calls)
	}
}

func readEvents(t *testing.T, path string) []model.EventRecord {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer file.Close()

	var out []model.EventRecord
	err = ScanJournal(file, func(_ int, record model.EventRecord, decodeErr error) error {
		if decodeErr != nil {
			return decodeErr
		}
		out = append(out, record)
		return nil
	})
	if err != nil {
		t.Fatalf("read journal: %v", err)
	}
	return out
}
