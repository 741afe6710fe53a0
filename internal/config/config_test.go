package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoadSimulateDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadSimulate("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Workers != 8 || cfg.MaxPoolsPerChain != 100 || cfg.MaxRetries != 5 {
		t.Fatalf("defaults mismatch: %+v", cfg)
	}
	if cfg.RetryBackoff != 500*time.Millisecond {
		t.Fatalf("retry backoff mismatch: %s", cfg.RetryBackoff)
	}
	if cfg.Log.Level != "info" || cfg.Log.File != "" || cfg.Log.MaxSizeMB != 100 {
		t.Fatalf("log defaults mismatch: %+v", cfg.Log)
	}
	if cfg.LegacyCurveFallback {
		t.Fatalf("legacy fallback enabled by default")
	}
}

func TestLoadSimulatePrecedence(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	file := filepath.Join(dir, "amm.yaml")
	content := "workers: 3\njournal: /tmp/from-file.jsonl\nlegacy-curve-fallback: true\nlog-level: warn\n"
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("AMM_MAX_POOLS_PER_CHAIN", "7")
	t.Setenv("AMM_WORKERS", "5")

	flags := pflag.NewFlagSet("simulate", pflag.ContinueOnError)
	flags.Int("workers", 8, "")
	flags.String("log-level", "info", "")
	if err := flags.Parse([]string{"--log-level=debug"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := LoadSimulate(file, flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("flag did not win: %s", cfg.Log.Level)
	}
	if cfg.Workers != 5 {
		t.Fatalf("env did not override file: %d", cfg.Workers)
	}
	if cfg.MaxPoolsPerChain != 7 {
		t.Fatalf("env not applied: %d", cfg.MaxPoolsPerChain)
	}
	if cfg.Journal != "/tmp/from-file.jsonl" || !cfg.LegacyCurveFallback {
		t.Fatalf("file values not applied: %+v", cfg)
	}
}

func TestLoadSimulateRejectsBadWorkers(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("AMM_WORKERS", "0")
	if _, err := LoadSimulate("", nil); err == nil {
		t.Fatalf("expected error for zero workers")
	}
}

func TestLoadSimulateMissingExplicitFile(t *testing.T) {
	if _, err := LoadSimulate(filepath.Join(t.TempDir(), "missing.yaml"), nil); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestLoadAggregate(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("AMM_WINDOW", "1h")
	t.Setenv("AMM_STATE_FILE", "./state.json")

	cfg, err := LoadAggregate("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Window != "1h" || cfg.StateFile != "./state.json" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.BatchSize != 1000 || cfg.Input != "./data/events.jsonl" {
		t.Fatalf("defaults mismatch: %+v", cfg)
	}
}

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		in      string
		want    uint64
		wantErr bool
	}{
		{"", 0, false},
		{"  ", 0, false},
		{"1714564800", 1714564800, false},
		{"2024-05-01T12:00:00Z", 1714564800, false},
		{"2024-05-01T14:00:00+02:00", 1714564800, false},
		{"yesterday", 0, true},
		{"1969-12-31T00:00:00Z", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseTimestamp(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("%q: got %d, want %d", tc.in, got, tc.want)
		}
	}
}
