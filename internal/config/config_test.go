package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"factor-eval-lab/internal/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Evaluation.Buckets != 10 || cfg.Evaluation.LongPercentile != 90 {
		t.Errorf("unexpected defaults: %+v", cfg.Evaluation)
	}
	if cfg.Storage.ClickhouseDSN != "" || cfg.Metrics.Addr != "" {
		t.Errorf("expected empty storage/metrics defaults: %+v", cfg)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
evaluation:
  buckets: 5
  benchmark_return: 0.0004
  invert_factor: true
  smoothing:
    enabled: true
    window: 10
    methods:
      - name: rolling_mean
      - name: ema
        alpha: 0.3
storage:
  clickhouse_dsn: clickhouse://localhost:9000/factors
  postgres_dsn: postgres://localhost:5432/results
output:
  dir: ./out
metrics:
  addr: :9100
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Evaluation.Buckets != 5 {
		t.Errorf("expected 5 buckets, got %d", cfg.Evaluation.Buckets)
	}
	// Untouched fields keep their defaults
	if cfg.Evaluation.LongPercentile != 90 || cfg.Evaluation.ShortPercentile != 10 {
		t.Errorf("percentile defaults lost: %+v", cfg.Evaluation)
	}
	if cfg.Evaluation.BenchmarkReturn != 0.0004 || !cfg.Evaluation.InvertFactor {
		t.Errorf("unexpected evaluation config: %+v", cfg.Evaluation)
	}
	if !cfg.Evaluation.Smoothing.Enabled || cfg.Evaluation.Smoothing.Window != 10 {
		t.Errorf("unexpected smoothing config: %+v", cfg.Evaluation.Smoothing)
	}
	if len(cfg.Evaluation.Smoothing.Methods) != 2 ||
		cfg.Evaluation.Smoothing.Methods[0].Name != domain.SmoothRollingMean ||
		cfg.Evaluation.Smoothing.Methods[1].Alpha != 0.3 {
		t.Errorf("unexpected smoothing methods: %+v", cfg.Evaluation.Smoothing.Methods)
	}
	if cfg.Storage.ClickhouseDSN != "clickhouse://localhost:9000/factors" {
		t.Errorf("unexpected clickhouse dsn: %s", cfg.Storage.ClickhouseDSN)
	}
	if cfg.Output.Dir != "./out" || cfg.Metrics.Addr != ":9100" {
		t.Errorf("unexpected output/metrics config: %+v", cfg)
	}
}

func TestLoad_InvalidEvaluationRejected(t *testing.T) {
	path := writeConfig(t, `
evaluation:
  buckets: 1
`)
	_, err := Load(path)
	var cfgErr *domain.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if cfgErr.Field != "buckets" {
		t.Errorf("expected buckets field, got %s", cfgErr.Field)
	}
}

func TestLoad_InvalidSmoothingMethodRejected(t *testing.T) {
	path := writeConfig(t, `
evaluation:
  smoothing:
    methods:
      - name: median
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown smoothing method")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "evaluation: [not a map")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}
