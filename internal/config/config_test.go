package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if cfg.Embedder.Type != "hash" || cfg.Embedder.Dimension != 256 {
		t.Fatalf("unexpected embedder defaults: %+v", cfg.Embedder)
	}
	if cfg.RecordStore.Type != "memory" {
		t.Fatalf("expected memory store, got %q", cfg.RecordStore.Type)
	}
	a := cfg.Analytics
	if a.FetchLimit != 1000 || a.SearchLimit != 5 || a.TrendWindowDays != 15 || a.RiskDays != 30 {
		t.Fatalf("unexpected analytics defaults: %+v", a)
	}
	if a.HotspotThreshold != 3 || a.FrequencyWeight != 5 || a.SeverityWeight != 7 {
		t.Fatalf("unexpected analytics weights: %+v", a)
	}
	if cfg.Server.SearchRatePerMinute != 10 {
		t.Fatalf("expected 10 searches/minute, got %d", cfg.Server.SearchRatePerMinute)
	}
}

func TestLoad_PartialFileAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
embedder:
  type: openai
record_store:
  type: qdrant
  qdrant:
    collection: incidents_test
analytics:
  fetch_limit: 5000
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Embedder.Dimension != 1536 {
		t.Fatalf("expected openai dimension 1536, got %d", cfg.Embedder.Dimension)
	}
	if cfg.Embedder.OpenAI == nil || cfg.Embedder.OpenAI.APIKeyEnv != "OPENAI_API_KEY" {
		t.Fatalf("openai defaults not applied: %+v", cfg.Embedder.OpenAI)
	}
	q := cfg.RecordStore.Qdrant
	if q.URL != "http://localhost:6333" || q.Collection != "incidents_test" {
		t.Fatalf("unexpected qdrant config: %+v", q)
	}
	if cfg.Analytics.FetchLimit != 5000 {
		t.Fatalf("expected explicit fetch limit to survive, got %d", cfg.Analytics.FetchLimit)
	}
	if cfg.Analytics.RiskDays != 30 {
		t.Fatalf("expected default risk days, got %d", cfg.Analytics.RiskDays)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("embedder: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SAFETYINTEL_RECORD_STORE", "qdrant")
	t.Setenv("SAFETYINTEL_QDRANT_URL", "http://qdrant:6333")
	t.Setenv("SAFETYINTEL_LOG_LEVEL", "DEBUG")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.RecordStore.Type != "qdrant" || cfg.RecordStore.Qdrant.URL != "http://qdrant:6333" {
		t.Fatalf("store override not applied: %+v", cfg.RecordStore)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("expected debug log level, got %q", cfg.Log.Level)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultConfig()
	cfg.Analytics.HotspotThreshold = 7
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Analytics.HotspotThreshold != 7 {
		t.Fatalf("expected threshold 7, got %d", loaded.Analytics.HotspotThreshold)
	}
}
