package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"safetyintel/internal/analytics"
	"safetyintel/internal/config"
	"safetyintel/internal/domain"
	"safetyintel/internal/embedding/hash"
	"safetyintel/internal/embedding/ollama"
	"safetyintel/internal/embedding/openai"
	"safetyintel/internal/ingest"
	"safetyintel/internal/recordstore"
	"safetyintel/internal/recordstore/memory"
	"safetyintel/internal/recordstore/postgres"
	"safetyintel/internal/recordstore/qdrant"
	"safetyintel/internal/server/handlers"
	"safetyintel/internal/service"
)

var (
	ErrUnknownEmbedder = errors.New("unknown embedder")
	ErrUnknownStore    = errors.New("unknown record store")
)

func newEmbedder(cfg config.EmbedderConfig) (domain.Embedder, error) {
	switch cfg.Type {
	case "hash", "":
		return hash.NewEmbedder(cfg.Dimension)
	case "openai":
		if cfg.OpenAI == nil {
			return nil, errors.New("openai embedder config missing")
		}
		return openai.NewClient(openai.Config{
			BaseURL:   cfg.OpenAI.BaseURL,
			APIKeyEnv: cfg.OpenAI.APIKeyEnv,
			Model:     cfg.OpenAI.Model,
			Dimension: cfg.Dimension,
			Timeout:   time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second,
		})
	case "ollama":
		if cfg.Ollama == nil {
			return nil, errors.New("ollama embedder config missing")
		}
		return ollama.NewClient(ollama.Config{
			BaseURL:   cfg.Ollama.BaseURL,
			Model:     cfg.Ollama.Model,
			Dimension: cfg.Dimension,
			Timeout:   time.Duration(cfg.Ollama.TimeoutSecs) * time.Second,
		})
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEmbedder, cfg.Type)
	}
}

func newStore(ctx context.Context, cfg config.RecordStoreConfig) (recordstore.Storage, error) {
	switch cfg.Type {
	case "memory", "":
		return memory.NewStorage(), nil
	case "qdrant":
		if cfg.Qdrant == nil {
			return nil, errors.New("qdrant config missing")
		}
		return qdrant.NewStorage(qdrant.Config{
			URL:        cfg.Qdrant.URL,
			APIKey:     cfg.Qdrant.APIKey,
			Collection: cfg.Qdrant.Collection,
			Timeout:    time.Duration(cfg.Qdrant.TimeoutSecs) * time.Second,
		}), nil
	case "postgres":
		if cfg.Postgres == nil {
			return nil, errors.New("postgres config missing")
		}
		dsn := os.Getenv(cfg.Postgres.DSNEnv)
		if dsn == "" {
			return nil, fmt.Errorf("missing postgres DSN in env %s", cfg.Postgres.DSNEnv)
		}
		return postgres.NewStorage(ctx, postgres.Config{
			DSN:      dsn,
			Table:    cfg.Postgres.Table,
			MaxConns: int32(cfg.Postgres.MaxConns),
		})
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownStore, cfg.Type)
	}
}

// newService assembles the application core from appCfg. The in-memory
// store starts empty in every process, so unless the caller is about to
// load data itself it is seeded from the ingest path.
func newService(ctx context.Context, seedMemory bool) (*service.SafetyServiceImpl, error) {
	emb, err := newEmbedder(appCfg.Embedder)
	if err != nil {
		return nil, fmt.Errorf("embedder init failed: %w", err)
	}
	st, err := newStore(ctx, appCfg.RecordStore)
	if err != nil {
		return nil, fmt.Errorf("record store init failed: %w", err)
	}

	a := appCfg.Analytics
	engine := analytics.NewEngine(st, analytics.Config{
		FetchLimit:       a.FetchLimit,
		TrendWindowDays:  a.TrendWindowDays,
		RiskDays:         a.RiskDays,
		HotspotDays:      a.HotspotDays,
		HotspotThreshold: a.HotspotThreshold,
		FrequencyWeight:  a.FrequencyWeight,
		SeverityWeight:   a.SeverityWeight,
	}, logger)

	svc := service.NewSafetyService(emb, st, engine, service.Config{
		SearchLimit: a.SearchLimit,
		FetchLimit:  a.FetchLimit,
		Ingest: ingest.Config{
			Concurrency: appCfg.Ingest.Concurrency,
			BatchSize:   appCfg.Ingest.BatchSize,
		},
	}, logger)

	if seedMemory && isMemoryStore(appCfg.RecordStore) {
		n, err := svc.Setup(ctx, appCfg.Ingest.Path)
		if err != nil {
			_ = svc.Close()
			return nil, fmt.Errorf("seed in-memory store: %w", err)
		}
		logger.Info("seeded in-memory store", "path", appCfg.Ingest.Path, "count", n)
	}
	return svc, nil
}

func isMemoryStore(cfg config.RecordStoreConfig) bool {
	return cfg.Type == "memory" || cfg.Type == ""
}

func handlerDefaults() handlers.Defaults {
	a := appCfg.Analytics
	return handlers.Defaults{
		HotspotDays:      a.HotspotDays,
		HotspotThreshold: a.HotspotThreshold,
		TrendWindowDays:  a.TrendWindowDays,
		RiskDays:         a.RiskDays,
	}
}
