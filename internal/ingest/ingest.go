// Package ingest loads incident records, embeds their descriptions and
// writes them into a freshly initialised record store.
package ingest

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"safetyintel/internal/domain"
	"safetyintel/internal/recordstore"
)

type Config struct {
	Concurrency int
	BatchSize   int
}

type Ingester struct {
	embedder domain.Embedder
	store    recordstore.Storage
	cfg      Config
	logger   *log.Logger
}

func New(embedder domain.Embedder, store recordstore.Storage, cfg Config, logger *log.Logger) *Ingester {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 64
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Ingester{embedder: embedder, store: store, cfg: cfg, logger: logger}
}

// Run recreates the store sized to the embedder and loads incidents into it.
// It returns the number of points written.
func (in *Ingester) Run(ctx context.Context, incidents []domain.Incident) (int, error) {
	if err := in.store.Init(ctx, in.embedder.Dimension()); err != nil {
		return 0, fmt.Errorf("init record store: %w", err)
	}
	if len(incidents) == 0 {
		return 0, nil
	}

	points := make([]domain.Point, len(incidents))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(in.cfg.Concurrency)
	for i := range incidents {
		g.Go(func() error {
			vec, err := in.embedder.Embed(gctx, incidents[i].Description)
			if err != nil {
				return fmt.Errorf("embed incident %q: %w", incidents[i].ID, err)
			}
			points[i] = domain.Point{ID: uuid.NewString(), Vector: vec, Incident: incidents[i]}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	written := 0
	for start := 0; start < len(points); start += in.cfg.BatchSize {
		end := min(start+in.cfg.BatchSize, len(points))
		if err := in.store.Upsert(ctx, points[start:end]); err != nil {
			return written, fmt.Errorf("upsert batch %d-%d: %w", start, end, err)
		}
		written = end
		in.logger.Debug("upserted batch", "from", start, "to", end, "total", len(points))
	}
	in.logger.Info("ingested incidents", "count", written, "embedder", in.embedder.Name())
	return written, nil
}
