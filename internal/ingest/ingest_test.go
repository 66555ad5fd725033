package ingest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"safetyintel/internal/domain"
	"safetyintel/internal/embedding/hash"
	"safetyintel/internal/logging"
	"safetyintel/internal/recordstore/memory"
)

const sample = `[
  {"incident_id": "INC-1", "description": "Armed robbery at a convenience store", "crime_type": "robbery",
   "area": "Downtown", "location": {"lat": "40.7128", "lon": "-74.0060"}, "timestamp": 1700000000, "severity": "high"},
  {"incident_id": 2, "description": "Bicycle stolen outside the library", "crime_type": "theft",
   "area": "Pier", "location": {"lat": 40.70, "lon": -74.01}, "timestamp": "1700000100", "severity": "low"},
  {"incident_id": "INC-3", "description": "Noise complaint", "crime_type": "disturbance",
   "location": {"lat": null, "lon": null}, "timestamp": 1700000200}
]`

func TestLoad_FlexibleFields(t *testing.T) {
	incs, err := Load(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(incs) != 3 {
		t.Fatalf("expected 3 incidents, got %d", len(incs))
	}
	if incs[0].Location.Lat != 40.7128 || incs[0].Location.Lon != -74.006 {
		t.Fatalf("string coordinates not parsed: %+v", incs[0].Location)
	}
	if incs[1].ID != "2" || incs[1].Timestamp != 1700000100 {
		t.Fatalf("numeric id or string timestamp not parsed: %+v", incs[1])
	}
	if incs[2].Area != "" || incs[2].Severity != "" {
		t.Fatalf("missing fields must stay empty until normalised: %+v", incs[2])
	}
}

func TestLoad_Invalid(t *testing.T) {
	if _, err := Load(strings.NewReader(`{"not": "an array"}`)); err == nil {
		t.Fatal("expected error for non-array input")
	}
	if _, err := Load(strings.NewReader(`[{"location": {"lat": "north"}}]`)); err == nil {
		t.Fatal("expected error for non-numeric latitude")
	}
}

func TestRun_EmbedsAndUpsertsInBatches(t *testing.T) {
	incs, err := Load(strings.NewReader(sample))
	if err != nil {
		t.Fatal(err)
	}
	emb, err := hash.NewEmbedder(32)
	if err != nil {
		t.Fatal(err)
	}
	store := memory.NewStorage()
	rec := &recordingStore{Storage: store}
	in := New(emb, rec, Config{Concurrency: 2, BatchSize: 2}, logging.Discard())

	n, err := in.Run(context.Background(), incs)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if n != 3 || store.Len() != 3 {
		t.Fatalf("expected 3 points, wrote %d, stored %d", n, store.Len())
	}
	if len(rec.batches) != 2 || rec.batches[0] != 2 || rec.batches[1] != 1 {
		t.Fatalf("expected batches [2 1], got %v", rec.batches)
	}
	for _, p := range rec.points {
		if _, err := uuid.Parse(p.ID); err != nil {
			t.Fatalf("point id %q is not a uuid", p.ID)
		}
		if len(p.Vector) != 32 {
			t.Fatalf("vector dimension %d, want 32", len(p.Vector))
		}
	}

	res, err := store.Query(context.Background(), domain.RecordQuery{})
	if err != nil {
		t.Fatal(err)
	}
	if res[2].Incident.Area != domain.UnknownArea {
		t.Fatalf("expected incident without area in unknown bucket, got %q", res[2].Incident.Area)
	}
}

func TestRun_EmbedErrorAborts(t *testing.T) {
	boom := errors.New("quota exceeded")
	store := memory.NewStorage()
	in := New(failingEmbedder{err: boom}, store, Config{}, logging.Discard())
	_, err := in.Run(context.Background(), []domain.Incident{{ID: "a"}, {ID: "b"}})
	if !errors.Is(err, boom) {
		t.Fatalf("expected embed error, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatal("nothing should be written after an embed failure")
	}
}

func TestRun_EmptyInputStillInitialises(t *testing.T) {
	rec := &recordingStore{Storage: memory.NewStorage()}
	emb, _ := hash.NewEmbedder(8)
	n, err := New(emb, rec, Config{}, logging.Discard()).Run(context.Background(), nil)
	if err != nil || n != 0 {
		t.Fatalf("got %d, %v", n, err)
	}
	if rec.initDim != 8 {
		t.Fatalf("expected init with dimension 8, got %d", rec.initDim)
	}
}

type recordingStore struct {
	*memory.Storage
	mu      sync.Mutex
	initDim int
	batches []int
	points  []domain.Point
}

func (r *recordingStore) Init(ctx context.Context, dim int) error {
	r.initDim = dim
	return r.Storage.Init(ctx, dim)
}

func (r *recordingStore) Upsert(ctx context.Context, points []domain.Point) error {
	r.mu.Lock()
	r.batches = append(r.batches, len(points))
	r.points = append(r.points, points...)
	r.mu.Unlock()
	return r.Storage.Upsert(ctx, points)
}

type failingEmbedder struct{ err error }

func (failingEmbedder) Name() string   { return "failing" }
func (failingEmbedder) Dimension() int { return 4 }
func (f failingEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, f.err
}
