package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"safetyintel/internal/analytics"
	"safetyintel/internal/domain"
	"safetyintel/internal/embedding/hash"
	"safetyintel/internal/logging"
	"safetyintel/internal/recordstore/memory"
)

const nowUnix = int64(1_700_000_000)

func clock() time.Time { return time.Unix(nowUnix, 0) }

var fixtures = []domain.Incident{
	{ID: "INC-1", Description: "Armed robbery at a convenience store", CrimeType: "robbery", Area: "Downtown",
		Location: domain.Location{Lat: 40.7128, Lon: -74.0060}, Timestamp: nowUnix - 86400, Severity: domain.SeverityHigh},
	{ID: "INC-2", Description: "Bicycle stolen outside the library", CrimeType: "theft", Area: "Pier",
		Location: domain.Location{Lat: 40.7000, Lon: -74.0100}, Timestamp: nowUnix - 10*86400, Severity: domain.SeverityLow},
	{ID: "INC-3", Description: "Shoplifting reported in a mall", CrimeType: "theft", Area: "Westside",
		Location: domain.Location{Lat: 34.0522, Lon: -118.2437}, Timestamp: nowUnix - 2*86400, Severity: domain.SeverityMedium},
}

func newService(t *testing.T, incidents ...domain.Incident) *SafetyServiceImpl {
	t.Helper()
	emb, err := hash.NewEmbedder(256)
	if err != nil {
		t.Fatal(err)
	}
	store := memory.NewStorage()
	ctx := context.Background()
	if err := store.Init(ctx, emb.Dimension()); err != nil {
		t.Fatal(err)
	}
	for i, inc := range incidents {
		vec, err := emb.Embed(ctx, inc.Description)
		if err != nil {
			t.Fatal(err)
		}
		if err := store.Upsert(ctx, []domain.Point{{ID: fmt.Sprint(i), Vector: vec, Incident: inc}}); err != nil {
			t.Fatal(err)
		}
	}
	engine := analytics.NewEngine(store, analytics.DefaultConfig(), logging.Discard(), analytics.WithClock(clock))
	svc := NewSafetyService(emb, store, engine, Config{}, logging.Discard())
	svc.now = clock
	return svc
}

func TestSearch_EmptyQuery(t *testing.T) {
	svc := newService(t, fixtures...)
	if _, err := svc.Search(context.Background(), domain.SearchParams{Query: "   "}); !errors.Is(err, ErrEmptyQuery) {
		t.Fatalf("expected ErrEmptyQuery, got %v", err)
	}
}

func TestSearch_RanksBySimilarity(t *testing.T) {
	svc := newService(t, fixtures...)
	res, err := svc.Search(context.Background(), domain.SearchParams{Query: "armed robbery"})
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 3 {
		t.Fatalf("expected all 3 incidents under the default limit, got %d", len(res))
	}
	if res[0].Incident.ID != "INC-1" || res[0].Score <= 0 {
		t.Fatalf("expected INC-1 first with positive score, got %+v", res[0])
	}
}

func TestSearch_DaysAndGeoFilters(t *testing.T) {
	svc := newService(t, fixtures...)
	days := 5
	res, err := svc.Search(context.Background(), domain.SearchParams{Query: "theft", Days: &days})
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range res {
		if r.Incident.ID == "INC-2" {
			t.Fatal("incident older than 5 days must be filtered out")
		}
	}

	lat, lon, radius := 40.71, -74.0, 5.0
	res, err = svc.Search(context.Background(), domain.SearchParams{Query: "theft", Lat: &lat, Lon: &lon, RadiusKm: &radius, Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 2 {
		t.Fatalf("expected the two New York incidents, got %d", len(res))
	}
}

func TestSearch_PartialGeoIsIgnored(t *testing.T) {
	svc := newService(t, fixtures...)
	lat := 40.71
	res, err := svc.Search(context.Background(), domain.SearchParams{Query: "theft", Lat: &lat})
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 3 {
		t.Fatalf("geo filter needs lat, lon and radius; got %d results", len(res))
	}
}

func TestSearch_LexicalFallbackForStopwordQuery(t *testing.T) {
	svc := newService(t, fixtures...)
	res, err := svc.Search(context.Background(), domain.SearchParams{Query: "the", Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 1 || res[0].Incident.ID != "INC-2" || res[0].Score <= 0 {
		t.Fatalf("expected word-overlap match on INC-2, got %+v", res)
	}
}

func TestAnalyticsDelegation(t *testing.T) {
	svc := newService(t, fixtures...)
	ctx := context.Background()

	hs, err := svc.Hotspots(ctx, 30, 1)
	if err != nil || len(hs) != 3 {
		t.Fatalf("hotspots: %v %v", hs, err)
	}
	ts, err := svc.Trends(ctx, 15)
	if err != nil || len(ts) != 3 {
		t.Fatalf("trends: %v %v", ts, err)
	}
	rs, err := svc.RiskScores(ctx, domain.RiskParams{Days: 30})
	if err != nil || len(rs) != 3 || rs[0].Area != "Downtown" {
		t.Fatalf("risk: %+v %v", rs, err)
	}
	ps, err := svc.Patrols(ctx, 30)
	if err != nil || len(ps) != 3 || ps[0].Explanation == "" {
		t.Fatalf("patrols: %+v %v", ps, err)
	}
}

func TestSetup_LoadsFile(t *testing.T) {
	svc := newService(t)
	path := filepath.Join(t.TempDir(), "reports.json")
	data := `[{"incident_id":"A","description":"Car break-in","crime_type":"burglary","area":"Harbor",
		"location":{"lat":"1.5","lon":"2.5"},"timestamp":1699990000,"severity":"medium"}]`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	n, err := svc.Setup(context.Background(), path)
	if err != nil || n != 1 {
		t.Fatalf("setup: %d %v", n, err)
	}
	res, err := svc.Search(context.Background(), domain.SearchParams{Query: "car break-in"})
	if err != nil || len(res) != 1 || res[0].Incident.Area != "Harbor" {
		t.Fatalf("search after setup: %+v %v", res, err)
	}
}

func TestSetup_MissingFile(t *testing.T) {
	svc := newService(t)
	if _, err := svc.Setup(context.Background(), filepath.Join(t.TempDir(), "nope.json")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

// gatedSource blocks every query until release is closed or the caller's
// context ends.
type gatedSource struct {
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func newGatedSource() *gatedSource {
	return &gatedSource{entered: make(chan struct{}, 8), release: make(chan struct{})}
}

func (g *gatedSource) Query(ctx context.Context, _ domain.RecordQuery) ([]domain.SearchResult, error) {
	g.calls.Add(1)
	g.entered <- struct{}{}
	select {
	case <-g.release:
		return []domain.SearchResult{}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *gatedSource) waitEntered(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-g.entered:
		case <-time.After(2 * time.Second):
			t.Fatalf("only %d of %d calls reached the record source", i, n)
		}
	}
}

func newGatedService(t *testing.T, src *gatedSource) *SafetyServiceImpl {
	t.Helper()
	emb, err := hash.NewEmbedder(64)
	if err != nil {
		t.Fatal(err)
	}
	engine := analytics.NewEngine(src, analytics.DefaultConfig(), logging.Discard(), analytics.WithClock(clock))
	return NewSafetyService(emb, memory.NewStorage(), engine, Config{}, logging.Discard())
}

func TestConcurrentAnalyticsReadsFetchIndependently(t *testing.T) {
	src := newGatedSource()
	svc := newGatedService(t, src)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Hotspots(context.Background(), 30, 3)
			errs <- err
		}()
	}
	src.waitEntered(t, 2)
	close(src.release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatal(err)
		}
	}
	if n := src.calls.Load(); n != 2 {
		t.Fatalf("expected each call to query the source, got %d queries", n)
	}
}

func TestCanceledCallerDoesNotFailConcurrentCaller(t *testing.T) {
	src := newGatedSource()
	svc := newGatedService(t, src)

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()
	errA := make(chan error, 1)
	errB := make(chan error, 1)
	go func() {
		_, err := svc.Hotspots(ctxA, 30, 3)
		errA <- err
	}()
	src.waitEntered(t, 1)
	go func() {
		_, err := svc.Hotspots(context.Background(), 30, 3)
		errB <- err
	}()
	src.waitEntered(t, 1)

	cancelA()
	if err := <-errA; !errors.Is(err, context.Canceled) {
		t.Fatalf("canceled caller: expected context.Canceled, got %v", err)
	}
	close(src.release)
	if err := <-errB; err != nil {
		t.Fatalf("live caller failed: %v", err)
	}
}
