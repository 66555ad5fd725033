package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"safetyintel/internal/domain"
	"safetyintel/internal/recordstore"
)

var _ recordstore.Storage = (*Storage)(nil)

type captured struct {
	method string
	path   string
	body   map[string]any
}

func newServer(t *testing.T, reply string, status int) (*httptest.Server, *[]captured) {
	t.Helper()
	var calls []captured
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := captured{method: r.Method, path: r.URL.Path}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&c.body)
		}
		calls = append(calls, c)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestQuery_FilterOnlyWindow(t *testing.T) {
	reply := `{"status":"ok","result":{"points":[
		{"id":"a","payload":{"incident_id":"INC-1","area":"Downtown","severity":"high","timestamp":150,"location":{"lat":1,"lon":2}}},
		{"id":"b","payload":{"incident_id":"INC-2","severity":"weird","timestamp":160}}
	]}}`
	srv, calls := newServer(t, reply, http.StatusOK)
	s := NewStorage(Config{URL: srv.URL, Collection: "crime_incidents"})

	res, err := s.Query(context.Background(), domain.RecordQuery{
		Window: &domain.TimeWindow{From: 100, Until: 200},
		Limit:  1000,
	})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(*calls) != 1 {
		t.Fatalf("expected one call, got %d", len(*calls))
	}
	c := (*calls)[0]
	if c.method != http.MethodPost || c.path != "/collections/crime_incidents/points/query" {
		t.Fatalf("unexpected request %s %s", c.method, c.path)
	}
	if _, ok := c.body["query"]; ok {
		t.Fatal("filter-only query must not send a vector")
	}
	if c.body["limit"].(float64) != 1000 {
		t.Fatalf("expected limit 1000, got %v", c.body["limit"])
	}
	must := c.body["filter"].(map[string]any)["must"].([]any)
	rng := must[0].(map[string]any)["range"].(map[string]any)
	if rng["gte"].(float64) != 100 || rng["lt"].(float64) != 200 {
		t.Fatalf("unexpected range %v", rng)
	}

	if len(res) != 2 {
		t.Fatalf("expected 2 results, got %d", len(res))
	}
	if res[0].Incident.ID != "INC-1" || res[0].Incident.Severity != domain.SeverityHigh || res[0].Incident.Location.Lon != 2 {
		t.Fatalf("unexpected first incident %+v", res[0].Incident)
	}
	if res[1].Incident.Area != domain.UnknownArea || res[1].Incident.Severity != domain.SeverityLow {
		t.Fatalf("expected normalized second incident, got %+v", res[1].Incident)
	}
}

func TestQuery_VectorAndGeoRadiusInMeters(t *testing.T) {
	srv, calls := newServer(t, `{"result":{"points":[{"id":"a","score":0.93,"payload":{"area":"Pier","severity":"low","timestamp":1}}]}}`, http.StatusOK)
	s := NewStorage(Config{URL: srv.URL, Collection: "c"})

	res, err := s.Query(context.Background(), domain.RecordQuery{
		Vector: []float32{0.1, 0.2},
		Geo:    &domain.GeoRadius{Lat: 40.7, Lon: -74.0, RadiusKm: 2.5},
		Limit:  5,
	})
	if err != nil {
		t.Fatal(err)
	}
	body := (*calls)[0].body
	if q, ok := body["query"].([]any); !ok || len(q) != 2 {
		t.Fatalf("expected query vector, got %v", body["query"])
	}
	must := body["filter"].(map[string]any)["must"].([]any)
	if len(must) != 1 {
		t.Fatalf("expected only the geo condition, got %v", must)
	}
	geo := must[0].(map[string]any)["geo_radius"].(map[string]any)
	if geo["radius"].(float64) != 2500 {
		t.Fatalf("expected radius 2500m, got %v", geo["radius"])
	}
	if len(res) != 1 || res[0].Score != 0.93 {
		t.Fatalf("unexpected results %+v", res)
	}
}

func TestQuery_OpenWindowOmitsUpperBound(t *testing.T) {
	srv, calls := newServer(t, `{"result":{"points":[]}}`, http.StatusOK)
	s := NewStorage(Config{URL: srv.URL, Collection: "c"})
	res, err := s.Query(context.Background(), domain.RecordQuery{Window: &domain.TimeWindow{From: 10}})
	if err != nil {
		t.Fatal(err)
	}
	if res == nil || len(res) != 0 {
		t.Fatalf("expected empty non-nil results, got %v", res)
	}
	rng := (*calls)[0].body["filter"].(map[string]any)["must"].([]any)[0].(map[string]any)["range"].(map[string]any)
	if _, ok := rng["lt"]; ok {
		t.Fatal("open window must not send lt")
	}
}

func TestQuery_ErrorStatusPropagates(t *testing.T) {
	srv, _ := newServer(t, `{"status":{"error":"collection missing"}}`, http.StatusNotFound)
	s := NewStorage(Config{URL: srv.URL, Collection: "c"})
	_, err := s.Query(context.Background(), domain.RecordQuery{})
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected 404 error, got %v", err)
	}
}

func TestInit_RecreatesCollectionAndIndexes(t *testing.T) {
	srv, calls := newServer(t, `{"result":true}`, http.StatusOK)
	s := NewStorage(Config{URL: srv.URL, Collection: "crime_incidents"})
	if err := s.Init(context.Background(), 1536); err != nil {
		t.Fatalf("init: %v", err)
	}
	if len(*calls) != 5 {
		t.Fatalf("expected delete, create and 3 index calls, got %d", len(*calls))
	}
	if (*calls)[0].method != http.MethodDelete {
		t.Fatalf("expected DELETE first, got %s", (*calls)[0].method)
	}
	vectors := (*calls)[1].body["vectors"].(map[string]any)
	if vectors["size"].(float64) != 1536 || vectors["distance"] != "Cosine" {
		t.Fatalf("unexpected vectors config %v", vectors)
	}
}

func TestUpsert_SendsIncidentPayload(t *testing.T) {
	srv, calls := newServer(t, `{"result":{"status":"completed"}}`, http.StatusOK)
	s := NewStorage(Config{URL: srv.URL, Collection: "c"})
	err := s.Upsert(context.Background(), []domain.Point{{
		ID:       "0b6f7d3e-9a43-4b1e-8c0a-2b3c4d5e6f70",
		Vector:   []float32{1, 0},
		Incident: domain.Incident{ID: "INC-9", Area: "Harbor", Severity: domain.SeverityMedium, Timestamp: 42},
	}})
	if err != nil {
		t.Fatal(err)
	}
	points := (*calls)[0].body["points"].([]any)
	payload := points[0].(map[string]any)["payload"].(map[string]any)
	if payload["incident_id"] != "INC-9" || payload["area"] != "Harbor" || payload["timestamp"].(float64) != 42 {
		t.Fatalf("unexpected payload %v", payload)
	}
}
