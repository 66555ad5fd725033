package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"safetyintel/internal/domain"
	"safetyintel/internal/recordstore"
)

// Storage is a minimal REST client to a Qdrant collection of incident points.
// It assumes cosine distance and stores the incident as the point payload.
type Storage struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

func NewStorage(cfg Config) *Storage {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Storage{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

// Init drops and recreates the collection, then indexes the payload fields
// used by range and geo filters.
func (s *Storage) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return recordstore.ErrInvalidDimension
	}
	if err := s.do(ctx, http.MethodDelete, s.collectionURL(), nil, nil, http.StatusNotFound); err != nil {
		return err
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	if err := s.do(ctx, http.MethodPut, s.collectionURL(), body, nil); err != nil {
		return err
	}
	indexes := []struct{ field, schema string }{
		{"timestamp", "integer"},
		{"area", "keyword"},
		{"location", "geo"},
	}
	for _, idx := range indexes {
		req := map[string]any{"field_name": idx.field, "field_schema": idx.schema}
		if err := s.do(ctx, http.MethodPut, s.collectionURL()+"/index?wait=true", req, nil); err != nil {
			return err
		}
	}
	return nil
}

func (s *Storage) Upsert(ctx context.Context, points []domain.Point) error {
	if len(points) == 0 {
		return nil
	}
	body := make([]map[string]any, len(points))
	for i, p := range points {
		body[i] = map[string]any{
			"id":      p.ID,
			"vector":  p.Vector,
			"payload": p.Incident,
		}
	}
	return s.do(ctx, http.MethodPut, s.collectionURL()+"/points?wait=true", map[string]any{"points": body}, nil)
}

type queryResponse struct {
	Result struct {
		Points []struct {
			Score   float64         `json:"score"`
			Payload domain.Incident `json:"payload"`
		} `json:"points"`
	} `json:"result"`
}

// Query runs a universal query: nearest-neighbour ranked when q.Vector is
// set, filter-only otherwise.
func (s *Storage) Query(ctx context.Context, q domain.RecordQuery) ([]domain.SearchResult, error) {
	req := map[string]any{
		"with_payload": true,
	}
	if q.Limit > 0 {
		req["limit"] = q.Limit
	}
	if q.Vector != nil {
		req["query"] = q.Vector
	}
	if f := buildFilter(q); f != nil {
		req["filter"] = f
	}
	var resp queryResponse
	if err := s.do(ctx, http.MethodPost, s.collectionURL()+"/points/query", req, &resp); err != nil {
		return nil, err
	}
	results := make([]domain.SearchResult, 0, len(resp.Result.Points))
	for _, p := range resp.Result.Points {
		results = append(results, domain.SearchResult{Incident: p.Payload.Normalize(), Score: p.Score})
	}
	return results, nil
}

func (s *Storage) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func buildFilter(q domain.RecordQuery) map[string]any {
	var must []map[string]any
	if q.Window != nil {
		rng := map[string]any{"gte": q.Window.From}
		if q.Window.Until != 0 {
			rng["lt"] = q.Window.Until
		}
		must = append(must, map[string]any{"key": "timestamp", "range": rng})
	}
	if q.Geo != nil {
		must = append(must, map[string]any{
			"key": "location",
			"geo_radius": map[string]any{
				"center": map[string]any{"lat": q.Geo.Lat, "lon": q.Geo.Lon},
				"radius": q.Geo.RadiusKm * 1000,
			},
		})
	}
	if len(must) == 0 {
		return nil
	}
	return map[string]any{"must": must}
}

func (s *Storage) collectionURL() string {
	return fmt.Sprintf("%s/collections/%s", s.url, s.collection)
}

// do sends a JSON request and decodes the response into out when non-nil.
// Status codes listed in allow are treated as success.
func (s *Storage) do(ctx context.Context, method, url string, body, out any, allow ...int) error {
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode qdrant request: %w", err)
		}
		rdr = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s %s: %w", method, url, err)
	}
	defer resp.Body.Close()
	for _, code := range allow {
		if resp.StatusCode == code {
			return nil
		}
	}
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("qdrant %s %s failed: %s: %s", method, url, resp.Status, bytes.TrimSpace(msg))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode qdrant response: %w", err)
		}
	}
	return nil
}
