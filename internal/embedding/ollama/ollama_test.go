package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestEmbed_UsesFirstEmbedding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			http.NotFound(w, r)
			return
		}
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["model"] != "nomic-embed-text" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"nomic-embed-text","embeddings":[[0.1,0.2,0.3,0.4]]}`))
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL, Model: "nomic-embed-text", Dimension: 3})
	if err != nil {
		t.Fatal(err)
	}
	vec, err := c.Embed(context.Background(), "vandalism at the station")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(vec) != 3 {
		t.Fatalf("expected truncation to 3 dims, got %d", len(vec))
	}
	if vec[0] != float32(0.1) || vec[2] != float32(0.3) {
		t.Fatalf("unexpected vector %v", vec)
	}
}

func TestEmbed_EmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"m","embeddings":[]}`))
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL, Model: "m", Dimension: 3})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Embed(context.Background(), "x"); err == nil {
		t.Fatal("expected error for empty embeddings")
	}
}

func TestNewClient_InvalidDimension(t *testing.T) {
	if _, err := NewClient(Config{Dimension: 0}); err == nil {
		t.Fatal("expected error")
	}
}
