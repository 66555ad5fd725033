package hash

import (
	"context"
	"math"
	"testing"
)

func TestNewEmbedder_InvalidDimension(t *testing.T) {
	if _, err := NewEmbedder(0); err == nil {
		t.Fatal("expected error for zero dimension")
	}
}

func TestEmbed_DeterministicAndNormalized(t *testing.T) {
	e, err := NewEmbedder(64)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	a, err := e.Embed(ctx, "Armed robbery near the pier at night")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := e.Embed(ctx, "Armed robbery near the pier at night")
	if len(a) != 64 {
		t.Fatalf("expected 64 dims, got %d", len(a))
	}
	norm := 0.0
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("embedding differs at %d", i)
		}
		norm += float64(a[i]) * float64(a[i])
	}
	if math.Abs(norm-1) > 1e-5 {
		t.Fatalf("expected unit norm, got %f", norm)
	}
}

func TestEmbed_StopwordsOnlyIsZeroVector(t *testing.T) {
	e, _ := NewEmbedder(16)
	vec, err := e.Embed(context.Background(), "the and of")
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range vec {
		if v != 0 {
			t.Fatalf("expected zero vector, got %f at %d", v, i)
		}
	}
}

func TestEmbed_SimilarTextsScoreHigher(t *testing.T) {
	e, _ := NewEmbedder(256)
	ctx := context.Background()
	q, _ := e.Embed(ctx, "car theft downtown")
	near, _ := e.Embed(ctx, "car theft reported downtown parking")
	far, _ := e.Embed(ctx, "noise complaint residential")
	if dot(q, near) <= dot(q, far) {
		t.Fatalf("expected related text to score higher: near=%f far=%f", dot(q, near), dot(q, far))
	}
}

func dot(a, b []float32) float64 {
	s := 0.0
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}
