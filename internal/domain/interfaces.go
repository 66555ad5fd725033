package domain

import "context"

// TimeWindow bounds incident timestamps to [From, Until). Until == 0 leaves
// the window open-ended.
type TimeWindow struct {
	From  int64
	Until int64
}

// Contains reports whether ts falls inside the window.
func (w TimeWindow) Contains(ts int64) bool {
	if ts < w.From {
		return false
	}
	return w.Until == 0 || ts < w.Until
}

// GeoRadius restricts results to a circle around a center point.
type GeoRadius struct {
	Lat      float64
	Lon      float64
	RadiusKm float64
}

// RecordQuery describes a read against the record store. A nil Vector means
// filter-only retrieval.
type RecordQuery struct {
	Window *TimeWindow
	Geo    *GeoRadius
	Vector []float32
	Limit  int
}

// RecordSource is the read side of the incident store.
type RecordSource interface {
	Query(ctx context.Context, q RecordQuery) ([]SearchResult, error)
}

// Embedder converts free text into a fixed-length numeric vector.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float32, error)
}

// SearchParams are the inputs of a semantic incident search. Geo filtering
// applies only when Lat, Lon and RadiusKm are all set.
type SearchParams struct {
	Query    string
	Lat      *float64
	Lon      *float64
	RadiusKm *float64
	Days     *int
	Limit    int
}

// RiskParams configures the risk scorer. A zero Days and nil weights take
// the defaults; an explicit zero weight drops that term from the score.
type RiskParams struct {
	Days            int
	FrequencyWeight *float64
	SeverityWeight  *float64
}

// SafetyService defines the operations exposed by the application core.
type SafetyService interface {
	Search(ctx context.Context, p SearchParams) ([]SearchResult, error)
	Hotspots(ctx context.Context, days, threshold int) ([]Hotspot, error)
	Trends(ctx context.Context, windowDays int) ([]TrendResult, error)
	RiskScores(ctx context.Context, p RiskParams) ([]RiskResult, error)
	Patrols(ctx context.Context, days int) ([]PatrolRecommendation, error)
}
