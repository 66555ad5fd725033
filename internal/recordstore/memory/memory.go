package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"safetyintel/internal/domain"
	"safetyintel/internal/recordstore"
)

const earthRadiusKm = 6371.0

// Storage is an in-memory record store using brute-force cosine similarity.
type Storage struct {
	mu        sync.RWMutex
	dimension int
	points    []domain.Point
	index     map[string]int
}

func NewStorage() *Storage { return &Storage{index: make(map[string]int)} }

func (s *Storage) Init(_ context.Context, dimension int) error {
	if dimension <= 0 {
		return recordstore.ErrInvalidDimension
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dimension
	s.points = nil
	s.index = make(map[string]int)
	return nil
}

func (s *Storage) Upsert(_ context.Context, points []domain.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range points {
		if s.dimension > 0 && len(p.Vector) != s.dimension {
			return recordstore.ErrDimensionMismatch
		}
	}
	for _, p := range points {
		if i, ok := s.index[p.ID]; ok {
			s.points[i] = p
			continue
		}
		s.index[p.ID] = len(s.points)
		s.points = append(s.points, p)
	}
	return nil
}

// Query applies the time and geo filters, then ranks by cosine similarity
// when a vector is given. Filter-only results keep insertion order.
func (s *Storage) Query(ctx context.Context, q domain.RecordQuery) ([]domain.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]domain.SearchResult, 0)
	for _, p := range s.points {
		inc := p.Incident
		if q.Window != nil && !q.Window.Contains(inc.Timestamp) {
			continue
		}
		if q.Geo != nil && haversine(q.Geo.Lat, q.Geo.Lon, inc.Location.Lat, inc.Location.Lon) > q.Geo.RadiusKm {
			continue
		}
		score := 0.0
		if q.Vector != nil {
			score = cosine(p.Vector, q.Vector)
		}
		results = append(results, domain.SearchResult{Incident: inc.Normalize(), Score: score})
	}
	if q.Vector != nil {
		sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	}
	if q.Limit > 0 && len(results) > q.Limit {
		results = results[:q.Limit]
	}
	return results, nil
}

func (s *Storage) Close() error { return nil }

// Len reports the number of stored points.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// haversine returns the great-circle distance in kilometres.
func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}
