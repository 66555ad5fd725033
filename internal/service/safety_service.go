package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"safetyintel/internal/analytics"
	"safetyintel/internal/domain"
	"safetyintel/internal/ingest"
	"safetyintel/internal/recordstore"
)

// ErrEmptyQuery is returned by Search for blank query text.
var ErrEmptyQuery = errors.New("query must not be empty")

type Config struct {
	SearchLimit int
	FetchLimit  int
	Ingest      ingest.Config
}

// SafetyServiceImpl wires the embedder, the record store and the analytics
// engine behind domain.SafetyService.
type SafetyServiceImpl struct {
	embedder domain.Embedder
	store    recordstore.Storage
	engine   *analytics.Engine
	cfg      Config
	logger   *log.Logger
	now      func() time.Time
}

func NewSafetyService(embedder domain.Embedder, store recordstore.Storage, engine *analytics.Engine, cfg Config, logger *log.Logger) *SafetyServiceImpl {
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = 5
	}
	if cfg.FetchLimit <= 0 {
		cfg.FetchLimit = engine.Config().FetchLimit
	}
	if logger == nil {
		logger = log.Default()
	}
	return &SafetyServiceImpl{embedder: embedder, store: store, engine: engine, cfg: cfg, logger: logger, now: time.Now}
}

var _ domain.SafetyService = (*SafetyServiceImpl)(nil)

// Setup recreates the record store and loads the incidents found at path.
func (s *SafetyServiceImpl) Setup(ctx context.Context, path string) (int, error) {
	if path == "" {
		path = ingest.DefaultPath
	}
	incidents, err := ingest.LoadFile(path)
	if err != nil {
		return 0, err
	}
	return ingest.New(s.embedder, s.store, s.cfg.Ingest, s.logger).Run(ctx, incidents)
}

// Search ranks incidents by semantic similarity to p.Query, optionally
// restricted to the last p.Days days and to a radius around (Lat, Lon).
// Queries that embed to nothing fall back to word-overlap ranking.
func (s *SafetyServiceImpl) Search(ctx context.Context, p domain.SearchParams) ([]domain.SearchResult, error) {
	if strings.TrimSpace(p.Query) == "" {
		return nil, ErrEmptyQuery
	}
	limit := p.Limit
	if limit <= 0 {
		limit = s.cfg.SearchLimit
	}
	q := domain.RecordQuery{Limit: limit}
	if p.Days != nil {
		q.Window = &domain.TimeWindow{From: s.now().Unix() - int64(*p.Days)*86400}
	}
	if p.Lat != nil && p.Lon != nil && p.RadiusKm != nil {
		q.Geo = &domain.GeoRadius{Lat: *p.Lat, Lon: *p.Lon, RadiusKm: *p.RadiusKm}
	}

	vec, err := s.embedder.Embed(ctx, p.Query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if isZero(vec) {
		return s.lexicalSearch(ctx, p.Query, q)
	}
	q.Vector = vec
	res, err := s.store.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	for _, r := range res {
		if r.Score > 1e-9 {
			return res, nil
		}
	}
	if len(res) == 0 {
		return res, nil
	}
	return s.lexicalSearch(ctx, p.Query, q)
}

func (s *SafetyServiceImpl) Hotspots(ctx context.Context, days, threshold int) ([]domain.Hotspot, error) {
	return s.engine.Hotspots(ctx, days, threshold)
}

func (s *SafetyServiceImpl) Trends(ctx context.Context, windowDays int) ([]domain.TrendResult, error) {
	return s.engine.Trends(ctx, windowDays)
}

func (s *SafetyServiceImpl) RiskScores(ctx context.Context, p domain.RiskParams) ([]domain.RiskResult, error) {
	return s.engine.RiskScores(ctx, p)
}

func (s *SafetyServiceImpl) Patrols(ctx context.Context, days int) ([]domain.PatrolRecommendation, error) {
	return s.engine.Patrols(ctx, days)
}

func (s *SafetyServiceImpl) Close() error {
	return s.store.Close()
}

var unicodeWordRe = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)

// lexicalSearch re-reads the filtered incidents and ranks them by the Ochiai
// coefficient between query words and description plus crime type.
func (s *SafetyServiceImpl) lexicalSearch(ctx context.Context, query string, q domain.RecordQuery) ([]domain.SearchResult, error) {
	limit := q.Limit
	q.Vector = nil
	q.Limit = s.cfg.FetchLimit
	res, err := s.store.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("lexical fallback", "query", query, "candidates", len(res))

	qset := toTokenSet(query)
	for i := range res {
		res[i].Score = overlapOchiai(qset, res[i].Incident.Description+" "+res[i].Incident.CrimeType)
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].Score > res[j].Score })
	if len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func isZero(vec []float32) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

// overlapOchiai is |A∩B| / sqrt(|A||B|) over distinct lowercase words.
func overlapOchiai(qset map[string]struct{}, text string) float64 {
	seen := toTokenSet(text)
	if len(qset) == 0 || len(seen) == 0 {
		return 0
	}
	inter := 0
	for t := range seen {
		if _, ok := qset[t]; ok {
			inter++
		}
	}
	return float64(inter) / math.Sqrt(float64(len(qset))*float64(len(seen)))
}
