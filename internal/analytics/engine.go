// Package analytics turns raw incidents into hotspots, trends, risk scores
// and patrol recommendations. Every call re-fetches from the record source;
// nothing is cached between calls.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"safetyintel/internal/domain"
)

const secondsPerDay = 86400

// Config carries the defaults applied when a caller passes zero parameters.
type Config struct {
	// FetchLimit caps filter-only reads from the record source.
	FetchLimit       int
	TrendWindowDays  int
	RiskDays         int
	HotspotDays      int
	HotspotThreshold int
	FrequencyWeight  float64
	SeverityWeight   float64
}

// DefaultConfig returns the stock pipeline parameters.
func DefaultConfig() Config {
	return Config{
		FetchLimit:       1000,
		TrendWindowDays:  15,
		RiskDays:         30,
		HotspotDays:      30,
		HotspotThreshold: 3,
		FrequencyWeight:  5,
		SeverityWeight:   7,
	}
}

type Engine struct {
	source domain.RecordSource
	cfg    Config
	logger *log.Logger
	now    func() time.Time
}

type Option func(*Engine)

// WithClock overrides the wall clock used to anchor time windows.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(source domain.RecordSource, cfg Config, logger *log.Logger, opts ...Option) *Engine {
	def := DefaultConfig()
	if cfg.FetchLimit <= 0 {
		cfg.FetchLimit = def.FetchLimit
	}
	if cfg.TrendWindowDays <= 0 {
		cfg.TrendWindowDays = def.TrendWindowDays
	}
	if cfg.RiskDays <= 0 {
		cfg.RiskDays = def.RiskDays
	}
	if cfg.HotspotDays <= 0 {
		cfg.HotspotDays = def.HotspotDays
	}
	if cfg.HotspotThreshold <= 0 {
		cfg.HotspotThreshold = def.HotspotThreshold
	}
	if cfg.FrequencyWeight == 0 {
		cfg.FrequencyWeight = def.FrequencyWeight
	}
	if cfg.SeverityWeight == 0 {
		cfg.SeverityWeight = def.SeverityWeight
	}
	if logger == nil {
		logger = log.Default()
	}
	e := &Engine{source: source, cfg: cfg, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the effective configuration after defaults.
func (e *Engine) Config() Config { return e.cfg }

// fetchWindow reads every incident with a timestamp in [from, until).
func (e *Engine) fetchWindow(ctx context.Context, from, until int64) ([]domain.Incident, error) {
	res, err := e.source.Query(ctx, domain.RecordQuery{
		Window: &domain.TimeWindow{From: from, Until: until},
		Limit:  e.cfg.FetchLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch incidents: %w", err)
	}
	if len(res) >= e.cfg.FetchLimit {
		e.logger.Warn("fetch limit reached, results may be truncated",
			"limit", e.cfg.FetchLimit, "from", from, "until", until)
	}
	incidents := make([]domain.Incident, len(res))
	for i, r := range res {
		incidents[i] = r.Incident.Normalize()
	}
	return incidents, nil
}

// daysBack returns the unix second `days` whole days before now.
func daysBack(now int64, days int) int64 {
	return now - int64(days)*secondsPerDay
}

type areaStats struct {
	count       int
	severitySum int
	incidents   []domain.Incident
}

// areaGroups aggregates incidents per area, remembering first-seen order.
type areaGroups struct {
	order  []string
	byArea map[string]*areaStats
}

func groupByArea(incidents []domain.Incident) *areaGroups {
	g := &areaGroups{byArea: make(map[string]*areaStats)}
	for _, inc := range incidents {
		st, ok := g.byArea[inc.Area]
		if !ok {
			st = &areaStats{}
			g.byArea[inc.Area] = st
			g.order = append(g.order, inc.Area)
		}
		st.count++
		st.severitySum += inc.Severity.Weight()
		st.incidents = append(st.incidents, inc)
	}
	return g
}
