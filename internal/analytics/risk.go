package analytics

import (
	"context"
	"math"
	"sort"

	"safetyintel/internal/domain"
)

var trendBonus = map[domain.Trend]float64{
	domain.TrendRising:    10,
	domain.TrendStable:    0,
	domain.TrendDeclining: -5,
}

// RiskScores weighs each area's frequency, average severity and trend over
// the last p.Days days. Output is sorted by score descending, then by area.
//
// The trend is measured over p.Days/2 days, a sub-window of the risk window.
func (e *Engine) RiskScores(ctx context.Context, p domain.RiskParams) ([]domain.RiskResult, error) {
	return e.riskScoresAt(ctx, e.now().Unix(), p)
}

func (e *Engine) riskScoresAt(ctx context.Context, now int64, p domain.RiskParams) ([]domain.RiskResult, error) {
	if p.Days <= 0 {
		p.Days = e.cfg.RiskDays
	}
	fw, sw := e.cfg.FrequencyWeight, e.cfg.SeverityWeight
	if p.FrequencyWeight != nil {
		fw = *p.FrequencyWeight
	}
	if p.SeverityWeight != nil {
		sw = *p.SeverityWeight
	}

	incidents, err := e.fetchWindow(ctx, daysBack(now, p.Days), now)
	if err != nil {
		return nil, err
	}
	groups := groupByArea(incidents)

	trends, err := e.trendsAt(ctx, now, p.Days/2)
	if err != nil {
		return nil, err
	}
	trendByArea := make(map[string]domain.Trend, len(trends))
	for _, t := range trends {
		trendByArea[t.Area] = t.Trend
	}

	results := make([]domain.RiskResult, 0, len(groups.order))
	for _, area := range groups.order {
		trend, ok := trendByArea[area]
		if !ok {
			trend = domain.TrendStable
		}
		results = append(results, scoreArea(area, groups.byArea[area], trend, fw, sw))
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].RiskScore != results[j].RiskScore {
			return results[i].RiskScore > results[j].RiskScore
		}
		return results[i].Area < results[j].Area
	})
	return results, nil
}

func scoreArea(area string, st *areaStats, trend domain.Trend, fw, sw float64) domain.RiskResult {
	avg := float64(st.severitySum) / float64(max(st.count, 1))
	score := float64(st.count)*fw + avg*sw + trendBonus[trend]
	return domain.RiskResult{
		Area:        area,
		RiskScore:   round2(score),
		CrimeCount:  st.count,
		AvgSeverity: round2(avg),
		Trend:       trend,
		Incidents:   st.incidents,
	}
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
