package analytics

import (
	"context"

	"safetyintel/internal/domain"
)

const (
	highRiskThreshold   = 60
	mediumRiskThreshold = 30

	eveningShift     = "6 PM – 11 PM"
	lateEveningShift = "7 PM – 10 PM"
	randomPatrols    = "Random patrols"
)

// Patrols maps the risk scores of the last days days onto patrol tiers and
// attaches an explanation to each recommendation. Order follows RiskScores.
func (e *Engine) Patrols(ctx context.Context, days int) ([]domain.PatrolRecommendation, error) {
	risks, err := e.RiskScores(ctx, domain.RiskParams{Days: days})
	if err != nil {
		return nil, err
	}
	recs := make([]domain.PatrolRecommendation, 0, len(risks))
	for _, r := range risks {
		rec := Recommend(r)
		rec.Explanation = Explain(rec)
		recs = append(recs, rec)
	}
	return recs, nil
}

// Recommend applies the patrol threshold table to a single risk result.
// Both thresholds are inclusive.
func Recommend(r domain.RiskResult) domain.PatrolRecommendation {
	rec := domain.PatrolRecommendation{
		Area:                r.Area,
		RiskScore:           r.RiskScore,
		Trend:               r.Trend,
		SupportingIncidents: r.Incidents,
	}
	rec.Priority = Level(r.RiskScore)
	switch rec.Priority {
	case domain.PriorityHigh:
		rec.PatrolUnits = 2
		if r.Trend == domain.TrendRising {
			rec.PatrolUnits = 3
		}
		rec.RecommendedTime = eveningShift
	case domain.PriorityMedium:
		rec.PatrolUnits = 1
		rec.RecommendedTime = lateEveningShift
	default:
		rec.PatrolUnits = 0
		rec.RecommendedTime = randomPatrols
	}
	if rec.SupportingIncidents == nil {
		rec.SupportingIncidents = []domain.Incident{}
	}
	return rec
}

// Level maps a risk score onto its priority tier.
func Level(score float64) domain.Priority {
	switch {
	case score >= highRiskThreshold:
		return domain.PriorityHigh
	case score >= mediumRiskThreshold:
		return domain.PriorityMedium
	default:
		return domain.PriorityLow
	}
}
