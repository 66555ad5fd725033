package analytics

import (
	"context"
	"sort"

	"safetyintel/internal/domain"
)

// Trends compares each area's incident count in the last windowDays days
// against the windowDays days before that. Results are sorted by area.
func (e *Engine) Trends(ctx context.Context, windowDays int) ([]domain.TrendResult, error) {
	if windowDays <= 0 {
		windowDays = e.cfg.TrendWindowDays
	}
	return e.trendsAt(ctx, e.now().Unix(), windowDays)
}

// trendsAt does not default windowDays: the risk scorer may pass zero.
func (e *Engine) trendsAt(ctx context.Context, now int64, windowDays int) ([]domain.TrendResult, error) {
	recentStart := daysBack(now, windowDays)
	previousStart := daysBack(now, 2*windowDays)

	recent, err := e.fetchWindow(ctx, recentStart, now)
	if err != nil {
		return nil, err
	}
	previous, err := e.fetchWindow(ctx, previousStart, recentStart)
	if err != nil {
		return nil, err
	}

	recentCounts := countByArea(recent)
	previousCounts := countByArea(previous)

	areas := make(map[string]struct{}, len(recentCounts)+len(previousCounts))
	for a := range recentCounts {
		areas[a] = struct{}{}
	}
	for a := range previousCounts {
		areas[a] = struct{}{}
	}

	results := make([]domain.TrendResult, 0, len(areas))
	for area := range areas {
		r, p := recentCounts[area], previousCounts[area]
		results = append(results, domain.TrendResult{
			Area:          area,
			RecentCount:   r,
			PreviousCount: p,
			Trend:         classify(r, p),
			Delta:         r - p,
		})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Area < results[j].Area })
	return results, nil
}

func classify(recent, previous int) domain.Trend {
	switch {
	case recent > previous:
		return domain.TrendRising
	case recent < previous:
		return domain.TrendDeclining
	default:
		return domain.TrendStable
	}
}

func countByArea(incidents []domain.Incident) map[string]int {
	counts := make(map[string]int)
	for _, inc := range incidents {
		counts[inc.Area]++
	}
	return counts
}
