package analytics

import (
	"context"
	"sort"

	"safetyintel/internal/domain"
)

// Hotspots returns every area with at least threshold incidents in the last
// days days, sorted by area.
func (e *Engine) Hotspots(ctx context.Context, days, threshold int) ([]domain.Hotspot, error) {
	if days <= 0 {
		days = e.cfg.HotspotDays
	}
	if threshold <= 0 {
		threshold = e.cfg.HotspotThreshold
	}
	now := e.now().Unix()
	incidents, err := e.fetchWindow(ctx, daysBack(now, days), now)
	if err != nil {
		return nil, err
	}
	groups := groupByArea(incidents)

	hotspots := make([]domain.Hotspot, 0)
	for _, area := range groups.order {
		st := groups.byArea[area]
		if st.count < threshold {
			continue
		}
		hotspots = append(hotspots, domain.Hotspot{
			Area:          area,
			IncidentCount: st.count,
			Incidents:     st.incidents,
		})
	}
	sort.Slice(hotspots, func(i, j int) bool { return hotspots[i].Area < hotspots[j].Area })
	return hotspots, nil
}
