package analytics

import (
	"fmt"
	"strconv"
	"strings"

	"safetyintel/internal/domain"
)

// Explain renders a patrol recommendation as plain English. The output is a
// pure function of rec; severity counts are listed in first-seen order.
func Explain(rec domain.PatrolRecommendation) string {
	var (
		order  []domain.Severity
		counts = make(map[domain.Severity]int)
	)
	for _, inc := range rec.SupportingIncidents {
		sev := domain.ParseSeverity(string(inc.Severity))
		if _, ok := counts[sev]; !ok {
			order = append(order, sev)
		}
		counts[sev]++
	}
	parts := make([]string, 0, len(order))
	for _, sev := range order {
		parts = append(parts, fmt.Sprintf("%d %s-severity", counts[sev], sev))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s has been classified as a %s priority area with a risk score of %s. ",
		rec.Area, strings.ToLower(string(rec.Priority)), strconv.FormatFloat(rec.RiskScore, 'f', -1, 64))
	fmt.Fprintf(&b, "This assessment is based on %d reported incidents in the selected time window", len(rec.SupportingIncidents))
	if len(parts) > 0 {
		fmt.Fprintf(&b, ", including %s crimes", strings.Join(parts, ", "))
	}
	b.WriteString(". ")

	switch rec.Trend {
	case domain.TrendRising:
		b.WriteString("Crime frequency in this area is increasing compared to the previous period, which elevates the risk level. ")
	case domain.TrendDeclining:
		b.WriteString("Crime frequency in this area is decreasing compared to the previous period, which slightly reduces the overall risk. ")
	default:
		b.WriteString("Crime frequency in this area has remained stable over time. ")
	}

	fmt.Fprintf(&b, "Based on this analysis, the system recommends deploying %d patrol unit(s) during %s to mitigate potential risks.",
		rec.PatrolUnits, rec.RecommendedTime)
	return b.String()
}
