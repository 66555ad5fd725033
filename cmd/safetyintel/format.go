package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"safetyintel/internal/analytics"
	"safetyintel/internal/digest"
	"safetyintel/internal/domain"
)

var hotspotDigest = digest.NewSummarizer()

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
)

// writeResponse renders resp to w in the requested format.
func writeResponse(w io.Writer, resp any, format OutputFormat) error {
	var (
		out string
		err error
	)
	switch format {
	case FormatJSON:
		out, err = formatJSON(resp)
	case FormatHuman:
		out, err = formatHuman(resp)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

func formatJSON(resp any) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

func formatHuman(resp any) (string, error) {
	switch v := resp.(type) {
	case []domain.SearchResult:
		return formatSearchHuman(v), nil
	case []domain.Hotspot:
		return formatHotspotsHuman(v), nil
	case []domain.TrendResult:
		return formatTrendsHuman(v), nil
	case []domain.RiskResult:
		return formatRiskHuman(v), nil
	case []domain.PatrolRecommendation:
		return formatPatrolsHuman(v), nil
	default:
		return formatJSON(resp)
	}
}

func formatSearchHuman(results []domain.SearchResult) string {
	if len(results) == 0 {
		return "No matching incidents found."
	}
	var b strings.Builder
	for _, r := range results {
		inc := r.Incident
		fmt.Fprintf(&b, "[%.3f] %s | %s | %s | severity=%s | %s\n",
			r.Score, inc.ID, inc.Area, inc.CrimeType, inc.Severity,
			time.Unix(inc.Timestamp, 0).UTC().Format(time.DateTime))
		fmt.Fprintf(&b, "        %s\n", inc.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatHotspotsHuman(hotspots []domain.Hotspot) string {
	if len(hotspots) == 0 {
		return "No hotspots detected."
	}
	var b strings.Builder
	for _, h := range hotspots {
		fmt.Fprintf(&b, "Hotspot: %s (%d incidents)\n", h.Area, h.IncidentCount)
		if terms := hotspotDigest.TopTerms(h.Incidents, 5); len(terms) > 0 {
			fmt.Fprintf(&b, "Common terms: %s\n", strings.Join(terms, ", "))
		}
		for _, inc := range h.Incidents {
			fmt.Fprintf(&b, " - %s | severity=%s | ts=%d\n", inc.CrimeType, inc.Severity, inc.Timestamp)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatTrendsHuman(trends []domain.TrendResult) string {
	if len(trends) == 0 {
		return "No trend data available."
	}
	var b strings.Builder
	for _, t := range trends {
		fmt.Fprintf(&b, "%s | %s (recent=%d, previous=%d, delta=%+d)\n",
			t.Area, strings.ToUpper(string(t.Trend)), t.RecentCount, t.PreviousCount, t.Delta)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatRiskHuman(risks []domain.RiskResult) string {
	if len(risks) == 0 {
		return "No risk data available."
	}
	var b strings.Builder
	for _, r := range risks {
		fmt.Fprintf(&b, "%s | Risk=%v (%s) | Crimes=%d | Avg Severity=%v | Trend=%s\n",
			r.Area, r.RiskScore, analytics.Level(r.RiskScore), r.CrimeCount, r.AvgSeverity, r.Trend)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatPatrolsHuman(recs []domain.PatrolRecommendation) string {
	if len(recs) == 0 {
		return "No patrol recommendations."
	}
	var b strings.Builder
	for i, rec := range recs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("PATROL RECOMMENDATION\n")
		fmt.Fprintf(&b, "Area: %s\n", rec.Area)
		fmt.Fprintf(&b, "Risk Score: %v\n", rec.RiskScore)
		fmt.Fprintf(&b, "Priority: %s\n", rec.Priority)
		fmt.Fprintf(&b, "Patrol Units: %d\n", rec.PatrolUnits)
		fmt.Fprintf(&b, "Recommended Time: %s\n", rec.RecommendedTime)
		fmt.Fprintf(&b, "Trend: %s\n", rec.Trend)
		fmt.Fprintf(&b, "Explanation: %s\n", rec.Explanation)
	}
	return strings.TrimRight(b.String(), "\n")
}
