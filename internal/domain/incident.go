package domain

import "strings"

// UnknownArea is the aggregation bucket for incidents stored without an area.
const UnknownArea = "unknown"

// Severity is the ordinal impact tag carried by every incident.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// ParseSeverity maps a raw payload value onto a Severity. Matching is
// exact, so anything else, including "High" or the empty string, becomes
// SeverityLow.
func ParseSeverity(raw string) Severity {
	switch s := Severity(raw); s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return s
	default:
		return SeverityLow
	}
}

// Weight returns the scoring weight of the severity (low=1, medium=2, high=3).
func (s Severity) Weight() int {
	switch s {
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	default:
		return 1
	}
}

// Location is a WGS84 coordinate pair.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Incident is a single geotagged crime report as stored in the record store.
type Incident struct {
	ID          string   `json:"incident_id"`
	Description string   `json:"description"`
	CrimeType   string   `json:"crime_type"`
	Area        string   `json:"area"`
	Location    Location `json:"location"`
	Timestamp   int64    `json:"timestamp"`
	Severity    Severity `json:"severity"`
}

// Normalize fills the defaults downstream aggregation relies on: a missing
// area is bucketed under UnknownArea and severity is coerced to a known value.
func (i Incident) Normalize() Incident {
	i.Area = strings.TrimSpace(i.Area)
	if i.Area == "" {
		i.Area = UnknownArea
	}
	i.Severity = ParseSeverity(string(i.Severity))
	return i
}

// Point couples an incident with its description embedding for storage.
type Point struct {
	ID       string
	Vector   []float32
	Incident Incident
}

// SearchResult is an incident returned by the record store with its
// similarity score. Filter-only queries report a zero score.
type SearchResult struct {
	Incident Incident `json:"incident"`
	Score    float64  `json:"score"`
}
