package domain

// Trend is the direction of an area's incident count between two adjacent windows.
type Trend string

const (
	TrendRising    Trend = "rising"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// Priority is the patrol tier assigned to an area.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// Hotspot is an area whose incident count met the hotspot threshold.
type Hotspot struct {
	Area          string     `json:"area"`
	IncidentCount int        `json:"incident_count"`
	Incidents     []Incident `json:"incidents"`
}

// TrendResult compares an area's recent window against the window before it.
type TrendResult struct {
	Area          string `json:"area"`
	RecentCount   int    `json:"recent_count"`
	PreviousCount int    `json:"previous_count"`
	Trend         Trend  `json:"trend"`
	Delta         int    `json:"delta"`
}

// RiskResult is the weighted risk assessment of one area.
type RiskResult struct {
	Area        string     `json:"area"`
	RiskScore   float64    `json:"risk_score"`
	CrimeCount  int        `json:"crime_count"`
	AvgSeverity float64    `json:"avg_severity"`
	Trend       Trend      `json:"trend"`
	Incidents   []Incident `json:"incidents"`
}

// PatrolRecommendation is the terminal artifact of the analytics pipeline.
type PatrolRecommendation struct {
	Area                string     `json:"area"`
	RiskScore           float64    `json:"risk_score"`
	Priority            Priority   `json:"priority"`
	PatrolUnits         int        `json:"patrol_units"`
	RecommendedTime     string     `json:"recommended_time"`
	Trend               Trend      `json:"trend"`
	SupportingIncidents []Incident `json:"supporting_incidents"`
	Explanation         string     `json:"explanation"`
}
