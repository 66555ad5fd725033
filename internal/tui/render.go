package tui

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"safetyintel/internal/analytics"
	"safetyintel/internal/digest"
	"safetyintel/internal/domain"
)

var (
	boxStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	tabStyle       = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("8"))
	activeTabStyle = lipgloss.NewStyle().Padding(0, 1).Bold(true).Underline(true)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	titleStyle     = lipgloss.NewStyle().Bold(true)

	priorityStyles = map[domain.Priority]lipgloss.Style{
		domain.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		domain.PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		domain.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	}

	unicodeWordRe = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceRe    = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)

	hotspotDigest = digest.NewSummarizer()
)

func (m Model) render() string {
	if m.loading {
		return "Loading..."
	}
	switch m.active {
	case viewSearch:
		return m.renderSearch()
	case viewHotspots:
		hs, ok := m.data[viewHotspots].([]domain.Hotspot)
		if !ok {
			return "Press enter to load."
		}
		return renderHotspots(hs)
	case viewTrends:
		ts, ok := m.data[viewTrends].([]domain.TrendResult)
		if !ok {
			return "Press enter to load."
		}
		return renderTrends(ts)
	case viewRisk:
		rs, ok := m.data[viewRisk].([]domain.RiskResult)
		if !ok {
			return "Press enter to load."
		}
		return renderRisk(rs)
	case viewPatrols:
		ps, ok := m.data[viewPatrols].([]domain.PatrolRecommendation)
		if !ok {
			return "Press enter to load."
		}
		return renderPatrols(ps, m.viewport.Width-4)
	}
	return ""
}

func (m Model) renderSearch() string {
	if len(m.results) == 0 {
		return "No results yet."
	}
	r := m.results[m.cursor]
	inc := r.Incident
	title := fmt.Sprintf("Result %d/%d  score=%.3f", m.cursor+1, len(m.results), r.Score)
	meta := fmt.Sprintf("%s | %s | %s-severity | %s | (%.4f, %.4f)",
		inc.ID, inc.CrimeType, inc.Severity, inc.Area, inc.Location.Lat, inc.Location.Lon)
	when := time.Unix(inc.Timestamp, 0).UTC().Format(time.DateTime)
	return titleStyle.Render(title) + "\n" + dimStyle.Render(meta+" | "+when) + "\n\n" +
		highlightBestSentence(inc.Description, m.query)
}

func renderHotspots(hs []domain.Hotspot) string {
	if len(hs) == 0 {
		return "No hotspots in this window."
	}
	var b strings.Builder
	for _, h := range hs {
		fmt.Fprintf(&b, "%s  %d incidents\n", titleStyle.Render(h.Area), h.IncidentCount)
		if terms := hotspotDigest.TopTerms(h.Incidents, 5); len(terms) > 0 {
			b.WriteString(dimStyle.Render("  terms: "+strings.Join(terms, ", ")) + "\n")
		}
		for _, d := range hotspotDigest.Summarize(h.Incidents, 3) {
			fmt.Fprintf(&b, "  - %s\n", d)
		}
		if n := len(h.Incidents) - 3; n > 0 {
			fmt.Fprintf(&b, "  ... %d more\n", n)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderTrends(ts []domain.TrendResult) string {
	if len(ts) == 0 {
		return "No trend data in this window."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-20s %8s %8s %10s %6s\n", "AREA", "RECENT", "PREVIOUS", "TREND", "DELTA")
	for _, t := range ts {
		fmt.Fprintf(&b, "%-20s %8d %8d %10s %+6d\n", t.Area, t.RecentCount, t.PreviousCount, t.Trend, t.Delta)
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderRisk(rs []domain.RiskResult) string {
	if len(rs) == 0 {
		return "No risk data available."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-20s %8s %-8s %7s %8s %10s\n", "AREA", "RISK", "LEVEL", "CRIMES", "AVG SEV", "TREND")
	for _, r := range rs {
		level := analytics.Level(r.RiskScore)
		fmt.Fprintf(&b, "%-20s %8.2f %-8s %7d %8.2f %10s\n",
			r.Area, r.RiskScore, priorityStyles[level].Render(fmt.Sprintf("%-8s", level)), r.CrimeCount, r.AvgSeverity, r.Trend)
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderPatrols(ps []domain.PatrolRecommendation, width int) string {
	if len(ps) == 0 {
		return "No patrol recommendations."
	}
	wrap := lipgloss.NewStyle().Width(max(20, width))
	blocks := make([]string, 0, len(ps))
	for _, p := range ps {
		head := fmt.Sprintf("%s  %s  risk %v  %d unit(s)  %s  trend %s",
			titleStyle.Render(p.Area), priorityStyles[p.Priority].Render(string(p.Priority)),
			p.RiskScore, p.PatrolUnits, p.RecommendedTime, p.Trend)
		blocks = append(blocks, head+"\n"+wrap.Render(p.Explanation))
	}
	return strings.Join(blocks, "\n\n")
}

func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := sentenceRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		sentences = []string{strings.TrimSpace(text)}
	}
	qTokens := toTokenSet(query)
	if len(qTokens) == 0 {
		return strings.Join(sentences, " ")
	}
	bestIdx, bestScore := 0, -1
	for i, s := range sentences {
		if score := tokenOverlapScore(qTokens, s); score > bestScore {
			bestScore, bestIdx = score, i
		}
	}
	for i := range sentences {
		sent := strings.TrimSpace(sentences[i])
		if i == bestIdx {
			sentences[i] = highlightStyle.Render(sent)
		} else {
			sentences[i] = sent
		}
	}
	return strings.Join(sentences, " ")
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	for t := range toTokenSet(sentence) {
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
