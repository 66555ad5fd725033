package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"safetyintel/internal/domain"
)

type view int

const (
	viewSearch view = iota
	viewHotspots
	viewTrends
	viewRisk
	viewPatrols
	viewCount
)

var viewTitles = [viewCount]string{
	viewSearch:   "Search Incidents",
	viewHotspots: "Crime Hotspots",
	viewTrends:   "Crime Trends",
	viewRisk:     "Risk Scores",
	viewPatrols:  "Patrol Recommendations",
}

const (
	minDays = 1
	maxDays = 3650
)

// Settings are the initial query parameters of the dashboard.
type Settings struct {
	Days             int
	TrendWindowDays  int
	HotspotThreshold int
	SearchLimit      int
}

// loadedMsg carries the result of a service call back into Update.
type loadedMsg struct {
	view    view
	content any
	err     error
}

// Model is the Bubble Tea model for the dashboard.
type Model struct {
	service  domain.SafetyService
	settings Settings
	active   view
	input    textinput.Model
	viewport viewport.Model
	results  []domain.SearchResult
	cursor   int
	data     [viewCount]any
	status   string
	ready    bool
	loading  bool
	query    string
}

// New creates a dashboard over service.
func New(service domain.SafetyService, s Settings) Model {
	if s.Days <= 0 {
		s.Days = 30
	}
	if s.TrendWindowDays <= 0 {
		s.TrendWindowDays = 15
	}
	if s.HotspotThreshold <= 0 {
		s.HotspotThreshold = 3
	}
	if s.SearchLimit <= 0 {
		s.SearchLimit = 10
	}
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Describe an incident and press Enter"
	ti.Focus()
	return Model{
		service:  service,
		settings: s,
		input:    ti,
		viewport: viewport.New(0, 0),
		status:   "tab: switch view  +/-: days  enter: search  ctrl+c: quit",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and data events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, bh := boxStyle.GetFrameSize()
		reserved := 4 + bh // tabs, settings, input, status
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-bh)
		m.refresh()
		return m, nil

	case loadedMsg:
		m.loading = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		if msg.view == viewSearch {
			m.results, _ = msg.content.([]domain.SearchResult)
			m.cursor = 0
			m.status = fmt.Sprintf("%d results for %q", len(m.results), m.query)
		} else {
			m.data[msg.view] = msg.content
			m.status = viewTitles[msg.view] + " updated"
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "tab":
			return m.switchTo((m.active + 1) % viewCount)
		case "shift+tab":
			return m.switchTo((m.active + viewCount - 1) % viewCount)
		case "enter":
			if m.active == viewSearch {
				q := strings.TrimSpace(m.input.Value())
				if q == "" {
					return m, nil
				}
				m.query = q
				m.loading = true
				m.status = "Searching..."
				return m, m.load(viewSearch)
			}
			m.loading = true
			return m, m.load(m.active)
		case "+", "=":
			if m.active != viewSearch {
				return m.adjustDays(1)
			}
		case "-":
			if m.active != viewSearch {
				return m.adjustDays(-1)
			}
		case "down":
			if m.active == viewSearch && len(m.results) > 0 {
				m.cursor = (m.cursor + 1) % len(m.results)
				m.refresh()
				return m, nil
			}
			m.viewport.ScrollDown(1)
			return m, nil
		case "up":
			if m.active == viewSearch && len(m.results) > 0 {
				m.cursor = (m.cursor - 1 + len(m.results)) % len(m.results)
				m.refresh()
				return m, nil
			}
			m.viewport.ScrollUp(1)
			return m, nil
		}
	}
	if m.active != viewSearch {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) switchTo(v view) (tea.Model, tea.Cmd) {
	m.active = v
	m.viewport.GotoTop()
	m.refresh()
	if v == viewSearch {
		m.input.Focus()
		return m, textinput.Blink
	}
	m.input.Blur()
	if m.data[v] != nil {
		return m, nil
	}
	m.loading = true
	return m, m.load(v)
}

// adjustDays moves the window of the active view by delta days and reloads.
func (m Model) adjustDays(delta int) (tea.Model, tea.Cmd) {
	if m.active == viewTrends {
		m.settings.TrendWindowDays = clamp(m.settings.TrendWindowDays+delta, minDays, maxDays)
	} else {
		m.settings.Days = clamp(m.settings.Days+delta, minDays, maxDays)
	}
	m.loading = true
	return m, m.load(m.active)
}

// load returns a command that fetches the data of v from the service.
func (m Model) load(v view) tea.Cmd {
	svc, s, q := m.service, m.settings, m.query
	return func() tea.Msg {
		ctx := context.Background()
		var (
			content any
			err     error
		)
		switch v {
		case viewSearch:
			content, err = svc.Search(ctx, domain.SearchParams{Query: q, Limit: s.SearchLimit})
		case viewHotspots:
			content, err = svc.Hotspots(ctx, s.Days, s.HotspotThreshold)
		case viewTrends:
			content, err = svc.Trends(ctx, s.TrendWindowDays)
		case viewRisk:
			content, err = svc.RiskScores(ctx, domain.RiskParams{Days: s.Days})
		case viewPatrols:
			content, err = svc.Patrols(ctx, s.Days)
		}
		return loadedMsg{view: v, content: content, err: err}
	}
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.render())
}

// View renders the dashboard.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	var b strings.Builder
	b.WriteString(m.renderTabs())
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.renderSettings()))
	b.WriteString("\n")
	b.WriteString(boxStyle.Render(m.viewport.View()))
	b.WriteString("\n")
	if m.active == viewSearch {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
	b.WriteString(statusStyle.Render(m.status))
	return b.String()
}

func (m Model) renderTabs() string {
	tabs := make([]string, 0, viewCount)
	for v := view(0); v < viewCount; v++ {
		if v == m.active {
			tabs = append(tabs, activeTabStyle.Render(viewTitles[v]))
		} else {
			tabs = append(tabs, tabStyle.Render(viewTitles[v]))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderSettings() string {
	switch m.active {
	case viewSearch:
		return fmt.Sprintf("top %d results", m.settings.SearchLimit)
	case viewHotspots:
		return fmt.Sprintf("last %d days, threshold %d", m.settings.Days, m.settings.HotspotThreshold)
	case viewTrends:
		return fmt.Sprintf("window %d days vs the %d days before", m.settings.TrendWindowDays, m.settings.TrendWindowDays)
	default:
		return fmt.Sprintf("last %d days", m.settings.Days)
	}
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
