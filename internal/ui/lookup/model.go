// Package lookup is the public vehicle status search.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/ativo/internal/api"
	"github.com/fragmede/ativo/internal/cache"
	"github.com/fragmede/ativo/internal/config"
	"github.com/fragmede/ativo/internal/ui/badge"
	"github.com/fragmede/ativo/internal/ui/messages"
	"github.com/fragmede/ativo/internal/ui/vehicles"
)

// staleTTL bounds how old a cached vehicle may be when the backend is down.
const staleTTL = 24 * time.Hour

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#1E6FD9")).Bold(true).Padding(1, 0, 0, 1)
	metaStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#828282"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	selectedStyle = lipgloss.NewStyle().Background(lipgloss.Color("#333333")).Bold(true)
)

// Source is the data access the view needs.
type Source interface {
	LookupVehicles(ctx context.Context, query string) ([]api.Vehicle, error)
	ListUpdates(ctx context.Context, vehicleID int64) ([]api.Update, error)
}

// Model is the lookup form and its results.
type Model struct {
	input     textinput.Model
	recent    []string
	recentIdx int
	results   []api.Vehicle
	cursor    int
	updates   map[int64][]api.Update
	query     string
	searching bool
	stale     bool
	err       string

	client    Source
	cache     *cache.DB
	maxRecent int
	width     int
	height    int
}

// New creates the lookup view. db may be nil.
func New(cfg config.Config, client Source, db *cache.DB) Model {
	input := textinput.New()
	input.Placeholder = "plate (ABC1D23) or CPF/CNPJ"
	input.Width = 30
	input.Focus()

	m := Model{
		input:     input,
		updates:   make(map[int64][]api.Update),
		client:    client,
		cache:     db,
		maxRecent: cfg.RecentLookups,
		recentIdx: -1,
	}
	if db != nil {
		m.recent, _ = db.RecentLookups(cfg.RecentLookups)
	}
	return m
}

func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// Capturing reports whether the view consumes every key.
func (m Model) Capturing() bool {
	return m.input.Focused()
}

// Results returns the vehicles of the last search.
func (m Model) Results() []api.Vehicle {
	return m.results
}

// Err returns the message of the last failed search.
func (m Model) Err() string {
	return m.err
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.LookupResultMsg:
		if msg.Query != m.query {
			return m, nil
		}
		m.searching = false
		m.results, m.cursor = nil, 0
		m.stale = false
		switch {
		case errors.Is(msg.Err, api.ErrNotFound):
			m.err = fmt.Sprintf("No vehicle found for %q", msg.Query)
			return m, nil
		case msg.Err != nil && len(msg.Vehicles) == 0:
			m.err = "Lookup failed: " + msg.Err.Error()
			return m, nil
		}
		m.err = ""
		m.stale = msg.Err != nil
		m.results = msg.Vehicles
		m.input.Blur()
		if m.cache != nil {
			m.recent, _ = m.cache.RecentLookups(m.maxRecent)
		}
		return m, m.loadUpdates()

	case messages.UpdatesLoadedMsg:
		if msg.Err == nil {
			m.updates[msg.VehicleID] = msg.Updates
		}
		return m, nil

	case tea.KeyMsg:
		if m.input.Focused() {
			return m.updateInput(msg)
		}
		switch msg.String() {
		case "/", "i":
			m.input.Focus()
			return m, textinput.Blink
		case "j", "down":
			if m.cursor < len(m.results)-1 {
				m.cursor++
				return m, m.loadUpdates()
			}
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
				return m, m.loadUpdates()
			}
		}
	}
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.input.Blur()
		return m, nil
	case "tab":
		if len(m.recent) > 0 {
			m.recentIdx = (m.recentIdx + 1) % len(m.recent)
			m.input.SetValue(m.recent[m.recentIdx])
			m.input.CursorEnd()
		}
		return m, nil
	case "enter":
		q := strings.TrimSpace(m.input.Value())
		if q == "" {
			m.err = "Enter a plate or a CPF/CNPJ"
			return m, nil
		}
		if m.searching {
			return m, nil
		}
		m.query = q
		m.searching = true
		m.err = ""
		return m, search(m.client, m.cache, q, m.maxRecent)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func search(client Source, db *cache.DB, query string, maxRecent int) tea.Cmd {
	return func() tea.Msg {
		vs, err := client.LookupVehicles(context.Background(), query)
		if err != nil {
			// Serve a recent cached copy of a plate when the backend is down.
			if db != nil && !errors.Is(err, api.ErrNotFound) && !api.IsDocument(query) {
				if v, _, _ := db.GetVehicleByPlate(query, staleTTL); v != nil {
					return messages.LookupResultMsg{Query: query, Vehicles: []api.Vehicle{*v}, Err: err}
				}
			}
			return messages.LookupResultMsg{Query: query, Err: err}
		}
		if db != nil {
			for i := range vs {
				db.PutVehicle(&vs[i])
			}
			db.AddRecentLookup(query, maxRecent)
		}
		return messages.LookupResultMsg{Query: query, Vehicles: vs}
	}
}

func (m Model) loadUpdates() tea.Cmd {
	if m.cursor >= len(m.results) {
		return nil
	}
	id := m.results[m.cursor].ID
	if _, ok := m.updates[id]; ok {
		return nil
	}
	client := m.client
	return func() tea.Msg {
		ups, err := client.ListUpdates(context.Background(), id)
		return messages.UpdatesLoadedMsg{VehicleID: id, Updates: ups, Err: err}
	}
}

func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Vehicle status lookup"))
	sb.WriteString("\n\n ")
	sb.WriteString(m.input.View())
	sb.WriteString("\n")
	if len(m.recent) > 0 {
		sb.WriteString(metaStyle.Render(" recent: " + strings.Join(m.recent, ", ") + "  (tab to reuse)"))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	switch {
	case m.searching:
		sb.WriteString(metaStyle.Render(" Searching..."))
		return sb.String()
	case m.err != "":
		sb.WriteString(errorStyle.Render(" " + m.err))
		return sb.String()
	case len(m.results) == 0:
		sb.WriteString(metaStyle.Render(" Enter to search, esc to leave the field"))
		return sb.String()
	}

	if m.stale {
		sb.WriteString(errorStyle.Render(" Offline: showing the last saved copy"))
		sb.WriteString("\n")
	}
	for i, v := range m.results {
		line := fmt.Sprintf(" %-8s %-24s %s ", v.Plate, v.Model, v.WorkshopName())
		if i == m.cursor && len(m.results) > 1 {
			line = selectedStyle.Render(line)
		}
		sb.WriteString(line + badge.Vehicle(v.Status) + "\n")
	}

	sel := m.results[m.cursor]
	sb.WriteString("\n")
	sb.WriteString(titleStyle.Render("Updates for " + sel.Plate))
	sb.WriteString("\n\n")
	if ups, ok := m.updates[sel.ID]; ok {
		sb.WriteString(vehicles.Timeline(ups, m.width))
	} else {
		sb.WriteString(metaStyle.Render(" Loading..."))
	}
	sb.WriteString("\n")
	sb.WriteString(metaStyle.Render(" / new search  j/k select"))
	return sb.String()
}
