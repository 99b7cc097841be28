// Package dashboard shows the admin overview.
package dashboard

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/ativo/internal/api"
	"github.com/fragmede/ativo/internal/listing"
	"github.com/fragmede/ativo/internal/ui/badge"
	"github.com/fragmede/ativo/internal/ui/messages"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#1E6FD9")).Bold(true).Padding(1, 0, 0, 1)
	cardStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1).
			Width(22)
	numberStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF"))
	metaStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#828282"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
)

// Loader fetches the dashboard tables.
type Loader interface {
	LoadDashboard(ctx context.Context) (*api.Dashboard, error)
}

// Model is the dashboard view.
type Model struct {
	data    *api.Dashboard
	summary listing.Summary
	loading bool
	err     string
	client  Loader
	now     func() time.Time
	width   int
	height  int
}

func New(client Loader) Model {
	return Model{client: client, loading: true, now: time.Now}
}

func (m Model) Init() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		d, err := client.LoadDashboard(context.Background())
		return messages.DashboardLoadedMsg{Dashboard: d, Err: err}
	}
}

func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// Summary returns the numbers currently shown.
func (m Model) Summary() listing.Summary {
	return m.summary
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.DashboardLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.err = "Error: " + msg.Err.Error()
			return m, nil
		}
		m.err = ""
		m.data = msg.Dashboard
		m.summary = listing.Summarize(msg.Dashboard, m.now())
		return m, nil

	case messages.VehicleUpdatedMsg, messages.ReviewResultMsg:
		// Figures changed elsewhere; reload quietly.
		return m, m.Init()

	case tea.KeyMsg:
		if s := msg.String(); s == "r" || s == "ctrl+r" {
			m.loading = true
			return m, m.Init()
		}
	}
	return m, nil
}

func (m Model) View() string {
	var sb strings.Builder
	title := "Dashboard"
	if m.loading {
		title += " (loading...)"
	}
	sb.WriteString(titleStyle.Render(title))
	sb.WriteString("\n\n")
	if m.err != "" {
		sb.WriteString(errorStyle.Render(" " + m.err))
		return sb.String()
	}
	if m.data == nil {
		return sb.String()
	}

	s := m.summary
	cards := []string{
		card("Vehicles", fmt.Sprint(s.Total)),
		card("In progress", fmt.Sprint(s.ByStatus[api.StatusInProgress])),
		card("Late", fmt.Sprint(s.ByStatus[api.StatusLate])),
		card("Pending feedback", fmt.Sprint(s.PendingFeedbacks)),
		card("Inspection open", fmt.Sprint(len(listing.AwaitingInspection(m.data.Vehicles)))),
	}
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	sb.WriteString("\n")
	sb.WriteString(metaStyle.Render(fmt.Sprintf(" %d third party  |  %.1f days average in the workshop",
		s.ThirdParty, s.AvgDays)))
	sb.WriteString("\n\n")

	sb.WriteString(titleStyle.Render("By status"))
	sb.WriteString("\n")
	for _, st := range []api.VehicleStatus{api.StatusAwaiting, api.StatusInProgress, api.StatusLate, api.StatusDone} {
		sb.WriteString(fmt.Sprintf(" %4d  %s\n", s.ByStatus[st], badge.Vehicle(st)))
	}

	sb.WriteString(titleStyle.Render("By workshop"))
	sb.WriteString("\n")
	ws := append([]api.Workshop(nil), m.data.Workshops...)
	sort.Slice(ws, func(i, j int) bool { return s.PerWorkshop[ws[i].ID] > s.PerWorkshop[ws[j].ID] })
	for _, w := range ws {
		sb.WriteString(fmt.Sprintf(" %4d  %s\n", s.PerWorkshop[w.ID], w.Name))
	}

	late := listing.Paginate(listing.Apply(m.data.Vehicles, listing.Filter{Status: api.StatusLate}), 1, 5)
	if len(late.Items) > 0 {
		sb.WriteString(titleStyle.Render("Late vehicles"))
		sb.WriteString("\n")
		now := m.now()
		for _, v := range late.Items {
			sb.WriteString(fmt.Sprintf(" %-8s %-24s %3d days  %s\n",
				v.Plate, v.Model, listing.DaysSince(v.EnteredAt.Time, now), v.WorkshopName()))
		}
		if late.Total > 1 {
			sb.WriteString(metaStyle.Render(" more in Vehicles (V)"))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func card(label, value string) string {
	return cardStyle.Render(numberStyle.Render(value) + "\n" + metaStyle.Render(label))
}
