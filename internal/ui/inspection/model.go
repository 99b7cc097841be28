// Package inspection records the entry inspection of a vehicle that has
// just arrived at the workshop.
package inspection

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/ativo/internal/api"
	"github.com/fragmede/ativo/internal/listing"
	"github.com/fragmede/ativo/internal/nav"
	"github.com/fragmede/ativo/internal/ui/form"
	"github.com/fragmede/ativo/internal/ui/messages"
)

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#1E6FD9")).Bold(true).Padding(1, 0, 1, 1)
	metaStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#828282"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	selectedStyle = lipgloss.NewStyle().Background(lipgloss.Color("#333333")).Bold(true)
	bodyStyle     = lipgloss.NewStyle().PaddingLeft(2)
)

// Source is the data access the view needs.
type Source interface {
	ListVehiclesByStatus(ctx context.Context, status api.VehicleStatus) ([]api.Vehicle, error)
	CreateInspectionEntry(ctx context.Context, e api.InspectionEntry) (*api.Vehicle, error)
}

// Model picks a vehicle awaiting inspection, then fills in its checklist.
type Model struct {
	queue      []api.Vehicle
	cursor     int
	selected   *api.Vehicle
	form       form.Model
	client     Source
	loading    bool
	submitting bool
	err        string
	width      int
	height     int
}

// New creates the inspection view.
func New(client Source) Model {
	return Model{client: client, loading: true, form: checklist()}
}

func checklist() form.Model {
	return form.New(
		form.Choice("kit", "Safety kit present", "yes", "no"),
		form.Text("kit_notes", "Safety kit notes", false),
		form.Choice("key", "Ignition key", "with key", "without key"),
		form.Text("notes", "Notes", false),
		form.Text("video_notes", "Video notes", false),
	)
}

// Init loads the vehicles waiting for an inspection.
func (m Model) Init() tea.Cmd {
	return load(m.client)
}

func load(client Source) tea.Cmd {
	return func() tea.Msg {
		vs, err := client.ListVehiclesByStatus(context.Background(), api.StatusAwaiting)
		return messages.InspectionQueueMsg{Vehicles: listing.NeedsInspection(vs), Err: err}
	}
}

func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// Capturing reports whether the view consumes every key.
func (m Model) Capturing() bool {
	return m.selected != nil
}

// Queue returns the vehicles offered in the picker.
func (m Model) Queue() []api.Vehicle {
	return m.queue
}

// Err returns the message shown under the picker or the form.
func (m Model) Err() string {
	return m.err
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.InspectionQueueMsg:
		m.loading = false
		if msg.Err != nil {
			m.err = "Could not load vehicles: " + msg.Err.Error()
			return m, nil
		}
		m.err = ""
		m.queue = msg.Vehicles
		if m.cursor >= len(m.queue) {
			m.cursor = max(len(m.queue)-1, 0)
		}
		return m, nil

	case messages.InspectionSavedMsg:
		m.submitting = false
		if msg.Err != nil {
			m.err = msg.Err.Error()
			return m, nil
		}
		m.err = ""
		m.removeQueued(msg.Vehicle.ID)
		m.selected = nil
		m.form = checklist()
		text := fmt.Sprintf("Inspection recorded for %s", msg.Vehicle.Plate)
		return m, tea.Batch(
			func() tea.Msg { return messages.StatusMsg{Text: text} },
			func() tea.Msg { return messages.NavigateMsg{Path: nav.PathVehicles} },
		)

	case tea.KeyMsg:
		if m.selected != nil {
			return m.updateForm(msg)
		}
		switch msg.String() {
		case "j", "down":
			if m.cursor < len(m.queue)-1 {
				m.cursor++
			}
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
		case "r", "ctrl+r":
			m.loading = true
			return m, load(m.client)
		case "enter":
			if m.cursor < len(m.queue) {
				v := m.queue[m.cursor]
				m.selected = &v
				m.err = ""
			}
		}
	}
	return m, nil
}

func (m Model) updateForm(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if !m.submitting {
			m.selected = nil
			m.form = checklist()
			m.err = ""
		}
		return m, nil
	case "enter":
		return m.submit()
	}
	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg)
	return m, cmd
}

func (m Model) submit() (Model, tea.Cmd) {
	if m.submitting || m.selected == nil {
		return m, nil
	}
	e := api.InspectionEntry{
		VehicleID:        m.selected.ID,
		SafetyKitPresent: m.form.Value("kit") == "yes",
		SafetyKitNotes:   m.form.Value("kit_notes"),
		WithIgnitionKey:  m.form.Value("key") == "with key",
		Notes:            m.form.Value("notes"),
		VideoNotes:       m.form.Value("video_notes"),
	}
	m.submitting = true
	m.err = ""
	client := m.client
	return m, func() tea.Msg {
		v, err := client.CreateInspectionEntry(context.Background(), e)
		return messages.InspectionSavedMsg{Vehicle: v, Err: err}
	}
}

func (m *Model) removeQueued(id int64) {
	for i, v := range m.queue {
		if v.ID == id {
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			break
		}
	}
	if m.cursor >= len(m.queue) {
		m.cursor = max(len(m.queue)-1, 0)
	}
}

func (m Model) View() string {
	if m.selected != nil {
		return m.formView()
	}
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Entry inspection"))
	sb.WriteString("\n")
	switch {
	case m.loading:
		sb.WriteString(metaStyle.Render(" Loading vehicles..."))
	case m.err != "":
		sb.WriteString(errorStyle.Render(" " + m.err))
	case len(m.queue) == 0:
		sb.WriteString(metaStyle.Render(" No vehicle is waiting for an inspection."))
	default:
		for i, v := range m.queue {
			line := fmt.Sprintf(" %-8s %-22s %s", v.Plate, v.Model, v.WorkshopName())
			if i == m.cursor {
				line = selectedStyle.Render(line)
			}
			sb.WriteString(line + "\n")
		}
	}
	sb.WriteString("\n\n")
	sb.WriteString(metaStyle.Render(" j/k move  enter inspect  r refresh"))
	return sb.String()
}

func (m Model) formView() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(fmt.Sprintf("Entry inspection: %s %s", m.selected.Plate, m.selected.Model)))
	sb.WriteString("\n")
	sb.WriteString(bodyStyle.Render(m.form.View()))
	sb.WriteString("\n")
	switch {
	case m.submitting:
		sb.WriteString(metaStyle.Render("  Saving..."))
	case m.err != "":
		sb.WriteString(errorStyle.Render("  " + m.err))
	}
	sb.WriteString("\n\n")
	sb.WriteString(metaStyle.Render("  tab next field  ←/→ choose  enter save  esc back"))
	return sb.String()
}
