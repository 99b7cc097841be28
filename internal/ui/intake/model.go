// Package intake registers a vehicle arriving at a partner workshop.
package intake

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/ativo/internal/api"
	"github.com/fragmede/ativo/internal/ui/form"
	"github.com/fragmede/ativo/internal/ui/messages"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#1E6FD9")).Bold(true).Padding(1, 0, 1, 1)
	bodyStyle  = lipgloss.NewStyle().PaddingLeft(2)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	hintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#828282"))
)

// Source is the data access the view needs.
type Source interface {
	ListWorkshops(ctx context.Context) ([]api.Workshop, error)
	CreateVehicle(ctx context.Context, d api.VehicleDraft) (*api.Vehicle, error)
}

// Model is the vehicle intake form.
type Model struct {
	form       form.Model
	workshops  []api.Workshop
	client     Source
	submitting bool
	err        string
	width      int
	height     int
}

// New creates the intake view.
func New(client Source) Model {
	return Model{
		client: client,
		form: form.New(
			form.Text("plate", "Plate", true),
			form.Choice("workshop", "Workshop"),
			form.Text("consultant", "Consultant", true),
			form.Text("renavam", "RENAVAM", true),
			form.Text("model", "Model", false),
			form.Text("chassis", "Chassis", false),
			form.Text("document", "Customer CPF/CNPJ", false),
			form.Text("customer", "Customer name", false),
			form.Text("phone", "Customer phone", false),
			form.Text("fipe", "FIPE value", false),
			form.Choice("third_party", "Third party", "no", "yes"),
		),
	}
}

// Init loads the workshops offered in the form.
func (m Model) Init() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ws, err := client.ListWorkshops(context.Background())
		return messages.WorkshopsLoadedMsg{Workshops: ws, Err: err}
	}
}

func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// Capturing reports whether the view consumes every key.
func (m Model) Capturing() bool {
	return true
}

// Err returns the message shown under the form.
func (m Model) Err() string {
	return m.err
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.WorkshopsLoadedMsg:
		if msg.Err != nil {
			m.err = "Could not load workshops: " + msg.Err.Error()
			return m, nil
		}
		m.workshops = msg.Workshops
		names := make([]string, len(msg.Workshops))
		for i, w := range msg.Workshops {
			names[i] = w.Name
		}
		m.form.SetOptions("workshop", names)
		return m, nil

	case messages.VehicleCreatedMsg:
		m.submitting = false
		if msg.Err != nil {
			m.err = msg.Err.Error()
			return m, nil
		}
		m.err = ""
		m.form.Reset()
		text := fmt.Sprintf("Vehicle %s added", msg.Vehicle.Plate)
		return m, func() tea.Msg { return messages.StatusMsg{Text: text} }

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, func() tea.Msg { return messages.GoBackMsg{} }
		case "enter":
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg)
	return m, cmd
}

func (m Model) submit() (Model, tea.Cmd) {
	if m.submitting {
		return m, nil
	}
	if missing := m.form.Missing(); len(missing) > 0 {
		m.err = "Please fill in: " + strings.Join(missing, ", ")
		return m, nil
	}
	fipe, err := ParseMoney(m.form.Value("fipe"))
	if err != nil {
		m.err = "FIPE value must be a number"
		return m, nil
	}
	d := api.VehicleDraft{
		Plate:            m.form.Value("plate"),
		Model:            m.form.Value("model"),
		Chassis:          m.form.Value("chassis"),
		Renavam:          m.form.Value("renavam"),
		CustomerDocument: m.form.Value("document"),
		CustomerName:     m.form.Value("customer"),
		CustomerPhone:    m.form.Value("phone"),
		FipeValue:        fipe,
		Consultant:       m.form.Value("consultant"),
		ThirdParty:       m.form.Value("third_party") == "yes",
	}
	if i := m.form.Selected("workshop"); i >= 0 && i < len(m.workshops) {
		d.WorkshopID = m.workshops[i].ID
	}

	m.submitting = true
	m.err = ""
	client := m.client
	return m, func() tea.Msg {
		v, err := client.CreateVehicle(context.Background(), d)
		return messages.VehicleCreatedMsg{Vehicle: v, Err: err}
	}
}

// ParseMoney reads an amount written as "51200", "51.200,00" or
// "R$ 51.200,00". Blank input is zero.
func ParseMoney(s string) (float64, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "R$"))
	if s == "" {
		return 0, nil
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	return strconv.ParseFloat(s, 64)
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("New vehicle"))
	b.WriteString("\n")
	b.WriteString(bodyStyle.Render(m.form.View()))
	b.WriteString("\n")
	switch {
	case m.submitting:
		b.WriteString(hintStyle.Render("  Saving..."))
	case m.err != "":
		b.WriteString(errorStyle.Render("  " + m.err))
	}
	b.WriteString("\n\n")
	b.WriteString(hintStyle.Render("  tab next field  ←/→ choose  enter save  esc back"))
	return b.String()
}
