// Package workshops lists the partner workshops and edits their records.
package workshops

import (
	"context"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/ativo/internal/api"
	"github.com/fragmede/ativo/internal/ui/badge"
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
	ListWorkshops(ctx context.Context) ([]api.Workshop, error)
	SaveWorkshop(ctx context.Context, w api.Workshop) (*api.Workshop, error)
}

// Model is the workshop list and, while editing, the workshop form.
type Model struct {
	all     []api.Workshop
	status  api.WorkshopStatus
	cursor  int
	editing *api.Workshop
	form    form.Model
	client  Source
	loading bool
	saving  bool
	err     string
	width   int
	height  int
}

// New creates the workshops view.
func New(client Source) Model {
	return Model{client: client, loading: true}
}

func editor(w api.Workshop) form.Model {
	labels := make([]string, len(api.WorkshopStatuses))
	for i, s := range api.WorkshopStatuses {
		labels[i] = badge.WorkshopLabel(s)
	}
	f := form.New(
		form.Text("name", "Name", true),
		form.Text("cnpj", "CNPJ", true),
		form.Text("phone", "Phone", true),
		form.Text("email", "Email", false),
		form.Text("address", "Address", true),
		form.Text("city", "City", false),
		form.Text("state", "State", false),
		form.Text("manager", "Manager", true),
		form.Choice("status", "Status", labels...),
	)
	f.SetValue("name", w.Name)
	f.SetValue("cnpj", w.CNPJ)
	f.SetValue("phone", w.Phone)
	f.SetValue("email", w.Email)
	f.SetValue("address", w.Address)
	f.SetValue("city", w.City)
	f.SetValue("state", w.State)
	f.SetValue("manager", w.Manager)
	if w.Status != "" {
		f.SetValue("status", badge.WorkshopLabel(w.Status))
	}
	return f
}

// Init loads the workshops.
func (m Model) Init() tea.Cmd {
	return load(m.client)
}

func load(client Source) tea.Cmd {
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
	return m.editing != nil
}

// Visible returns the workshops that pass the status filter.
func (m Model) Visible() []api.Workshop {
	if m.status == "" {
		return m.all
	}
	var out []api.Workshop
	for _, w := range m.all {
		if w.Status == m.status {
			out = append(out, w)
		}
	}
	return out
}

// Err returns the message shown under the list or the form.
func (m Model) Err() string {
	return m.err
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.WorkshopsLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.err = "Could not load workshops: " + msg.Err.Error()
			return m, nil
		}
		m.err = ""
		m.all = msg.Workshops
		m.clamp()
		return m, nil

	case messages.WorkshopSavedMsg:
		m.saving = false
		if msg.Err != nil {
			m.err = msg.Err.Error()
			return m, nil
		}
		m.err = ""
		m.editing = nil
		m.store(*msg.Workshop)
		verb := "saved"
		if msg.Created {
			verb = "added"
		}
		text := fmt.Sprintf("Workshop %s %s", msg.Workshop.Name, verb)
		return m, func() tea.Msg { return messages.StatusMsg{Text: text} }

	case tea.KeyMsg:
		if m.editing != nil {
			return m.updateForm(msg)
		}
		visible := m.Visible()
		switch msg.String() {
		case "j", "down":
			if m.cursor < len(visible)-1 {
				m.cursor++
			}
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
		case "f":
			m.status = nextStatus(m.status)
			m.cursor = 0
		case "n":
			m.open(api.Workshop{})
		case "e", "enter":
			if m.cursor < len(visible) {
				m.open(visible[m.cursor])
			}
		case "r", "ctrl+r":
			m.loading = true
			return m, load(m.client)
		}
	}
	return m, nil
}

func (m *Model) open(w api.Workshop) {
	m.editing = &w
	m.form = editor(w)
	m.err = ""
}

func (m Model) updateForm(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if !m.saving {
			m.editing = nil
			m.err = ""
		}
		return m, nil
	case "enter":
		return m.save()
	}
	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg)
	return m, cmd
}

func (m Model) save() (Model, tea.Cmd) {
	if m.saving {
		return m, nil
	}
	if missing := m.form.Missing(); len(missing) > 0 {
		m.err = "Please fill in: " + strings.Join(missing, ", ")
		return m, nil
	}
	w := *m.editing
	w.Name = m.form.Value("name")
	w.CNPJ = m.form.Value("cnpj")
	w.Phone = m.form.Value("phone")
	w.Email = m.form.Value("email")
	w.Address = m.form.Value("address")
	w.City = m.form.Value("city")
	w.State = m.form.Value("state")
	w.Manager = m.form.Value("manager")
	if i := m.form.Selected("status"); i >= 0 {
		w.Status = api.WorkshopStatuses[i]
	}

	m.saving = true
	m.err = ""
	client := m.client
	created := w.ID == 0
	return m, func() tea.Msg {
		saved, err := client.SaveWorkshop(context.Background(), w)
		return messages.WorkshopSavedMsg{Workshop: saved, Created: created, Err: err}
	}
}

// store replaces or appends w, keeping the list ordered by name.
func (m *Model) store(w api.Workshop) {
	replaced := false
	for i := range m.all {
		if m.all[i].ID == w.ID {
			m.all[i] = w
			replaced = true
			break
		}
	}
	if !replaced {
		m.all = append(m.all, w)
	}
	sort.SliceStable(m.all, func(i, j int) bool { return m.all[i].Name < m.all[j].Name })
	m.clamp()
}

func (m *Model) clamp() {
	if n := len(m.Visible()); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
}

func nextStatus(cur api.WorkshopStatus) api.WorkshopStatus {
	if cur == "" {
		return api.WorkshopStatuses[0]
	}
	for i, s := range api.WorkshopStatuses {
		if s == cur && i+1 < len(api.WorkshopStatuses) {
			return api.WorkshopStatuses[i+1]
		}
	}
	return ""
}

func (m Model) View() string {
	if m.editing != nil {
		return m.formView()
	}
	var sb strings.Builder
	filter := "all"
	if m.status != "" {
		filter = badge.WorkshopLabel(m.status)
	}
	sb.WriteString(titleStyle.Render("Workshops"))
	sb.WriteString(metaStyle.Render(" status: " + filter))
	sb.WriteString("\n")
	visible := m.Visible()
	switch {
	case m.loading:
		sb.WriteString(metaStyle.Render(" Loading workshops..."))
	case m.err != "":
		sb.WriteString(errorStyle.Render(" " + m.err))
	case len(visible) == 0:
		sb.WriteString(metaStyle.Render(" No workshops match the current filter."))
	default:
		for i, w := range visible {
			line := fmt.Sprintf(" %-24s %-16s %-16s", w.Name, w.City, w.Manager)
			if i == m.cursor {
				line = selectedStyle.Render(line)
			}
			sb.WriteString(line + " " + badge.Workshop(w.Status) + "\n")
		}
	}
	sb.WriteString("\n\n")
	sb.WriteString(metaStyle.Render(" j/k move  n new  e edit  f status  r refresh"))
	return sb.String()
}

func (m Model) formView() string {
	var sb strings.Builder
	title := "New workshop"
	if m.editing.ID != 0 {
		title = "Edit workshop: " + m.editing.Name
	}
	sb.WriteString(titleStyle.Render(title))
	sb.WriteString("\n")
	sb.WriteString(bodyStyle.Render(m.form.View()))
	sb.WriteString("\n")
	switch {
	case m.saving:
		sb.WriteString(metaStyle.Render("  Saving..."))
	case m.err != "":
		sb.WriteString(errorStyle.Render("  " + m.err))
	}
	sb.WriteString("\n\n")
	sb.WriteString(metaStyle.Render("  tab next field  ←/→ choose  enter save  esc cancel"))
	return sb.String()
}
