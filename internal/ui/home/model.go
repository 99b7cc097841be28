// Package home is the landing menu.
package home

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/ativo/internal/nav"
	"github.com/fragmede/ativo/internal/ui/messages"
)

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#1E6FD9")).Bold(true).Padding(1, 0)
	entryStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#1E6FD9")).Bold(true)
	lockStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#828282"))
)

type entry struct {
	label string
	path  string
}

var entries = []entry{
	{"Check a vehicle's status", nav.PathLookup},
	{"Dashboard", nav.PathDashboard},
	{"Vehicles", nav.PathVehicles},
	{"Awaiting approval", nav.PathApprovals},
	{"Add a vehicle", nav.PathNewVehicle},
	{"Entry inspection", nav.PathInspection},
	{"Workshops", nav.PathWorkshops},
}

// Model is the home menu.
type Model struct {
	cursor        int
	authenticated bool
	width         int
	height        int
}

func New() Model {
	return Model{}
}

func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// SetAuthenticated toggles the lock marks on protected entries.
func (m *Model) SetAuthenticated(ok bool) {
	m.authenticated = ok
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "j", "down":
			if m.cursor < len(entries)-1 {
				m.cursor++
			}
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
		case "enter":
			path := entries[m.cursor].path
			return m, func() tea.Msg { return messages.NavigateMsg{Path: path} }
		}
	}
	return m, nil
}

func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Ativo: repair tracking"))
	sb.WriteString("\n")
	for i, e := range entries {
		line := "  " + e.label
		style := entryStyle
		if i == m.cursor {
			line = "> " + e.label
			style = selectedStyle
		}
		sb.WriteString(style.Render(line))
		if nav.IsProtected(e.path) && !m.authenticated {
			sb.WriteString(lockStyle.Render("  (sign in required)"))
		}
		sb.WriteString("\n")
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, sb.String())
}
