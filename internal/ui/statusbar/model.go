package statusbar

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/ativo/internal/nav"
)

var (
	barStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#333333")).
			Foreground(lipgloss.Color("#FFFFFF"))

	activeTabStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#1E6FD9")).
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true).
			Padding(0, 1)

	inactiveTabStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("#555555")).
				Foreground(lipgloss.Color("#CCCCCC")).
				Padding(0, 1)

	userStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#333333")).
			Foreground(lipgloss.Color("#00FF00")).
			Padding(0, 1)

	pendingStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#FF0000")).
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true).
			Padding(0, 1)

	statusTextStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#333333")).
			Foreground(lipgloss.Color("#AAAAAA")).
			Padding(0, 1)

	errorTextStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#8B0000")).
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true).
			Padding(0, 1)
)

type tab struct {
	label string
	path  string
}

var tabs = []tab{
	{"Home", nav.PathHome},
	{"Lookup", nav.PathLookup},
	{"Dashboard", nav.PathDashboard},
	{"Vehicles", nav.PathVehicles},
	{"Approvals", nav.PathApprovals},
}

// Model is the status bar at the bottom of the screen.
type Model struct {
	width      int
	activePath string
	email      string
	pending    int
	statusText string
	isError    bool
	toastID    int
}

// New creates a new status bar.
func New() Model {
	return Model{activePath: nav.PathHome}
}

// SetSize sets the width.
func (m *Model) SetSize(w int) {
	m.width = w
}

// SetActivePath highlights the tab for path.
func (m *Model) SetActivePath(path string) {
	m.activePath = path
}

// SetUser sets the signed-in email; empty means signed out.
func (m *Model) SetUser(email string) {
	m.email = email
}

// SetPending sets the approval backlog count.
func (m *Model) SetPending(count int) {
	m.pending = count
}

// SetStatus shows a transient message and returns its id for ClearStatus.
func (m *Model) SetStatus(text string, isError bool) int {
	m.toastID++
	m.statusText = text
	m.isError = isError
	return m.toastID
}

// ClearStatus removes the message with the given id if it is still shown.
func (m *Model) ClearStatus(id int) {
	if id == m.toastID {
		m.statusText = ""
		m.isError = false
	}
}

// Status returns the message currently shown.
func (m Model) Status() string {
	return m.statusText
}

// Update is a no-op for the status bar.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the status bar.
func (m Model) View() string {
	var tabsStr string
	for _, t := range tabs {
		if t.path == m.activePath {
			tabsStr += activeTabStyle.Render(t.label)
		} else {
			tabsStr += inactiveTabStyle.Render(t.label)
		}
	}

	var right string
	if m.statusText != "" {
		if m.isError {
			right += errorTextStyle.Render(m.statusText)
		} else {
			right += statusTextStyle.Render(m.statusText)
		}
	}
	if m.pending > 0 {
		right += pendingStyle.Render(fmt.Sprintf(" %d pending ", m.pending))
	}
	if m.email != "" {
		right += userStyle.Render(m.email)
	} else {
		right += statusTextStyle.Render("L:sign in")
	}

	tabsWidth := lipgloss.Width(tabsStr)
	rightWidth := lipgloss.Width(right)
	gap := m.width - tabsWidth - rightWidth
	if gap < 0 {
		gap = 0
	}
	mid := barStyle.Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, tabsStr, mid, right)
}
