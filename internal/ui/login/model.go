package login

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/ativo/internal/auth"
	"github.com/fragmede/ativo/internal/ui/messages"
)

var (
	focusedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#1E6FD9"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F2C94C"))
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#828282")).Italic(true)
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#1E6FD9")).Bold(true).
			Padding(1, 0)
)

// Mode selects between signing in and creating an account.
type Mode int

const (
	ModeSignIn Mode = iota
	ModeSignUp
)

// Authenticator is the part of the session store the form drives.
type Authenticator interface {
	Snapshot() auth.State
	SignIn(ctx context.Context, email, password string)
	SignUp(ctx context.Context, email, password string)
}

// Model is the login form view.
type Model struct {
	emailInput    textinput.Model
	passwordInput textinput.Model
	focusIndex    int
	mode          Mode
	err           string
	submitting    bool
	// restricted is set when the form was reached through a redirect.
	restricted bool
	session    auth.State
	store      Authenticator
	width      int
	height     int
}

// New creates a new login form.
func New(store Authenticator, restricted bool) Model {
	emailInput := textinput.New()
	emailInput.Placeholder = "email"
	emailInput.Focus()
	emailInput.Width = 30

	passwordInput := textinput.New()
	passwordInput.Placeholder = "password"
	passwordInput.EchoMode = textinput.EchoPassword
	passwordInput.Width = 30

	return Model{
		emailInput:    emailInput,
		passwordInput: passwordInput,
		restricted:    restricted,
		session:       store.Snapshot(),
		store:         store,
	}
}

// SetSize sets the viewport dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// SetSession records the latest session snapshot.
func (m *Model) SetSession(s auth.State) {
	m.session = s
}

// Mode returns the current form mode.
func (m Model) Mode() Mode {
	return m.mode
}

// Busy reports whether submission is disabled.
func (m Model) Busy() bool {
	return m.submitting || m.session.Loading
}

// Err returns the message shown under the form.
func (m Model) Err() string {
	return m.err
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "shift+tab":
			if m.focusIndex == 0 {
				m.focusIndex = 1
				m.emailInput.Blur()
				m.passwordInput.Focus()
			} else {
				m.focusIndex = 0
				m.passwordInput.Blur()
				m.emailInput.Focus()
			}
			return m, nil
		case "ctrl+t":
			if m.Busy() {
				return m, nil
			}
			if m.mode == ModeSignIn {
				m.mode = ModeSignUp
			} else {
				m.mode = ModeSignIn
			}
			m.err = ""
			return m, nil
		case "enter":
			return m.submit()
		}

	case messages.SessionMsg:
		m.session = msg.State
		return m, nil

	case messages.AuthDoneMsg:
		if msg.Op != messages.OpSignIn && msg.Op != messages.OpSignUp {
			return m, nil
		}
		m.submitting = false
		m.session = msg.State
		if msg.State.Authenticated() {
			m.err = ""
			return m, func() tea.Msg { return messages.LoginSucceededMsg{} }
		}
		m.err = msg.State.LastError
		if msg.Op == messages.OpSignUp && msg.State.Informational() {
			m.mode = ModeSignIn
			m.passwordInput.SetValue("")
		}
		return m, nil
	}

	var cmd tea.Cmd
	if m.focusIndex == 0 {
		m.emailInput, cmd = m.emailInput.Update(msg)
	} else {
		m.passwordInput, cmd = m.passwordInput.Update(msg)
	}
	return m, cmd
}

func (m Model) submit() (Model, tea.Cmd) {
	if m.Busy() {
		return m, nil
	}
	email := strings.TrimSpace(m.emailInput.Value())
	password := m.passwordInput.Value()
	if email == "" || password == "" {
		m.err = "Email and password are required"
		return m, nil
	}
	m.submitting = true
	m.err = ""

	store := m.store
	op := messages.OpSignIn
	if m.mode == ModeSignUp {
		op = messages.OpSignUp
	}
	return m, func() tea.Msg {
		ctx := context.Background()
		if op == messages.OpSignUp {
			store.SignUp(ctx, email, password)
		} else {
			store.SignIn(ctx, email, password)
		}
		return messages.AuthDoneMsg{Op: op, State: store.Snapshot()}
	}
}

// View renders the login form.
func (m Model) View() string {
	var sb strings.Builder

	title, action := "Sign in to Ativo", "sign in"
	if m.mode == ModeSignUp {
		title, action = "Create an Ativo account", "sign up"
	}
	sb.WriteString(titleStyle.Render(title))
	sb.WriteString("\n")
	if m.restricted {
		sb.WriteString(hintStyle.Render("Restricted area: sign in to continue"))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(labelStyle.Render("Email:"))
	sb.WriteString("\n")
	sb.WriteString(m.emailInput.View())
	sb.WriteString("\n\n")
	sb.WriteString(labelStyle.Render("Password:"))
	sb.WriteString("\n")
	sb.WriteString(m.passwordInput.View())
	sb.WriteString("\n\n")

	if m.err != "" {
		if m.err == m.session.LastError && m.session.Informational() {
			sb.WriteString(infoStyle.Render(m.err))
		} else {
			sb.WriteString(errorStyle.Render(m.err))
		}
		sb.WriteString("\n\n")
	}

	switch {
	case m.submitting:
		sb.WriteString("Please wait...")
	case m.session.Loading:
		sb.WriteString("Checking session...")
	default:
		other := "create an account"
		if m.mode == ModeSignUp {
			other = "sign in instead"
		}
		sb.WriteString(focusedStyle.Render("Enter") + " to " + action + ", " +
			focusedStyle.Render("Ctrl+T") + " to " + other + ", " +
			focusedStyle.Render("Esc") + " to cancel")
	}

	content := sb.String()
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}
