// Package form lays out the labelled inputs of the data-entry views.
package form

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#BDBDBD")).Width(22)
	focusedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#1E6FD9")).Bold(true).Width(22)
	choiceStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	arrowStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#1E6FD9"))
	emptyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#828282")).Italic(true)
)

// Field is one row of a form: free text, or a choice cycled with the arrow
// keys.
type Field struct {
	Key      string
	Label    string
	Required bool

	input    textinput.Model
	choice   bool
	options  []string
	selected int
}

// Text returns a free-text field.
func Text(key, label string, required bool) Field {
	in := textinput.New()
	in.Prompt = ""
	in.Width = 36
	in.CharLimit = 120
	return Field{Key: key, Label: label, Required: required, input: in}
}

// Choice returns a required field whose value is one of options.
func Choice(key, label string, options ...string) Field {
	return Field{Key: key, Label: label, Required: true, choice: true, options: options}
}

func (f Field) value() string {
	if f.choice {
		if f.selected < len(f.options) {
			return f.options[f.selected]
		}
		return ""
	}
	return strings.TrimSpace(f.input.Value())
}

// Model is an ordered set of fields with one of them focused.
type Model struct {
	fields []Field
	focus  int
}

// New creates a form focused on its first field.
func New(fields ...Field) Model {
	m := Model{fields: fields}
	m.setFocus(0)
	return m
}

func (m *Model) index(key string) int {
	for i := range m.fields {
		if m.fields[i].Key == key {
			return i
		}
	}
	return -1
}

// Value returns the trimmed text or the selected option of a field.
func (m Model) Value(key string) string {
	if i := m.index(key); i >= 0 {
		return m.fields[i].value()
	}
	return ""
}

// Selected returns the option index of a choice field, or -1 when it has no
// options.
func (m Model) Selected(key string) int {
	i := m.index(key)
	if i < 0 || len(m.fields[i].options) == 0 {
		return -1
	}
	return m.fields[i].selected
}

// SetValue fills a text field or selects the matching option of a choice.
func (m *Model) SetValue(key, v string) {
	i := m.index(key)
	if i < 0 {
		return
	}
	f := &m.fields[i]
	if !f.choice {
		f.input.SetValue(v)
		return
	}
	for j, o := range f.options {
		if o == v {
			f.selected = j
			return
		}
	}
}

// SetOptions replaces the options of a choice, keeping the selection when
// it is still offered.
func (m *Model) SetOptions(key string, options []string) {
	i := m.index(key)
	if i < 0 {
		return
	}
	f := &m.fields[i]
	prev := f.value()
	f.options = options
	f.selected = 0
	m.SetValue(key, prev)
}

// Missing returns the labels of required fields left blank.
func (m Model) Missing() []string {
	var out []string
	for _, f := range m.fields {
		if f.Required && f.value() == "" {
			out = append(out, f.Label)
		}
	}
	return out
}

// Reset clears text fields, selects the first option of every choice and
// focuses the first field.
func (m *Model) Reset() {
	for i := range m.fields {
		if m.fields[i].choice {
			m.fields[i].selected = 0
		} else {
			m.fields[i].input.SetValue("")
		}
	}
	m.setFocus(0)
}

// Focused returns the key of the focused field.
func (m Model) Focused() string {
	if len(m.fields) == 0 {
		return ""
	}
	return m.fields[m.focus].Key
}

func (m *Model) setFocus(i int) {
	if len(m.fields) == 0 {
		return
	}
	n := len(m.fields)
	i = (i%n + n) % n
	m.fields[m.focus].input.Blur()
	m.focus = i
	if !m.fields[i].choice {
		m.fields[i].input.Focus()
	}
}

// Update moves focus with tab and the vertical arrows, cycles choices with
// the horizontal arrows and space, and types into the focused text field.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if len(m.fields) == 0 {
		return m, nil
	}
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "tab", "down":
			m.setFocus(m.focus + 1)
			return m, nil
		case "shift+tab", "up":
			m.setFocus(m.focus - 1)
			return m, nil
		}
		if f := &m.fields[m.focus]; f.choice {
			if n := len(f.options); n > 0 {
				switch km.String() {
				case "right", " ", "l":
					f.selected = (f.selected + 1) % n
				case "left", "h":
					f.selected = (f.selected + n - 1) % n
				}
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.fields[m.focus].input, cmd = m.fields[m.focus].input.Update(msg)
	return m, cmd
}

// View renders one line per field.
func (m Model) View() string {
	var sb strings.Builder
	for i, f := range m.fields {
		label := f.Label
		if f.Required {
			label += " *"
		}
		style := labelStyle
		if i == m.focus {
			style = focusedStyle
		}
		sb.WriteString(style.Render(label))
		switch {
		case !f.choice:
			sb.WriteString(f.input.View())
		case len(f.options) == 0:
			sb.WriteString(emptyStyle.Render("(none available)"))
		case i == m.focus:
			sb.WriteString(arrowStyle.Render("< ") + choiceStyle.Render(f.value()) + arrowStyle.Render(" >"))
		default:
			sb.WriteString(choiceStyle.Render(f.value()))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
