package home

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fragmede/ativo/internal/nav"
	"github.com/fragmede/ativo/internal/ui/messages"
)

func TestMenu(t *testing.T) {
	m := New()
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	msg, ok := cmd().(messages.NavigateMsg)
	if !ok || msg.Path != nav.PathVehicles {
		t.Fatalf("got %#v", msg)
	}

	if !strings.Contains(m.View(), "sign in required") {
		t.Error("protected entries not marked")
	}
	m.SetAuthenticated(true)
	if strings.Contains(m.View(), "sign in required") {
		t.Error("marks shown while authenticated")
	}
}
