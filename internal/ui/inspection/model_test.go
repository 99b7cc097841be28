package inspection

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fragmede/ativo/internal/api"
	"github.com/fragmede/ativo/internal/nav"
	"github.com/fragmede/ativo/internal/ui/messages"
)

type fakeSource struct {
	asked   []api.VehicleStatus
	entries []api.InspectionEntry
	fail    error
}

func (f *fakeSource) ListVehiclesByStatus(_ context.Context, s api.VehicleStatus) ([]api.Vehicle, error) {
	f.asked = append(f.asked, s)
	return []api.Vehicle{
		{ID: 1, Plate: "ABC1D23", Model: "Fiat Argo", InspectionStatus: api.InspectionPending},
		{ID: 2, Plate: "DEF4G56", Model: "VW Gol"},
		{ID: 3, Plate: "HIJ7K89", Model: "Onix", InspectionStatus: api.InspectionRejected},
		{ID: 4, Plate: "LMN0P12", Model: "HB20", InspectionStatus: api.InspectionApproved},
	}, nil
}

func (f *fakeSource) CreateInspectionEntry(_ context.Context, e api.InspectionEntry) (*api.Vehicle, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.entries = append(f.entries, e)
	return &api.Vehicle{ID: e.VehicleID, Plate: "HIJ7K89", InspectionStatus: api.InspectionPending}, nil
}

func loaded(t *testing.T, src *fakeSource) Model {
	t.Helper()
	m := New(src)
	m.SetSize(100, 30)
	m, _ = m.Update(m.Init()())
	if len(m.Queue()) != 2 {
		t.Fatalf("queue = %v", m.Queue())
	}
	return m
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m Model, t tea.KeyType) (Model, tea.Cmd) {
	return m.Update(tea.KeyMsg{Type: t})
}

func TestQueueSkipsInspectedVehicles(t *testing.T) {
	src := &fakeSource{}
	m := loaded(t, src)
	if len(src.asked) != 1 || src.asked[0] != api.StatusAwaiting {
		t.Errorf("asked for %v", src.asked)
	}
	q := m.Queue()
	if q[0].ID != 2 || q[1].ID != 3 {
		t.Errorf("queue ids %d, %d; want 2, 3", q[0].ID, q[1].ID)
	}
	if m.Capturing() {
		t.Error("picker captures keys")
	}
}

func TestRecordInspection(t *testing.T) {
	src := &fakeSource{}
	m := loaded(t, src)

	m, _ = m.Update(key("j"))
	m, _ = press(m, tea.KeyEnter)
	if !m.Capturing() {
		t.Fatal("form not opened")
	}
	m, _ = press(m, tea.KeyRight)
	m, _ = press(m, tea.KeyTab)
	m, _ = m.Update(key("warning triangle missing"))
	m.form.SetValue("notes", "Dent on the left door")

	m, cmd := press(m, tea.KeyEnter)
	if cmd == nil {
		t.Fatal("not submitted")
	}
	m, cmd = m.Update(cmd())

	if len(src.entries) != 1 {
		t.Fatalf("entries = %v", src.entries)
	}
	e := src.entries[0]
	if e.VehicleID != 3 || e.SafetyKitPresent || !e.WithIgnitionKey {
		t.Errorf("entry %+v", e)
	}
	if e.SafetyKitNotes != "warning triangle missing" || e.Notes != "Dent on the left door" {
		t.Errorf("notes %q / %q", e.SafetyKitNotes, e.Notes)
	}
	if m.Capturing() || len(m.Queue()) != 1 {
		t.Errorf("after save: capturing %v, queue %v", m.Capturing(), m.Queue())
	}

	batch, ok := cmd().(tea.BatchMsg)
	if !ok || len(batch) != 2 {
		t.Fatalf("after save got %#v", batch)
	}
	if st, ok := batch[0]().(messages.StatusMsg); !ok || st.Text != "Inspection recorded for HIJ7K89" {
		t.Errorf("toast = %#v", st)
	}
	if nm, ok := batch[1]().(messages.NavigateMsg); !ok || nm.Path != nav.PathVehicles {
		t.Errorf("navigation = %#v", nm)
	}
}

func TestRecordInspectionFailureKeepsForm(t *testing.T) {
	src := &fakeSource{fail: errors.New("permission denied for table vistorias_entrada")}
	m := loaded(t, src)
	m, _ = press(m, tea.KeyEnter)
	m, cmd := press(m, tea.KeyEnter)
	m, _ = m.Update(cmd())
	if !m.Capturing() || m.Err() != src.fail.Error() {
		t.Errorf("capturing %v err %q", m.Capturing(), m.Err())
	}
}

func TestEscReturnsToPicker(t *testing.T) {
	m := loaded(t, &fakeSource{})
	m, _ = press(m, tea.KeyEnter)
	m, _ = m.Update(key("x"))
	m, cmd := press(m, tea.KeyEsc)
	if cmd != nil || m.Capturing() {
		t.Error("esc did not close the form")
	}
	if m.form.Value("kit") != "yes" {
		t.Errorf("form not reset: kit = %q", m.form.Value("kit"))
	}
}
