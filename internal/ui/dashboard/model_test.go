package dashboard

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fragmede/ativo/internal/api"
)

type fakeLoader struct {
	d   *api.Dashboard
	err error
}

func (f fakeLoader) LoadDashboard(context.Context) (*api.Dashboard, error) { return f.d, f.err }

func TestDashboard(t *testing.T) {
	now := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	late := api.Vehicle{ID: 2, Plate: "LKJ8H90", Model: "Renault Kwid", WorkshopID: 2, Status: api.StatusLate}
	late.EnteredAt.Time = now.AddDate(0, 0, -12)
	d := &api.Dashboard{
		Vehicles: []api.Vehicle{
			{ID: 1, Plate: "ABC1D23", WorkshopID: 1, Status: api.StatusInProgress},
			late,
		},
		Workshops:        []api.Workshop{{ID: 1, Name: "Oficina Centro"}, {ID: 2, Name: "Oficina Norte"}},
		PendingFeedbacks: []api.Feedback{{ID: 1}},
	}

	m := New(fakeLoader{d: d})
	m.now = func() time.Time { return now }
	m, _ = m.Update(m.Init()())

	s := m.Summary()
	if s.Total != 2 || s.ByStatus[api.StatusLate] != 1 || s.PendingFeedbacks != 1 {
		t.Errorf("summary %+v", s)
	}
	view := m.View()
	for _, want := range []string{"LKJ8H90", "12 days", "Oficina Norte", "Pending feedback", "Inspection open"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestDashboardError(t *testing.T) {
	m := New(fakeLoader{err: errors.New("load workshops: boom")})
	m, _ = m.Update(m.Init()())
	if !strings.Contains(m.View(), "Error: load workshops: boom") {
		t.Errorf("view:\n%s", m.View())
	}
}
