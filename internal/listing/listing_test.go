package listing

import (
	"testing"
	"time"

	"github.com/fragmede/ativo/internal/api"
)

func fleet() []api.Vehicle {
	return []api.Vehicle{
		{ID: 1, Plate: "ABC1D23", Model: "Fiat Argo", WorkshopID: 1, Status: api.StatusAwaiting, InspectionStatus: api.InspectionPending},
		{ID: 2, Plate: "BRA2E19", Model: "VW Gol", WorkshopID: 1, Status: api.StatusInProgress, InspectionStatus: api.InspectionApproved},
		{ID: 3, Plate: "QWE4R56", Model: "Chevrolet Onix", WorkshopID: 2, Status: api.StatusInProgress, InspectionStatus: api.InspectionRejected},
		{ID: 4, Plate: "ABD9Z99", Model: "Fiat Mobi", WorkshopID: 2, Status: api.StatusDone, InspectionStatus: api.InspectionApproved},
	}
}

func ids(vs []api.Vehicle) []int64 {
	out := make([]int64, len(vs))
	for i, v := range vs {
		out[i] = v.ID
	}
	return out
}

func TestApply(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   []int64
	}{
		{"empty", Filter{}, []int64{1, 2, 3, 4}},
		{"plate prefix with separator", Filter{Plate: "ab-"}, []int64{1, 4}},
		{"model case-insensitive", Filter{Model: "fiat"}, []int64{1, 4}},
		{"workshop", Filter{WorkshopID: 2}, []int64{3, 4}},
		{"status", Filter{Status: api.StatusInProgress}, []int64{2, 3}},
		{"combined", Filter{Model: "fiat", WorkshopID: 2}, []int64{4}},
		{"no match", Filter{Plate: "XYZ"}, []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Apply(fleet(), tt.filter))
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestAwaitingInspection(t *testing.T) {
	got := ids(AwaitingInspection(fleet()))
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Errorf("got %v", got)
	}
}

func TestNeedsInspection(t *testing.T) {
	vs := append(fleet(), api.Vehicle{ID: 5, Plate: "NEW0A00", Status: api.StatusAwaiting})
	got := ids(NeedsInspection(vs))
	if len(got) != 2 || got[0] != 3 || got[1] != 5 {
		t.Errorf("got %v", got)
	}
}

func TestPaginate(t *testing.T) {
	items := make([]int, 23)
	for i := range items {
		items[i] = i
	}
	tests := []struct {
		name      string
		items     []int
		page      int
		wantNum   int
		wantTotal int
		wantLen   int
		wantFirst int
	}{
		{"first", items, 1, 1, 3, 10, 0},
		{"last partial", items, 3, 3, 3, 3, 20},
		{"past end clamps", items, 9, 3, 3, 3, 20},
		{"zero clamps", items, 0, 1, 3, 10, 0},
		{"empty list", nil, 2, 1, 1, 0, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Paginate(tt.items, tt.page, 10)
			if p.Number != tt.wantNum || p.Total != tt.wantTotal || len(p.Items) != tt.wantLen {
				t.Fatalf("got page %d/%d with %d items", p.Number, p.Total, len(p.Items))
			}
			if tt.wantFirst >= 0 && p.Items[0] != tt.wantFirst {
				t.Errorf("first item %d, want %d", p.Items[0], tt.wantFirst)
			}
		})
	}
}

func TestDaysSince(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		t    time.Time
		want int
	}{
		{time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), 9},
		{time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC), 0},
		{time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), 0},
		{time.Time{}, 0},
	}
	for _, tt := range tests {
		if got := DaysSince(tt.t, now); got != tt.want {
			t.Errorf("DaysSince(%v) = %d, want %d", tt.t, got, tt.want)
		}
	}
}

func TestSummarize(t *testing.T) {
	now := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	vs := fleet()
	vs[0].EnteredAt.Time = now.AddDate(0, 0, -4)
	vs[1].EnteredAt.Time = now.AddDate(0, 0, -2)
	vs[2].EnteredAt.Time = now.AddDate(0, 0, -6)
	vs[3].EnteredAt.Time = now.AddDate(0, 0, -30)
	vs[2].ThirdParty = true

	s := Summarize(&api.Dashboard{Vehicles: vs, PendingFeedbacks: make([]api.Feedback, 2)}, now)
	if s.Total != 4 || s.ThirdParty != 1 || s.PendingFeedbacks != 2 {
		t.Errorf("got %+v", s)
	}
	if s.ByStatus[api.StatusInProgress] != 2 || s.PerWorkshop[2] != 2 {
		t.Errorf("breakdown %+v", s)
	}
	if s.AvgDays != 4 {
		t.Errorf("avg days = %v, want 4", s.AvgDays)
	}

	if empty := Summarize(nil, now); empty.Total != 0 || empty.ByStatus == nil {
		t.Errorf("nil dashboard: %+v", empty)
	}
}
