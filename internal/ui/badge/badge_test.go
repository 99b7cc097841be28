package badge

import (
	"strings"
	"testing"

	"github.com/fragmede/ativo/internal/api"
)

func TestLabel(t *testing.T) {
	tests := []struct {
		status api.VehicleStatus
		want   string
	}{
		{api.StatusAwaiting, "Awaiting inspection"},
		{api.StatusInProgress, "In progress"},
		{api.StatusDone, "Finished"},
		{api.StatusLate, "Late"},
		{"cancelado", "cancelado"},
	}
	for _, tt := range tests {
		if got := Label(tt.status); got != tt.want {
			t.Errorf("Label(%q) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestBadgesContainLabel(t *testing.T) {
	if got := Vehicle(api.StatusLate); !strings.Contains(got, "Late") {
		t.Errorf("vehicle badge %q", got)
	}
	if got := Approval(string(api.InspectionRejected)); !strings.Contains(got, "Rejected") {
		t.Errorf("approval badge %q", got)
	}
	if got := Approval("weird"); !strings.Contains(got, "weird") {
		t.Errorf("unknown badge %q", got)
	}
}

func TestWorkshopBadges(t *testing.T) {
	if got := WorkshopLabel(api.WorkshopInReview); got != "Under review" {
		t.Errorf("label = %q", got)
	}
	if got := Workshop(api.WorkshopIdle); !strings.Contains(got, "Idle") {
		t.Errorf("workshop badge %q", got)
	}
	if got := Workshop("fechada"); !strings.Contains(got, "fechada") {
		t.Errorf("unknown workshop badge %q", got)
	}
}
