// Package badge renders status labels.
package badge

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/ativo/internal/api"
)

type style struct {
	label string
	fg    lipgloss.Color
	bg    lipgloss.Color
}

var (
	vehicleStyles = map[api.VehicleStatus]style{
		api.StatusAwaiting:   {"Awaiting inspection", "#000000", "#F2C94C"},
		api.StatusInProgress: {"In progress", "#FFFFFF", "#2F80ED"},
		api.StatusDone:       {"Finished", "#FFFFFF", "#27AE60"},
		api.StatusLate:       {"Late", "#FFFFFF", "#EB5757"},
	}

	approvalStyles = map[string]style{
		string(api.ApprovalPending):    {"Pending", "#000000", "#F2C94C"},
		string(api.ApprovalApproved):   {"Approved", "#FFFFFF", "#27AE60"},
		string(api.ApprovalRejected):   {"Rejected", "#FFFFFF", "#EB5757"},
		string(api.InspectionPending):  {"Pending", "#000000", "#F2C94C"},
		string(api.InspectionApproved): {"Approved", "#FFFFFF", "#27AE60"},
		string(api.InspectionRejected): {"Rejected", "#FFFFFF", "#EB5757"},
	}

	workshopStyles = map[api.WorkshopStatus]style{
		api.WorkshopActive:   {"Active", "#FFFFFF", "#27AE60"},
		api.WorkshopIdle:     {"Idle", "#000000", "#BDBDBD"},
		api.WorkshopInReview: {"Under review", "#000000", "#F2C94C"},
	}

	unknown = style{fg: "#FFFFFF", bg: "#555555"}
)

// Label returns the display label of a vehicle status. Unknown values are
// shown as stored.
func Label(s api.VehicleStatus) string {
	if st, ok := vehicleStyles[s]; ok {
		return st.label
	}
	return string(s)
}

// Vehicle renders a vehicle status badge.
func Vehicle(s api.VehicleStatus) string {
	st, ok := vehicleStyles[s]
	if !ok {
		st = unknown
		st.label = string(s)
	}
	return render(st)
}

// Approval renders a feedback or inspection review badge.
func Approval(status string) string {
	st, ok := approvalStyles[status]
	if !ok {
		st = unknown
		st.label = status
	}
	return render(st)
}

// WorkshopLabel returns the display label of a workshop status.
func WorkshopLabel(s api.WorkshopStatus) string {
	if st, ok := workshopStyles[s]; ok {
		return st.label
	}
	return string(s)
}

// Workshop renders a workshop status badge.
func Workshop(s api.WorkshopStatus) string {
	st, ok := workshopStyles[s]
	if !ok {
		st = unknown
		st.label = string(s)
	}
	return render(st)
}

func render(st style) string {
	return lipgloss.NewStyle().
		Foreground(st.fg).
		Background(st.bg).
		Bold(true).
		Padding(0, 1).
		Render(st.label)
}
