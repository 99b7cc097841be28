package messages

import (
	"github.com/fragmede/ativo/internal/api"
	"github.com/fragmede/ativo/internal/auth"
)

// Navigation messages.
type (
	// NavigateMsg asks the app to open a path.
	NavigateMsg struct{ Path string }
	GoBackMsg   struct{}
	// SignOutMsg asks the app to end the session.
	SignOutMsg struct{}
)

// AuthOp names a store operation started from the UI.
type AuthOp int

const (
	OpInitialize AuthOp = iota
	OpSignIn
	OpSignUp
	OpSignOut
)

func (o AuthOp) String() string {
	switch o {
	case OpInitialize:
		return "initialize"
	case OpSignIn:
		return "sign_in"
	case OpSignUp:
		return "sign_up"
	case OpSignOut:
		return "sign_out"
	default:
		return "unknown"
	}
}

// Session messages.
type (
	// SessionMsg carries every snapshot published by the session store.
	SessionMsg struct{ State auth.State }

	// AuthDoneMsg reports that a store operation returned. State is the
	// snapshot right after it settled.
	AuthDoneMsg struct {
		Op    AuthOp
		State auth.State
	}

	// LoginSucceededMsg is sent by the login form once the visitor is
	// authenticated.
	LoginSucceededMsg struct{}

	// ClearStatusMsg removes the toast with the matching id.
	ClearStatusMsg struct{ ID int }
)

// Data messages.
type (
	DashboardLoadedMsg struct {
		Dashboard *api.Dashboard
		Err       error
	}

	VehiclesLoadedMsg struct {
		Vehicles  []api.Vehicle
		Workshops []api.Workshop
		// Cached is set when the list came from the local cache.
		Cached bool
		Err    error
	}

	VehicleUpdatedMsg struct {
		Vehicle *api.Vehicle
		Err     error
	}

	UpdatesLoadedMsg struct {
		VehicleID int64
		Updates   []api.Update
		Err       error
	}

	LookupResultMsg struct {
		Query    string
		Vehicles []api.Vehicle
		Err      error
	}

	ApprovalsLoadedMsg struct {
		Feedbacks   []api.Feedback
		Inspections []api.Vehicle
		Err         error
	}

	ReviewResultMsg struct {
		Target   string
		ID       int64
		Approved bool
		Err      error
	}

	// PendingCountMsg is sent by the approvals monitor. New is how many
	// items appeared since the previous check.
	PendingCountMsg struct {
		Feedbacks   int
		Inspections int
		New         int
	}

	WorkshopsLoadedMsg struct {
		Workshops []api.Workshop
		Err       error
	}

	WorkshopSavedMsg struct {
		Workshop *api.Workshop
		Created  bool
		Err      error
	}

	VehicleCreatedMsg struct {
		Vehicle *api.Vehicle
		Err     error
	}

	// InspectionQueueMsg lists the vehicles still waiting for an intake
	// inspection.
	InspectionQueueMsg struct {
		Vehicles []api.Vehicle
		Err      error
	}

	InspectionSavedMsg struct {
		Vehicle *api.Vehicle
		Err     error
	}

	StatusMsg struct {
		Text    string
		IsError bool
	}
)
