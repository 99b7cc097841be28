// Package nav tracks where the visitor is, where they came from, and the
// destination a login redirect should return to.
package nav

import "strings"

const (
	PathHome      = "/"
	PathLookup    = "/consulta"
	PathLogin     = "/login"
	PathDashboard = "/admin/dashboard"
	PathVehicles  = "/admin/veiculos"
	PathApprovals = "/admin/aguardando-aprovacao"

	PathNewVehicle = "/admin/adicionar-veiculo"
	PathInspection = "/admin/vistoria-entrada"
	PathWorkshops  = "/admin/oficinas"
)

const protectedPrefix = "/admin"

// Pending is the path a visitor tried to reach before being sent to login.
type Pending struct {
	Path string
}

// IsProtected reports whether path requires an authenticated visitor.
func IsProtected(path string) bool {
	return path == protectedPrefix || strings.HasPrefix(path, protectedPrefix+"/")
}

// Router holds the current path, a back stack and at most one Pending.
// A Pending survives only while the visitor stays on the page it was
// redirected to; any other navigation discards it.
type Router struct {
	current string
	history []string
	pending *Pending
}

func New(start string) *Router {
	if start == "" {
		start = PathHome
	}
	return &Router{current: start}
}

func (r *Router) Current() string {
	return r.current
}

// Navigate pushes path onto the history.
func (r *Router) Navigate(path string) {
	r.pending = nil
	if path == r.current {
		return
	}
	r.history = append(r.history, r.current)
	r.current = path
}

// Redirect replaces the current entry with path and carries p along.
func (r *Router) Redirect(path string, p Pending) {
	r.current = path
	r.pending = &p
}

// Replace swaps the current entry for path without adding history.
func (r *Router) Replace(path string) {
	r.pending = nil
	r.current = path
}

// Back returns to the previous entry. It reports false at the bottom of the stack.
func (r *Router) Back() bool {
	r.pending = nil
	if len(r.history) == 0 {
		return false
	}
	r.current = r.history[len(r.history)-1]
	r.history = r.history[:len(r.history)-1]
	return true
}

// Reset clears history and moves to path.
func (r *Router) Reset(path string) {
	r.pending = nil
	r.history = nil
	r.current = path
}

// Pending returns the carried destination without consuming it.
func (r *Router) Pending() (Pending, bool) {
	if r.pending == nil {
		return Pending{}, false
	}
	return *r.pending, true
}

// TakePending returns and discards the carried destination.
func (r *Router) TakePending() (Pending, bool) {
	p, ok := r.Pending()
	r.pending = nil
	return p, ok
}
