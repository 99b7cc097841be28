// Package guard decides what a protected view shows for a given session.
package guard

import (
	"github.com/fragmede/ativo/internal/auth"
	"github.com/fragmede/ativo/internal/nav"
)

// Phase is the guard's view of the session.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseUnauthenticated
	PhaseAuthenticated
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseUnauthenticated:
		return "unauthenticated"
	case PhaseAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// PhaseOf maps a session snapshot to a phase. Loading takes precedence.
func PhaseOf(s auth.State) Phase {
	switch {
	case s.Loading:
		return PhaseLoading
	case s.Authenticated():
		return PhaseAuthenticated
	default:
		return PhaseUnauthenticated
	}
}

type Outcome int

const (
	OutcomeLoading Outcome = iota
	OutcomeRedirect
	OutcomeRender
)

// Decision is what to show for a protected path.
type Decision struct {
	Outcome Outcome
	// RedirectTo and Pending are set only for OutcomeRedirect.
	RedirectTo string
	Pending    nav.Pending
	// Notify is set by Guard.Evaluate on the render that enters the
	// unauthenticated phase.
	Notify bool
}

// Decide is the pure mapping from (session, path) to a decision.
func Decide(s auth.State, path string) Decision {
	switch PhaseOf(s) {
	case PhaseLoading:
		return Decision{Outcome: OutcomeLoading}
	case PhaseUnauthenticated:
		return Decision{
			Outcome:    OutcomeRedirect,
			RedirectTo: nav.PathLogin,
			Pending:    nav.Pending{Path: path},
		}
	default:
		return Decision{Outcome: OutcomeRender}
	}
}

// Guard adds edge detection to Decide. One Guard is mounted per visit to a
// protected path and starts in PhaseLoading.
type Guard struct {
	prev Phase
}

func New() *Guard {
	return &Guard{prev: PhaseLoading}
}

// Phase returns the phase seen by the last evaluation.
func (g *Guard) Phase() Phase {
	return g.prev
}

// Evaluate decides for the current render. Notify is true only when the
// previous evaluation was Loading or Authenticated and this one is not
// authenticated.
func (g *Guard) Evaluate(s auth.State, path string) Decision {
	d := Decide(s, path)
	cur := PhaseOf(s)
	if cur == PhaseUnauthenticated && g.prev != PhaseUnauthenticated {
		d.Notify = true
	}
	g.prev = cur
	return d
}
