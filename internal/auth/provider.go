package auth

import (
	"context"
	"errors"
	"time"
)

// ErrRejected marks provider errors caused by the request itself (wrong
// password, unconfirmed email, malformed address) rather than by transport.
// Provider implementations make their error values match it with errors.Is.
var ErrRejected = errors.New("rejected by auth provider")

// Identity is the authenticated user as reported by the provider.
type Identity struct {
	ID    string
	Email string
}

// RemoteSession is an issued provider session.
type RemoteSession struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	User         Identity
}

// Expired reports whether the access token is past its expiry at now.
func (s *RemoteSession) Expired(now time.Time) bool {
	if s == nil {
		return true
	}
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

type EventKind int

const (
	EventSignedIn EventKind = iota
	EventSignedOut
	EventTokenRefreshed
	EventUserUpdated
)

func (k EventKind) String() string {
	switch k {
	case EventSignedIn:
		return "signed_in"
	case EventSignedOut:
		return "signed_out"
	case EventTokenRefreshed:
		return "token_refreshed"
	case EventUserUpdated:
		return "user_updated"
	default:
		return "unknown"
	}
}

// Event is an auth-state notification. Session is nil when signed out.
type Event struct {
	Kind    EventKind
	Session *RemoteSession
}

// Provider is the remote auth/session service the Store drives.
type Provider interface {
	// GetCurrentSession returns the active session, or nil when there is none.
	GetCurrentSession(ctx context.Context) (*RemoteSession, error)
	SignInWithPassword(ctx context.Context, email, password string) (*RemoteSession, error)
	// SignUp returns a nil session when the account awaits email confirmation.
	SignUp(ctx context.Context, email, password string) (*RemoteSession, error)
	SignOut(ctx context.Context) error
	// Subscribe registers fn for change notifications until the returned
	// function is called.
	Subscribe(fn func(Event)) (unsubscribe func())
}
