package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fragmede/ativo/internal/logging"
)

// PendingConfirmationMessage is stored as LastError after a sign-up that
// still needs the visitor to confirm their email address.
const PendingConfirmationMessage = "Check your email to confirm your account"

// ErrorKind tags LastError so callers can tell information from failure.
type ErrorKind int

const (
	ErrorKindNone ErrorKind = iota
	ErrorKindCredential
	ErrorKindPendingConfirmation
	ErrorKindTransport
)

// State is an immutable snapshot of the session.
type State struct {
	User      *Identity
	Loading   bool
	LastError string
	ErrorKind ErrorKind
}

// Authenticated is the only authentication predicate.
func (s State) Authenticated() bool {
	return s.User != nil
}

// Informational reports whether LastError is a notice rather than a failure.
func (s State) Informational() bool {
	return s.ErrorKind == ErrorKindPendingConfirmation
}

// Store owns the single session of the running client. All mutation goes
// through its methods and the provider subscription; readers receive
// snapshots through Snapshot or Subscribe.
type Store struct {
	provider Provider
	log      logging.Logger

	mu    sync.Mutex
	state State
	// version increases on every mutation and orders published snapshots.
	version uint64
	// seq stamps remote calls at issue time and notifications at arrival.
	seq uint64
	// identitySeq is the stamp of the last write to state.User.
	identitySeq uint64
	listeners   map[int]func(State)
	nextID      int

	subscribeOnce sync.Once
	unsubscribe   func()

	dispatchMu sync.Mutex
	dispatched uint64
}

// NewStore returns a store in the initial Loading state.
func NewStore(provider Provider, log logging.Logger) *Store {
	if log == nil {
		log = logging.Nop()
	}
	return &Store{
		provider:  provider,
		log:       log,
		state:     State{Loading: true},
		listeners: make(map[int]func(State)),
	}
}

// Snapshot returns the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn to receive every published snapshot in order.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Initialize resolves the current session and starts listening for provider
// notifications. Calling it again only re-reads the current session.
func (s *Store) Initialize(ctx context.Context) {
	s.subscribeOnce.Do(func() {
		unsub := s.provider.Subscribe(s.onEvent)
		s.mu.Lock()
		s.unsubscribe = unsub
		s.mu.Unlock()
	})

	seq := s.begin()
	defer s.recoverOp("initialize")

	sess, err := s.provider.GetCurrentSession(ctx)
	if err != nil {
		s.log.Warn("reading current session failed", "err", err)
		s.fail(err, "Could not restore session")
		return
	}
	s.settle(seq, true, identityOf(sess), "", ErrorKindNone)
	s.log.Debug("session resolved", "authenticated", sess != nil)
}

// SignIn verifies credentials with the provider. Input validation is the
// caller's job.
func (s *Store) SignIn(ctx context.Context, email, password string) {
	seq := s.begin()
	defer s.recoverOp("sign in")

	sess, err := s.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		s.log.Info("sign in failed", "email", email, "err", err)
		s.fail(err, "Sign in failed")
		return
	}
	if sess == nil {
		s.fail(errors.New("provider returned no session"), "Sign in failed")
		return
	}
	s.settle(seq, true, identityOf(sess), "", ErrorKindNone)
	s.log.Info("signed in", "user", sess.User.ID)
}

// SignUp registers an account. Without an active session in the response the
// visitor must confirm their email first; that outcome is stored as an
// informational LastError and the identity is left untouched.
func (s *Store) SignUp(ctx context.Context, email, password string) {
	seq := s.begin()
	defer s.recoverOp("sign up")

	sess, err := s.provider.SignUp(ctx, email, password)
	if err != nil {
		s.log.Info("sign up failed", "email", email, "err", err)
		s.fail(err, "Sign up failed")
		return
	}
	if sess == nil {
		s.settle(seq, false, nil, PendingConfirmationMessage, ErrorKindPendingConfirmation)
		s.log.Info("sign up awaiting confirmation", "email", email)
		return
	}
	s.settle(seq, true, identityOf(sess), "", ErrorKindNone)
	s.log.Info("signed up", "user", sess.User.ID)
}

// SignOut ends the session. The local identity is cleared whether or not the
// provider call succeeds; a failure is still reported through LastError.
func (s *Store) SignOut(ctx context.Context) {
	s.begin()

	var err error
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("auth operation panicked", "op", "sign out", "panic", r)
			err = fmt.Errorf("unexpected error during sign out: %v", r)
		}
		s.clearIdentity(err)
	}()

	err = s.provider.SignOut(ctx)
}

func (s *Store) clearIdentity(err error) {
	s.mu.Lock()
	s.seq++
	s.identitySeq = s.seq
	s.state.User = nil
	s.state.Loading = false
	if err != nil {
		msg, kind := describe(err, "Sign out failed")
		s.state.LastError = msg
		s.state.ErrorKind = kind
	}
	s.version++
	s.mu.Unlock()
	s.publish()

	if err != nil {
		s.log.Warn("sign out failed", "err", err)
	} else {
		s.log.Info("signed out")
	}
}

// Close stops provider notifications and drops all listeners.
func (s *Store) Close() {
	s.mu.Lock()
	unsub := s.unsubscribe
	s.unsubscribe = nil
	s.listeners = make(map[int]func(State))
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

func (s *Store) onEvent(ev Event) {
	s.mu.Lock()
	s.seq++
	s.identitySeq = s.seq
	s.state.User = identityOf(ev.Session)
	s.state.Loading = false
	s.version++
	s.mu.Unlock()

	s.log.Debug("auth notification", "kind", ev.Kind.String(), "authenticated", ev.Session != nil)
	s.publish()
}

func (s *Store) begin() uint64 {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.state.Loading = true
	s.state.LastError = ""
	s.state.ErrorKind = ErrorKindNone
	s.version++
	s.mu.Unlock()

	s.publish()
	return seq
}

// settle ends an operation. The identity is written only when setUser is true
// and nothing newer has written it since the call was issued.
func (s *Store) settle(seq uint64, setUser bool, user *Identity, msg string, kind ErrorKind) {
	s.mu.Lock()
	if setUser && seq > s.identitySeq {
		s.state.User = user
		s.identitySeq = seq
	}
	s.state.Loading = false
	s.state.LastError = msg
	s.state.ErrorKind = kind
	s.version++
	s.mu.Unlock()

	s.publish()
}

func (s *Store) fail(err error, fallback string) {
	msg, kind := describe(err, fallback)

	s.mu.Lock()
	s.state.Loading = false
	s.state.LastError = msg
	s.state.ErrorKind = kind
	s.version++
	s.mu.Unlock()

	s.publish()
}

func (s *Store) recoverOp(op string) {
	r := recover()
	if r == nil {
		return
	}
	s.log.Error("auth operation panicked", "op", op, "panic", r)
	s.fail(fmt.Errorf("unexpected error during %s: %v", op, r), "Unexpected error")
}

// publish delivers the latest snapshot to listeners. Snapshots older than one
// already delivered are dropped so listeners never observe time going back.
func (s *Store) publish() {
	s.mu.Lock()
	state := s.state
	version := s.version
	fns := make([]func(State), 0, len(s.listeners))
	for id := 0; id < s.nextID; id++ {
		if fn, ok := s.listeners[id]; ok {
			fns = append(fns, fn)
		}
	}
	s.mu.Unlock()

	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()
	if version <= s.dispatched {
		return
	}
	s.dispatched = version
	for _, fn := range fns {
		fn(state)
	}
}

func describe(err error, fallback string) (string, ErrorKind) {
	kind := ErrorKindTransport
	if errors.Is(err, ErrRejected) {
		kind = ErrorKindCredential
	}
	msg := err.Error()
	if msg == "" {
		msg = fallback
	}
	return msg, kind
}

func identityOf(sess *RemoteSession) *Identity {
	if sess == nil {
		return nil
	}
	u := sess.User
	return &u
}
