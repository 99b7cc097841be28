package api

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/fragmede/ativo/internal/auth"
	"github.com/fragmede/ativo/internal/fakebackend"
)

const testAnonKey = "test-anon-key"

type memStorage struct {
	mu      sync.Mutex
	session *auth.RemoteSession
	saves   int
	clears  int
}

func (m *memStorage) LoadSession() (*auth.RemoteSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session, nil
}

func (m *memStorage) SaveSession(s *auth.RemoteSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = s
	m.saves++
	return nil
}

func (m *memStorage) ClearSession() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
	m.clears++
	return nil
}

func (m *memStorage) stored() *auth.RemoteSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

type eventLog struct {
	mu     sync.Mutex
	events []auth.Event
}

func (l *eventLog) record(ev auth.Event) {
	l.mu.Lock()
	l.events = append(l.events, ev)
	l.mu.Unlock()
}

func (l *eventLog) kinds() []auth.EventKind {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]auth.EventKind, len(l.events))
	for i, ev := range l.events {
		out[i] = ev.Kind
	}
	return out
}

type testEnv struct {
	backend *fakebackend.Server
	server  *httptest.Server
	client  *Client
	auth    *AuthClient
	storage *memStorage
	events  *eventLog
}

func newTestEnv(t *testing.T, opts fakebackend.Options) *testEnv {
	t.Helper()
	opts.AnonKey = testAnonKey
	backend := fakebackend.New(opts)
	if err := fakebackend.SeedDemo(backend); err != nil {
		t.Fatalf("seeding: %v", err)
	}
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	client := NewClient(Options{BaseURL: srv.URL, AnonKey: testAnonKey, Timeout: 5 * time.Second})
	storage := &memStorage{}
	ac := NewAuthClient(client, AuthOptions{Storage: storage, RefreshMargin: time.Minute})
	client.SetTokenSource(ac)

	events := &eventLog{}
	unsub := ac.Subscribe(events.record)
	t.Cleanup(unsub)
	t.Cleanup(func() { ac.Close() })

	return &testEnv{backend: backend, server: srv, client: client, auth: ac, storage: storage, events: events}
}

func TestSignInWithPassword(t *testing.T) {
	env := newTestEnv(t, fakebackend.Options{})
	ctx := context.Background()

	sess, err := env.auth.SignInWithPassword(ctx, fakebackend.DemoEmail, fakebackend.DemoPassword)
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if sess.User.Email != fakebackend.DemoEmail || sess.User.ID == "" {
		t.Errorf("unexpected identity %+v", sess.User)
	}
	if sess.ExpiresAt.Before(time.Now()) {
		t.Errorf("expiry in the past: %v", sess.ExpiresAt)
	}
	if env.auth.AccessToken() != sess.AccessToken {
		t.Error("access token not kept in memory")
	}
	if got := env.storage.stored(); got == nil || got.RefreshToken != sess.RefreshToken {
		t.Error("session not persisted")
	}
	if kinds := env.events.kinds(); len(kinds) != 1 || kinds[0] != auth.EventSignedIn {
		t.Errorf("events = %v", kinds)
	}

	claims, err := ParseAccessClaims(sess.AccessToken)
	if err != nil {
		t.Fatalf("claims: %v", err)
	}
	if claims.Subject != sess.User.ID || claims.Email != fakebackend.DemoEmail {
		t.Errorf("claims = %+v", claims)
	}
}

func TestSignInWithPassword_Rejections(t *testing.T) {
	env := newTestEnv(t, fakebackend.Options{})
	if _, err := env.backend.AddUser("new@ativo.local", "secret99", false); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name, email, password, want string
	}{
		{"wrong password", fakebackend.DemoEmail, "nope", "Invalid login credentials"},
		{"unknown user", "ghost@ativo.local", "whatever", "Invalid login credentials"},
		{"unconfirmed", "new@ativo.local", "secret99", "Email not confirmed"},
		{"empty password", fakebackend.DemoEmail, "", "email and password are required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess, err := env.auth.SignInWithPassword(context.Background(), tt.email, tt.password)
			if sess != nil {
				t.Fatal("expected no session")
			}
			if !errors.Is(err, auth.ErrRejected) {
				t.Fatalf("err = %v, want a rejection", err)
			}
			if err.Error() != tt.want {
				t.Errorf("message = %q, want %q", err.Error(), tt.want)
			}
		})
	}
	if len(env.events.kinds()) != 0 {
		t.Errorf("rejections must not emit events: %v", env.events.kinds())
	}
}

func TestSignInWithPassword_TransportFailure(t *testing.T) {
	env := newTestEnv(t, fakebackend.Options{})
	env.server.Close()

	_, err := env.auth.SignInWithPassword(context.Background(), fakebackend.DemoEmail, fakebackend.DemoPassword)
	if err == nil {
		t.Fatal("expected an error")
	}
	if errors.Is(err, auth.ErrRejected) {
		t.Fatalf("transport failure classified as rejection: %v", err)
	}
}

func TestSignUp(t *testing.T) {
	t.Run("confirmation required", func(t *testing.T) {
		env := newTestEnv(t, fakebackend.Options{RequireConfirmation: true})
		sess, err := env.auth.SignUp(context.Background(), "fresh@ativo.local", "secret99")
		if err != nil || sess != nil {
			t.Fatalf("sess=%v err=%v, want nil/nil", sess, err)
		}
		if env.auth.AccessToken() != "" {
			t.Error("no session expected before confirmation")
		}
		if len(env.events.kinds()) != 0 {
			t.Errorf("events = %v", env.events.kinds())
		}
	})

	t.Run("auto confirmed", func(t *testing.T) {
		env := newTestEnv(t, fakebackend.Options{})
		sess, err := env.auth.SignUp(context.Background(), "fresh@ativo.local", "secret99")
		if err != nil || sess == nil {
			t.Fatalf("sess=%v err=%v", sess, err)
		}
		if sess.User.Email != "fresh@ativo.local" {
			t.Errorf("email = %q", sess.User.Email)
		}
	})

	t.Run("duplicate", func(t *testing.T) {
		env := newTestEnv(t, fakebackend.Options{})
		_, err := env.auth.SignUp(context.Background(), fakebackend.DemoEmail, "secret99")
		if !errors.Is(err, auth.ErrRejected) || err.Error() != "User already registered" {
			t.Fatalf("err = %v", err)
		}
	})

	t.Run("weak password", func(t *testing.T) {
		env := newTestEnv(t, fakebackend.Options{})
		_, err := env.auth.SignUp(context.Background(), "fresh@ativo.local", "123")
		if !errors.Is(err, auth.ErrRejected) {
			t.Fatalf("err = %v", err)
		}
	})
}

func TestSignOut(t *testing.T) {
	env := newTestEnv(t, fakebackend.Options{})
	ctx := context.Background()
	if _, err := env.auth.SignInWithPassword(ctx, fakebackend.DemoEmail, fakebackend.DemoPassword); err != nil {
		t.Fatal(err)
	}

	if err := env.auth.SignOut(ctx); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if env.auth.AccessToken() != "" || env.storage.stored() != nil {
		t.Error("session not forgotten")
	}
	want := []auth.EventKind{auth.EventSignedIn, auth.EventSignedOut}
	if got := env.events.kinds(); len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("events = %v, want %v", got, want)
	}

	// Already signed out: no request, no event.
	if err := env.auth.SignOut(ctx); err != nil {
		t.Fatalf("second sign out: %v", err)
	}
	if len(env.events.kinds()) != 2 {
		t.Errorf("unexpected extra event: %v", env.events.kinds())
	}
}

func TestSignOut_RevokedSessionStillClears(t *testing.T) {
	env := newTestEnv(t, fakebackend.Options{})
	ctx := context.Background()
	sess, err := env.auth.SignInWithPassword(ctx, fakebackend.DemoEmail, fakebackend.DemoPassword)
	if err != nil {
		t.Fatal(err)
	}
	env.backend.Revoke(sess.User.ID)

	if err := env.auth.SignOut(ctx); err != nil {
		t.Fatalf("sign out of revoked session: %v", err)
	}
	if env.auth.AccessToken() != "" {
		t.Error("session not forgotten")
	}
}

func TestGetCurrentSession(t *testing.T) {
	t.Run("nothing stored", func(t *testing.T) {
		env := newTestEnv(t, fakebackend.Options{})
		sess, err := env.auth.GetCurrentSession(context.Background())
		if err != nil || sess != nil {
			t.Fatalf("sess=%v err=%v", sess, err)
		}
	})

	t.Run("restores stored session", func(t *testing.T) {
		env := newTestEnv(t, fakebackend.Options{})
		stored := &auth.RemoteSession{
			AccessToken:  "tok",
			RefreshToken: "ref",
			ExpiresAt:    time.Now().Add(time.Hour),
			User:         auth.Identity{ID: "u1", Email: "a@b.c"},
		}
		env.storage.SaveSession(stored)

		sess, err := env.auth.GetCurrentSession(context.Background())
		if err != nil || sess == nil || sess.User.ID != "u1" {
			t.Fatalf("sess=%v err=%v", sess, err)
		}
		if env.auth.AccessToken() != "tok" {
			t.Error("restored token not used for requests")
		}
	})

	t.Run("renews near expiry", func(t *testing.T) {
		env := newTestEnv(t, fakebackend.Options{TokenTTL: 30 * time.Second})
		first, err := env.auth.SignInWithPassword(context.Background(), fakebackend.DemoEmail, fakebackend.DemoPassword)
		if err != nil {
			t.Fatal(err)
		}
		sess, err := env.auth.GetCurrentSession(context.Background())
		if err != nil || sess == nil {
			t.Fatalf("sess=%v err=%v", sess, err)
		}
		if sess.RefreshToken == first.RefreshToken {
			t.Error("expected a rotated refresh token")
		}
		if got := env.storage.stored(); got == nil || got.RefreshToken != sess.RefreshToken {
			t.Error("renewed session not persisted")
		}
	})

	t.Run("drops revoked stored session", func(t *testing.T) {
		env := newTestEnv(t, fakebackend.Options{})
		env.storage.SaveSession(&auth.RemoteSession{
			AccessToken:  "stale",
			RefreshToken: "unknown",
			ExpiresAt:    time.Now().Add(-time.Minute),
			User:         auth.Identity{ID: "u1"},
		})
		sess, err := env.auth.GetCurrentSession(context.Background())
		if err != nil || sess != nil {
			t.Fatalf("sess=%v err=%v, want nil/nil", sess, err)
		}
		if env.storage.stored() != nil {
			t.Error("stale session left in storage")
		}
	})
}

func TestRefreshIfDue(t *testing.T) {
	t.Run("renews and notifies", func(t *testing.T) {
		env := newTestEnv(t, fakebackend.Options{TokenTTL: 30 * time.Second})
		first, err := env.auth.SignInWithPassword(context.Background(), fakebackend.DemoEmail, fakebackend.DemoPassword)
		if err != nil {
			t.Fatal(err)
		}
		env.auth.refreshIfDue()

		kinds := env.events.kinds()
		if len(kinds) != 2 || kinds[1] != auth.EventTokenRefreshed {
			t.Fatalf("events = %v", kinds)
		}
		if got := env.storage.stored(); got.RefreshToken == first.RefreshToken {
			t.Error("refresh token not rotated")
		}
	})

	t.Run("not due", func(t *testing.T) {
		env := newTestEnv(t, fakebackend.Options{TokenTTL: time.Hour})
		if _, err := env.auth.SignInWithPassword(context.Background(), fakebackend.DemoEmail, fakebackend.DemoPassword); err != nil {
			t.Fatal(err)
		}
		env.auth.refreshIfDue()
		if kinds := env.events.kinds(); len(kinds) != 1 {
			t.Fatalf("events = %v", kinds)
		}
	})

	t.Run("revoked elsewhere", func(t *testing.T) {
		env := newTestEnv(t, fakebackend.Options{TokenTTL: 30 * time.Second})
		sess, err := env.auth.SignInWithPassword(context.Background(), fakebackend.DemoEmail, fakebackend.DemoPassword)
		if err != nil {
			t.Fatal(err)
		}
		env.backend.Revoke(sess.User.ID)
		env.auth.refreshIfDue()

		kinds := env.events.kinds()
		if len(kinds) != 2 || kinds[1] != auth.EventSignedOut {
			t.Fatalf("events = %v", kinds)
		}
		if env.auth.AccessToken() != "" || env.storage.stored() != nil {
			t.Error("revoked session kept")
		}
	})

	t.Run("transport failure keeps session", func(t *testing.T) {
		env := newTestEnv(t, fakebackend.Options{TokenTTL: 30 * time.Second})
		sess, err := env.auth.SignInWithPassword(context.Background(), fakebackend.DemoEmail, fakebackend.DemoPassword)
		if err != nil {
			t.Fatal(err)
		}
		env.server.Close()
		env.auth.refreshIfDue()

		if env.auth.AccessToken() != sess.AccessToken {
			t.Error("session dropped on transport failure")
		}
		if kinds := env.events.kinds(); len(kinds) != 1 {
			t.Errorf("events = %v", kinds)
		}
	})
}

func TestAuthClient_StoreIntegration(t *testing.T) {
	env := newTestEnv(t, fakebackend.Options{})
	store := auth.NewStore(env.auth, nil)
	defer store.Close()

	ctx := context.Background()
	store.Initialize(ctx)
	if s := store.Snapshot(); s.Loading || s.Authenticated() {
		t.Fatalf("after init: %+v", s)
	}

	store.SignIn(ctx, fakebackend.DemoEmail, "wrong")
	if s := store.Snapshot(); s.LastError != "Invalid login credentials" || s.ErrorKind != auth.ErrorKindCredential {
		t.Fatalf("after bad sign in: %+v", s)
	}

	store.SignIn(ctx, fakebackend.DemoEmail, fakebackend.DemoPassword)
	s := store.Snapshot()
	if !s.Authenticated() || s.User.Email != fakebackend.DemoEmail || s.LastError != "" {
		t.Fatalf("after sign in: %+v", s)
	}

	store.SignOut(ctx)
	if s := store.Snapshot(); s.Authenticated() || s.Loading {
		t.Fatalf("after sign out: %+v", s)
	}
}
