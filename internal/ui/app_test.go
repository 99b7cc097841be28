package ui

import (
	"bytes"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fragmede/ativo/internal/api"
	"github.com/fragmede/ativo/internal/auth"
	"github.com/fragmede/ativo/internal/cache"
	"github.com/fragmede/ativo/internal/config"
	"github.com/fragmede/ativo/internal/fakebackend"
	"github.com/fragmede/ativo/internal/nav"
	"github.com/fragmede/ativo/internal/ui/login"
	"github.com/fragmede/ativo/internal/ui/messages"
)

// queue stands in for tea.Program: Send only enqueues.
type queue struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (q *queue) Send(msg tea.Msg) {
	q.mu.Lock()
	q.msgs = append(q.msgs, msg)
	q.mu.Unlock()
}

func (q *queue) take() []tea.Msg {
	q.mu.Lock()
	defer q.mu.Unlock()
	msgs := q.msgs
	q.msgs = nil
	return msgs
}

type harness struct {
	t       *testing.T
	app     *App
	q       *queue
	backend *fakebackend.Server
	authc   *api.AuthClient
}

// newHarness wires the app to an in-memory backend the way main does.
func newHarness(t *testing.T, opts fakebackend.Options, margin time.Duration) *harness {
	t.Helper()
	opts.AnonKey = "ui-test-key"
	backend := fakebackend.New(opts)
	if err := fakebackend.SeedDemo(backend); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	db, err := cache.Open(filepath.Join(t.TempDir(), "ui.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	client := api.NewClient(api.Options{BaseURL: srv.URL, AnonKey: opts.AnonKey})
	authc := api.NewAuthClient(client, api.AuthOptions{
		Storage:         db,
		RefreshMargin:   margin,
		RefreshInterval: 20 * time.Millisecond,
	})
	client.SetTokenSource(authc)
	t.Cleanup(func() { authc.Close() })

	store := auth.NewStore(authc, nil)
	t.Cleanup(store.Close)

	cfg := config.Default()
	cfg.DefaultDestination = nav.PathVehicles
	cfg.ToastDuration = time.Hour

	h := &harness{t: t, q: &queue{}, backend: backend, authc: authc}
	h.app = NewApp(cfg, store, client, db, nil, nil)
	h.app.SetProgram(h.q)
	t.Cleanup(h.app.Close)
	h.app.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	h.dispatch(h.app.Init())
	h.settle()
	return h
}

func (h *harness) dispatch(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	go func() {
		if msg := cmd(); msg != nil {
			h.q.Send(msg)
		}
	}()
}

func (h *harness) handle(msg tea.Msg) {
	switch msg := msg.(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			h.dispatch(c)
		}
	case spinner.TickMsg, cursor.BlinkMsg, tea.QuitMsg:
	default:
		_, cmd := h.app.Update(msg)
		h.dispatch(cmd)
	}
}

// settle pumps messages until nothing arrives for a short while.
func (h *harness) settle() {
	h.until(func() bool { return false }, 200*time.Millisecond)
}

// until pumps messages until cond holds or the queue stays idle for idle.
func (h *harness) until(cond func() bool, idle time.Duration) {
	h.t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	last := time.Now()
	for time.Now().Before(deadline) {
		msgs := h.q.take()
		for _, m := range msgs {
			h.handle(m)
		}
		if cond() {
			return
		}
		if len(msgs) > 0 {
			last = time.Now()
		} else if time.Since(last) > idle {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func (h *harness) send(msg tea.Msg) {
	h.handle(msg)
	h.settle()
}

func (h *harness) keys(s string) {
	h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func (h *harness) signIn(email, password string) {
	h.t.Helper()
	if h.app.Path() != nav.PathLogin {
		h.t.Fatalf("not on the login form: %s", h.app.Path())
	}
	h.keys(email)
	h.send(tea.KeyMsg{Type: tea.KeyTab})
	h.keys(password)
	h.send(tea.KeyMsg{Type: tea.KeyEnter})
}

func TestScenario_RedirectThenSignInReturnsToDestination(t *testing.T) {
	h := newHarness(t, fakebackend.Options{}, time.Minute)
	if h.app.session.Loading || h.app.session.Authenticated() {
		t.Fatalf("initial session %+v", h.app.session)
	}

	h.keys("D")
	if h.app.Path() != nav.PathLogin {
		t.Fatalf("path = %s, want login", h.app.Path())
	}
	if got := h.app.statusBar.Status(); got != RestrictedNotice {
		t.Errorf("toast = %q", got)
	}
	if p, ok := h.app.router.Pending(); !ok || p.Path != nav.PathDashboard {
		t.Fatalf("pending = %+v, %v", p, ok)
	}

	// Re-rendering in the same state must not notify again.
	h.send(messages.StatusMsg{Text: "other"})
	h.send(messages.SessionMsg{State: h.app.session})
	if got := h.app.statusBar.Status(); got != "other" {
		t.Errorf("notice fired again: %q", got)
	}

	h.signIn(fakebackend.DemoEmail, fakebackend.DemoPassword)
	if !h.app.session.Authenticated() || h.app.session.Loading {
		t.Fatalf("session after sign in: %+v", h.app.session)
	}
	if h.app.Path() != nav.PathDashboard {
		t.Fatalf("path = %s, want %s", h.app.Path(), nav.PathDashboard)
	}
	if _, ok := h.app.router.Pending(); ok {
		t.Error("pending destination not consumed")
	}
	if h.app.dashboard.Summary().Total == 0 {
		t.Error("dashboard did not load")
	}

	// Sign out, then sign in again without a redirect.
	h.keys("O")
	if h.app.Path() != nav.PathHome || h.app.session.Authenticated() {
		t.Fatalf("after sign out: path=%s session=%+v", h.app.Path(), h.app.session)
	}
	if got := h.app.statusBar.Status(); got == RestrictedNotice {
		t.Error("sign out reported as a restricted redirect")
	}
	h.keys("L")
	h.signIn(fakebackend.DemoEmail, fakebackend.DemoPassword)
	if h.app.Path() != nav.PathVehicles {
		t.Errorf("second sign in went to %s, want the default destination", h.app.Path())
	}
}

func TestScenario_InvalidCredentials(t *testing.T) {
	h := newHarness(t, fakebackend.Options{}, time.Minute)
	h.keys("L")
	h.signIn(fakebackend.DemoEmail, "wrong-password")

	if h.app.Path() != nav.PathLogin || h.app.session.Authenticated() {
		t.Fatalf("path=%s session=%+v", h.app.Path(), h.app.session)
	}
	if got := h.app.loginForm.Err(); got != "Invalid login credentials" {
		t.Errorf("form error = %q", got)
	}
	if h.app.loginForm.Busy() || h.app.session.Loading {
		t.Error("form left busy after a failure")
	}
}

func TestScenario_SignUpPendingConfirmation(t *testing.T) {
	h := newHarness(t, fakebackend.Options{RequireConfirmation: true}, time.Minute)
	h.keys("L")
	h.send(tea.KeyMsg{Type: tea.KeyCtrlT})
	if h.app.loginForm.Mode() != login.ModeSignUp {
		t.Fatal("form not in sign-up mode")
	}
	h.signIn("new@ativo.local", "secret123")

	if h.app.session.Authenticated() {
		t.Fatal("unconfirmed account was signed in")
	}
	if h.app.session.LastError != auth.PendingConfirmationMessage || !h.app.session.Informational() {
		t.Errorf("session = %+v", h.app.session)
	}
	if h.app.loginForm.Mode() != login.ModeSignIn {
		t.Error("form did not switch back to sign-in mode")
	}
	if h.app.Path() != nav.PathLogin {
		t.Errorf("path = %s", h.app.Path())
	}
}

func TestScenario_RemoteRevocationRedirects(t *testing.T) {
	// A margin longer than the token lifetime makes every tick a refresh.
	h := newHarness(t, fakebackend.Options{}, 2*time.Hour)
	h.keys("L")
	h.signIn(fakebackend.DemoEmail, fakebackend.DemoPassword)
	h.keys("D")
	if h.app.Path() != nav.PathDashboard || !h.app.session.Authenticated() {
		t.Fatalf("setup: path=%s session=%+v", h.app.Path(), h.app.session)
	}

	uid, ok := h.backend.UserID(fakebackend.DemoEmail)
	if !ok {
		t.Fatal("demo user missing")
	}
	h.backend.Revoke(uid)
	h.authc.Start()

	h.until(func() bool { return h.app.Path() == nav.PathLogin }, 2*time.Second)
	if h.app.Path() != nav.PathLogin || h.app.session.Authenticated() {
		t.Fatalf("after revocation: path=%s session=%+v", h.app.Path(), h.app.session)
	}
	if got := h.app.statusBar.Status(); got != RestrictedNotice {
		t.Errorf("toast = %q", got)
	}
	if p, ok := h.app.router.Pending(); !ok || p.Path != nav.PathDashboard {
		t.Errorf("pending = %+v, %v", p, ok)
	}
}

func TestProtectedPathShowsSpinnerWhileLoading(t *testing.T) {
	store := auth.NewStore(nil, nil)
	cfg := config.Default()
	cfg.StartPath = nav.PathApprovals
	app := NewApp(cfg, store, nil, nil, nil, nil)
	app.Update(tea.WindowSizeMsg{Width: 80, Height: 20})
	app.mount()

	if app.Path() != nav.PathApprovals || app.loaded {
		t.Fatalf("path=%s loaded=%v", app.Path(), app.loaded)
	}
	if view := app.View(); !strings.Contains(view, "Checking session") {
		t.Errorf("view:\n%s", view)
	}
}

func TestSignOutLogsCacheCleanupFailure(t *testing.T) {
	db, err := cache.Open(filepath.Join(t.TempDir(), "ui.db"))
	if err != nil {
		t.Fatal(err)
	}
	db.Close()

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	app := NewApp(config.Default(), auth.NewStore(nil, nil), nil, db, nil, log)
	app.session = auth.State{User: &auth.Identity{ID: "u1", Email: "a@b.c"}}

	cmd := app.onSession(auth.State{})
	if cmd == nil {
		t.Fatal("no cleanup command after sign out")
	}
	if batch, ok := cmd().(tea.BatchMsg); ok {
		for _, c := range batch {
			if c != nil {
				c()
			}
		}
	}
	if !strings.Contains(buf.String(), "forgetting cached tables") {
		t.Errorf("cleanup failure not logged:\n%s", buf.String())
	}
}

func TestScenario_DataEntryViewsAreGuarded(t *testing.T) {
	h := newHarness(t, fakebackend.Options{}, time.Minute)

	h.keys("W")
	if h.app.Path() != nav.PathLogin {
		t.Fatalf("path = %s, want login", h.app.Path())
	}
	if p, ok := h.app.router.Pending(); !ok || p.Path != nav.PathWorkshops {
		t.Fatalf("pending = %+v, %v", p, ok)
	}
	h.signIn(fakebackend.DemoEmail, fakebackend.DemoPassword)
	if h.app.Path() != nav.PathWorkshops {
		t.Fatalf("path = %s, want %s", h.app.Path(), nav.PathWorkshops)
	}
	if n := len(h.app.workshops.Visible()); n != 3 {
		t.Fatalf("workshops loaded %d", n)
	}

	h.keys("N")
	if h.app.Path() != nav.PathNewVehicle || !h.app.capturing() {
		t.Fatalf("path = %s capturing = %v", h.app.Path(), h.app.capturing())
	}
	h.keys("XYZ1A23")
	h.send(tea.KeyMsg{Type: tea.KeyTab})
	h.send(tea.KeyMsg{Type: tea.KeyTab})
	h.keys("Paula Reis")
	h.send(tea.KeyMsg{Type: tea.KeyTab})
	h.keys("00987654321")
	h.send(tea.KeyMsg{Type: tea.KeyEnter})
	if got := h.app.statusBar.Status(); got != "Vehicle XYZ1A23 added" {
		t.Fatalf("toast = %q, form error %q", got, h.app.intake.Err())
	}
	if n := len(h.backend.Rows("veiculos")); n != 12 {
		t.Errorf("veiculos rows = %d", n)
	}

	h.send(tea.KeyMsg{Type: tea.KeyEsc})
	if h.app.Path() != nav.PathWorkshops {
		t.Fatalf("esc went to %s", h.app.Path())
	}

	h.keys("I")
	if h.app.Path() != nav.PathInspection {
		t.Fatalf("path = %s", h.app.Path())
	}
	found := false
	for _, v := range h.app.inspect.Queue() {
		found = found || v.Plate == "XYZ1A23"
	}
	if !found {
		t.Errorf("new vehicle missing from the inspection queue: %+v", h.app.inspect.Queue())
	}
}
