package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/ativo/internal/auth"
	"github.com/fragmede/ativo/internal/cache"
	"github.com/fragmede/ativo/internal/config"
	"github.com/fragmede/ativo/internal/guard"
	"github.com/fragmede/ativo/internal/logging"
	"github.com/fragmede/ativo/internal/nav"
	"github.com/fragmede/ativo/internal/ui/approvals"
	"github.com/fragmede/ativo/internal/ui/dashboard"
	"github.com/fragmede/ativo/internal/ui/home"
	"github.com/fragmede/ativo/internal/ui/inspection"
	"github.com/fragmede/ativo/internal/ui/intake"
	"github.com/fragmede/ativo/internal/ui/login"
	"github.com/fragmede/ativo/internal/ui/lookup"
	"github.com/fragmede/ativo/internal/ui/messages"
	"github.com/fragmede/ativo/internal/ui/statusbar"
	"github.com/fragmede/ativo/internal/ui/vehicles"
	"github.com/fragmede/ativo/internal/ui/workshops"
)

// RestrictedNotice is the toast shown when a visitor is sent to login.
const RestrictedNotice = "Restricted access: sign in to continue"

// SessionStore is the session store as seen by the UI. Its mutators block
// on the network and are only called from commands.
type SessionStore interface {
	login.Authenticator
	Subscribe(fn func(auth.State)) (unsubscribe func())
	Initialize(ctx context.Context)
	SignOut(ctx context.Context)
}

// Backend is the table access used by the views.
type Backend interface {
	vehicles.Source
	approvals.Source
	dashboard.Loader
	lookup.Source
	intake.Source
	inspection.Source
	workshops.Source
}

// Activator switches background polling on and off.
type Activator interface {
	SetActive(active bool)
}

// Sender delivers messages from other goroutines into the program.
type Sender interface {
	Send(msg tea.Msg)
}

// App is the root Bubble Tea model.
type App struct {
	router *nav.Router
	// guard is mounted while the current path is protected.
	guard   *guard.Guard
	outcome guard.Outcome
	loaded  bool

	session auth.State

	// Child models
	home      home.Model
	lookup    lookup.Model
	dashboard dashboard.Model
	vehicles  vehicles.Model
	approvals approvals.Model
	intake    intake.Model
	inspect   inspection.Model
	workshops workshops.Model
	loginForm login.Model
	statusBar statusbar.Model
	spinner   spinner.Model
	showHelp  bool

	// Shared state
	cfg     config.Config
	store   SessionStore
	client  Backend
	cache   *cache.DB
	monitor Activator
	log     logging.Logger

	// Dimensions
	width  int
	height int

	program     Sender
	unsubscribe func()
}

// NewApp creates the root application model. db and mon may be nil.
func NewApp(cfg config.Config, store SessionStore, client Backend, db *cache.DB, mon Activator, log logging.Logger) *App {
	if log == nil {
		log = logging.Nop()
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = SpinnerStyle

	return &App{
		router:    nav.New(cfg.StartPath),
		session:   store.Snapshot(),
		home:      home.New(),
		statusBar: statusbar.New(),
		spinner:   sp,
		cfg:       cfg,
		store:     store,
		client:    client,
		cache:     db,
		monitor:   mon,
		log:       log,
	}
}

// SetProgram subscribes the program to session snapshots.
func (a *App) SetProgram(p Sender) {
	a.program = p
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	a.unsubscribe = a.store.Subscribe(func(s auth.State) {
		p.Send(messages.SessionMsg{State: s})
	})
}

// Close drops the session subscription.
func (a *App) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
}

// Path returns the current route.
func (a *App) Path() string {
	return a.router.Current()
}

// Init resolves the session and mounts the start path.
func (a *App) Init() tea.Cmd {
	store := a.store
	initialize := func() tea.Msg {
		store.Initialize(context.Background())
		return messages.AuthDoneMsg{Op: messages.OpInitialize, State: store.Snapshot()}
	}
	return tea.Batch(a.spinner.Tick, initialize, a.mount())
}

// Update handles all messages.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.statusBar.SetSize(msg.Width)
		a.resize()
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		if cmd, handled := a.handleKey(msg); handled {
			return a, cmd
		}

	case messages.SessionMsg:
		return a, a.onSession(msg.State)

	case messages.AuthDoneMsg:
		a.log.Debug("auth op settled", "op", msg.Op, "authenticated", msg.State.Authenticated(), "error", msg.State.LastError)
		switch msg.Op {
		case messages.OpSignOut:
			return a, a.toast("Signed out", false)
		case messages.OpInitialize:
			if msg.State.ErrorKind == auth.ErrorKindTransport {
				return a, a.toast("Could not reach the server: "+msg.State.LastError, true)
			}
			return a, nil
		}

	case messages.LoginSucceededMsg:
		dest := a.cfg.DefaultDestination
		if p, ok := a.router.TakePending(); ok {
			dest = p.Path
		}
		a.log.Info("signed in", "destination", dest)
		a.router.Replace(dest)
		return a, a.mount()

	case messages.NavigateMsg:
		return a, a.navigate(msg.Path)

	case messages.GoBackMsg:
		return a, a.back()

	case messages.SignOutMsg:
		return a, a.signOut()

	case messages.StatusMsg:
		return a, a.toast(msg.Text, msg.IsError)

	case messages.ClearStatusMsg:
		a.statusBar.ClearStatus(msg.ID)
		return a, nil

	case messages.PendingCountMsg:
		a.statusBar.SetPending(msg.Feedbacks + msg.Inspections)
		var cmds []tea.Cmd
		if msg.New > 0 {
			cmds = append(cmds, a.toast(fmt.Sprintf("%d new item(s) awaiting approval", msg.New), false))
		}
		if a.router.Current() == nav.PathApprovals && a.loaded {
			var cmd tea.Cmd
			a.approvals, cmd = a.approvals.Update(msg)
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)
	}

	return a, a.routeToView(msg)
}

// routeToView forwards msg to the view for the current path.
func (a *App) routeToView(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.router.Current() {
	case nav.PathHome:
		a.home, cmd = a.home.Update(msg)
	case nav.PathLookup:
		a.lookup, cmd = a.lookup.Update(msg)
	case nav.PathLogin:
		a.loginForm, cmd = a.loginForm.Update(msg)
	case nav.PathDashboard:
		if a.loaded {
			a.dashboard, cmd = a.dashboard.Update(msg)
		}
	case nav.PathVehicles:
		if a.loaded {
			a.vehicles, cmd = a.vehicles.Update(msg)
		}
	case nav.PathApprovals:
		if a.loaded {
			a.approvals, cmd = a.approvals.Update(msg)
		}
	case nav.PathNewVehicle:
		if a.loaded {
			a.intake, cmd = a.intake.Update(msg)
		}
	case nav.PathInspection:
		if a.loaded {
			a.inspect, cmd = a.inspect.Update(msg)
		}
	case nav.PathWorkshops:
		if a.loaded {
			a.workshops, cmd = a.workshops.Update(msg)
		}
	}
	return cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		return tea.Quit, true
	}
	if a.capturing() {
		if a.router.Current() == nav.PathLogin && key.Matches(msg, Keys.Back) {
			return a.back(), true
		}
		return nil, false
	}

	switch {
	case key.Matches(msg, Keys.Quit):
		if a.router.Current() == nav.PathHome {
			return tea.Quit, true
		}
		return a.back(), true
	case key.Matches(msg, Keys.Back):
		return a.back(), true
	case key.Matches(msg, Keys.Help):
		a.showHelp = !a.showHelp
		a.resize()
		return nil, true
	case key.Matches(msg, Keys.Home):
		return a.navigate(nav.PathHome), true
	case key.Matches(msg, Keys.Lookup):
		return a.navigate(nav.PathLookup), true
	case key.Matches(msg, Keys.Dashboard):
		return a.navigate(nav.PathDashboard), true
	case key.Matches(msg, Keys.Vehicles):
		return a.navigate(nav.PathVehicles), true
	case key.Matches(msg, Keys.Approvals):
		return a.navigate(nav.PathApprovals), true
	case key.Matches(msg, Keys.NewVehicle):
		return a.navigate(nav.PathNewVehicle), true
	case key.Matches(msg, Keys.Inspection):
		return a.navigate(nav.PathInspection), true
	case key.Matches(msg, Keys.Workshops):
		return a.navigate(nav.PathWorkshops), true
	case key.Matches(msg, Keys.Login):
		if !a.session.Authenticated() {
			return a.navigate(nav.PathLogin), true
		}
		return nil, true
	case key.Matches(msg, Keys.SignOut):
		if a.session.Authenticated() {
			return a.signOut(), true
		}
		return nil, true
	}
	return nil, false
}

// capturing reports whether the active view owns every key.
func (a *App) capturing() bool {
	switch a.router.Current() {
	case nav.PathLogin:
		return true
	case nav.PathLookup:
		return a.lookup.Capturing()
	case nav.PathVehicles:
		return a.loaded && a.vehicles.Capturing()
	case nav.PathApprovals:
		return a.loaded && a.approvals.Capturing()
	case nav.PathNewVehicle:
		return a.loaded && a.intake.Capturing()
	case nav.PathInspection:
		return a.loaded && a.inspect.Capturing()
	case nav.PathWorkshops:
		return a.loaded && a.workshops.Capturing()
	}
	return false
}

func (a *App) navigate(path string) tea.Cmd {
	if path == a.router.Current() {
		return nil
	}
	a.router.Navigate(path)
	return a.mount()
}

func (a *App) back() tea.Cmd {
	if !a.router.Back() {
		if a.router.Current() == nav.PathHome {
			return nil
		}
		a.router.Reset(nav.PathHome)
	}
	return a.mount()
}

// signOut leaves protected views before ending the session so the sign-out
// is not reported as a restricted redirect.
func (a *App) signOut() tea.Cmd {
	a.router.Reset(nav.PathHome)
	mount := a.mount()
	store := a.store
	return tea.Batch(mount, func() tea.Msg {
		store.SignOut(context.Background())
		return messages.AuthDoneMsg{Op: messages.OpSignOut, State: store.Snapshot()}
	})
}

// mount sets up the view for the current path. Protected paths get a fresh
// guard and load only once it allows rendering.
func (a *App) mount() tea.Cmd {
	path := a.router.Current()
	a.statusBar.SetActivePath(path)
	a.guard = nil
	a.loaded = false
	if nav.IsProtected(path) {
		a.guard = guard.New()
		return a.checkGuard()
	}
	a.loaded = true
	a.outcome = guard.OutcomeRender
	return a.initView(path)
}

// checkGuard evaluates the mounted guard against the current session.
func (a *App) checkGuard() tea.Cmd {
	if a.guard == nil {
		return nil
	}
	path := a.router.Current()
	d := a.guard.Evaluate(a.session, path)
	a.outcome = d.Outcome
	switch d.Outcome {
	case guard.OutcomeRedirect:
		var cmds []tea.Cmd
		if d.Notify {
			cmds = append(cmds, a.toast(RestrictedNotice, true))
		}
		a.log.Info("redirecting to login", "from", path)
		a.router.Redirect(d.RedirectTo, d.Pending)
		a.guard = nil
		a.loaded = true
		a.outcome = guard.OutcomeRender
		a.statusBar.SetActivePath(d.RedirectTo)
		cmds = append(cmds, a.initView(d.RedirectTo))
		return tea.Batch(cmds...)
	case guard.OutcomeRender:
		if !a.loaded {
			a.loaded = true
			return a.initView(path)
		}
	}
	return nil
}

func (a *App) initView(path string) tea.Cmd {
	h := a.contentHeight()
	switch path {
	case nav.PathLookup:
		a.lookup = lookup.New(a.cfg, a.client, a.cache)
		a.lookup.SetSize(a.width, h)
		return nil
	case nav.PathLogin:
		_, restricted := a.router.Pending()
		a.loginForm = login.New(a.store, restricted)
		a.loginForm.SetSession(a.session)
		a.loginForm.SetSize(a.width, h)
		return nil
	case nav.PathDashboard:
		a.dashboard = dashboard.New(a.client)
		a.dashboard.SetSize(a.width, h)
		return a.dashboard.Init()
	case nav.PathVehicles:
		a.vehicles = vehicles.New(a.cfg, a.client, a.cache)
		a.vehicles.SetSize(a.width, h)
		return a.vehicles.Init()
	case nav.PathApprovals:
		a.approvals = approvals.New(a.client)
		a.approvals.SetSize(a.width, h)
		return a.approvals.Init()
	case nav.PathNewVehicle:
		a.intake = intake.New(a.client)
		a.intake.SetSize(a.width, h)
		return a.intake.Init()
	case nav.PathInspection:
		a.inspect = inspection.New(a.client)
		a.inspect.SetSize(a.width, h)
		return a.inspect.Init()
	case nav.PathWorkshops:
		a.workshops = workshops.New(a.client)
		a.workshops.SetSize(a.width, h)
		return a.workshops.Init()
	}
	return nil
}

func (a *App) onSession(s auth.State) tea.Cmd {
	prev := a.session
	a.session = s
	a.loginForm.SetSession(s)
	a.home.SetAuthenticated(s.Authenticated())
	if s.User != nil {
		a.statusBar.SetUser(s.User.Email)
	} else {
		a.statusBar.SetUser("")
	}

	var cmds []tea.Cmd
	if !s.Loading && prev.Authenticated() != s.Authenticated() {
		if a.monitor != nil {
			a.monitor.SetActive(s.Authenticated())
		}
		if !s.Authenticated() {
			a.statusBar.SetPending(0)
			cmds = append(cmds, a.forgetTables())
		}
	}
	cmds = append(cmds, a.checkGuard())
	return tea.Batch(cmds...)
}

// forgetTables clears the table reads cached for the signed-out user.
func (a *App) forgetTables() tea.Cmd {
	db, log := a.cache, a.log
	if db == nil {
		return nil
	}
	return func() tea.Msg {
		if err := db.ForgetTables(); err != nil {
			log.Warn("forgetting cached tables", "err", err)
		}
		return nil
	}
}

// toast shows text in the status bar until ToastDuration passes.
func (a *App) toast(text string, isError bool) tea.Cmd {
	if text == "" {
		return nil
	}
	id := a.statusBar.SetStatus(text, isError)
	d := a.cfg.ToastDuration
	if d <= 0 {
		d = 4 * time.Second
	}
	return tea.Tick(d, func(time.Time) tea.Msg {
		return messages.ClearStatusMsg{ID: id}
	})
}

func (a *App) contentHeight() int {
	h := a.height - 1
	if a.showHelp {
		h--
	}
	if h < 0 {
		h = 0
	}
	return h
}

func (a *App) resize() {
	h := a.contentHeight()
	a.home.SetSize(a.width, h)
	// Other views are created on mount; only the live one is resized.
	switch a.router.Current() {
	case nav.PathLookup:
		a.lookup.SetSize(a.width, h)
	case nav.PathLogin:
		a.loginForm.SetSize(a.width, h)
	case nav.PathDashboard:
		if a.loaded {
			a.dashboard.SetSize(a.width, h)
		}
	case nav.PathVehicles:
		if a.loaded {
			a.vehicles.SetSize(a.width, h)
		}
	case nav.PathApprovals:
		if a.loaded {
			a.approvals.SetSize(a.width, h)
		}
	case nav.PathNewVehicle:
		if a.loaded {
			a.intake.SetSize(a.width, h)
		}
	case nav.PathInspection:
		if a.loaded {
			a.inspect.SetSize(a.width, h)
		}
	case nav.PathWorkshops:
		if a.loaded {
			a.workshops.SetSize(a.width, h)
		}
	}
}

// View renders the application.
func (a *App) View() string {
	var content string
	switch path := a.router.Current(); {
	case a.guard != nil && a.outcome == guard.OutcomeLoading:
		content = lipgloss.Place(a.width, a.contentHeight(), lipgloss.Center, lipgloss.Center,
			a.spinner.View()+" Checking session...")
	case path == nav.PathHome:
		content = a.home.View()
	case path == nav.PathLookup:
		content = a.lookup.View()
	case path == nav.PathLogin:
		content = a.loginForm.View()
	case path == nav.PathDashboard:
		content = a.dashboard.View()
	case path == nav.PathVehicles:
		content = a.vehicles.View()
	case path == nav.PathApprovals:
		content = a.approvals.View()
	case path == nav.PathNewVehicle:
		content = a.intake.View()
	case path == nav.PathInspection:
		content = a.inspect.View()
	case path == nav.PathWorkshops:
		content = a.workshops.View()
	default:
		content = MetaStyle.Render("Nothing here: " + path)
	}

	parts := []string{content}
	if a.showHelp {
		parts = append(parts, a.helpLine())
	}
	parts = append(parts, a.statusBar.View())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (a *App) helpLine() string {
	var items []string
	for _, b := range globalHelp(a.session.Authenticated()) {
		h := b.Help()
		items = append(items, HelpKeyStyle.Render(h.Key)+" "+DimStyle.Render(h.Desc))
	}
	return strings.Join(items, "  ")
}
