package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/fragmede/ativo/internal/auth"
	"github.com/fragmede/ativo/internal/logging"
)

// SessionStorage persists the issued session between runs.
type SessionStorage interface {
	// LoadSession returns nil, nil when nothing is stored.
	LoadSession() (*auth.RemoteSession, error)
	SaveSession(s *auth.RemoteSession) error
	ClearSession() error
}

// AuthOptions configures an AuthClient.
type AuthOptions struct {
	Storage SessionStorage
	// RefreshMargin is how long before expiry the token is renewed.
	RefreshMargin time.Duration
	// RefreshInterval is how often the background refresher checks expiry.
	RefreshInterval time.Duration
	Logger          logging.Logger
}

// AuthClient is the auth.Provider backed by the /auth/v1 API. It keeps the
// current session in memory, mirrors it to storage, and renews it in the
// background once Start is called.
type AuthClient struct {
	c        *Client
	storage  SessionStorage
	margin   time.Duration
	interval time.Duration
	log      logging.Logger
	now      func() time.Time

	mu        sync.Mutex
	session   *auth.RemoteSession
	loaded    bool
	listeners map[int]func(auth.Event)
	nextID    int

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewAuthClient creates an auth client on top of c.
func NewAuthClient(c *Client, opts AuthOptions) *AuthClient {
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	margin := opts.RefreshMargin
	if margin <= 0 {
		margin = time.Minute
	}
	interval := opts.RefreshInterval
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &AuthClient{
		c:         c,
		storage:   opts.Storage,
		margin:    margin,
		interval:  interval,
		log:       log,
		now:       time.Now,
		listeners: make(map[int]func(auth.Event)),
		stopCh:    make(chan struct{}),
	}
}

// AccessToken returns the current access token, or "" when signed out.
func (a *AuthClient) AccessToken() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil {
		return ""
	}
	return a.session.AccessToken
}

// GetCurrentSession returns the stored session, renewing it first when it is
// expired or about to expire. A renewal the provider rejects drops the
// stored session and reports no session.
func (a *AuthClient) GetCurrentSession(ctx context.Context) (*auth.RemoteSession, error) {
	sess := a.current()
	if sess == nil {
		return nil, nil
	}
	if sess.ExpiresAt.IsZero() || a.now().Add(a.margin).Before(sess.ExpiresAt) {
		return sess, nil
	}

	renewed, err := a.refresh(ctx, sess.RefreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrRejected) {
			a.log.Info("stored session no longer valid", "err", err)
			a.swap(sess, nil)
			return nil, nil
		}
		return nil, err
	}
	if !a.swap(sess, renewed) {
		return a.current(), nil
	}
	return renewed, nil
}

// SignInWithPassword exchanges credentials for a session.
func (a *AuthClient) SignInWithPassword(ctx context.Context, email, password string) (*auth.RemoteSession, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}
	var body tokenBody
	err := a.c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"password"}},
		body:   map[string]string{"email": email, "password": password},
		bearer: a.c.anonKey,
	}, &body)
	if err != nil {
		return nil, err
	}
	sess := body.session(a.now())
	if sess == nil {
		return nil, &APIError{Status: http.StatusBadGateway, Message: "sign-in returned no session"}
	}
	a.replace(sess)
	a.emit(auth.Event{Kind: auth.EventSignedIn, Session: sess})
	return sess, nil
}

// SignUp registers an account. The returned session is nil when the
// account must be confirmed by email first.
func (a *AuthClient) SignUp(ctx context.Context, email, password string) (*auth.RemoteSession, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}
	var body tokenBody
	err := a.c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/signup",
		body:   map[string]string{"email": email, "password": password},
		bearer: a.c.anonKey,
	}, &body)
	if err != nil {
		return nil, err
	}
	sess := body.session(a.now())
	if sess == nil {
		a.log.Info("sign-up awaiting confirmation", "email", email)
		return nil, nil
	}
	a.replace(sess)
	a.emit(auth.Event{Kind: auth.EventSignedIn, Session: sess})
	return sess, nil
}

// SignOut revokes the session remotely and always forgets it locally.
// A session the server already considers invalid is not an error.
func (a *AuthClient) SignOut(ctx context.Context) error {
	sess := a.current()
	if sess == nil {
		return nil
	}

	err := a.c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/logout",
		bearer: sess.AccessToken,
	}, nil)

	a.replace(nil)
	a.emit(auth.Event{Kind: auth.EventSignedOut})

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			return nil
		}
	}
	return err
}

// Subscribe registers fn for auth events until the returned func is called.
// Events are delivered on the goroutine that caused them.
func (a *AuthClient) Subscribe(fn func(auth.Event)) func() {
	a.mu.Lock()
	id := a.nextID
	a.nextID++
	a.listeners[id] = fn
	a.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			delete(a.listeners, id)
			a.mu.Unlock()
		})
	}
}

// Start begins the background refresh loop.
func (a *AuthClient) Start() {
	a.wg.Add(1)
	go a.loop()
}

// Close stops the refresher and waits for it to exit.
func (a *AuthClient) Close() error {
	a.stopOnce.Do(func() { close(a.stopCh) })
	a.wg.Wait()
	return nil
}

func (a *AuthClient) loop() {
	defer a.wg.Done()
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-a.stopCh:
			return
		case <-ticker.C:
			a.refreshIfDue()
		}
	}
}

// refreshIfDue renews a session close to expiry. A rejected renewal means the
// session was revoked elsewhere, so it is dropped and EventSignedOut sent.
// Transport failures are retried on the next tick.
func (a *AuthClient) refreshIfDue() {
	sess := a.current()
	if sess == nil || sess.ExpiresAt.IsZero() {
		return
	}
	if a.now().Add(a.margin).Before(sess.ExpiresAt) {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-a.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	renewed, err := a.refresh(ctx, sess.RefreshToken)
	switch {
	case err == nil:
		if !a.swap(sess, renewed) {
			return
		}
		a.log.Debug("session refreshed", "expires_at", renewed.ExpiresAt)
		a.emit(auth.Event{Kind: auth.EventTokenRefreshed, Session: renewed})
	case errors.Is(err, auth.ErrRejected):
		if !a.swap(sess, nil) {
			return
		}
		a.log.Info("session revoked", "err", err)
		a.emit(auth.Event{Kind: auth.EventSignedOut})
	default:
		a.log.Warn("session refresh failed", "err", err)
	}
}

func (a *AuthClient) refresh(ctx context.Context, refreshToken string) (*auth.RemoteSession, error) {
	if refreshToken == "" {
		return nil, &APIError{Status: http.StatusBadRequest, Code: "refresh_token_not_found", Message: "missing refresh token"}
	}
	var body tokenBody
	err := a.c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"refresh_token"}},
		body:   map[string]string{"refresh_token": refreshToken},
		bearer: a.c.anonKey,
	}, &body)
	if err != nil {
		return nil, err
	}
	sess := body.session(a.now())
	if sess == nil {
		return nil, &APIError{Status: http.StatusBadGateway, Message: "refresh returned no session"}
	}
	return sess, nil
}

// current returns the in-memory session, loading it from storage once.
func (a *AuthClient) current() *auth.RemoteSession {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.loaded {
		a.loaded = true
		if a.storage != nil {
			sess, err := a.storage.LoadSession()
			if err != nil {
				a.log.Warn("loading stored session", "err", err)
			}
			a.session = sess
		}
	}
	return a.session
}

// replace sets the session unconditionally.
func (a *AuthClient) replace(sess *auth.RemoteSession) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.loaded = true
	a.session = sess
	a.persist(sess)
}

// swap replaces old with sess only if old is still current.
func (a *AuthClient) swap(old, sess *auth.RemoteSession) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session != old {
		return false
	}
	a.session = sess
	a.persist(sess)
	return true
}

// persist writes sess to storage. Caller holds a.mu.
func (a *AuthClient) persist(sess *auth.RemoteSession) {
	if a.storage == nil {
		return
	}
	var err error
	if sess == nil {
		err = a.storage.ClearSession()
	} else {
		err = a.storage.SaveSession(sess)
	}
	if err != nil {
		a.log.Warn("persisting session", "err", err)
	}
}

func (a *AuthClient) emit(ev auth.Event) {
	a.mu.Lock()
	fns := make([]func(auth.Event), 0, len(a.listeners))
	for _, fn := range a.listeners {
		fns = append(fns, fn)
	}
	a.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
