package fakebackend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 6

var errInvalidToken = errors.New("invalid token")

type claims struct {
	Email     string `json:"email"`
	Role      string `json:"role"`
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// AddUser registers a user directly and returns its id.
func (s *Server) AddUser(email, password string, confirmed bool) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	email = strings.ToLower(strings.TrimSpace(email))

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[email]; ok {
		return "", fmt.Errorf("user %s already exists", email)
	}
	u := &user{id: uuid.NewString(), email: email, hash: hash, confirmed: confirmed}
	s.users[email] = u
	return u.id, nil
}

// Confirm marks a signed-up account as confirmed.
func (s *Server) Confirm(email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return fmt.Errorf("no user %s", email)
	}
	u.confirmed = true
	return nil
}

// Revoke ends every session of a user. Its access tokens stop working and
// its refresh tokens are rejected.
func (s *Server) Revoke(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revokeLocked(userID)
}

func (s *Server) revokeLocked(userID string) {
	for sid, uid := range s.sessions {
		if uid == userID {
			delete(s.sessions, sid)
		}
	}
	for tok, sid := range s.refresh {
		if _, ok := s.sessions[sid]; !ok {
			delete(s.refresh, tok)
		}
	}
}

type credentials struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	RefreshToken string `json:"refresh_token"`
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authError(w, http.StatusBadRequest, "bad_json", "Could not parse request body as JSON")
		return
	}

	switch r.URL.Query().Get("grant_type") {
	case "password":
		s.passwordGrant(w, req)
	case "refresh_token":
		s.refreshGrant(w, req)
	default:
		authError(w, http.StatusBadRequest, "unsupported_grant_type", "unsupported grant_type")
	}
}

func (s *Server) passwordGrant(w http.ResponseWriter, req credentials) {
	s.mu.Lock()
	u, ok := s.users[strings.ToLower(strings.TrimSpace(req.Email))]
	s.mu.Unlock()

	if !ok || bcrypt.CompareHashAndPassword(u.hash, []byte(req.Password)) != nil {
		authError(w, http.StatusBadRequest, "invalid_credentials", "Invalid login credentials")
		return
	}
	if !u.confirmed {
		authError(w, http.StatusBadRequest, "email_not_confirmed", "Email not confirmed")
		return
	}
	s.issue(w, u, "")
}

func (s *Server) refreshGrant(w http.ResponseWriter, req credentials) {
	s.mu.Lock()
	sid, ok := s.refresh[req.RefreshToken]
	var u *user
	if ok {
		delete(s.refresh, req.RefreshToken)
		if uid, live := s.sessions[sid]; live {
			u = s.userByIDLocked(uid)
		}
	}
	s.mu.Unlock()

	if u == nil {
		authError(w, http.StatusBadRequest, "refresh_token_not_found", "Invalid Refresh Token: Refresh Token Not Found")
		return
	}
	s.issue(w, u, sid)
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authError(w, http.StatusBadRequest, "bad_json", "Could not parse request body as JSON")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !strings.Contains(email, "@") {
		authError(w, http.StatusBadRequest, "validation_failed", "Unable to validate email address: invalid format")
		return
	}
	if len(req.Password) < minPasswordLen {
		authError(w, http.StatusUnprocessableEntity, "weak_password",
			fmt.Sprintf("Password should be at least %d characters.", minPasswordLen))
		return
	}

	id, err := s.AddUser(email, req.Password, !s.opts.RequireConfirmation)
	if err != nil {
		authError(w, http.StatusUnprocessableEntity, "user_already_exists", "User already registered")
		return
	}

	s.mu.Lock()
	u := s.users[email]
	s.mu.Unlock()

	if s.opts.RequireConfirmation {
		writeJSON(w, http.StatusOK, map[string]any{
			"id":                   id,
			"email":                email,
			"confirmation_sent_at": s.now().UTC().Format(time.RFC3339),
		})
		return
	}
	s.issue(w, u, "")
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	c, err := s.verify(bearer(r))
	if err != nil {
		authError(w, http.StatusUnauthorized, "bad_jwt", "invalid JWT")
		return
	}
	s.Revoke(c.Subject)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	c, err := s.verify(bearer(r))
	if err != nil {
		authError(w, http.StatusUnauthorized, "bad_jwt", "invalid JWT")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": c.Subject, "email": c.Email})
}

// issue writes a token grant for u. An empty sid starts a new session;
// otherwise the session is continued with a rotated refresh token.
func (s *Server) issue(w http.ResponseWriter, u *user, sid string) {
	now := s.now()
	if sid == "" {
		sid = uuid.NewString()
	}
	refreshToken := uuid.NewString()
	exp := now.Add(s.opts.TokenTTL)

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email:     u.email,
		Role:      "authenticated",
		SessionID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := tok.SignedString(s.opts.JWTSecret)
	if err != nil {
		authError(w, http.StatusInternalServerError, "unexpected_failure", err.Error())
		return
	}

	s.mu.Lock()
	s.sessions[sid] = u.id
	s.refresh[refreshToken] = sid
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token":  signed,
		"token_type":    "bearer",
		"expires_in":    int64(s.opts.TokenTTL / time.Second),
		"expires_at":    exp.Unix(),
		"refresh_token": refreshToken,
		"user":          map[string]any{"id": u.id, "email": u.email},
	})
}

// verify checks signature, expiry and that the session is still live.
func (s *Server) verify(raw string) (*claims, error) {
	if raw == "" || raw == s.opts.AnonKey {
		return nil, errInvalidToken
	}
	c := &claims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	_, err := parser.ParseWithClaims(raw, c, func(*jwt.Token) (any, error) {
		return s.opts.JWTSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidToken, err)
	}

	s.mu.Lock()
	_, live := s.sessions[c.SessionID]
	s.mu.Unlock()
	if !live {
		return nil, errInvalidToken
	}
	return c, nil
}

func (s *Server) userByIDLocked(id string) *user {
	for _, u := range s.users {
		if u.id == id {
			return u
		}
	}
	return nil
}

func bearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return h[7:]
	}
	return ""
}
