// Package fakebackend is an in-memory stand-in for the hosted backend's auth
// and table APIs. It backs the api tests and the local demo server.
package fakebackend

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/fragmede/ativo/internal/logging"
)

// Options configures a Server.
type Options struct {
	AnonKey   string
	JWTSecret []byte
	// TokenTTL is the lifetime of issued access tokens.
	TokenTTL time.Duration
	// RequireConfirmation makes sign-up return no session until Confirm.
	RequireConfirmation bool
	// Latency is added to every request.
	Latency time.Duration
	Logger  logging.Logger
}

type user struct {
	id        string
	email     string
	hash      []byte
	confirmed bool
}

// Server implements the subset of /auth/v1 and /rest/v1 the client uses.
type Server struct {
	opts   Options
	log    logging.Logger
	router *mux.Router
	now    func() time.Time

	mu       sync.Mutex
	users    map[string]*user  // by email
	sessions map[string]string // session id -> user id
	refresh  map[string]string // refresh token -> session id
	tables   map[string][]map[string]any
	nextID   map[string]int64
}

// schema lists the tables that exist before anything is seeded.
var schema = []string{"veiculos", "oficinas", "atualizacoes", "feedbacks", "vistorias_entrada"}

// New creates a server with empty tables.
func New(opts Options) *Server {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = time.Hour
	}
	if len(opts.JWTSecret) == 0 {
		opts.JWTSecret = []byte("fakebackend-secret")
	}
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	s := &Server{
		opts:     opts,
		log:      log,
		now:      time.Now,
		users:    make(map[string]*user),
		sessions: make(map[string]string),
		refresh:  make(map[string]string),
		tables:   make(map[string][]map[string]any),
		nextID:   make(map[string]int64),
	}
	for _, t := range schema {
		s.tables[t] = nil
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.withLatency, s.requireAPIKey)

	r.HandleFunc("/auth/v1/token", s.handleToken).Methods("POST")
	r.HandleFunc("/auth/v1/signup", s.handleSignUp).Methods("POST")
	r.HandleFunc("/auth/v1/logout", s.handleLogout).Methods("POST")
	r.HandleFunc("/auth/v1/user", s.handleUser).Methods("GET")

	r.HandleFunc("/rest/v1/{table}", s.handleSelect).Methods("GET")
	r.HandleFunc("/rest/v1/{table}", s.handleInsert).Methods("POST")
	r.HandleFunc("/rest/v1/{table}", s.handleUpdate).Methods("PATCH")
	return r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) withLatency(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.opts.Latency > 0 {
			select {
			case <-time.After(s.opts.Latency):
			case <-r.Context().Done():
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("apikey") != s.opts.AnonKey {
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"message": "Invalid API key",
			})
			return
		}
		s.log.Debug("request", "method", r.Method, "path", r.URL.Path, "request_id", r.Header.Get("X-Request-Id"))
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// authError writes an error in the auth API's shape.
func authError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]any{
		"code":       status,
		"error_code": code,
		"msg":        msg,
	})
}

// restError writes an error in the table API's shape.
func restError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]any{
		"code":    code,
		"message": msg,
		"details": nil,
		"hint":    nil,
	})
}
