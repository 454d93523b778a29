package scan

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/zombor/scan-history/internal/auth"
)

type contextKey string

const identityKey contextKey = "identity"

// Server exposes the scan store over HTTP. Every scan endpoint requires a
// bearer token; the resolved identity is the owner for the request.
type Server struct {
	service *Service
	tokens  *auth.Service
	mux     *http.ServeMux
}

// NewServer creates a new Server with default mux
func NewServer(service *Service, tokens *auth.Service) *Server {
	return NewServerWithMux(service, tokens, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(service *Service, tokens *auth.Service, mux *http.ServeMux) *Server {
	s := &Server{
		service: service,
		tokens:  tokens,
		mux:     mux,
	}
	s.registerRoutes()
	return s
}

// requireAuth resolves the bearer token into an identity on the request
// context before the handler runs.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			setCORSHeaders(w)
			w.Header().Set("WWW-Authenticate", `Bearer realm="Scan History"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		identity, err := s.tokens.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			setCORSHeaders(w)
			w.Header().Set("WWW-Authenticate", `Bearer realm="Scan History"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), identityKey, identity)))
	}
}

// requestIdentity returns the identity resolved by requireAuth.
func requestIdentity(r *http.Request) auth.Identity {
	identity, _ := r.Context().Value(identityKey).(auth.Identity)
	return identity
}

// corsMiddleware adds CORS headers to responses
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next(w, r)
	}
}

// registerRoutes registers all API routes on the server's mux
// Routes must be registered from most specific to least specific to avoid conflicts
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	s.mux.HandleFunc("POST /api/auth/login", s.handleLogin)

	s.mux.HandleFunc("GET /api/scans/{id}", s.requireAuth(s.handleGetScan))
	s.mux.HandleFunc("GET /api/scans", s.requireAuth(s.handleListScans))
	s.mux.HandleFunc("POST /api/scans", s.requireAuth(s.handleCreateScan))
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	slog.Info("Starting server", "address", addr)
	return http.ListenAndServe(addr, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.corsMiddleware(func(w http.ResponseWriter, r *http.Request) {
			s.mux.ServeHTTP(w, r)
		})(w, r)
	}))
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
