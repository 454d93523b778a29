package scan

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/zombor/scan-history/internal/fault"
)

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// statusForCategory maps a fault category to an HTTP status code.
func statusForCategory(category fault.Category) int {
	switch category {
	case fault.Auth:
		return http.StatusUnauthorized
	case fault.Permission:
		return http.StatusForbidden
	case fault.NotFound:
		return http.StatusNotFound
	case fault.Validation:
		return http.StatusBadRequest
	case fault.Network, fault.Service:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeFault writes a classified error as JSON. The category travels in the
// body so clients can rebuild the taxonomy without parsing messages.
func writeFault(w http.ResponseWriter, err error) {
	category := fault.CategoryOf(err)
	message := category.Message()
	var f *fault.Fault
	if errors.As(err, &f) && f.Reason != "" {
		message = f.Reason
	}

	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusForCategory(category))
	json.NewEncoder(w).Encode(map[string]string{
		"error":    message,
		"category": string(category),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleRegister creates a new account
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFault(w, fault.Wrap(fault.Validation, "decoding request body", err))
		return
	}

	identity, err := s.tokens.Register(req.Email, req.Password)
	if err != nil {
		slog.Error("Error registering user", "email", req.Email, "error", err)
		writeFault(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, identity)
}

// handleLogin authenticates a user and returns a bearer token
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFault(w, fault.Wrap(fault.Validation, "decoding request body", err))
		return
	}

	token, identity, err := s.tokens.Login(req.Email, req.Password)
	if err != nil {
		writeFault(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  identity,
	})
}

// handleCreateScan persists a decoded payload for the authenticated owner
func (s *Server) handleCreateScan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Data string `json:"data"`
		Type string `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFault(w, fault.Wrap(fault.Validation, "decoding request body", err))
		return
	}

	record, err := s.service.Create(r.Context(), requestIdentity(r), req.Data, req.Type)
	if err != nil {
		slog.Error("Error creating scan", "error", err)
		writeFault(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, record)
}

// handleListScans returns the authenticated owner's history
func (s *Server) handleListScans(w http.ResponseWriter, r *http.Request) {
	order := SortDescending
	if r.URL.Query().Get("order") == string(SortAscending) {
		order = SortAscending
	}

	records, err := s.service.List(r.Context(), requestIdentity(r), order)
	if err != nil {
		slog.Error("Error listing scans", "error", err)
		writeFault(w, err)
		return
	}

	writeJSON(w, http.StatusOK, records)
}

// handleGetScan returns a single record owned by the authenticated user
func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeFault(w, fault.New(fault.Validation, "scan ID required"))
		return
	}

	record, err := s.service.GetByID(r.Context(), requestIdentity(r), id)
	if err != nil {
		writeFault(w, err)
		return
	}

	writeJSON(w, http.StatusOK, record)
}
