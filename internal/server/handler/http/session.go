// Package http provides the JSON API over the storefront state containers
// and the product catalog.
//
// The server is single-user and meant for local use: it fronts one
// SessionStore, so a login made by any client authenticates every client
// that can reach the API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/atinyakov/GophShop/internal/middleware"
	"github.com/atinyakov/GophShop/internal/models"
	"github.com/atinyakov/GophShop/internal/service"
)

// SessionService defines the session operations required by the handlers.
type SessionService interface {
	// Register creates an account without logging in.
	Register(ctx context.Context, req models.RegisterRequest) error
	// Login starts a session.
	Login(ctx context.Context, email, password string) error
	// Logout ends the session.
	Logout(ctx context.Context)
	// User returns the logged-in user, if any.
	User() (models.User, bool)
	// UpdateUser merges a partial profile into the session user.
	UpdateUser(ctx context.Context, upd models.UserUpdate) error
}

// SessionHandler handles registration, login and profile requests.
type SessionHandler struct {
	SessionService SessionService
}

// LoginRequest is the JSON payload of a login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /api/session/register.
func (h *SessionHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err := h.SessionService.Register(r.Context(), req)
	switch {
	case errors.Is(err, service.ErrUserExists):
		http.Error(w, "user already exists with this email", http.StatusConflict)
	case errors.Is(err, service.ErrStorageUnavailable):
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
	case err != nil:
		http.Error(w, "internal error", http.StatusInternalServerError)
	default:
		writeJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
	}
}

// Login handles POST /api/session/login.
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	err := h.SessionService.Login(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, service.ErrStorageUnavailable):
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
		return
	case err != nil:
		http.Error(w, "invalid email or password", http.StatusUnauthorized)
		return
	}
	u, _ := h.SessionService.User()
	writeJSON(w, http.StatusOK, u)
}

// Logout handles POST /api/session/logout.
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.SessionService.Logout(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/session/me. It runs behind middleware.RequireSession.
func (h *SessionHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "please login first", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// UpdateMe handles PATCH /api/session/me. It runs behind
// middleware.RequireSession; the session may still end before the update
// lands, which UpdateUser reports as ErrNotAuthenticated.
func (h *SessionHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.UserFromContext(r.Context()); !ok {
		http.Error(w, "please login first", http.StatusUnauthorized)
		return
	}
	var upd models.UserUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	err := h.SessionService.UpdateUser(r.Context(), upd)
	switch {
	case errors.Is(err, service.ErrNotAuthenticated):
		http.Error(w, "please login first", http.StatusUnauthorized)
	case errors.Is(err, service.ErrUserExists):
		http.Error(w, "user already exists with this email", http.StatusConflict)
	case errors.Is(err, service.ErrStorageUnavailable):
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
	case err != nil:
		http.Error(w, "internal error", http.StatusInternalServerError)
	default:
		u, _ := h.SessionService.User()
		writeJSON(w, http.StatusOK, u)
	}
}
