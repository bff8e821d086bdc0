package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/coachsync/internal/domain"
	"github.com/aryan0dhankhar/coachsync/internal/mirror"
	"github.com/aryan0dhankhar/coachsync/internal/security/audit"
	"github.com/aryan0dhankhar/coachsync/internal/service"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *service.AuthService
	registry    *mirror.Registry
	audit       *audit.Logger
	logger      *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, registry *mirror.Registry, auditLog *audit.Logger, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthHandler{
		authService: authService,
		registry:    registry,
		audit:       auditLog,
		logger:      logger,
	}
}

// LoginRequest represents login credentials
type LoginRequest struct {
	Nickname string `json:"nickname"`
	Password string `json:"password"`
}

// PasswordRequest represents a password change
type PasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// Login handles POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.authService.Login(r.Context(), req.Nickname, req.Password)
	if err != nil {
		h.audit.LogLogin(r.Context(), domain.Principal{}, req.Nickname, false)
		if service.IsAuthError(err) {
			writeMessage(w, http.StatusUnauthorized, "Onjuiste gebruikersnaam of wachtwoord")
			return
		}
		writeError(w, h.logger, err)
		return
	}
	h.audit.LogLogin(r.Context(), res.Principal, req.Nickname, true)

	// Warm the session state so the first GET /api/state is served from memory.
	if _, err := h.registry.For(r.Context(), res.Principal); err != nil {
		h.logger.Warn("failed to load session state",
			slog.String("user_id", res.Principal.ID),
			slog.String("error", err.Error()),
		)
	}

	writeJSON(w, http.StatusOK, res)
}

// Logout handles POST /api/logout and discards the session state.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	h.registry.Drop(p)
	w.WriteHeader(http.StatusNoContent)
}

// ChangePassword handles POST /api/password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req PasswordRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.authService.ChangePassword(r.Context(), p, req.OldPassword, req.NewPassword); err != nil {
		if service.IsAuthError(err) {
			writeMessage(w, http.StatusUnauthorized, "Huidig wachtwoord is onjuist")
			return
		}
		writeError(w, h.logger, err)
		return
	}
	// Other sessions of this tenant hold the old hash.
	h.registry.Invalidate(p.OrganizationID, p.Key())
	w.WriteHeader(http.StatusNoContent)
}
