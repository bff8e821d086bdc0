package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/coachsync/internal/domain"
	"github.com/aryan0dhankhar/coachsync/internal/mirror"
	"github.com/aryan0dhankhar/coachsync/internal/security"
	"github.com/aryan0dhankhar/coachsync/internal/service"
)

// StateHandler serves the caller's session state and every tenant write.
// Writes go through the caller's mirror so the snapshot only changes after
// the store acknowledged them.
type StateHandler struct {
	registry *mirror.Registry
	authz    *security.AuthorizationService
	email    *service.EmailService
	logger   *slog.Logger
}

// NewStateHandler creates a new state handler
func NewStateHandler(registry *mirror.Registry, authz *security.AuthorizationService, email *service.EmailService, logger *slog.Logger) *StateHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StateHandler{
		registry: registry,
		authz:    authz,
		email:    email,
		logger:   logger,
	}
}

// session resolves the caller's mirror after checking perm.
func (h *StateHandler) session(w http.ResponseWriter, r *http.Request, perm security.Permission) (domain.Principal, *mirror.Mirror, bool) {
	p, ok := principal(w, r)
	if !ok {
		return p, nil, false
	}
	if perm != "" {
		if err := h.authz.ValidatePermission(p, perm); err != nil {
			writeError(w, h.logger, err)
			return p, nil, false
		}
	}
	m, err := h.registry.For(r.Context(), p)
	if err != nil {
		writeError(w, h.logger, err)
		return p, nil, false
	}
	return p, m, true
}

// participant checks that p may act for participantID.
func (h *StateHandler) participant(w http.ResponseWriter, p domain.Principal, m *mirror.Mirror, participantID string) bool {
	if err := h.authz.ValidateParticipantAccess(p, participantID, m.Snapshot().Assignments); err != nil {
		writeError(w, h.logger, err)
		return false
	}
	return true
}

// State handles GET /api/state. The platform admin gets an empty state.
func (h *StateHandler) State(w http.ResponseWriter, r *http.Request) {
	_, m, ok := h.session(w, r, "")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, m.Snapshot().Redacted())
}

// SaveUsers handles PUT /api/users with the complete user list.
func (h *StateHandler) SaveUsers(w http.ResponseWriter, r *http.Request) {
	_, m, ok := h.session(w, r, security.PermManageUsers)
	if !ok {
		return
	}
	var users []domain.User
	if !decode(w, r, &users) {
		return
	}
	saved, err := m.SaveUsers(r.Context(), users)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	for i := range saved {
		saved[i].Password = ""
	}
	writeJSON(w, http.StatusOK, saved)
}

// DeleteUser handles DELETE /api/users/{id}
func (h *StateHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	_, m, ok := h.session(w, r, security.PermManageUsers)
	if !ok {
		return
	}
	if err := m.DeleteUser(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AssignmentRequest links a participant to a coach. An empty coach id
// removes the link.
type AssignmentRequest struct {
	ParticipantID string `json:"participantId"`
	CoachID       string `json:"coachId"`
}

// AssignCoach handles POST /api/assignments
func (h *StateHandler) AssignCoach(w http.ResponseWriter, r *http.Request) {
	_, m, ok := h.session(w, r, security.PermManageUsers)
	if !ok {
		return
	}
	var req AssignmentRequest
	if !decode(w, r, &req) {
		return
	}
	if req.ParticipantID == "" {
		writeMessage(w, http.StatusBadRequest, "participantId is required")
		return
	}
	saved, err := m.AssignCoach(r.Context(), req.ParticipantID, req.CoachID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// SaveEmailSettings handles PUT /api/settings/email
func (h *StateHandler) SaveEmailSettings(w http.ResponseWriter, r *http.Request) {
	_, m, ok := h.session(w, r, security.PermManageSettings)
	if !ok {
		return
	}
	var settings domain.EmailSettings
	if !decode(w, r, &settings) {
		return
	}
	if settings.Enabled {
		if problems := service.ValidateSettings(settings); len(problems) > 0 {
			writeError(w, h.logger, &service.ValidationError{Problems: problems})
			return
		}
	}
	saved, err := m.SaveEmailSettings(r.Context(), settings)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	saved.Password = ""
	writeJSON(w, http.StatusOK, saved)
}

// SaveTheme handles PUT /api/settings/theme
func (h *StateHandler) SaveTheme(w http.ResponseWriter, r *http.Request) {
	_, m, ok := h.session(w, r, security.PermManageSettings)
	if !ok {
		return
	}
	var theme domain.ThemeSettings
	if !decode(w, r, &theme) {
		return
	}
	saved, err := m.SaveTheme(r.Context(), theme)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// SendEmailRequest is one outgoing mail.
type SendEmailRequest struct {
	service.Message
	Type string `json:"type"`
}

// SendEmail handles POST /api/email/send. Every attempt lands in the
// tenant's email log, including failed ones.
func (h *StateHandler) SendEmail(w http.ResponseWriter, r *http.Request) {
	_, m, ok := h.session(w, r, security.PermSendEmail)
	if !ok {
		return
	}
	var req SendEmailRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Type == "" {
		req.Type = "handmatig"
	}
	res, err := h.email.Send(r.Context(), m, req.Message, req.Type)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case service.IsDeliveryError(err):
		writeJSON(w, http.StatusBadGateway, res)
	default:
		writeError(w, h.logger, err)
	}
}
