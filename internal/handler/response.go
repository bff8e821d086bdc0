package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/coachsync/internal/domain"
	"github.com/aryan0dhankhar/coachsync/internal/mirror"
	"github.com/aryan0dhankhar/coachsync/internal/repository"
	"github.com/aryan0dhankhar/coachsync/internal/security"
	"github.com/aryan0dhankhar/coachsync/internal/security/middleware"
	"github.com/aryan0dhankhar/coachsync/internal/service"
	"github.com/aryan0dhankhar/coachsync/internal/store"
)

// maxBodyBytes bounds request bodies; user photos travel as data URLs.
const maxBodyBytes = 8 << 20

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error    string   `json:"error"`
	Problems []string `json:"problems,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("failed to encode response", slog.String("error", err.Error()))
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeError maps service, mirror and store errors onto HTTP statuses.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation failed", Problems: verr.Problems})
	case errors.Is(err, service.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, security.ErrForbidden):
		writeMessage(w, http.StatusForbidden, "access denied")
	case errors.Is(err, mirror.ErrNoTenant), errors.Is(err, repository.ErrTenantRequired):
		writeMessage(w, http.StatusConflict, "no organization selected")
	case errors.Is(err, mirror.ErrNotFound), errors.Is(err, service.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "not found")
	case errors.Is(err, mirror.ErrInvalidDay), errors.Is(err, mirror.ErrNestedGoal),
		errors.Is(err, repository.ErrRoleNotAllowed):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUnsupported):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrEmailDisabled):
		writeMessage(w, http.StatusConflict, "E-mail verzending is niet ingeschakeld")
	default:
		status := http.StatusInternalServerError
		switch store.KindOf(err) {
		case store.KindTransient, store.KindSchemaAbsent:
			status = http.StatusServiceUnavailable
		case store.KindConstraint, store.KindAlreadyExists:
			status = http.StatusConflict
		case store.KindValidation:
			status = http.StatusBadRequest
		}
		logger.Error("request failed",
			slog.Int("status", status),
			slog.String("error", err.Error()),
		)
		msg := "request failed"
		var serr *store.Error
		if errors.As(err, &serr) {
			msg = store.Message(err)
		}
		writeMessage(w, status, msg)
	}
}

// decode reads a JSON body into v, answering 400 itself on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request")
		return false
	}
	return true
}

// principal answers 401 itself when the request carries no principal.
func principal(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "unauthorized")
	}
	return p, ok
}
