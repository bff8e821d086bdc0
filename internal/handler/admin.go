package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/coachsync/internal/domain"
	"github.com/aryan0dhankhar/coachsync/internal/security"
	"github.com/aryan0dhankhar/coachsync/internal/service"
)

// AdminHandler serves the platform admin console.
type AdminHandler struct {
	admin  *service.AdminService
	authz  *security.AuthorizationService
	logger *slog.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(admin *service.AdminService, authz *security.AuthorizationService, logger *slog.Logger) *AdminHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandler{admin: admin, authz: authz, logger: logger}
}

// RequireAdmin rejects every caller without the admin console permission.
func (h *AdminHandler) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok {
			return
		}
		if err := h.authz.ValidatePermission(p, security.PermAdminConsole); err != nil {
			writeError(w, h.logger, err)
			return
		}
		next(w, r)
	}
}

// ListOrganizations handles GET /api/admin/organizations
func (h *AdminHandler) ListOrganizations(w http.ResponseWriter, r *http.Request) {
	orgs := h.admin.ListOrganizations(r.Context())
	for i := range orgs {
		orgs[i].ManagerPassword = ""
	}
	writeJSON(w, http.StatusOK, orgs)
}

// SaveOrganization handles PUT /api/admin/organizations
func (h *AdminHandler) SaveOrganization(w http.ResponseWriter, r *http.Request) {
	var org domain.Organization
	if !decode(w, r, &org) {
		return
	}
	saved, err := h.admin.SaveOrganization(r.Context(), org)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	saved.ManagerPassword = ""
	writeJSON(w, http.StatusOK, saved)
}

// DeleteOrganization handles DELETE /api/admin/organizations/{id}
func (h *AdminHandler) DeleteOrganization(w http.ResponseWriter, r *http.Request) {
	if err := h.admin.DeleteOrganization(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListPlans handles GET /api/admin/plans
func (h *AdminHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.admin.ListPlans(r.Context()))
}

// SavePlan handles PUT /api/admin/plans
func (h *AdminHandler) SavePlan(w http.ResponseWriter, r *http.Request) {
	var plan domain.SubscriptionPlan
	if !decode(w, r, &plan) {
		return
	}
	saved, err := h.admin.SavePlan(r.Context(), plan)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// DeletePlan handles DELETE /api/admin/plans/{id}
func (h *AdminHandler) DeletePlan(w http.ResponseWriter, r *http.Request) {
	if err := h.admin.DeletePlan(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListPayments handles GET /api/admin/payments
func (h *AdminHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.admin.ListPayments(r.Context()))
}

// RecordPayment handles POST /api/admin/payments
func (h *AdminHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var p domain.Payment
	if !decode(w, r, &p) {
		return
	}
	saved, err := h.admin.RecordPayment(r.Context(), p)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// GlobalTheme handles GET /api/admin/theme
func (h *AdminHandler) GlobalTheme(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.admin.GlobalTheme(r.Context()))
}

// SaveGlobalTheme handles PUT /api/admin/theme
func (h *AdminHandler) SaveGlobalTheme(w http.ResponseWriter, r *http.Request) {
	var theme domain.GlobalTheme
	if !decode(w, r, &theme) {
		return
	}
	saved, err := h.admin.SaveGlobalTheme(r.Context(), theme)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// Reset handles POST /api/admin/reset. Every tenant table is dropped and
// recreated.
func (h *AdminHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.admin.Reset(r.Context()); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
