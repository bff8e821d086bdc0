package handler

import "net/http"

// Handlers groups everything the router mounts.
type Handlers struct {
	Health *HealthHandler
	Auth   *AuthHandler
	State  *StateHandler
	Admin  *AdminHandler
	Events *EventsHandler
}

// Register mounts every API route on mux.
func Register(mux *http.ServeMux, h Handlers) {
	mux.HandleFunc("GET /healthz", h.Health.Health)
	mux.HandleFunc("GET /readyz", h.Health.Ready)

	mux.HandleFunc("POST /api/login", h.Auth.Login)
	mux.HandleFunc("POST /api/logout", h.Auth.Logout)
	mux.HandleFunc("POST /api/password", h.Auth.ChangePassword)

	s := h.State
	mux.HandleFunc("GET /api/state", s.State)
	mux.HandleFunc("PUT /api/users", s.SaveUsers)
	mux.HandleFunc("DELETE /api/users/{id}", s.DeleteUser)
	mux.HandleFunc("POST /api/assignments", s.AssignCoach)
	mux.HandleFunc("PUT /api/goals", s.SaveGoal)
	mux.HandleFunc("DELETE /api/goals/{id}", s.DeleteGoal)
	mux.HandleFunc("PUT /api/recurring", s.SaveRecurring)
	mux.HandleFunc("DELETE /api/recurring/{id}", s.DeleteRecurring)
	mux.HandleFunc("POST /api/recurring/{id}/days", s.RecordDay)
	mux.HandleFunc("GET /api/recurring/{id}/summary", s.Summary)
	mux.HandleFunc("POST /api/reports", s.AddReport)
	mux.HandleFunc("POST /api/notes", s.AddNote)
	mux.HandleFunc("PUT /api/meetings", s.SaveMeeting)
	mux.HandleFunc("DELETE /api/meetings/{id}", s.DeleteMeeting)
	mux.HandleFunc("PUT /api/settings/email", s.SaveEmailSettings)
	mux.HandleFunc("PUT /api/settings/theme", s.SaveTheme)
	mux.HandleFunc("POST /api/email/send", s.SendEmail)

	a := h.Admin
	mux.HandleFunc("GET /api/admin/organizations", a.RequireAdmin(a.ListOrganizations))
	mux.HandleFunc("PUT /api/admin/organizations", a.RequireAdmin(a.SaveOrganization))
	mux.HandleFunc("DELETE /api/admin/organizations/{id}", a.RequireAdmin(a.DeleteOrganization))
	mux.HandleFunc("GET /api/admin/plans", a.RequireAdmin(a.ListPlans))
	mux.HandleFunc("PUT /api/admin/plans", a.RequireAdmin(a.SavePlan))
	mux.HandleFunc("DELETE /api/admin/plans/{id}", a.RequireAdmin(a.DeletePlan))
	mux.HandleFunc("GET /api/admin/payments", a.RequireAdmin(a.ListPayments))
	mux.HandleFunc("POST /api/admin/payments", a.RequireAdmin(a.RecordPayment))
	mux.HandleFunc("GET /api/admin/theme", a.RequireAdmin(a.GlobalTheme))
	mux.HandleFunc("PUT /api/admin/theme", a.RequireAdmin(a.SaveGlobalTheme))
	mux.HandleFunc("POST /api/admin/reset", a.RequireAdmin(a.Reset))

	if h.Events != nil {
		mux.Handle("GET /ws/events", h.Events)
	}
}
