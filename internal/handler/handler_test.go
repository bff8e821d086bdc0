package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aryan0dhankhar/coachsync/internal/domain"
	"github.com/aryan0dhankhar/coachsync/internal/events"
	"github.com/aryan0dhankhar/coachsync/internal/mirror"
	"github.com/aryan0dhankhar/coachsync/internal/repository"
	"github.com/aryan0dhankhar/coachsync/internal/schema"
	"github.com/aryan0dhankhar/coachsync/internal/security"
	"github.com/aryan0dhankhar/coachsync/internal/security/audit"
	"github.com/aryan0dhankhar/coachsync/internal/security/auth"
	"github.com/aryan0dhankhar/coachsync/internal/security/middleware"
	"github.com/aryan0dhankhar/coachsync/internal/service"
	"github.com/aryan0dhankhar/coachsync/internal/store/memstore"
)

var quiet = slog.New(slog.DiscardHandler)

type testAPI struct {
	handler http.Handler
	repos   *repository.Repositories
	tokens  *auth.TokenManager
	orgID   string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	ctx := context.Background()
	mem := memstore.New()
	for _, tbl := range schema.All() {
		if err := mem.Exec(ctx, tbl.Statements(mem.Dialect())...); err != nil {
			t.Fatalf("provision %s: %v", tbl.Name, err)
		}
	}
	repos := repository.New(mem, nil, quiet)
	hash, _ := auth.HashPassword("Demo123!")
	orgs, err := repos.Organizations.Upsert(ctx, "", domain.Organization{
		Name: "Demo", ManagerName: "Mia", ManagerEmail: "manager@demo.com", ManagerPassword: hash,
	})
	if err != nil {
		t.Fatalf("seed organization: %v", err)
	}

	bus := events.NewLocalBus()
	t.Cleanup(func() { bus.Close() })
	registry := mirror.NewRegistry(repos, bus, time.Hour, quiet)
	tm := auth.NewTokenManager("secret", "", time.Hour)
	authz := security.NewAuthorizationService(quiet)

	mux := http.NewServeMux()
	Register(mux, Handlers{
		Health: NewHealthHandler(mem, nil, quiet),
		Auth: NewAuthHandler(
			service.NewAuthService(repos, tm, service.AdminCredentials{Username: "admin", Password: "admin123"}, quiet),
			registry, audit.NewLogger(quiet), quiet,
		),
		State: NewStateHandler(registry, authz, service.NewEmailService(repos, nil, quiet), quiet),
		Admin: NewAdminHandler(service.NewAdminService(repos, nil, bus, quiet), authz, quiet),
	})

	return &testAPI{
		handler: middleware.JWTMiddleware(tm, quiet)(mux),
		repos:   repos,
		tokens:  tm,
		orgID:   orgs[0].ID,
	}
}

func (a *testAPI) token(t *testing.T, p domain.Principal) string {
	t.Helper()
	tok, _, err := a.tokens.GenerateToken(p)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return tok
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	api := newTestAPI(t)
	if rec := api.do(t, http.MethodGet, "/healthz", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("healthz: %d", rec.Code)
	}
	rec := api.do(t, http.MethodGet, "/readyz", "", nil)
	var ready ReadinessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &ready); err != nil || rec.Code != http.StatusOK {
		t.Fatalf("readyz: %d %s", rec.Code, rec.Body.String())
	}
	if ready.Checks["store"] != "ok" || ready.Checks["redis"] != "not configured" {
		t.Fatalf("unexpected checks %v", ready.Checks)
	}
}

func TestLoginAndState(t *testing.T) {
	api := newTestAPI(t)

	if rec := api.do(t, http.MethodPost, "/api/login", "", LoginRequest{Nickname: "manager@demo.com", Password: "nope"}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a wrong password, got %d", rec.Code)
	}

	rec := api.do(t, http.MethodPost, "/api/login", "", LoginRequest{Nickname: "manager@demo.com", Password: "Demo123!"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rec.Code, rec.Body.String())
	}
	var login service.LoginResult
	if err := json.Unmarshal(rec.Body.Bytes(), &login); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if login.Principal.Role != domain.RoleManager || login.Principal.OrganizationID != api.orgID {
		t.Fatalf("unexpected principal %+v", login.Principal)
	}

	rec = api.do(t, http.MethodGet, "/api/state", login.Token, nil)
	var state mirror.State
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil || rec.Code != http.StatusOK {
		t.Fatalf("state: %d %s", rec.Code, rec.Body.String())
	}
	if state.TenantID != api.orgID || !state.Loaded {
		t.Fatalf("unexpected state %+v", state)
	}

	if rec := api.do(t, http.MethodGet, "/api/state", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}

func TestManagerWorkflow(t *testing.T) {
	api := newTestAPI(t)
	manager := api.token(t, domain.Principal{ID: "manager-" + api.orgID, Role: domain.RoleManager, OrganizationID: api.orgID})

	rec := api.do(t, http.MethodPut, "/api/users", manager, []domain.User{
		{ID: "c1", Nickname: "coach", Password: "secret1", Role: domain.RoleCoach},
		{ID: "p1", Nickname: "pia", Password: "secret1", Role: domain.RoleParticipant},
		{ID: "p2", Nickname: "piet", Password: "secret1", Role: domain.RoleParticipant},
	})
	if rec.Code != http.StatusOK || bytes.Contains(rec.Body.Bytes(), []byte("$2")) {
		t.Fatalf("save users: %d %s", rec.Code, rec.Body.String())
	}
	if rec := api.do(t, http.MethodPost, "/api/assignments", manager, AssignmentRequest{ParticipantID: "p1", CoachID: "c1"}); rec.Code != http.StatusOK {
		t.Fatalf("assign: %d %s", rec.Code, rec.Body.String())
	}

	rec = api.do(t, http.MethodPut, "/api/users", manager, []domain.User{{ID: "x1", Nickname: "evil", Password: "secret1", Role: domain.RoleAdmin}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an admin user row, got %d %s", rec.Code, rec.Body.String())
	}

	// records of the unassigned participant, created before the coach loads
	rec = api.do(t, http.MethodPut, "/api/goals", manager, domain.Goal{ParticipantID: "p2", Omschrijving: "Lezen"})
	var foreignGoal domain.Goal
	if err := json.Unmarshal(rec.Body.Bytes(), &foreignGoal); err != nil || rec.Code != http.StatusOK {
		t.Fatalf("manager goal: %d %s", rec.Code, rec.Body.String())
	}
	if foreignGoal.Status != domain.StatusNotStarted {
		t.Fatalf("saved goal should carry the stored defaults, got %+v", foreignGoal)
	}
	rec = api.do(t, http.MethodPut, "/api/recurring", manager, domain.RecurringAgreement{ParticipantID: "p2"})
	var foreignAgreement domain.RecurringAgreement
	if err := json.Unmarshal(rec.Body.Bytes(), &foreignAgreement); err != nil || rec.Code != http.StatusOK {
		t.Fatalf("manager recurring: %d %s", rec.Code, rec.Body.String())
	}

	coach := api.token(t, domain.Principal{ID: "c1", Role: domain.RoleCoach, OrganizationID: api.orgID})
	if rec := api.do(t, http.MethodPut, "/api/goals", coach, domain.Goal{ParticipantID: "p1", CoachID: "c1", Omschrijving: "Hardlopen"}); rec.Code != http.StatusOK {
		t.Fatalf("coach goal for assigned participant: %d %s", rec.Code, rec.Body.String())
	}
	if rec := api.do(t, http.MethodPut, "/api/goals", coach, domain.Goal{ParticipantID: "p2", Omschrijving: "Lezen"}); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for an unassigned participant, got %d", rec.Code)
	}
	takeover := foreignGoal
	takeover.ParticipantID = "p1"
	if rec := api.do(t, http.MethodPut, "/api/goals", coach, takeover); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 when overwriting a goal of an unassigned participant, got %d", rec.Code)
	}
	if goals := api.repos.Goals.FetchAll(context.Background(), api.orgID); len(goals) != 2 {
		t.Fatalf("expected both goals intact, got %+v", goals)
	}
	if rec := api.do(t, http.MethodPut, "/api/users", coach, []domain.User{}); rec.Code != http.StatusForbidden {
		t.Fatalf("coach may not manage users, got %d", rec.Code)
	}

	rec = api.do(t, http.MethodPut, "/api/recurring", coach, domain.RecurringAgreement{ParticipantID: "p1", Afspraakmethode: domain.MethodResult})
	var agreement domain.RecurringAgreement
	if err := json.Unmarshal(rec.Body.Bytes(), &agreement); err != nil || rec.Code != http.StatusOK {
		t.Fatalf("save recurring: %d %s", rec.Code, rec.Body.String())
	}
	participant := api.token(t, domain.Principal{ID: "p1", Role: domain.RoleParticipant, OrganizationID: api.orgID})
	for day, v := range map[int]float64{1: 2, 3: 4} {
		value := v
		path := "/api/recurring/" + agreement.ID + "/days"
		if rec := api.do(t, http.MethodPost, path, participant, DayRequest{Month: "2026-03", Day: day, Value: &value}); rec.Code != http.StatusOK {
			t.Fatalf("record day %d: %d %s", day, rec.Code, rec.Body.String())
		}
	}
	foreignDays := "/api/recurring/" + foreignAgreement.ID + "/days"
	if rec := api.do(t, http.MethodPost, foreignDays, participant, DayRequest{ParticipantID: "p1", Month: "2026-03", Day: 2}); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 on another participant's agreement, got %d", rec.Code)
	}
	if rec := api.do(t, http.MethodGet, "/api/recurring/"+foreignAgreement.ID+"/summary?month=2026-03", participant, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for another participant's summary, got %d", rec.Code)
	}
	if rec := api.do(t, http.MethodPost, "/api/recurring/"+agreement.ID+"/days", participant, DayRequest{Month: "2026-02", Day: 30}); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for 30 February, got %d", rec.Code)
	}

	rec = api.do(t, http.MethodGet, "/api/recurring/"+agreement.ID+"/summary?month=2026-03", participant, nil)
	var sum domain.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &sum); err != nil || sum.Total != 6 || sum.Average != 3 {
		t.Fatalf("unexpected summary %d %s", rec.Code, rec.Body.String())
	}
}

func TestStoreErrorMessageReachesClient(t *testing.T) {
	api := newTestAPI(t)
	manager := api.token(t, domain.Principal{ID: "manager-" + api.orgID, Role: domain.RoleManager, OrganizationID: api.orgID})

	rec := api.do(t, http.MethodPut, "/api/users", manager, []domain.User{
		{ID: "u1", Nickname: "een", Password: "secret1"},
		{ID: "u1", Nickname: "twee", Password: "secret1"},
	})
	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(body.Error, "duplicate key value violates unique constraint") {
		t.Fatalf("store message should be passed through, got %q", body.Error)
	}
}

func TestEmailEndpoints(t *testing.T) {
	api := newTestAPI(t)
	manager := api.token(t, domain.Principal{ID: "manager-" + api.orgID, Role: domain.RoleManager, OrganizationID: api.orgID})

	rec := api.do(t, http.MethodPut, "/api/settings/email", manager, domain.EmailSettings{Enabled: true, SenderEmail: "bad"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected validation failure, got %d", rec.Code)
	}
	if rec := api.do(t, http.MethodPost, "/api/email/send", manager, SendEmailRequest{Message: service.Message{To: "p@demo.com"}}); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 while mail is disabled, got %d", rec.Code)
	}
	if rec := api.do(t, http.MethodPut, "/api/settings/email", manager, domain.EmailSettings{Enabled: true, SenderEmail: "coach@demo.com", SenderName: "Demo"}); rec.Code != http.StatusOK {
		t.Fatalf("save settings: %d %s", rec.Code, rec.Body.String())
	}
	rec = api.do(t, http.MethodPost, "/api/email/send", manager, SendEmailRequest{Message: service.Message{To: "p@demo.com", Subject: "Hoi"}})
	var res service.SendResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil || !res.Demo || !res.Success {
		t.Fatalf("expected demo delivery, got %d %s", rec.Code, rec.Body.String())
	}

	rec = api.do(t, http.MethodGet, "/api/state", manager, nil)
	var state mirror.State
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("state: %v", err)
	}
	if len(state.EmailLogs) != 2 {
		t.Fatalf("expected both attempts logged, got %d", len(state.EmailLogs))
	}
}

func TestAdminEndpoints(t *testing.T) {
	api := newTestAPI(t)
	admin := api.token(t, domain.Principal{ID: service.FallbackAdminID, Role: domain.RoleAdmin})
	manager := api.token(t, domain.Principal{ID: "manager-" + api.orgID, Role: domain.RoleManager, OrganizationID: api.orgID})

	if rec := api.do(t, http.MethodGet, "/api/admin/organizations", manager, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for a manager, got %d", rec.Code)
	}

	rec := api.do(t, http.MethodGet, "/api/admin/organizations", admin, nil)
	var orgs []domain.Organization
	if err := json.Unmarshal(rec.Body.Bytes(), &orgs); err != nil || len(orgs) != 1 || orgs[0].ManagerPassword != "" {
		t.Fatalf("list organizations: %d %s", rec.Code, rec.Body.String())
	}

	rec = api.do(t, http.MethodPut, "/api/admin/plans", admin, domain.SubscriptionPlan{Name: "Pro"})
	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || rec.Code != http.StatusBadRequest || len(body.Problems) != 3 {
		t.Fatalf("expected three plan problems, got %d %s", rec.Code, rec.Body.String())
	}

	if rec := api.do(t, http.MethodPost, "/api/admin/reset", admin, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("reset without a provisioner should be refused, got %d", rec.Code)
	}
}
