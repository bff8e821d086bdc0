package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aryan0dhankhar/coachsync/internal/domain"
	"github.com/aryan0dhankhar/coachsync/internal/events"
	"github.com/aryan0dhankhar/coachsync/internal/security/auth"
)

type resetFunc func(ctx context.Context) error

func (f resetFunc) Reset(ctx context.Context) error { return f(ctx) }

func newOrg() domain.Organization {
	return domain.Organization{
		Name: "Acme", Domain: "acme.nl", Contact: "info@acme.nl",
		ManagerName: "Mia", ManagerEmail: "mia@acme.nl", ManagerPassword: "geheim1",
	}
}

func TestSaveOrganizationCreates(t *testing.T) {
	ctx := context.Background()
	_, repos := newRepos(t)
	if _, err := repos.GlobalTheme.Save(ctx, domain.GlobalTheme{ThemeSettings: domain.DefaultTheme("Platform")}); err != nil {
		t.Fatalf("seed theme: %v", err)
	}
	s := NewAdminService(repos, nil, nil, nil)

	org, err := s.SaveOrganization(ctx, newOrg())
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if org.ID == "" || org.Status != StatusActive || org.Plan != "Basic" || org.CreatedAt.IsZero() {
		t.Fatalf("defaults not applied: %+v", org)
	}
	if !auth.IsHashed(org.ManagerPassword) {
		t.Fatalf("manager password stored in plain text")
	}
	if theme := repos.Themes.Get(ctx, org.ID); theme.AppName != "Platform" {
		t.Fatalf("expected global theme copy, got %+v", theme)
	}
}

func TestSaveOrganizationValidation(t *testing.T) {
	ctx := context.Background()
	_, repos := newRepos(t)
	s := NewAdminService(repos, nil, nil, nil)

	_, err := s.SaveOrganization(ctx, domain.Organization{})
	var verr *ValidationError
	if !errors.As(err, &verr) || len(verr.Problems) != 6 {
		t.Fatalf("expected six problems, got %v", err)
	}

	first, err := s.SaveOrganization(ctx, newOrg())
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	dup := newOrg()
	dup.Name = "Other"
	if _, err := s.SaveOrganization(ctx, dup); !errors.As(err, &verr) {
		t.Fatalf("expected duplicate manager email to be rejected, got %v", err)
	}

	// Updating without a password keeps the stored hash.
	first.ManagerPassword = ""
	first.Name = "Acme BV"
	updated, err := s.SaveOrganization(ctx, first)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if auth.CheckPassword(updated.ManagerPassword, "geheim1") != nil {
		t.Fatalf("manager password lost on update")
	}
	if d := updated.CreatedAt.Sub(first.CreatedAt); d > time.Second || d < -time.Second {
		t.Fatalf("created_at changed on update")
	}
}

func TestRecountOrganization(t *testing.T) {
	ctx := context.Background()
	_, repos := newRepos(t)
	s := NewAdminService(repos, nil, nil, nil)
	org, err := s.SaveOrganization(ctx, newOrg())
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := repos.Users.Upsert(ctx, org.ID,
		domain.User{Nickname: "c1", Password: "pw1234", Role: domain.RoleCoach},
		domain.User{Nickname: "p1", Password: "pw1234", Role: domain.RoleParticipant},
		domain.User{Nickname: "p2", Password: "pw1234", Role: domain.RoleParticipant},
	); err != nil {
		t.Fatalf("seed users: %v", err)
	}

	counted, err := s.RecountOrganization(ctx, org.ID)
	if err != nil {
		t.Fatalf("recount: %v", err)
	}
	if counted.Coaches != 1 || counted.Participants != 2 || counted.Users != 3 {
		t.Fatalf("unexpected counts: %+v", counted)
	}
	if _, err := s.RecountOrganization(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	changed, err := s.RecountAll(ctx)
	if err != nil || changed != 0 {
		t.Fatalf("expected nothing left to recount, got %d %v", changed, err)
	}
	if list := s.ListOrganizations(ctx); len(list) != 1 || list[0].Users != 3 {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestSavePlanValidation(t *testing.T) {
	ctx := context.Background()
	_, repos := newRepos(t)
	s := NewAdminService(repos, nil, nil, nil)

	_, err := s.SavePlan(ctx, domain.SubscriptionPlan{Name: "Pro", PriceMonthly: 10, PriceYearly: 100})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Problems[0] != "Minimaal één feature is verplicht" {
		t.Fatalf("expected feature problem, got %v", err)
	}

	plan, err := s.SavePlan(ctx, domain.SubscriptionPlan{Name: "Pro", PriceMonthly: 10, PriceYearly: 100, Features: []string{"Rapportages"}})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(s.ListPlans(ctx)) != 1 {
		t.Fatalf("plan not stored")
	}
	if err := s.DeletePlan(ctx, plan.ID); err != nil || len(s.ListPlans(ctx)) != 0 {
		t.Fatalf("delete failed: %v", err)
	}
}

func TestRecordPayment(t *testing.T) {
	ctx := context.Background()
	_, repos := newRepos(t)
	s := NewAdminService(repos, nil, nil, nil)
	s.now = func() time.Time { return time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC) }
	org, err := s.SaveOrganization(ctx, newOrg())
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	p, err := s.RecordPayment(ctx, domain.Payment{OrganizationID: org.ID, Amount: 49})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if p.OrganizationName != "Acme" || p.Plan != "Basic" || p.Status != PaymentPaid || p.Date != "2026-03-04" {
		t.Fatalf("payment not filled in: %+v", p)
	}
	var verr *ValidationError
	if _, err := s.RecordPayment(ctx, domain.Payment{OrganizationID: "nope", Amount: 1}); !errors.As(err, &verr) {
		t.Fatalf("expected unknown organization to be rejected, got %v", err)
	}
	if len(s.ListPayments(ctx)) != 1 {
		t.Fatalf("expected one payment")
	}
}

func TestResetPublishes(t *testing.T) {
	ctx := context.Background()
	_, repos := newRepos(t)
	bus := events.NewLocalBus()
	defer bus.Close()
	ch, cancel := bus.Subscribe()
	defer cancel()

	called := false
	s := NewAdminService(repos, resetFunc(func(context.Context) error { called = true; return nil }), bus, nil)
	if err := s.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if !called {
		t.Fatalf("resetter not invoked")
	}
	select {
	case e := <-ch:
		if e.Action != events.ActionReset {
			t.Fatalf("unexpected event %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatalf("no reset event")
	}

	if err := NewAdminService(repos, nil, nil, nil).Reset(ctx); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected unsupported without resetter, got %v", err)
	}
}
