package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aryan0dhankhar/coachsync/internal/domain"
	"github.com/aryan0dhankhar/coachsync/internal/events"
	"github.com/aryan0dhankhar/coachsync/internal/observability/metrics"
	"github.com/aryan0dhankhar/coachsync/internal/repository"
	"github.com/aryan0dhankhar/coachsync/internal/security/auth"
)

// Organization statuses and the payment status recorded by default.
const (
	StatusActive   = "Actief"
	PaymentPaid    = "Betaald"
	defaultOrgPlan = "Basic"
)

// Resetter drops and recreates tenant data.
type Resetter interface {
	Reset(ctx context.Context) error
}

// AdminService backs the platform admin console.
type AdminService struct {
	repos    *repository.Repositories
	resetter Resetter
	bus      events.Bus
	logger   *slog.Logger
	now      func() time.Time
}

// NewAdminService creates the admin service. bus may be nil.
func NewAdminService(repos *repository.Repositories, resetter Resetter, bus events.Bus, logger *slog.Logger) *AdminService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminService{
		repos:    repos,
		resetter: resetter,
		bus:      bus,
		logger:   logger.With(slog.String("component", "admin")),
		now:      time.Now,
	}
}

// ListOrganizations returns every organization with fresh user counts.
func (s *AdminService) ListOrganizations(ctx context.Context) []domain.Organization {
	orgs := s.repos.Organizations.FetchAll(ctx, "")
	for i := range orgs {
		counted, changed := s.count(ctx, orgs[i])
		if !changed {
			continue
		}
		if _, err := s.repos.Organizations.Upsert(ctx, "", counted); err != nil {
			s.logger.Warn("failed to store organization counts",
				slog.String("tenant_id", orgs[i].ID),
				slog.String("error", err.Error()),
			)
		}
		orgs[i] = counted
	}
	return orgs
}

// SaveOrganization validates and stores an organization. New organizations
// need a manager password and receive a copy of the global theme.
func (s *AdminService) SaveOrganization(ctx context.Context, org domain.Organization) (domain.Organization, error) {
	var v validation
	v.require(strings.TrimSpace(org.Name) != "", "Naam is verplicht")
	v.require(strings.TrimSpace(org.Domain) != "", "Domein is verplicht")
	v.require(strings.TrimSpace(org.Contact) != "", "Contact is verplicht")
	v.require(strings.TrimSpace(org.ManagerName) != "", "Manager naam is verplicht")
	v.require(strings.TrimSpace(org.ManagerEmail) != "", "Manager email is verplicht")

	var existing *domain.Organization
	if org.ID != "" {
		found, err := s.repos.Organizations.FindByID(ctx, org.ID)
		if err != nil {
			return domain.Organization{}, err
		}
		existing = found
	}
	creating := existing == nil
	v.require(!creating || org.ManagerPassword != "", "Manager wachtwoord is verplicht")

	if org.ManagerEmail != "" {
		owner, err := s.repos.Organizations.FindByManagerEmail(ctx, org.ManagerEmail)
		if err != nil {
			return domain.Organization{}, err
		}
		v.require(owner == nil || owner.ID == org.ID, "Manager email is al in gebruik")
	}
	if err := v.err(); err != nil {
		return domain.Organization{}, err
	}

	now := s.now().UTC()
	if org.Status == "" {
		org.Status = StatusActive
	}
	if org.Plan == "" {
		org.Plan = defaultOrgPlan
	}
	if creating {
		org.CreatedAt = now
		org.Users, org.Coaches, org.Participants = 0, 0, 0
	} else {
		org.CreatedAt = existing.CreatedAt
		if org.ManagerPassword == "" {
			org.ManagerPassword = existing.ManagerPassword
		}
	}
	org.UpdatedAt = now

	storedPassword := ""
	if existing != nil {
		storedPassword = existing.ManagerPassword
	}
	hash, err := auth.KeepOrHash(org.ManagerPassword, storedPassword)
	if err != nil {
		return domain.Organization{}, fmt.Errorf("failed to hash manager password: %w", err)
	}
	org.ManagerPassword = hash

	saved, err := s.repos.Organizations.Upsert(ctx, "", org)
	if err != nil {
		return domain.Organization{}, err
	}
	result := saved[0]

	if creating {
		s.cloneGlobalTheme(ctx, result.ID)
	} else if counted, changed := s.count(ctx, result); changed {
		if stored, err := s.repos.Organizations.Upsert(ctx, "", counted); err == nil {
			result = stored[0]
		}
	}

	s.logger.Info("organization saved",
		slog.String("tenant_id", result.ID),
		slog.Bool("created", creating),
	)
	return result, nil
}

func (s *AdminService) cloneGlobalTheme(ctx context.Context, orgID string) {
	theme := s.repos.GlobalTheme.Get(ctx).ThemeSettings
	theme.ID = ""
	if _, err := s.repos.Themes.ReplaceAll(ctx, orgID, []domain.ThemeSettings{theme}); err != nil {
		s.logger.Error("failed to create organization theme",
			slog.String("tenant_id", orgID),
			slog.String("error", err.Error()),
		)
	}
}

// DeleteOrganization removes the organization record.
func (s *AdminService) DeleteOrganization(ctx context.Context, id string) error {
	if err := s.repos.Organizations.Delete(ctx, "", id); err != nil {
		return err
	}
	s.logger.Info("organization deleted", slog.String("tenant_id", id))
	return nil
}

// RecountOrganization recomputes coach and participant counts from the
// organization's users.
func (s *AdminService) RecountOrganization(ctx context.Context, orgID string) (domain.Organization, error) {
	org, err := s.repos.Organizations.FindByID(ctx, orgID)
	if err != nil {
		return domain.Organization{}, err
	}
	if org == nil {
		return domain.Organization{}, fmt.Errorf("organization %s: %w", orgID, ErrNotFound)
	}
	counted, changed := s.count(ctx, *org)
	if !changed {
		return counted, nil
	}
	saved, err := s.repos.Organizations.Upsert(ctx, "", counted)
	if err != nil {
		return domain.Organization{}, err
	}
	return saved[0], nil
}

// RecountAll recounts every organization and returns how many changed.
func (s *AdminService) RecountAll(ctx context.Context) (int, error) {
	var (
		changed int
		errs    []error
	)
	for _, org := range s.repos.Organizations.FetchAll(ctx, "") {
		counted, diff := s.count(ctx, org)
		if !diff {
			continue
		}
		if _, err := s.repos.Organizations.Upsert(ctx, "", counted); err != nil {
			errs = append(errs, fmt.Errorf("failed to recount %s: %w", org.ID, err))
			continue
		}
		changed++
	}
	err := errors.Join(errs...)
	if err != nil {
		metrics.ObserveRecount("error")
	} else {
		metrics.ObserveRecount("ok")
	}
	return changed, err
}

func (s *AdminService) count(ctx context.Context, org domain.Organization) (domain.Organization, bool) {
	coaches, participants := 0, 0
	for _, u := range s.repos.Users.FetchAll(ctx, org.ID) {
		switch u.Role {
		case domain.RoleCoach:
			coaches++
		case domain.RoleParticipant:
			participants++
		case domain.RoleAdmin, domain.RoleManager:
		}
	}
	if org.Coaches == coaches && org.Participants == participants && org.Users == coaches+participants {
		return org, false
	}
	org.Coaches, org.Participants, org.Users = coaches, participants, coaches+participants
	org.UpdatedAt = s.now().UTC()
	return org, true
}

// ListPlans returns the subscription plans, cheapest first.
func (s *AdminService) ListPlans(ctx context.Context) []domain.SubscriptionPlan {
	return s.repos.Plans.FetchAll(ctx, "")
}

// SavePlan validates and stores a subscription plan.
func (s *AdminService) SavePlan(ctx context.Context, plan domain.SubscriptionPlan) (domain.SubscriptionPlan, error) {
	var v validation
	v.require(strings.TrimSpace(plan.Name) != "", "Naam is verplicht")
	v.require(plan.PriceMonthly > 0, "Maandprijs is verplicht")
	v.require(plan.PriceYearly > 0, "Jaarprijs is verplicht")
	v.require(len(plan.Features) > 0, "Minimaal één feature is verplicht")
	if err := v.err(); err != nil {
		return domain.SubscriptionPlan{}, err
	}

	now := s.now().UTC()
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = now
	}
	plan.UpdatedAt = now
	saved, err := s.repos.Plans.Upsert(ctx, "", plan)
	if err != nil {
		return domain.SubscriptionPlan{}, err
	}
	return saved[0], nil
}

// DeletePlan removes a subscription plan.
func (s *AdminService) DeletePlan(ctx context.Context, id string) error {
	return s.repos.Plans.Delete(ctx, "", id)
}

// ListPayments returns payments, newest first.
func (s *AdminService) ListPayments(ctx context.Context) []domain.Payment {
	return s.repos.Payments.FetchAll(ctx, "")
}

// RecordPayment stores a payment for an existing organization, filling in
// its name and plan.
func (s *AdminService) RecordPayment(ctx context.Context, p domain.Payment) (domain.Payment, error) {
	var v validation
	v.require(p.OrganizationID != "", "Organisatie is verplicht")
	v.require(p.Amount > 0, "Bedrag moet groter dan 0 zijn")
	if err := v.err(); err != nil {
		return domain.Payment{}, err
	}

	org, err := s.repos.Organizations.FindByID(ctx, p.OrganizationID)
	if err != nil {
		return domain.Payment{}, err
	}
	if org == nil {
		return domain.Payment{}, &ValidationError{Problems: []string{"Organisatie bestaat niet"}}
	}

	now := s.now().UTC()
	p.OrganizationName = org.Name
	if p.Plan == "" {
		p.Plan = org.Plan
	}
	if p.Status == "" {
		p.Status = PaymentPaid
	}
	if p.Date == "" {
		p.Date = now.Format("2006-01-02")
	}
	p.CreatedAt = now

	saved, err := s.repos.Payments.Upsert(ctx, "", p)
	if err != nil {
		return domain.Payment{}, err
	}
	return saved[0], nil
}

// GlobalTheme returns the platform theme.
func (s *AdminService) GlobalTheme(ctx context.Context) domain.GlobalTheme {
	return s.repos.GlobalTheme.Get(ctx)
}

// SaveGlobalTheme stores the platform theme. Existing tenant themes keep
// their own copy.
func (s *AdminService) SaveGlobalTheme(ctx context.Context, theme domain.GlobalTheme) (domain.GlobalTheme, error) {
	if strings.TrimSpace(theme.AppName) == "" {
		return domain.GlobalTheme{}, &ValidationError{Problems: []string{"App naam is verplicht"}}
	}
	theme.UpdatedAt = s.now().UTC()
	return s.repos.GlobalTheme.Save(ctx, theme)
}

// Reset drops and recreates every tenant table and tells every session.
func (s *AdminService) Reset(ctx context.Context) error {
	if s.resetter == nil {
		return ErrUnsupported
	}
	if err := s.resetter.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset: %w", err)
	}
	s.logger.Warn("complete reset performed")
	if s.bus != nil {
		if err := s.bus.Publish(ctx, events.Event{Action: events.ActionReset, At: s.now().UTC()}); err != nil {
			s.logger.Warn("failed to publish reset", slog.String("error", err.Error()))
		}
	}
	return nil
}
