package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/coachsync/internal/domain"
	"github.com/aryan0dhankhar/coachsync/internal/schema"
	"github.com/aryan0dhankhar/coachsync/internal/security/auth"
	"github.com/aryan0dhankhar/coachsync/internal/store"
)

// EmailLogLimit caps how many log entries a tenant read returns.
const EmailLogLimit = 50

// Repositories bundles one repository per entity over a shared client.
type Repositories struct {
	Users            *UserRepository
	Assignments      *AssignmentRepository
	Goals            *GoalRepository
	Recurring        *RecurringRepository
	RecurringReports *RecurringReportRepository
	Reports          *ReportRepository
	Notes            *NoteRepository
	Meetings         *MeetingRepository
	EmailSettings    *EmailSettingsRepository
	Themes           *ThemeRepository
	EmailLogs        *EmailLogRepository

	Organizations *OrganizationRepository
	Plans         *PlanRepository
	Payments      *PaymentRepository
	GlobalTheme   *GlobalThemeRepository
}

// New wires every repository. ensurer may be nil, in which case a missing
// relation simply degrades reads to empty.
func New(client store.Client, ensurer Ensurer, logger *slog.Logger) *Repositories {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "repository"))

	return &Repositories{
		Users: &UserRepository{table: &table[domain.User]{
			client: client, def: schema.Users, ensurer: ensurer, logger: logger,
			toApp: userFromRow, toRow: userToRow,
			id:     func(u *domain.User) *string { return &u.ID },
			tenant: func(u *domain.User) *string { return &u.OrganizationID },
		}, now: time.Now},
		Assignments: &AssignmentRepository{&table[domain.Assignment]{
			client: client, def: schema.Assignments, ensurer: ensurer, logger: logger,
			toApp: assignmentFromRow, toRow: assignmentToRow,
			id:     func(a *domain.Assignment) *string { return &a.ID },
			tenant: func(a *domain.Assignment) *string { return &a.OrganizationID },
		}},
		Goals: &GoalRepository{&table[domain.Goal]{
			client: client, def: schema.Goals, ensurer: ensurer, logger: logger,
			toApp: goalFromRow, toRow: goalToRow,
			id:     func(g *domain.Goal) *string { return &g.ID },
			tenant: func(g *domain.Goal) *string { return &g.OrganizationID },
		}},
		Recurring: &RecurringRepository{&table[domain.RecurringAgreement]{
			client: client, def: schema.Recurring, ensurer: ensurer, logger: logger,
			toApp: recurringFromRow, toRow: recurringToRow,
			id:     func(a *domain.RecurringAgreement) *string { return &a.ID },
			tenant: func(a *domain.RecurringAgreement) *string { return &a.OrganizationID },
		}},
		RecurringReports: &RecurringReportRepository{&table[domain.RecurringReport]{
			client: client, def: schema.RecurringReports, ensurer: ensurer, logger: logger,
			toApp: recurringReportFromRow, toRow: recurringReportToRow,
			id:     func(r *domain.RecurringReport) *string { return &r.ID },
			tenant: func(r *domain.RecurringReport) *string { return &r.OrganizationID },
		}},
		Reports: &ReportRepository{&table[domain.Report]{
			client: client, def: schema.Reports, ensurer: ensurer, logger: logger,
			toApp: reportFromRow, toRow: reportToRow,
			id:     func(r *domain.Report) *string { return &r.ID },
			tenant: func(r *domain.Report) *string { return &r.OrganizationID },
			order:  []store.Order{{Column: "datum"}},
		}},
		Notes: &NoteRepository{&table[domain.Note]{
			client: client, def: schema.Notes, ensurer: ensurer, logger: logger,
			toApp: noteFromRow, toRow: noteToRow,
			id:     func(n *domain.Note) *string { return &n.ID },
			tenant: func(n *domain.Note) *string { return &n.OrganizationID },
			order:  []store.Order{{Column: "timestamp"}},
		}},
		Meetings: &MeetingRepository{&table[domain.Meeting]{
			client: client, def: schema.Meetings, ensurer: ensurer, logger: logger,
			toApp: meetingFromRow, toRow: meetingToRow,
			id:     func(m *domain.Meeting) *string { return &m.ID },
			tenant: func(m *domain.Meeting) *string { return &m.OrganizationID },
			order:  []store.Order{{Column: "datum"}, {Column: "tijdstip"}},
		}},
		EmailSettings: &EmailSettingsRepository{&table[domain.EmailSettings]{
			client: client, def: schema.EmailSettings, ensurer: ensurer, logger: logger,
			toApp: emailSettingsFromRow, toRow: emailSettingsToRow,
			id:     func(s *domain.EmailSettings) *string { return &s.ID },
			tenant: func(s *domain.EmailSettings) *string { return &s.OrganizationID },
		}},
		Themes: &ThemeRepository{&table[domain.ThemeSettings]{
			client: client, def: schema.Theme, ensurer: ensurer, logger: logger,
			toApp:  func(r store.Row) domain.ThemeSettings { return themeFromRow(r, "Coaching App") },
			toRow:  themeToRow,
			id:     func(t *domain.ThemeSettings) *string { return &t.ID },
			tenant: func(t *domain.ThemeSettings) *string { return &t.OrganizationID },
		}},
		EmailLogs: &EmailLogRepository{&table[domain.EmailLog]{
			client: client, def: schema.EmailLogs, ensurer: ensurer, logger: logger,
			toApp: emailLogFromRow, toRow: emailLogToRow,
			id:     func(l *domain.EmailLog) *string { return &l.ID },
			tenant: func(l *domain.EmailLog) *string { return &l.OrganizationID },
			order:  []store.Order{{Column: "timestamp", Desc: true}},
			limit:  EmailLogLimit,
		}},

		Organizations: &OrganizationRepository{&table[domain.Organization]{
			client: client, def: schema.Organizations, ensurer: ensurer, logger: logger,
			toApp: organizationFromRow, toRow: organizationToRow,
			id:    func(o *domain.Organization) *string { return &o.ID },
			order: []store.Order{{Column: "created_at"}},
		}},
		Plans: &PlanRepository{&table[domain.SubscriptionPlan]{
			client: client, def: schema.Plans, ensurer: ensurer, logger: logger,
			toApp: planFromRow, toRow: planToRow,
			id:    func(p *domain.SubscriptionPlan) *string { return &p.ID },
			order: []store.Order{{Column: "price_monthly"}},
		}},
		Payments: &PaymentRepository{&table[domain.Payment]{
			client: client, def: schema.Payments, ensurer: ensurer, logger: logger,
			toApp: paymentFromRow, toRow: paymentToRow,
			id:    func(p *domain.Payment) *string { return &p.ID },
			order: []store.Order{{Column: "date", Desc: true}},
		}},
		GlobalTheme: &GlobalThemeRepository{&table[domain.GlobalTheme]{
			client: client, def: schema.GlobalTheme, ensurer: ensurer, logger: logger,
			toApp: globalThemeFromRow, toRow: globalThemeToRow,
			id:    func(g *domain.GlobalTheme) *string { return &g.ID },
		}},
	}
}

// UserRepository stores organization users.
type UserRepository struct {
	*table[domain.User]
	now func() time.Time
}

// ErrRoleNotAllowed is returned when a user is saved with a role reserved for
// platform accounts.
var ErrRoleNotAllowed = errors.New("role is not allowed for organization users")

// ReplaceAll hashes plaintext passwords and recomputes ages before replacing
// the tenant's users.
func (r *UserRepository) ReplaceAll(ctx context.Context, tenantID string, users []domain.User) ([]domain.User, error) {
	prepared, err := r.normalize(ctx, tenantID, users)
	if err != nil {
		return nil, err
	}
	return r.table.ReplaceAll(ctx, tenantID, prepared)
}

// Upsert writes users with the same normalization as ReplaceAll.
func (r *UserRepository) Upsert(ctx context.Context, tenantID string, users ...domain.User) ([]domain.User, error) {
	prepared, err := r.normalize(ctx, tenantID, users)
	if err != nil {
		return nil, err
	}
	return r.table.Upsert(ctx, tenantID, prepared...)
}

func (r *UserRepository) normalize(ctx context.Context, tenantID string, users []domain.User) ([]domain.User, error) {
	for _, u := range users {
		if u.Role == domain.RoleAdmin || u.Role == domain.RoleManager {
			return nil, fmt.Errorf("%w: %s (%s)", ErrRoleNotAllowed, u.Role, u.Nickname)
		}
	}
	stored, err := r.storedPasswords(ctx, tenantID, users)
	if err != nil {
		return nil, err
	}

	now := r.now()
	out := make([]domain.User, len(users))
	for i, u := range users {
		hash, err := auth.KeepOrHash(u.Password, stored[u.ID])
		if err != nil {
			return nil, fmt.Errorf("failed to hash password for %s: %w", u.Nickname, err)
		}
		u.Password = hash
		if u.Geboortedatum != "" {
			u.Leeftijd = domain.CalculateAge(u.Geboortedatum, now)
		}
		u.Role = domain.UserRole(string(u.Role))
		out[i] = u
	}
	return out, nil
}

// storedPasswords returns the stored password per user id, read only when
// some incoming password could be a hash echoed back from the store.
func (r *UserRepository) storedPasswords(ctx context.Context, tenantID string, users []domain.User) (map[string]string, error) {
	out := map[string]string{}
	lookup := false
	for _, u := range users {
		if u.ID != "" && auth.IsHashed(u.Password) {
			lookup = true
			break
		}
	}
	if !lookup {
		return out, nil
	}
	rows, err := r.client.Select(ctx, store.Query{Relation: r.def.Name, Filters: r.scope(tenantID)})
	if err != nil {
		if store.IsKind(err, store.KindSchemaAbsent) {
			return out, nil
		}
		return nil, err
	}
	for _, row := range rows {
		out[row.String("id")] = row.String("password")
	}
	return out, nil
}

// FindByNickname looks a user up across all tenants, as login does before
// the tenant is known.
func (r *UserRepository) FindByNickname(ctx context.Context, nickname string) (*domain.User, error) {
	return r.first(ctx, store.Eq("nickname", nickname))
}

// FindByID looks a user up inside tenantID.
func (r *UserRepository) FindByID(ctx context.Context, tenantID, id string) (*domain.User, error) {
	return r.first(ctx, r.scope(tenantID, store.Eq("id", id))...)
}

// AssignmentRepository stores coach/participant pairs.
type AssignmentRepository struct {
	*table[domain.Assignment]
}

// DeleteForUser removes every assignment the user takes part in.
func (r *AssignmentRepository) DeleteForUser(ctx context.Context, tenantID, userID string) error {
	if err := r.deleteWhere(ctx, tenantID, store.Eq("coach_id", userID)); err != nil {
		return err
	}
	return r.deleteWhere(ctx, tenantID, store.Eq("participant_id", userID))
}

// GoalRepository stores goal agreements.
type GoalRepository struct {
	*table[domain.Goal]
}

// DeleteWithChildren removes a goal and its direct sub-goals.
func (r *GoalRepository) DeleteWithChildren(ctx context.Context, tenantID, goalID string) error {
	if err := r.deleteWhere(ctx, tenantID, store.Eq("parent_id", goalID)); err != nil {
		return err
	}
	return r.Delete(ctx, tenantID, goalID)
}

// RecurringRepository stores recurring agreements.
type RecurringRepository struct {
	*table[domain.RecurringAgreement]
}

// FindByID looks an agreement up inside tenantID.
func (r *RecurringRepository) FindByID(ctx context.Context, tenantID, id string) (*domain.RecurringAgreement, error) {
	return r.first(ctx, r.scope(tenantID, store.Eq("id", id))...)
}

// RecurringReportRepository stores monthly recurring reports.
type RecurringReportRepository struct {
	*table[domain.RecurringReport]
}

// ForMonth returns the report of one agreement for month, nil when none exists.
func (r *RecurringReportRepository) ForMonth(ctx context.Context, tenantID, recurringID, month string) *domain.RecurringReport {
	found := r.where(ctx, tenantID, store.Eq("recurring_id", recurringID), store.Eq("month", month))
	if len(found) == 0 {
		return nil
	}
	return &found[0]
}

// DeleteForRecurring removes every report of an agreement.
func (r *RecurringReportRepository) DeleteForRecurring(ctx context.Context, tenantID, recurringID string) error {
	return r.deleteWhere(ctx, tenantID, store.Eq("recurring_id", recurringID))
}

// ReportRepository stores goal reports.
type ReportRepository struct {
	*table[domain.Report]
}

// NoteRepository stores notes.
type NoteRepository struct {
	*table[domain.Note]
}

// MeetingRepository stores meetings.
type MeetingRepository struct {
	*table[domain.Meeting]
}

// EmailSettingsRepository stores per-tenant mail settings.
type EmailSettingsRepository struct {
	*table[domain.EmailSettings]
}

// Get returns the tenant's settings, or the defaults when none are saved.
func (r *EmailSettingsRepository) Get(ctx context.Context, tenantID string) domain.EmailSettings {
	if found := r.FetchAll(ctx, tenantID); len(found) > 0 {
		return found[0]
	}
	s := domain.DefaultEmailSettings()
	s.OrganizationID = tenantID
	return s
}

// ThemeRepository stores per-tenant themes.
type ThemeRepository struct {
	*table[domain.ThemeSettings]
}

// Get returns the tenant's theme, or the stock theme when none is saved.
func (r *ThemeRepository) Get(ctx context.Context, tenantID string) domain.ThemeSettings {
	if found := r.FetchAll(ctx, tenantID); len(found) > 0 {
		return found[0]
	}
	t := domain.DefaultTheme("Coaching App")
	t.OrganizationID = tenantID
	return t
}

// EmailLogRepository stores delivery attempts, newest first.
type EmailLogRepository struct {
	*table[domain.EmailLog]
}

// Append records one attempt.
func (r *EmailLogRepository) Append(ctx context.Context, tenantID string, entry domain.EmailLog) (domain.EmailLog, error) {
	_, rows := r.prepare(tenantID, []domain.EmailLog{entry})
	if err := r.client.Insert(ctx, r.def.Name, rows); err != nil {
		return domain.EmailLog{}, err
	}
	return r.toApp(rows[0]), nil
}

// OrganizationRepository stores tenants.
type OrganizationRepository struct {
	*table[domain.Organization]
}

// FindByManagerEmail returns the organization managed by email, nil when none.
func (r *OrganizationRepository) FindByManagerEmail(ctx context.Context, email string) (*domain.Organization, error) {
	return r.first(ctx, store.Eq("manager_email", email))
}

// FindByID returns one organization, nil when none.
func (r *OrganizationRepository) FindByID(ctx context.Context, id string) (*domain.Organization, error) {
	return r.first(ctx, store.Eq("id", id))
}

// PlanRepository stores subscription plans, cheapest first.
type PlanRepository struct {
	*table[domain.SubscriptionPlan]
}

// PaymentRepository stores payments, newest first.
type PaymentRepository struct {
	*table[domain.Payment]
}

// GlobalThemeRepository stores the single platform theme row.
type GlobalThemeRepository struct {
	*table[domain.GlobalTheme]
}

// Get returns the first stored theme or the platform defaults.
func (r *GlobalThemeRepository) Get(ctx context.Context) domain.GlobalTheme {
	if found := r.FetchAll(ctx, ""); len(found) > 0 {
		return found[0]
	}
	return domain.GlobalTheme{ThemeSettings: domain.DefaultTheme("Coaching Platform")}
}

// Save updates the stored theme in place, or inserts one when none exists.
func (r *GlobalThemeRepository) Save(ctx context.Context, theme domain.GlobalTheme) (domain.GlobalTheme, error) {
	if current := r.FetchAll(ctx, ""); len(current) > 0 {
		theme.ID = current[0].ID
	}
	theme.OrganizationID = ""
	if theme.UpdatedAt.IsZero() {
		theme.UpdatedAt = time.Now().UTC()
	}
	saved, err := r.Upsert(ctx, "", theme)
	if err != nil {
		return domain.GlobalTheme{}, err
	}
	return saved[0], nil
}
