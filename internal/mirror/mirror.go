package mirror

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/aryan0dhankhar/coachsync/internal/domain"
	"github.com/aryan0dhankhar/coachsync/internal/events"
	"github.com/aryan0dhankhar/coachsync/internal/observability/metrics"
	"github.com/aryan0dhankhar/coachsync/internal/repository"
	"github.com/aryan0dhankhar/coachsync/internal/tenant"
)

var (
	// ErrNoTenant is returned by writes when the principal has no organization.
	ErrNoTenant = errors.New("no organization selected")
	// ErrNotFound is returned when a write references a record the mirror does not hold.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidDay is returned for days or months outside the calendar.
	ErrInvalidDay = errors.New("invalid day or month")
	// ErrNestedGoal is returned when a sub-goal is given a sub-goal parent.
	ErrNestedGoal = errors.New("sub-goals cannot have sub-goals")
)

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// Collection names used in change events.
const (
	CollectionUsers            = "users"
	CollectionAssignments      = "assignments"
	CollectionGoals            = "goals"
	CollectionRecurring        = "recurring"
	CollectionRecurringReports = "recurring_reports"
	CollectionReports          = "reports"
	CollectionNotes            = "notes"
	CollectionMeetings         = "meetings"
	CollectionEmailSettings    = "email_settings"
	CollectionTheme            = "theme"
	CollectionEmailLogs        = "email_logs"
)

// Mirror is the application state of one principal.
type Mirror struct {
	repos  *repository.Repositories
	bus    events.Bus
	logger *slog.Logger
	tracer trace.Tracer
	now    func() time.Time

	mu    sync.RWMutex
	state State

	generation atomic.Uint64
	stale      atomic.Bool
}

// New returns an unloaded mirror. bus may be nil.
func New(repos *repository.Repositories, bus events.Bus, logger *slog.Logger) *Mirror {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mirror{
		repos:  repos,
		bus:    bus,
		logger: logger.With(slog.String("component", "mirror")),
		tracer: otel.Tracer("coachsync/mirror"),
		now:    time.Now,
		state:  emptyState(domain.Principal{}, ""),
	}
}

// Refresh reloads every collection for p concurrently and applies the results
// in one step. A refresh overtaken by a newer one is discarded.
func (m *Mirror) Refresh(ctx context.Context, p domain.Principal) error {
	gen := m.generation.Add(1)
	start := time.Now()
	ctx, span := m.tracer.Start(ctx, "mirror.refresh", trace.WithAttributes(
		attribute.String("principal.role", string(p.Role)),
	))
	defer span.End()

	tenantID, scoped := tenant.Resolve(p)
	next := emptyState(p, tenantID)
	if scoped {
		span.SetAttributes(attribute.String("tenant.id", tenantID))
		r := m.repos
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { next.Users = r.Users.FetchAll(gctx, tenantID); return nil })
		g.Go(func() error { next.Assignments = r.Assignments.FetchAll(gctx, tenantID); return nil })
		g.Go(func() error { next.Goals = r.Goals.FetchAll(gctx, tenantID); return nil })
		g.Go(func() error { next.Recurring = r.Recurring.FetchAll(gctx, tenantID); return nil })
		g.Go(func() error { next.RecurringReports = r.RecurringReports.FetchAll(gctx, tenantID); return nil })
		g.Go(func() error { next.Reports = r.Reports.FetchAll(gctx, tenantID); return nil })
		g.Go(func() error { next.Notes = r.Notes.FetchAll(gctx, tenantID); return nil })
		g.Go(func() error { next.Meetings = r.Meetings.FetchAll(gctx, tenantID); return nil })
		g.Go(func() error { next.EmailSettings = r.EmailSettings.Get(gctx, tenantID); return nil })
		g.Go(func() error { next.Theme = r.Themes.Get(gctx, tenantID); return nil })
		g.Go(func() error { next.EmailLogs = r.EmailLogs.FetchAll(gctx, tenantID); return nil })
		_ = g.Wait()
	}

	if err := ctx.Err(); err != nil {
		metrics.ObserveMirrorRefresh(string(p.Role), "cancelled", time.Since(start))
		return err
	}

	m.mu.Lock()
	if gen != m.generation.Load() {
		m.mu.Unlock()
		metrics.ObserveMirrorRefresh(string(p.Role), "superseded", time.Since(start))
		m.logger.Debug("discarding superseded refresh", slog.String("tenant_id", tenantID))
		return nil
	}
	next.Version = m.state.Version + 1
	next.Loaded = true
	next.RefreshedAt = m.now().UTC()
	m.state = next
	m.stale.Store(false)
	m.mu.Unlock()

	metrics.ObserveMirrorRefresh(string(p.Role), "ok", time.Since(start))
	m.logger.Debug("mirror refreshed",
		slog.String("tenant_id", tenantID),
		slog.String("role", string(p.Role)),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

// Clear drops all state, as on logout. Refreshes still running are discarded.
func (m *Mirror) Clear() {
	m.generation.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	version := m.state.Version
	m.state = emptyState(domain.Principal{}, "")
	m.state.Version = version + 1
}

// Snapshot returns a deep copy of the current state.
func (m *Mirror) Snapshot() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Clone()
}

// Loaded reports whether a refresh has completed since the last Clear.
func (m *Mirror) Loaded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Loaded
}

// TenantID is the organization the mirror currently holds.
func (m *Mirror) TenantID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.TenantID
}

// MarkStale makes the next access refresh the mirror.
func (m *Mirror) MarkStale() { m.stale.Store(true) }

// Stale reports whether another session changed the tenant's data.
func (m *Mirror) Stale() bool { return m.stale.Load() }

func (m *Mirror) tenantID() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.state.Loaded || m.state.TenantID == "" {
		return "", ErrNoTenant
	}
	return m.state.TenantID, nil
}

// commit applies an acknowledged write and announces it. The change is
// dropped when the mirror moved to another tenant meanwhile.
func (m *Mirror) commit(ctx context.Context, tenantID, collection string, action events.Action, recordID string, apply func(*State)) {
	m.mu.Lock()
	if m.state.TenantID != tenantID {
		m.mu.Unlock()
		return
	}
	apply(&m.state)
	m.state.Version++
	origin := m.state.Principal.Key()
	m.mu.Unlock()

	if m.bus == nil {
		return
	}
	err := m.bus.Publish(ctx, events.Event{
		TenantID:   tenantID,
		Collection: collection,
		Action:     action,
		RecordID:   recordID,
		Origin:     origin,
		At:         m.now().UTC(),
	})
	if err != nil {
		m.logger.Warn("failed to publish change event",
			slog.String("tenant_id", tenantID),
			slog.String("collection", collection),
			slog.String("error", err.Error()),
		)
	}
}

// SaveUsers replaces the tenant's users. A user sent without a password
// keeps the stored one.
func (m *Mirror) SaveUsers(ctx context.Context, users []domain.User) ([]domain.User, error) {
	tid, err := m.tenantID()
	if err != nil {
		return nil, err
	}
	stored := map[string]string{}
	for _, u := range m.Snapshot().Users {
		stored[u.ID] = u.Password
	}
	next := make([]domain.User, len(users))
	for i, u := range users {
		if u.Password == "" && u.ID != "" {
			u.Password = stored[u.ID]
		}
		next[i] = u
	}
	saved, err := m.repos.Users.ReplaceAll(ctx, tid, next)
	if err != nil {
		return nil, err
	}
	m.commit(ctx, tid, CollectionUsers, events.ActionReplaced, "", func(s *State) {
		s.Users = saved
	})
	return saved, nil
}

// DeleteUser removes a user and every assignment they take part in.
func (m *Mirror) DeleteUser(ctx context.Context, id string) error {
	tid, err := m.tenantID()
	if err != nil {
		return err
	}
	if err := m.repos.Users.Delete(ctx, tid, id); err != nil {
		return err
	}
	if err := m.repos.Assignments.DeleteForUser(ctx, tid, id); err != nil {
		return err
	}
	m.commit(ctx, tid, CollectionUsers, events.ActionDeleted, id, func(s *State) {
		s.Users = without(s.Users, func(u domain.User) bool { return u.ID == id })
		s.Assignments = without(s.Assignments, func(a domain.Assignment) bool {
			return a.CoachID == id || a.ParticipantID == id
		})
	})
	return nil
}

// AssignCoach gives participantID exactly one coach. An empty coachID
// removes the assignment.
func (m *Mirror) AssignCoach(ctx context.Context, participantID, coachID string) ([]domain.Assignment, error) {
	tid, err := m.tenantID()
	if err != nil {
		return nil, err
	}
	current := m.Snapshot().Assignments
	next := without(current, func(a domain.Assignment) bool { return a.ParticipantID == participantID })
	if coachID != "" {
		next = append(next, domain.Assignment{CoachID: coachID, ParticipantID: participantID})
	}
	saved, err := m.repos.Assignments.ReplaceAll(ctx, tid, next)
	if err != nil {
		return nil, err
	}
	m.commit(ctx, tid, CollectionAssignments, events.ActionReplaced, participantID, func(s *State) {
		s.Assignments = saved
	})
	return saved, nil
}

// SaveGoal creates or updates a goal. Sub-goals may not have sub-goals.
func (m *Mirror) SaveGoal(ctx context.Context, goal domain.Goal) (domain.Goal, error) {
	tid, err := m.tenantID()
	if err != nil {
		return domain.Goal{}, err
	}
	if goal.ParentID != "" {
		for _, g := range m.Snapshot().Goals {
			if g.ID == goal.ParentID && g.ParentID != "" {
				return domain.Goal{}, ErrNestedGoal
			}
		}
	}
	saved, err := m.repos.Goals.Upsert(ctx, tid, goal)
	if err != nil {
		return domain.Goal{}, err
	}
	m.commit(ctx, tid, CollectionGoals, events.ActionSaved, saved[0].ID, func(s *State) {
		s.Goals = upsertByID(s.Goals, saved[0], func(g domain.Goal) string { return g.ID })
	})
	return saved[0], nil
}

// DeleteGoal removes a goal and its direct sub-goals.
func (m *Mirror) DeleteGoal(ctx context.Context, id string) error {
	tid, err := m.tenantID()
	if err != nil {
		return err
	}
	if err := m.repos.Goals.DeleteWithChildren(ctx, tid, id); err != nil {
		return err
	}
	m.commit(ctx, tid, CollectionGoals, events.ActionDeleted, id, func(s *State) {
		s.Goals = without(s.Goals, func(g domain.Goal) bool { return g.ID == id || g.ParentID == id })
	})
	return nil
}

// SaveRecurring creates or updates a recurring agreement.
func (m *Mirror) SaveRecurring(ctx context.Context, a domain.RecurringAgreement) (domain.RecurringAgreement, error) {
	tid, err := m.tenantID()
	if err != nil {
		return domain.RecurringAgreement{}, err
	}
	saved, err := m.repos.Recurring.Upsert(ctx, tid, a)
	if err != nil {
		return domain.RecurringAgreement{}, err
	}
	m.commit(ctx, tid, CollectionRecurring, events.ActionSaved, saved[0].ID, func(s *State) {
		s.Recurring = upsertByID(s.Recurring, saved[0], func(r domain.RecurringAgreement) string { return r.ID })
	})
	return saved[0], nil
}

// DeleteRecurring removes an agreement and its monthly reports.
func (m *Mirror) DeleteRecurring(ctx context.Context, id string) error {
	tid, err := m.tenantID()
	if err != nil {
		return err
	}
	if err := m.repos.Recurring.Delete(ctx, tid, id); err != nil {
		return err
	}
	if err := m.repos.RecurringReports.DeleteForRecurring(ctx, tid, id); err != nil {
		return err
	}
	m.commit(ctx, tid, CollectionRecurring, events.ActionDeleted, id, func(s *State) {
		s.Recurring = without(s.Recurring, func(r domain.RecurringAgreement) bool { return r.ID == id })
		s.RecurringReports = without(s.RecurringReports, func(r domain.RecurringReport) bool { return r.RecurringID == id })
	})
	return nil
}

// RecordRecurringDay toggles day as completed for yes/no agreements, or sets
// (nil clears) its value for result agreements.
func (m *Mirror) RecordRecurringDay(ctx context.Context, recurringID, participantID, month string, day int, value *float64) (domain.RecurringReport, error) {
	tid, err := m.tenantID()
	if err != nil {
		return domain.RecurringReport{}, err
	}
	if !monthPattern.MatchString(month) || day < 1 || day > daysIn(month) {
		return domain.RecurringReport{}, ErrInvalidDay
	}

	snap := m.Snapshot()
	var agreement *domain.RecurringAgreement
	for i := range snap.Recurring {
		if snap.Recurring[i].ID == recurringID {
			agreement = &snap.Recurring[i]
			break
		}
	}
	if agreement == nil {
		return domain.RecurringReport{}, fmt.Errorf("recurring agreement %s: %w", recurringID, ErrNotFound)
	}
	if participantID == "" {
		participantID = agreement.ParticipantID
	}

	report := domain.RecurringReport{RecurringID: recurringID, ParticipantID: participantID, Month: month, CompletedDays: []int{}, Values: map[int]float64{}}
	for _, r := range snap.RecurringReports {
		if r.RecurringID == recurringID && r.Month == month && r.ParticipantID == participantID {
			report = r
			break
		}
	}
	if agreement.UsesResults() {
		report.SetValue(day, value)
	} else {
		report.ToggleDay(day)
	}

	saved, err := m.repos.RecurringReports.Upsert(ctx, tid, report)
	if err != nil {
		return domain.RecurringReport{}, err
	}
	m.commit(ctx, tid, CollectionRecurringReports, events.ActionSaved, saved[0].ID, func(s *State) {
		s.RecurringReports = upsertByID(s.RecurringReports, cloneReport(saved[0]), func(r domain.RecurringReport) string { return r.ID })
	})
	return saved[0], nil
}

// Summary derives the monthly totals of one agreement from the mirror.
func (m *Mirror) Summary(recurringID, month string) domain.Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.state.RecurringReports {
		if r.RecurringID == recurringID && r.Month == month {
			return r.Summarize()
		}
	}
	return domain.Summary{RecurringID: recurringID, Month: month}
}

// AddReport stores a new goal report.
func (m *Mirror) AddReport(ctx context.Context, r domain.Report) (domain.Report, error) {
	tid, err := m.tenantID()
	if err != nil {
		return domain.Report{}, err
	}
	if r.Datum == "" {
		r.Datum = m.now().Format("2006-01-02")
	}
	saved, err := m.repos.Reports.Upsert(ctx, tid, r)
	if err != nil {
		return domain.Report{}, err
	}
	m.commit(ctx, tid, CollectionReports, events.ActionSaved, saved[0].ID, func(s *State) {
		s.Reports = upsertByID(s.Reports, saved[0], func(x domain.Report) string { return x.ID })
	})
	return saved[0], nil
}

// AddNote stores a new note.
func (m *Mirror) AddNote(ctx context.Context, n domain.Note) (domain.Note, error) {
	tid, err := m.tenantID()
	if err != nil {
		return domain.Note{}, err
	}
	if n.Timestamp == "" {
		n.Timestamp = m.now().UTC().Format(time.RFC3339)
	}
	saved, err := m.repos.Notes.Upsert(ctx, tid, n)
	if err != nil {
		return domain.Note{}, err
	}
	m.commit(ctx, tid, CollectionNotes, events.ActionSaved, saved[0].ID, func(s *State) {
		s.Notes = upsertByID(s.Notes, saved[0], func(x domain.Note) string { return x.ID })
	})
	return saved[0], nil
}

// SaveMeeting creates or updates a meeting.
func (m *Mirror) SaveMeeting(ctx context.Context, mt domain.Meeting) (domain.Meeting, error) {
	tid, err := m.tenantID()
	if err != nil {
		return domain.Meeting{}, err
	}
	saved, err := m.repos.Meetings.Upsert(ctx, tid, mt)
	if err != nil {
		return domain.Meeting{}, err
	}
	m.commit(ctx, tid, CollectionMeetings, events.ActionSaved, saved[0].ID, func(s *State) {
		s.Meetings = upsertByID(s.Meetings, saved[0], func(x domain.Meeting) string { return x.ID })
	})
	return saved[0], nil
}

// DeleteMeeting removes a meeting.
func (m *Mirror) DeleteMeeting(ctx context.Context, id string) error {
	tid, err := m.tenantID()
	if err != nil {
		return err
	}
	if err := m.repos.Meetings.Delete(ctx, tid, id); err != nil {
		return err
	}
	m.commit(ctx, tid, CollectionMeetings, events.ActionDeleted, id, func(s *State) {
		s.Meetings = without(s.Meetings, func(x domain.Meeting) bool { return x.ID == id })
	})
	return nil
}

// SaveEmailSettings replaces the tenant's mail settings. An empty password
// keeps the stored one.
func (m *Mirror) SaveEmailSettings(ctx context.Context, settings domain.EmailSettings) (domain.EmailSettings, error) {
	tid, err := m.tenantID()
	if err != nil {
		return domain.EmailSettings{}, err
	}
	current := m.Snapshot().EmailSettings
	if settings.Password == "" {
		settings.Password = current.Password
	}
	if settings.ID == "" {
		settings.ID = current.ID
	}
	saved, err := m.repos.EmailSettings.ReplaceAll(ctx, tid, []domain.EmailSettings{settings})
	if err != nil {
		return domain.EmailSettings{}, err
	}
	m.commit(ctx, tid, CollectionEmailSettings, events.ActionReplaced, saved[0].ID, func(s *State) {
		s.EmailSettings = saved[0]
	})
	return saved[0], nil
}

// SaveTheme replaces the tenant's theme.
func (m *Mirror) SaveTheme(ctx context.Context, theme domain.ThemeSettings) (domain.ThemeSettings, error) {
	tid, err := m.tenantID()
	if err != nil {
		return domain.ThemeSettings{}, err
	}
	if theme.ID == "" {
		theme.ID = m.Snapshot().Theme.ID
	}
	saved, err := m.repos.Themes.ReplaceAll(ctx, tid, []domain.ThemeSettings{theme})
	if err != nil {
		return domain.ThemeSettings{}, err
	}
	m.commit(ctx, tid, CollectionTheme, events.ActionReplaced, saved[0].ID, func(s *State) {
		s.Theme = saved[0]
	})
	return saved[0], nil
}

// AppendEmailLog records a delivery attempt and keeps the newest entries.
func (m *Mirror) AppendEmailLog(ctx context.Context, entry domain.EmailLog) (domain.EmailLog, error) {
	tid, err := m.tenantID()
	if err != nil {
		return domain.EmailLog{}, err
	}
	saved, err := m.repos.EmailLogs.Append(ctx, tid, entry)
	if err != nil {
		return domain.EmailLog{}, err
	}
	m.commit(ctx, tid, CollectionEmailLogs, events.ActionSaved, saved.ID, func(s *State) {
		logs := append([]domain.EmailLog{saved}, s.EmailLogs...)
		if len(logs) > repository.EmailLogLimit {
			logs = logs[:repository.EmailLogLimit]
		}
		s.EmailLogs = logs
	})
	return saved, nil
}

func daysIn(month string) int {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return 0
	}
	return t.AddDate(0, 1, -1).Day()
}
