// Package mirror keeps a per-principal copy of everything the principal can
// see, refreshed from the store and updated only after the store has
// acknowledged a write.
package mirror

import (
	"time"

	"github.com/aryan0dhankhar/coachsync/internal/domain"
)

// State is one consistent view of a tenant's data.
type State struct {
	Principal        domain.Principal            `json:"principal"`
	TenantID         string                      `json:"tenantId"`
	Users            []domain.User               `json:"users"`
	Assignments      []domain.Assignment         `json:"assignments"`
	Goals            []domain.Goal               `json:"goals"`
	Recurring        []domain.RecurringAgreement `json:"recurring"`
	RecurringReports []domain.RecurringReport    `json:"recurringReports"`
	Reports          []domain.Report             `json:"reports"`
	Notes            []domain.Note               `json:"notes"`
	Meetings         []domain.Meeting            `json:"meetings"`
	EmailSettings    domain.EmailSettings        `json:"emailSettings"`
	Theme            domain.ThemeSettings        `json:"theme"`
	EmailLogs        []domain.EmailLog           `json:"emailLogs"`
	Version          uint64                      `json:"version"`
	Loaded           bool                        `json:"loaded"`
	RefreshedAt      time.Time                   `json:"refreshedAt"`
}

func emptyState(p domain.Principal, tenantID string) State {
	return State{
		Principal:        p,
		TenantID:         tenantID,
		Users:            []domain.User{},
		Assignments:      []domain.Assignment{},
		Goals:            []domain.Goal{},
		Recurring:        []domain.RecurringAgreement{},
		RecurringReports: []domain.RecurringReport{},
		Reports:          []domain.Report{},
		Notes:            []domain.Note{},
		Meetings:         []domain.Meeting{},
		EmailSettings:    domain.DefaultEmailSettings(),
		Theme:            domain.DefaultTheme("Coaching App"),
		EmailLogs:        []domain.EmailLog{},
	}
}

// Clone deep-copies s so callers can read it without holding the mirror lock.
func (s State) Clone() State {
	out := s
	out.Users = append([]domain.User{}, s.Users...)
	out.Assignments = append([]domain.Assignment{}, s.Assignments...)
	out.Goals = append([]domain.Goal{}, s.Goals...)
	out.Recurring = append([]domain.RecurringAgreement{}, s.Recurring...)
	out.Reports = append([]domain.Report{}, s.Reports...)
	out.Notes = append([]domain.Note{}, s.Notes...)
	out.Meetings = append([]domain.Meeting{}, s.Meetings...)
	out.EmailLogs = append([]domain.EmailLog{}, s.EmailLogs...)
	out.RecurringReports = make([]domain.RecurringReport, len(s.RecurringReports))
	for i, r := range s.RecurringReports {
		out.RecurringReports[i] = cloneReport(r)
	}
	return out
}

// Redacted returns a copy without stored secrets, for sending to clients.
func (s State) Redacted() State {
	out := s.Clone()
	for i := range out.Users {
		out.Users[i].Password = ""
	}
	out.EmailSettings.Password = ""
	return out
}

func cloneReport(r domain.RecurringReport) domain.RecurringReport {
	r.CompletedDays = append([]int{}, r.CompletedDays...)
	values := make(map[int]float64, len(r.Values))
	for k, v := range r.Values {
		values[k] = v
	}
	r.Values = values
	return r
}

// upsertByID replaces the element with the same id or appends item.
func upsertByID[T any](list []T, item T, id func(T) string) []T {
	out := make([]T, 0, len(list)+1)
	replaced := false
	for _, x := range list {
		if id(x) == id(item) {
			out = append(out, item)
			replaced = true
			continue
		}
		out = append(out, x)
	}
	if !replaced {
		out = append(out, item)
	}
	return out
}

// without drops every element drop reports true for.
func without[T any](list []T, drop func(T) bool) []T {
	out := make([]T, 0, len(list))
	for _, x := range list {
		if !drop(x) {
			out = append(out, x)
		}
	}
	return out
}
