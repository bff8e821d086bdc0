package security

import (
	"errors"
	"testing"

	"github.com/aryan0dhankhar/coachsync/internal/domain"
)

func TestRolePermissions(t *testing.T) {
	as := NewAuthorizationService(nil)
	cases := []struct {
		role domain.Role
		perm Permission
		want bool
	}{
		{domain.RoleAdmin, PermAdminConsole, true},
		{domain.RoleAdmin, PermViewState, false},
		{domain.RoleManager, PermManageUsers, true},
		{domain.RoleManager, PermAdminConsole, false},
		{domain.RoleCoach, PermManageAgreements, true},
		{domain.RoleCoach, PermManageSettings, false},
		{domain.RoleParticipant, PermRecordProgress, true},
		{domain.RoleParticipant, PermSendEmail, false},
		{domain.Role("ghost"), PermViewState, false},
	}
	for _, tc := range cases {
		if got := as.HasPermission(tc.role, tc.perm); got != tc.want {
			t.Errorf("%s/%s = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
	err := as.ValidatePermission(domain.Principal{ID: "p", Role: domain.RoleParticipant}, PermManageUsers)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestValidateParticipantAccess(t *testing.T) {
	as := NewAuthorizationService(nil)
	assignments := []domain.Assignment{{CoachID: "c1", ParticipantID: "p1"}}

	allowed := []struct {
		p  domain.Principal
		id string
	}{
		{domain.Principal{ID: "m", Role: domain.RoleManager}, "p9"},
		{domain.Principal{ID: "c1", Role: domain.RoleCoach}, "p1"},
		{domain.Principal{ID: "p1", Role: domain.RoleParticipant}, "p1"},
	}
	for _, tc := range allowed {
		if err := as.ValidateParticipantAccess(tc.p, tc.id, assignments); err != nil {
			t.Errorf("%s should reach %s: %v", tc.p.Role, tc.id, err)
		}
	}

	denied := []struct {
		p  domain.Principal
		id string
	}{
		{domain.Principal{ID: "c2", Role: domain.RoleCoach}, "p1"},
		{domain.Principal{ID: "p2", Role: domain.RoleParticipant}, "p1"},
		{domain.Principal{ID: "admin", Role: domain.RoleAdmin}, "p1"},
	}
	for _, tc := range denied {
		if err := as.ValidateParticipantAccess(tc.p, tc.id, assignments); !errors.Is(err, ErrForbidden) {
			t.Errorf("%s %s should be denied, got %v", tc.p.Role, tc.p.ID, err)
		}
	}
}

func TestValidateTenantAccess(t *testing.T) {
	as := NewAuthorizationService(nil)
	p := domain.Principal{ID: "m", Role: domain.RoleManager, OrganizationID: "org-1"}
	if err := as.ValidateTenantAccess(p, "org-1"); err != nil {
		t.Fatalf("own tenant: %v", err)
	}
	if err := as.ValidateTenantAccess(p, "org-2"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}
