package tenant

import (
	"testing"

	"github.com/aryan0dhankhar/coachsync/internal/domain"
	"github.com/aryan0dhankhar/coachsync/internal/schema"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		principal  domain.Principal
		wantTenant string
		wantScoped bool
	}{
		{"admin is unscoped", domain.Principal{ID: "admin", Role: domain.RoleAdmin, OrganizationID: "org-1"}, "", false},
		{"manager", domain.Principal{ID: "manager-org-1", Role: domain.RoleManager, OrganizationID: "org-1"}, "org-1", true},
		{"coach", domain.Principal{ID: "c1", Role: domain.RoleCoach, OrganizationID: "org-2"}, "org-2", true},
		{"participant without org", domain.Principal{ID: "p1", Role: domain.RoleParticipant}, "", false},
		{"unknown role", domain.Principal{ID: "x", Role: "guest", OrganizationID: "org-1"}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, scoped := Resolve(tt.principal)
			if got != tt.wantTenant || scoped != tt.wantScoped {
				t.Fatalf("got (%q, %v), want (%q, %v)", got, scoped, tt.wantTenant, tt.wantScoped)
			}
		})
	}
}

func TestScope(t *testing.T) {
	filters := Scope(domain.Principal{ID: "c1", Role: domain.RoleCoach, OrganizationID: "org-1"})
	if len(filters) != 1 || filters[0].Column != schema.TenantColumn || filters[0].Value != "org-1" {
		t.Fatalf("unexpected filters: %+v", filters)
	}
	if Scope(domain.Principal{ID: "admin", Role: domain.RoleAdmin}) != nil {
		t.Fatalf("admin should have no tenant filter")
	}
}
