// Package tenant derives the organization a principal acts for.
package tenant

import (
	"github.com/aryan0dhankhar/coachsync/internal/domain"
	"github.com/aryan0dhankhar/coachsync/internal/schema"
	"github.com/aryan0dhankhar/coachsync/internal/store"
)

// Resolve returns the tenant id of p and whether tenant-scoped data applies.
// The platform admin works on platform tables and is never scoped. A
// principal without an organization is a valid unscoped state.
func Resolve(p domain.Principal) (string, bool) {
	switch p.Role {
	case domain.RoleAdmin:
		return "", false
	case domain.RoleManager, domain.RoleCoach, domain.RoleParticipant:
		if p.OrganizationID == "" {
			return "", false
		}
		return p.OrganizationID, true
	default:
		return "", false
	}
}

// Scope returns the filter restricting tenant tables to p's organization,
// empty when p is unscoped.
func Scope(p domain.Principal) []store.Filter {
	id, ok := Resolve(p)
	if !ok {
		return nil
	}
	return []store.Filter{store.Eq(schema.TenantColumn, id)}
}
