package security

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/aryan0dhankhar/coachsync/internal/domain"
)

// ErrForbidden is returned when a principal may not perform an action.
var ErrForbidden = errors.New("access denied")

// Permission represents an action permission
type Permission string

const (
	PermViewState        Permission = "view_state"
	PermRecordProgress   Permission = "record_progress"
	PermManageAgreements Permission = "manage_agreements"
	PermSendEmail        Permission = "send_email"
	PermManageUsers      Permission = "manage_users"
	PermManageSettings   Permission = "manage_settings"
	PermAdminConsole     Permission = "admin_console"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[domain.Role][]Permission{
	domain.RoleAdmin: {
		PermAdminConsole,
	},
	domain.RoleManager: {
		PermViewState,
		PermRecordProgress,
		PermManageAgreements,
		PermSendEmail,
		PermManageUsers,
		PermManageSettings,
	},
	domain.RoleCoach: {
		PermViewState,
		PermRecordProgress,
		PermManageAgreements,
		PermSendEmail,
	},
	domain.RoleParticipant: {
		PermViewState,
		PermRecordProgress,
	},
}

// AuthorizationService handles authorization checks
type AuthorizationService struct {
	logger *slog.Logger
}

// NewAuthorizationService creates a new authorization service
func NewAuthorizationService(logger *slog.Logger) *AuthorizationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthorizationService{
		logger: logger,
	}
}

// HasPermission checks if a role has a specific permission
func (as *AuthorizationService) HasPermission(role domain.Role, permission Permission) bool {
	return slices.Contains(RolePermissions[role], permission)
}

// ValidatePermission validates that a role has a specific permission
func (as *AuthorizationService) ValidatePermission(p domain.Principal, permission Permission) error {
	if !as.HasPermission(p.Role, permission) {
		as.logger.Warn("permission denied",
			slog.String("user_id", p.ID),
			slog.String("role", string(p.Role)),
			slog.String("permission", string(permission)),
		)
		return fmt.Errorf("%w: %s role cannot %s", ErrForbidden, p.Role, permission)
	}
	return nil
}

// ValidateParticipantAccess checks that p may act on participantID's data.
// Managers reach every participant of their organization, coaches only the
// participants assigned to them, participants only themselves.
func (as *AuthorizationService) ValidateParticipantAccess(p domain.Principal, participantID string, assignments []domain.Assignment) error {
	switch p.Role {
	case domain.RoleManager:
		return nil
	case domain.RoleCoach:
		for _, a := range assignments {
			if a.CoachID == p.ID && a.ParticipantID == participantID {
				return nil
			}
		}
	case domain.RoleParticipant:
		if participantID == p.ID {
			return nil
		}
	case domain.RoleAdmin:
	}
	as.logger.Warn("participant access denied",
		slog.String("user_id", p.ID),
		slog.String("role", string(p.Role)),
		slog.String("participant_id", participantID),
	)
	return fmt.Errorf("%w: %s cannot act for participant %s", ErrForbidden, p.Role, participantID)
}

// ValidateTenantAccess checks if a principal belongs to a tenant
func (as *AuthorizationService) ValidateTenantAccess(p domain.Principal, requestedTenantID string) error {
	if p.OrganizationID == "" || p.OrganizationID != requestedTenantID {
		as.logger.Warn("tenant access denied",
			slog.String("user_tenant", p.OrganizationID),
			slog.String("requested_tenant", requestedTenantID),
		)
		return fmt.Errorf("%w: invalid tenant", ErrForbidden)
	}
	return nil
}
