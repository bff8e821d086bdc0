package domain

// Role is the kind of principal acting on the platform.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleManager     Role = "manager"
	RoleCoach       Role = "coach"
	RoleParticipant Role = "participant"
)

// ParseRole maps token role text to a Role, defaulting to participant.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAdmin, RoleManager, RoleCoach, RoleParticipant:
		return Role(s)
	default:
		return RoleParticipant
	}
}

// UserRole maps the role of an organization user. Users only ever coach or
// participate; admin and manager accounts live outside the users table.
func UserRole(s string) Role {
	if Role(s) == RoleCoach {
		return RoleCoach
	}
	return RoleParticipant
}

// Principal is an authenticated actor. OrganizationID is empty for the
// platform admin.
type Principal struct {
	ID             string `json:"id"`
	Nickname       string `json:"nickname"`
	Role           Role   `json:"role"`
	OrganizationID string `json:"organizationId,omitempty"`
	DisplayName    string `json:"displayName,omitempty"`
}

// Key identifies the principal for caching purposes.
func (p Principal) Key() string {
	return string(p.Role) + ":" + p.ID
}
