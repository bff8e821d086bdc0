package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/coachsync/internal/domain"
	"github.com/aryan0dhankhar/coachsync/internal/repository"
	"github.com/aryan0dhankhar/coachsync/internal/security/auth"
)

// FallbackAdminID identifies the configured platform admin.
const FallbackAdminID = "admin-fallback-001"

const minPasswordLength = 6

// AdminCredentials is the fallback platform admin account.
type AdminCredentials struct {
	Username string
	Password string
}

// AuthService handles authentication operations
type AuthService struct {
	repos  *repository.Repositories
	tokens *auth.TokenManager
	admin  AdminCredentials
	logger *slog.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	repos *repository.Repositories,
	tokens *auth.TokenManager,
	admin AdminCredentials,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthService{
		repos:  repos,
		tokens: tokens,
		admin:  admin,
		logger: logger.With(slog.String("component", "auth")),
	}
}

// LoginResult represents login response
type LoginResult struct {
	Token     string           `json:"token"`
	TokenType string           `json:"tokenType"`
	ExpiresAt time.Time        `json:"expiresAt"`
	Principal domain.Principal `json:"principal"`
}

// Login checks, in order, the fallback admin, organization managers and
// organization users.
func (s *AuthService) Login(ctx context.Context, nickname, password string) (*LoginResult, error) {
	if nickname == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	p, err := s.authenticate(ctx, nickname, password)
	if err != nil {
		return nil, err
	}

	token, expires, err := s.tokens.GenerateToken(p)
	if err != nil {
		s.logger.Error("failed to sign token", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.logger.Info("user logged in",
		slog.String("user_id", p.ID),
		slog.String("role", string(p.Role)),
		slog.String("tenant_id", p.OrganizationID),
	)
	return &LoginResult{Token: token, TokenType: "Bearer", ExpiresAt: expires, Principal: p}, nil
}

func (s *AuthService) authenticate(ctx context.Context, nickname, password string) (domain.Principal, error) {
	if s.admin.Username != "" &&
		subtle.ConstantTimeCompare([]byte(nickname), []byte(s.admin.Username)) == 1 &&
		subtle.ConstantTimeCompare([]byte(password), []byte(s.admin.Password)) == 1 {
		return domain.Principal{
			ID:          FallbackAdminID,
			Nickname:    s.admin.Username,
			Role:        domain.RoleAdmin,
			DisplayName: "Administrator System",
		}, nil
	}

	org, err := s.repos.Organizations.FindByManagerEmail(ctx, nickname)
	if err != nil {
		s.logger.Warn("manager lookup failed", slog.String("error", err.Error()))
	}
	if org != nil && s.matches(org.ManagerPassword, password) {
		return domain.Principal{
			ID:             "manager-" + org.ID,
			Nickname:       org.ManagerEmail,
			Role:           domain.RoleManager,
			OrganizationID: org.ID,
			DisplayName:    org.ManagerName,
		}, nil
	}

	user, err := s.repos.Users.FindByNickname(ctx, nickname)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil || !s.matches(user.Password, password) {
		s.logger.Info("login failed", slog.String("nickname", nickname))
		return domain.Principal{}, ErrInvalidCredentials
	}
	if !auth.IsHashed(user.Password) {
		s.upgrade(ctx, *user, password)
	}
	return domain.Principal{
		ID:             user.ID,
		Nickname:       user.Nickname,
		Role:           domain.UserRole(string(user.Role)),
		OrganizationID: user.OrganizationID,
		DisplayName:    user.FullName(),
	}, nil
}

// matches accepts a bcrypt hash, or a plaintext password stored before
// hashing was introduced.
func (s *AuthService) matches(stored, password string) bool {
	if stored == "" {
		return false
	}
	if auth.IsHashed(stored) {
		return auth.CheckPassword(stored, password) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1
}

// upgrade replaces a plaintext password with its hash. Failure only costs
// another upgrade attempt on the next login.
func (s *AuthService) upgrade(ctx context.Context, user domain.User, password string) {
	user.Password = password
	if _, err := s.repos.Users.Upsert(ctx, user.OrganizationID, user); err != nil {
		s.logger.Warn("failed to upgrade plaintext password",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}
}

// ChangePassword changes the password of a user or an organization manager.
func (s *AuthService) ChangePassword(ctx context.Context, p domain.Principal, oldPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return &ValidationError{Problems: []string{fmt.Sprintf("new password must be at least %d characters", minPasswordLength)}}
	}

	switch p.Role {
	case domain.RoleManager:
		org, err := s.repos.Organizations.FindByID(ctx, p.OrganizationID)
		if err != nil {
			return err
		}
		if org == nil {
			return ErrNotFound
		}
		if !s.matches(org.ManagerPassword, oldPassword) {
			return ErrInvalidCredentials
		}
		hash, err := auth.HashPassword(newPassword)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		org.ManagerPassword = hash
		org.UpdatedAt = time.Now().UTC()
		if _, err := s.repos.Organizations.Upsert(ctx, "", *org); err != nil {
			return err
		}
	case domain.RoleCoach, domain.RoleParticipant:
		user, err := s.repos.Users.FindByID(ctx, p.OrganizationID, p.ID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrNotFound
		}
		if !s.matches(user.Password, oldPassword) {
			return ErrInvalidCredentials
		}
		user.Password = newPassword
		if _, err := s.repos.Users.Upsert(ctx, p.OrganizationID, *user); err != nil {
			return err
		}
	case domain.RoleAdmin:
		return ErrUnsupported
	default:
		return ErrUnsupported
	}

	s.logger.Info("password changed", slog.String("user_id", p.ID))
	return nil
}

// IsAuthError reports whether err should be answered with 401.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrInvalidCredentials)
}
