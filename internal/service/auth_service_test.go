package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aryan0dhankhar/coachsync/internal/domain"
	"github.com/aryan0dhankhar/coachsync/internal/repository"
	"github.com/aryan0dhankhar/coachsync/internal/schema"
	"github.com/aryan0dhankhar/coachsync/internal/security/auth"
	"github.com/aryan0dhankhar/coachsync/internal/store"
	"github.com/aryan0dhankhar/coachsync/internal/store/memstore"
)

func newRepos(t *testing.T) (*memstore.Store, *repository.Repositories) {
	t.Helper()
	mem := memstore.New()
	for _, tbl := range schema.All() {
		if err := mem.Exec(context.Background(), tbl.Statements(mem.Dialect())...); err != nil {
			t.Fatalf("provision %s: %v", tbl.Name, err)
		}
	}
	return mem, repository.New(mem, nil, nil)
}

func newAuthService(repos *repository.Repositories) (*AuthService, *auth.TokenManager) {
	tm := auth.NewTokenManager("secret", "", time.Hour)
	return NewAuthService(repos, tm, AdminCredentials{Username: "admin", Password: "admin123"}, nil), tm
}

func TestLoginFallbackAdmin(t *testing.T) {
	_, repos := newRepos(t)
	s, tm := newAuthService(repos)

	res, err := s.Login(context.Background(), "admin", "admin123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.Principal.Role != domain.RoleAdmin || res.Principal.OrganizationID != "" || res.Principal.ID != FallbackAdminID {
		t.Fatalf("unexpected principal: %+v", res.Principal)
	}
	claims, err := tm.ValidateToken(res.Token)
	if err != nil || claims.Role != "admin" || claims.TenantID != "" {
		t.Fatalf("token does not carry the admin role: %+v %v", claims, err)
	}
	if _, err := s.Login(context.Background(), "admin", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestLoginManager(t *testing.T) {
	ctx := context.Background()
	_, repos := newRepos(t)
	hash, _ := auth.HashPassword("Demo123!")
	orgs, err := repos.Organizations.Upsert(ctx, "", domain.Organization{Name: "Demo", ManagerName: "Mia Manager", ManagerEmail: "manager@demo.com", ManagerPassword: hash})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	s, _ := newAuthService(repos)

	res, err := s.Login(ctx, "manager@demo.com", "Demo123!")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	want := domain.Principal{ID: "manager-" + orgs[0].ID, Nickname: "manager@demo.com", Role: domain.RoleManager, OrganizationID: orgs[0].ID, DisplayName: "Mia Manager"}
	if res.Principal != want {
		t.Fatalf("got %+v, want %+v", res.Principal, want)
	}
}

func TestLoginNeverGrantsPlatformRoleFromUserRow(t *testing.T) {
	ctx := context.Background()
	mem, repos := newRepos(t)
	if err := mem.Insert(ctx, schema.Users.Name, []store.Row{{
		"id": "u9", "nickname": "evil", "password": "welkom", "role": "admin", "organization_id": "org-1",
	}}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	s, _ := newAuthService(repos)

	res, err := s.Login(ctx, "evil", "welkom")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.Principal.Role != domain.RoleParticipant {
		t.Fatalf("a users row must never log in as %q", res.Principal.Role)
	}
}

func TestLoginUserAndUpgradePlaintext(t *testing.T) {
	ctx := context.Background()
	mem, repos := newRepos(t)
	// A row written before hashing existed.
	if err := mem.Insert(ctx, schema.Users.Name, []store.Row{{
		"id": "u1", "nickname": "jan", "password": "welkom", "voornaam": "Jan", "achternaam": "Jansen",
		"role": "coach", "organization_id": "org-1",
	}}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	s, _ := newAuthService(repos)

	res, err := s.Login(ctx, "jan", "welkom")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.Principal.Role != domain.RoleCoach || res.Principal.OrganizationID != "org-1" || res.Principal.DisplayName != "Jan Jansen" {
		t.Fatalf("unexpected principal: %+v", res.Principal)
	}
	stored := mem.Rows(schema.Users.Name)[0].String("password")
	if !auth.IsHashed(stored) {
		t.Fatalf("plaintext password should be upgraded, got %q", stored)
	}
	if _, err := s.Login(ctx, "jan", "welkom"); err != nil {
		t.Fatalf("login after upgrade: %v", err)
	}
	if _, err := s.Login(ctx, "jan", "nope"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := s.Login(ctx, "nobody", "x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	_, repos := newRepos(t)
	users, err := repos.Users.Upsert(ctx, "org-1", domain.User{Nickname: "bob", Password: "OldPass123", Role: domain.RoleParticipant})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	s, _ := newAuthService(repos)
	p := domain.Principal{ID: users[0].ID, Role: domain.RoleParticipant, OrganizationID: "org-1"}

	if err := s.ChangePassword(ctx, p, "bad", "NewPass123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected wrong old password error, got %v", err)
	}
	var ve *ValidationError
	if err := s.ChangePassword(ctx, p, "OldPass123", "abc"); !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := s.ChangePassword(ctx, p, "OldPass123", "NewPass123"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}
	if _, err := s.Login(ctx, "bob", "OldPass123"); err == nil {
		t.Fatalf("expected old password to fail after change")
	}
	if _, err := s.Login(ctx, "bob", "NewPass123"); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
	if err := s.ChangePassword(ctx, domain.Principal{ID: FallbackAdminID, Role: domain.RoleAdmin}, "admin123", "whatever1"); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("admin password is configuration, got %v", err)
	}
}

func TestChangeManagerPassword(t *testing.T) {
	ctx := context.Background()
	_, repos := newRepos(t)
	hash, _ := auth.HashPassword("Demo123!")
	orgs, _ := repos.Organizations.Upsert(ctx, "", domain.Organization{Name: "Demo", ManagerEmail: "m@demo.com", ManagerPassword: hash})
	s, _ := newAuthService(repos)
	p := domain.Principal{ID: "manager-" + orgs[0].ID, Role: domain.RoleManager, OrganizationID: orgs[0].ID}

	if err := s.ChangePassword(ctx, p, "Demo123!", "Nieuw456!"); err != nil {
		t.Fatalf("change: %v", err)
	}
	if _, err := s.Login(ctx, "m@demo.com", "Nieuw456!"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}
