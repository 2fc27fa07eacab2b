package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/99minutos/identity-service/internal/core/domain"
)

func TestTokenIssuer_Defaults(t *testing.T) {
	f := newFixture(t)
	issuer := NewTokenIssuer(f.codec, 0, -time.Second)

	if issuer.AccessTTL() != 24*time.Hour {
		t.Fatalf("expected 24h default access ttl, got %s", issuer.AccessTTL())
	}
	pair, err := issuer.Issue(&domain.User{ID: "u-1", Username: "alice", Roles: []domain.Role{domain.RoleUser}})
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if pair.ExpiresIn != 86400 {
		t.Fatalf("expected expiresIn 86400, got %d", pair.ExpiresIn)
	}

	refresh, err := f.codec.Decode(pair.RefreshToken, domain.TokenRefresh)
	if err != nil {
		t.Fatalf("refresh token: %v", err)
	}
	if got := refresh.ExpiresAt.Sub(refresh.IssuedAt); got != 7*24*time.Hour {
		t.Fatalf("expected 168h refresh lifetime, got %s", got)
	}
	if len(refresh.Roles) != 0 || refresh.UserID != "" {
		t.Fatalf("refresh token should only carry the subject: %+v", refresh)
	}
}

func TestTokenIssuer_RequiresSubject(t *testing.T) {
	f := newFixture(t)
	if _, err := f.issuer.Issue(&domain.User{ID: "u-1"}); err == nil {
		t.Fatalf("expected error for user without username")
	}
}

func TestTokenRefresher_PicksUpRoleChanges(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "alice", "alice@example.com", "p@ss1234")
	pair, err := f.issuer.Issue(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	user.Roles = append(user.Roles, domain.RoleModerator)
	if err := f.users.Update(context.Background(), user); err != nil {
		t.Fatalf("update: %v", err)
	}

	refresher := NewTokenRefresher(f.codec, f.users, f.issuer, true)
	got, next, err := refresher.Refresh(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("unexpected user %q", got.ID)
	}

	claims, err := f.codec.Decode(next.AccessToken, domain.TokenAccess)
	if err != nil {
		t.Fatalf("new access token: %v", err)
	}
	if !domain.Permits([]domain.Role{domain.RoleModerator}, claims.Roles) {
		t.Fatalf("expected refreshed token to carry the new role, got %v", claims.Roles)
	}

	// the old refresh token stays usable until it expires
	if _, _, err := refresher.Refresh(context.Background(), pair.RefreshToken); err != nil {
		t.Fatalf("second refresh returned error: %v", err)
	}
}

func TestTokenRefresher_Failures(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "alice", "alice@example.com", "p@ss1234")
	pair, _ := f.issuer.Issue(user)
	refresher := NewTokenRefresher(f.codec, f.users, f.issuer, true)

	if _, _, err := refresher.Refresh(context.Background(), pair.AccessToken); !errors.Is(err, domain.ErrTokenKind) {
		t.Fatalf("expected ErrTokenKind, got %v", err)
	}

	user.IsActive = false
	_ = f.users.Update(context.Background(), user)
	if _, _, err := refresher.Refresh(context.Background(), pair.RefreshToken); !errors.Is(err, domain.ErrAccountDisabled) {
		t.Fatalf("expected ErrAccountDisabled, got %v", err)
	}

	_ = f.users.Delete(context.Background(), user.ID)
	if _, _, err := refresher.Refresh(context.Background(), pair.RefreshToken); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
