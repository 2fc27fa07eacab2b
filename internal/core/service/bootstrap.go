package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/identity-service/internal/core/domain"
	"github.com/99minutos/identity-service/internal/core/ports"
)

var roleDescriptions = map[domain.Role]string{
	domain.RoleUser:      "Default role for registered users",
	domain.RoleAdmin:     "Administrator with full access",
	domain.RoleModerator: "Moderator with user review access",
}

// AdminAccount describes the administrator created at startup.
type AdminAccount struct {
	Username string
	Email    string
	Password string
}

// Bootstrapper seeds the role catalogue and the initial administrator.
type Bootstrapper struct {
	users  ports.UserRepository
	roles  ports.RoleRepository
	hasher ports.PasswordHasher
	log    zerolog.Logger
}

func NewBootstrapper(users ports.UserRepository, roles ports.RoleRepository, hasher ports.PasswordHasher, log zerolog.Logger) *Bootstrapper {
	return &Bootstrapper{users: users, roles: roles, hasher: hasher, log: log}
}

// SeedRoles makes sure every known role exists. It is idempotent.
func (b *Bootstrapper) SeedRoles(ctx context.Context) error {
	for _, r := range domain.AllRoles {
		if err := b.roles.Ensure(ctx, domain.RoleRecord{Name: r, Description: roleDescriptions[r]}); err != nil {
			return fmt.Errorf("seed role %s: %w", r, err)
		}
	}
	return nil
}

// EnsureAdmin creates the administrator unless the username is already taken.
// It reports whether an account was created.
func (b *Bootstrapper) EnsureAdmin(ctx context.Context, admin AdminAccount) (bool, error) {
	if admin.Password == "" {
		return false, nil
	}

	_, err := b.users.FindByUsername(ctx, admin.Username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return false, fmt.Errorf("lookup admin: %w", err)
	}

	hash, err := b.hasher.Hash(admin.Password)
	if err != nil {
		return false, err
	}

	user, err := b.users.Save(ctx, &domain.User{
		Username:        admin.Username,
		Email:           strings.ToLower(strings.TrimSpace(admin.Email)),
		PasswordHash:    hash,
		FirstName:       "System",
		LastName:        "Administrator",
		IsActive:        true,
		IsEmailVerified: true,
		Roles:           []domain.Role{domain.RoleUser, domain.RoleAdmin},
		CreatedAt:       time.Now().UTC(),
	})
	if err != nil {
		return false, fmt.Errorf("create admin: %w", err)
	}

	b.log.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("admin account created")
	return true, nil
}
