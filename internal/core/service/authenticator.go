package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/99minutos/identity-service/internal/core/domain"
	"github.com/99minutos/identity-service/internal/core/ports"
)

// dummyPassword is hashed once so that unknown logins pay the same bcrypt cost
// as a wrong password.
const dummyPassword = "identity-service/timing-equaliser"

// Authenticator verifies a login/password pair against the user store.
type Authenticator struct {
	users          ports.UserRepository
	hasher         ports.PasswordHasher
	rejectInactive bool

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthenticator returns an Authenticator. When rejectInactive is set,
// deactivated accounts fail with domain.ErrAccountDisabled once their password
// has been verified.
func NewAuthenticator(users ports.UserRepository, hasher ports.PasswordHasher, rejectInactive bool) *Authenticator {
	return &Authenticator{users: users, hasher: hasher, rejectInactive: rejectInactive}
}

// Authenticate resolves login as a username or an email and checks password.
// Unknown logins and wrong passwords both yield domain.ErrInvalidCredentials.
func (a *Authenticator) Authenticate(ctx context.Context, login, password string) (*domain.User, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}
	// Emails are stored lower-cased; usernames never contain '@'.
	if strings.Contains(login, "@") {
		login = strings.ToLower(login)
	}

	user, err := a.users.FindByUsernameOrEmail(ctx, login)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			a.hasher.Verify(password, a.dummy())
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	if !a.hasher.Verify(password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	if a.rejectInactive && !user.IsActive {
		return nil, domain.ErrAccountDisabled
	}
	return user, nil
}

func (a *Authenticator) dummy() string {
	a.dummyOnce.Do(func() {
		a.dummyHash, _ = a.hasher.Hash(dummyPassword)
	})
	return a.dummyHash
}
