package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/identity-service/internal/core/domain"
	"github.com/99minutos/identity-service/internal/core/ports"
	"github.com/99minutos/identity-service/internal/infrastructure/db/memory"
	"github.com/99minutos/identity-service/internal/infrastructure/security"
)

const testSecret = "service-test-secret-0123456789abcdef"

// countingHasher records how many times Verify ran.
type countingHasher struct {
	ports.PasswordHasher
	mu       sync.Mutex
	verifies int
}

func (h *countingHasher) Verify(plaintext, hash string) bool {
	h.mu.Lock()
	h.verifies++
	h.mu.Unlock()
	return h.PasswordHasher.Verify(plaintext, hash)
}

func (h *countingHasher) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.verifies
}

// recordingSink collects enqueued account events.
type recordingSink struct {
	mu     sync.Mutex
	events []ports.AccountEvent
}

func (s *recordingSink) Enqueue(e ports.AccountEvent) {
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
}

func (s *recordingSink) types() []ports.AccountEventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ports.AccountEventType, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	users  *memory.UserStore
	roles  *memory.RoleStore
	hasher *countingHasher
	codec  *security.JWTCodec
	issuer *TokenIssuer
	events *recordingSink
	auth   *AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:  memory.NewUserStore(),
		roles:  memory.NewRoleStore(),
		hasher: &countingHasher{PasswordHasher: security.NewBcryptHasher(bcrypt.MinCost)},
		codec:  security.NewJWTCodec(testSecret, security.WithIssuer("identity-test")),
		events: &recordingSink{},
	}
	f.issuer = NewTokenIssuer(f.codec, time.Hour, 2*time.Hour)

	if err := NewBootstrapper(f.users, f.roles, f.hasher, zerolog.Nop()).SeedRoles(context.Background()); err != nil {
		t.Fatalf("seed roles: %v", err)
	}

	f.auth = NewAuthService(AuthDeps{
		Users:     f.users,
		Roles:     f.roles,
		Hasher:    f.hasher,
		Codec:     f.codec,
		Authn:     NewAuthenticator(f.users, f.hasher, true),
		Issuer:    f.issuer,
		Refresher: NewTokenRefresher(f.codec, f.users, f.issuer, true),
		Events:    f.events,
	}, zerolog.Nop())
	return f
}

func (f *fixture) register(t *testing.T, username, email, password string) *domain.User {
	t.Helper()
	u, err := f.auth.Register(context.Background(), ports.RegisterInput{Username: username, Email: email, Password: password})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return u
}

// brokenStore fails every lookup with err.
type brokenStore struct {
	ports.UserRepository
	err error
}

func (b brokenStore) FindByUsernameOrEmail(context.Context, string) (*domain.User, error) {
	return nil, b.err
}

func (b brokenStore) FindByUsername(context.Context, string) (*domain.User, error) {
	return nil, b.err
}

// exactEmailStore matches emails byte for byte, the way the database stores do.
type exactEmailStore struct {
	ports.UserRepository
	seen []string
}

func (s *exactEmailStore) FindByUsernameOrEmail(ctx context.Context, login string) (*domain.User, error) {
	s.seen = append(s.seen, login)
	u, err := s.UserRepository.FindByUsernameOrEmail(ctx, login)
	if err != nil {
		return nil, err
	}
	if u.Username != login && u.Email != login {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}
