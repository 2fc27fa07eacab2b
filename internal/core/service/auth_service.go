package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/identity-service/internal/core/domain"
	"github.com/99minutos/identity-service/internal/core/ports"
)

// AuthService implements registration, login, refresh and logout.
type AuthService struct {
	users     ports.UserRepository
	roles     ports.RoleRepository
	hasher    ports.PasswordHasher
	authn     *Authenticator
	issuer    *TokenIssuer
	refresher *TokenRefresher
	codec     ports.TokenCodec
	events    ports.EventSink
	now       func() time.Time
	log       zerolog.Logger
}

// AuthDeps groups the collaborators of AuthService.
type AuthDeps struct {
	Users     ports.UserRepository
	Roles     ports.RoleRepository
	Hasher    ports.PasswordHasher
	Codec     ports.TokenCodec
	Authn     *Authenticator
	Issuer    *TokenIssuer
	Refresher *TokenRefresher
	// Events is optional; nil discards account events.
	Events ports.EventSink
}

func NewAuthService(deps AuthDeps, log zerolog.Logger) *AuthService {
	events := deps.Events
	if events == nil {
		events = discardSink{}
	}
	return &AuthService{
		users:     deps.Users,
		roles:     deps.Roles,
		hasher:    deps.Hasher,
		authn:     deps.Authn,
		issuer:    deps.Issuer,
		refresher: deps.Refresher,
		codec:     deps.Codec,
		events:    events,
		now:       time.Now,
		log:       log,
	}
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: username, email and password are required", domain.ErrValidation)
	}

	taken, err := s.users.ExistsByUsername(ctx, in.Username)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if taken {
		return nil, domain.ErrUsernameTaken
	}
	taken, err = s.users.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if taken {
		return nil, domain.ErrEmailTaken
	}

	role, err := s.roles.FindByName(ctx, domain.RoleUser)
	if err != nil {
		return nil, fmt.Errorf("register: default role: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Save(ctx, &domain.User{
		Username:        in.Username,
		Email:           in.Email,
		PasswordHash:    hash,
		FirstName:       in.FirstName,
		LastName:        in.LastName,
		IsActive:        true,
		IsEmailVerified: false,
		Roles:           []domain.Role{role.Name},
		CreatedAt:       s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("user registered")
	s.emit(ports.EventUserRegistered, user)
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, login, password string) (*ports.LoginResult, error) {
	user, err := s.authn.Authenticate(ctx, login, password)
	if err != nil {
		return nil, err
	}

	pair, err := s.issuer.Issue(user)
	if err != nil {
		return nil, err
	}

	// last-login is bookkeeping; a failed write must not fail the login.
	now := s.now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to update last login")
	} else {
		user.LastLogin = &now
	}

	s.emit(ports.EventUserLoggedIn, user)
	return &ports.LoginResult{Tokens: pair, User: user}, nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*ports.LoginResult, error) {
	user, pair, err := s.refresher.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	return &ports.LoginResult{Tokens: pair, User: user}, nil
}

// Logout is stateless: tokens stay valid until they expire and the client is
// expected to discard them.
func (s *AuthService) Logout(_ context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	claims, err := s.codec.Decode(accessToken, domain.TokenAccess)
	if err != nil {
		s.log.Debug().Err(err).Msg("logout with unverifiable token")
		return nil
	}
	s.log.Info().Str("username", claims.Subject).Msg("user logged out")
	return nil
}

func (s *AuthService) emit(t ports.AccountEventType, user *domain.User) {
	s.events.Enqueue(ports.AccountEvent{
		Type:       t,
		UserID:     user.ID,
		Username:   user.Username,
		OccurredAt: s.now().UTC(),
	})
}

type discardSink struct{}

func (discardSink) Enqueue(ports.AccountEvent) {}
