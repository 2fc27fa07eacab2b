package service

import (
	"context"

	"github.com/99minutos/identity-service/internal/core/domain"
	"github.com/99minutos/identity-service/internal/core/ports"
)

// TokenRefresher exchanges a refresh token for a new pair without a password.
// Refresh tokens stay usable until they expire.
type TokenRefresher struct {
	codec          ports.TokenCodec
	users          ports.UserRepository
	issuer         *TokenIssuer
	rejectInactive bool
}

func NewTokenRefresher(codec ports.TokenCodec, users ports.UserRepository, issuer *TokenIssuer, rejectInactive bool) *TokenRefresher {
	return &TokenRefresher{codec: codec, users: users, issuer: issuer, rejectInactive: rejectInactive}
}

// Refresh verifies token as a refresh token, reloads its subject and mints a
// new pair. A deleted subject yields domain.ErrUserNotFound.
func (r *TokenRefresher) Refresh(ctx context.Context, token string) (*domain.User, domain.TokenPair, error) {
	claims, err := r.codec.Decode(token, domain.TokenRefresh)
	if err != nil {
		return nil, domain.TokenPair{}, err
	}

	user, err := r.users.FindByUsername(ctx, claims.Subject)
	if err != nil {
		return nil, domain.TokenPair{}, err
	}
	if r.rejectInactive && !user.IsActive {
		return nil, domain.TokenPair{}, domain.ErrAccountDisabled
	}

	pair, err := r.issuer.Issue(user)
	if err != nil {
		return nil, domain.TokenPair{}, err
	}
	return user, pair, nil
}
