package service

import (
	"fmt"
	"time"

	"github.com/99minutos/identity-service/internal/core/domain"
	"github.com/99minutos/identity-service/internal/core/ports"
)

const (
	defaultAccessTTL  = 24 * time.Hour
	defaultRefreshTTL = 7 * 24 * time.Hour
)

// TokenIssuer mints access/refresh pairs for an authenticated user.
type TokenIssuer struct {
	codec      ports.TokenCodec
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenIssuer(codec ports.TokenCodec, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}
	return &TokenIssuer{codec: codec, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// AccessTTL is the lifetime reported to clients as expiresIn.
func (i *TokenIssuer) AccessTTL() time.Duration { return i.accessTTL }

// Issue signs an access token carrying the user's roles and a refresh token
// carrying only the subject; roles are re-read from the store on refresh.
func (i *TokenIssuer) Issue(user *domain.User) (domain.TokenPair, error) {
	access, err := i.codec.Encode(domain.TokenClaims{
		Subject: user.Username,
		UserID:  user.ID,
		Roles:   user.Roles,
		Kind:    domain.TokenAccess,
	}, i.accessTTL)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}

	refresh, err := i.codec.Encode(domain.TokenClaims{
		Subject: user.Username,
		Kind:    domain.TokenRefresh,
	}, i.refreshTTL)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}

	return domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    domain.TokenType,
		ExpiresIn:    int64(i.accessTTL / time.Second),
	}, nil
}
