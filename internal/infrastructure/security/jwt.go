package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/99minutos/identity-service/internal/core/domain"
)

// jwtClaims is the wire form of domain.TokenClaims.
type jwtClaims struct {
	jwt.RegisteredClaims
	UserID string   `json:"uid,omitempty"`
	Roles  []string `json:"roles,omitempty"`
	Kind   string   `json:"token_type"`
}

// JWTCodec signs and verifies HS256 tokens with a shared secret.
type JWTCodec struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// CodecOption customises a JWTCodec.
type CodecOption func(*JWTCodec)

// WithIssuer stamps and requires the iss claim.
func WithIssuer(issuer string) CodecOption {
	return func(c *JWTCodec) { c.issuer = issuer }
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) CodecOption {
	return func(c *JWTCodec) { c.now = now }
}

func NewJWTCodec(secret string, opts ...CodecOption) *JWTCodec {
	c := &JWTCodec{secret: []byte(secret), now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *JWTCodec) Encode(claims domain.TokenClaims, ttl time.Duration) (string, error) {
	if claims.Subject == "" {
		return "", fmt.Errorf("encode token: %w", domain.ErrTokenMalformed)
	}
	if claims.Kind == "" {
		claims.Kind = domain.TokenAccess
	}
	id := claims.ID
	if id == "" {
		id = uuid.NewString()
	}

	now := c.now()
	wire := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Subject:   claims.Subject,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: claims.UserID,
		Kind:   string(claims.Kind),
	}
	if len(claims.Roles) > 0 {
		wire.Roles = domain.RoleNames(claims.Roles)
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, wire).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (c *JWTCodec) Decode(token string, kind domain.TokenKind) (*domain.TokenClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithIssuedAt(),
		// jwt treats now == exp as expired. exp has whole-second precision, so
		// this only differs from "expired once now > exp" at that exact instant.
		jwt.WithExpirationRequired(),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}

	var wire jwtClaims
	_, err := jwt.ParseWithClaims(token, &wire, func(*jwt.Token) (any, error) {
		return c.secret, nil
	}, opts...)
	if err != nil {
		return nil, mapJWTError(err)
	}
	if wire.Subject == "" {
		return nil, domain.ErrTokenMalformed
	}
	if domain.TokenKind(wire.Kind) != kind {
		return nil, domain.ErrTokenKind
	}

	out := &domain.TokenClaims{
		ID:      wire.ID,
		Subject: wire.Subject,
		UserID:  wire.UserID,
		Kind:    domain.TokenKind(wire.Kind),
		Issuer:  wire.Issuer,
	}
	if wire.IssuedAt != nil {
		out.IssuedAt = wire.IssuedAt.Time
	}
	if wire.ExpiresAt != nil {
		out.ExpiresAt = wire.ExpiresAt.Time
	}
	for _, r := range wire.Roles {
		out.Roles = append(out.Roles, domain.Role(r))
	}
	return out, nil
}

// ExtractSubject returns the sub claim without checking the signature.
// Callers must not treat the result as authenticated.
func (c *JWTCodec) ExtractSubject(token string) (string, error) {
	var wire jwtClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &wire); err != nil {
		return "", domain.ErrTokenMalformed
	}
	if wire.Subject == "" {
		return "", domain.ErrTokenMalformed
	}
	return wire.Subject, nil
}

// mapJWTError folds the library's error tree into the domain taxonomy.
// The parser checks the signature before any claim, so a forged expired
// token reports a signature failure.
func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return domain.ErrTokenSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return domain.ErrTokenExpired
	default:
		return domain.ErrTokenMalformed
	}
}
