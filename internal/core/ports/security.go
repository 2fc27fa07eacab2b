package ports

import (
	"time"

	"github.com/99minutos/identity-service/internal/core/domain"
)

// PasswordHasher performs one-way salted hashing of secrets.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	// Verify reports whether plaintext matches hash. Any malformed hash yields false.
	Verify(plaintext, hash string) bool
}

// TokenCodec signs and verifies bearer tokens.
type TokenCodec interface {
	// Encode signs claims; IssuedAt, ExpiresAt and ID are filled in by the codec.
	Encode(claims domain.TokenClaims, ttl time.Duration) (string, error)
	// Decode verifies signature, expiry and kind and returns the claims.
	Decode(token string, kind domain.TokenKind) (*domain.TokenClaims, error)
	// ExtractSubject reads the subject WITHOUT verifying the token.
	ExtractSubject(token string) (string, error)
}
