package domain

import "time"

// TokenKind distinguishes access tokens from refresh tokens.
type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

// TokenType is the HTTP authentication scheme tokens are presented with.
const TokenType = "Bearer"

// TokenClaims is the decoded, verified payload of a token.
type TokenClaims struct {
	ID        string
	Subject   string
	UserID    string
	Roles     []Role
	Kind      TokenKind
	Issuer    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenPair is what a successful login or refresh hands back to the client.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int64
}
