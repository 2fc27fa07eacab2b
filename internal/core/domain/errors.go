package domain

import (
	"errors"
	"fmt"
)

var ErrInvalidCredentials = errors.New("invalid username or password")
var ErrAccountDisabled = errors.New("account is disabled")
var ErrUserNotFound = errors.New("user not found")
var ErrRoleNotFound = errors.New("role not found")
var ErrForbidden = errors.New("access forbidden")
var ErrValidation = errors.New("validation failed")

// ErrUserExists is returned when a username or email collides with an existing account.
var ErrUserExists = errors.New("user already exists")

var (
	ErrUsernameTaken = fmt.Errorf("%w: username is already taken", ErrUserExists)
	ErrEmailTaken    = fmt.Errorf("%w: email is already in use", ErrUserExists)
)

// ErrInvalidToken is the parent of every token rejection except expiry.
var ErrInvalidToken = errors.New("invalid token")

var (
	ErrTokenMalformed = fmt.Errorf("%w: malformed", ErrInvalidToken)
	ErrTokenSignature = fmt.Errorf("%w: signature mismatch", ErrInvalidToken)
	ErrTokenKind      = fmt.Errorf("%w: wrong token type", ErrInvalidToken)
)

var ErrTokenExpired = errors.New("token expired")
