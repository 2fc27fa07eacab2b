package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/identity-service/internal/api/metrics"
	"github.com/99minutos/identity-service/internal/core/domain"
	"github.com/99minutos/identity-service/internal/core/ports"
)

// PrincipalKey is the echo.Context key the gate stores the principal under.
const PrincipalKey = "principal"

// GateState is the outcome of evaluating a request's credentials.
type GateState int

const (
	Unauthenticated GateState = iota
	Authenticated
	Rejected
)

func (s GateState) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Rejected:
		return "rejected"
	default:
		return "unauthenticated"
	}
}

// BearerToken extracts the token from an Authorization header value.
// ok is false when the header is empty; a non-bearer scheme yields ok with an empty token.
func BearerToken(header string) (token string, ok bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], domain.TokenType) {
		return "", true
	}
	return strings.TrimSpace(parts[1]), true
}

// Evaluate runs the gate over an Authorization header value. A missing header
// leaves the request Unauthenticated; anything that fails verification is Rejected.
func Evaluate(codec ports.TokenCodec, header string) (GateState, *domain.Principal, error) {
	token, present := BearerToken(header)
	if !present {
		return Unauthenticated, nil, nil
	}
	if token == "" {
		return Rejected, nil, domain.ErrTokenMalformed
	}

	claims, err := codec.Decode(token, domain.TokenAccess)
	if err != nil {
		return Rejected, nil, err
	}

	return Authenticated, &domain.Principal{
		UserID:   claims.UserID,
		Username: claims.Subject,
		Roles:    claims.Roles,
		TokenID:  claims.ID,
	}, nil
}

// Auth guards a route group: only Authenticated requests reach next, with the
// principal bound to the request context.
func Auth(codec ports.TokenCodec) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			state, principal, err := Evaluate(codec, c.Request().Header.Get(echo.HeaderAuthorization))
			switch state {
			case Unauthenticated:
				metrics.GateRejectionsTotal.WithLabelValues("missing_token").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			case Rejected:
				if errors.Is(err, domain.ErrTokenExpired) {
					metrics.GateRejectionsTotal.WithLabelValues("expired_token").Inc()
					return echo.NewHTTPError(http.StatusUnauthorized, "token expired").SetInternal(err)
				}
				metrics.GateRejectionsTotal.WithLabelValues("invalid_token").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token").SetInternal(err)
			}

			req := c.Request()
			c.SetRequest(req.WithContext(domain.WithPrincipal(req.Context(), *principal)))
			c.Set(PrincipalKey, *principal)
			return next(c)
		}
	}
}
