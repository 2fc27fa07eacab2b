package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/identity-service/internal/core/domain"
	"github.com/99minutos/identity-service/internal/infrastructure/security"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func signToken(t *testing.T, codec *security.JWTCodec, kind domain.TokenKind, ttl time.Duration) string {
	t.Helper()
	token, err := codec.Encode(domain.TokenClaims{
		Subject: "alice",
		UserID:  "u-1",
		Roles:   []domain.Role{domain.RoleUser},
		Kind:    kind,
	}, ttl)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func runAuth(t *testing.T, codec *security.JWTCodec, header string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Auth(codec)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, called
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	codec := security.NewJWTCodec(testSecret)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, codec, domain.TokenAccess, time.Hour))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Auth(codec)(func(c echo.Context) error {
		called = true
		p, ok := domain.PrincipalFrom(c.Request().Context())
		if !ok {
			t.Fatalf("principal not bound to request context")
		}
		if p.Username != "alice" || p.UserID != "u-1" {
			t.Fatalf("unexpected principal: %+v", p)
		}
		if len(p.Roles) != 1 || p.Roles[0] != domain.RoleUser {
			t.Fatalf("unexpected roles: %v", p.Roles)
		}
		if _, ok := c.Get(PrincipalKey).(domain.Principal); !ok {
			t.Fatalf("principal not set on echo context")
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	rec, called := runAuth(t, security.NewJWTCodec(testSecret), "")
	if called {
		t.Fatalf("should not reach next")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_InvalidHeaderFormat(t *testing.T) {
	rec, called := runAuth(t, security.NewJWTCodec(testSecret), "Token abc")
	if called {
		t.Fatalf("should not reach next")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	rec, called := runAuth(t, security.NewJWTCodec(testSecret), "Bearer not-a-token")
	if called {
		t.Fatalf("should not reach next")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_WrongSecret(t *testing.T) {
	token := signToken(t, security.NewJWTCodec("another-secret-another-secret-xx"), domain.TokenAccess, time.Hour)
	rec, called := runAuth(t, security.NewJWTCodec(testSecret), "Bearer "+token)
	if called || rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without reaching next, got %d (called=%v)", rec.Code, called)
	}
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	issuedAt := time.Unix(1_700_000_000, 0)
	signer := security.NewJWTCodec(testSecret, security.WithClock(func() time.Time { return issuedAt }))
	token := signToken(t, signer, domain.TokenAccess, time.Minute)

	verifier := security.NewJWTCodec(testSecret, security.WithClock(func() time.Time { return issuedAt.Add(2 * time.Minute) }))
	rec, called := runAuth(t, verifier, "Bearer "+token)
	if called {
		t.Fatalf("should not reach next")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_RefreshTokenRejected(t *testing.T) {
	codec := security.NewJWTCodec(testSecret)
	rec, called := runAuth(t, codec, "Bearer "+signToken(t, codec, domain.TokenRefresh, time.Hour))
	if called || rec.Code != http.StatusUnauthorized {
		t.Fatalf("refresh token must not pass the gate, got %d (called=%v)", rec.Code, called)
	}
}

func TestEvaluate_States(t *testing.T) {
	codec := security.NewJWTCodec(testSecret)

	if state, _, _ := Evaluate(codec, ""); state != Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %s", state)
	}
	if state, _, err := Evaluate(codec, "Basic dXNlcjpwYXNz"); state != Rejected || err == nil {
		t.Fatalf("expected Rejected for non-bearer scheme, got %s %v", state, err)
	}
	state, p, err := Evaluate(codec, "bearer "+signToken(t, codec, domain.TokenAccess, time.Hour))
	if state != Authenticated || err != nil || p == nil || p.Username != "alice" {
		t.Fatalf("expected Authenticated, got %s %v %+v", state, err, p)
	}
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header  string
		token   string
		present bool
	}{
		{"", "", false},
		{"Bearer abc", "abc", true},
		{"bearer  abc ", "abc", true},
		{"Token abc", "", true},
		{"Bearer", "", true},
	}
	for _, tc := range cases {
		token, present := BearerToken(tc.header)
		if token != tc.token || present != tc.present {
			t.Fatalf("BearerToken(%q) = %q, %v; want %q, %v", tc.header, token, present, tc.token, tc.present)
		}
	}
}
