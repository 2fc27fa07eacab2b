package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/identity-service/internal/api/handler"
	"github.com/99minutos/identity-service/internal/core/service"
	"github.com/99minutos/identity-service/internal/infrastructure/db/memory"
	"github.com/99minutos/identity-service/internal/infrastructure/security"
)

const testSecret = "router-test-secret-0123456789abcdef"

func newTestRouter(t *testing.T) *echo.Echo {
	t.Helper()
	log := zerolog.Nop()
	ctx := context.Background()

	users := memory.NewUserStore()
	roles := memory.NewRoleStore()
	hasher := security.NewBcryptHasher(bcrypt.MinCost)
	codec := security.NewJWTCodec(testSecret, security.WithIssuer("identity-test"))

	boot := service.NewBootstrapper(users, roles, hasher, log)
	if err := boot.SeedRoles(ctx); err != nil {
		t.Fatalf("seed roles: %v", err)
	}
	if _, err := boot.EnsureAdmin(ctx, service.AdminAccount{Username: "admin", Email: "admin@localhost", Password: "admin-pass"}); err != nil {
		t.Fatalf("ensure admin: %v", err)
	}

	issuer := service.NewTokenIssuer(codec, time.Hour, 2*time.Hour)
	authSvc := service.NewAuthService(service.AuthDeps{
		Users:     users,
		Roles:     roles,
		Hasher:    hasher,
		Codec:     codec,
		Authn:     service.NewAuthenticator(users, hasher, true),
		Issuer:    issuer,
		Refresher: service.NewTokenRefresher(codec, users, issuer, true),
	}, log)

	return NewRouter(RouterDeps{
		Log:      log,
		Auth:     authSvc,
		Users:    service.NewUserService(users, hasher, log),
		Codec:    codec,
		Checks:   map[string]handler.Checker{"store": users.Ping},
		Registry: prometheus.NewRegistry(),
	})
}

func do(t *testing.T, e *echo.Echo, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	return out
}

func login(t *testing.T, e *echo.Echo, username, password string) map[string]any {
	t.Helper()
	rec := do(t, e, http.MethodPost, "/auth/login", `{"username":"`+username+`","password":"`+password+`"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d: %s", username, rec.Code, rec.Body.String())
	}
	return decode(t, rec)
}

func TestRouter_RegisterLoginAndGate(t *testing.T) {
	e := newTestRouter(t)

	rec := do(t, e, http.MethodPost, "/auth/register", `{"username":"alice","email":"Alice@X.com","password":"p@ss1234"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	user := decode(t, rec)
	if user["isActive"] != true || user["isEmailVerified"] != false || user["email"] != "alice@x.com" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if roles, _ := user["roles"].([]any); len(roles) != 1 || roles[0] != "ROLE_USER" {
		t.Fatalf("unexpected roles: %v", user["roles"])
	}

	rec = do(t, e, http.MethodPost, "/auth/register", `{"username":"alice","email":"other@x.com","password":"p@ss1234"}`, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate: expected 409, got %d", rec.Code)
	}
	if msg := decode(t, rec)["error"]; msg != "username is already taken" {
		t.Fatalf("unexpected duplicate message: %v", msg)
	}

	tokens := login(t, e, "alice", "p@ss1234")
	if tokens["expiresIn"] != float64(3600) || tokens["type"] != "Bearer" {
		t.Fatalf("unexpected token response: %+v", tokens)
	}
	access := tokens["token"].(string)
	refresh := tokens["refreshToken"].(string)

	rec = do(t, e, http.MethodPost, "/auth/login", `{"username":"alice","password":"wrong"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad password: expected 401, got %d", rec.Code)
	}
	badPassword := decode(t, rec)["error"]
	rec = do(t, e, http.MethodPost, "/auth/login", `{"username":"nobody","password":"wrong"}`, "")
	if rec.Code != http.StatusUnauthorized || decode(t, rec)["error"] != badPassword {
		t.Fatalf("unknown user must look like a bad password: %d", rec.Code)
	}

	if rec := do(t, e, http.MethodGet, "/v1/users/me", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: expected 401, got %d", rec.Code)
	}

	rec = do(t, e, http.MethodGet, "/v1/users/me", "", access)
	if rec.Code != http.StatusOK || decode(t, rec)["username"] != "alice" {
		t.Fatalf("me: expected alice, got %d %s", rec.Code, rec.Body.String())
	}

	if rec := do(t, e, http.MethodGet, "/v1/users", "", access); rec.Code != http.StatusForbidden {
		t.Fatalf("user on admin route: expected 403, got %d", rec.Code)
	}
	if rec := do(t, e, http.MethodGet, "/v1/moderation/users", "", access); rec.Code != http.StatusForbidden {
		t.Fatalf("user on moderation route: expected 403, got %d", rec.Code)
	}

	if rec := do(t, e, http.MethodGet, "/v1/users/me", "", refresh); rec.Code != http.StatusUnauthorized {
		t.Fatalf("refresh token as access: expected 401, got %d", rec.Code)
	}

	rec = do(t, e, http.MethodPost, "/auth/refresh", "", refresh)
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if decode(t, rec)["username"] != "alice" {
		t.Fatalf("refresh returned wrong user")
	}

	if rec := do(t, e, http.MethodPost, "/auth/refresh", "", access); rec.Code != http.StatusUnauthorized {
		t.Fatalf("access token as refresh: expected 401, got %d", rec.Code)
	}

	if rec := do(t, e, http.MethodPost, "/auth/logout", "", access); rec.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", rec.Code)
	}
}

func TestRouter_AdminManagesAccounts(t *testing.T) {
	e := newTestRouter(t)

	if rec := do(t, e, http.MethodPost, "/auth/register", `{"username":"bob","email":"bob@x.com","password":"secret1"}`, ""); rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", rec.Code)
	}
	bob := login(t, e, "bob", "secret1")
	admin := login(t, e, "admin", "admin-pass")
	adminToken := admin["token"].(string)

	rec := do(t, e, http.MethodGet, "/v1/users?page=1&size=10", "", adminToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	if total := decode(t, rec)["total"]; total != float64(2) {
		t.Fatalf("expected 2 users, got %v", total)
	}

	if rec := do(t, e, http.MethodGet, "/v1/moderation/users", "", adminToken); rec.Code != http.StatusOK {
		t.Fatalf("admin on moderation route: expected 200, got %d", rec.Code)
	}

	bobID := bob["id"].(string)
	rec = do(t, e, http.MethodPatch, "/v1/users/"+bobID+"/deactivate", "", adminToken)
	if rec.Code != http.StatusOK || decode(t, rec)["isActive"] != false {
		t.Fatalf("deactivate: got %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, e, http.MethodPost, "/auth/login", `{"username":"bob","password":"secret1"}`, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("inactive login: expected 403, got %d", rec.Code)
	}
	if rec := do(t, e, http.MethodPost, "/auth/refresh", "", bob["refreshToken"].(string)); rec.Code != http.StatusForbidden {
		t.Fatalf("inactive refresh: expected 403, got %d", rec.Code)
	}

	if rec := do(t, e, http.MethodDelete, "/v1/users/"+bobID, "", adminToken); rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rec.Code)
	}
	if rec := do(t, e, http.MethodGet, "/v1/users/"+bobID, "", adminToken); rec.Code != http.StatusNotFound {
		t.Fatalf("get deleted: expected 404, got %d", rec.Code)
	}
	if rec := do(t, e, http.MethodPost, "/auth/refresh", "", bob["refreshToken"].(string)); rec.Code != http.StatusUnauthorized {
		t.Fatalf("refresh for deleted user: expected 401, got %d", rec.Code)
	}
}

func TestRouter_PublicEndpoints(t *testing.T) {
	e := newTestRouter(t)

	if rec := do(t, e, http.MethodGet, "/health", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", rec.Code)
	}
	rec := do(t, e, http.MethodGet, "/health/ready", "", "")
	if rec.Code != http.StatusOK || decode(t, rec)["status"] != "ok" {
		t.Fatalf("ready: got %d %s", rec.Code, rec.Body.String())
	}

	do(t, e, http.MethodGet, "/health", "", "")
	rec = do(t, e, http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "identity_http_requests_total") {
		t.Fatalf("metrics: expected http counters, got %d", rec.Code)
	}
}

func TestRouter_AdminUpdatesAccount(t *testing.T) {
	e := newTestRouter(t)

	for _, body := range []string{
		`{"username":"bob","email":"bob@x.com","password":"secret1"}`,
		`{"username":"carol","email":"carol@x.com","password":"secret1"}`,
	} {
		if rec := do(t, e, http.MethodPost, "/auth/register", body, ""); rec.Code != http.StatusCreated {
			t.Fatalf("register: expected 201, got %d", rec.Code)
		}
	}
	bob := login(t, e, "bob", "secret1")
	bobID := bob["id"].(string)
	adminToken := login(t, e, "admin", "admin-pass")["token"].(string)

	if rec := do(t, e, http.MethodPut, "/v1/users/"+bobID, `{"username":"bobby","email":"bob@x.com"}`, bob["token"].(string)); rec.Code != http.StatusForbidden {
		t.Fatalf("user updating account: expected 403, got %d", rec.Code)
	}

	rec := do(t, e, http.MethodPut, "/v1/users/"+bobID, `{"username":"carol","email":"bob@x.com"}`, adminToken)
	if rec.Code != http.StatusConflict || decode(t, rec)["error"] != "username is already taken" {
		t.Fatalf("duplicate username: got %d %s", rec.Code, rec.Body.String())
	}
	rec = do(t, e, http.MethodPut, "/v1/users/"+bobID, `{"username":"bob","email":"Carol@x.com"}`, adminToken)
	if rec.Code != http.StatusConflict || decode(t, rec)["error"] != "email is already in use" {
		t.Fatalf("duplicate email: got %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, e, http.MethodPut, "/v1/users/"+bobID, `{"username":"b","email":"bob@x.com"}`, adminToken); rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid payload: expected 400, got %d", rec.Code)
	}

	rec = do(t, e, http.MethodPut, "/v1/users/"+bobID, `{"username":"bobby","email":"bobby@x.com","password":"n3w-secret","firstName":"Bob"}`, adminToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d %s", rec.Code, rec.Body.String())
	}
	if got := decode(t, rec); got["username"] != "bobby" || got["firstName"] != "Bob" {
		t.Fatalf("unexpected user: %+v", got)
	}
	login(t, e, "bobby", "n3w-secret")
	login(t, e, "BOBBY@x.com", "n3w-secret")

	if rec := do(t, e, http.MethodPut, "/v1/users/missing", `{"username":"ghost","email":"ghost@x.com"}`, adminToken); rec.Code != http.StatusNotFound {
		t.Fatalf("missing user: expected 404, got %d", rec.Code)
	}
}
