package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/auth-service/internal/api/http/handlers"
	"github.com/spec-kit/auth-service/internal/auth"
	"github.com/spec-kit/auth-service/internal/config"
	"github.com/spec-kit/auth-service/internal/events"
	"github.com/spec-kit/auth-service/internal/observability"
	"github.com/spec-kit/auth-service/internal/persistence"
	"github.com/spec-kit/auth-service/internal/repository"
	"github.com/spec-kit/auth-service/internal/service"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	cfg := config.Config{
		Auth: config.AuthConfig{
			JWTSecret:             "router-secret",
			AccessTokenTTLMinutes: 60,
			BcryptCost:            bcrypt.MinCost,
		},
	}

	users := repository.NewMemoryUserRepository()
	ledger := repository.NewMemoryTokenRepository()
	dispatcher := events.NewInMemoryDispatcher()

	authService := service.NewAuthService(cfg, service.AuthDependencies{
		UserRepo:   users,
		TokenRepo:  ledger,
		Dispatcher: dispatcher,
	})

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	gate := auth.NewMiddleware(authService.TokenManager(), users, ledger, logger, metrics, "/auth", "/health")

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 0)
	RegisterRoutes(app, RouteConfig{
		Health:  handlers.NewHealthHandler("auth-service-test", "test", &persistence.Postgres{}, &persistence.Redis{}),
		Auth:    handlers.NewAuthHandler(authService),
		Account: handlers.NewAccountHandler(),
		Gate:    gate,
	})
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func getWithToken(t *testing.T, app *fiber.App, path, token string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func accessToken(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Data struct {
			Auth struct {
				AccessToken string `json:"access_token"`
			} `json:"auth"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body.Data.Auth.AccessToken)
	return body.Data.Auth.AccessToken
}

func register(t *testing.T, app *fiber.App, email, role string) string {
	t.Helper()
	resp := postJSON(t, app, "/auth/register", map[string]string{
		"firstname": "Test",
		"lastname":  "User",
		"email":     email,
		"password":  "pw123456",
		"role":      role,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return accessToken(t, resp)
}

func TestRegisterLoginAndAccess(t *testing.T) {
	app := newTestApp(t)

	token := register(t, app, "u@example.com", "")

	resp := getWithToken(t, app, "/api/v1/me", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Data struct {
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "u@example.com", body.Data.Email)
	require.Equal(t, "USER", body.Data.Role)
}

func TestReloginDisplacesPriorToken(t *testing.T) {
	app := newTestApp(t)

	t1 := register(t, app, "u@example.com", "")

	resp := postJSON(t, app, "/auth/login", map[string]string{
		"email":    "u@example.com",
		"password": "pw123456",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	t2 := accessToken(t, resp)

	resp = getWithToken(t, app, "/api/v1/me", t1)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = getWithToken(t, app, "/api/v1/me", t2)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLogoutRevokesTokenAndIsIdempotent(t *testing.T) {
	app := newTestApp(t)

	token := register(t, app, "u@example.com", "")

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Replay before natural expiry is still rejected.
	resp = getWithToken(t, app, "/api/v1/me", token)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Second logout with the same token changes nothing.
	req = httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestLogoutWithoutTokenIsNoOp(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestLoginWithWrongPassword(t *testing.T) {
	app := newTestApp(t)

	register(t, app, "u@example.com", "")

	resp := postJSON(t, app, "/auth/login", map[string]string{
		"email":    "u@example.com",
		"password": "nope",
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestDuplicateRegistrationConflicts(t *testing.T) {
	app := newTestApp(t)

	register(t, app, "u@example.com", "")

	resp := postJSON(t, app, "/auth/register", map[string]string{
		"firstname": "Test",
		"lastname":  "User",
		"email":     "u@example.com",
		"password":  "pw123456",
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestPermissionGuards(t *testing.T) {
	app := newTestApp(t)

	adminToken := register(t, app, "admin@example.com", "ADMIN")
	userToken := register(t, app, "user@example.com", "")

	resp := getWithToken(t, app, "/api/v1/admin", adminToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = getWithToken(t, app, "/api/v1/management", adminToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = getWithToken(t, app, "/api/v1/admin", userToken)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = getWithToken(t, app, "/api/v1/admin", "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthSurfaceNeverBlocked(t *testing.T) {
	app := newTestApp(t)

	// No Authorization header at all; the gate must not interfere.
	resp := postJSON(t, app, "/auth/login", map[string]string{
		"email":    "missing@example.com",
		"password": "pw123456",
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = postJSON(t, app, "/auth/register", map[string]string{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
