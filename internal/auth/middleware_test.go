package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/auth-service/internal/domain"
	"github.com/spec-kit/auth-service/internal/repository"
)

type gateFixture struct {
	app    *fiber.App
	tokens *TokenManager
	users  *repository.MemoryUserRepository
	ledger *repository.MemoryTokenRepository
}

func newGateFixture(t *testing.T) *gateFixture {
	t.Helper()

	tokens := NewTokenManager("gate-secret", time.Hour)
	users := repository.NewMemoryUserRepository()
	ledger := repository.NewMemoryTokenRepository()
	gate := NewMiddleware(tokens, users, ledger, zap.NewNop(), nil, "/auth", "/health")

	app := fiber.New()
	app.Use(gate.Handle)
	app.Post("/auth/login", func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})
	app.Get("/api/v1/me", RequireAuthenticated(), func(c *fiber.Ctx) error {
		principal, _ := PrincipalFromContext(c)
		return c.JSON(fiber.Map{"email": principal.User.Email})
	})

	return &gateFixture{app: app, tokens: tokens, users: users, ledger: ledger}
}

func (f *gateFixture) seedUser(t *testing.T, email string) *domain.User {
	t.Helper()
	user := &domain.User{
		Firstname:    "Test",
		Lastname:     "User",
		Email:        email,
		PasswordHash: "irrelevant",
		Role:         domain.RoleUser,
	}
	require.NoError(t, f.users.Create(context.Background(), user))
	return user
}

func (f *gateFixture) issueLive(t *testing.T, user *domain.User) string {
	t.Helper()
	raw, _, err := f.tokens.Generate(user.Email, nil)
	require.NoError(t, err)
	require.NoError(t, f.ledger.Insert(context.Background(), &domain.Token{
		Token:  raw,
		Type:   domain.TokenTypeBearer,
		UserID: user.ID,
	}))
	return raw
}

func doRequest(t *testing.T, app *fiber.App, method, path, bearer string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestGateBypassesAuthSurface(t *testing.T) {
	f := newGateFixture(t)

	resp := doRequest(t, f.app, http.MethodPost, "/auth/login", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGatePassesAnonymousThrough(t *testing.T) {
	f := newGateFixture(t)

	// The gate lets the request proceed; the authorization guard rejects it.
	resp := doRequest(t, f.app, http.MethodGet, "/api/v1/me", "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGateAuthenticatesLiveToken(t *testing.T) {
	f := newGateFixture(t)
	user := f.seedUser(t, "u@example.com")
	raw := f.issueLive(t, user)

	resp := doRequest(t, f.app, http.MethodGet, "/api/v1/me", raw)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGateRejectsRevokedToken(t *testing.T) {
	f := newGateFixture(t)
	user := f.seedUser(t, "u@example.com")
	raw := f.issueLive(t, user)

	record, err := f.ledger.GetByToken(context.Background(), raw)
	require.NoError(t, err)
	require.NoError(t, f.ledger.Revoke(context.Background(), record.ID))

	resp := doRequest(t, f.app, http.MethodGet, "/api/v1/me", raw)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGateRejectsPartiallyDeadLedgerRecord(t *testing.T) {
	f := newGateFixture(t)
	user := f.seedUser(t, "u@example.com")

	// Records with exactly one lifecycle flag set must be treated as dead;
	// a token is live only when neither flag is set.
	for _, tc := range []struct {
		name    string
		expired bool
		revoked bool
	}{
		{name: "expired only", expired: true},
		{name: "revoked only", revoked: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			raw, _, err := f.tokens.Generate(user.Email, nil)
			require.NoError(t, err)
			require.NoError(t, f.ledger.Insert(context.Background(), &domain.Token{
				Token:   raw,
				Type:    domain.TokenTypeBearer,
				UserID:  user.ID,
				Expired: tc.expired,
				Revoked: tc.revoked,
			}))

			resp := doRequest(t, f.app, http.MethodGet, "/api/v1/me", raw)
			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestGateRejectsTokenMissingFromLedger(t *testing.T) {
	f := newGateFixture(t)
	user := f.seedUser(t, "u@example.com")

	raw, _, err := f.tokens.Generate(user.Email, nil)
	require.NoError(t, err)

	resp := doRequest(t, f.app, http.MethodGet, "/api/v1/me", raw)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGateRejectsForeignSignature(t *testing.T) {
	f := newGateFixture(t)
	user := f.seedUser(t, "u@example.com")

	foreign := NewTokenManager("some-other-secret", time.Hour)
	raw, _, err := foreign.Generate(user.Email, nil)
	require.NoError(t, err)
	// Even a ledger entry cannot save a token signed with the wrong key.
	require.NoError(t, f.ledger.Insert(context.Background(), &domain.Token{
		Token:  raw,
		Type:   domain.TokenTypeBearer,
		UserID: user.ID,
	}))

	resp := doRequest(t, f.app, http.MethodGet, "/api/v1/me", raw)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGateRejectsUnknownSubject(t *testing.T) {
	f := newGateFixture(t)

	raw, _, err := f.tokens.Generate("ghost@example.com", nil)
	require.NoError(t, err)

	resp := doRequest(t, f.app, http.MethodGet, "/api/v1/me", raw)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGateRejectsMalformedToken(t *testing.T) {
	f := newGateFixture(t)

	resp := doRequest(t, f.app, http.MethodGet, "/api/v1/me", "utter-garbage")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
