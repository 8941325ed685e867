package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

func newHealthApp(postgres, redis Pinger) *fiber.App {
	h := NewHealthHandler("auth-service-test", "test", postgres, redis)
	app := fiber.New()
	app.Get("/health/live", h.Live)
	app.Get("/health/ready", h.Ready)
	return app
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestLiveIgnoresDependencies(t *testing.T) {
	app := newHealthApp(stubPinger{err: errors.New("down")}, stubPinger{err: errors.New("down")})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/live", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	require.Equal(t, "alive", body["status"])
	require.Equal(t, "auth-service-test", body["service"])
}

func TestReadyReportsEveryCheck(t *testing.T) {
	app := newHealthApp(stubPinger{}, stubPinger{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	require.Equal(t, "ready", body["status"])
	checks, ok := body["checks"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "ok", checks["postgres"])
	require.Equal(t, "ok", checks["redis"])
}

func TestReadyFailsWhenOneDependencyIsDown(t *testing.T) {
	app := newHealthApp(stubPinger{}, stubPinger{err: errors.New("redis unreachable")})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	body := decodeBody(t, resp)
	require.Equal(t, "not_ready", body["status"])
	checks, ok := body["checks"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "ok", checks["postgres"])
	require.Equal(t, "redis unreachable", checks["redis"])
}
