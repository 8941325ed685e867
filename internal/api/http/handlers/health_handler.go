package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// readinessTimeout bounds the dependency checks of a single probe.
const readinessTimeout = 2 * time.Second

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler responds to liveness and readiness probes. Readiness
// requires every registered dependency to answer a ping: an instance that
// cannot reach the token ledger must not receive traffic, or it would
// accept tokens it cannot verify against revocations.
type HealthHandler struct {
	serviceName string
	version     string
	deps        map[string]Pinger
}

// NewHealthHandler returns a handler probing the given dependencies.
func NewHealthHandler(serviceName, version string, postgres, redis Pinger) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		deps: map[string]Pinger{
			"postgres": postgres,
			"redis":    redis,
		},
	}
}

// Live reports process liveness without touching dependencies.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready pings every dependency and reports per-dependency state. Any
// failing check turns the probe into a 503 with status "not_ready".
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), readinessTimeout)
	defer cancel()

	checks := make(fiber.Map, len(h.deps))
	ready := true
	for name, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			checks[name] = err.Error()
			ready = false
			continue
		}
		checks[name] = "ok"
	}

	status := fiber.StatusOK
	body := fiber.Map{
		"status":  "ready",
		"service": h.serviceName,
		"checks":  checks,
	}
	if !ready {
		status = fiber.StatusServiceUnavailable
		body["status"] = "not_ready"
	}
	return c.Status(status).JSON(body)
}
