package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/auth-service/internal/domain"
	"github.com/spec-kit/auth-service/internal/observability"
	"github.com/spec-kit/auth-service/internal/repository"
)

// Gate decision labels reported to metrics.
const (
	outcomeAuthenticated = "authenticated"
	outcomeRejected      = "rejected"
	outcomeAnonymous     = "anonymous"
)

const principalKey = "auth_principal"

const bearerPrefix = "Bearer "

// Principal represents the authenticated caller for one request.
type Principal struct {
	User  *domain.User
	Token string
}

// Middleware is the per-request authentication gate. It establishes a
// principal only when the bearer token passes both the cryptographic check
// and the ledger liveness check; in every other case the request proceeds
// unauthenticated and the authorization guards decide its fate. The gate
// itself never produces an HTTP error.
type Middleware struct {
	tokens       *TokenManager
	users        repository.UserRepository
	ledger       repository.TokenRepository
	logger       *zap.Logger
	metrics      *observability.Metrics
	skipPrefixes []string
}

// NewMiddleware constructs the gate. Requests whose path starts with one of
// skipPrefixes bypass all token processing.
func NewMiddleware(tokens *TokenManager, users repository.UserRepository, ledger repository.TokenRepository, logger *zap.Logger, metrics *observability.Metrics, skipPrefixes ...string) *Middleware {
	return &Middleware{
		tokens:       tokens,
		users:        users,
		ledger:       ledger,
		logger:       logger,
		metrics:      metrics,
		skipPrefixes: skipPrefixes,
	}
}

// Handle runs on every request.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	for _, prefix := range m.skipPrefixes {
		if strings.HasPrefix(c.Path(), prefix) {
			return c.Next()
		}
	}

	header := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(header, bearerPrefix) {
		m.metrics.RecordAuthOutcome(outcomeAnonymous)
		return c.Next()
	}
	raw := header[len(bearerPrefix):]

	if _, ok := PrincipalFromContext(c); ok {
		return c.Next()
	}

	subject, err := m.tokens.ExtractSubject(raw)
	if err != nil {
		m.logger.Warn("rejected bearer token", zap.Error(err), zap.String("path", c.Path()))
		m.metrics.RecordAuthOutcome(outcomeRejected)
		return c.Next()
	}

	user, err := m.users.GetByEmail(c.Context(), subject)
	if err != nil {
		if repository.IsNotFound(err) {
			m.logger.Warn("token subject unknown", zap.String("subject", subject))
		} else {
			m.logger.Error("principal lookup failed", zap.Error(err))
		}
		m.metrics.RecordAuthOutcome(outcomeRejected)
		return c.Next()
	}

	claims, err := m.tokens.Parse(raw)
	if err != nil || claims.Subject != user.Email {
		m.logger.Warn("token validation failed", zap.String("subject", subject), zap.Error(err))
		m.metrics.RecordAuthOutcome(outcomeRejected)
		return c.Next()
	}

	record, err := m.ledger.GetByToken(c.Context(), raw)
	if err != nil {
		if repository.IsNotFound(err) {
			m.logger.Warn("token not in ledger", zap.String("subject", subject))
		} else {
			m.logger.Error("ledger lookup failed", zap.Error(err))
		}
		m.metrics.RecordAuthOutcome(outcomeRejected)
		return c.Next()
	}
	if !record.Live() {
		m.logger.Warn("token revoked or expired in ledger", zap.String("subject", subject))
		m.metrics.RecordAuthOutcome(outcomeRejected)
		return c.Next()
	}

	c.Locals(principalKey, &Principal{User: user, Token: raw})
	m.logger.Info("request authenticated", zap.String("subject", user.Email))
	m.metrics.RecordAuthOutcome(outcomeAuthenticated)
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated caller, if any.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	if !ok || principal == nil {
		return nil, false
	}
	return principal, true
}

// ClearPrincipal drops the established identity for the current request.
func ClearPrincipal(c *fiber.Ctx) {
	c.Locals(principalKey, nil)
}
