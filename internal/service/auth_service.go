package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/auth-service/internal/auth"
	"github.com/spec-kit/auth-service/internal/config"
	"github.com/spec-kit/auth-service/internal/domain"
	"github.com/spec-kit/auth-service/internal/events"
	"github.com/spec-kit/auth-service/internal/repository"
)

// ErrInvalidCredentials is returned for any login failure, whether the email
// is unknown or the password is wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService coordinates registration, login, and logout. Issuing a session
// displaces the subject's prior tokens: after a successful login exactly the
// new token is live for that user.
type AuthService struct {
	users      repository.UserRepository
	ledger     repository.TokenRepository
	tokenMgr   *auth.TokenManager
	dispatcher events.Dispatcher
	bcryptCost int
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	TokenRepo  repository.TokenRepository
	Dispatcher events.Dispatcher
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		ledger:     deps.TokenRepo,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL()),
		dispatcher: deps.Dispatcher,
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// Register creates a new account and issues its first session token.
func (s *AuthService) Register(ctx context.Context, firstname, lastname, email, password string, role domain.Role) (*domain.User, string, time.Time, error) {
	if !role.Valid() {
		role = domain.RoleUser
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	user := &domain.User{
		Firstname:    firstname,
		Lastname:     lastname,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", time.Time{}, err
	}

	token, exp, err := s.issueToken(ctx, user)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	s.publish(ctx, events.EventUserRegistered, user.Email, events.UserRegisteredPayload{
		UserID: user.ID,
		Role:   string(user.Role),
	})
	return user, token, exp, nil
}

// Login verifies credentials and issues a fresh session token, displacing any
// token the user obtained earlier.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, "", time.Time{}, ErrInvalidCredentials
		}
		return nil, "", time.Time{}, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	token, exp, err := s.issueToken(ctx, user)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	s.publish(ctx, events.EventUserLoggedIn, user.Email, events.UserLoggedInPayload{UserID: user.ID})
	return user, token, exp, nil
}

// Logout marks the presented token revoked in the ledger. Unknown or absent
// tokens are a no-op; calling it twice with the same token has no further
// effect.
func (s *AuthService) Logout(ctx context.Context, raw string) error {
	if raw == "" {
		return nil
	}

	record, err := s.ledger.GetByToken(ctx, raw)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil
		}
		return err
	}
	if !record.Live() {
		return nil
	}

	if err := s.ledger.Revoke(ctx, record.ID); err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, record.UserID)
	subject := record.UserID
	if err == nil {
		subject = user.Email
	}
	s.publish(ctx, events.EventUserLoggedOut, subject, events.TokensRevokedPayload{
		UserID: record.UserID,
		Count:  1,
		Reason: "logout",
	})
	return nil
}

// issueToken mints a token, revokes the user's previously live tokens, and
// records the new one as live. The mint happens first so a mint failure
// leaves existing sessions untouched.
func (s *AuthService) issueToken(ctx context.Context, user *domain.User) (string, time.Time, error) {
	token, exp, err := s.tokenMgr.Generate(user.Email, map[string]any{"role": string(user.Role)})
	if err != nil {
		return "", time.Time{}, err
	}

	live, err := s.ledger.FindLiveByUser(ctx, user.ID)
	if err != nil {
		return "", time.Time{}, err
	}
	if len(live) > 0 {
		ids := make([]string, 0, len(live))
		for _, t := range live {
			ids = append(ids, t.ID)
		}
		if err := s.ledger.RevokeAll(ctx, ids); err != nil {
			return "", time.Time{}, err
		}
		s.publish(ctx, events.EventTokensRevoked, user.Email, events.TokensRevokedPayload{
			UserID: user.ID,
			Count:  len(ids),
			Reason: "new_session",
		})
	}

	record := &domain.Token{
		Token:  token,
		Type:   domain.TokenTypeBearer,
		UserID: user.ID,
	}
	if err := s.ledger.Insert(ctx, record); err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

func (s *AuthService) publish(ctx context.Context, eventType events.EventType, subject string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Subject:   subject,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
