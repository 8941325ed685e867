package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/auth-service/internal/api/dto"
	"github.com/spec-kit/auth-service/internal/auth"
	"github.com/spec-kit/auth-service/internal/domain"
	"github.com/spec-kit/auth-service/internal/repository"
	"github.com/spec-kit/auth-service/internal/service"
)

// AuthHandler exposes registration, login, and logout endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" || req.Firstname == "" || req.Lastname == "" {
		return fiber.NewError(http.StatusBadRequest, "firstname, lastname, email, password required")
	}

	user, token, exp, err := h.auth.Register(c.Context(), req.Firstname, req.Lastname, req.Email, req.Password, domain.Role(req.Role))
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return fiber.NewError(http.StatusConflict, err.Error())
		}
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"user": fiber.Map{
				"id":        user.ID,
				"firstname": user.Firstname,
				"lastname":  user.Lastname,
				"email":     user.Email,
				"role":      user.Role,
			},
			"auth": dto.AuthResponse{AccessToken: token, ExpiresAt: exp},
		},
	})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "email and password required")
	}

	user, token, exp, err := h.auth.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return fiber.NewError(http.StatusUnauthorized, err.Error())
		}
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user": fiber.Map{
				"id":    user.ID,
				"email": user.Email,
				"role":  user.Role,
			},
			"auth": dto.AuthResponse{AccessToken: token, ExpiresAt: exp},
		},
	})
}

// Logout handles POST /auth/logout. Revokes the presented bearer token in the
// ledger and clears any identity established for this request. Missing or
// unknown tokens are a no-op.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	const prefix = "Bearer "
	if strings.HasPrefix(header, prefix) {
		if err := h.auth.Logout(c.Context(), header[len(prefix):]); err != nil {
			return err
		}
	}
	auth.ClearPrincipal(c)
	return c.SendStatus(http.StatusNoContent)
}
