package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classroom-api/internal/auth"
	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/middleware"
	"github.com/noah-isme/classroom-api/internal/service"
	"github.com/noah-isme/classroom-api/internal/utils"
)

// CookieOptions controls the session cookie written on login.
type CookieOptions struct {
	Name   string
	Secure bool
}

// AuthHandler exposes login, logout and identity lookup.
type AuthHandler struct {
	service service.AuthService
	cookie  CookieOptions
	logger  zerolog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(service service.AuthService, cookie CookieOptions, logger zerolog.Logger) *AuthHandler {
	if cookie.Name == "" {
		cookie.Name = "auth_token"
	}
	return &AuthHandler{
		service: service,
		cookie:  cookie,
		logger:  logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register wires the auth routes. loginGuard runs ahead of login (typically a
// rate limiter); authenticate protects /me.
func (h *AuthHandler) Register(router fiber.Router, loginGuard, authenticate fiber.Handler) {
	if loginGuard != nil {
		router.Post("/login", loginGuard, h.login)
	} else {
		router.Post("/login", h.login)
	}
	router.Post("/logout", h.logout)
	router.Get("/me", authenticate, h.me)
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	var payload dto.LoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	result, err := h.service.Login(c.UserContext(), payload)
	if err != nil {
		switch {
		case utils.IsValidationError(err):
			return utils.SendValidationError(c, utils.ValidationMessages(err))
		case errors.Is(err, auth.ErrInvalidCredentials):
			return utils.SendError(c, fiber.StatusUnauthorized, "Invalid credentials")
		default:
			return sendInternalError(h.logger, c, err, "Login failed")
		}
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.cookie.Name,
		Value:    result.Token,
		Path:     "/",
		Expires:  result.ExpiresAt,
		HTTPOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	})

	requestLogger(h.logger, c).Info().Int64("user_id", result.User.ID).Msg("session opened")
	return utils.SendSuccess(c, "Login successful", result)
}

func (h *AuthHandler) logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
	return utils.SendSuccess(c, "Logout successful", nil)
}

func (h *AuthHandler) me(c *fiber.Ctx) error {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "Authentication required")
	}
	return utils.SendSuccess(c, "Authenticated", identity)
}
