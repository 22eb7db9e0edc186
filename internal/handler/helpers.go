package handler

import (
	"errors"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classroom-api/internal/auth"
	"github.com/noah-isme/classroom-api/internal/correlation"
	"github.com/noah-isme/classroom-api/internal/database"
	"github.com/noah-isme/classroom-api/internal/middleware"
	"github.com/noah-isme/classroom-api/internal/observability"
	"github.com/noah-isme/classroom-api/internal/utils"
)

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

// queryIntOr returns the integer query value, or fallback when it is absent or not numeric.
func queryIntOr(c *fiber.Ctx, key string, fallback int) int {
	value, err := parseQueryInt(c, key)
	if err != nil || value == 0 {
		return fallback
	}
	return value
}

func parseIDParam(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Params("id")), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func actorFromContext(c *fiber.Ctx) auth.Identity {
	identity, _ := middleware.IdentityFromContext(c)
	return identity
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	if c == nil {
		return &base
	}
	return correlation.Logger(correlation.WithID(c.UserContext(), middleware.GetCorrelationID(c)), base)
}

// sendStorageError answers classified storage failures. It reports false when
// err carries no classification the client should see.
func sendStorageError(c *fiber.Ctx, err error) (bool, error) {
	var storageErr *database.StorageError
	if !errors.As(err, &storageErr) {
		return false, nil
	}

	switch {
	case errors.Is(err, database.ErrUniqueViolation):
		observability.StorageErrors().WithLabelValues(string(storageErr.Code)).Inc()
		return true, utils.SendError(c, fiber.StatusConflict, "A record with the same unique value already exists")
	case errors.Is(err, database.ErrCheckViolation):
		observability.StorageErrors().WithLabelValues(string(storageErr.Code)).Inc()
		return true, utils.SendError(c, fiber.StatusBadRequest, "Value violates a data constraint")
	case errors.Is(err, database.ErrLocked), errors.Is(err, database.ErrUnavailable):
		observability.StorageErrors().WithLabelValues(string(storageErr.Code)).Inc()
		return true, utils.SendError(c, fiber.StatusServiceUnavailable, "Database is busy, please retry")
	default:
		return false, nil
	}
}

// sendInternalError logs err with a stack trace and answers with a generic 500.
func sendInternalError(logger zerolog.Logger, c *fiber.Ctx, err error, message string) error {
	requestLogger(logger, c).Error().
		Err(err).
		Str("path", c.Path()).
		Str("stack", string(debug.Stack())).
		Msg(message)
	return utils.SendError(c, fiber.StatusInternalServerError, message)
}
