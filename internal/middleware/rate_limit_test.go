package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-api/internal/database"
)

func newLimitedApp(storage fiber.Storage) *fiber.App {
	app := fiber.New()
	app.Post("/login", RateLimit("login", 2, time.Minute, storage), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func hitLogin(t *testing.T, app *fiber.App) int {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
	require.NoError(t, err)
	return resp.StatusCode
}

func TestRateLimitInMemory(t *testing.T) {
	app := newLimitedApp(nil)

	require.Equal(t, fiber.StatusOK, hitLogin(t, app))
	require.Equal(t, fiber.StatusOK, hitLogin(t, app))
	require.Equal(t, fiber.StatusTooManyRequests, hitLogin(t, app))
}

func TestRateLimitRedisStorage(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	app := newLimitedApp(database.NewRedisStorage(client, "classroom:limiter:"))

	require.Equal(t, fiber.StatusOK, hitLogin(t, app))
	require.Equal(t, fiber.StatusOK, hitLogin(t, app))
	require.Equal(t, fiber.StatusTooManyRequests, hitLogin(t, app))
	require.NotEmpty(t, server.Keys())
}
