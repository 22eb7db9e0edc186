package utils_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-api/internal/utils"
)

func TestSendSuccessDefaultsMessage(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return utils.SendSuccess(c, "", map[string]string{"hello": "world"})
	})

	resp := performRequest(t, app, http.MethodGet, "/")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload map[string]interface{}
	decode(t, resp, &payload)

	require.Equal(t, true, payload["success"])
	require.Equal(t, "success", payload["message"])
	require.Equal(t, "world", payload["data"].(map[string]interface{})["hello"])
	require.NotContains(t, payload, "errors")
	require.NotContains(t, payload, "error")

	stamp, err := time.Parse(time.RFC3339Nano, payload["timestamp"].(string))
	require.NoError(t, err)
	require.WithinDuration(t, time.Now(), stamp, 5*time.Second)
}

func TestSendErrorOmitsData(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return utils.SendError(c, fiber.StatusNotFound, "Student not found")
	})

	resp := performRequest(t, app, http.MethodGet, "/")
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var payload map[string]interface{}
	decode(t, resp, &payload)

	require.Equal(t, false, payload["success"])
	require.Equal(t, "Student not found", payload["error"])
	require.NotContains(t, payload, "data")
	require.NotContains(t, payload, "errors")
}

func TestSendValidationErrorIncludesFieldMessages(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return utils.SendValidationError(c, []string{"name is required"})
	})

	resp := performRequest(t, app, http.MethodGet, "/")
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var payload struct {
		Success bool     `json:"success"`
		Error   string   `json:"error"`
		Errors  []string `json:"errors"`
	}
	decode(t, resp, &payload)

	require.False(t, payload.Success)
	require.Equal(t, "Validation failed", payload.Error)
	require.Equal(t, []string{"name is required"}, payload.Errors)
}

func performRequest(t *testing.T, app *fiber.App, method, path string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}
