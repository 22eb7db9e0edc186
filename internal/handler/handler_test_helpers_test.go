package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-api/internal/auth"
	"github.com/noah-isme/classroom-api/internal/utils"
)

var testTokens = auth.NewTokenManager("handler-test-secret", "classroom-api", time.Hour)

func tokenFor(t *testing.T, role auth.Role) string {
	t.Helper()
	token, _, err := testTokens.Issue(auth.Identity{ID: 1, Username: "tester", Role: role})
	require.NoError(t, err)
	return token
}

type envelope struct {
	utils.APIResponse
	Data json.RawMessage `json:"data"`
}

func doRequest(t *testing.T, app *fiber.App, method, target, token string, body interface{}) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		switch v := body.(type) {
		case string:
			reader = bytes.NewBufferString(v)
		default:
			raw, err := json.Marshal(v)
			require.NoError(t, err)
			reader = bytes.NewReader(raw)
		}
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var payload envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &payload))
	}
	return resp.StatusCode, payload
}

func decodeData(t *testing.T, payload envelope, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(payload.Data, dest))
}
