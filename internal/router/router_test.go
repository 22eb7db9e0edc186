package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-api/internal/auth"
	"github.com/noah-isme/classroom-api/internal/config"
	"github.com/noah-isme/classroom-api/internal/database"
	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/handler"
	"github.com/noah-isme/classroom-api/internal/middleware"
	"github.com/noah-isme/classroom-api/internal/repository"
	"github.com/noah-isme/classroom-api/internal/router"
	"github.com/noah-isme/classroom-api/internal/service"
	"github.com/noah-isme/classroom-api/internal/utils"
)

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Errors  []string        `json:"errors"`
}

type testServer struct {
	app    *fiber.App
	tokens *auth.TokenManager
}

func setupApp(t *testing.T) testServer {
	t.Helper()
	return setupAppWithLog(t, io.Discard)
}

func setupAppWithLog(t *testing.T, logOutput io.Writer) testServer {
	t.Helper()

	opts := database.Options{Driver: database.DialectSQLite, Path: fmt.Sprintf("file:%s?mode=memory", uuid.NewString())}
	gw, err := database.Open(opts)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(gw, opts))
	t.Cleanup(func() { _ = gw.Close() })

	cfg := config.Config{
		AppName:         "classroom-api",
		AppEnv:          "test",
		JWTSecret:       "integration-secret",
		JWTIssuer:       "classroom-api",
		AuthUsername:    "admin",
		AuthPassword:    "admin123",
		TokenTTL:        time.Hour,
		CookieName:      "auth_token",
		LoginRateMax:    100,
		LoginRateWindow: time.Minute,
		AnalyticsRecent: 5,
	}

	logger := zerolog.New(logOutput)
	validate := utils.NewValidator()
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)

	studentRepo := repository.NewStudentRepository(gw)
	analyticsRepo := repository.NewAnalyticsRepository(gw)

	_, err = service.NewSeedService(studentRepo, true, logger).SeedStudents(context.Background())
	require.NoError(t, err)

	authService := service.NewAuthService(auth.NewStaticProvider(cfg.AuthUsername, cfg.AuthPassword), tokens, validate, logger)
	studentService := service.NewStudentService(studentRepo, validate, service.StudentServiceOptions{}, logger)
	analyticsService := service.NewAnalyticsService(analyticsRepo, cfg.AnalyticsRecent, logger)

	app := fiber.New()
	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:      handler.NewAuthHandler(authService, handler.CookieOptions{Name: cfg.CookieName}, logger),
		StudentHandler:   handler.NewStudentHandler(studentService, logger),
		AnalyticsHandler: handler.NewAnalyticsHandler(analyticsService, logger),
		Database:         gw,
		Authenticate:     middleware.Authenticate(tokens, cfg.CookieName),
		LoginGuard:       middleware.RateLimit("login", cfg.LoginRateMax, cfg.LoginRateWindow, nil),
	})

	return testServer{app: app, tokens: tokens}
}

func (s testServer) call(t *testing.T, method, target, token string, body interface{}) (int, apiEnvelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var payload apiEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return resp.StatusCode, payload
}

func (s testServer) login(t *testing.T) string {
	t.Helper()
	status, payload := s.call(t, http.MethodPost, "/auth/login", "", dto.LoginRequest{Username: "admin", Password: "admin123"})
	require.Equal(t, fiber.StatusOK, status)

	var login dto.LoginResponse
	require.NoError(t, json.Unmarshal(payload.Data, &login))
	require.NotEmpty(t, login.Token)
	require.Equal(t, auth.RoleTeacher, login.User.Role)
	return login.Token
}

func TestStudentLifecycle(t *testing.T) {
	server := setupApp(t)
	token := server.login(t)

	status, payload := server.call(t, http.MethodGet, "/students?limit=2&sortBy=name&sortOrder=asc", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	var list dto.StudentListResponse
	require.NoError(t, json.Unmarshal(payload.Data, &list))
	require.Len(t, list.Students, 2)
	require.Equal(t, "David Brown", list.Students[0].Name)
	require.Equal(t, int64(6), list.Pagination.TotalItems)
	require.Equal(t, 3, list.Pagination.TotalPages)
	require.True(t, list.Pagination.HasNext)

	status, payload = server.call(t, http.MethodPost, "/api/students", token, map[string]interface{}{
		"name":    "Grace Hopper",
		"email":   "Grace.Hopper@example.com",
		"subject": "Science",
		"grade":   99,
	})
	require.Equal(t, fiber.StatusCreated, status, payload.Error)
	var created dto.StudentResponse
	require.NoError(t, json.Unmarshal(payload.Data, &created))
	require.Equal(t, "grace.hopper@example.com", created.Email)

	status, payload = server.call(t, http.MethodPost, "/students", token, map[string]interface{}{
		"name":    "Grace Again",
		"email":   "GRACE.HOPPER@example.com",
		"subject": "Math",
		"grade":   50,
	})
	require.Equal(t, fiber.StatusConflict, status)
	require.False(t, payload.Success)

	target := fmt.Sprintf("/students/%d", created.ID)
	status, payload = server.call(t, http.MethodPut, target, token, map[string]interface{}{"grade": 88.5})
	require.Equal(t, fiber.StatusOK, status)
	var updated dto.StudentResponse
	require.NoError(t, json.Unmarshal(payload.Data, &updated))
	require.Equal(t, 88.5, updated.Grade)
	require.Equal(t, "Grace Hopper", updated.Name)

	status, payload = server.call(t, http.MethodPut, target, token, map[string]interface{}{"unknown": true})
	require.Equal(t, fiber.StatusBadRequest, status)
	require.Equal(t, []string{"No valid fields to update"}, payload.Errors)

	status, payload = server.call(t, http.MethodGet, target, token, nil)
	require.Equal(t, fiber.StatusOK, status)
	var unchanged dto.StudentResponse
	require.NoError(t, json.Unmarshal(payload.Data, &unchanged))
	require.Equal(t, updated.Name, unchanged.Name)
	require.Equal(t, updated.Email, unchanged.Email)
	require.Equal(t, updated.Subject, unchanged.Subject)
	require.Equal(t, updated.Grade, unchanged.Grade)
	require.True(t, updated.CreatedAt.Equal(unchanged.CreatedAt))

	status, _ = server.call(t, http.MethodDelete, target, token, nil)
	require.Equal(t, fiber.StatusOK, status)

	status, _ = server.call(t, http.MethodGet, target, token, nil)
	require.Equal(t, fiber.StatusNotFound, status)

	status, _ = server.call(t, http.MethodDelete, target, token, nil)
	require.Equal(t, fiber.StatusNotFound, status)
}

func TestListClampsOutOfRangePage(t *testing.T) {
	server := setupApp(t)
	token := server.login(t)

	status, payload := server.call(t, http.MethodGet, "/students?page=4611686018427387904&limit=100", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	var list dto.StudentListResponse
	require.NoError(t, json.Unmarshal(payload.Data, &list))
	require.Empty(t, list.Students)
	require.Equal(t, service.MaxPage, list.Pagination.CurrentPage)
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Split(b.buf.String(), "\n")
}

func TestServiceLogsCarryCorrelationID(t *testing.T) {
	logs := &lockedBuffer{}
	server := setupAppWithLog(t, logs)
	token := server.login(t)

	body, err := json.Marshal(map[string]interface{}{
		"name":    "Katherine Johnson",
		"email":   "katherine@example.com",
		"subject": "Math",
		"grade":   100,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/students", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Correlation-ID", "trace-create-1")
	resp, err := server.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var createdLine map[string]interface{}
	for _, line := range logs.lines() {
		if !strings.Contains(line, `"message":"student created"`) {
			continue
		}
		require.NoError(t, json.Unmarshal([]byte(line), &createdLine))
	}
	require.NotNil(t, createdLine)
	require.Equal(t, "student_service", createdLine["component"])
	require.Equal(t, "trace-create-1", createdLine["correlation_id"])
}

func TestCreateValidationErrors(t *testing.T) {
	server := setupApp(t)
	token := server.login(t)

	status, payload := server.call(t, http.MethodPost, "/students", token, map[string]interface{}{
		"name":    "R2-D2",
		"email":   "droid@mailinator.com",
		"subject": "Robotics",
		"grade":   140,
	})
	require.Equal(t, fiber.StatusBadRequest, status)
	require.Equal(t, "Validation failed", payload.Error)
	require.Len(t, payload.Errors, 4)
}

func TestAnalyticsOnSeededData(t *testing.T) {
	server := setupApp(t)
	token := server.login(t)

	status, payload := server.call(t, http.MethodGet, "/api/analytics", token, nil)
	require.Equal(t, fiber.StatusOK, status)

	var summary dto.AnalyticsResponse
	require.NoError(t, json.Unmarshal(payload.Data, &summary))
	require.Equal(t, int64(6), summary.TotalStudents)
	require.Equal(t, 90.0, summary.AverageGradeBySubject["Math"])
	require.Len(t, summary.RecentStudents, 5)

	status, _ = server.call(t, http.MethodGet, "/analytics?subject=Chemistry", token, nil)
	require.Equal(t, fiber.StatusBadRequest, status)
}

func TestAuthorizationFailures(t *testing.T) {
	server := setupApp(t)

	status, payload := server.call(t, http.MethodGet, "/students", "", nil)
	require.Equal(t, fiber.StatusUnauthorized, status)
	require.Equal(t, "Access token required", payload.Error)

	status, payload = server.call(t, http.MethodGet, "/students", "tampered.token.value", nil)
	require.Equal(t, fiber.StatusForbidden, status)
	require.Equal(t, "Invalid or expired token", payload.Error)

	studentToken, _, err := server.tokens.Issue(auth.Identity{ID: 3, Username: "mike", Role: auth.RoleStudent})
	require.NoError(t, err)

	status, _ = server.call(t, http.MethodGet, "/students", studentToken, nil)
	require.Equal(t, fiber.StatusOK, status)

	status, payload = server.call(t, http.MethodDelete, "/students/1", studentToken, nil)
	require.Equal(t, fiber.StatusForbidden, status)
	require.Equal(t, "Insufficient permissions", payload.Error)

	status, _ = server.call(t, http.MethodGet, "/analytics", studentToken, nil)
	require.Equal(t, fiber.StatusForbidden, status)

	status, _ = server.call(t, http.MethodPost, "/auth/login", "", dto.LoginRequest{Username: "admin", Password: "nope"})
	require.Equal(t, fiber.StatusUnauthorized, status)
}

func TestHealthRoutes(t *testing.T) {
	server := setupApp(t)

	for _, target := range []string{"/health", "/api/health", "/health/ready"} {
		status, payload := server.call(t, http.MethodGet, target, "", nil)
		require.Equal(t, fiber.StatusOK, status, target)
		require.True(t, payload.Success)
	}
}
