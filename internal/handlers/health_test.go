package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "github.com/stwalsh4118/recordbook/internal/errors"
)

// MockPinger is a mock implementation of database.Pinger for testing.
type MockPinger struct {
	pingErr error
}

func (m *MockPinger) Ping(ctx context.Context) error {
	return m.pingErr
}

// setupHealthHandler creates a HealthHandler that started an hour ago.
func setupHealthHandler(pingErr error) *HealthHandler {
	h := NewHealthHandler(&MockPinger{pingErr: pingErr}, "mongodb", "test")
	fixed := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	h.startTime = fixed.Add(-1 * time.Hour)
	h.now = func() time.Time { return fixed }
	return h
}

func serveHealth(handler gin.HandlerFunc, path string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET(path, handler)
	router.NoRoute(NoRoute)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealthHandler_Health(t *testing.T) {
	h := setupHealthHandler(errors.New("down"))

	w := serveHealth(h.Health, "/health")

	require.Equal(t, http.StatusOK, w.Code, "liveness ignores the database")
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, HealthResponse{
		Status:      "OK",
		Timestamp:   "2024-05-01T10:00:00.000Z",
		Environment: "test",
		Uptime:      3600,
		Database:    "mongodb",
	}, resp)
}

func TestHealthHandler_Ready(t *testing.T) {
	tests := []struct {
		name           string
		pingErr        error
		expectedStatus int
		expectedBody   ReadyResponse
	}{
		{"database connected", nil, http.StatusOK, ReadyResponse{Status: "ready", Database: "connected"}},
		{"database disconnected", errors.New("connection refused"), http.StatusServiceUnavailable, ReadyResponse{Status: "not_ready", Database: "disconnected"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serveHealth(setupHealthHandler(tt.pingErr).Ready, "/health/ready")

			assert.Equal(t, tt.expectedStatus, w.Code)
			var resp ReadyResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.expectedBody, resp)
		})
	}
}

func TestHealthHandler_Info(t *testing.T) {
	w := serveHealth(setupHealthHandler(nil).Info, "/api/info")

	require.Equal(t, http.StatusOK, w.Code)
	var resp InfoResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, InfoResponse{Version: APIVersion, Environment: "test", Uptime: "1h 0m 0s", Database: "mongodb"}, resp)
}

func TestNoRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.NoRoute(NoRoute)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/nothing?x=1", nil))

	require.Equal(t, http.StatusNotFound, w.Code)
	var resp apierrors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "The requested route /api/nothing?x=1 does not exist", resp.Error.Message)
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		duration time.Duration
		expected string
	}{
		{0, "0h 0m 0s"},
		{90 * time.Second, "0h 1m 30s"},
		{25*time.Hour + 5*time.Minute, "1d 1h 5m 0s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, formatUptime(tt.duration))
	}
}
