package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, checker *Checker, path string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	checker.RegisterRoutes(e)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	ok := PingFunc(func(context.Context) error { return nil })
	down := PingFunc(func(context.Context) error { return errors.New("connection refused") })

	t.Run("all healthy", func(t *testing.T) {
		rec := serve(t, NewChecker("1.0.0").Add("database", ok), "/api/v1/health")
		assert.Equal(t, http.StatusOK, rec.Code)

		var status HealthStatus
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
		assert.Equal(t, "healthy", status.Status)
		assert.Equal(t, "1.0.0", status.Version)
		assert.Equal(t, "healthy", status.Checks["database"].Status)
	})

	t.Run("one dependency down", func(t *testing.T) {
		rec := serve(t, NewChecker("1.0.0").Add("database", ok).Add("kafka", down), "/api/v1/health")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var status HealthStatus
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
		assert.Equal(t, "unhealthy", status.Status)
		assert.Equal(t, "connection refused", status.Checks["kafka"].Message)
	})
}

func TestReady(t *testing.T) {
	checker := NewChecker("1.0.0")
	assert.Equal(t, http.StatusServiceUnavailable, serve(t, checker, "/api/v1/health/ready").Code)

	checker.SetReady(true)
	assert.Equal(t, http.StatusOK, serve(t, checker, "/api/v1/health/ready").Code)
	assert.Equal(t, http.StatusOK, serve(t, checker, "/api/v1/health/live").Code)
}
