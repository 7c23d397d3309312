package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PranayGaynarIKF/Address-Book-sub002/internal/testutil"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/errs"
)

func TestError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{name: "not found", err: errs.NotFound("contact %s not found", "c-1"), status: http.StatusNotFound, message: "contact c-1 not found"},
		{name: "conflict", err: errs.Conflict("tag %q already exists", "VIP"), status: http.StatusConflict, message: `tag "VIP" already exists`},
		{name: "invalid input", err: errs.InvalidInput("limit must be at least 1"), status: http.StatusBadRequest, message: "limit must be at least 1"},
		{name: "echo error", err: echo.NewHTTPError(http.StatusMethodNotAllowed, "method not allowed"), status: http.StatusMethodNotAllowed, message: "method not allowed"},
		{name: "unexpected", err: errors.New("connection reset"), status: http.StatusInternalServerError, message: "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			e.HTTPErrorHandler = Error(testutil.Logger())
			e.Use(Context())
			e.GET("/boom", func(echo.Context) error { return tt.err })

			req := httptest.NewRequest(http.MethodGet, "/boom", nil)
			req.Header.Set(echo.HeaderXRequestID, "req-1")
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Contains(t, body.Message, tt.message)
			assert.Equal(t, "req-1", body.RequestID)
		})
	}
}
