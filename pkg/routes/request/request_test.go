package request

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/errs"
)

func newContext(method, target, body string) echo.Context {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	return echo.New().NewContext(req, httptest.NewRecorder())
}

type createRequest struct {
	Name  string `json:"name" validate:"required"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

func TestBind(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "valid", body: `{"name":"vip","color":"#FFAA00"}`},
		{name: "missing name", body: `{"color":"#FFAA00"}`, wantErr: "name is required"},
		{name: "bad color", body: `{"name":"vip","color":"orange"}`, wantErr: "color failed hexcolor validation"},
		{name: "malformed", body: `{"name":`, wantErr: "invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := Bind[createRequest](newContext(http.MethodPost, "/", tt.body))
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "vip", req.Name)
				return
			}
			require.Error(t, err)
			assert.True(t, errs.IsInvalidInput(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestQueryParams(t *testing.T) {
	c := newContext(http.MethodGet, "/?limit=5&page=x&email_only=true&source_system=GMAIL,OUTLOOK&source_system=ZOHO&from=2025-01-02T03:04:05Z", "")

	limit, err := Int(c, "limit", 10)
	require.NoError(t, err)
	assert.Equal(t, 5, limit)

	_, err = Int(c, "page", 1)
	assert.True(t, errs.IsInvalidInput(err))

	missing, err := Int(c, "offset", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, missing)

	emailOnly, err := Bool(c, "email_only")
	require.NoError(t, err)
	assert.True(t, emailOnly)

	assert.Equal(t, []string{"GMAIL", "OUTLOOK", "ZOHO"}, List(c, "source_system"))

	from, err := OptionalTime(c, "from")
	require.NoError(t, err)
	require.NotNil(t, from)
	assert.Equal(t, 2025, from.Year())

	score, err := OptionalInt(c, "min_score")
	require.NoError(t, err)
	assert.Nil(t, score)
}
