package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "labpulse/internal/errors"
	"labpulse/internal/shared/testutil"
)

type exportQuery struct {
	Profile string `json:"profile" validate:"max=16,selection"`
	Format  string `json:"format" validate:"omitempty,oneof=csv xlsx json"`
}

func newValidation(t *testing.T) *ValidationMiddleware {
	logger, _ := testutil.NewTestLogger(t)
	return NewValidationMiddleware(logger, apierrors.NewErrorHandler(logger, false))
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name      string
		query     exportQuery
		wantField string
		wantMsg   string
	}{
		{name: "valid", query: exportQuery{Profile: "P1", Format: "csv"}},
		{name: "empty is valid", query: exportQuery{}},
		{name: "bad format", query: exportQuery{Format: "pdf"}, wantField: "format", wantMsg: "format must be one of: csv, xlsx, json"},
		{name: "too long", query: exportQuery{Profile: strings.Repeat("x", 17)}, wantField: "profile", wantMsg: "at most 16"},
		{name: "control character", query: exportQuery{Profile: "P1\x00"}, wantField: "profile", wantMsg: "control characters"},
	}

	v := newValidation(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateStruct(tt.query)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			var apiErr *apierrors.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

			details, ok := apiErr.Details.([]apierrors.ValidationError)
			require.True(t, ok)
			require.Len(t, details, 1)
			assert.Equal(t, tt.wantField, details[0].Field)
			assert.Contains(t, details[0].Message, tt.wantMsg)
		})
	}
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		body       string
		wantStatus int
	}{
		{name: "get passes", method: http.MethodGet, wantStatus: http.StatusOK},
		{name: "empty post", method: http.MethodPost, wantStatus: http.StatusOK},
		{name: "json post", method: http.MethodPost, body: `{"dir":"exports"}`, wantStatus: http.StatusOK},
		{name: "invalid json", method: http.MethodPost, body: `{"dir":`, wantStatus: http.StatusBadRequest},
		{name: "too large", method: http.MethodPost, body: `"` + strings.Repeat("a", DefaultMaxBodySize) + `"`, wantStatus: http.StatusRequestEntityTooLarge},
	}

	h := newValidation(t).ValidateRequest(okHandler)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/reload", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestContentTypeValidator(t *testing.T) {
	h := ContentTypeValidator("application/json")(okHandler)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
