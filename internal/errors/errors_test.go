package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError(t *testing.T) {
	cause := stderrors.New("permission denied")

	tests := []struct {
		name     string
		err      *AppError
		wantType ErrorType
		wantMsg  string
	}{
		{name: "parsing", err: NewParsingError("failed to read runs.csv", cause), wantType: ErrTypeParsing, wantMsg: "[PARSING] failed to read runs.csv: permission denied"},
		{name: "storage", err: NewStorageError("failed to open file", cause), wantType: ErrTypeStorage, wantMsg: "[STORAGE] failed to open file: permission denied"},
		{name: "validation", err: NewAppValidationError("bad format"), wantType: ErrTypeValidation, wantMsg: "[VALIDATION] bad format"},
		{name: "not found", err: NewNotFoundError("profile P9"), wantType: ErrTypeNotFound, wantMsg: "[NOT_FOUND] profile P9 not found"},
		{name: "config", err: NewConfigError("invalid port", nil), wantType: ErrTypeConfig, wantMsg: "[CONFIG] invalid port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := stderrors.New("disk full")
	err := fmt.Errorf("load: %w", NewStorageError("write failed", cause))

	assert.ErrorIs(t, err, cause)

	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, ErrTypeStorage, appErr.Type)
}

func TestAppError_WithContext(t *testing.T) {
	err := (&AppError{Type: ErrTypeParsing, Message: "bad row"}).
		WithContext("file", "runs.csv").
		WithContext("row", 12)

	assert.Equal(t, map[string]any{"file": "runs.csv", "row": 12}, err.Context)
}

func TestAPIError(t *testing.T) {
	err := ErrValidation("format", "must be one of json csv xlsx")

	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", err.ErrorCode)
	assert.Equal(t, "Request validation failed", err.Error())
	assert.Equal(t, []ValidationError{{Field: "format", Message: "must be one of json csv xlsx"}}, err.Details)

	nf := NotFoundError("report")
	assert.Equal(t, "report not found", nf.Message)
	assert.Equal(t, http.StatusNotFound, nf.StatusCode)

	lf := LoadFailed(stderrors.New("no readable files"))
	assert.Equal(t, http.StatusUnprocessableEntity, lf.StatusCode)
	assert.Equal(t, "no readable files", lf.Details)
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()

	WriteError(w, ErrNoDataset)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "NO_DATASET", body.Error.ErrorCode)
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	problem := NewProblemDetails(http.StatusNotFound, TypeNotFound, "Not Found", "", "/api/v1/x").
		WithExtension("trace_id", "abc").
		WithExtension("status", "ignored")

	data, err := json.Marshal(problem)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, TypeNotFound, got["type"])
	assert.Equal(t, "Not Found", got["title"])
	assert.Equal(t, float64(http.StatusNotFound), got["status"], "standard members win over extensions")
	assert.Equal(t, "/api/v1/x", got["instance"])
	assert.Equal(t, "abc", got["trace_id"])
	assert.NotContains(t, got, "detail")
}

func TestProblemDetails_WithExtensionOnZeroValue(t *testing.T) {
	var problem ProblemDetails
	problem.WithExtension("k", "v")
	assert.Equal(t, "v", problem.Extensions["k"])
}
