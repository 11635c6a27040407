// AngelaMos | 2026
// response_test.go

package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestJSONErrorAppError(t *testing.T) {
	rec := httptest.NewRecorder()
	JSONError(rec, TokenRequiredError())

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "access token required", decodeError(t, rec).Error)
}

func TestJSONErrorWrappedAppError(t *testing.T) {
	rec := httptest.NewRecorder()
	JSONError(rec, fmt.Errorf("outer: %w", NotFoundError("submission")))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "submission not found", decodeError(t, rec).Error)
}

func TestJSONErrorPlainErrorIsInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	JSONError(rec, errors.New("disk full"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "disk full", decodeError(t, rec).Error)
}

func TestAppErrorUnwrap(t *testing.T) {
	err := fmt.Errorf("op: %w", TokenRejectedError(ErrTokenExpired))
	assert.True(t, errors.Is(err, ErrTokenExpired))
	assert.True(t, IsAppError(err))
}

func TestNoContent(t *testing.T) {
	rec := httptest.NewRecorder()
	NoContent(rec)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestFormatValidationError(t *testing.T) {
	type req struct {
		Email   string `json:"email"   validate:"required,email"`
		Package string `json:"package" validate:"required,oneof=starter growth"`
	}

	err := NewValidator().Struct(req{Email: "nope", Package: "gold"})
	require.Error(t, err)

	msg := FormatValidationError(err)
	assert.Contains(t, msg, "email must be a valid email address")
	assert.Contains(t, msg, "package must be one of: starter, growth")
	assert.Equal(t, "invalid request", FormatValidationError(errors.New("x")))
}
