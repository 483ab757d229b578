package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_StatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want int
	}{
		{"not found", NewNotFound("Doctor", nil), http.StatusNotFound},
		{"bad request", NewBadRequest("Invalid doctor ID", nil), http.StatusBadRequest},
		{"validation", NewValidation([]string{"Name must be at least 3 characters long"}), http.StatusBadRequest},
		{"conflict", NewConflict("Email already registered", "email", nil), http.StatusConflict},
		{"invalid session", NewInvalidSession(nil), http.StatusBadRequest},
		{"internal", NewInternal(errors.New("db down")), http.StatusInternalServerError},
		{"payload too large", NewPayloadTooLarge("Request body too large"), http.StatusRequestEntityTooLarge},
		{"rate limited", NewTooManyRequests(), http.StatusTooManyRequests},
		{"timeout", NewTimeout(nil), http.StatusGatewayTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.StatusCode())
		})
	}
}

func TestAppError_ErrorWrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewInternal(cause)

	assert.Equal(t, "Internal server error: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestAsAndHasCode(t *testing.T) {
	wrapped := fmt.Errorf("complete registration: %w", NewInvalidSession(nil))

	appErr, ok := As(wrapped)
	assert.True(t, ok)
	assert.Equal(t, ErrInvalidSession, appErr.Code)
	assert.True(t, HasCode(wrapped, ErrInvalidSession))
	assert.False(t, HasCode(wrapped, ErrConflict))

	_, ok = As(errors.New("plain"))
	assert.False(t, ok)
}
