package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	t.Run("without cause", func(t *testing.T) {
		err := NewNotFound("section not found")
		assert.Equal(t, "NOT_FOUND: section not found", err.Error())
	})

	t.Run("with cause", func(t *testing.T) {
		err := NewInternal("database error", errors.New("connection refused"))
		assert.Contains(t, err.Error(), "INTERNAL_ERROR")
		assert.Contains(t, err.Error(), "connection refused")
	})
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewInternal("wrapped", cause)
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{NotFound, http.StatusNotFound},
		{Conflict, http.StatusConflict},
		{Forbidden, http.StatusForbidden},
		{InvalidCredentials, http.StatusUnauthorized},
		{Unauthorized, http.StatusUnauthorized},
		{Validation, http.StatusBadRequest},
		{Expired, http.StatusBadRequest},
		{Invalid, http.StatusBadRequest},
		{PayloadTooLarge, http.StatusRequestEntityTooLarge},
		{TooManyRequests, http.StatusTooManyRequests},
		{Internal, http.StatusInternalServerError},
		{Kind("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, Status(tt.kind))
		})
	}
}

func TestAs(t *testing.T) {
	t.Run("wrapped app error", func(t *testing.T) {
		inner := NewConflict("section already exists")
		got := As(fmt.Errorf("create: %w", inner))
		assert.Same(t, inner, got)
	})

	t.Run("plain error becomes internal", func(t *testing.T) {
		cause := errors.New("boom")
		got := As(cause)
		assert.Equal(t, Internal, got.Kind)
		assert.Equal(t, cause, got.Cause)
	})
}

func TestIs(t *testing.T) {
	assert.True(t, Is(NewValidation("bad"), Validation))
	assert.False(t, Is(NewValidation("bad"), Conflict))
	assert.False(t, Is(errors.New("plain"), Validation))
}

func TestInvalidCredentialsIsUniform(t *testing.T) {
	a := NewInvalidCredentials()
	b := NewInvalidCredentials()
	assert.Equal(t, a.Message, b.Message)
	assert.Equal(t, a.Kind, b.Kind)
}
