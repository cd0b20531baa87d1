package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Unwrap(t *testing.T) {
	err := NewValidationError(ErrInvalidBodyPart, "body part is required")

	assert.Equal(t, "body part is required", err.Error())
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.True(t, errors.Is(err, ErrInvalidBodyPart))

	wrapped := fmt.Errorf("service: %w", err)
	var appErr *AppError
	assert.True(t, errors.As(wrapped, &appErr))
}

func TestAppError_FallsBackToWrappedMessage(t *testing.T) {
	err := NewAppError(ErrExerciseNotFound, "", http.StatusNotFound, false)
	assert.Equal(t, "exercise not found", err.Error())
}

func TestUpstreamError(t *testing.T) {
	err := fmt.Errorf("fetch chest: %w", &UpstreamError{StatusCode: 503})
	var up *UpstreamError
	assert.True(t, errors.As(err, &up))
	assert.Equal(t, "HTTP error! status: 503", up.Error())
}

func TestExercise_HasImage(t *testing.T) {
	assert.True(t, Exercise{Image: "https://cdn/x.png"}.HasImage())
	assert.False(t, Exercise{Image: "image_coming_soon"}.HasImage())
	assert.False(t, Exercise{}.HasImage())
}
