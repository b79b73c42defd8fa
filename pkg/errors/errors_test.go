package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	wrapped := fmt.Errorf("load: %w", Clone(ErrNotFound, "subject not found"))

	got := FromError(wrapped)
	assert.Equal(t, ErrNotFound.Code, got.Code)
	assert.Equal(t, "subject not found", got.Message)
	assert.Equal(t, http.StatusNotFound, got.Status)
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	got := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, got.Code)
	assert.Equal(t, http.StatusInternalServerError, got.Status)
	assert.EqualError(t, got, "internal server error: boom")
}

func TestIsCode(t *testing.T) {
	err := Wrap(errors.New("dial tcp"), ErrUpstream.Code, ErrUpstream.Status, "failed to update subject")
	assert.True(t, IsCode(err, ErrUpstream.Code))
	assert.False(t, IsCode(err, ErrNotFound.Code))
	assert.False(t, IsCode(errors.New("plain"), ErrUpstream.Code))
}

func TestCloneDoesNotMutateOriginal(t *testing.T) {
	clone := Clone(ErrValidation, "name is required")
	assert.Equal(t, "validation failed", ErrValidation.Message)
	assert.Equal(t, "name is required", clone.Message)
}
