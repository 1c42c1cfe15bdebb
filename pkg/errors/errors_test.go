package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_MessageAndUnwrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := NewExternalError("event store unavailable", cause)

	assert.Equal(t, "EXTERNAL: event store unavailable: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestTypeOf_WrappedAppError(t *testing.T) {
	err := fmt.Errorf("fetch: %w", NewValidationError("page must be >= 1"))

	assert.Equal(t, ErrorTypeValidation, TypeOf(err))
	assert.True(t, Is(err, ErrorTypeValidation))
	assert.False(t, Is(err, ErrorTypeExternal))
}

func TestTypeOf_PlainErrorIsInternal(t *testing.T) {
	assert.Equal(t, ErrorTypeInternal, TypeOf(fmt.Errorf("boom")))
}
