package utils

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{nil, 200},
		{fmt.Errorf("%w: to is empty", ErrValidation), 400},
		{fmt.Errorf("%w: bad pin", ErrAuthorization), 401},
		{fmt.Errorf("%w: resume", ErrNotFound), 404},
		{fmt.Errorf("%w: no key", ErrConfiguration), 412},
		{fmt.Errorf("%w: %w: no key", ErrTransport, ErrConfiguration), 412},
		{fmt.Errorf("%w: relay 500", ErrTransport), 502},
		{fmt.Errorf("%w: disk full", ErrPersistence), 500},
		{errors.New("other"), 500},
		{BadRequestError("bad", nil), 400},
		{fmt.Errorf("wrapped: %w", NotFoundError("gone", nil)), 404},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, StatusCode(tt.err), "%v", tt.err)
	}
}

func TestAppError_Unwrap(t *testing.T) {
	err := UnauthorizedError("locked", ErrAuthorization)
	assert.ErrorIs(t, err, ErrAuthorization)
	assert.Contains(t, err.Error(), "locked")
}
