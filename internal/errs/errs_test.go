package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindMatching(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
	}{
		{"conflict", Conflict("duplicate invite"), ErrConflict},
		{"not found", NotFound("no such token"), ErrNotFound},
		{"expired", Expired("past deadline"), ErrExpired},
		{"invalid state", InvalidState("already accepted"), ErrInvalidState},
		{"storage", Storage(errors.New("connection refused"), "query"), ErrStorage},
		{"validation", Validation("missing email"), ErrValidation},
	}

	kinds := []error{ErrConflict, ErrNotFound, ErrExpired, ErrInvalidState, ErrStorage, ErrValidation}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(tt.err, tt.kind))
			for _, other := range kinds {
				if other == tt.kind {
					continue
				}
				assert.False(t, errors.Is(tt.err, other), "must not match %v", other)
			}
		})
	}
}

func TestStoragePreservesCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := Storage(cause, "create invite")

	require.ErrorIs(t, err, cause)
	assert.Equal(t, "create invite: dial tcp: connection refused", err.Error())
}

func TestMessageWithoutCause(t *testing.T) {
	assert.Equal(t, "missing email", Validation("missing email").Error())
}
