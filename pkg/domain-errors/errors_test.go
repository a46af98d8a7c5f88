package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodedErrors(t *testing.T) {
	t.Run("new error carries code and message", func(t *testing.T) {
		err := New(CodeNotFound, "contact not found")
		assert.True(t, HasCode(err, CodeNotFound))
		assert.Equal(t, "contact not found", err.Error())
	})

	t.Run("wrap keeps cause reachable", func(t *testing.T) {
		cause := errors.New("boom")
		err := Wrap(cause, CodeInternal, "failed to load contact")
		require.ErrorIs(t, err, cause)
		assert.Equal(t, "failed to load contact: boom", err.Error())
		assert.Equal(t, CodeInternal, CodeOf(err))
	})

	t.Run("wrap of nil is nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, CodeInternal, "ignored"))
	})

	t.Run("code survives fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("handler: %w", New(CodeValidation, "Name is required."))
		assert.True(t, Is(err, CodeValidation))
	})

	t.Run("uncoded errors report internal", func(t *testing.T) {
		assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
		assert.False(t, HasCode(errors.New("plain"), CodeNotFound))
	})
}
