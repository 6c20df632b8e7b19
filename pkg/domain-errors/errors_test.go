package derrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches own code", func(t *testing.T) {
		err := New(CodeNotFound, "invitation not found")
		assert.True(t, HasCode(err, CodeNotFound))
		assert.False(t, HasCode(err, CodeExpired))
	})

	t.Run("matches through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("redeem: %w", New(CodeAlreadyUsed, "token consumed"))
		assert.True(t, HasCode(err, CodeAlreadyUsed))
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
		assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	})
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeDependency, "principal directory unavailable")

	require.Error(t, err)
	assert.True(t, HasCode(err, CodeDependency))
	assert.ErrorIs(t, err, cause)

	assert.Nil(t, Wrap(nil, CodeDependency, "ignored"))
}

func TestMarkCritical(t *testing.T) {
	t.Run("keeps the original code", func(t *testing.T) {
		err := MarkCritical(New(CodeDependency, "principal deletion failed"))
		assert.True(t, IsCritical(err))
		assert.True(t, HasCode(err, CodeDependency))
	})

	t.Run("wraps plain errors as dependency failures", func(t *testing.T) {
		err := MarkCritical(errors.New("directory timeout"))
		assert.True(t, IsCritical(err))
		assert.True(t, HasCode(err, CodeDependency))
	})

	t.Run("non-critical by default", func(t *testing.T) {
		assert.False(t, IsCritical(New(CodeDependency, "mail down")))
	})
}
