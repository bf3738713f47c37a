package profiles

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLocker(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	unlock, ok, err := l.TryLock(ctx, "jdoe")
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = l.TryLock(ctx, "jdoe")
	require.NoError(t, err)
	assert.False(t, ok, "second holder refused")

	other, ok, err := l.TryLock(ctx, "asmith")
	require.NoError(t, err)
	assert.True(t, ok, "keys are independent")
	other()

	unlock()
	unlock()

	again, ok, err := l.TryLock(ctx, "jdoe")
	require.NoError(t, err)
	assert.True(t, ok)
	again()
}

func TestLocalLocker_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok, err := NewLocalLocker().TryLock(ctx, "jdoe")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ok)
}
