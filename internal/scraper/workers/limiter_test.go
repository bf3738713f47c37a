package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"malt-scraper/internal/logging"
)

func TestLimiter_CircuitTransitions(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	l := NewLimiter(LimiterConfig{PerMinute: 60000, Burst: 100, MaxFailures: 2, ResetTimeout: time.Minute}, logging.NewNop())
	l.now = func() time.Time { return now }
	ctx := context.Background()
	blocked := errors.New("challenge still present")

	require.NoError(t, l.Wait(ctx))
	l.RecordFailure(blocked)
	assert.Equal(t, CircuitClosed, l.State())

	l.RecordFailure(blocked)
	assert.Equal(t, CircuitOpen, l.State())
	assert.ErrorIs(t, l.Wait(ctx), ErrCircuitOpen)

	now = now.Add(2 * time.Minute)
	require.NoError(t, l.Wait(ctx))
	assert.Equal(t, CircuitHalfOpen, l.State())

	// one failure while half-open reopens immediately
	l.RecordFailure(blocked)
	assert.Equal(t, CircuitOpen, l.State())

	now = now.Add(2 * time.Minute)
	require.NoError(t, l.Wait(ctx))
	l.RecordSuccess()
	assert.Equal(t, CircuitClosed, l.State())

	l.RecordFailure(blocked)
	assert.Equal(t, CircuitClosed, l.State(), "success resets the failure count")
}

func TestLimiter_WaitHonoursContext(t *testing.T) {
	l := NewLimiter(LimiterConfig{PerMinute: 1, Burst: 1}, logging.NewNop())
	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Wait(ctx))
}

func TestLimiter_Defaults(t *testing.T) {
	l := NewLimiter(LimiterConfig{}, nil)
	assert.Equal(t, 3, l.cfg.MaxFailures)
	assert.Equal(t, 5*time.Minute, l.cfg.ResetTimeout)
	assert.Equal(t, 1, l.cfg.Burst)
}

func TestCircuitState_String(t *testing.T) {
	assert.Equal(t, "closed", CircuitClosed.String())
	assert.Equal(t, "open", CircuitOpen.String())
	assert.Equal(t, "half-open", CircuitHalfOpen.String())
	assert.Equal(t, "unknown", CircuitState(9).String())
}
