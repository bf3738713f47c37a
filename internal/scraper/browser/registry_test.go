package browser_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"malt-scraper/internal/logging"
	"malt-scraper/internal/scraper/browser"
	"malt-scraper/internal/scraper/browser/browsertest"
)

func newOpener() (*browsertest.Opener, *browsertest.FakeSession) {
	session := browsertest.NewFakeSession("page")
	return &browsertest.Opener{Session: session}, session
}

func TestRegistry_ReleaseClosesOnce(t *testing.T) {
	reg := browser.NewRegistry(2, logging.NewNop())
	opener, session := newOpener()

	lease, err := reg.Acquire(context.Background(), "jdoe", opener.Open)
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Live())

	lease.Release()
	lease.Release()
	require.NoError(t, lease.Close())

	assert.Equal(t, 1, session.CloseCalls())
	assert.Equal(t, 0, reg.Live())

	stats := reg.Stats()
	assert.Equal(t, int64(1), stats.Opened)
	assert.Equal(t, int64(1), stats.Closed)
	assert.Equal(t, 2, stats.Capacity)
}

func TestRegistry_OpenFailureFreesSlot(t *testing.T) {
	reg := browser.NewRegistry(1, logging.NewNop())
	failing := &browsertest.Opener{Err: errors.New("no chrome")}

	_, err := reg.Acquire(context.Background(), "jdoe", failing.Open)
	require.Error(t, err)

	opener, _ := newOpener()
	lease, err := reg.Acquire(context.Background(), "jdoe", opener.Open)
	require.NoError(t, err)
	defer lease.Release()

	assert.Equal(t, int64(1), reg.Stats().Failed)
}

func TestRegistry_AcquireBlocksAtCapacity(t *testing.T) {
	reg := browser.NewRegistry(1, logging.NewNop())
	opener, _ := newOpener()

	held, err := reg.Acquire(context.Background(), "first", opener.Open)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = reg.Acquire(ctx, "second", opener.Open)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	acquired := make(chan *browser.Lease, 1)
	go func() {
		lease, err := reg.Acquire(context.Background(), "third", opener.Open)
		if err == nil {
			acquired <- lease
		}
	}()

	held.Release()

	select {
	case lease := <-acquired:
		lease.Release()
	case <-time.After(2 * time.Second):
		t.Fatal("waiting acquisition was not served after release")
	}
	assert.Equal(t, []string{"first", "third"}, opener.Calls())
}

func TestRegistry_CloseAll(t *testing.T) {
	reg := browser.NewRegistry(3, logging.NewNop())

	var sessions []*browsertest.FakeSession
	for _, id := range []string{"a", "b"} {
		opener, session := newOpener()
		_, err := reg.Acquire(context.Background(), id, opener.Open)
		require.NoError(t, err)
		sessions = append(sessions, session)
	}

	assert.Equal(t, 2, reg.CloseAll())
	for _, s := range sessions {
		assert.Equal(t, 1, s.CloseCalls())
	}
	assert.Equal(t, 0, reg.Live())

	opener, _ := newOpener()
	_, err := reg.Acquire(context.Background(), "late", opener.Open)
	assert.ErrorIs(t, err, browser.ErrRegistryClosed)
}
