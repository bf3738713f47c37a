// Package pacing draws the randomized pauses used between browser actions.
package pacing

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"malt-scraper/internal/config"
)

// Range is a closed [Min, Max] window
type Range = config.Range

// Sleeper blocks for d or until ctx is done
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// RealSleeper sleeps on a timer
type RealSleeper struct{}

func (RealSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Jitter draws uniform durations and sleeps them
type Jitter struct {
	sleeper Sleeper
	mu      sync.Mutex
	rng     *rand.Rand
}

// New returns a Jitter backed by sleeper; a nil sleeper means RealSleeper
func New(sleeper Sleeper) *Jitter {
	return NewSeeded(sleeper, time.Now().UnixNano())
}

// NewSeeded is New with a fixed seed, for reproducible draws
func NewSeeded(sleeper Sleeper, seed int64) *Jitter {
	if sleeper == nil {
		sleeper = RealSleeper{}
	}
	return &Jitter{sleeper: sleeper, rng: rand.New(rand.NewSource(seed))}
}

// Draw returns a duration uniformly distributed in [r.Min, r.Max]
func (j *Jitter) Draw(r Range) time.Duration {
	if r.Max <= r.Min {
		return r.Min
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return r.Min + time.Duration(j.rng.Int63n(int64(r.Max-r.Min)+1))
}

// Pause sleeps for a drawn duration and returns it
func (j *Jitter) Pause(ctx context.Context, r Range) (time.Duration, error) {
	d := j.Draw(r)
	return d, j.sleeper.Sleep(ctx, d)
}

// Sleep sleeps for exactly d through the underlying sleeper
func (j *Jitter) Sleep(ctx context.Context, d time.Duration) error {
	return j.sleeper.Sleep(ctx, d)
}

// Profile groups the windows used across one acquisition
type Profile struct {
	Ordinary       Range
	Challenge      Range
	PostNavigation Range
	Refresh        Range
	Settle         Range
	PostClick      Range
}

// ProfileFromConfig copies the configured windows
func ProfileFromConfig(cfg config.PacingConfig) Profile {
	return Profile{
		Ordinary:       cfg.Ordinary,
		Challenge:      cfg.Challenge,
		PostNavigation: cfg.PostNavigation,
		Refresh:        cfg.Refresh,
		Settle:         cfg.Settle,
		PostClick:      cfg.PostClick,
	}
}

// DefaultProfile mirrors the defaults in config.Default
func DefaultProfile() Profile {
	return ProfileFromConfig(config.Default().Pacing)
}
