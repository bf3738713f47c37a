package pacing

import (
	"context"
	"sync"
	"time"
)

// Recorder is a Sleeper that returns immediately and remembers what it was asked to sleep.
// OnSleep, when set, runs after each recorded sleep.
type Recorder struct {
	mu      sync.Mutex
	Slept   []time.Duration
	OnSleep func(call int, d time.Duration)
}

func (r *Recorder) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	r.Slept = append(r.Slept, d)
	call := len(r.Slept)
	hook := r.OnSleep
	r.mu.Unlock()

	if hook != nil {
		hook(call, d)
	}
	return nil
}

// Calls returns how many sleeps were recorded
func (r *Recorder) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Slept)
}

// Total returns the sum of recorded sleeps
func (r *Recorder) Total() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total time.Duration
	for _, d := range r.Slept {
		total += d
	}
	return total
}
