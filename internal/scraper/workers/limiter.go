package workers

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"malt-scraper/internal/logging"
)

// ErrCircuitOpen is returned by Wait while the breaker refuses new acquisitions
var ErrCircuitOpen = errors.New("circuit breaker open: too many consecutive blocked acquisitions")

// CircuitState represents the state of a circuit breaker
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (cs CircuitState) String() string {
	switch cs {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// LimiterConfig configures a Limiter
type LimiterConfig struct {
	// PerMinute is the number of acquisitions started per minute
	PerMinute int
	Burst     int
	// MaxFailures consecutive counted failures open the breaker for ResetTimeout
	MaxFailures  int
	ResetTimeout time.Duration
}

// Limiter paces acquisition starts against the site and stops starting new
// ones after repeated bot-challenge failures.
type Limiter struct {
	limiter *rate.Limiter
	cfg     LimiterConfig
	logger  logging.Logger
	now     func() time.Time

	mu           sync.Mutex
	state        CircuitState
	failureCount int
	lastFailTime time.Time
}

func NewLimiter(cfg LimiterConfig, logger logging.Logger) *Limiter {
	if cfg.PerMinute <= 0 {
		cfg.PerMinute = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 3
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 5 * time.Minute
	}

	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(float64(cfg.PerMinute)/60.0), cfg.Burst),
		cfg:     cfg,
		logger:  logging.OrGlobal(logger).WithField("component", "limiter"),
		now:     time.Now,
	}
}

// Wait blocks until the next start is allowed. It fails fast while the breaker is open.
func (l *Limiter) Wait(ctx context.Context) error {
	if !l.allowed() {
		return ErrCircuitOpen
	}
	return l.limiter.Wait(ctx)
}

func (l *Limiter) allowed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.state {
	case CircuitClosed, CircuitHalfOpen:
		return true
	case CircuitOpen:
		if l.now().Sub(l.lastFailTime) > l.cfg.ResetTimeout {
			l.state = CircuitHalfOpen
			l.logger.Info("Circuit breaker transitioned to half-open")
			return true
		}
	}
	return false
}

// RecordSuccess closes a half-open breaker and resets the failure count
func (l *Limiter) RecordSuccess() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == CircuitHalfOpen {
		l.logger.Info("Circuit breaker closed after successful acquisition")
	}
	l.state = CircuitClosed
	l.failureCount = 0
}

// RecordFailure counts a failure that suggests the site is blocking us
func (l *Limiter) RecordFailure(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.failureCount++
	l.lastFailTime = l.now()

	if l.state == CircuitHalfOpen || (l.state == CircuitClosed && l.failureCount >= l.cfg.MaxFailures) {
		l.state = CircuitOpen
		l.logger.Warn("Circuit breaker opened", map[string]interface{}{
			"failures": l.failureCount,
			"error":    err.Error(),
		})
	}
}

// State returns the breaker state
func (l *Limiter) State() CircuitState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}
