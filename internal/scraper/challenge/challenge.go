// Package challenge detects the bot-verification interstitial and waits it out.
package challenge

import (
	"context"
	"time"

	"malt-scraper/internal/logging"
	"malt-scraper/internal/scraper/browser"
	"malt-scraper/internal/scraper/captcha"
	"malt-scraper/internal/scraper/pacing"
)

// Outcome is the result of AwaitPassage
type Outcome int

const (
	Passed Outcome = iota
	StillBlocked
)

func (o Outcome) String() string {
	if o == Passed {
		return "passed"
	}
	return "still_blocked"
}

// ContentChecker reports whether the real page content is already showing
type ContentChecker interface {
	LandmarksPresent(ctx context.Context, session browser.Session) bool
}

// Options configures a Resolver
type Options struct {
	Selectors       []string
	MaxAttempts     int
	SelectorTimeout time.Duration
	// Wait is the pause after a detection; Refresh the pause after a reload
	Wait    pacing.Range
	Refresh pacing.Range
	Content ContentChecker
	// Solver is optional. When set, a detected Turnstile widget is solved
	// and its token injected before waiting.
	Solver captcha.TurnstileSolver
}

type Resolver struct {
	opts   Options
	jitter *pacing.Jitter
	logger logging.Logger
}

func NewResolver(opts Options, jitter *pacing.Jitter, logger logging.Logger) *Resolver {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if jitter == nil {
		jitter = pacing.New(nil)
	}
	return &Resolver{opts: opts, jitter: jitter, logger: logging.OrGlobal(logger)}
}

// IsBlocking reports whether any challenge marker is present and visible.
// Selector errors count as absent.
func (r *Resolver) IsBlocking(ctx context.Context, session browser.Session) bool {
	for _, selector := range r.opts.Selectors {
		el, err := session.WaitForSelector(ctx, selector, r.opts.SelectorTimeout)
		if err != nil || el == nil {
			continue
		}
		if visible, err := el.Visible(ctx); err == nil && visible {
			r.logger.WithContext(ctx).Debug("Challenge marker visible", map[string]interface{}{"selector": selector})
			return true
		}
	}
	return false
}

// AwaitPassage waits for the challenge to clear, reloading between attempts.
// It returns Passed as soon as the challenge is gone after a wait, or as soon
// as content is showing with no challenge. The only error is ctx's.
func (r *Resolver) AwaitPassage(ctx context.Context, session browser.Session) (Outcome, error) {
	log := r.logger.WithContext(ctx)
	blocked := false

	for attempt := 1; attempt <= r.opts.MaxAttempts; attempt++ {
		blocked = r.IsBlocking(ctx, session)
		if err := ctx.Err(); err != nil {
			return StillBlocked, err
		}

		if blocked {
			log.Info("Challenge detected, waiting", map[string]interface{}{
				"attempt":      attempt,
				"max_attempts": r.opts.MaxAttempts,
			})
			r.trySolve(ctx, session)

			waited, err := r.jitter.Pause(ctx, r.opts.Wait)
			if err != nil {
				return StillBlocked, err
			}

			blocked = r.IsBlocking(ctx, session)
			if !blocked && ctx.Err() == nil {
				log.Info("Challenge passed", map[string]interface{}{
					"attempt": attempt,
					"waited":  waited.String(),
				})
				return Passed, nil
			}
		} else if r.opts.Content != nil && r.opts.Content.LandmarksPresent(ctx, session) {
			log.Debug("Content showing, no challenge", map[string]interface{}{"attempt": attempt})
			return Passed, nil
		}

		if attempt == r.opts.MaxAttempts {
			break
		}

		log.Info("Reloading page", map[string]interface{}{"attempt": attempt, "blocked": blocked})
		if err := session.Reload(ctx); err != nil {
			if ctx.Err() != nil {
				return StillBlocked, ctx.Err()
			}
			log.Warn("Reload failed", map[string]interface{}{"error": err.Error()})
		}
		if _, err := r.jitter.Pause(ctx, r.opts.Refresh); err != nil {
			return StillBlocked, err
		}
	}

	if blocked {
		log.Warn("Challenge still present after all attempts", map[string]interface{}{
			"attempts": r.opts.MaxAttempts,
		})
		return StillBlocked, nil
	}
	// no challenge on the last look; the render wait decides the rest
	return Passed, nil
}

// trySolve injects a solved Turnstile token when a solver is configured and
// the page carries a widget. Failures only get logged.
func (r *Resolver) trySolve(ctx context.Context, session browser.Session) {
	if r.opts.Solver == nil {
		return
	}
	log := r.logger.WithContext(ctx)

	html, err := session.HTML(ctx)
	if err != nil {
		log.Warn("Challenge markup unavailable", map[string]interface{}{"error": err.Error()})
		return
	}
	siteKey := captcha.TurnstileSiteKey(html)
	if siteKey == "" {
		return
	}
	pageURL, _ := session.CurrentURL(ctx)

	token, err := r.opts.Solver.SolveTurnstile(ctx, siteKey, pageURL)
	if err != nil {
		log.Warn("Turnstile solving failed", map[string]interface{}{"error": err.Error()})
		return
	}

	var filled int
	if err := session.ExecuteScript(ctx, captcha.InjectTokenScript(token), &filled); err != nil {
		log.Warn("Turnstile token injection failed", map[string]interface{}{"error": err.Error()})
		return
	}
	log.Info("Turnstile token injected", map[string]interface{}{"fields": filled})
}
