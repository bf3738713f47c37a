// Package render decides when a client-side rendered profile page has settled.
package render

import (
	"context"
	"time"

	"malt-scraper/internal/logging"
	"malt-scraper/internal/scraper/browser"
	"malt-scraper/internal/scraper/pacing"
)

// Waiter checks for title and skill landmarks after a randomized settle delay
type Waiter struct {
	titleSelectors  []string
	skillSelectors  []string
	landmarkTimeout time.Duration
	jitter          *pacing.Jitter
	settle          pacing.Range
	logger          logging.Logger
}

func NewWaiter(titleSelectors, skillSelectors []string, landmarkTimeout time.Duration, jitter *pacing.Jitter, settle pacing.Range, logger logging.Logger) *Waiter {
	if jitter == nil {
		jitter = pacing.New(nil)
	}
	return &Waiter{
		titleSelectors:  titleSelectors,
		skillSelectors:  skillSelectors,
		landmarkTimeout: landmarkTimeout,
		jitter:          jitter,
		settle:          settle,
		logger:          logging.OrGlobal(logger),
	}
}

// WaitForContentReady settles, then reports whether both landmarks are visible
// within timeout. Missing landmarks are reported, never raised.
func (w *Waiter) WaitForContentReady(ctx context.Context, session browser.Session, timeout time.Duration) bool {
	if _, err := w.jitter.Pause(ctx, w.settle); err != nil {
		return false
	}

	checkCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		checkCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ready := w.LandmarksPresent(checkCtx, session)
	if !ready {
		w.logger.WithContext(ctx).Warn("Content landmarks not found")
	}
	return ready
}

// LandmarksPresent checks both landmarks once, without settling
func (w *Waiter) LandmarksPresent(ctx context.Context, session browser.Session) bool {
	title := w.titleLandmark(ctx, session)
	if title == "" {
		return false
	}
	skill := w.skillLandmark(ctx, session)
	if skill == "" {
		return false
	}

	w.logger.WithContext(ctx).Debug("Content landmarks found", map[string]interface{}{
		"title_selector": title,
		"skill_selector": skill,
	})
	return true
}

// titleLandmark returns the first selector whose first match is visible
func (w *Waiter) titleLandmark(ctx context.Context, session browser.Session) string {
	for _, selector := range w.titleSelectors {
		el, err := session.WaitForSelector(ctx, selector, w.landmarkTimeout)
		if err != nil || el == nil {
			continue
		}
		if visible, err := el.Visible(ctx); err == nil && visible {
			return selector
		}
	}
	return ""
}

// skillLandmark returns the first selector with at least one visible match
func (w *Waiter) skillLandmark(ctx context.Context, session browser.Session) string {
	for _, selector := range w.skillSelectors {
		els, err := session.WaitForAllSelectors(ctx, selector, w.landmarkTimeout)
		if err != nil {
			continue
		}
		for _, el := range els {
			if visible, err := el.Visible(ctx); err == nil && visible {
				return selector
			}
		}
	}
	return ""
}
