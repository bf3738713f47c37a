// Package consent dismisses cookie banners before the page is read.
package consent

import (
	"context"
	"time"

	"malt-scraper/internal/logging"
	"malt-scraper/internal/scraper/browser"
	"malt-scraper/internal/scraper/pacing"
)

// Resolver clicks the first visible accept button among an ordered selector list
type Resolver struct {
	selectors []string
	timeout   time.Duration
	jitter    *pacing.Jitter
	postClick pacing.Range
	logger    logging.Logger
}

// NewResolver builds a resolver. Selectors are tried in order, each for at most timeout.
func NewResolver(selectors []string, timeout time.Duration, jitter *pacing.Jitter, postClick pacing.Range, logger logging.Logger) *Resolver {
	if jitter == nil {
		jitter = pacing.New(nil)
	}
	return &Resolver{
		selectors: selectors,
		timeout:   timeout,
		jitter:    jitter,
		postClick: postClick,
		logger:    logging.OrGlobal(logger),
	}
}

// Resolve returns true when a banner was accepted or none was found. Selector
// errors move on to the next candidate; only a cancelled ctx yields false.
func (r *Resolver) Resolve(ctx context.Context, session browser.Session) bool {
	log := r.logger.WithContext(ctx)

	for _, selector := range r.selectors {
		if ctx.Err() != nil {
			return false
		}

		elements, err := session.WaitForAllSelectors(ctx, selector, r.timeout)
		if err != nil {
			log.Debug("Consent selector failed", map[string]interface{}{"selector": selector, "error": err.Error()})
			continue
		}

		for _, el := range elements {
			if r.tryClick(ctx, el) {
				log.Info("Cookie consent accepted", map[string]interface{}{"selector": selector})
				if _, err := r.jitter.Pause(ctx, r.postClick); err != nil {
					return false
				}
				return true
			}
		}
	}

	if ctx.Err() != nil {
		return false
	}
	log.Debug("No cookie banner found")
	return true
}

func (r *Resolver) tryClick(ctx context.Context, el browser.Element) bool {
	visible, err := el.Visible(ctx)
	if err != nil || !visible {
		return false
	}
	if err := el.WaitClickable(ctx, r.timeout); err != nil {
		return false
	}
	return el.Click(ctx) == nil
}
