// Package scraper drives one browser session through a profile page and
// returns the structured record read from it.
package scraper

import (
	"context"
	"time"

	"malt-scraper/internal/scraper/browser"
	"malt-scraper/internal/scraper/challenge"
	"malt-scraper/pkg/models"
)

// Acquirer turns a profile URL into a record
type Acquirer interface {
	Acquire(ctx context.Context, url string) (*models.ProfileRecord, error)
}

// ConsentHandler dismisses the cookie banner; false only when ctx ended
type ConsentHandler interface {
	Resolve(ctx context.Context, session browser.Session) bool
}

// ChallengeHandler waits out the bot-verification interstitial
type ChallengeHandler interface {
	AwaitPassage(ctx context.Context, session browser.Session) (challenge.Outcome, error)
}

// ContentWaiter reports when client-side rendering has produced the landmarks
type ContentWaiter interface {
	WaitForContentReady(ctx context.Context, session browser.Session, timeout time.Duration) bool
}

// ProfileExtractor reads the record from a ready page
type ProfileExtractor interface {
	Extract(ctx context.Context, session browser.Session, profileID, profileURL string) (*models.ProfileRecord, error)
}
