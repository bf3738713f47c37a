// Package browser wraps a single automated Chrome session behind a small capability interface.
package browser

import (
	"context"
	"time"
)

// Session is one exclusively-owned browser tab driven by a single acquisition
type Session interface {
	Navigate(ctx context.Context, url string) error
	Reload(ctx context.Context) error
	Title(ctx context.Context) (string, error)
	CurrentURL(ctx context.Context) (string, error)

	// WaitForSelector returns the first match, or nil without error when nothing
	// matched within timeout.
	WaitForSelector(ctx context.Context, selector string, timeout time.Duration) (Element, error)
	// WaitForAllSelectors waits for a first match then returns every match.
	WaitForAllSelectors(ctx context.Context, selector string, timeout time.Duration) ([]Element, error)

	// ExecuteScript evaluates a JS function expression and decodes its JSON result into out.
	ExecuteScript(ctx context.Context, script string, out interface{}) error
	HTML(ctx context.Context) (string, error)

	// Screenshot and SaveHTML are best effort: they return "" on failure and never error.
	Screenshot(ctx context.Context, label string, fullPage bool) string
	SaveHTML(ctx context.Context, label string) string

	// Close is idempotent
	Close() error
}

// Element is a handle on a matched DOM node
type Element interface {
	Visible(ctx context.Context) (bool, error)
	WaitClickable(ctx context.Context, timeout time.Duration) error
	Click(ctx context.Context) error
	Text(ctx context.Context) (string, error)
	Attribute(ctx context.Context, name string) (string, bool, error)
}

// Opener creates a session for one profile
type Opener func(ctx context.Context, profileID string) (Session, error)
