package llm

import (
	"context"

	"malt-scraper/internal/scraper/extract"
)

// Provider reads profile landmarks out of page markup with a language model
type Provider interface {
	// ExtractLandmarks returns the full name and headline found in html
	ExtractLandmarks(ctx context.Context, html, url string) (*extract.Landmarks, error)

	// IsHealthy checks if the provider can take requests
	IsHealthy(ctx context.Context) error

	Name() string
}
