// Package profiles keeps the acquisition status of each profile and guards
// against scraping the same profile twice.
package profiles

import (
	"context"
	"errors"

	"malt-scraper/pkg/models"
)

// ErrNotFound is returned by repositories for an unknown profile identifier
var ErrNotFound = errors.New("profile not found")

// Repository persists profiles by their external identifier
type Repository interface {
	// FindByProfileID returns ErrNotFound for an unknown identifier
	FindByProfileID(ctx context.Context, profileID string) (*models.Profile, error)
	// Create inserts a TODO profile, or returns the existing one
	Create(ctx context.Context, profileID, profileURL string) (*models.Profile, error)
	SetStatus(ctx context.Context, profile *models.Profile, status models.ProfileStatus) error
	// ApplyFields stores record on profile and stamps the scrape time
	ApplyFields(ctx context.Context, profile *models.Profile, record *models.ProfileRecord) error
	// List returns profiles, most recently updated first. An empty status lists all.
	List(ctx context.Context, status models.ProfileStatus, limit int) ([]*models.Profile, error)
}
