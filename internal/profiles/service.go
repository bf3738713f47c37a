package profiles

import (
	"context"
	"errors"
	"fmt"

	"malt-scraper/internal/logging"
	"malt-scraper/internal/scraper"
	"malt-scraper/pkg/models"
	"malt-scraper/pkg/utils"
)

// Messages of the API envelope
const (
	MessageFromDatabase = "Profile found in database"
	MessageScraped      = "Profile scraped successfully"
)

// Result is a processed profile with the message describing where it came from
type Result struct {
	Record  *models.ProfileRecord
	Profile *models.Profile
	Message string
	// Cached is true when the record was served without a browser
	Cached bool
}

// Service runs acquisitions behind the status guard
type Service struct {
	repo     Repository
	acquirer scraper.Acquirer
	locker   Locker
	logger   logging.Logger
}

// NewService builds a service. locker may be nil to rely on the status guard alone.
func NewService(repo Repository, acquirer scraper.Acquirer, locker Locker, logger logging.Logger) *Service {
	return &Service{repo: repo, acquirer: acquirer, locker: locker, logger: logging.OrGlobal(logger)}
}

// ProcessProfile returns the stored record of a SCRAPPED profile, otherwise
// acquires it. A failed acquisition leaves the profile in ERROR and the typed
// error is returned unchanged.
func (s *Service) ProcessProfile(ctx context.Context, rawURL string) (*Result, error) {
	target, err := utils.ParseMaltProfileURL(rawURL)
	if err != nil {
		return nil, err
	}
	log := s.logger.WithContext(ctx).WithField("profile_id", target.ProfileID)

	if s.locker != nil {
		unlock, ok, err := s.locker.TryLock(ctx, target.ProfileID)
		if err != nil {
			return nil, fmt.Errorf("failed to lock profile %s: %w", target.ProfileID, err)
		}
		if !ok {
			log.Warn("Profile acquisition already running")
			return nil, utils.NewAcquisitionInProgressError(target.ProfileID)
		}
		defer unlock()
	}

	profile, err := s.repo.FindByProfileID(ctx, target.ProfileID)
	switch {
	case errors.Is(err, ErrNotFound):
		profile, err = s.repo.Create(ctx, target.ProfileID, target.URL)
		if err != nil {
			return nil, err
		}
		log.Info("Profile created")
	case err != nil:
		return nil, err
	}

	if profile.Status == models.ProfileStatusScrapped && profile.Record != nil {
		log.Info("Profile already scraped, serving stored record")
		return &Result{Record: profile.Record, Profile: profile, Message: MessageFromDatabase, Cached: true}, nil
	}

	if err := s.repo.SetStatus(ctx, profile, models.ProfileStatusInProgress); err != nil {
		return nil, err
	}

	record, err := s.acquirer.Acquire(ctx, target.URL)
	if err != nil {
		s.markError(ctx, profile, log)
		return nil, err
	}

	// the browser work is done; its result is stored even if the caller has gone
	persist := context.WithoutCancel(ctx)
	if err := s.repo.ApplyFields(persist, profile, record); err != nil {
		s.markError(ctx, profile, log)
		return nil, fmt.Errorf("failed to store profile %s: %w", target.ProfileID, err)
	}
	if err := s.repo.SetStatus(persist, profile, models.ProfileStatusScrapped); err != nil {
		s.markError(ctx, profile, log)
		return nil, fmt.Errorf("failed to mark profile %s scrapped: %w", target.ProfileID, err)
	}

	log.Info("Profile stored", map[string]interface{}{"status": string(profile.Status)})
	return &Result{Record: record, Profile: profile, Message: MessageScraped}, nil
}

// markError moves profile to ERROR with a context that outlives the request
func (s *Service) markError(ctx context.Context, profile *models.Profile, log logging.Logger) {
	if err := s.repo.SetStatus(context.WithoutCancel(ctx), profile, models.ProfileStatusError); err != nil {
		log.Error("Failed to record ERROR status", map[string]interface{}{"error": err.Error()})
	}
}

// GetProfile returns the stored profile or a NotFoundError
func (s *Service) GetProfile(ctx context.Context, profileID string) (*models.Profile, error) {
	profile, err := s.repo.FindByProfileID(ctx, profileID)
	if errors.Is(err, ErrNotFound) {
		return nil, utils.NewNotFoundError(fmt.Sprintf("profile %s", profileID))
	}
	return profile, err
}

// ListProfiles returns stored profiles filtered by status
func (s *Service) ListProfiles(ctx context.Context, status models.ProfileStatus, limit int) ([]*models.Profile, error) {
	return s.repo.List(ctx, status, limit)
}
