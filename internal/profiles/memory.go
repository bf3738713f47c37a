package profiles

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"malt-scraper/pkg/models"
)

// MemoryRepository keeps profiles in process memory
type MemoryRepository struct {
	mu       sync.RWMutex
	profiles map[string]*models.Profile
	now      func() time.Time
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{profiles: make(map[string]*models.Profile), now: time.Now}
}

func (m *MemoryRepository) FindByProfileID(ctx context.Context, profileID string) (*models.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.profiles[profileID]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(p), nil
}

func (m *MemoryRepository) Create(ctx context.Context, profileID, profileURL string) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p, ok := m.profiles[profileID]; ok {
		return clone(p), nil
	}
	now := m.now().UTC()
	p := &models.Profile{
		ID:         uuid.NewString(),
		ProfileID:  profileID,
		ProfileURL: profileURL,
		Status:     models.ProfileStatusTodo,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	m.profiles[profileID] = p
	return clone(p), nil
}

func (m *MemoryRepository) SetStatus(ctx context.Context, profile *models.Profile, status models.ProfileStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[profile.ProfileID]
	if !ok {
		return ErrNotFound
	}
	p.Status = status
	p.UpdatedAt = m.now().UTC()

	profile.Status = p.Status
	profile.UpdatedAt = p.UpdatedAt
	return nil
}

func (m *MemoryRepository) ApplyFields(ctx context.Context, profile *models.Profile, record *models.ProfileRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[profile.ProfileID]
	if !ok {
		return ErrNotFound
	}
	now := m.now().UTC()
	rec := *record
	p.Record = &rec
	p.LastScrapedAt = &now
	p.UpdatedAt = now

	profile.Record = record
	profile.LastScrapedAt = p.LastScrapedAt
	profile.UpdatedAt = now
	return nil
}

func (m *MemoryRepository) List(ctx context.Context, status models.ProfileStatus, limit int) ([]*models.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.Profile, 0, len(m.profiles))
	for _, p := range m.profiles {
		if status == "" || p.Status == status {
			out = append(out, clone(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ProfileID < out[j].ProfileID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// clone copies the row so callers cannot mutate stored state. The record is shared; it is never mutated in place.
func clone(p *models.Profile) *models.Profile {
	c := *p
	if p.LastScrapedAt != nil {
		t := *p.LastScrapedAt
		c.LastScrapedAt = &t
	}
	return &c
}
