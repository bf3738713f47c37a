package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"malt-scraper/internal/config"
	"malt-scraper/internal/logging"
	"malt-scraper/internal/scraper/extract"
)

// ErrUnavailable is returned while no healthy provider is configured
var ErrUnavailable = errors.New("LLM provider is not available")

// Manager owns the provider lifecycle and serves landmark recovery
type Manager struct {
	config   config.LLMConfig
	provider Provider
	logger   logging.Logger
	mu       sync.RWMutex
	healthy  bool
}

var _ extract.LandmarkRecoverer = (*Manager)(nil)

func NewManager(cfg config.LLMConfig, logger logging.Logger) *Manager {
	return &Manager{
		config: cfg,
		logger: logging.OrGlobal(logger).WithField("component", "llm"),
	}
}

// Start creates the provider. An unhealthy provider is not an error:
// recovery is then disabled and extraction relies on selectors alone.
func (m *Manager) Start(ctx context.Context) error {
	provider, err := NewProvider(m.config, m.logger)
	if err != nil {
		return fmt.Errorf("failed to create LLM provider: %w", err)
	}
	return m.use(ctx, provider)
}

func (m *Manager) use(ctx context.Context, provider Provider) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.provider = provider
	if m.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.config.Timeout)
		defer cancel()
	}

	if err := provider.IsHealthy(ctx); err != nil {
		m.logger.Warn("LLM provider unhealthy, landmark recovery disabled", map[string]interface{}{
			"provider": provider.Name(),
			"error":    err.Error(),
		})
		m.healthy = false
		return nil
	}

	m.healthy = true
	m.logger.Info("LLM manager started", map[string]interface{}{"provider": provider.Name()})
	return nil
}

func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.Info("Stopping LLM manager")
	m.provider = nil
	m.healthy = false
	return nil
}

// RecoverLandmarks satisfies extract.LandmarkRecoverer
func (m *Manager) RecoverLandmarks(ctx context.Context, html, url string) (*extract.Landmarks, error) {
	m.mu.RLock()
	provider := m.provider
	healthy := m.healthy
	m.mu.RUnlock()

	if provider == nil || !healthy {
		return nil, ErrUnavailable
	}

	if m.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.config.Timeout)
		defer cancel()
	}
	return provider.ExtractLandmarks(ctx, html, url)
}

func (m *Manager) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.healthy && m.provider != nil
}

// ProviderName returns "none" before Start
func (m *Manager) ProviderName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.provider != nil {
		return m.provider.Name()
	}
	return "none"
}
