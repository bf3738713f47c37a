package llm

import (
	"fmt"

	"malt-scraper/internal/config"
	"malt-scraper/internal/llm/providers"
	"malt-scraper/internal/logging"
)

// NewProvider creates the provider named in cfg
func NewProvider(cfg config.LLMConfig, logger logging.Logger) (Provider, error) {
	switch cfg.Provider {
	case "", "claude":
		return providers.NewClaudeProvider(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}

// SupportedProviders lists the values accepted for llm.provider
func SupportedProviders() []string {
	return []string{"claude"}
}
