package scraper

import (
	"context"
	"fmt"

	"malt-scraper/internal/config"
	"malt-scraper/internal/llm"
	"malt-scraper/internal/logging"
	"malt-scraper/internal/scraper/browser"
	"malt-scraper/internal/scraper/captcha"
	"malt-scraper/internal/scraper/challenge"
	"malt-scraper/internal/scraper/consent"
	"malt-scraper/internal/scraper/extract"
	"malt-scraper/internal/scraper/pacing"
	"malt-scraper/internal/scraper/render"
	"malt-scraper/internal/scraper/vocabulary"
)

// Pipeline is the acquisition stack built from configuration
type Pipeline struct {
	Orchestrator *Orchestrator
	Registry     *browser.Registry
	LLM          *llm.Manager
}

// NewPipeline wires Chrome sessions, resolvers and extraction from cfg.
// Missing 2Captcha or Anthropic keys disable those steps without failing.
func NewPipeline(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Pipeline, error) {
	logger = logging.OrGlobal(logger)

	vocab, err := vocabulary.Load(cfg.Vocabulary.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load vocabulary: %w", err)
	}

	jitter := pacing.New(nil)
	windows := pacing.ProfileFromConfig(cfg.Pacing)
	registry := browser.NewRegistry(cfg.Browser.MaxSessions, logger)

	waiter := render.NewWaiter(vocab.Landmarks.Title, vocab.Landmarks.Skill,
		cfg.Render.LandmarkTimeout, jitter, windows.Settle, logger)

	var solver captcha.TurnstileSolver
	if cfg.Challenge.SolveTurnstile {
		// keep the interface nil when the solver is disabled
		if s := captcha.NewTwoCaptchaSolver(cfg.Captcha, logger); s != nil {
			solver = s
		}
	}

	llmManager := llm.NewManager(cfg.LLM, logger)
	if err := llmManager.Start(ctx); err != nil {
		return nil, err
	}

	orchestrator := NewOrchestrator(Deps{
		Opener:   browser.NewRodOpener(browser.OptionsFromConfig(cfg.Browser), cfg.Workspace.Root, logger),
		Registry: registry,
		Consent:  consent.NewResolver(vocab.ConsentSelectors, cfg.Consent.SelectorTimeout, jitter, windows.PostClick, logger),
		Challenge: challenge.NewResolver(challenge.Options{
			Selectors:       vocab.ChallengeSelectors,
			MaxAttempts:     cfg.Challenge.MaxAttempts,
			SelectorTimeout: cfg.Challenge.SelectorTimeout,
			Wait:            windows.Challenge,
			Refresh:         windows.Refresh,
			Content:         waiter,
			Solver:          solver,
		}, jitter, logger),
		Render:            waiter,
		Extractor:         extract.New(vocab, llmManager, logger),
		Jitter:            jitter,
		Pacing:            windows,
		ContentTimeout:    cfg.Render.ContentTimeout,
		ChallengeAttempts: cfg.Challenge.MaxAttempts,
	}, logger)

	logger.Info("Acquisition pipeline ready", map[string]interface{}{
		"max_sessions":     cfg.Browser.MaxSessions,
		"turnstile_solver": solver != nil,
		"llm_recovery":     llmManager.IsHealthy(),
	})

	return &Pipeline{Orchestrator: orchestrator, Registry: registry, LLM: llmManager}, nil
}

// Close force-closes every live session and stops the LLM manager
func (p *Pipeline) Close() int {
	closed := p.Registry.CloseAll()
	_ = p.LLM.Stop()
	return closed
}
