package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"malt-scraper/internal/config"
	"malt-scraper/internal/llm/processors"
	"malt-scraper/internal/logging"
	"malt-scraper/internal/scraper/extract"
)

// ClaudeProvider recovers profile landmarks with Anthropic's Claude
type ClaudeProvider struct {
	client      anthropic.Client
	config      config.LLMConfig
	htmlCleaner *processors.HTMLCleaner
	logger      logging.Logger
}

// NewClaudeProvider creates a provider. Extra options go to the API client.
func NewClaudeProvider(cfg config.LLMConfig, logger logging.Logger, opts ...option.RequestOption) *ClaudeProvider {
	opts = append([]option.RequestOption{option.WithAPIKey(cfg.APIKey)}, opts...)

	return &ClaudeProvider{
		client:      anthropic.NewClient(opts...),
		config:      cfg,
		htmlCleaner: processors.NewHTMLCleaner(),
		logger:      logging.OrGlobal(logger),
	}
}

func (cp *ClaudeProvider) model() anthropic.Model {
	if cp.config.Model == "" {
		return anthropic.ModelClaude3_7SonnetLatest
	}
	return anthropic.Model(cp.config.Model)
}

// ExtractLandmarks asks Claude for the full name and headline shown on the page
func (cp *ClaudeProvider) ExtractLandmarks(ctx context.Context, html, url string) (*extract.Landmarks, error) {
	start := time.Now()
	log := cp.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"url":      url,
		"provider": "claude",
	})
	log.Info("Recovering landmarks with Claude", map[string]interface{}{"html_length": len(html)})

	content, err := cp.htmlCleaner.ExtractProfileContent(html)
	if err != nil {
		return nil, fmt.Errorf("failed to clean HTML: %w", err)
	}

	// 3 chars per token keeps the prompt well under the context window
	if limit := cp.config.MaxTokens * 3; limit > 0 && len(content) > limit {
		content = truncateRunes(content, limit) + "..."
		log.Debug("Content truncated to fit token limits")
	}

	response, err := cp.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       cp.model(),
		MaxTokens:   int64(cp.maxTokens()),
		Temperature: anthropic.Float(float64(cp.config.Temperature)),
		Messages: []anthropic.MessageParam{{
			Content: []anthropic.ContentBlockParamUnion{{
				OfText: &anthropic.TextBlockParam{Text: buildLandmarkPrompt(content, url)},
			}},
			Role: anthropic.MessageParamRoleUser,
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call Claude API: %w", err)
	}

	var text string
	for _, block := range response.Content {
		if t := block.AsText().Text; t != "" {
			text = t
			break
		}
	}

	landmarks, err := ParseLandmarks(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Claude response: %w", err)
	}

	log.Info("Landmark recovery completed", map[string]interface{}{
		"fullname":        landmarks.FullName,
		"headline":        landmarks.Headline,
		"processing_time": time.Since(start).String(),
	})
	return landmarks, nil
}

func (cp *ClaudeProvider) maxTokens() int {
	if cp.config.MaxTokens > 0 {
		return cp.config.MaxTokens
	}
	return 1024
}

func buildLandmarkPrompt(content, url string) string {
	return fmt.Sprintf(`You read freelancer profile pages from a marketplace. Find the freelancer's full name and professional headline in the content below and return them as a JSON object with exactly these fields:

{
  "fullname": "string - the person's full name as displayed",
  "headline": "string - the professional title shown next to the name"
}

IMPORTANT RULES:
1. Return ONLY valid JSON, no additional text or explanation
2. Use an empty string "" for a field that is not present
3. Copy the text as displayed, do not translate or invent it
4. If the content is a verification, error or cookie page rather than a profile, return both fields empty

PROFILE URL: %s

PAGE CONTENT:
%s`, url, content)
}

// ParseLandmarks decodes a model reply, tolerating a markdown code fence
func ParseLandmarks(text string) (*extract.Landmarks, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("empty response")
	}

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
		text = strings.TrimSpace(text)
	}

	var landmarks extract.Landmarks
	if err := json.Unmarshal([]byte(text), &landmarks); err != nil {
		return nil, fmt.Errorf("invalid JSON %q: %w", text, err)
	}
	landmarks.FullName = strings.TrimSpace(landmarks.FullName)
	landmarks.Headline = strings.TrimSpace(landmarks.Headline)
	return &landmarks, nil
}

// IsHealthy only checks configuration; a live probe would bill a request
func (cp *ClaudeProvider) IsHealthy(ctx context.Context) error {
	if cp.config.APIKey == "" {
		return errors.New("Claude API key not configured, set ANTHROPIC_API_KEY")
	}
	return ctx.Err()
}

func (cp *ClaudeProvider) Name() string {
	return "claude"
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
