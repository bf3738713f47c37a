package providers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"malt-scraper/internal/config"
	"malt-scraper/internal/logging"
)

func TestParseLandmarks(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		fullname string
		headline string
		wantErr  bool
	}{
		{name: "plain", text: `{"fullname":"Jane Doe","headline":"Développeuse Go"}`, fullname: "Jane Doe", headline: "Développeuse Go"},
		{name: "json fence", text: "```json\n{\"fullname\":\" Jane Doe \",\"headline\":\"\"}\n```", fullname: "Jane Doe"},
		{name: "bare fence", text: "```\n{\"headline\":\"SRE\"}\n```", headline: "SRE"},
		{name: "prose", text: "The name is Jane Doe", wantErr: true},
		{name: "empty", text: "  ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLandmarks(tt.text)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.fullname, got.FullName)
			assert.Equal(t, tt.headline, got.Headline)
		})
	}
}

func TestClaudeProvider_ExtractLandmarks(t *testing.T) {
	var prompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))

		body, _ := io.ReadAll(r.Body)
		var req struct {
			Messages []struct {
				Content []struct {
					Text string `json:"text"`
				} `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.Unmarshal(body, &req))
		prompt = req.Messages[0].Content[0].Text

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_01",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-7-sonnet-latest",
			"content": [{"type": "text", "text": "{\"fullname\": \"Jane Doe\", \"headline\": \"Développeuse Go\"}"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 120, "output_tokens": 20}
		}`))
	}))
	defer srv.Close()

	p := NewClaudeProvider(config.LLMConfig{APIKey: "test-key", MaxTokens: 256}, logging.NewNop(),
		option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0))

	got, err := p.ExtractLandmarks(context.Background(),
		`<html><head><title>Jane Doe | Malt</title></head><body><h1>Jane Doe</h1></body></html>`,
		"https://www.malt.fr/profile/jdoe")
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", got.FullName)
	assert.Equal(t, "Développeuse Go", got.Headline)
	assert.Contains(t, prompt, "PROFILE URL: https://www.malt.fr/profile/jdoe")
	assert.Contains(t, prompt, "Page title: Jane Doe | Malt")
}

func TestClaudeProvider_IsHealthy(t *testing.T) {
	assert.Error(t, NewClaudeProvider(config.LLMConfig{}, logging.NewNop()).IsHealthy(context.Background()))
	assert.NoError(t, NewClaudeProvider(config.LLMConfig{APIKey: "k"}, logging.NewNop()).IsHealthy(context.Background()))
}
