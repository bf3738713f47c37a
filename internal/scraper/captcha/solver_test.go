package captcha

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"malt-scraper/internal/config"
	"malt-scraper/internal/logging"
)

func TestTurnstileSiteKey(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "widget div",
			html: `<div class="cf-turnstile" data-sitekey="0x4AAAAAAADnPIDROrmt1Wwj"></div>`,
			want: "0x4AAAAAAADnPIDROrmt1Wwj",
		},
		{
			name: "attribute order reversed",
			html: `<div data-sitekey="0x4AAAAAAADnPIDROrmt1Wwj" class="main cf-turnstile"></div>`,
			want: "0x4AAAAAAADnPIDROrmt1Wwj",
		},
		{
			name: "challenge iframe",
			html: `<iframe src="https://challenges.cloudflare.com/cdn-cgi/challenge-platform/h/b/turnstile/if/ov2/av0/rcv0/0/abc12/0x4AAAAAAADnPIDROrmt1Wwj/light/normal"></iframe>`,
			want: "0x4AAAAAAADnPIDROrmt1Wwj",
		},
		{
			name: "too short",
			html: `<div class="cf-turnstile" data-sitekey="abc"></div>`,
			want: "",
		},
		{
			name: "no widget",
			html: `<html><body><h1>Jane Doe</h1></body></html>`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TurnstileSiteKey(tt.html))
		})
	}
}

func TestInjectTokenScript_EscapesToken(t *testing.T) {
	script := InjectTokenScript(`ab'c\d`)
	assert.Contains(t, script, `const token = 'ab\'c\\d';`)
}

func TestNewTwoCaptchaSolver_DisabledWithoutKey(t *testing.T) {
	assert.Nil(t, NewTwoCaptchaSolver(config.CaptchaConfig{}, logging.NewNop()))
	assert.NotNil(t, NewTwoCaptchaSolver(config.CaptchaConfig{APIKey: "key"}, logging.NewNop()))
}
