// Package captcha solves Cloudflare Turnstile widgets through 2Captcha.
package captcha

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	api2captcha "github.com/2captcha/2captcha-go"

	"malt-scraper/internal/config"
	"malt-scraper/internal/logging"
)

// TurnstileSolver returns a response token for a Turnstile widget
type TurnstileSolver interface {
	SolveTurnstile(ctx context.Context, siteKey, pageURL string) (string, error)
}

// TwoCaptchaSolver implements TurnstileSolver with the 2Captcha API
type TwoCaptchaSolver struct {
	client *api2captcha.Client
	logger logging.Logger
}

// NewTwoCaptchaSolver returns nil when no API key is configured
func NewTwoCaptchaSolver(cfg config.CaptchaConfig, logger logging.Logger) *TwoCaptchaSolver {
	logger = logging.OrGlobal(logger).WithField("component", "2captcha")
	if cfg.APIKey == "" {
		logger.Warn("2Captcha API key not configured, Turnstile solving disabled")
		return nil
	}

	client := api2captcha.NewClient(cfg.APIKey)
	client.DefaultTimeout = int(cfg.Timeout.Seconds())
	client.PollingInterval = 5

	logger.Info("2Captcha client configured", map[string]interface{}{
		"default_timeout":  client.DefaultTimeout,
		"polling_interval": client.PollingInterval,
	})

	return &TwoCaptchaSolver{client: client, logger: logger}
}

type solveResult struct {
	code string
	id   string
	err  error
}

// SolveTurnstile submits the widget and polls for its token. The 2Captcha
// client does not take a context, so a cancelled ctx abandons the poll.
func (s *TwoCaptchaSolver) SolveTurnstile(ctx context.Context, siteKey, pageURL string) (string, error) {
	log := s.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"site_key": siteKey,
		"page_url": pageURL,
	})
	log.Info("Solving Cloudflare Turnstile")
	start := time.Now()

	captcha := api2captcha.CloudflareTurnstile{
		SiteKey: siteKey,
		Url:     pageURL,
	}
	req := captcha.ToRequest()

	done := make(chan solveResult, 1)
	go func() {
		code, id, err := s.client.Solve(req)
		done <- solveResult{code: code, id: id, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-done:
		if res.err != nil {
			log.Error("Failed to solve Cloudflare Turnstile", map[string]interface{}{
				"captcha_id": res.id,
				"error":      res.err.Error(),
			})
			return "", fmt.Errorf("failed to solve Cloudflare Turnstile: %w", res.err)
		}
		log.Info("Solved Cloudflare Turnstile", map[string]interface{}{
			"solving_time": time.Since(start).String(),
		})
		return res.code, nil
	}
}

var turnstileKeyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`<div[^>]*class="[^"]*cf-turnstile[^"]*"[^>]*data-sitekey="([^"]+)"`),
	regexp.MustCompile(`<div[^>]*data-sitekey="([^"]+)"[^>]*class="[^"]*cf-turnstile[^"]*"`),
	regexp.MustCompile(`cf-turnstile[^>]*data-sitekey=['"]([^'"]+)['"]`),
	regexp.MustCompile(`turnstile\.render\([^)]*['"]([0-9a-zA-Z_-]{20,})['"]`),
	regexp.MustCompile(`challenges\.cloudflare\.com/cdn-cgi/challenge-platform/[^"]*/(0x[0-9a-zA-Z_-]+)/`),
	regexp.MustCompile(`challenges\.cloudflare\.com[^"]*/(0x[0-9a-zA-Z_-]+)/`),
}

// TurnstileSiteKey finds the widget site key in page markup, or ""
func TurnstileSiteKey(html string) string {
	for _, re := range turnstileKeyPatterns {
		if m := re.FindStringSubmatch(html); len(m) > 1 {
			if key := strings.TrimSpace(m[1]); len(key) > 10 {
				return key
			}
		}
	}
	return ""
}

// InjectTokenScript sets token on every Turnstile response field and fires
// the widget callback when the page registered one.
func InjectTokenScript(token string) string {
	quoted := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", "").Replace(token)
	return fmt.Sprintf(`() => {
	const token = '%s';
	let filled = 0;
	document.querySelectorAll('[name="cf-turnstile-response"], [name="g-recaptcha-response"]').forEach((el) => {
		el.value = token;
		filled++;
	});
	const widget = document.querySelector('.cf-turnstile[data-callback]');
	if (widget) {
		const cb = window[widget.getAttribute('data-callback')];
		if (typeof cb === 'function') cb(token);
	}
	return filled;
}`, quoted)
}
