package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"malt-scraper/internal/config"
	"malt-scraper/internal/logging"
	"malt-scraper/pkg/utils"
)

// Options is the anti-detection launch configuration of a session
type Options struct {
	Headless          bool
	UserAgent         string
	Platform          string
	Width             int
	Height            int
	Locale            string
	AcceptLanguage    string
	ChromeBin         string
	NavigationTimeout time.Duration
}

// OptionsFromConfig copies the browser section of the configuration
func OptionsFromConfig(cfg config.BrowserConfig) Options {
	return Options{
		Headless:          cfg.Headless,
		UserAgent:         cfg.UserAgent,
		Platform:          cfg.Platform,
		Width:             cfg.WindowWidth,
		Height:            cfg.WindowHeight,
		Locale:            cfg.Locale,
		AcceptLanguage:    cfg.AcceptLanguage,
		ChromeBin:         cfg.ChromeBin,
		NavigationTimeout: cfg.NavigationTimeout,
	}
}

// RodSession drives one stealth Chrome tab through rod
type RodSession struct {
	opts      Options
	launcher  *launcher.Launcher
	browser   *rod.Browser
	page      *rod.Page
	workspace *Workspace
	logger    logging.Logger

	closeOnce sync.Once
}

// hides navigator.webdriver and pins navigator.languages to the configured locale
const fingerprintScript = `(() => {
	Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
	Object.defineProperty(navigator, 'languages', { get: () => %s });
	window.chrome = window.chrome || { runtime: {} };
})();`

// Open launches Chrome and prepares a stealth page. Any failure here is a SessionInitError.
func Open(ctx context.Context, opts Options, ws *Workspace, logger logging.Logger) (*RodSession, error) {
	logger = logging.OrGlobal(logger)
	if err := ctx.Err(); err != nil {
		return nil, utils.NewSessionInitError(err)
	}

	l := launcher.New().
		Headless(opts.Headless).
		NoSandbox(true).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-first-run").
		Set("no-default-browser-check").
		Set("window-size", fmt.Sprintf("%d,%d", opts.Width, opts.Height))

	if opts.Locale != "" {
		l = l.Set("lang", opts.Locale)
	}
	if opts.UserAgent != "" {
		l = l.Set("user-agent", opts.UserAgent)
	}

	if chromePath := systemChromePath(opts.ChromeBin); chromePath != "" {
		l = l.Bin(chromePath)
		logger.Debug("Using system Chrome browser", map[string]interface{}{"chrome_path": chromePath})
	} else {
		logger.Warn("System Chrome not found, Rod will download browser")
	}

	controlURL, err := l.Launch()
	if err != nil {
		l.Cleanup()
		return nil, utils.NewSessionInitError(fmt.Errorf("failed to launch browser: %w", err))
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, utils.NewSessionInitError(fmt.Errorf("failed to connect to browser: %w", err))
	}

	page, err := stealth.Page(browser)
	if err != nil {
		_ = browser.Close()
		l.Kill()
		l.Cleanup()
		return nil, utils.NewSessionInitError(fmt.Errorf("failed to create stealth page: %w", err))
	}

	s := &RodSession{
		opts:      opts,
		launcher:  l,
		browser:   browser,
		page:      page,
		workspace: ws,
		logger:    logger,
	}
	s.configurePage()

	return s, nil
}

// configurePage applies viewport, UA and language overrides. Failures are logged only.
func (s *RodSession) configurePage() {
	if err := s.page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             s.opts.Width,
		Height:            s.opts.Height,
		DeviceScaleFactor: 1,
	}); err != nil {
		s.logger.Warn("Failed to set viewport", map[string]interface{}{"error": err.Error()})
	}

	if s.opts.UserAgent != "" {
		if err := s.page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      s.opts.UserAgent,
			AcceptLanguage: s.opts.AcceptLanguage,
			Platform:       s.opts.Platform,
		}); err != nil {
			s.logger.Warn("Failed to set user agent", map[string]interface{}{"error": err.Error()})
		}
	}

	if s.opts.AcceptLanguage != "" {
		if _, err := s.page.SetExtraHeaders([]string{"Accept-Language", s.opts.AcceptLanguage}); err != nil {
			s.logger.Debug("Failed to set Accept-Language header", map[string]interface{}{"error": err.Error()})
		}
	}

	languages, _ := json.Marshal(navigatorLanguages(s.opts.Locale))
	if _, err := s.page.EvalOnNewDocument(fmt.Sprintf(fingerprintScript, languages)); err != nil {
		s.logger.Warn("Failed to inject fingerprint overrides", map[string]interface{}{"error": err.Error()})
	}
}

func (s *RodSession) Navigate(ctx context.Context, url string) error {
	navCtx := ctx
	if s.opts.NavigationTimeout > 0 {
		var cancel context.CancelFunc
		navCtx, cancel = context.WithTimeout(ctx, s.opts.NavigationTimeout)
		defer cancel()
	}

	p := s.page.Context(navCtx)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("failed to wait for load of %s: %w", url, err)
	}

	s.logger.Debug("Navigated", map[string]interface{}{"url": url})
	return nil
}

func (s *RodSession) Reload(ctx context.Context) error {
	p := s.page.Context(ctx)
	if err := p.Reload(); err != nil {
		return fmt.Errorf("failed to reload page: %w", err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("failed to wait for reload: %w", err)
	}
	return nil
}

func (s *RodSession) Title(ctx context.Context) (string, error) {
	info, err := s.page.Context(ctx).Info()
	if err != nil {
		return "", fmt.Errorf("failed to read page info: %w", err)
	}
	return info.Title, nil
}

func (s *RodSession) CurrentURL(ctx context.Context) (string, error) {
	info, err := s.page.Context(ctx).Info()
	if err != nil {
		return "", fmt.Errorf("failed to read page info: %w", err)
	}
	return info.URL, nil
}

func (s *RodSession) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) (Element, error) {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	el, err := s.page.Context(waitCtx).Element(selector)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if waitCtx.Err() != nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query %q: %w", selector, err)
	}
	return &rodElement{el: el}, nil
}

func (s *RodSession) WaitForAllSelectors(ctx context.Context, selector string, timeout time.Duration) ([]Element, error) {
	first, err := s.WaitForSelector(ctx, selector, timeout)
	if err != nil || first == nil {
		return nil, err
	}

	els, err := s.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("failed to query %q: %w", selector, err)
	}

	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el})
	}
	return out, nil
}

func (s *RodSession) ExecuteScript(ctx context.Context, script string, out interface{}) error {
	res, err := s.page.Context(ctx).Eval(script)
	if err != nil {
		return fmt.Errorf("failed to evaluate script: %w", err)
	}
	if out == nil {
		return nil
	}

	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to encode script result: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode script result: %w", err)
	}
	return nil
}

func (s *RodSession) HTML(ctx context.Context) (string, error) {
	html, err := s.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("failed to get page HTML: %w", err)
	}
	return html, nil
}

func (s *RodSession) Screenshot(ctx context.Context, label string, fullPage bool) string {
	if s.workspace == nil {
		return ""
	}

	png, err := s.page.Context(ctx).Screenshot(fullPage, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		s.logger.Warn("Failed to capture screenshot", map[string]interface{}{
			"label": label,
			"error": err.Error(),
		})
		return ""
	}
	return s.workspace.SaveScreenshot(label, png)
}

func (s *RodSession) SaveHTML(ctx context.Context, label string) string {
	if s.workspace == nil {
		return ""
	}

	html, err := s.HTML(ctx)
	if err != nil {
		s.logger.Warn("Failed to snapshot page markup", map[string]interface{}{
			"label": label,
			"error": err.Error(),
		})
		return ""
	}
	return s.workspace.SaveHTML(label, html)
}

// Close tears the browser down. Safe to call repeatedly; underlying errors are logged and swallowed.
func (s *RodSession) Close() error {
	s.closeOnce.Do(func() {
		if err := s.browser.Close(); err != nil {
			s.logger.Debug("Browser close reported an error", map[string]interface{}{"error": err.Error()})
		}
		s.launcher.Kill()
		s.launcher.Cleanup()
		s.logger.Debug("Browser session closed")
	})
	return nil
}

type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Visible(ctx context.Context) (bool, error) {
	return e.el.Context(ctx).Visible()
}

func (e *rodElement) WaitClickable(ctx context.Context, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	_, err := e.el.Context(waitCtx).WaitInteractable()
	return err
}

func (e *rodElement) Click(ctx context.Context) error {
	return e.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1)
}

func (e *rodElement) Text(ctx context.Context) (string, error) {
	return e.el.Context(ctx).Text()
}

func (e *rodElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	v, err := e.el.Context(ctx).Attribute(name)
	if err != nil || v == nil {
		return "", false, err
	}
	return *v, true, nil
}

// NewRodOpener returns an Opener that creates the profile workspace under root then launches Chrome
func NewRodOpener(opts Options, root string, logger logging.Logger) Opener {
	return func(ctx context.Context, profileID string) (Session, error) {
		l := logging.OrGlobal(logger).WithField("profile_id", profileID)

		ws, err := NewWorkspace(root, profileID, l)
		if err != nil {
			// artifacts are side effects, the session can run without them
			l.Warn("Workspace unavailable", map[string]interface{}{"error": err.Error()})
			ws = nil
		}
		return Open(ctx, opts, ws, l)
	}
}

func navigatorLanguages(locale string) []string {
	if locale == "" {
		return []string{"fr-FR", "fr"}
	}
	langs := []string{locale}
	if len(locale) > 2 && locale[2] == '-' {
		langs = append(langs, locale[:2])
	}
	return langs
}

// systemChromePath prefers an explicit binary, then CHROME_BIN/CHROME_PATH, then the usual install locations
func systemChromePath(explicit string) string {
	candidates := []string{explicit, os.Getenv("CHROME_BIN"), os.Getenv("CHROME_PATH")}
	candidates = append(candidates,
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/opt/google/chrome/chrome",
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	)

	for _, path := range candidates {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
