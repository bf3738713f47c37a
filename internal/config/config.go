package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Browser    BrowserConfig    `yaml:"browser"`
	Pacing     PacingConfig     `yaml:"pacing"`
	Consent    ConsentConfig    `yaml:"consent"`
	Challenge  ChallengeConfig  `yaml:"challenge"`
	Render     RenderConfig     `yaml:"render"`
	Workspace  WorkspaceConfig  `yaml:"workspace"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Workers    WorkersConfig    `yaml:"workers"`
	Captcha    CaptchaConfig    `yaml:"captcha"`
	LLM        LLMConfig        `yaml:"llm"`
	Logging    LoggingConfig    `yaml:"logging"`
	Vocabulary VocabularyConfig `yaml:"vocabulary"`
}

type ServerConfig struct {
	Port         int           `yaml:"port"`
	Host         string        `yaml:"host"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
	// RequestTimeout bounds a single /profil call, browser work included.
	RequestTimeout time.Duration `yaml:"request_timeout"`
	RateLimit      int           `yaml:"rate_limit"` // requests per minute per client
	RateBurst      int           `yaml:"rate_burst"`
}

type BrowserConfig struct {
	Headless          bool          `yaml:"headless"`
	UserAgent         string        `yaml:"user_agent"`
	Platform          string        `yaml:"platform"`
	WindowWidth       int           `yaml:"window_width"`
	WindowHeight      int           `yaml:"window_height"`
	Locale            string        `yaml:"locale"`
	AcceptLanguage    string        `yaml:"accept_language"`
	ChromeBin         string        `yaml:"chrome_bin"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout"`
	MaxSessions       int           `yaml:"max_sessions"`
}

// Range is a [Min, Max] jitter window.
type Range struct {
	Min time.Duration `yaml:"min"`
	Max time.Duration `yaml:"max"`
}

type PacingConfig struct {
	Ordinary       Range `yaml:"ordinary"`
	Challenge      Range `yaml:"challenge"`
	PostNavigation Range `yaml:"post_navigation"`
	Refresh        Range `yaml:"refresh"`
	Settle         Range `yaml:"settle"`
	PostClick      Range `yaml:"post_click"`
}

type ConsentConfig struct {
	SelectorTimeout time.Duration `yaml:"selector_timeout"`
}

type ChallengeConfig struct {
	MaxAttempts     int           `yaml:"max_attempts"`
	SelectorTimeout time.Duration `yaml:"selector_timeout"`
	SolveTurnstile  bool          `yaml:"solve_turnstile"`
}

type RenderConfig struct {
	LandmarkTimeout time.Duration `yaml:"landmark_timeout"`
	ContentTimeout  time.Duration `yaml:"content_timeout"`
}

type WorkspaceConfig struct {
	Root string `yaml:"root"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL     string        `yaml:"url"`
	LockTTL time.Duration `yaml:"lock_ttl"`
	Timeout time.Duration `yaml:"timeout"`
}

// WorkersConfig drives batch acquisition from the CLI
type WorkersConfig struct {
	Count        int           `yaml:"count"`
	PerMinute    int           `yaml:"per_minute"`
	Burst        int           `yaml:"burst"`
	MaxFailures  int           `yaml:"max_failures"`
	ResetTimeout time.Duration `yaml:"reset_timeout"`
}

type CaptchaConfig struct {
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

type LLMConfig struct {
	Provider    string        `yaml:"provider"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

type LoggingConfig struct {
	Level    string          `yaml:"level"`
	Format   string          `yaml:"format"`
	Adapters []AdapterConfig `yaml:"adapters"`
}

type AdapterConfig struct {
	Name    string                 `yaml:"name"`
	Type    string                 `yaml:"type"`
	Enabled bool                   `yaml:"enabled"`
	Options map[string]interface{} `yaml:"options"`
}

type VocabularyConfig struct {
	// Path overrides the embedded vocabulary when set.
	Path string `yaml:"path"`
}

var (
	bracedVar = regexp.MustCompile(`\$\{([^}]+)\}`)
	bareVar   = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
)

// expandEnvVars expands ${VAR} and $VAR references. An unset ${VAR} becomes empty,
// an unset $VAR is left untouched.
func expandEnvVars(s string) string {
	s = bracedVar.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})

	return bareVar.ReplaceAllStringFunc(s, func(match string) string {
		if val := os.Getenv(match[1:]); val != "" {
			return val
		}
		return match
	})
}

// Default returns the configuration used when no file or environment overrides exist
func Default() *Config {
	c := &Config{}

	c.Server.Port = 8080
	c.Server.Host = "0.0.0.0"
	c.Server.ReadTimeout = 30 * time.Second
	c.Server.WriteTimeout = 5 * time.Minute
	c.Server.IdleTimeout = 60 * time.Second
	c.Server.RequestTimeout = 4 * time.Minute
	c.Server.RateLimit = 30
	c.Server.RateBurst = 5

	c.Browser.Headless = true
	c.Browser.UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"
	c.Browser.Platform = "MacIntel"
	c.Browser.WindowWidth = 1920
	c.Browser.WindowHeight = 1080
	c.Browser.Locale = "fr-FR"
	c.Browser.AcceptLanguage = "fr-FR,fr;q=0.9,en;q=0.8"
	c.Browser.NavigationTimeout = 60 * time.Second
	c.Browser.MaxSessions = 3

	c.Pacing.Ordinary = Range{Min: 2 * time.Second, Max: 6 * time.Second}
	c.Pacing.Challenge = Range{Min: 15 * time.Second, Max: 20 * time.Second}
	c.Pacing.PostNavigation = Range{Min: 3 * time.Second, Max: 6 * time.Second}
	c.Pacing.Refresh = Range{Min: 5 * time.Second, Max: 10 * time.Second}
	c.Pacing.Settle = Range{Min: 5 * time.Second, Max: 8 * time.Second}
	c.Pacing.PostClick = Range{Min: 1 * time.Second, Max: 2 * time.Second}

	c.Consent.SelectorTimeout = 5 * time.Second

	c.Challenge.MaxAttempts = 3
	c.Challenge.SelectorTimeout = 5 * time.Second
	c.Challenge.SolveTurnstile = true

	c.Render.LandmarkTimeout = 5 * time.Second
	c.Render.ContentTimeout = 30 * time.Second

	c.Workspace.Root = "var/malt"

	c.Database.MaxConns = 5

	c.Redis.LockTTL = 5 * time.Minute
	c.Redis.Timeout = 5 * time.Second

	c.Workers.Count = 1
	c.Workers.PerMinute = 6
	c.Workers.Burst = 1
	c.Workers.MaxFailures = 3
	c.Workers.ResetTimeout = 5 * time.Minute

	c.Captcha.Timeout = 120 * time.Second

	c.LLM.Provider = "claude"
	c.LLM.Model = "claude-3-7-sonnet-latest"
	c.LLM.MaxTokens = 1024
	c.LLM.Temperature = 0
	c.LLM.Timeout = 60 * time.Second

	c.Logging.Level = "info"
	c.Logging.Format = "json"

	return c
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	config := Default()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), config); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", configPath, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read config %s: %w", configPath, err)
		}
	}

	config.loadFromEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate rejects configurations the pipeline cannot run with
func (c *Config) Validate() error {
	ranges := map[string]Range{
		"pacing.ordinary":        c.Pacing.Ordinary,
		"pacing.challenge":       c.Pacing.Challenge,
		"pacing.post_navigation": c.Pacing.PostNavigation,
		"pacing.refresh":         c.Pacing.Refresh,
		"pacing.settle":          c.Pacing.Settle,
		"pacing.post_click":      c.Pacing.PostClick,
	}
	for name, r := range ranges {
		if r.Min < 0 || r.Min > r.Max {
			return fmt.Errorf("invalid %s range: min %s max %s", name, r.Min, r.Max)
		}
	}

	if c.Challenge.MaxAttempts <= 0 {
		return fmt.Errorf("challenge.max_attempts must be positive, got %d", c.Challenge.MaxAttempts)
	}
	if c.Browser.MaxSessions <= 0 {
		return fmt.Errorf("browser.max_sessions must be positive, got %d", c.Browser.MaxSessions)
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server.request_timeout must be positive, got %s", c.Server.RequestTimeout)
	}
	if c.Workers.Count <= 0 {
		return fmt.Errorf("workers.count must be positive, got %d", c.Workers.Count)
	}
	if strings.TrimSpace(c.Workspace.Root) == "" {
		return fmt.Errorf("workspace.root must not be empty")
	}

	return nil
}

// loadFromEnv loads configuration from environment variables
func (c *Config) loadFromEnv() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if host := os.Getenv("HOST"); host != "" {
		c.Server.Host = host
	}

	if headless := os.Getenv("MALT_HEADLESS"); headless != "" {
		c.Browser.Headless = headless == "true" || headless == "1"
	}

	if chromeBin := os.Getenv("CHROME_BIN"); chromeBin != "" {
		c.Browser.ChromeBin = chromeBin
	}

	if maxSessions := os.Getenv("MALT_MAX_SESSIONS"); maxSessions != "" {
		if n, err := strconv.Atoi(maxSessions); err == nil {
			c.Browser.MaxSessions = n
		}
	}

	if attempts := os.Getenv("MALT_CHALLENGE_ATTEMPTS"); attempts != "" {
		if n, err := strconv.Atoi(attempts); err == nil {
			c.Challenge.MaxAttempts = n
		}
	}

	if workers := os.Getenv("MALT_WORKERS"); workers != "" {
		if n, err := strconv.Atoi(workers); err == nil {
			c.Workers.Count = n
		}
	}

	if root := os.Getenv("MALT_WORKSPACE"); root != "" {
		c.Workspace.Root = root
	}

	if vocab := os.Getenv("MALT_VOCABULARY"); vocab != "" {
		c.Vocabulary.Path = vocab
	}

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		c.Database.URL = dbURL
	}

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.URL = redisURL
	}

	if lockTTL := os.Getenv("REDIS_LOCK_TTL"); lockTTL != "" {
		if ttl, err := time.ParseDuration(lockTTL); err == nil {
			c.Redis.LockTTL = ttl
		}
	}

	if captchaAPIKey := os.Getenv("TWOCAPTCHA_API_KEY"); captchaAPIKey != "" {
		c.Captcha.APIKey = captchaAPIKey
	}

	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		c.LLM.APIKey = apiKey
	}

	if model := os.Getenv("LLM_MODEL"); model != "" {
		c.LLM.Model = model
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	if logFormat := os.Getenv("LOG_FORMAT"); logFormat != "" {
		c.Logging.Format = logFormat
	}
}
