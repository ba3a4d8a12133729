package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fwojciec/revex"
	"github.com/fwojciec/revex/gemini"
	rxopenai "github.com/fwojciec/revex/openai"
	"github.com/joho/godotenv"
)

// Providers and renderers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	RendererChrome = "chrome"
	RendererStatic = "static"
)

// Config is the resolved configuration of extraction sessions.
type Config struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string

	Renderer  string
	ChromeBin string
	NoSandbox bool

	CacheRules  bool
	CacheTTL    time.Duration
	Timeout     time.Duration
	SettleDelay time.Duration
	MaxPages    int
	RateLimit   float64
	StrictRules bool
}

// NewConfig resolves flags into a Config and validates it.
func NewConfig(f SessionFlags) (*Config, error) {
	cfg := &Config{
		Provider:    f.Provider,
		Model:       f.Model,
		BaseURL:     f.OpenAIBaseURL,
		Renderer:    f.Renderer,
		ChromeBin:   f.ChromeBin,
		NoSandbox:   f.NoSandbox,
		CacheRules:  !f.NoCache,
		CacheTTL:    f.CacheTTL,
		Timeout:     f.Timeout,
		SettleDelay: f.SettleDelay,
		MaxPages:    f.MaxPages,
		RateLimit:   f.RateLimit,
		StrictRules: f.StrictRules,
	}

	switch cfg.Provider {
	case ProviderOpenAI:
		cfg.APIKey = f.OpenAIAPIKey
		if cfg.Model == "" {
			cfg.Model = rxopenai.DefaultModel
		}
	default:
		cfg.Provider = ProviderGemini
		cfg.APIKey = f.GeminiAPIKey
		if cfg.Model == "" {
			cfg.Model = gemini.DefaultModel
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting. A missing API key is
// reported by Main, which knows whether a completer was injected.
func (c *Config) Validate() error {
	if c.Renderer != RendererChrome && c.Renderer != RendererStatic {
		return revex.Errorf(revex.EINVALID, "unknown renderer %q", c.Renderer)
	}
	if c.MaxPages <= 0 {
		return revex.Errorf(revex.EINVALID, "max pages must be positive")
	}
	if c.Timeout < 0 || c.SettleDelay < 0 || c.CacheTTL < 0 {
		return revex.Errorf(revex.EINVALID, "durations must not be negative")
	}
	if c.RateLimit < 0 {
		return revex.Errorf(revex.EINVALID, "rate limit must not be negative")
	}
	return nil
}

// apiKeyHint tells the user where to get a key for provider.
func apiKeyHint(provider string) string {
	if provider == ProviderOpenAI {
		return "OPENAI_API_KEY environment variable not set. Get an API key at https://platform.openai.com/api-keys"
	}
	return "GEMINI_API_KEY environment variable not set. Get an API key at https://aistudio.google.com/apikey"
}

func apiKeyEnv(provider string) string {
	if provider == ProviderOpenAI {
		return "OPENAI_API_KEY"
	}
	return "GEMINI_API_KEY"
}

// loadEnvFiles loads each existing file in order. Variables already set are
// not overridden, so earlier files take precedence over later ones.
func loadEnvFiles(files []string) error {
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return nil
}
