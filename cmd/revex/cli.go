package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/revex"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx      context.Context
	Stdout   io.Writer
	Stderr   io.Writer
	Logger   *slog.Logger
	Config   *Config
	Scraper  revex.Scraper
	RuleSets revex.RuleSetService
	Results  revex.ResultWriter
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	LogFormat string `name:"log-format" enum:"text,json" default:"text" env:"REVEX_LOG_FORMAT" help:"Log format (text, json)"`
	Verbose   bool   `short:"v" env:"REVEX_VERBOSE" help:"Enable debug logging"`

	Serve   ServeCmd   `cmd:"" help:"Serve the review extraction API"`
	Extract ExtractCmd `cmd:"" help:"Extract reviews from a product page and print them as JSON"`
	Rules   RulesCmd   `cmd:"" help:"Inspect or forget cached extraction rules"`
}

// SessionFlags configure extraction sessions. They are shared by serve and extract.
type SessionFlags struct {
	Provider      string        `enum:"gemini,openai" default:"gemini" env:"REVEX_PROVIDER" help:"Model provider (gemini, openai)"`
	Model         string        `env:"REVEX_MODEL" help:"Model name (defaults to the provider's default)"`
	GeminiAPIKey  string        `name:"gemini-api-key" env:"GEMINI_API_KEY" help:"Gemini API key"`
	OpenAIAPIKey  string        `name:"openai-api-key" env:"OPENAI_API_KEY" help:"OpenAI API key"`
	OpenAIBaseURL string        `name:"openai-base-url" env:"OPENAI_BASE_URL" help:"OpenAI-compatible API base URL"`
	Renderer      string        `enum:"chrome,static" default:"chrome" env:"REVEX_RENDERER" help:"Page renderer (chrome, static)"`
	ChromeBin     string        `name:"chrome-bin" env:"REVEX_CHROME_BIN" help:"Chrome binary (default: auto-detect)"`
	NoSandbox     bool          `name:"no-sandbox" env:"REVEX_NO_SANDBOX" help:"Disable the Chrome sandbox"`
	NoCache       bool          `name:"no-cache" env:"REVEX_NO_CACHE" help:"Always infer rules, never use the rule cache"`
	CacheTTL      time.Duration `name:"cache-ttl" default:"24h" env:"REVEX_CACHE_TTL" help:"How long inferred rules are reused"`
	Timeout       time.Duration `default:"5m" env:"REVEX_SESSION_TIMEOUT" help:"Deadline for one extraction session"`
	SettleDelay   time.Duration `name:"settle-delay" default:"2s" help:"Wait after activating the next control"`
	MaxPages      int           `name:"max-pages" default:"50" help:"Maximum pages per session"`
	RateLimit     float64       `name:"rate-limit" default:"1" help:"Sessions per second per host (0 disables)"`
	StrictRules   bool          `name:"strict-rules" env:"REVEX_STRICT_RULES" help:"Fail when any locator fell back to its default"`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	SessionFlags `embed:""`

	Addr        string `default:":8080" env:"REVEX_ADDR" help:"Listen address"`
	MaxSessions int64  `name:"max-sessions" default:"4" env:"REVEX_MAX_SESSIONS" help:"Concurrent extraction sessions"`
}

// ExtractCmd is the "extract" subcommand.
type ExtractCmd struct {
	SessionFlags `embed:""`

	URL      string `arg:"" help:"Product page URL"`
	Pretty   bool   `help:"Indent JSON output"`
	Progress bool   `short:"p" help:"Report reviews per page on stderr"`
	Out      string `short:"o" type:"path" help:"Write the result as a JSON file below this directory instead of stdout"`
}

// RulesCmd groups the rule cache subcommands.
type RulesCmd struct {
	Show   RulesShowCmd   `cmd:"" help:"Show cached rules for a host"`
	Forget RulesForgetCmd `cmd:"" help:"Delete cached rules for a host"`
}

// RulesShowCmd is the "rules show" subcommand.
type RulesShowCmd struct {
	Host string `arg:"" help:"Site host, e.g. shop.example.com"`
}

// RulesForgetCmd is the "rules forget" subcommand.
type RulesForgetCmd struct {
	Host string `arg:"" help:"Site host, e.g. shop.example.com"`
}
