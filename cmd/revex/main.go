package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/revex"
	"github.com/fwojciec/revex/fs"
	"github.com/fwojciec/revex/gemini"
	"github.com/fwojciec/revex/goquery"
	rxhttp "github.com/fwojciec/revex/http"
	"github.com/fwojciec/revex/llm"
	rxopenai "github.com/fwojciec/revex/openai"
	"github.com/fwojciec/revex/rod"
	"github.com/fwojciec/revex/scrape"
	rxslog "github.com/fwojciec/revex/slog"
	"github.com/fwojciec/revex/sqlite"
	"google.golang.org/genai"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path for the rule cache. Set before calling Run().
	DBPath string

	// Env files loaded before flags are parsed. Earlier files win.
	EnvFiles []string

	// SQLite database used by the rule cache.
	DB *sqlite.DB

	// Completer, if set, replaces the configured model provider.
	Completer revex.Completer

	closers []io.Closer
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath:   defaultDBPath(),
		EnvFiles: []string{".env.local", ".env"},
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	var errs []error
	for i := len(m.closers) - 1; i >= 0; i-- {
		errs = append(errs, m.closers[i].Close())
	}
	m.closers = nil
	if m.DB != nil {
		errs = append(errs, m.DB.Close())
		m.DB = nil
	}
	return errors.Join(errs...)
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if err := loadEnvFiles(m.EnvFiles); err != nil {
		return err
	}

	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("revex"),
		kong.Description("Extract product reviews from any page by letting a language model find the locators."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'revex --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	command := strings.Fields(kongCtx.Command())[0]

	deps.Logger = newLogger(stderr, cli.LogFormat, cli.Verbose)
	defer m.Close()

	var flags *SessionFlags
	switch command {
	case "serve":
		flags = &cli.Serve.SessionFlags
	case "extract":
		flags = &cli.Extract.SessionFlags
	}

	if flags == nil || !flags.NoCache {
		m.DB = sqlite.NewDB(m.DBPath)
		if err := m.DB.Open(); err != nil {
			fmt.Fprintf(stderr, "Hint: Set REVEX_DB to use a different database path\n")
			return fmt.Errorf("failed to open database at %q: %w", m.DBPath, err)
		}
		deps.RuleSets = rxslog.NewLoggingRuleSetService(sqlite.NewRuleSetService(m.DB), deps.Logger)
	}

	if flags != nil {
		cfg, err := NewConfig(*flags)
		if err != nil {
			return err
		}
		if cfg.APIKey == "" && m.Completer == nil {
			fmt.Fprintln(stderr, apiKeyHint(cfg.Provider))
			return revex.Errorf(revex.EINVALID, "%s not set", apiKeyEnv(cfg.Provider))
		}
		deps.Config = cfg

		s, err := m.newScraper(ctx, cfg, deps)
		if err != nil {
			return err
		}
		if command == "extract" && cli.Extract.Progress {
			s.OnPage = progressReporter(stderr)
		}
		if command == "extract" && cli.Extract.Out != "" {
			deps.Results = fs.NewWriter(cli.Extract.Out)
		}
		deps.Scraper = s
	}

	return kongCtx.Run(deps)
}

// newScraper wires an extraction session pipeline from cfg.
func (m *Main) newScraper(ctx context.Context, cfg *Config, deps *Dependencies) (*scrape.Scraper, error) {
	logger := deps.Logger

	completer, model, err := m.newCompleter(ctx, cfg)
	if err != nil {
		return nil, err
	}
	completer = rxslog.NewLoggingCompleter(completer, model, logger)

	browser, err := m.newBrowser(cfg, logger, deps.Stderr)
	if err != nil {
		return nil, err
	}

	paginator := scrape.NewPaginator(scrape.NewAssembler(logger), logger)
	paginator.SettleDelay = cfg.SettleDelay
	paginator.MaxPages = cfg.MaxPages

	s := &scrape.Scraper{
		Browser:     browser,
		Inferrer:    rxslog.NewLoggingInferrer(llm.NewInferrer(completer, goquery.NewReducer()), logger),
		Paginator:   paginator,
		RateLimiter: scrape.NewDomainLimiter(cfg.RateLimit),
		Timeout:     cfg.Timeout,
		RetryDelays: scrape.DefaultRetryDelays(),
		StrictRules: cfg.StrictRules,
		Logger:      logger,
	}
	if cfg.CacheRules && deps.RuleSets != nil {
		s.RuleSets = deps.RuleSets
		s.CacheTTL = cfg.CacheTTL
	}
	return s, nil
}

// newCompleter returns the completer for cfg and the model it sends requests to.
func (m *Main) newCompleter(ctx context.Context, cfg *Config) (revex.Completer, string, error) {
	if m.Completer != nil {
		return m.Completer, cfg.Model, nil
	}

	switch cfg.Provider {
	case ProviderOpenAI:
		c := rxopenai.NewCompleter(rxopenai.NewClient(cfg.APIKey, cfg.BaseURL), cfg.Model)
		return c, c.Model(), nil
	default:
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, "", fmt.Errorf("failed to connect to Gemini API: %w", err)
		}
		c := gemini.NewCompleter(client, cfg.Model)
		return c, c.Model(), nil
	}
}

func (m *Main) newBrowser(cfg *Config, logger *slog.Logger, stderr io.Writer) (revex.Browser, error) {
	if cfg.Renderer == RendererStatic {
		fetcher := rxslog.NewLoggingFetcher(rxhttp.NewFetcher(), logger)
		m.closers = append(m.closers, fetcher)
		return goquery.NewBrowser(fetcher), nil
	}

	manager, err := rod.NewBrowserManager(
		rod.WithBin(cfg.ChromeBin),
		rod.WithNoSandbox(cfg.NoSandbox),
	)
	if err != nil {
		fmt.Fprintln(stderr, "Hint: Chrome or Chromium must be installed, or use --renderer=static")
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	m.closers = append(m.closers, manager)
	return rod.NewBrowser(manager), nil
}

func newLogger(w io.Writer, format string, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func defaultDBPath() string {
	if path := os.Getenv("REVEX_DB"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "revex.db"
	}
	dir := filepath.Join(home, ".revex")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "revex.db")
}
