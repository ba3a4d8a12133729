// Package rod renders review pages in headless Chrome through go-rod.
package rod

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// DefaultMaxSessions is the default number of sessions before browser recycling.
const DefaultMaxSessions = 50

// ErrManagerClosed is returned by Acquire after Close.
var ErrManagerClosed = errors.New("browser manager closed")

// BrowserManager owns the Chrome processes shared by all sessions.
// Chrome accumulates memory over time, and the baseline never returns to
// initial levels even with proper page cleanup, so after maxSessions
// sessions new sessions get a freshly launched browser. The previous browser
// is closed once its last session releases it.
//
// BrowserManager is safe for concurrent use.
type BrowserManager struct {
	mu          sync.Mutex
	current     *generation
	retired     map[*generation]struct{}
	sessions    int
	maxSessions int
	bin         string
	noSandbox   bool
	closed      bool
}

// generation is one launched browser and the sessions still using it.
type generation struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	active   int
	retired  bool
}

// ManagerOption configures a BrowserManager.
type ManagerOption func(*BrowserManager)

// WithMaxSessions sets the number of sessions before the browser is recycled.
func WithMaxSessions(n int) ManagerOption {
	return func(bm *BrowserManager) {
		bm.maxSessions = n
	}
}

// WithBin sets the Chrome binary. By default rod looks up a local Chrome or
// downloads Chromium.
func WithBin(path string) ManagerOption {
	return func(bm *BrowserManager) {
		bm.bin = path
	}
}

// WithNoSandbox disables the Chrome sandbox, which is required when running
// as root inside containers.
func WithNoSandbox(v bool) ManagerOption {
	return func(bm *BrowserManager) {
		bm.noSandbox = v
	}
}

// NewBrowserManager launches a headless Chrome browser.
// Close must be called when the BrowserManager is no longer needed.
func NewBrowserManager(opts ...ManagerOption) (*BrowserManager, error) {
	bm := &BrowserManager{
		maxSessions: DefaultMaxSessions,
		retired:     make(map[*generation]struct{}),
	}
	for _, opt := range opts {
		opt(bm)
	}

	gen, err := bm.launchBrowser()
	if err != nil {
		return nil, err
	}
	bm.current = gen
	return bm, nil
}

// Acquire returns a browser for one session. Once the session limit is
// reached a new browser is launched for this and later sessions. release
// must be called when the session ends; calling it more than once is a no-op.
func (bm *BrowserManager) Acquire() (browser *rod.Browser, release func(), err error) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.closed {
		return nil, nil, ErrManagerClosed
	}
	if bm.sessions >= bm.maxSessions {
		bm.recycleBrowser()
	}

	gen := bm.current
	bm.sessions++
	gen.active++

	var once sync.Once
	release = func() {
		once.Do(func() {
			bm.mu.Lock()
			defer bm.mu.Unlock()
			gen.active--
			if gen.retired && gen.active == 0 {
				delete(bm.retired, gen)
				_ = gen.close()
			}
		})
	}
	return gen.browser, release, nil
}

// Close releases browser resources. Close is safe to call multiple times.
func (bm *BrowserManager) Close() error {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.closed {
		return nil
	}
	bm.closed = true

	errs := []error{bm.current.close()}
	for gen := range bm.retired {
		errs = append(errs, gen.close())
		delete(bm.retired, gen)
	}
	return errors.Join(errs...)
}

// Retired returns the number of replaced browsers still used by a session.
func (bm *BrowserManager) Retired() int {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	return len(bm.retired)
}

// launchBrowser starts a new browser instance with stability flags.
func (bm *BrowserManager) launchBrowser() (*generation, error) {
	lnchr := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Set("disable-hang-monitor").
		Set("disable-blink-features", "AutomationControlled").
		NoSandbox(bm.noSandbox).
		Leakless(true).
		Headless(true)
	if bm.bin != "" {
		lnchr = lnchr.Bin(bm.bin)
	}

	u, err := lnchr.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		lnchr.Kill()
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}
	return &generation{browser: browser, launcher: lnchr}, nil
}

// recycleBrowser makes a freshly launched browser current. The old browser
// is closed now if idle, or retired until its last session releases it.
// If launching fails, the old browser stays current.
// Must be called with mu held.
func (bm *BrowserManager) recycleBrowser() {
	next, err := bm.launchBrowser()
	if err != nil {
		return
	}

	old := bm.current
	bm.current = next
	bm.sessions = 0

	if old.active == 0 {
		_ = old.close()
		return
	}
	old.retired = true
	bm.retired[old] = struct{}{}
}

// close shuts down the browser and kills its launcher. It is idempotent.
func (g *generation) close() error {
	var err error
	if g.browser != nil {
		err = g.browser.Close()
		g.browser = nil
	}
	if g.launcher != nil {
		g.launcher.Kill()
		g.launcher = nil
	}
	return err
}

// LauncherPID returns the process ID of the current browser launcher.
// This method exists for testing purposes to verify proper cleanup.
func (bm *BrowserManager) LauncherPID() int {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	if bm.current == nil || bm.current.launcher == nil {
		return 0
	}
	return bm.current.launcher.PID()
}
