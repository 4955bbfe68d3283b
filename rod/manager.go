// Package rod implements a dynamic harvest.Fetcher on top of a pooled
// headless Chrome driven by go-rod.
package rod

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"golang.org/x/sync/semaphore"
)

const (
	// DefaultMaxPages is the default number of pages before browser recycling.
	DefaultMaxPages = 75

	// DefaultMaxConcurrentPages is the default number of pages open at once.
	DefaultMaxConcurrentPages = 4
)

var errManagerClosed = errors.New("browser manager closed")

// BrowserManager owns a lazily launched headless browser shared by all
// fetches. Chrome accumulates memory over time and the baseline never
// returns to initial levels even with proper page cleanup, so the browser
// is recycled after maxPages pages once no page is open.
//
// BrowserManager is safe for concurrent use.
type BrowserManager struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	sem      *semaphore.Weighted

	maxPages    int
	maxOpen     int64
	pageCount   int
	openPages   int
	controlURL  string
	launchCount int

	mu     sync.Mutex
	closed atomic.Bool
}

// ManagerOption configures a BrowserManager.
type ManagerOption func(*BrowserManager)

// WithMaxPages sets the maximum number of pages before the browser is recycled.
// Defaults to 75 if not specified.
func WithMaxPages(n int) ManagerOption {
	return func(bm *BrowserManager) {
		bm.maxPages = n
	}
}

// WithMaxConcurrentPages bounds the number of pages open at the same time.
func WithMaxConcurrentPages(n int64) ManagerOption {
	return func(bm *BrowserManager) {
		bm.maxOpen = n
	}
}

// WithControlURL connects to an already running browser instead of
// launching one. Recycling is disabled for remote browsers.
func WithControlURL(u string) ManagerOption {
	return func(bm *BrowserManager) {
		bm.controlURL = u
	}
}

// NewBrowserManager creates a BrowserManager. The browser is not started
// until the first Acquire. Close must be called when the BrowserManager is no
// longer needed.
func NewBrowserManager(opts ...ManagerOption) *BrowserManager {
	bm := &BrowserManager{
		maxPages: DefaultMaxPages,
		maxOpen:  DefaultMaxConcurrentPages,
	}
	for _, opt := range opts {
		opt(bm)
	}
	if bm.maxOpen < 1 {
		bm.maxOpen = 1
	}
	bm.sem = semaphore.NewWeighted(bm.maxOpen)
	return bm
}

// Acquire reserves a page slot and returns the current browser. The returned
// release func must be called exactly once when the page is closed.
// Blocks while maxConcurrentPages pages are open.
func (bm *BrowserManager) Acquire(ctx context.Context) (*rod.Browser, func(), error) {
	if bm.closed.Load() {
		return nil, nil, errManagerClosed
	}
	if err := bm.sem.Acquire(ctx, 1); err != nil {
		return nil, nil, err
	}

	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.closed.Load() {
		bm.sem.Release(1)
		return nil, nil, errManagerClosed
	}

	if bm.browser == nil {
		if err := bm.launchBrowser(); err != nil {
			bm.sem.Release(1)
			return nil, nil, err
		}
	} else if bm.pageCount >= bm.maxPages && bm.openPages == 0 && bm.controlURL == "" {
		bm.recycleBrowser()
	}

	bm.openPages++
	browser := bm.browser

	var once sync.Once
	release := func() {
		once.Do(func() {
			bm.mu.Lock()
			bm.openPages--
			bm.pageCount++
			bm.mu.Unlock()
			bm.sem.Release(1)
		})
	}
	return browser, release, nil
}

// Close releases browser resources. Close is safe to call multiple times.
func (bm *BrowserManager) Close() error {
	if !bm.closed.CompareAndSwap(false, true) {
		return nil
	}

	bm.mu.Lock()
	defer bm.mu.Unlock()

	return bm.closeBrowser()
}

// launchBrowser starts a new browser instance with stability flags.
// Must be called with mu held.
func (bm *BrowserManager) launchBrowser() error {
	if bm.controlURL != "" {
		browser := rod.New().ControlURL(bm.controlURL)
		if err := browser.Connect(); err != nil {
			return fmt.Errorf("connecting to browser: %w", err)
		}
		bm.browser = browser
		bm.launchCount++
		return nil
	}

	lnchr := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Set("disable-hang-monitor").
		Leakless(true).
		Headless(true)

	u, err := lnchr.Launch()
	if err != nil {
		return fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		lnchr.Kill()
		return fmt.Errorf("connecting to browser: %w", err)
	}

	bm.browser = browser
	bm.launcher = lnchr
	bm.launchCount++
	return nil
}

// closeBrowser shuts down the current browser and launcher.
// Must be called with mu held.
func (bm *BrowserManager) closeBrowser() error {
	var err error
	if bm.browser != nil {
		err = bm.browser.Close()
		bm.browser = nil
	}
	if bm.launcher != nil {
		bm.launcher.Kill()
		bm.launcher = nil
	}
	return err
}

// recycleBrowser starts a fresh browser and closes the old one.
// If launching the new browser fails, the old browser is kept.
// Must be called with mu held.
func (bm *BrowserManager) recycleBrowser() {
	oldBrowser := bm.browser
	oldLauncher := bm.launcher
	bm.browser = nil
	bm.launcher = nil

	if err := bm.launchBrowser(); err != nil {
		bm.browser = oldBrowser
		bm.launcher = oldLauncher
		return
	}

	if oldBrowser != nil {
		_ = oldBrowser.Close()
	}
	if oldLauncher != nil {
		oldLauncher.Kill()
	}
	bm.pageCount = 0
}

// LauncherPID returns the process ID of the browser launcher, or 0 if no
// browser has been launched.
func (bm *BrowserManager) LauncherPID() int {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	if bm.launcher == nil {
		return 0
	}
	return bm.launcher.PID()
}

// Launches reports how many browsers have been started, recycles included.
func (bm *BrowserManager) Launches() int {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	return bm.launchCount
}
