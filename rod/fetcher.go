package rod

import (
	"context"
	"errors"
	"time"

	"github.com/fwojciec/harvest"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultIdleTime is how long the network must be quiet before the page is
// considered rendered.
const DefaultIdleTime = 500 * time.Millisecond

// Ensure Fetcher implements harvest.Fetcher at compile time.
var _ harvest.Fetcher = (*Fetcher)(nil)

// Fetcher renders pages in headless Chrome and hands the live page to the
// caller. Fetcher is safe for concurrent use by multiple goroutines.
type Fetcher struct {
	manager  *BrowserManager
	idleTime time.Duration
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithIdleTime sets the network quiet period awaited after load.
func WithIdleTime(d time.Duration) Option {
	return func(f *Fetcher) {
		f.idleTime = d
	}
}

// NewFetcher creates a Fetcher that opens pages in browsers from manager.
// Closing the Fetcher closes the manager.
func NewFetcher(manager *BrowserManager, opts ...Option) *Fetcher {
	f := &Fetcher{
		manager:  manager,
		idleTime: DefaultIdleTime,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch navigates to url, waits for load and network idle, and passes the
// live page to fn. The page is closed before Fetch returns.
func (f *Fetcher) Fetch(ctx context.Context, url string, fn harvest.ContentFunc) error {
	if err := ctx.Err(); err != nil {
		return fetchError(ctx, url, err)
	}

	browser, release, err := f.manager.Acquire(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return fetchError(ctx, url, err)
		}
		return err
	}
	defer release()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return fetchError(ctx, url, err)
	}
	defer page.Close()

	page = page.Context(ctx)

	if err := page.Navigate(url); err != nil {
		return fetchError(ctx, url, err)
	}

	if err := page.WaitLoad(); err != nil {
		return fetchError(ctx, url, err)
	}

	// Static assets never settle on some pages, so only XHR and documents count.
	wait := page.WaitRequestIdle(f.idleTime, nil, nil,
		[]proto.NetworkResourceType{proto.NetworkResourceTypeImage, proto.NetworkResourceTypeMedia, proto.NetworkResourceTypeFont},
	)
	wait()

	if err := ctx.Err(); err != nil {
		return fetchError(ctx, url, err)
	}

	return fn(ctx, harvest.Content{
		Mode: harvest.ModeDynamic,
		URL:  url,
		Page: &document{page: page, url: url},
	})
}

// Close releases browser resources.
func (f *Fetcher) Close() error {
	return f.manager.Close()
}

// fetchError classifies a rod failure. An expired attempt deadline is a
// timeout, everything else on the way to a loaded page is a network error.
func fetchError(ctx context.Context, url string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &harvest.FetchError{Kind: harvest.FailureTimeout, URL: url, Err: err}
	}
	return &harvest.FetchError{Kind: harvest.FailureNetwork, URL: url, Err: err}
}
