package mock

import (
	"context"

	"github.com/fwojciec/harvest"
)

var (
	_ harvest.Fetcher     = (*Fetcher)(nil)
	_ harvest.Page        = (*Page)(nil)
	_ harvest.RateLimiter = (*RateLimiter)(nil)
)

// Fetcher is a mock implementation of harvest.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string, fn harvest.ContentFunc) error
	CloseFn func() error
}

func (f *Fetcher) Fetch(ctx context.Context, url string, fn harvest.ContentFunc) error {
	return f.FetchFn(ctx, url, fn)
}

func (f *Fetcher) Close() error {
	return f.CloseFn()
}

// Page is a mock implementation of harvest.Page.
type Page struct {
	TextsFn func(ctx context.Context, selector string) ([]string, error)
}

func (p *Page) Texts(ctx context.Context, selector string) ([]string, error) {
	return p.TextsFn(ctx, selector)
}

// RateLimiter is a mock implementation of harvest.RateLimiter.
type RateLimiter struct {
	WaitFn func(ctx context.Context, host string) error
}

func (l *RateLimiter) Wait(ctx context.Context, host string) error {
	return l.WaitFn(ctx, host)
}
