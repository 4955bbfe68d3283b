// Package http provides the HTTP side of harvest: a static-page Fetcher and
// the JSON API server.
package http

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/fwojciec/harvest"
	"golang.org/x/net/html/charset"
)

const (
	// DefaultFetchTimeout bounds a request when the caller's context has no deadline.
	DefaultFetchTimeout = 30 * time.Second

	// DefaultMaxBytes caps the response body read into memory.
	DefaultMaxBytes = 10 * 1024 * 1024

	// DefaultUserAgent identifies harvest to target sites.
	DefaultUserAgent = "harvest/1.0 (+https://github.com/fwojciec/harvest)"
)

// Ensure Fetcher implements harvest.Fetcher at compile time.
var _ harvest.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves raw HTML with a single GET request. It does not execute
// JavaScript and never retries.
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	maxBytes  int64
	userAgent string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the request timeout used when the caller's context has no
// deadline. Defaults to DefaultFetchTimeout (30s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithMaxBytes caps the number of body bytes read. Longer bodies are truncated.
func WithMaxBytes(n int64) Option {
	return func(f *Fetcher) {
		f.maxBytes = n
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:   DefaultFetchTimeout,
		maxBytes:  DefaultMaxBytes,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}

	// The default client follows up to 10 redirects. The request deadline
	// comes from the context so a longer attempt timeout is honored.
	f.client = &http.Client{}

	return f
}

// Fetch GETs url, decodes the body to UTF-8 and passes it to fn as static content.
func (f *Fetcher) Fetch(ctx context.Context, url string, fn harvest.ContentFunc) error {
	html, err := f.get(ctx, url)
	if err != nil {
		return err
	}
	return fn(ctx, harvest.Content{Mode: harvest.ModeStatic, URL: url, HTML: html})
}

func (f *Fetcher) get(ctx context.Context, url string) (string, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", harvest.Errorf(harvest.EINVALID, "invalid URL %q: %v", url, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &harvest.FetchError{Kind: harvest.FailureNetwork, URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", &harvest.FetchError{Kind: harvest.FailureHTTPStatus, URL: url, StatusCode: resp.StatusCode}
	}

	body, err := charset.NewReader(io.LimitReader(resp.Body, f.maxBytes), resp.Header.Get("Content-Type"))
	if err != nil {
		return "", &harvest.FetchError{Kind: harvest.FailureNetwork, URL: url, StatusCode: resp.StatusCode, Err: err}
	}

	b, err := io.ReadAll(body)
	if err != nil {
		return "", &harvest.FetchError{Kind: harvest.FailureNetwork, URL: url, StatusCode: resp.StatusCode, Err: err}
	}

	return string(b), nil
}

// Close releases resources. For HTTP fetcher this closes idle connections.
func (f *Fetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}
