package harvest

import (
	"context"
	"fmt"
)

// Page is a live, rendered document owned by a dynamic Fetcher.
// It is only valid inside the ContentFunc it was passed to.
type Page interface {
	// Texts evaluates selector inside the document and returns the text
	// content of every match in document order, unnormalized.
	// Returns a *SelectorError if the document rejects the selector.
	Texts(ctx context.Context, selector string) ([]string, error)
}

// Content is the fetched representation of a page.
// HTML is set for ModeStatic, Page for ModeDynamic.
type Content struct {
	Mode RenderMode
	URL  string
	HTML string
	Page Page
}

// ContentFunc consumes fetched content. Content must not be retained after
// the function returns.
type ContentFunc func(ctx context.Context, c Content) error

// Fetcher retrieves page content for a URL.
type Fetcher interface {
	// Fetch retrieves url and passes its content to fn. Every resource the
	// fetch acquired is released before Fetch returns, on every path.
	// The context carries the attempt deadline. Retrieval failures are
	// returned as *FetchError; errors from fn are returned unchanged.
	Fetch(ctx context.Context, url string, fn ContentFunc) error

	// Close releases fetcher resources.
	// Must be called when the Fetcher is no longer needed.
	Close() error
}

// FetchError reports a transient retrieval failure.
type FetchError struct {
	Kind       FailureKind
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Kind == FailureHTTPStatus {
		return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.StatusCode)
	}
	if e.Err == nil {
		return fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// RateLimiter paces requests per host.
type RateLimiter interface {
	// Wait blocks until the rate limit allows a request to the host.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, host string) error
}
