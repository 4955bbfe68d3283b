package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/harvest"
)

// Ensure LoggingFetcher implements harvest.Fetcher.
var _ harvest.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with debug logging.
type LoggingFetcher struct {
	next   harvest.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next harvest.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch delegates to the wrapped fetcher and logs the operation.
// The mode and byte count come from the content handed to fn.
func (f *LoggingFetcher) Fetch(ctx context.Context, url string, fn harvest.ContentFunc) (err error) {
	var mode harvest.RenderMode
	var bytes int
	defer func(begin time.Time) {
		f.logger.Debug("fetch",
			"url", url,
			"mode", mode,
			"bytes", bytes,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return f.next.Fetch(ctx, url, func(ctx context.Context, c harvest.Content) error {
		mode = c.Mode
		bytes = len(c.HTML)
		return fn(ctx, c)
	})
}

// Close delegates to the wrapped fetcher.
func (f *LoggingFetcher) Close() error {
	return f.next.Close()
}
