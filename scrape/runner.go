// Package scrape runs extractions: the Runner handles one target with
// timeouts and retries, the Scheduler drives the Runner over all active
// targets on a recurring trigger.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fwojciec/harvest"
)

var _ harvest.TargetRunner = (*Runner)(nil)

// Runner composes a Fetcher and an Extractor for a single target.
type Runner struct {
	// Static and Dynamic fetch targets of the matching render mode.
	Static  harvest.Fetcher
	Dynamic harvest.Fetcher

	Extractor harvest.Extractor

	// Limiter paces requests per host. Optional.
	Limiter harvest.RateLimiter

	Logger *slog.Logger

	// Sleep waits between attempts. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// panicError is returned by an attempt that panicked.
type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic during extraction: %v", e.value)
}

// Run fetches and extracts target with up to policy.MaxRetries+1 attempts.
// Each attempt gets its own policy.Timeout deadline. Only fetch failures are
// retried; an empty extraction, a bad selector or an internal fault ends the
// run immediately.
func (r *Runner) Run(ctx context.Context, target *harvest.Target, policy *harvest.SchedulePolicy) *harvest.ExtractionResult {
	res := &harvest.ExtractionResult{
		TargetID:   target.ID,
		TargetName: target.Name,
		Category:   target.Category,
		Fragments:  []string{},
	}
	defer func() {
		res.Hash = harvest.HashFragments(res.Fragments)
		res.ScrapedAt = r.now().UTC()
	}()

	fetcher, err := r.fetcherFor(target.Mode)
	if err != nil {
		r.fail(res, err)
		return res
	}

	for attempt := 0; ; attempt++ {
		res.Attempts = attempt + 1

		fragments, err := r.attempt(ctx, fetcher, target, policy.Timeout)
		if err == nil {
			res.Failure, res.Error, res.StatusCode = harvest.FailureNone, "", 0
			if len(fragments) == 0 {
				res.Outcome = harvest.OutcomeEmpty
				return res
			}
			if policy.Dedup {
				fragments = harvest.DedupFragments(fragments)
			}
			res.Outcome = harvest.OutcomeOK
			res.Fragments = fragments
			return res
		}

		retryable := r.fail(res, err)
		if !retryable || attempt >= policy.MaxRetries {
			return res
		}

		delay := RetryDelay(policy.RetryDelay, attempt)
		r.logger().Warn("scrape: retrying",
			"target", target.ID,
			"url", target.URL,
			"attempt", attempt+2,
			"delay", delay,
			"err", err,
		)
		if err := r.sleep(ctx, delay); err != nil {
			return res
		}
	}
}

// attempt performs one bounded fetch+extract. Panics become errors.
func (r *Runner) attempt(ctx context.Context, fetcher harvest.Fetcher, target *harvest.Target, timeout time.Duration) (fragments []string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &panicError{value: p}
		}
	}()

	if r.Limiter != nil {
		if err := r.Limiter.Wait(ctx, hostOf(target.URL)); err != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err = fetcher.Fetch(ctx, target.URL, func(ctx context.Context, c harvest.Content) error {
		var err error
		fragments, err = r.Extractor.Extract(ctx, c, target.Selector)
		return err
	})
	if err != nil {
		return nil, err
	}
	return fragments, nil
}

// fail records err on res as a failed outcome and reports whether it is retryable.
func (r *Runner) fail(res *harvest.ExtractionResult, err error) bool {
	res.Outcome = harvest.OutcomeFailed
	res.Fragments = []string{}
	res.Error = err.Error()
	res.StatusCode = 0

	var selErr *harvest.SelectorError
	var fetchErr *harvest.FetchError
	switch {
	case errors.As(err, &selErr):
		res.Failure = harvest.FailureBadSelector
		return false
	case errors.As(err, &fetchErr):
		res.Failure = fetchErr.Kind
		res.StatusCode = fetchErr.StatusCode
		return true
	default:
		res.Failure = harvest.FailureInternal
		return false
	}
}

func (r *Runner) fetcherFor(mode harvest.RenderMode) (harvest.Fetcher, error) {
	var f harvest.Fetcher
	switch mode {
	case harvest.ModeStatic:
		f = r.Static
	case harvest.ModeDynamic:
		f = r.Dynamic
	default:
		return nil, harvest.Errorf(harvest.EINVALID, "invalid render mode %q", mode)
	}
	if f == nil {
		return nil, harvest.Errorf(harvest.EINTERNAL, "no fetcher configured for %s targets", mode)
	}
	return f, nil
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

func (r *Runner) sleep(ctx context.Context, d time.Duration) error {
	if r.Sleep != nil {
		return r.Sleep(ctx, d)
	}
	return Sleep(ctx, d)
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}
