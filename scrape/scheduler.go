package scrape

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fwojciec/harvest"
)

var _ harvest.ScrapeService = (*Scheduler)(nil)

// Scheduler runs batches over all active targets when its trigger fires and
// serves on-demand runs. At most one batch runs at a time; a trigger that
// fires during a batch is skipped.
type Scheduler struct {
	targets  harvest.TargetService
	results  harvest.ResultService
	runner   harvest.TargetRunner
	triggers harvest.TriggerParser
	logger   *slog.Logger

	// Sleep waits between targets. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	mu      sync.Mutex
	policy  *harvest.SchedulePolicy
	trigger harvest.Trigger

	running atomic.Bool
	wake    chan struct{}
	batches sync.WaitGroup
}

// NewScheduler returns a Scheduler using policy. Returns EINVALID if the
// policy or its schedule is invalid.
func NewScheduler(
	targets harvest.TargetService,
	results harvest.ResultService,
	runner harvest.TargetRunner,
	triggers harvest.TriggerParser,
	policy *harvest.SchedulePolicy,
	logger *slog.Logger,
) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		targets:  targets,
		results:  results,
		runner:   runner,
		triggers: triggers,
		logger:   logger,
		wake:     make(chan struct{}, 1),
	}
	if err := s.apply(policy); err != nil {
		return nil, err
	}
	return s, nil
}

// Policy returns a copy of the active policy.
func (s *Scheduler) Policy() *harvest.SchedulePolicy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.policy.Clone()
}

// Running reports whether a batch is in progress.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// Run fires batches on the trigger until ctx is cancelled. On cancellation
// it waits for the target in flight to finish and be stored, then returns.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler: started", "policy", s.Policy().String())
	defer s.logger.Info("scheduler: stopped")

	for {
		s.mu.Lock()
		trigger := s.trigger
		s.mu.Unlock()

		now := s.now()
		next := trigger.Next(now)
		if next.IsZero() {
			s.logger.Warn("scheduler: schedule has no next run, waiting for reconfigure")
			select {
			case <-ctx.Done():
				s.batches.Wait()
				return nil
			case <-s.wake:
				continue
			}
		}
		s.logger.Info("scheduler: next run", "at", next.Format(time.RFC3339))
		timer := time.NewTimer(next.Sub(now))

		select {
		case <-ctx.Done():
			timer.Stop()
			s.batches.Wait()
			return nil
		case <-s.wake:
			timer.Stop()
		case <-timer.C:
			s.fire(ctx)
		}
	}
}

// fire starts a batch in the background unless one is already running.
func (s *Scheduler) fire(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("scheduler: trigger skipped, batch still running")
		return
	}
	s.batches.Add(1)
	go func() {
		defer s.batches.Done()
		defer s.running.Store(false)
		_, _ = s.runBatch(ctx)
	}()
}

// RunAll runs a batch now and waits for it to finish.
// Returns ECONFLICT if a batch is already running.
func (s *Scheduler) RunAll(ctx context.Context) (*harvest.RunBatch, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("scheduler: run skipped, batch still running")
		return nil, harvest.Errorf(harvest.ECONFLICT, "a batch is already running")
	}
	defer s.running.Store(false)
	return s.runBatch(ctx)
}

// RunTarget runs a single active target immediately and stores the result.
// It does not take part in batch exclusion.
func (s *Scheduler) RunTarget(ctx context.Context, id string) (*harvest.ExtractionResult, error) {
	target, err := s.targets.FindTargetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !target.Active {
		return nil, harvest.Errorf(harvest.ENOTFOUND, "target %q is not active", id)
	}

	res := s.runner.Run(ctx, target, s.Policy())
	if err := s.results.CreateResult(context.WithoutCancel(ctx), res); err != nil {
		return res, err
	}
	s.logResult(res)
	return res, nil
}

// Reconfigure swaps the policy and recomputes the next fire time. A batch
// in flight keeps the policy it started with.
func (s *Scheduler) Reconfigure(_ context.Context, policy *harvest.SchedulePolicy) error {
	if err := s.apply(policy); err != nil {
		return err
	}
	s.logger.Info("scheduler: reconfigured", "policy", policy.String())
	select {
	case s.wake <- struct{}{}:
	default:
	}
	return nil
}

func (s *Scheduler) apply(policy *harvest.SchedulePolicy) error {
	if policy == nil {
		return harvest.Errorf(harvest.EINVALID, "policy required")
	}
	if err := policy.Validate(); err != nil {
		return err
	}
	trigger, err := s.triggers.Parse(policy.ScrapeTime)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.policy = policy.Clone()
	s.trigger = trigger
	return nil
}

// runBatch enumerates active targets once and runs them in order. Each
// result is stored as soon as it is produced. Cancelling ctx stops the batch
// after the current target.
func (s *Scheduler) runBatch(ctx context.Context) (*harvest.RunBatch, error) {
	policy := s.Policy()
	batch := &harvest.RunBatch{StartedAt: s.now(), Results: []*harvest.ExtractionResult{}}

	active := true
	targets, err := s.targets.FindTargets(ctx, harvest.TargetFilter{Active: &active})
	if err != nil {
		s.logger.Error("scheduler: enumerate targets", "err", err)
		return nil, err
	}
	s.logger.Info("scheduler: batch started", "targets", len(targets))

	// In-flight work outlives cancellation so its result is not lost.
	work := context.WithoutCancel(ctx)
	for i, target := range targets {
		if i > 0 {
			if err := s.sleep(ctx, policy.InterTargetDelay); err != nil {
				break
			}
		}
		if ctx.Err() != nil {
			break
		}

		res := s.runner.Run(work, target, policy)
		if err := s.results.CreateResult(work, res); err != nil {
			s.logger.Error("scheduler: store result", "target", target.ID, "err", err)
		}
		s.logResult(res)
		batch.Add(res)
	}

	batch.FinishedAt = s.now()
	if ctx.Err() != nil && len(batch.Results) < len(targets) {
		s.logger.Info("scheduler: batch stopped early", "completed", len(batch.Results), "targets", len(targets))
	}
	s.logger.Info("scheduler: batch finished",
		"succeeded", batch.Succeeded,
		"empty", batch.Empty,
		"failed", batch.Failed,
		"duration", batch.FinishedAt.Sub(batch.StartedAt),
	)
	return batch, nil
}

func (s *Scheduler) logResult(res *harvest.ExtractionResult) {
	attrs := []any{
		"target", res.TargetID,
		"name", res.TargetName,
		"outcome", res.Outcome,
		"fragments", len(res.Fragments),
		"attempts", res.Attempts,
	}
	if res.Outcome == harvest.OutcomeFailed {
		attrs = append(attrs, "failure", res.Failure, "err", res.Error)
		s.logger.Warn("scheduler: target failed", attrs...)
		return
	}
	s.logger.Info("scheduler: target done", attrs...)
}

func (s *Scheduler) sleep(ctx context.Context, d time.Duration) error {
	if s.Sleep != nil {
		return s.Sleep(ctx, d)
	}
	return Sleep(ctx, d)
}

func (s *Scheduler) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
