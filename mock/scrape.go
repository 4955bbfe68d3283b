package mock

import (
	"context"
	"time"

	"github.com/fwojciec/harvest"
)

var (
	_ harvest.Trigger       = (*Trigger)(nil)
	_ harvest.TriggerParser = (*TriggerParser)(nil)
	_ harvest.TargetRunner  = (*TargetRunner)(nil)
	_ harvest.ScrapeService = (*ScrapeService)(nil)
)

// Trigger is a mock implementation of harvest.Trigger.
type Trigger struct {
	NextFn func(t time.Time) time.Time
}

func (tr *Trigger) Next(t time.Time) time.Time {
	return tr.NextFn(t)
}

// TriggerParser is a mock implementation of harvest.TriggerParser.
type TriggerParser struct {
	ParseFn func(expr string) (harvest.Trigger, error)
}

func (p *TriggerParser) Parse(expr string) (harvest.Trigger, error) {
	return p.ParseFn(expr)
}

// TargetRunner is a mock implementation of harvest.TargetRunner.
type TargetRunner struct {
	RunFn func(ctx context.Context, target *harvest.Target, policy *harvest.SchedulePolicy) *harvest.ExtractionResult
}

func (r *TargetRunner) Run(ctx context.Context, target *harvest.Target, policy *harvest.SchedulePolicy) *harvest.ExtractionResult {
	return r.RunFn(ctx, target, policy)
}

// ScrapeService is a mock implementation of harvest.ScrapeService.
type ScrapeService struct {
	RunTargetFn   func(ctx context.Context, id string) (*harvest.ExtractionResult, error)
	RunAllFn      func(ctx context.Context) (*harvest.RunBatch, error)
	ReconfigureFn func(ctx context.Context, policy *harvest.SchedulePolicy) error
}

func (s *ScrapeService) RunTarget(ctx context.Context, id string) (*harvest.ExtractionResult, error) {
	return s.RunTargetFn(ctx, id)
}

func (s *ScrapeService) RunAll(ctx context.Context) (*harvest.RunBatch, error) {
	return s.RunAllFn(ctx)
}

func (s *ScrapeService) Reconfigure(ctx context.Context, policy *harvest.SchedulePolicy) error {
	return s.ReconfigureFn(ctx, policy)
}
