package harvest

import (
	"context"
	"time"
)

// Trigger computes the fire times of a recurring schedule.
type Trigger interface {
	// Next returns the first fire time strictly after t, or the zero time
	// if the schedule never fires again.
	Next(t time.Time) time.Time
}

// TriggerParser builds a Trigger from a ScrapeTime expression.
type TriggerParser interface {
	// Parse returns EINVALID if expr is not a valid schedule.
	Parse(expr string) (Trigger, error)
}

// TargetRunner extracts fragments from a single target.
type TargetRunner interface {
	// Run fetches and extracts target under policy. It never returns an
	// error: every failure is reported in the result. The result is not
	// persisted.
	Run(ctx context.Context, target *Target, policy *SchedulePolicy) *ExtractionResult
}

// ScrapeService runs extractions on demand and on a schedule.
type ScrapeService interface {
	// RunTarget runs one target immediately and stores its result.
	// Returns ENOTFOUND, without fetching, if the target is missing or inactive.
	RunTarget(ctx context.Context, id string) (*ExtractionResult, error)

	// RunAll runs a full batch over all active targets.
	// Returns ECONFLICT if a batch is already running.
	RunAll(ctx context.Context) (*RunBatch, error)

	// Reconfigure swaps the active policy and recomputes the next fire time.
	// Returns EINVALID if the policy or its schedule is invalid.
	Reconfigure(ctx context.Context, policy *SchedulePolicy) error
}
