package harvest

import (
	"context"
	"time"
)

// Outcome classifies a single extraction run.
type Outcome string

const (
	OutcomeOK     Outcome = "ok"
	OutcomeEmpty  Outcome = "empty"
	OutcomeFailed Outcome = "failed"
)

// FailureKind describes why a run ended in OutcomeFailed.
type FailureKind string

const (
	FailureNone        FailureKind = ""
	FailureNetwork     FailureKind = "network"
	FailureHTTPStatus  FailureKind = "http_status"
	FailureTimeout     FailureKind = "timeout"
	FailureBadSelector FailureKind = "bad_selector"
	FailureInternal    FailureKind = "internal"
)

// ExtractionResult is the immutable record of one run against one target.
type ExtractionResult struct {
	ID         string      `json:"id"`
	TargetID   string      `json:"targetId"`
	TargetName string      `json:"targetName,omitempty"`
	Category   string      `json:"category,omitempty"`
	Fragments  []string    `json:"data"`
	Hash       string      `json:"hash,omitempty"`
	Outcome    Outcome     `json:"outcome"`
	Failure    FailureKind `json:"failure,omitempty"`
	StatusCode int         `json:"statusCode,omitempty"`
	Error      string      `json:"error,omitempty"`
	Attempts   int         `json:"attempts"`
	ScrapedAt  time.Time   `json:"scrapedAt"`
}

// Validate returns an error if the result contains invalid fields.
func (r *ExtractionResult) Validate() error {
	if r.TargetID == "" {
		return Errorf(EINVALID, "result target ID required")
	}
	switch r.Outcome {
	case OutcomeOK, OutcomeEmpty:
		if r.Failure != FailureNone {
			return Errorf(EINVALID, "result failure kind set on %s outcome", r.Outcome)
		}
	case OutcomeFailed:
		if r.Failure == FailureNone {
			return Errorf(EINVALID, "failed result requires a failure kind")
		}
	default:
		return Errorf(EINVALID, "invalid result outcome %q", r.Outcome)
	}
	return nil
}

// ResultService is the durable sink for extraction results.
type ResultService interface {
	// CreateResult appends a result. Results are never updated.
	CreateResult(ctx context.Context, result *ExtractionResult) error

	// FindResults retrieves results matching the filter, most recent first.
	FindResults(ctx context.Context, filter ResultFilter) ([]*ExtractionResult, error)
}

// ResultFilter represents a filter for FindResults.
type ResultFilter struct {
	TargetID *string  `json:"targetId"`
	Outcome  *Outcome `json:"outcome"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// RunBatch summarizes one pass of the scheduler over all active targets.
type RunBatch struct {
	StartedAt  time.Time           `json:"startedAt"`
	FinishedAt time.Time           `json:"finishedAt"`
	Results    []*ExtractionResult `json:"results"`
	Succeeded  int                 `json:"succeeded"`
	Empty      int                 `json:"empty"`
	Failed     int                 `json:"failed"`
}

// Add records r in the batch and updates the outcome counters.
func (b *RunBatch) Add(r *ExtractionResult) {
	b.Results = append(b.Results, r)
	switch r.Outcome {
	case OutcomeOK:
		b.Succeeded++
	case OutcomeEmpty:
		b.Empty++
	default:
		b.Failed++
	}
}

// Stats holds dashboard counters.
type Stats struct {
	TotalTargets  int `json:"totalTargets"`
	ActiveTargets int `json:"activeTargets"`
	TodayData     int `json:"todayData"`
	TotalData     int `json:"totalData"`
}

// StatsService reports aggregate counters over targets and results.
type StatsService interface {
	// FindStats returns counters, where "today" starts at the given instant.
	FindStats(ctx context.Context, since time.Time) (*Stats, error)
}
