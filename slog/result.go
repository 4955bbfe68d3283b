package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/harvest"
)

// Ensure LoggingResultService implements harvest.ResultService.
var _ harvest.ResultService = (*LoggingResultService)(nil)

// LoggingResultService wraps a ResultService with debug logging of writes.
type LoggingResultService struct {
	next   harvest.ResultService
	logger *slog.Logger
}

// NewLoggingResultService creates a new LoggingResultService.
func NewLoggingResultService(next harvest.ResultService, logger *slog.Logger) *LoggingResultService {
	return &LoggingResultService{next: next, logger: logger}
}

// CreateResult delegates to the wrapped service and logs the operation.
func (s *LoggingResultService) CreateResult(ctx context.Context, result *harvest.ExtractionResult) (err error) {
	defer func(begin time.Time) {
		s.logger.Debug("store result",
			"target", result.TargetID,
			"outcome", result.Outcome,
			"fragments", len(result.Fragments),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.CreateResult(ctx, result)
}

// FindResults delegates to the wrapped service.
func (s *LoggingResultService) FindResults(ctx context.Context, filter harvest.ResultFilter) ([]*harvest.ExtractionResult, error) {
	return s.next.FindResults(ctx, filter)
}
