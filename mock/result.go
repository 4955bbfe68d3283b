package mock

import (
	"context"
	"time"

	"github.com/fwojciec/harvest"
)

var (
	_ harvest.ResultService = (*ResultService)(nil)
	_ harvest.StatsService  = (*StatsService)(nil)
)

// ResultService is a mock implementation of harvest.ResultService.
type ResultService struct {
	CreateResultFn func(ctx context.Context, result *harvest.ExtractionResult) error
	FindResultsFn  func(ctx context.Context, filter harvest.ResultFilter) ([]*harvest.ExtractionResult, error)
}

func (s *ResultService) CreateResult(ctx context.Context, result *harvest.ExtractionResult) error {
	return s.CreateResultFn(ctx, result)
}

func (s *ResultService) FindResults(ctx context.Context, filter harvest.ResultFilter) ([]*harvest.ExtractionResult, error) {
	return s.FindResultsFn(ctx, filter)
}

// StatsService is a mock implementation of harvest.StatsService.
type StatsService struct {
	FindStatsFn func(ctx context.Context, since time.Time) (*harvest.Stats, error)
}

func (s *StatsService) FindStats(ctx context.Context, since time.Time) (*harvest.Stats, error) {
	return s.FindStatsFn(ctx, since)
}
