package sqlite

import (
	"context"
	"time"

	"github.com/fwojciec/harvest"
)

// Compile-time interface verification.
var _ harvest.StatsService = (*StatsService)(nil)

// StatsService implements harvest.StatsService using SQLite.
type StatsService struct {
	db *DB
}

// NewStatsService creates a new StatsService.
func NewStatsService(db *DB) *StatsService {
	return &StatsService{db: db}
}

// FindStats counts targets and results. TodayData counts results scraped at
// or after since.
func (s *StatsService) FindStats(ctx context.Context, since time.Time) (*harvest.Stats, error) {
	var stats harvest.Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM targets),
			(SELECT COUNT(*) FROM targets WHERE active = 1),
			(SELECT COUNT(*) FROM results WHERE scraped_at >= ?),
			(SELECT COUNT(*) FROM results)
	`, formatTime(since)).Scan(&stats.TotalTargets, &stats.ActiveTargets, &stats.TodayData, &stats.TotalData)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
