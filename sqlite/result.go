package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fwojciec/harvest"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ harvest.ResultService = (*ResultService)(nil)

// ResultService implements harvest.ResultService using SQLite.
// Results are append-only.
type ResultService struct {
	db *DB
}

// NewResultService creates a new ResultService.
func NewResultService(db *DB) *ResultService {
	return &ResultService{db: db}
}

// CreateResult appends a result and assigns its ID. The hash is recomputed
// from the stored fragments; a zero ScrapedAt is set to the current time.
func (s *ResultService) CreateResult(ctx context.Context, result *harvest.ExtractionResult) error {
	if err := result.Validate(); err != nil {
		return err
	}
	if result.Fragments == nil {
		result.Fragments = []string{}
	}

	fragments, err := json.Marshal(result.Fragments)
	if err != nil {
		return fmt.Errorf("failed to encode fragments: %w", err)
	}

	result.ID = uuid.New().String()
	result.Hash = harvest.HashFragments(result.Fragments)
	if result.ScrapedAt.IsZero() {
		result.ScrapedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO results (id, target_id, fragments, hash, outcome, failure, status_code, error, attempts, scraped_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, result.ID, result.TargetID, string(fragments), result.Hash, string(result.Outcome), string(result.Failure),
		result.StatusCode, result.Error, result.Attempts, formatTime(result.ScrapedAt))
	if err != nil && strings.Contains(err.Error(), "FOREIGN KEY") {
		return harvest.Errorf(harvest.ENOTFOUND, "target not found")
	}
	return err
}

// FindResults retrieves results matching the filter, most recent first,
// together with the name and category of their target.
func (s *ResultService) FindResults(ctx context.Context, filter harvest.ResultFilter) ([]*harvest.ExtractionResult, error) {
	var query strings.Builder
	var args []any

	query.WriteString(`
		SELECT r.id, r.target_id, t.name, t.category, r.fragments, r.hash, r.outcome, r.failure,
			r.status_code, r.error, r.attempts, r.scraped_at
		FROM results r
		JOIN targets t ON t.id = r.target_id
		WHERE 1=1`)

	if filter.TargetID != nil {
		query.WriteString(" AND r.target_id = ?")
		args = append(args, *filter.TargetID)
	}
	if filter.Outcome != nil {
		query.WriteString(" AND r.outcome = ?")
		args = append(args, string(*filter.Outcome))
	}

	query.WriteString(" ORDER BY r.scraped_at DESC, r.rowid DESC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []*harvest.ExtractionResult{}
	for rows.Next() {
		var r harvest.ExtractionResult
		var fragments, outcome, failure, scrapedAt string

		if err := rows.Scan(&r.ID, &r.TargetID, &r.TargetName, &r.Category, &fragments, &r.Hash,
			&outcome, &failure, &r.StatusCode, &r.Error, &r.Attempts, &scrapedAt); err != nil {
			return nil, err
		}
		r.Outcome = harvest.Outcome(outcome)
		r.Failure = harvest.FailureKind(failure)

		if err := json.Unmarshal([]byte(fragments), &r.Fragments); err != nil {
			return nil, fmt.Errorf("failed to decode fragments: %w", err)
		}
		if r.ScrapedAt, err = parseTime(scrapedAt, "scraped_at"); err != nil {
			return nil, err
		}

		results = append(results, &r)
	}

	return results, rows.Err()
}
