package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/fwojciec/harvest"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ harvest.TargetService = (*TargetService)(nil)

// TargetService implements harvest.TargetService using SQLite.
type TargetService struct {
	db *DB
}

// NewTargetService creates a new TargetService.
func NewTargetService(db *DB) *TargetService {
	return &TargetService{db: db}
}

const targetColumns = "id, name, url, selector, mode, category, active, created_at, updated_at"

// CreateTarget creates a new target. Empty mode and category are defaulted.
func (s *TargetService) CreateTarget(ctx context.Context, target *harvest.Target) error {
	target.ApplyDefaults()
	if err := target.Validate(); err != nil {
		return err
	}

	target.ID = uuid.New().String()
	now := time.Now().UTC()
	target.CreatedAt = now
	target.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO targets (id, name, url, selector, mode, category, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, target.ID, target.Name, target.URL, target.Selector, string(target.Mode), target.Category,
		target.Active, formatTime(target.CreatedAt), formatTime(target.UpdatedAt))

	return err
}

// FindTargetByID retrieves a target by ID.
func (s *TargetService) FindTargetByID(ctx context.Context, id string) (*harvest.Target, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+targetColumns+" FROM targets WHERE id = ?", id)
	target, err := scanTarget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, harvest.Errorf(harvest.ENOTFOUND, "target not found")
	}
	if err != nil {
		return nil, err
	}
	return target, nil
}

// FindTargets retrieves targets matching the filter, oldest first.
func (s *TargetService) FindTargets(ctx context.Context, filter harvest.TargetFilter) ([]*harvest.Target, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT " + targetColumns + " FROM targets WHERE 1=1")

	if filter.ID != nil {
		query.WriteString(" AND id = ?")
		args = append(args, *filter.ID)
	}
	if filter.Name != nil {
		query.WriteString(" AND name = ?")
		args = append(args, *filter.Name)
	}
	if filter.Active != nil {
		query.WriteString(" AND active = ?")
		args = append(args, *filter.Active)
	}
	if filter.Category != nil {
		query.WriteString(" AND category = ?")
		args = append(args, *filter.Category)
	}

	query.WriteString(" ORDER BY created_at ASC, rowid ASC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	targets := []*harvest.Target{}
	for rows.Next() {
		target, err := scanTarget(rows)
		if err != nil {
			return nil, err
		}
		targets = append(targets, target)
	}

	return targets, rows.Err()
}

// UpdateTarget updates an existing target.
func (s *TargetService) UpdateTarget(ctx context.Context, id string, upd harvest.TargetUpdate) (*harvest.Target, error) {
	target, err := s.FindTargetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		target.Name = *upd.Name
	}
	if upd.URL != nil {
		target.URL = *upd.URL
	}
	if upd.Selector != nil {
		target.Selector = *upd.Selector
	}
	if upd.Mode != nil {
		target.Mode = *upd.Mode
	}
	if upd.Category != nil {
		target.Category = *upd.Category
	}
	if upd.Active != nil {
		target.Active = *upd.Active
	}

	if err := target.Validate(); err != nil {
		return nil, err
	}

	target.UpdatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx, `
		UPDATE targets
		SET name = ?, url = ?, selector = ?, mode = ?, category = ?, active = ?, updated_at = ?
		WHERE id = ?
	`, target.Name, target.URL, target.Selector, string(target.Mode), target.Category, target.Active,
		formatTime(target.UpdatedAt), id)
	if err != nil {
		return nil, err
	}

	return target, nil
}

// DeleteTarget permanently removes a target and its results.
func (s *TargetService) DeleteTarget(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM targets WHERE id = ?", id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return harvest.Errorf(harvest.ENOTFOUND, "target not found")
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTarget(row scanner) (*harvest.Target, error) {
	var target harvest.Target
	var mode, createdAt, updatedAt string

	if err := row.Scan(&target.ID, &target.Name, &target.URL, &target.Selector, &mode,
		&target.Category, &target.Active, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	target.Mode = harvest.RenderMode(mode)

	var err error
	if target.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return nil, err
	}
	if target.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
		return nil, err
	}
	return &target, nil
}
