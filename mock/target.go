package mock

import (
	"context"

	"github.com/fwojciec/harvest"
)

var _ harvest.TargetService = (*TargetService)(nil)

// TargetService is a mock implementation of harvest.TargetService.
type TargetService struct {
	CreateTargetFn   func(ctx context.Context, target *harvest.Target) error
	FindTargetByIDFn func(ctx context.Context, id string) (*harvest.Target, error)
	FindTargetsFn    func(ctx context.Context, filter harvest.TargetFilter) ([]*harvest.Target, error)
	UpdateTargetFn   func(ctx context.Context, id string, upd harvest.TargetUpdate) (*harvest.Target, error)
	DeleteTargetFn   func(ctx context.Context, id string) error
}

func (s *TargetService) CreateTarget(ctx context.Context, target *harvest.Target) error {
	return s.CreateTargetFn(ctx, target)
}

func (s *TargetService) FindTargetByID(ctx context.Context, id string) (*harvest.Target, error) {
	return s.FindTargetByIDFn(ctx, id)
}

func (s *TargetService) FindTargets(ctx context.Context, filter harvest.TargetFilter) ([]*harvest.Target, error) {
	return s.FindTargetsFn(ctx, filter)
}

func (s *TargetService) UpdateTarget(ctx context.Context, id string, upd harvest.TargetUpdate) (*harvest.Target, error) {
	return s.UpdateTargetFn(ctx, id, upd)
}

func (s *TargetService) DeleteTarget(ctx context.Context, id string) error {
	return s.DeleteTargetFn(ctx, id)
}
