package mock

import (
	"context"

	"github.com/fwojciec/harvest"
)

var _ harvest.PolicyService = (*PolicyService)(nil)

// PolicyService is a mock implementation of harvest.PolicyService.
type PolicyService struct {
	FindPolicyFn   func(ctx context.Context) (*harvest.SchedulePolicy, error)
	UpdatePolicyFn func(ctx context.Context, upd harvest.PolicyUpdate) (*harvest.SchedulePolicy, error)
}

func (s *PolicyService) FindPolicy(ctx context.Context) (*harvest.SchedulePolicy, error) {
	return s.FindPolicyFn(ctx)
}

func (s *PolicyService) UpdatePolicy(ctx context.Context, upd harvest.PolicyUpdate) (*harvest.SchedulePolicy, error) {
	return s.UpdatePolicyFn(ctx, upd)
}
