package workflow

import (
	"fmt"

	"github.com/garyjia/doc-approval/internal/domain/entity"
)

// Resolver determines which step, if any, a principal may act on right now
type Resolver struct {
	eligibility EligibilityPolicy
	gating      GatingPolicy
}

// NewResolver creates a resolver. Nil policies fall back to RoleEligibility and FlatApproval.
func NewResolver(eligibility EligibilityPolicy, gating GatingPolicy) *Resolver {
	if eligibility == nil {
		eligibility = RoleEligibility{}
	}
	if gating == nil {
		gating = FlatApproval{}
	}
	return &Resolver{eligibility: eligibility, gating: gating}
}

// Policies returns the configured policy names
func (r *Resolver) Policies() (eligibility, gating string) {
	return r.eligibility.Name(), r.gating.Name()
}

// Resolve returns the first actionable pending step in ascending order for the principal.
// It fails with ErrForbidden when the only role matches are bound to other identities,
// and with ErrNoEligibleStep when nothing matches.
func (r *Resolver) Resolve(steps []*entity.ApprovalStep, principal entity.Principal) (*entity.ApprovalStep, error) {
	ordered := make([]*entity.ApprovalStep, len(steps))
	copy(ordered, steps)
	entity.SortSteps(ordered)

	boundElsewhere := false
	gated := false
	for _, step := range ordered {
		if step.Status != entity.StepStatusPending {
			continue
		}
		switch r.eligibility.Match(step, principal) {
		case MatchEligible:
			if r.gating.Actionable(step, ordered) {
				return step, nil
			}
			gated = true
		case MatchBoundElsewhere:
			boundElsewhere = true
		}
	}

	switch {
	case boundElsewhere && !gated:
		return nil, fmt.Errorf("%w: step for role %s is assigned to another user", ErrForbidden, principal.Role)
	case gated:
		return nil, fmt.Errorf("%w: step for role %s is waiting on earlier steps", ErrNoEligibleStep, principal.Role)
	default:
		return nil, fmt.Errorf("%w: no pending step for role %s", ErrNoEligibleStep, principal.Role)
	}
}
