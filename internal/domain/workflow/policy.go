package workflow

import (
	"fmt"

	"github.com/garyjia/doc-approval/internal/domain/entity"
)

// Policy names accepted by configuration
const (
	EligibilityRole          = "role"
	EligibilityBoundIdentity = "bound_identity"

	GatingFlat       = "flat"
	GatingSequential = "sequential"
)

// Match is the outcome of checking one step against a principal
type Match int

const (
	// MatchNone means the step is not for this principal
	MatchNone Match = iota
	// MatchEligible means the principal may act on the step
	MatchEligible
	// MatchBoundElsewhere means the role matches but the step is pre-assigned to someone else
	MatchBoundElsewhere
)

// EligibilityPolicy decides whether a principal may act on a pending step
type EligibilityPolicy interface {
	Name() string
	Match(step *entity.ApprovalStep, principal entity.Principal) Match
}

// GatingPolicy decides whether a pending step is actionable given its siblings
type GatingPolicy interface {
	Name() string
	Actionable(step *entity.ApprovalStep, steps []*entity.ApprovalStep) bool
}

// RoleEligibility lets any principal holding the step's role act on it.
// A bound identity on the step is stored but not enforced.
type RoleEligibility struct{}

func (RoleEligibility) Name() string { return EligibilityRole }

func (RoleEligibility) Match(step *entity.ApprovalStep, principal entity.Principal) Match {
	if step.Role == principal.Role {
		return MatchEligible
	}
	return MatchNone
}

// BoundIdentityEligibility requires the role to match and, when the step is
// pre-assigned, the principal to be that identity.
type BoundIdentityEligibility struct{}

func (BoundIdentityEligibility) Name() string { return EligibilityBoundIdentity }

func (BoundIdentityEligibility) Match(step *entity.ApprovalStep, principal entity.Principal) Match {
	if step.Role != principal.Role {
		return MatchNone
	}
	if step.AssigneeID != nil && !step.IsBoundTo(principal.ID) {
		return MatchBoundElsewhere
	}
	return MatchEligible
}

// FlatApproval makes every pending step actionable regardless of order
type FlatApproval struct{}

func (FlatApproval) Name() string { return GatingFlat }

func (FlatApproval) Actionable(*entity.ApprovalStep, []*entity.ApprovalStep) bool {
	return true
}

// SequentialApproval makes a step actionable only once every lower-order step is approved
type SequentialApproval struct{}

func (SequentialApproval) Name() string { return GatingSequential }

func (SequentialApproval) Actionable(step *entity.ApprovalStep, steps []*entity.ApprovalStep) bool {
	for _, s := range steps {
		if s.Order < step.Order && s.Status != entity.StepStatusApproved {
			return false
		}
	}
	return true
}

// EligibilityPolicyByName returns the named eligibility policy
func EligibilityPolicyByName(name string) (EligibilityPolicy, error) {
	switch name {
	case "", EligibilityRole:
		return RoleEligibility{}, nil
	case EligibilityBoundIdentity:
		return BoundIdentityEligibility{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown eligibility policy %q", ErrInvalidInput, name)
	}
}

// GatingPolicyByName returns the named gating policy
func GatingPolicyByName(name string) (GatingPolicy, error) {
	switch name {
	case "", GatingFlat:
		return FlatApproval{}, nil
	case GatingSequential:
		return SequentialApproval{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown gating policy %q", ErrInvalidInput, name)
	}
}
