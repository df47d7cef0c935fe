package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/doc-approval/internal/domain/entity"
)

func TestResolver_Resolve(t *testing.T) {
	manager := entity.Principal{ID: "u-manager", Role: entity.RoleManager}

	tests := []struct {
		name    string
		steps   []*entity.ApprovalStep
		wantID  string
		wantErr error
	}{
		{
			name: "matching pending step",
			steps: []*entity.ApprovalStep{
				step(1, entity.RoleManager, entity.StepStatusPending),
				step(2, entity.RoleKetua, entity.StepStatusPending),
			},
			wantID: "MANAGER-PENDING",
		},
		{
			name: "steps still waiting",
			steps: []*entity.ApprovalStep{
				step(1, entity.RoleManager, entity.StepStatusWaiting),
			},
			wantErr: ErrNoEligibleStep,
		},
		{
			name: "role already approved",
			steps: []*entity.ApprovalStep{
				step(1, entity.RoleManager, entity.StepStatusApproved),
				step(2, entity.RoleKetua, entity.StepStatusPending),
			},
			wantErr: ErrNoEligibleStep,
		},
		{
			name:    "no steps",
			wantErr: ErrNoEligibleStep,
		},
	}

	resolver := NewResolver(nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolver.Resolve(tt.steps, manager)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}
}

func TestResolver_TieBreakAscendingOrder(t *testing.T) {
	later := step(3, entity.RoleManager, entity.StepStatusPending)
	later.ID = "later"
	earlier := step(1, entity.RoleManager, entity.StepStatusPending)
	earlier.ID = "earlier"

	got, err := NewResolver(RoleEligibility{}, FlatApproval{}).Resolve(
		[]*entity.ApprovalStep{later, step(2, entity.RoleKetua, entity.StepStatusPending), earlier},
		entity.Principal{ID: "u", Role: entity.RoleManager},
	)
	require.NoError(t, err)
	assert.Equal(t, "earlier", got.ID)
}

func TestResolver_FlatApprovalIgnoresOrder(t *testing.T) {
	steps := []*entity.ApprovalStep{
		step(1, entity.RoleManager, entity.StepStatusPending),
		step(2, entity.RoleKetua, entity.StepStatusPending),
	}

	got, err := NewResolver(nil, FlatApproval{}).Resolve(steps, entity.Principal{ID: "k", Role: entity.RoleKetua})
	require.NoError(t, err)
	assert.Equal(t, 2, got.Order)
}

func TestResolver_SequentialApprovalGates(t *testing.T) {
	steps := []*entity.ApprovalStep{
		step(1, entity.RoleManager, entity.StepStatusPending),
		step(2, entity.RoleKetua, entity.StepStatusPending),
	}
	resolver := NewResolver(nil, SequentialApproval{})
	ketua := entity.Principal{ID: "k", Role: entity.RoleKetua}

	_, err := resolver.Resolve(steps, ketua)
	assert.ErrorIs(t, err, ErrNoEligibleStep)

	steps[0].Status = entity.StepStatusApproved
	got, err := resolver.Resolve(steps, ketua)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Order)
}

func TestResolver_BoundIdentityForbidden(t *testing.T) {
	s := step(1, entity.RoleManager, entity.StepStatusPending)
	s.AssigneeID = strPtr("u-assigned")

	resolver := NewResolver(BoundIdentityEligibility{}, nil)

	_, err := resolver.Resolve([]*entity.ApprovalStep{s}, entity.Principal{ID: "u-other", Role: entity.RoleManager})
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := resolver.Resolve([]*entity.ApprovalStep{s}, entity.Principal{ID: "u-assigned", Role: entity.RoleManager})
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestResolver_DoesNotReorderInput(t *testing.T) {
	steps := []*entity.ApprovalStep{
		step(2, entity.RoleKetua, entity.StepStatusPending),
		step(1, entity.RoleManager, entity.StepStatusPending),
	}

	_, err := NewResolver(nil, nil).Resolve(steps, entity.Principal{ID: "m", Role: entity.RoleManager})
	require.NoError(t, err)
	assert.Equal(t, 2, steps[0].Order)
}

func TestResolver_Policies(t *testing.T) {
	e, g := NewResolver(BoundIdentityEligibility{}, SequentialApproval{}).Policies()
	assert.Equal(t, EligibilityBoundIdentity, e)
	assert.Equal(t, GatingSequential, g)
}
