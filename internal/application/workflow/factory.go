package workflow

import (
	"context"

	domainwf "github.com/garyjia/doc-approval/internal/domain/workflow"
)

type contextKey string

const pendingStepsKey contextKey = "pending_steps"

// WithPendingSteps records how many steps of the document are still PENDING.
// The COMPLETE trigger is only permitted when the recorded count is zero.
func WithPendingSteps(ctx context.Context, pending int) context.Context {
	return context.WithValue(ctx, pendingStepsKey, pending)
}

func pendingStepsFrom(ctx context.Context) (int, bool) {
	n, ok := ctx.Value(pendingStepsKey).(int)
	return n, ok
}

// BuildDocumentStateMachine creates a state machine configured for the document lifecycle
func BuildDocumentStateMachine(initialState domainwf.State) domainwf.StateMachine {
	builder := domainwf.NewBuilder("document")

	// DRAFT state transitions
	builder.Configure(domainwf.StateDraft).
		Permit(domainwf.TriggerSubmit, domainwf.StatePending).
		Permit(domainwf.TriggerEdit, domainwf.StateDraft)

	// PENDING state transitions
	builder.Configure(domainwf.StatePending).
		PermitIf(domainwf.TriggerComplete, domainwf.StateApproved, func(ctx context.Context) bool {
			n, ok := pendingStepsFrom(ctx)
			return ok && domainwf.IsComplete(n)
		}).
		Permit(domainwf.TriggerReject, domainwf.StateRejected)

	// APPROVED and REJECTED are terminal states - no outgoing transitions

	return builder.Build(initialState)
}

// BuildStepStateMachine creates a state machine configured for the approval step lifecycle
func BuildStepStateMachine(initialState domainwf.State) domainwf.StateMachine {
	builder := domainwf.NewBuilder("step")

	// WAITING state transitions
	builder.Configure(domainwf.StateWaiting).
		Permit(domainwf.TriggerActivate, domainwf.StatePending)

	// PENDING state transitions
	builder.Configure(domainwf.StatePending).
		Permit(domainwf.TriggerApprove, domainwf.StateApproved).
		Permit(domainwf.TriggerReject, domainwf.StateRejected)

	return builder.Build(initialState)
}
