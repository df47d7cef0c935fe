package workflow

// Trigger represents an action that can cause a state transition
type Trigger string

const (
	// Document triggers
	TriggerSubmit   Trigger = "SUBMIT"
	TriggerEdit     Trigger = "EDIT"
	TriggerComplete Trigger = "COMPLETE"

	// Step triggers
	TriggerActivate Trigger = "ACTIVATE"
	TriggerApprove  Trigger = "APPROVE"

	// Shared by documents and steps
	TriggerReject Trigger = "REJECT"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
