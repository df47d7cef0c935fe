package workflow

// IsComplete reports whether a document whose steps have just been approved may close.
// Only the count of outstanding PENDING steps matters; step order is ignored.
func IsComplete(pendingSteps int) bool {
	return pendingSteps == 0
}

// CompletionTrigger returns the document trigger to fire after a step approval,
// or false when the document stays PENDING.
func CompletionTrigger(pendingSteps int) (Trigger, bool) {
	if IsComplete(pendingSteps) {
		return TriggerComplete, true
	}
	return "", false
}
