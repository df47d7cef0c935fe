package entity

// Status constants for Document
const (
	DocumentStatusDraft    = "DRAFT"
	DocumentStatusPending  = "PENDING"
	DocumentStatusApproved = "APPROVED"
	DocumentStatusRejected = "REJECTED"
)

// Status constants for ApprovalStep
const (
	StepStatusWaiting  = "WAITING"
	StepStatusPending  = "PENDING"
	StepStatusApproved = "APPROVED"
	StepStatusRejected = "REJECTED"
)

// Step kind constants. The kind is classificatory only and never changes transition rules.
const (
	StepKindReviewer = "reviewer"
	StepKindSigner   = "signer"
)

// Role constants for users and approval steps
const (
	RoleStaff      = "STAFF"
	RoleManager    = "MANAGER"
	RoleBendahara  = "BENDAHARA"  // treasurer
	RoleSekertaris = "SEKERTARIS" // secretary
	RoleKetua      = "KETUA"      // chair
)

// History action constants
const (
	ActionCreate   = "CREATE"
	ActionSubmit   = "SUBMIT"
	ActionEdit     = "EDIT"
	ActionApprove  = "APPROVE"
	ActionReject   = "REJECT"
	ActionComplete = "COMPLETE"
	ActionGenerate = "GENERATE"
)

// Inbox item types
const (
	InboxTypeCreated  = "created"
	InboxTypeReceived = "received"
)

var validRoles = map[string]bool{
	RoleStaff:      true,
	RoleManager:    true,
	RoleBendahara:  true,
	RoleSekertaris: true,
	RoleKetua:      true,
}

// IsValidRole reports whether role is one of the known roles
func IsValidRole(role string) bool {
	return validRoles[role]
}

// IsValidStepKind reports whether kind is a known step kind
func IsValidStepKind(kind string) bool {
	return kind == StepKindReviewer || kind == StepKindSigner
}
