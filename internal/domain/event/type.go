package event

// Type identifies the type of domain event
type Type string

const (
	TypeDocumentCreated   Type = "document.created"
	TypeDocumentSubmitted Type = "document.submitted"
	TypeStepApproved      Type = "step.approved"
	TypeStepRejected      Type = "step.rejected"
	TypeDocumentApproved  Type = "document.approved"
	TypeDocumentRejected  Type = "document.rejected"
	TypeArtifactGenerated Type = "artifact.generated"
)

// Payload keys shared by publishers and subscribers
const (
	PayloadAuthorID    = "author_id"
	PayloadTitle       = "title"
	PayloadStepID      = "step_id"
	PayloadStepOrder   = "step_order"
	PayloadStepRole    = "step_role"
	PayloadComment     = "comment"
	PayloadRoles       = "roles"
	PayloadArtifactURL = "artifact_url"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeDocumentCreated,
		TypeDocumentSubmitted,
		TypeStepApproved,
		TypeStepRejected,
		TypeDocumentApproved,
		TypeDocumentRejected,
		TypeArtifactGenerated:
		return true
	default:
		return false
	}
}
