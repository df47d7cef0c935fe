package entity

import "time"

// DocumentHistory represents the audit trail of a document
type DocumentHistory struct {
	ID             int64     `json:"id"`
	DocumentID     string    `json:"document_id"`
	StepID         *string   `json:"step_id,omitempty"`
	ActorID        string    `json:"actor_id"`
	Action         string    `json:"action"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	Comment        string    `json:"comment,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}
