package entity

import (
	"sort"
	"time"
)

// ApprovalStep is one ordered element of a document's approval workflow
type ApprovalStep struct {
	ID         string     `json:"id"`
	DocumentID string     `json:"document_id"`
	Order      int        `json:"order"`
	Role       string     `json:"role"`
	Kind       string     `json:"kind"`
	AssigneeID *string    `json:"assignee_id,omitempty"`
	Status     string     `json:"status"`
	ActorID    *string    `json:"actor_id,omitempty"`
	Comment    string     `json:"comment,omitempty"`
	ActedAt    *time.Time `json:"acted_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// StepSpec describes a step to materialize when a document is created
type StepSpec struct {
	Role       string  `json:"role"`
	AssigneeID *string `json:"assignee_id,omitempty"`
	Kind       string  `json:"kind,omitempty"`
}

// IsBoundTo reports whether the step is pre-assigned to userID
func (s *ApprovalStep) IsBoundTo(userID string) bool {
	return s.AssigneeID != nil && *s.AssigneeID == userID
}

// SortSteps orders steps by ascending order index in place
func SortSteps(steps []*ApprovalStep) {
	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].Order < steps[j].Order
	})
}
