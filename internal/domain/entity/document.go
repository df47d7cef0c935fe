package entity

import "time"

// Document is an authored document routed through an ordered chain of approval steps
type Document struct {
	ID            string          `json:"id"`
	Number        string          `json:"number"`
	Title         string          `json:"title"`
	Content       string          `json:"content"`
	Recipient     string          `json:"recipient,omitempty"`
	RecipientType string          `json:"recipient_type,omitempty"`
	Status        string          `json:"status"`
	AuthorID      string          `json:"author_id"`
	TemplateID    *string         `json:"template_id,omitempty"`
	ArtifactURL   string          `json:"artifact_url,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Steps         []*ApprovalStep `json:"steps"`
}

// IsAuthor reports whether userID created the document
func (d *Document) IsAuthor(userID string) bool {
	return d.AuthorID == userID
}

// InboxItem is a document as seen from a user's inbox
type InboxItem struct {
	Type     string    `json:"type"`
	Document *Document `json:"document"`
}
