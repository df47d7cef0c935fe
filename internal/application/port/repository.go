package port

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/doc-approval/internal/domain/entity"
	"github.com/garyjia/doc-approval/internal/domain/workflow"
)

// ErrStaleState is returned by compare-and-swap updates when the row no longer
// holds the expected status, typically because a concurrent transition won.
var ErrStaleState = fmt.Errorf("%w: status changed concurrently", workflow.ErrInvalidState)

// DocumentRepository defines persistence operations for Document.
// Read methods return nil, nil when the document does not exist.
type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.Document) error
	GetByID(ctx context.Context, id string) (*entity.Document, error)
	Count(ctx context.Context) (int, error)

	// UpdateStatus moves the document from one status to another, or fails with ErrStaleState
	UpdateStatus(ctx context.Context, id, from, to string) error

	// UpdateContent replaces content while the document is still DRAFT, or fails with ErrStaleState
	UpdateContent(ctx context.Context, id, content string) error

	SetArtifactURL(ctx context.Context, id, url string) error

	// ListByAuthor returns documents created by authorID, newest update first
	ListByAuthor(ctx context.Context, authorID string) ([]*entity.Document, error)

	// ListVisible returns documents created by authorID or with any step requiring role
	ListVisible(ctx context.Context, authorID, role string) ([]*entity.Document, error)

	// ListInbox returns documents created by userID or with a step bound to or acted on by userID
	ListInbox(ctx context.Context, userID string) ([]*entity.Document, error)
}

// StepRepository defines persistence operations for ApprovalStep
type StepRepository interface {
	CreateBatch(ctx context.Context, steps []*entity.ApprovalStep) error

	// ListByDocument returns the document's steps in ascending order
	ListByDocument(ctx context.Context, documentID string) ([]*entity.ApprovalStep, error)

	// ListByDocuments returns steps keyed by document ID, each list in ascending order
	ListByDocuments(ctx context.Context, documentIDs []string) (map[string][]*entity.ApprovalStep, error)

	// ActivateAll moves every WAITING step of the document to PENDING in one statement
	ActivateAll(ctx context.Context, documentID string) (int64, error)

	// Transition records an action on a step, moving it from one status to another,
	// or fails with ErrStaleState
	Transition(ctx context.Context, stepID, from, to, actorID, comment string, actedAt time.Time) error

	CountByStatus(ctx context.Context, documentID, status string) (int, error)
}

// UserRepository reads the identity directory
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
	List(ctx context.Context) ([]*entity.User, error)
	ListByRoles(ctx context.Context, roles []string) ([]*entity.User, error)
}

// TemplateRepository defines persistence operations for Template
type TemplateRepository interface {
	Create(ctx context.Context, tpl *entity.Template) error
	GetByID(ctx context.Context, id string) (*entity.Template, error)
	List(ctx context.Context) ([]*entity.Template, error)
	Delete(ctx context.Context, id string) error
}

// HistoryRepository defines persistence operations for DocumentHistory
type HistoryRepository interface {
	Create(ctx context.Context, history *entity.DocumentHistory) error
	ListByDocument(ctx context.Context, documentID string) ([]*entity.DocumentHistory, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
