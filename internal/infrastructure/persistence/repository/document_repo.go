package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/garyjia/doc-approval/internal/application/port"
	"github.com/garyjia/doc-approval/internal/domain/entity"
	"github.com/garyjia/doc-approval/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

const documentColumns = `
	d.id, d.number, d.title, d.content, d.recipient, d.recipient_type,
	d.status, d.author_id, d.template_id, d.artifact_url, d.created_at, d.updated_at`

// DocumentRepository implements port.DocumentRepository
type DocumentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *sql.DB, logger *zap.Logger) port.DocumentRepository {
	return &DocumentRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new document
func (r *DocumentRepository) Create(ctx context.Context, doc *entity.Document) error {
	query := `
		INSERT INTO documents (
			id, number, title, content, recipient, recipient_type,
			status, author_id, template_id, artifact_url, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		doc.ID,
		doc.Number,
		doc.Title,
		doc.Content,
		doc.Recipient,
		doc.RecipientType,
		doc.Status,
		doc.AuthorID,
		nullString(doc.TemplateID),
		doc.ArtifactURL,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create document", zap.String("number", doc.Number), zap.Error(err))
		return fmt.Errorf("failed to create document: %w", err)
	}

	return nil
}

// GetByID retrieves a document by ID without its steps
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*entity.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents d WHERE d.id = ?`

	doc, err := scanDocument(sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get document by ID", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	return doc, nil
}

// Count returns the number of documents ever created
func (r *DocumentRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count documents", zap.Error(err))
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

// UpdateStatus moves a document between statuses with a compare-and-swap on the current status
func (r *DocumentRepository) UpdateStatus(ctx context.Context, id, from, to string) error {
	query := `UPDATE documents SET status = ?, updated_at = ? WHERE id = ? AND status = ?`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, to, time.Now().UTC(), id, from)
	if err != nil {
		r.logger.Error("Failed to update document status",
			zap.String("id", id), zap.String("from", from), zap.String("to", to), zap.Error(err))
		return fmt.Errorf("failed to update document status: %w", err)
	}

	return expectOneRow(result, "document "+id)
}

// UpdateContent replaces the content of a DRAFT document
func (r *DocumentRepository) UpdateContent(ctx context.Context, id, content string) error {
	query := `UPDATE documents SET content = ?, updated_at = ? WHERE id = ? AND status = ?`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		content, time.Now().UTC(), id, entity.DocumentStatusDraft)
	if err != nil {
		r.logger.Error("Failed to update document content", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to update document content: %w", err)
	}

	return expectOneRow(result, "document "+id)
}

// SetArtifactURL records the location of the rendered artifact
func (r *DocumentRepository) SetArtifactURL(ctx context.Context, id, url string) error {
	query := `UPDATE documents SET artifact_url = ?, updated_at = ? WHERE id = ?`

	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, url, time.Now().UTC(), id)
	if err != nil {
		r.logger.Error("Failed to set artifact URL", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to set artifact url: %w", err)
	}

	return nil
}

// ListByAuthor returns documents created by authorID
func (r *DocumentRepository) ListByAuthor(ctx context.Context, authorID string) ([]*entity.Document, error) {
	query := `SELECT ` + documentColumns + `
		FROM documents d
		WHERE d.author_id = ?
		ORDER BY d.updated_at DESC`

	return r.list(ctx, "by author", query, authorID)
}

// ListVisible returns documents created by authorID or routed through role
func (r *DocumentRepository) ListVisible(ctx context.Context, authorID, role string) ([]*entity.Document, error) {
	query := `SELECT ` + documentColumns + `
		FROM documents d
		WHERE d.author_id = ?
			OR EXISTS (SELECT 1 FROM approval_steps s WHERE s.document_id = d.id AND s.role = ?)
		ORDER BY d.updated_at DESC`

	return r.list(ctx, "visible", query, authorID, role)
}

// ListInbox returns documents created by userID or where userID is bound to or acted on a step
func (r *DocumentRepository) ListInbox(ctx context.Context, userID string) ([]*entity.Document, error) {
	query := `SELECT ` + documentColumns + `
		FROM documents d
		WHERE d.author_id = ?
			OR EXISTS (
				SELECT 1 FROM approval_steps s
				WHERE s.document_id = d.id AND (s.assignee_id = ? OR s.actor_id = ?)
			)
		ORDER BY d.updated_at DESC`

	return r.list(ctx, "inbox", query, userID, userID, userID)
}

func (r *DocumentRepository) list(ctx context.Context, kind, query string, args ...interface{}) ([]*entity.Document, error) {
	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list documents", zap.String("kind", kind), zap.Error(err))
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []*entity.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

// rowScanner covers *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row rowScanner) (*entity.Document, error) {
	var doc entity.Document
	var templateID sql.NullString

	err := row.Scan(
		&doc.ID,
		&doc.Number,
		&doc.Title,
		&doc.Content,
		&doc.Recipient,
		&doc.RecipientType,
		&doc.Status,
		&doc.AuthorID,
		&templateID,
		&doc.ArtifactURL,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if templateID.Valid {
		doc.TemplateID = &templateID.String
	}
	return &doc, nil
}

// Verify interface compliance
var _ port.DocumentRepository = (*DocumentRepository)(nil)
