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

const stepColumns = `
	id, document_id, step_order, role, kind, assignee_id, status,
	actor_id, comment, acted_at, created_at, updated_at`

// StepRepository implements port.StepRepository
type StepRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStepRepository creates a new approval step repository
func NewStepRepository(db *sql.DB, logger *zap.Logger) port.StepRepository {
	return &StepRepository{
		db:     db,
		logger: logger,
	}
}

// CreateBatch inserts all steps of a document. Callers run it inside the
// transaction that creates the document.
func (r *StepRepository) CreateBatch(ctx context.Context, steps []*entity.ApprovalStep) error {
	query := `
		INSERT INTO approval_steps (
			id, document_id, step_order, role, kind, assignee_id, status,
			comment, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	exec := sqlite.ExecutorFrom(ctx, r.db)
	for _, step := range steps {
		_, err := exec.ExecContext(ctx, query,
			step.ID,
			step.DocumentID,
			step.Order,
			step.Role,
			step.Kind,
			nullString(step.AssigneeID),
			step.Status,
			step.Comment,
			step.CreatedAt,
			step.UpdatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to create approval step",
				zap.String("document_id", step.DocumentID), zap.Int("order", step.Order), zap.Error(err))
			return fmt.Errorf("failed to create approval step %d: %w", step.Order, err)
		}
	}

	return nil
}

// ListByDocument returns the document's steps in ascending order
func (r *StepRepository) ListByDocument(ctx context.Context, documentID string) ([]*entity.ApprovalStep, error) {
	query := `SELECT ` + stepColumns + ` FROM approval_steps WHERE document_id = ? ORDER BY step_order ASC`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, documentID)
	if err != nil {
		r.logger.Error("Failed to list approval steps", zap.String("document_id", documentID), zap.Error(err))
		return nil, fmt.Errorf("failed to list approval steps: %w", err)
	}
	defer rows.Close()

	var steps []*entity.ApprovalStep
	for rows.Next() {
		step, err := scanStep(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approval step: %w", err)
		}
		steps = append(steps, step)
	}

	return steps, rows.Err()
}

// ListByDocuments returns steps for several documents keyed by document ID
func (r *StepRepository) ListByDocuments(ctx context.Context, documentIDs []string) (map[string][]*entity.ApprovalStep, error) {
	result := make(map[string][]*entity.ApprovalStep, len(documentIDs))
	if len(documentIDs) == 0 {
		return result, nil
	}

	query := `SELECT ` + stepColumns + `
		FROM approval_steps
		WHERE document_id IN (` + placeholders(len(documentIDs)) + `)
		ORDER BY document_id, step_order ASC`

	args := make([]interface{}, len(documentIDs))
	for i, id := range documentIDs {
		args[i] = id
	}

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list approval steps for documents", zap.Int("documents", len(documentIDs)), zap.Error(err))
		return nil, fmt.Errorf("failed to list approval steps: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		step, err := scanStep(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approval step: %w", err)
		}
		result[step.DocumentID] = append(result[step.DocumentID], step)
	}

	return result, rows.Err()
}

// ActivateAll moves every WAITING step of the document to PENDING in a single statement
func (r *StepRepository) ActivateAll(ctx context.Context, documentID string) (int64, error) {
	query := `UPDATE approval_steps SET status = ?, updated_at = ? WHERE document_id = ? AND status = ?`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		entity.StepStatusPending, time.Now().UTC(), documentID, entity.StepStatusWaiting)
	if err != nil {
		r.logger.Error("Failed to activate approval steps", zap.String("document_id", documentID), zap.Error(err))
		return 0, fmt.Errorf("failed to activate approval steps: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n, nil
}

// Transition records an action on a step with a compare-and-swap on its current status
func (r *StepRepository) Transition(ctx context.Context, stepID, from, to, actorID, comment string, actedAt time.Time) error {
	query := `
		UPDATE approval_steps
		SET status = ?, actor_id = ?, comment = ?, acted_at = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		to, actorID, comment, actedAt, actedAt, stepID, from)
	if err != nil {
		r.logger.Error("Failed to transition approval step",
			zap.String("step_id", stepID), zap.String("from", from), zap.String("to", to), zap.Error(err))
		return fmt.Errorf("failed to transition approval step: %w", err)
	}

	return expectOneRow(result, "approval step "+stepID)
}

// CountByStatus counts the document's steps holding status
func (r *StepRepository) CountByStatus(ctx context.Context, documentID, status string) (int, error) {
	query := `SELECT COUNT(*) FROM approval_steps WHERE document_id = ? AND status = ?`

	var count int
	if err := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, documentID, status).Scan(&count); err != nil {
		r.logger.Error("Failed to count approval steps",
			zap.String("document_id", documentID), zap.String("status", status), zap.Error(err))
		return 0, fmt.Errorf("failed to count approval steps: %w", err)
	}
	return count, nil
}

func scanStep(row rowScanner) (*entity.ApprovalStep, error) {
	var step entity.ApprovalStep
	var assigneeID, actorID sql.NullString
	var actedAt sql.NullTime

	err := row.Scan(
		&step.ID,
		&step.DocumentID,
		&step.Order,
		&step.Role,
		&step.Kind,
		&assigneeID,
		&step.Status,
		&actorID,
		&step.Comment,
		&actedAt,
		&step.CreatedAt,
		&step.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	step.AssigneeID = stringPtr(assigneeID)
	step.ActorID = stringPtr(actorID)
	if actedAt.Valid {
		t := actedAt.Time
		step.ActedAt = &t
	}
	return &step, nil
}

// Verify interface compliance
var _ port.StepRepository = (*StepRepository)(nil)
