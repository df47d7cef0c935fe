package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garyjia/doc-approval/internal/application/port"
	"github.com/garyjia/doc-approval/internal/domain/entity"
	"github.com/garyjia/doc-approval/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// HistoryRepository implements port.HistoryRepository
type HistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sql.DB, logger *zap.Logger) port.HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new history record
func (r *HistoryRepository) Create(ctx context.Context, history *entity.DocumentHistory) error {
	query := `
		INSERT INTO document_history (
			document_id, step_id, actor_id, action,
			previous_status, new_status, comment, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		history.DocumentID,
		nullString(history.StepID),
		history.ActorID,
		history.Action,
		history.PreviousStatus,
		history.NewStatus,
		history.Comment,
		history.Timestamp,
	)
	if err != nil {
		r.logger.Error("Failed to create history record",
			zap.String("document_id", history.DocumentID), zap.String("action", history.Action), zap.Error(err))
		return fmt.Errorf("failed to create history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	history.ID = id
	return nil
}

// ListByDocument retrieves all history records for a document in the order they were written
func (r *HistoryRepository) ListByDocument(ctx context.Context, documentID string) ([]*entity.DocumentHistory, error) {
	query := `
		SELECT id, document_id, step_id, actor_id, action,
			previous_status, new_status, comment, timestamp
		FROM document_history
		WHERE document_id = ?
		ORDER BY timestamp ASC, id ASC
	`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, documentID)
	if err != nil {
		r.logger.Error("Failed to get history by document ID", zap.String("document_id", documentID), zap.Error(err))
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	var records []*entity.DocumentHistory
	for rows.Next() {
		var record entity.DocumentHistory
		var stepID sql.NullString
		err := rows.Scan(
			&record.ID,
			&record.DocumentID,
			&stepID,
			&record.ActorID,
			&record.Action,
			&record.PreviousStatus,
			&record.NewStatus,
			&record.Comment,
			&record.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		record.StepID = stringPtr(stepID)
		records = append(records, &record)
	}

	return records, rows.Err()
}

// Verify interface compliance
var _ port.HistoryRepository = (*HistoryRepository)(nil)
