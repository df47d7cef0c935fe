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

const templateColumns = `id, name, description, file_name, storage_key, url, file_type, created_at`

// TemplateRepository implements port.TemplateRepository
type TemplateRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTemplateRepository creates a new template repository
func NewTemplateRepository(db *sql.DB, logger *zap.Logger) port.TemplateRepository {
	return &TemplateRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a template record
func (r *TemplateRepository) Create(ctx context.Context, tpl *entity.Template) error {
	query := `
		INSERT INTO templates (id, name, description, file_name, storage_key, url, file_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		tpl.ID,
		tpl.Name,
		tpl.Description,
		tpl.FileName,
		tpl.StorageKey,
		tpl.URL,
		tpl.FileType,
		tpl.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create template", zap.String("name", tpl.Name), zap.Error(err))
		return fmt.Errorf("failed to create template: %w", err)
	}
	return nil
}

// GetByID retrieves a template by ID
func (r *TemplateRepository) GetByID(ctx context.Context, id string) (*entity.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates WHERE id = ?`

	var tpl entity.Template
	err := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&tpl.ID, &tpl.Name, &tpl.Description, &tpl.FileName,
		&tpl.StorageKey, &tpl.URL, &tpl.FileType, &tpl.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get template by ID", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return &tpl, nil
}

// List returns templates, newest first
func (r *TemplateRepository) List(ctx context.Context) ([]*entity.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates ORDER BY created_at DESC`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list templates", zap.Error(err))
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var templates []*entity.Template
	for rows.Next() {
		var tpl entity.Template
		if err := rows.Scan(
			&tpl.ID, &tpl.Name, &tpl.Description, &tpl.FileName,
			&tpl.StorageKey, &tpl.URL, &tpl.FileType, &tpl.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, &tpl)
	}
	return templates, rows.Err()
}

// Delete removes a template record. Documents referencing it keep their rows
// with the reference cleared.
func (r *TemplateRepository) Delete(ctx context.Context, id string) error {
	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, `DELETE FROM templates WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete template", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete template: %w", err)
	}
	return expectOneRow(result, "template "+id)
}

// Verify interface compliance
var _ port.TemplateRepository = (*TemplateRepository)(nil)
