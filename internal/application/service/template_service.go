package service

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/garyjia/doc-approval/internal/application/port"
	"github.com/garyjia/doc-approval/internal/domain/entity"
	"github.com/garyjia/doc-approval/internal/domain/workflow"
	"github.com/garyjia/doc-approval/pkg/utils"
	"github.com/google/uuid"
)

const templateDir = "templates"

// UploadTemplateInput carries an uploaded template file
type UploadTemplateInput struct {
	Name        string
	Description string
	FileName    string
	Content     []byte
}

// TemplateService manages document templates
type TemplateService interface {
	Upload(ctx context.Context, input UploadTemplateInput) (*entity.Template, error)
	Get(ctx context.Context, id string) (*entity.Template, error)
	List(ctx context.Context) ([]*entity.Template, error)
	Delete(ctx context.Context, id string) error
}

type templateServiceImpl struct {
	templateRepo port.TemplateRepository
	storage      port.FileStorage
	renderer     port.Renderer
	logger       Logger
	now          func() time.Time
}

// NewTemplateService creates a new TemplateService. Uploads must carry the
// renderer's file extension.
func NewTemplateService(templateRepo port.TemplateRepository, fileStorage port.FileStorage, renderer port.Renderer, logger Logger) TemplateService {
	return &templateServiceImpl{
		templateRepo: templateRepo,
		storage:      fileStorage,
		renderer:     renderer,
		logger:       logger,
		now:          time.Now,
	}
}

// Upload stores the template file and records it
func (s *templateServiceImpl) Upload(ctx context.Context, input UploadTemplateInput) (*entity.Template, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: template name is required", workflow.ErrInvalidInput)
	}
	if len(input.Content) == 0 {
		return nil, fmt.Errorf("%w: template file is empty", workflow.ErrInvalidInput)
	}

	fileName := utils.SanitizeFileName(input.FileName)
	ext := strings.ToLower(path.Ext(fileName))
	if want := strings.ToLower(s.renderer.Extension()); ext != want {
		return nil, fmt.Errorf("%w: template must be a %s file, got %q", workflow.ErrInvalidInput, want, fileName)
	}

	id := uuid.NewString()
	key := path.Join(templateDir, id+"-"+fileName)

	if err := s.storage.Save(ctx, key, input.Content); err != nil {
		s.logger.Error("Failed to store template", "error", err, "name", name)
		return nil, fmt.Errorf("store template: %w", err)
	}

	tpl := &entity.Template{
		ID:          id,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		FileName:    fileName,
		StorageKey:  key,
		URL:         s.storage.URL(key),
		FileType:    strings.TrimPrefix(ext, "."),
		CreatedAt:   s.now().UTC(),
	}

	if err := s.templateRepo.Create(ctx, tpl); err != nil {
		// Best effort cleanup of the orphaned file
		_ = s.storage.Delete(ctx, key)
		s.logger.Error("Failed to create template", "error", err, "name", name)
		return nil, err
	}

	s.logger.Info("Template uploaded", "template_id", tpl.ID, "name", tpl.Name, "size", len(input.Content))
	return tpl, nil
}

// Get returns a template by id
func (s *templateServiceImpl) Get(ctx context.Context, id string) (*entity.Template, error) {
	tpl, err := s.templateRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get template", "error", err, "template_id", id)
		return nil, err
	}
	if tpl == nil {
		return nil, fmt.Errorf("%w: template %s", workflow.ErrNotFound, id)
	}
	return tpl, nil
}

// List returns all templates, newest first
func (s *templateServiceImpl) List(ctx context.Context) ([]*entity.Template, error) {
	templates, err := s.templateRepo.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list templates", "error", err)
		return nil, err
	}
	return templates, nil
}

// Delete removes the stored file and the template record
func (s *templateServiceImpl) Delete(ctx context.Context, id string) error {
	tpl, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.storage.Delete(ctx, tpl.StorageKey); err != nil {
		s.logger.Error("Failed to delete template file", "error", err, "template_id", id)
		return fmt.Errorf("delete template file: %w", err)
	}
	if err := s.templateRepo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete template", "error", err, "template_id", id)
		return err
	}

	s.logger.Info("Template deleted", "template_id", id)
	return nil
}
