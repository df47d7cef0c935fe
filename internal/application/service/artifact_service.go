package service

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/garyjia/doc-approval/internal/application/dispatcher"
	"github.com/garyjia/doc-approval/internal/application/port"
	"github.com/garyjia/doc-approval/internal/domain/entity"
	"github.com/garyjia/doc-approval/internal/domain/event"
	"github.com/garyjia/doc-approval/internal/domain/workflow"
)

const (
	generatedDir     = "generated"
	defaultRecipient = "Kepada Yth,"
	defaultSigner    = "Ketua"
)

var indonesianMonths = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// FormatIndonesianDate formats t as "2 Januari 2006"
func FormatIndonesianDate(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), indonesianMonths[t.Month()-1], t.Year())
}

// ArtifactService renders a document into its template and records the result
type ArtifactService interface {
	Generate(ctx context.Context, principal entity.Principal, documentID string) (*entity.Document, error)
}

type artifactServiceImpl struct {
	documentRepo port.DocumentRepository
	stepRepo     port.StepRepository
	userRepo     port.UserRepository
	templateRepo port.TemplateRepository
	historyRepo  port.HistoryRepository
	txManager    port.TransactionManager
	storage      port.FileStorage
	renderer     port.Renderer
	publisher    dispatcher.Publisher
	recorder     Recorder
	logger       Logger
	now          func() time.Time
}

// NewArtifactService creates a new ArtifactService. publisher and recorder may be nil.
func NewArtifactService(
	documentRepo port.DocumentRepository,
	stepRepo port.StepRepository,
	userRepo port.UserRepository,
	templateRepo port.TemplateRepository,
	historyRepo port.HistoryRepository,
	txManager port.TransactionManager,
	fileStorage port.FileStorage,
	renderer port.Renderer,
	publisher dispatcher.Publisher,
	recorder Recorder,
	logger Logger,
) ArtifactService {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &artifactServiceImpl{
		documentRepo: documentRepo,
		stepRepo:     stepRepo,
		userRepo:     userRepo,
		templateRepo: templateRepo,
		historyRepo:  historyRepo,
		txManager:    txManager,
		storage:      fileStorage,
		renderer:     renderer,
		publisher:    publisher,
		recorder:     recorder,
		logger:       logger,
		now:          time.Now,
	}
}

// Generate fills the document's template with its field values, stores the
// artifact and records its URL on the document
func (s *artifactServiceImpl) Generate(ctx context.Context, principal entity.Principal, documentID string) (*entity.Document, error) {
	doc, err := s.generate(ctx, principal, documentID)
	s.recorder.RecordArtifactRender(workflow.ErrorKind(err))
	if err != nil {
		s.logger.Error("Failed to generate artifact", "error", err, "document_id", documentID)
		return nil, err
	}

	s.logger.Info("Artifact generated", "document_id", doc.ID, "artifact_url", doc.ArtifactURL)
	if s.publisher != nil {
		s.publisher.DispatchAsync(ctx, event.NewEvent(event.TypeArtifactGenerated, doc.ID, doc.Number, principal.ID, map[string]interface{}{
			event.PayloadAuthorID:    doc.AuthorID,
			event.PayloadArtifactURL: doc.ArtifactURL,
		}))
	}
	return doc, nil
}

func (s *artifactServiceImpl) generate(ctx context.Context, principal entity.Principal, documentID string) (*entity.Document, error) {
	doc, err := s.documentRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: document %s", workflow.ErrNotFound, documentID)
	}
	if doc.TemplateID == nil {
		return nil, fmt.Errorf("%w: document %s has no template", workflow.ErrInvalidInput, doc.Number)
	}

	tpl, err := s.templateRepo.GetByID(ctx, *doc.TemplateID)
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	if tpl == nil {
		return nil, fmt.Errorf("%w: template of document %s no longer exists", workflow.ErrInvalidInput, doc.Number)
	}
	if "."+strings.ToLower(tpl.FileType) != strings.ToLower(s.renderer.Extension()) {
		return nil, fmt.Errorf("%w: template %s is a %s file, artifacts are %s",
			workflow.ErrInvalidInput, tpl.ID, tpl.FileType, s.renderer.Extension())
	}

	steps, err := s.stepRepo.ListByDocument(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}
	doc.Steps = steps

	values, err := s.placeholderValues(ctx, doc)
	if err != nil {
		return nil, err
	}

	templateBytes, err := s.storage.Read(ctx, tpl.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}

	artifact, err := s.renderer.Render(ctx, templateBytes, values)
	if err != nil {
		return nil, fmt.Errorf("render artifact: %w", err)
	}

	now := s.now().UTC()
	key := path.Join(generatedDir, fmt.Sprintf("%s_%d%s", doc.ID, now.UnixMilli(), s.renderer.Extension()))
	if err := s.storage.Save(ctx, key, artifact); err != nil {
		return nil, fmt.Errorf("store artifact: %w", err)
	}
	url := s.storage.URL(key)

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.documentRepo.SetArtifactURL(txCtx, doc.ID, url); err != nil {
			return fmt.Errorf("set artifact url: %w", err)
		}
		history := &entity.DocumentHistory{
			DocumentID:     doc.ID,
			ActorID:        principal.ID,
			Action:         entity.ActionGenerate,
			PreviousStatus: doc.Status,
			NewStatus:      doc.Status,
			Comment:        url,
			Timestamp:      now,
		}
		if err := s.historyRepo.Create(txCtx, history); err != nil {
			return fmt.Errorf("create history: %w", err)
		}
		return nil
	})
	if err != nil {
		_ = s.storage.Delete(ctx, key)
		return nil, err
	}

	doc.ArtifactURL = url
	doc.UpdatedAt = now
	return doc, nil
}

// placeholderValues builds the template field values of a document
func (s *artifactServiceImpl) placeholderValues(ctx context.Context, doc *entity.Document) (map[string]string, error) {
	users := make(map[string]*entity.User)
	lookup := func(id string) (*entity.User, error) {
		if u, ok := users[id]; ok {
			return u, nil
		}
		u, err := s.userRepo.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get user: %w", err)
		}
		users[id] = u
		return u, nil
	}

	author, err := lookup(doc.AuthorID)
	if err != nil {
		return nil, err
	}
	authorName, authorRole := doc.AuthorID, ""
	if author != nil {
		authorName, authorRole = author.Name, author.Role
	}

	var signers, reviewers []string
	chair := ""
	for _, step := range doc.Steps {
		name, err := s.stepName(step, lookup)
		if err != nil {
			return nil, err
		}
		switch step.Kind {
		case entity.StepKindSigner:
			signers = append(signers, name)
			if chair == "" && step.Role == entity.RoleKetua {
				chair = name
			}
		default:
			reviewers = append(reviewers, name)
		}
	}

	signer := defaultSigner
	if len(signers) > 0 {
		signer = signers[0]
		if chair == "" {
			chair = signers[0]
		}
	}

	recipient := doc.Recipient
	if recipient == "" {
		recipient = defaultRecipient
	}

	pembuat := authorName
	if authorRole != "" {
		pembuat = fmt.Sprintf("%s (%s)", authorName, authorRole)
	}

	return map[string]string{
		"tanggal":       FormatIndonesianDate(s.now()),
		"nomor_surat":   doc.Number,
		"judul":         doc.Title,
		"perihal":       doc.Title,
		"dari":          authorName,
		"pembuat":       pembuat,
		"kepada":        recipient,
		"penandatangan": signer,
		"ttd_ketua":     chair,
		"ttd_pemeriksa": strings.Join(reviewers, ", "),
		"isi":           doc.Content,
	}, nil
}

// stepName is the display name of whoever holds a step: the bound identity,
// then the acting identity, falling back to the role
func (s *artifactServiceImpl) stepName(step *entity.ApprovalStep, lookup func(string) (*entity.User, error)) (string, error) {
	for _, id := range []*string{step.AssigneeID, step.ActorID} {
		if id == nil {
			continue
		}
		u, err := lookup(*id)
		if err != nil {
			return "", err
		}
		if u != nil {
			return u.Name, nil
		}
	}
	return step.Role, nil
}
