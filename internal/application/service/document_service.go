package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/doc-approval/internal/application/dispatcher"
	"github.com/garyjia/doc-approval/internal/application/port"
	appwf "github.com/garyjia/doc-approval/internal/application/workflow"
	"github.com/garyjia/doc-approval/internal/domain/entity"
	"github.com/garyjia/doc-approval/internal/domain/event"
	"github.com/garyjia/doc-approval/internal/domain/workflow"
	"github.com/garyjia/doc-approval/pkg/utils"
	"github.com/google/uuid"
)

// CreateDocumentInput carries the fields of a new document
type CreateDocumentInput struct {
	Title         string            `json:"title"`
	Content       string            `json:"content"`
	Recipient     string            `json:"recipient"`
	RecipientType string            `json:"recipient_type"`
	TemplateID    *string           `json:"template_id"`
	Steps         []entity.StepSpec `json:"steps"`
}

// DocumentService drives documents through their approval workflow.
// Every operation takes the acting principal explicitly.
type DocumentService interface {
	Create(ctx context.Context, principal entity.Principal, input CreateDocumentInput) (*entity.Document, error)
	Get(ctx context.Context, id string) (*entity.Document, error)
	List(ctx context.Context, principal entity.Principal) ([]*entity.Document, error)
	Inbox(ctx context.Context, principal entity.Principal) ([]*entity.InboxItem, error)
	History(ctx context.Context, id string) ([]*entity.DocumentHistory, error)
	EditContent(ctx context.Context, principal entity.Principal, id, content string) (*entity.Document, error)
	Submit(ctx context.Context, principal entity.Principal, id string) (*entity.Document, error)
	Approve(ctx context.Context, principal entity.Principal, id, comment string) (*entity.Document, error)
	Reject(ctx context.Context, principal entity.Principal, id, comment string) (*entity.Document, error)
}

type documentServiceImpl struct {
	documentRepo port.DocumentRepository
	stepRepo     port.StepRepository
	userRepo     port.UserRepository
	templateRepo port.TemplateRepository
	historyRepo  port.HistoryRepository
	txManager    port.TransactionManager
	resolver     *workflow.Resolver
	publisher    dispatcher.Publisher
	recorder     Recorder
	logger       Logger

	ownOnlyRoles map[string]bool
	now          func() time.Time
}

// DocumentOption configures the document service
type DocumentOption func(*documentServiceImpl)

// WithResolver sets the authorization resolver
func WithResolver(r *workflow.Resolver) DocumentOption {
	return func(s *documentServiceImpl) {
		if r != nil {
			s.resolver = r
		}
	}
}

// WithPublisher sets where committed transitions are announced
func WithPublisher(p dispatcher.Publisher) DocumentOption {
	return func(s *documentServiceImpl) {
		s.publisher = p
	}
}

// WithRecorder sets the metrics recorder
func WithRecorder(r Recorder) DocumentOption {
	return func(s *documentServiceImpl) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithOwnOnlyRoles sets the roles that only ever list their own documents
func WithOwnOnlyRoles(roles []string) DocumentOption {
	return func(s *documentServiceImpl) {
		s.ownOnlyRoles = make(map[string]bool, len(roles))
		for _, r := range roles {
			s.ownOnlyRoles[r] = true
		}
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) DocumentOption {
	return func(s *documentServiceImpl) {
		s.now = now
	}
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(
	documentRepo port.DocumentRepository,
	stepRepo port.StepRepository,
	userRepo port.UserRepository,
	templateRepo port.TemplateRepository,
	historyRepo port.HistoryRepository,
	txManager port.TransactionManager,
	logger Logger,
	opts ...DocumentOption,
) DocumentService {
	s := &documentServiceImpl{
		documentRepo: documentRepo,
		stepRepo:     stepRepo,
		userRepo:     userRepo,
		templateRepo: templateRepo,
		historyRepo:  historyRepo,
		txManager:    txManager,
		resolver:     workflow.NewResolver(nil, nil),
		recorder:     noopRecorder{},
		logger:       logger,
		ownOnlyRoles: map[string]bool{entity.RoleStaff: true},
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Create validates the input and persists a DRAFT document with WAITING steps
func (s *documentServiceImpl) Create(ctx context.Context, principal entity.Principal, input CreateDocumentInput) (*entity.Document, error) {
	doc, err := s.create(ctx, principal, input)
	s.recorder.RecordTransition("create", workflow.ErrorKind(err))
	if err != nil {
		s.logger.Error("Failed to create document", "error", err, "author_id", principal.ID)
		return nil, err
	}

	s.recorder.RecordDocumentCreated()
	s.logger.Info("Document created", "document_id", doc.ID, "number", doc.Number, "steps", len(doc.Steps))
	s.publish(ctx, event.TypeDocumentCreated, doc, principal.ID, map[string]interface{}{
		event.PayloadAuthorID: doc.AuthorID,
		event.PayloadTitle:    doc.Title,
	})
	return doc, nil
}

func (s *documentServiceImpl) create(ctx context.Context, principal entity.Principal, input CreateDocumentInput) (*entity.Document, error) {
	title := utils.SanitizeString(input.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", workflow.ErrInvalidInput)
	}
	if len(input.Steps) == 0 {
		return nil, fmt.Errorf("%w: at least one approval step is required", workflow.ErrInvalidInput)
	}

	templateID := input.TemplateID
	if templateID != nil && strings.TrimSpace(*templateID) == "" {
		templateID = nil
	}

	now := s.now().UTC()
	doc := &entity.Document{
		ID:            uuid.NewString(),
		Title:         title,
		Content:       input.Content,
		Recipient:     input.Recipient,
		RecipientType: input.RecipientType,
		Status:        entity.DocumentStatusDraft,
		AuthorID:      principal.ID,
		TemplateID:    templateID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	steps := make([]*entity.ApprovalStep, 0, len(input.Steps))
	for i, spec := range input.Steps {
		step, err := buildStep(doc.ID, i+1, spec, now)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	doc.Steps = steps

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		author, err := s.userRepo.GetByID(txCtx, principal.ID)
		if err != nil {
			return fmt.Errorf("get author: %w", err)
		}
		if author == nil {
			return fmt.Errorf("%w: unknown author %s", workflow.ErrForbidden, principal.ID)
		}

		for _, step := range steps {
			if step.AssigneeID == nil {
				continue
			}
			assignee, err := s.userRepo.GetByID(txCtx, *step.AssigneeID)
			if err != nil {
				return fmt.Errorf("get assignee: %w", err)
			}
			if assignee == nil {
				return fmt.Errorf("%w: step %d is assigned to unknown user %s", workflow.ErrInvalidInput, step.Order, *step.AssigneeID)
			}
		}

		if doc.TemplateID != nil {
			tpl, err := s.templateRepo.GetByID(txCtx, *doc.TemplateID)
			if err != nil {
				return fmt.Errorf("get template: %w", err)
			}
			if tpl == nil {
				return fmt.Errorf("%w: unknown template %s", workflow.ErrInvalidInput, *doc.TemplateID)
			}
		}

		existing, err := s.documentRepo.Count(txCtx)
		if err != nil {
			return fmt.Errorf("count documents: %w", err)
		}
		doc.Number = workflow.NextDocumentNumber(now, existing)

		if err := s.documentRepo.Create(txCtx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		if err := s.stepRepo.CreateBatch(txCtx, steps); err != nil {
			return fmt.Errorf("create steps: %w", err)
		}

		return s.record(txCtx, doc.ID, nil, principal.ID, entity.ActionCreate, "", entity.DocumentStatusDraft, "", now)
	})
	if err != nil {
		return nil, err
	}

	return doc, nil
}

func buildStep(documentID string, order int, spec entity.StepSpec, now time.Time) (*entity.ApprovalStep, error) {
	role := strings.TrimSpace(spec.Role)
	if role == "" {
		return nil, fmt.Errorf("%w: step %d has no role", workflow.ErrInvalidInput, order)
	}
	if !entity.IsValidRole(role) {
		return nil, fmt.Errorf("%w: step %d has unknown role %q", workflow.ErrInvalidInput, order, role)
	}

	kind := spec.Kind
	if kind == "" {
		kind = entity.StepKindReviewer
	}
	if !entity.IsValidStepKind(kind) {
		return nil, fmt.Errorf("%w: step %d has unknown kind %q", workflow.ErrInvalidInput, order, kind)
	}

	var assignee *string
	if spec.AssigneeID != nil && strings.TrimSpace(*spec.AssigneeID) != "" {
		id := strings.TrimSpace(*spec.AssigneeID)
		assignee = &id
	}

	return &entity.ApprovalStep{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		Order:      order,
		Role:       role,
		Kind:       kind,
		AssigneeID: assignee,
		Status:     entity.StepStatusWaiting,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Get returns a document with its ordered steps
func (s *documentServiceImpl) Get(ctx context.Context, id string) (*entity.Document, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// List returns the documents visible to the principal, each with its steps.
// Own-only roles see their own documents; others also see documents that have
// a step requiring their role.
func (s *documentServiceImpl) List(ctx context.Context, principal entity.Principal) ([]*entity.Document, error) {
	var (
		docs []*entity.Document
		err  error
	)
	if s.ownOnlyRoles[principal.Role] {
		docs, err = s.documentRepo.ListByAuthor(ctx, principal.ID)
	} else {
		docs, err = s.documentRepo.ListVisible(ctx, principal.ID, principal.Role)
	}
	if err != nil {
		s.logger.Error("Failed to list documents", "error", err, "user_id", principal.ID)
		return nil, err
	}

	if err := s.attachSteps(ctx, docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// Inbox returns documents the principal created or is bound to or acted on
func (s *documentServiceImpl) Inbox(ctx context.Context, principal entity.Principal) ([]*entity.InboxItem, error) {
	docs, err := s.documentRepo.ListInbox(ctx, principal.ID)
	if err != nil {
		s.logger.Error("Failed to list inbox", "error", err, "user_id", principal.ID)
		return nil, err
	}
	if err := s.attachSteps(ctx, docs); err != nil {
		return nil, err
	}

	items := make([]*entity.InboxItem, 0, len(docs))
	for _, doc := range docs {
		itemType := entity.InboxTypeReceived
		if doc.IsAuthor(principal.ID) {
			itemType = entity.InboxTypeCreated
		}
		items = append(items, &entity.InboxItem{Type: itemType, Document: doc})
	}
	return items, nil
}

// History returns the audit trail of a document, oldest first
func (s *documentServiceImpl) History(ctx context.Context, id string) ([]*entity.DocumentHistory, error) {
	doc, err := s.documentRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get document", "error", err, "document_id", id)
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: document %s", workflow.ErrNotFound, id)
	}

	history, err := s.historyRepo.ListByDocument(ctx, id)
	if err != nil {
		s.logger.Error("Failed to list history", "error", err, "document_id", id)
		return nil, err
	}
	return history, nil
}

// EditContent replaces the content of a DRAFT document. Only the author may edit.
func (s *documentServiceImpl) EditContent(ctx context.Context, principal entity.Principal, id, content string) (*entity.Document, error) {
	now := s.now().UTC()
	var doc *entity.Document

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		doc, err = s.authorDocument(txCtx, principal, id)
		if err != nil {
			return err
		}

		if err := appwf.BuildDocumentStateMachine(workflow.State(doc.Status)).Fire(txCtx, workflow.TriggerEdit); err != nil {
			return err
		}
		if err := s.documentRepo.UpdateContent(txCtx, id, content); err != nil {
			return fmt.Errorf("update content: %w", err)
		}
		doc.Content = content
		doc.UpdatedAt = now

		return s.record(txCtx, id, nil, principal.ID, entity.ActionEdit, doc.Status, doc.Status, "", now)
	})
	s.recorder.RecordTransition("edit", workflow.ErrorKind(err))
	if err != nil {
		s.logger.Error("Failed to edit document", "error", err, "document_id", id, "user_id", principal.ID)
		return nil, err
	}

	s.logger.Info("Document content edited", "document_id", id)
	return s.load(ctx, id)
}

// Submit moves a DRAFT document to PENDING and activates all of its steps at once
func (s *documentServiceImpl) Submit(ctx context.Context, principal entity.Principal, id string) (*entity.Document, error) {
	now := s.now().UTC()
	var doc *entity.Document

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		doc, err = s.authorDocument(txCtx, principal, id)
		if err != nil {
			return err
		}

		machine := appwf.BuildDocumentStateMachine(workflow.State(doc.Status))
		if err := machine.Fire(txCtx, workflow.TriggerSubmit); err != nil {
			return err
		}
		if err := s.documentRepo.UpdateStatus(txCtx, id, doc.Status, string(machine.State())); err != nil {
			return fmt.Errorf("update document status: %w", err)
		}
		if _, err := s.stepRepo.ActivateAll(txCtx, id); err != nil {
			return fmt.Errorf("activate steps: %w", err)
		}

		if err := s.record(txCtx, id, nil, principal.ID, entity.ActionSubmit, doc.Status, string(machine.State()), "", now); err != nil {
			return err
		}
		doc.Status = string(machine.State())
		return nil
	})
	s.recorder.RecordTransition("submit", workflow.ErrorKind(err))
	if err != nil {
		s.logger.Error("Failed to submit document", "error", err, "document_id", id, "user_id", principal.ID)
		return nil, err
	}

	doc, err = s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Document submitted", "document_id", id, "number", doc.Number)
	s.publish(ctx, event.TypeDocumentSubmitted, doc, principal.ID, map[string]interface{}{
		event.PayloadAuthorID: doc.AuthorID,
		event.PayloadTitle:    doc.Title,
		event.PayloadRoles:    stepRoles(doc.Steps, entity.StepStatusPending),
	})
	return doc, nil
}

// Approve approves the principal's eligible step and closes the document
// when no PENDING steps remain
func (s *documentServiceImpl) Approve(ctx context.Context, principal entity.Principal, id, comment string) (*entity.Document, error) {
	comment = utils.SanitizeString(comment)
	step, completed, err := s.act(ctx, principal, id, workflow.TriggerApprove, comment)
	s.recorder.RecordTransition("approve", workflow.ErrorKind(err))
	if err != nil {
		s.logger.Error("Failed to approve document", "error", err, "document_id", id, "user_id", principal.ID)
		return nil, err
	}

	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Step approved", "document_id", id, "step_id", step.ID, "order", step.Order, "completed", completed)
	s.publish(ctx, event.TypeStepApproved, doc, principal.ID, stepPayload(doc, step, comment))
	if completed {
		s.publish(ctx, event.TypeDocumentApproved, doc, principal.ID, map[string]interface{}{
			event.PayloadAuthorID: doc.AuthorID,
			event.PayloadTitle:    doc.Title,
		})
	}
	return doc, nil
}

// Reject rejects the principal's eligible step and the document with it.
// A non-empty comment is required.
func (s *documentServiceImpl) Reject(ctx context.Context, principal entity.Principal, id, comment string) (*entity.Document, error) {
	comment = utils.SanitizeString(comment)
	if comment == "" {
		err := fmt.Errorf("%w: rejection comment is required", workflow.ErrInvalidInput)
		s.recorder.RecordTransition("reject", workflow.ErrorKind(err))
		return nil, err
	}

	step, _, err := s.act(ctx, principal, id, workflow.TriggerReject, comment)
	s.recorder.RecordTransition("reject", workflow.ErrorKind(err))
	if err != nil {
		s.logger.Error("Failed to reject document", "error", err, "document_id", id, "user_id", principal.ID)
		return nil, err
	}

	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Document rejected", "document_id", id, "step_id", step.ID, "order", step.Order)
	s.publish(ctx, event.TypeStepRejected, doc, principal.ID, stepPayload(doc, step, comment))
	s.publish(ctx, event.TypeDocumentRejected, doc, principal.ID, map[string]interface{}{
		event.PayloadAuthorID: doc.AuthorID,
		event.PayloadTitle:    doc.Title,
		event.PayloadComment:  comment,
	})
	return doc, nil
}

// act resolves the principal's step and applies an approve or reject trigger to it
// and to the document, all in one transaction. It reports whether the document closed.
func (s *documentServiceImpl) act(ctx context.Context, principal entity.Principal, id string, trigger workflow.Trigger, comment string) (*entity.ApprovalStep, bool, error) {
	now := s.now().UTC()
	var (
		resolved  *entity.ApprovalStep
		completed bool
	)

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		doc, err := s.documentRepo.GetByID(txCtx, id)
		if err != nil {
			return fmt.Errorf("get document: %w", err)
		}
		if doc == nil {
			return fmt.Errorf("%w: document %s", workflow.ErrNotFound, id)
		}

		steps, err := s.stepRepo.ListByDocument(txCtx, id)
		if err != nil {
			return fmt.Errorf("list steps: %w", err)
		}

		step, err := s.resolver.Resolve(steps, principal)
		if err != nil {
			return err
		}
		if doc.Status != entity.DocumentStatusPending {
			return fmt.Errorf("%w: document %s is %s", workflow.ErrInvalidState, doc.Number, doc.Status)
		}

		actor, err := s.userRepo.GetByID(txCtx, principal.ID)
		if err != nil {
			return fmt.Errorf("get actor: %w", err)
		}
		if actor == nil {
			return fmt.Errorf("%w: unknown approver %s", workflow.ErrForbidden, principal.ID)
		}

		stepMachine := appwf.BuildStepStateMachine(workflow.State(step.Status))
		if err := stepMachine.Fire(txCtx, trigger); err != nil {
			return err
		}
		if err := s.stepRepo.Transition(txCtx, step.ID, step.Status, string(stepMachine.State()), principal.ID, comment, now); err != nil {
			return fmt.Errorf("transition step: %w", err)
		}

		action := entity.ActionApprove
		if trigger == workflow.TriggerReject {
			action = entity.ActionReject
		}
		stepID := step.ID
		if err := s.record(txCtx, id, &stepID, principal.ID, action, step.Status, string(stepMachine.State()), comment, now); err != nil {
			return err
		}

		step.Status = string(stepMachine.State())
		step.ActorID = &principal.ID
		step.Comment = comment
		step.ActedAt = &now
		resolved = step

		docMachine := appwf.BuildDocumentStateMachine(workflow.State(doc.Status))
		docTrigger := workflow.TriggerReject
		if trigger == workflow.TriggerApprove {
			pending, err := s.stepRepo.CountByStatus(txCtx, id, entity.StepStatusPending)
			if err != nil {
				return fmt.Errorf("count pending steps: %w", err)
			}
			t, ok := workflow.CompletionTrigger(pending)
			if !ok {
				return nil
			}
			docTrigger = t
			txCtx = appwf.WithPendingSteps(txCtx, pending)
		}

		if err := docMachine.Fire(txCtx, docTrigger); err != nil {
			return err
		}
		if err := s.documentRepo.UpdateStatus(txCtx, id, doc.Status, string(docMachine.State())); err != nil {
			return fmt.Errorf("update document status: %w", err)
		}
		if docTrigger == workflow.TriggerComplete {
			completed = true
			return s.record(txCtx, id, nil, principal.ID, entity.ActionComplete, doc.Status, string(docMachine.State()), "", now)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return resolved, completed, nil
}

// authorDocument loads a document and checks the principal created it
func (s *documentServiceImpl) authorDocument(ctx context.Context, principal entity.Principal, id string) (*entity.Document, error) {
	doc, err := s.documentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: document %s", workflow.ErrNotFound, id)
	}
	if !doc.IsAuthor(principal.ID) {
		return nil, fmt.Errorf("%w: only the author may change document %s", workflow.ErrForbidden, doc.Number)
	}
	return doc, nil
}

// load reads a document with its ordered steps
func (s *documentServiceImpl) load(ctx context.Context, id string) (*entity.Document, error) {
	doc, err := s.documentRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get document", "error", err, "document_id", id)
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: document %s", workflow.ErrNotFound, id)
	}

	steps, err := s.stepRepo.ListByDocument(ctx, id)
	if err != nil {
		s.logger.Error("Failed to list steps", "error", err, "document_id", id)
		return nil, err
	}
	doc.Steps = steps
	return doc, nil
}

func (s *documentServiceImpl) attachSteps(ctx context.Context, docs []*entity.Document) error {
	if len(docs) == 0 {
		return nil
	}

	ids := make([]string, len(docs))
	for i, doc := range docs {
		ids[i] = doc.ID
	}

	byDocument, err := s.stepRepo.ListByDocuments(ctx, ids)
	if err != nil {
		s.logger.Error("Failed to list steps", "error", err, "documents", len(ids))
		return err
	}
	for _, doc := range docs {
		doc.Steps = byDocument[doc.ID]
		if doc.Steps == nil {
			doc.Steps = []*entity.ApprovalStep{}
		}
	}
	return nil
}

func (s *documentServiceImpl) record(ctx context.Context, documentID string, stepID *string, actorID, action, from, to, comment string, at time.Time) error {
	history := &entity.DocumentHistory{
		DocumentID:     documentID,
		StepID:         stepID,
		ActorID:        actorID,
		Action:         action,
		PreviousStatus: from,
		NewStatus:      to,
		Comment:        comment,
		Timestamp:      at,
	}
	if err := s.historyRepo.Create(ctx, history); err != nil {
		return fmt.Errorf("create history: %w", err)
	}
	return nil
}

func (s *documentServiceImpl) publish(ctx context.Context, eventType event.Type, doc *entity.Document, actorID string, payload map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	s.publisher.DispatchAsync(ctx, event.NewEvent(eventType, doc.ID, doc.Number, actorID, payload))
}

func stepPayload(doc *entity.Document, step *entity.ApprovalStep, comment string) map[string]interface{} {
	return map[string]interface{}{
		event.PayloadAuthorID:  doc.AuthorID,
		event.PayloadTitle:     doc.Title,
		event.PayloadStepID:    step.ID,
		event.PayloadStepOrder: step.Order,
		event.PayloadStepRole:  step.Role,
		event.PayloadComment:   comment,
	}
}

// stepRoles returns the distinct roles of steps holding status, in step order
func stepRoles(steps []*entity.ApprovalStep, status string) []string {
	seen := make(map[string]bool)
	var roles []string
	for _, st := range steps {
		if st.Status != status || seen[st.Role] {
			continue
		}
		seen[st.Role] = true
		roles = append(roles, st.Role)
	}
	return roles
}
