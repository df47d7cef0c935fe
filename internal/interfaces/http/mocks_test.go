package http

import (
	"context"

	"github.com/garyjia/doc-approval/internal/application/service"
	"github.com/garyjia/doc-approval/internal/domain/entity"
)

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}

type mockDocumentService struct {
	createFunc  func(ctx context.Context, p entity.Principal, in service.CreateDocumentInput) (*entity.Document, error)
	getFunc     func(ctx context.Context, id string) (*entity.Document, error)
	listFunc    func(ctx context.Context, p entity.Principal) ([]*entity.Document, error)
	inboxFunc   func(ctx context.Context, p entity.Principal) ([]*entity.InboxItem, error)
	historyFunc func(ctx context.Context, id string) ([]*entity.DocumentHistory, error)
	editFunc    func(ctx context.Context, p entity.Principal, id, content string) (*entity.Document, error)
	submitFunc  func(ctx context.Context, p entity.Principal, id string) (*entity.Document, error)
	approveFunc func(ctx context.Context, p entity.Principal, id, comment string) (*entity.Document, error)
	rejectFunc  func(ctx context.Context, p entity.Principal, id, comment string) (*entity.Document, error)
}

func (m *mockDocumentService) Create(ctx context.Context, p entity.Principal, in service.CreateDocumentInput) (*entity.Document, error) {
	return m.createFunc(ctx, p, in)
}

func (m *mockDocumentService) Get(ctx context.Context, id string) (*entity.Document, error) {
	return m.getFunc(ctx, id)
}

func (m *mockDocumentService) List(ctx context.Context, p entity.Principal) ([]*entity.Document, error) {
	return m.listFunc(ctx, p)
}

func (m *mockDocumentService) Inbox(ctx context.Context, p entity.Principal) ([]*entity.InboxItem, error) {
	return m.inboxFunc(ctx, p)
}

func (m *mockDocumentService) History(ctx context.Context, id string) ([]*entity.DocumentHistory, error) {
	return m.historyFunc(ctx, id)
}

func (m *mockDocumentService) EditContent(ctx context.Context, p entity.Principal, id, content string) (*entity.Document, error) {
	return m.editFunc(ctx, p, id, content)
}

func (m *mockDocumentService) Submit(ctx context.Context, p entity.Principal, id string) (*entity.Document, error) {
	return m.submitFunc(ctx, p, id)
}

func (m *mockDocumentService) Approve(ctx context.Context, p entity.Principal, id, comment string) (*entity.Document, error) {
	return m.approveFunc(ctx, p, id, comment)
}

func (m *mockDocumentService) Reject(ctx context.Context, p entity.Principal, id, comment string) (*entity.Document, error) {
	return m.rejectFunc(ctx, p, id, comment)
}

type mockTemplateService struct {
	uploadFunc func(ctx context.Context, in service.UploadTemplateInput) (*entity.Template, error)
	getFunc    func(ctx context.Context, id string) (*entity.Template, error)
	listFunc   func(ctx context.Context) ([]*entity.Template, error)
	deleteFunc func(ctx context.Context, id string) error
}

func (m *mockTemplateService) Upload(ctx context.Context, in service.UploadTemplateInput) (*entity.Template, error) {
	return m.uploadFunc(ctx, in)
}

func (m *mockTemplateService) Get(ctx context.Context, id string) (*entity.Template, error) {
	return m.getFunc(ctx, id)
}

func (m *mockTemplateService) List(ctx context.Context) ([]*entity.Template, error) {
	return m.listFunc(ctx)
}

func (m *mockTemplateService) Delete(ctx context.Context, id string) error {
	return m.deleteFunc(ctx, id)
}

type mockArtifactService struct {
	generateFunc func(ctx context.Context, p entity.Principal, id string) (*entity.Document, error)
}

func (m *mockArtifactService) Generate(ctx context.Context, p entity.Principal, id string) (*entity.Document, error) {
	return m.generateFunc(ctx, p, id)
}

type mockUserRepo struct {
	users []*entity.User
	err   error
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, m.err
}

func (m *mockUserRepo) List(ctx context.Context) ([]*entity.User, error) {
	return m.users, m.err
}

func (m *mockUserRepo) ListByRoles(ctx context.Context, roles []string) ([]*entity.User, error) {
	return m.users, m.err
}
