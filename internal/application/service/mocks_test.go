package service

import (
	"context"
	"sync"
	"time"

	"github.com/garyjia/doc-approval/internal/domain/entity"
)

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}

type mockTxManager struct {
	withTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.withTransactionFunc != nil {
		return m.withTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

type mockDocumentRepo struct {
	createFunc         func(ctx context.Context, doc *entity.Document) error
	getByIDFunc        func(ctx context.Context, id string) (*entity.Document, error)
	countFunc          func(ctx context.Context) (int, error)
	updateStatusFunc   func(ctx context.Context, id, from, to string) error
	setArtifactURLFunc func(ctx context.Context, id, url string) error
}

func (m *mockDocumentRepo) Create(ctx context.Context, doc *entity.Document) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, doc)
	}
	return nil
}

func (m *mockDocumentRepo) GetByID(ctx context.Context, id string) (*entity.Document, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockDocumentRepo) Count(ctx context.Context) (int, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx)
	}
	return 0, nil
}

func (m *mockDocumentRepo) UpdateStatus(ctx context.Context, id, from, to string) error {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, from, to)
	}
	return nil
}

func (m *mockDocumentRepo) UpdateContent(ctx context.Context, id, content string) error {
	return nil
}

func (m *mockDocumentRepo) SetArtifactURL(ctx context.Context, id, url string) error {
	if m.setArtifactURLFunc != nil {
		return m.setArtifactURLFunc(ctx, id, url)
	}
	return nil
}

func (m *mockDocumentRepo) ListByAuthor(ctx context.Context, authorID string) ([]*entity.Document, error) {
	return nil, nil
}

func (m *mockDocumentRepo) ListVisible(ctx context.Context, authorID, role string) ([]*entity.Document, error) {
	return nil, nil
}

func (m *mockDocumentRepo) ListInbox(ctx context.Context, userID string) ([]*entity.Document, error) {
	return nil, nil
}

type mockStepRepo struct {
	listByDocumentFunc func(ctx context.Context, documentID string) ([]*entity.ApprovalStep, error)
	transitionFunc     func(ctx context.Context, stepID, from, to, actorID, comment string, actedAt time.Time) error
	countByStatusFunc  func(ctx context.Context, documentID, status string) (int, error)
}

func (m *mockStepRepo) CreateBatch(ctx context.Context, steps []*entity.ApprovalStep) error {
	return nil
}

func (m *mockStepRepo) ListByDocument(ctx context.Context, documentID string) ([]*entity.ApprovalStep, error) {
	if m.listByDocumentFunc != nil {
		return m.listByDocumentFunc(ctx, documentID)
	}
	return []*entity.ApprovalStep{}, nil
}

func (m *mockStepRepo) ListByDocuments(ctx context.Context, documentIDs []string) (map[string][]*entity.ApprovalStep, error) {
	return map[string][]*entity.ApprovalStep{}, nil
}

func (m *mockStepRepo) ActivateAll(ctx context.Context, documentID string) (int64, error) {
	return 0, nil
}

func (m *mockStepRepo) Transition(ctx context.Context, stepID, from, to, actorID, comment string, actedAt time.Time) error {
	if m.transitionFunc != nil {
		return m.transitionFunc(ctx, stepID, from, to, actorID, comment, actedAt)
	}
	return nil
}

func (m *mockStepRepo) CountByStatus(ctx context.Context, documentID, status string) (int, error) {
	if m.countByStatusFunc != nil {
		return m.countByStatusFunc(ctx, documentID, status)
	}
	return 0, nil
}

type mockUserRepo struct {
	users map[string]*entity.User
	err   error
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.users[id], nil
}

func (m *mockUserRepo) List(ctx context.Context) ([]*entity.User, error) {
	var out []*entity.User
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, m.err
}

func (m *mockUserRepo) ListByRoles(ctx context.Context, roles []string) ([]*entity.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	want := make(map[string]bool, len(roles))
	for _, r := range roles {
		want[r] = true
	}
	var out []*entity.User
	for _, u := range m.users {
		if want[u.Role] {
			out = append(out, u)
		}
	}
	return out, nil
}

type mockTemplateRepo struct {
	createFunc func(ctx context.Context, tpl *entity.Template) error
	templates  map[string]*entity.Template
}

func (m *mockTemplateRepo) Create(ctx context.Context, tpl *entity.Template) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, tpl)
	}
	if m.templates == nil {
		m.templates = map[string]*entity.Template{}
	}
	m.templates[tpl.ID] = tpl
	return nil
}

func (m *mockTemplateRepo) GetByID(ctx context.Context, id string) (*entity.Template, error) {
	return m.templates[id], nil
}

func (m *mockTemplateRepo) List(ctx context.Context) ([]*entity.Template, error) {
	var out []*entity.Template
	for _, t := range m.templates {
		out = append(out, t)
	}
	return out, nil
}

func (m *mockTemplateRepo) Delete(ctx context.Context, id string) error {
	delete(m.templates, id)
	return nil
}

type mockHistoryRepo struct {
	mu      sync.Mutex
	entries []*entity.DocumentHistory
}

func (m *mockHistoryRepo) Create(ctx context.Context, history *entity.DocumentHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, history)
	return nil
}

func (m *mockHistoryRepo) ListByDocument(ctx context.Context, documentID string) ([]*entity.DocumentHistory, error) {
	return m.entries, nil
}

type mockNotifier struct {
	mu       sync.Mutex
	sent     map[string]string
	failFor  map[string]bool
	failWith error
}

func (m *mockNotifier) Notify(ctx context.Context, recipient *entity.User, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor[recipient.ID] {
		return m.failWith
	}
	if m.sent == nil {
		m.sent = map[string]string{}
	}
	m.sent[recipient.ID] = message
	return nil
}

type countingRecorder struct {
	mu          sync.Mutex
	transitions map[string]int
	created     int
	delivered   int
	failed      int
	renders     map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{transitions: map[string]int{}, renders: map[string]int{}}
}

func (r *countingRecorder) RecordTransition(action, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions[action+"/"+outcome]++
}

func (r *countingRecorder) RecordDocumentCreated() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created++
}

func (r *countingRecorder) RecordNotification(delivered bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if delivered {
		r.delivered++
	} else {
		r.failed++
	}
}

func (r *countingRecorder) RecordArtifactRender(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renders[outcome]++
}
