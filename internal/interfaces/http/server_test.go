package http

import (
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/doc-approval/internal/application/service"
	"github.com/garyjia/doc-approval/internal/domain/entity"
	"github.com/garyjia/doc-approval/internal/infrastructure/metrics"
	"github.com/garyjia/doc-approval/internal/infrastructure/persistence/repository"
	"github.com/garyjia/doc-approval/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/doc-approval/internal/infrastructure/render"
	"github.com/garyjia/doc-approval/internal/infrastructure/storage"
	"github.com/garyjia/doc-approval/migrations"
	"github.com/garyjia/doc-approval/pkg/database"
)

// newIntegrationServer wires the real services over a temporary SQLite store
func newIntegrationServer(t *testing.T) (*testServer, *metrics.Metrics) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	db, err := database.New(database.Config{
		Path:        filepath.Join(t.TempDir(), "http.db"),
		BusyTimeout: 5 * time.Second,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.NewMigrator(db, logger).RunMigrations(migrations.FS))

	docRepo := repository.NewDocumentRepository(db.DB, logger)
	stepRepo := repository.NewStepRepository(db.DB, logger)
	userRepo := repository.NewUserRepository(db.DB, logger)
	templateRepo := repository.NewTemplateRepository(db.DB, logger)
	historyRepo := repository.NewHistoryRepository(db.DB, logger)
	txManager := sqlite.NewDB(db.DB, logger)
	files := storage.NewLocalFileStorage(t.TempDir(), "/files", logger)
	m := metrics.New()

	services := Services{
		Documents: service.NewDocumentService(docRepo, stepRepo, userRepo, templateRepo, historyRepo, txManager,
			&mockLogger{}, service.WithRecorder(m)),
		Templates: service.NewTemplateService(templateRepo, files, render.NewXLSXRenderer(logger), &mockLogger{}),
		Artifacts: service.NewArtifactService(docRepo, stepRepo, userRepo, templateRepo, historyRepo, txManager,
			files, render.NewXLSXRenderer(logger), nil, m, &mockLogger{}),
		Users: userRepo,
	}

	auth := NewAuthenticator(testSecret, "docflow")
	cfg := DefaultServerConfig()
	cfg.Mode = gin.TestMode
	server := NewServer(cfg, services, auth, m, &mockLogger{})
	return &testServer{router: server.Router(), auth: auth}, m
}

func TestServer_ApprovalFlow(t *testing.T) {
	ts, _ := newIntegrationServer(t)
	ketua := entity.Principal{ID: "usr-ketua", Role: entity.RoleKetua}

	w := ts.do(t, &staffPrincipal, http.MethodPost, "/api/documents", map[string]interface{}{
		"title": "Undangan Rapat",
		"steps": []map[string]string{{"role": entity.RoleManager}, {"role": entity.RoleKetua, "kind": entity.StepKindSigner}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var doc entity.Document
	decode(t, w, &doc)
	assert.Equal(t, entity.DocumentStatusDraft, doc.Status)
	require.Len(t, doc.Steps, 2)
	path := "/api/documents/" + doc.ID

	// only the author may submit
	w = ts.do(t, &managerPrincipal, http.MethodPost, path+"/submit", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(t, &staffPrincipal, http.MethodPost, path+"/submit", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// no step for the author's role
	w = ts.do(t, &staffPrincipal, http.MethodPost, path+"/approve", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// reject requires a comment
	w = ts.do(t, &managerPrincipal, http.MethodPost, path+"/reject", map[string]string{"comment": " "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, &managerPrincipal, http.MethodPost, path+"/approve", map[string]string{"comment": "setuju"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &doc)
	assert.Equal(t, entity.DocumentStatusPending, doc.Status)

	// the manager's step is already resolved
	w = ts.do(t, &managerPrincipal, http.MethodPost, path+"/approve", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(t, &ketua, http.MethodPost, path+"/approve", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &doc)
	assert.Equal(t, entity.DocumentStatusApproved, doc.Status)

	w = ts.do(t, &staffPrincipal, http.MethodPatch, path, map[string]string{"content": "late edit"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = ts.do(t, &staffPrincipal, http.MethodGet, path+"/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []*entity.DocumentHistory
	decode(t, w, &history)
	actions := make([]string, len(history))
	for i, h := range history {
		actions[i] = h.Action
	}
	assert.Equal(t, []string{entity.ActionCreate, entity.ActionSubmit, entity.ActionApprove, entity.ActionApprove, entity.ActionComplete}, actions)

	w = ts.do(t, &staffPrincipal, http.MethodGet, "/api/documents/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_MetricsEndpoint(t *testing.T) {
	ts, _ := newIntegrationServer(t)

	w := ts.do(t, &staffPrincipal, http.MethodGet, "/api/documents", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, nil, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `docflow_http_requests_total{method="GET",path="/api/documents",status="200"} 1`)
	assert.Contains(t, body, "go_goroutines")
}
