// Package container provides dependency injection and lifecycle management
// for the document approval service.
package container

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/garyjia/doc-approval/internal/application/dispatcher"
	"github.com/garyjia/doc-approval/internal/application/port"
	"github.com/garyjia/doc-approval/internal/application/service"
	"github.com/garyjia/doc-approval/internal/config"
	"github.com/garyjia/doc-approval/internal/domain/workflow"
	infraLark "github.com/garyjia/doc-approval/internal/infrastructure/external/lark"
	"github.com/garyjia/doc-approval/internal/infrastructure/external/logsink"
	"github.com/garyjia/doc-approval/internal/infrastructure/metrics"
	"github.com/garyjia/doc-approval/internal/infrastructure/persistence/repository"
	"github.com/garyjia/doc-approval/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/doc-approval/internal/infrastructure/render"
	"github.com/garyjia/doc-approval/internal/infrastructure/storage"
	"github.com/garyjia/doc-approval/migrations"
	"github.com/garyjia/doc-approval/pkg/database"
	"github.com/garyjia/doc-approval/pkg/utils"
	"go.uber.org/zap"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	DB             *database.DB
	TransactionMgr *sqlite.DB
}

// ServiceDeps holds the dependencies of the application services.
type ServiceDeps struct {
	Repos      *RepositoryBundle
	TxManager  port.TransactionManager
	Storage    port.FileStorage
	Notifier   port.Notifier
	Dispatcher dispatcher.Dispatcher
	Metrics    *metrics.Metrics
	Workflow   *config.WorkflowConfig
	Logger     *zap.Logger
}

// ProvideDatabase opens the SQLite store and applies the embedded migrations.
func ProvideDatabase(cfg *config.DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		BusyTimeout:     cfg.BusyTimeout,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := database.NewMigrator(db, logger).RunMigrations(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		DB:             db,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(db *database.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Document: repository.NewDocumentRepository(db.DB, logger),
		Step:     repository.NewStepRepository(db.DB, logger),
		User:     repository.NewUserRepository(db.DB, logger),
		Template: repository.NewTemplateRepository(db.DB, logger),
		History:  repository.NewHistoryRepository(db.DB, logger),
	}, nil
}

// ProvideNotifier returns a Lark messenger when Lark is enabled, otherwise a log notifier.
func ProvideNotifier(cfg *config.LarkConfig, logger *zap.Logger) (port.Notifier, error) {
	if cfg == nil {
		return nil, fmt.Errorf("lark config is required")
	}
	if !cfg.Enabled {
		logger.Info("Lark disabled, notifications are written to the log")
		return logsink.NewNotifier(logger), nil
	}

	client := infraLark.NewSDKClient(infraLark.Config{
		AppID:     cfg.AppID,
		AppSecret: cfg.AppSecret,
	}, logger)
	return infraLark.NewMessenger(client, logger), nil
}

// ProvideStorage creates the local file storage rooted at the configured directory.
func ProvideStorage(cfg *config.StorageConfig, logger *zap.Logger) (port.FileStorage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("storage config is required")
	}
	if err := os.MkdirAll(cfg.BaseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return storage.NewLocalFileStorage(cfg.BaseDir, cfg.PublicBaseURL, logger), nil
}

// ProvideDispatcher creates the in-process event dispatcher.
func ProvideDispatcher(logger *zap.Logger) dispatcher.Dispatcher {
	return dispatcher.NewDispatcher(dispatcher.WithLogger(utils.NewKVLogger(logger)))
}

// ProvideResolver builds the authorization resolver from the configured policies.
func ProvideResolver(cfg *config.WorkflowConfig) (*workflow.Resolver, error) {
	eligibility, err := workflow.EligibilityPolicyByName(cfg.EligibilityPolicy)
	if err != nil {
		return nil, err
	}
	gating, err := workflow.GatingPolicyByName(cfg.GatingPolicy)
	if err != nil {
		return nil, err
	}
	return workflow.NewResolver(eligibility, gating), nil
}

// ProvideServices creates all application services and subscribes the notifier to workflow events.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil || deps.Repos == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}

	resolver, err := ProvideResolver(deps.Workflow)
	if err != nil {
		return nil, err
	}

	logger := utils.NewKVLogger(deps.Logger)
	repos := deps.Repos

	documents := service.NewDocumentService(
		repos.Document, repos.Step, repos.User, repos.Template, repos.History, deps.TxManager, logger,
		service.WithResolver(resolver),
		service.WithPublisher(deps.Dispatcher),
		service.WithRecorder(deps.Metrics),
		service.WithOwnOnlyRoles(deps.Workflow.OwnOnlyRoles),
	)

	renderer := render.NewXLSXRenderer(deps.Logger)
	artifacts := service.NewArtifactService(
		repos.Document, repos.Step, repos.User, repos.Template, repos.History, deps.TxManager,
		deps.Storage, renderer, deps.Dispatcher, deps.Metrics, logger,
	)

	notifications := service.NewNotificationService(repos.User, deps.Notifier, deps.Metrics, logger)
	notifications.Register(deps.Dispatcher)

	return &ServiceBundle{
		Document:     documents,
		Template:     service.NewTemplateService(repos.Template, deps.Storage, renderer, logger),
		Artifact:     artifacts,
		Notification: notifications,
	}, nil
}
