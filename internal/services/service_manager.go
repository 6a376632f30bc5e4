package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/paperlords/admin-service/internal/auth"
	"github.com/paperlords/admin-service/internal/events"
	"github.com/paperlords/admin-service/internal/repositories"
	"github.com/paperlords/admin-service/internal/validator"
)

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	// Auth
	LegacyLogin bool
	Bootstrap   BootstrapAdmin

	// Import/export can be switched off without touching the CRUD surface
	ImportExportEnabled bool

	DefaultTimeout time.Duration
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	// Dependencies
	repoManager repositories.RepositoryManager
	logger      *slog.Logger
	validator   *validator.Validator
	tokens      *auth.TokenManager
	publisher   events.EventPublisher
	config      ServiceManagerConfig

	// Service instances
	paperService        PaperService
	authService         AuthService
	importExportService ImportExportService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies. The
// repository manager must already be initialized.
func NewServiceManager(repoManager repositories.RepositoryManager, logger *slog.Logger, validator *validator.Validator, tokens *auth.TokenManager, publisher events.EventPublisher, config ServiceManagerConfig) ServiceManager {
	if config.DefaultTimeout <= 0 {
		config.DefaultTimeout = 30 * time.Second
	}
	return &serviceManager{
		repoManager: repoManager,
		logger:      logger,
		validator:   validator,
		tokens:      tokens,
		publisher:   publisher,
		config:      config,
	}
}

// Initialize sets up all services and seeds the bootstrap admin
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("Initializing service manager")

	repo := sm.repoManager.GetRepository()
	if repo == nil {
		return fmt.Errorf("repository not initialized")
	}

	sm.paperService = NewPaperService(repo, sm.logger, sm.validator, sm.publisher)
	sm.logger.Info("Paper service initialized")

	sm.authService = NewAuthService(repo, sm.logger, sm.validator, sm.tokens, sm.config.LegacyLogin)
	sm.logger.Info("Auth service initialized")
	if sm.config.LegacyLogin {
		sm.logger.Warn("Legacy login is enabled: /api/auth/login issues tokens without checking credentials")
	}

	if sm.config.ImportExportEnabled {
		sm.importExportService = NewImportExportService(repo, sm.paperService, sm.logger)
		sm.logger.Info("ImportExport service initialized")
	}

	bootstrapCtx, cancel := context.WithTimeout(ctx, sm.config.DefaultTimeout)
	defer cancel()
	created, err := sm.authService.EnsureBootstrapAdmin(bootstrapCtx, sm.config.Bootstrap)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	if created {
		sm.logger.Info("Bootstrap admin seeded", "username", sm.config.Bootstrap.Username)
	}

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully")

	return nil
}

// Service getters
func (sm *serviceManager) Paper() PaperService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	return sm.paperService
}

func (sm *serviceManager) Auth() AuthService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	return sm.authService
}

// ImportExport returns nil when the feature is disabled
func (sm *serviceManager) ImportExport() ImportExportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	return sm.importExportService
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}

	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.repoManager.HealthCheck(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	if sm.publisher != nil {
		if err := sm.publisher.Close(); err != nil {
			sm.logger.Error("Failed to close event publisher", "error", err)
		}
	}

	if err := sm.repoManager.Shutdown(ctx); err != nil {
		sm.logger.Error("Failed to shutdown repository manager", "error", err)
	}

	sm.shutdown = true
	sm.logger.Info("Service manager shut down completed")

	return nil
}
