package repositories

import "context"

// Repository aggregates the store interfaces of the service
type Repository interface {
	// Paper catalog
	Paper() PaperRepository

	// Admin accounts
	Admin() AdminRepository

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	// Initialize repositories with database connections
	Initialize() error

	// Get repository instance
	GetRepository() Repository

	// Health check for all repositories
	HealthCheck(ctx context.Context) error

	// Graceful shutdown
	Shutdown(ctx context.Context) error
}
