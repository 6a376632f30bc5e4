package repositories

import (
	"context"

	"github.com/paperlords/admin-service/internal/models"
)

// PaperRepository interface for paper catalog persistence
type PaperRepository interface {
	// Core CRUD operations
	Create(ctx context.Context, paper *models.Paper) error
	GetByID(ctx context.Context, id string) (*models.Paper, error)
	Update(ctx context.Context, paper *models.Paper) error
	Delete(ctx context.Context, id string) (*models.Paper, error)

	// List operations
	List(ctx context.Context, query PaperQuery) ([]*models.Paper, int64, error)
	ListAll(ctx context.Context, query PaperQuery) ([]*models.Paper, error)

	// Aggregates over the whole collection
	Count(ctx context.Context) (int64, error)
	CountByType(ctx context.Context) ([]models.CountByKey, error)
	CountByYear(ctx context.Context, limit int) ([]models.CountByKey, error)
	CountBySubject(ctx context.Context, limit int) ([]models.CountByKey, error)

	// Cached statistics snapshot
	GetCachedStats(ctx context.Context) (*models.PaperStats, bool)
	SetCachedStats(ctx context.Context, stats *models.PaperStats)
}
