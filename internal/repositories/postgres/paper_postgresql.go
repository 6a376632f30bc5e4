package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/paperlords/admin-service/internal/cache"
	"github.com/paperlords/admin-service/internal/models"
	"github.com/paperlords/admin-service/internal/repositories"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Columns an update may touch. added_by and created_at are write-once.
var paperUpdatableColumns = []string{
	"title", "type", "subject", "year", "season",
	"paper_type", "drive_link", "description", "updated_at",
}

type PaperPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewPaperPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.PaperRepository {
	return &PaperPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// Create inserts a paper without touching the referenced admin row
func (p *PaperPostgreSQL) Create(ctx context.Context, paper *models.Paper) error {
	if err := p.db.WithContext(ctx).Omit(clause.Associations).Create(paper).Error; err != nil {
		return fmt.Errorf("failed to create paper: %w", err)
	}
	cache.InvalidateStatsCache(ctx, p.cacheManager)
	return nil
}

// GetByID retrieves a paper with its creator resolved, using the cache
func (p *PaperPostgreSQL) GetByID(ctx context.Context, id string) (*models.Paper, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repositories.ErrNotFound
	}

	cacheKey := fmt.Sprintf("id:%s", id)
	var paper models.Paper

	err := p.cacheManager.Paper.CacheOrExecute(ctx, cacheKey, &paper, cache.PaperCacheConfig.TTL, func() (interface{}, error) {
		return p.findByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	// The creator id is not serialized; restore it from the resolved reference.
	if paper.AddedByID == "" && paper.AddedBy != nil {
		paper.AddedByID = paper.AddedBy.ID
	}

	return &paper, nil
}

func (p *PaperPostgreSQL) findByID(ctx context.Context, id string) (*models.Paper, error) {
	var paper models.Paper
	err := preloadAddedBy(p.db.WithContext(ctx)).
		Where("id = ?", id).
		First(&paper).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get paper: %w", err)
	}
	return &paper, nil
}

// Update persists the mutable fields of a paper and invalidates its cache
func (p *PaperPostgreSQL) Update(ctx context.Context, paper *models.Paper) error {
	result := p.db.WithContext(ctx).
		Model(&models.Paper{}).
		Where("id = ?", paper.ID).
		Select(paperUpdatableColumns).
		Updates(paper)
	if result.Error != nil {
		return fmt.Errorf("failed to update paper: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}

	cache.InvalidatePaperCache(ctx, p.cacheManager, paper.ID)
	return nil
}

// Delete removes a paper and returns the record as it was before removal
func (p *PaperPostgreSQL) Delete(ctx context.Context, id string) (*models.Paper, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repositories.ErrNotFound
	}

	paper, err := p.findByID(ctx, id)
	if err != nil {
		return nil, err
	}

	result := p.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Paper{})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to delete paper: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, repositories.ErrNotFound
	}

	cache.InvalidatePaperCache(ctx, p.cacheManager, id)
	return paper, nil
}

// List retrieves one page of papers matching the query and the total match count
func (p *PaperPostgreSQL) List(ctx context.Context, q repositories.PaperQuery) ([]*models.Paper, int64, error) {
	query := p.helpers.ApplyPaperFilters(p.db.WithContext(ctx).Model(&models.Paper{}), q)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count papers: %w", err)
	}

	query = p.helpers.ApplyPaginationAndSort(query, q.SortBy, q.SortOrder, q.Limit, q.Offset())

	var papers []*models.Paper
	if err := preloadAddedBy(query).Find(&papers).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list papers: %w", err)
	}

	return papers, total, nil
}

// ListAll retrieves every paper matching the query filters, ignoring paging
func (p *PaperPostgreSQL) ListAll(ctx context.Context, q repositories.PaperQuery) ([]*models.Paper, error) {
	query := p.helpers.ApplyPaperFilters(p.db.WithContext(ctx).Model(&models.Paper{}), q)
	query = p.helpers.ApplySort(query, q.SortBy, q.SortOrder)

	var papers []*models.Paper
	if err := preloadAddedBy(query).Find(&papers).Error; err != nil {
		return nil, fmt.Errorf("failed to list papers: %w", err)
	}

	return papers, nil
}

// ===== AGGREGATES =====

func (p *PaperPostgreSQL) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := p.db.WithContext(ctx).Model(&models.Paper{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count papers: %w", err)
	}
	return count, nil
}

type stringBucket struct {
	Label string
	Total int64
}

type intBucket struct {
	Label int
	Total int64
}

func (p *PaperPostgreSQL) CountByType(ctx context.Context) ([]models.CountByKey, error) {
	var rows []stringBucket
	err := p.db.WithContext(ctx).
		Model(&models.Paper{}).
		Select("type AS label, COUNT(*) AS total").
		Group("type").
		Order("type ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count papers by type: %w", err)
	}
	return stringBuckets(rows), nil
}

func (p *PaperPostgreSQL) CountByYear(ctx context.Context, limit int) ([]models.CountByKey, error) {
	var rows []intBucket
	err := p.db.WithContext(ctx).
		Model(&models.Paper{}).
		Select("year AS label, COUNT(*) AS total").
		Group("year").
		Order("year DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count papers by year: %w", err)
	}

	out := make([]models.CountByKey, len(rows))
	for i, r := range rows {
		out[i] = models.CountByKey{Key: r.Label, Count: r.Total}
	}
	return out, nil
}

func (p *PaperPostgreSQL) CountBySubject(ctx context.Context, limit int) ([]models.CountByKey, error) {
	var rows []stringBucket
	err := p.db.WithContext(ctx).
		Model(&models.Paper{}).
		Select("subject AS label, COUNT(*) AS total").
		Group("subject").
		Order("total DESC").
		Order("subject ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count papers by subject: %w", err)
	}
	return stringBuckets(rows), nil
}

func stringBuckets(rows []stringBucket) []models.CountByKey {
	out := make([]models.CountByKey, len(rows))
	for i, r := range rows {
		out[i] = models.CountByKey{Key: r.Label, Count: r.Total}
	}
	return out
}

// ===== STATS CACHE =====

func (p *PaperPostgreSQL) GetCachedStats(ctx context.Context) (*models.PaperStats, bool) {
	var stats models.PaperStats
	if err := p.cacheManager.Stats.Get(ctx, cache.PaperStatsKey, &stats); err != nil {
		if !errors.Is(err, cache.ErrCacheNotFound) && !errors.Is(err, cache.ErrCacheNotAvailable) {
			cache.SafeDelete(ctx, p.cacheManager.Stats, cache.PaperStatsKey)
		}
		return nil, false
	}
	return &stats, true
}

func (p *PaperPostgreSQL) SetCachedStats(ctx context.Context, stats *models.PaperStats) {
	if err := p.cacheManager.Stats.Set(ctx, cache.PaperStatsKey, stats, cache.StatsCacheConfig.TTL); err != nil {
		cache.SafeDelete(ctx, p.cacheManager.Stats, cache.PaperStatsKey)
	}
}
