package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/paperlords/admin-service/internal/cache"
	"github.com/paperlords/admin-service/internal/models"
	"github.com/paperlords/admin-service/internal/repositories"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type AdminPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewAdminPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.AdminRepository {
	return &AdminPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (a *AdminPostgreSQL) Create(ctx context.Context, admin *models.Admin) error {
	if err := a.db.WithContext(ctx).Create(admin).Error; err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	return nil
}

// GetByID is hit by the auth middleware on every request, so it goes
// through the cache. The cached copy never carries the password hash.
func (a *AdminPostgreSQL) GetByID(ctx context.Context, id string) (*models.Admin, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repositories.ErrNotFound
	}

	cacheKey := fmt.Sprintf("id:%s", id)
	var admin models.Admin

	err := a.cacheManager.Admin.CacheOrExecute(ctx, cacheKey, &admin, cache.AdminCacheConfig.TTL, func() (interface{}, error) {
		var dbAdmin models.Admin
		if err := a.db.WithContext(ctx).Where("id = ?", id).First(&dbAdmin).Error; err != nil {
			return nil, fmt.Errorf("failed to get admin: %w", err)
		}
		return &dbAdmin, nil
	})
	if err != nil {
		return nil, err
	}

	return &admin, nil
}

func (a *AdminPostgreSQL) GetByUsername(ctx context.Context, username string) (*models.Admin, error) {
	return a.getBy(ctx, "username", username)
}

func (a *AdminPostgreSQL) GetByEmail(ctx context.Context, email string) (*models.Admin, error) {
	return a.getBy(ctx, "email", email)
}

func (a *AdminPostgreSQL) getBy(ctx context.Context, column, value string) (*models.Admin, error) {
	var admin models.Admin
	if err := a.db.WithContext(ctx).Where(column+" = ?", value).First(&admin).Error; err != nil {
		return nil, fmt.Errorf("failed to get admin by %s: %w", column, err)
	}
	return &admin, nil
}

func (a *AdminPostgreSQL) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var count int64
	err := a.db.WithContext(ctx).
		Model(&models.Admin{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check admin existence: %w", err)
	}
	return count > 0, nil
}
