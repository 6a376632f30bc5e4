package repositories

import (
	"context"

	"github.com/paperlords/admin-service/internal/models"
)

// AdminRepository interface for admin account persistence
type AdminRepository interface {
	Create(ctx context.Context, admin *models.Admin) error
	GetByID(ctx context.Context, id string) (*models.Admin, error)
	GetByUsername(ctx context.Context, username string) (*models.Admin, error)
	GetByEmail(ctx context.Context, email string) (*models.Admin, error)

	// Validation and checks
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
}
