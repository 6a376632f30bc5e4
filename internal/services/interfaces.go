package services

import (
	"context"
	"io"

	"github.com/paperlords/admin-service/internal/models"
	"github.com/paperlords/admin-service/internal/repositories"
	"github.com/paperlords/admin-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

type CreatePaperRequest = validator.PaperCreateRequest
type UpdatePaperRequest = validator.PaperUpdateRequest
type RegisterAdminRequest = validator.AdminRegisterRequest
type LoginRequest = validator.LoginRequest

type PaperListResponse struct {
	Papers      []*models.Paper `json:"papers"`
	Total       int64           `json:"total"`
	TotalPages  int             `json:"totalPages"`
	CurrentPage int             `json:"currentPage"`
}

// AuthResponse carries a freshly issued token and the admin it belongs to
type AuthResponse struct {
	Token string              `json:"token"`
	Admin models.AdminSummary `json:"admin"`
}

type ImportRowError struct {
	Row    int              `json:"row"`
	Errors ValidationErrors `json:"errors"`
}

type ImportReport struct {
	Created int              `json:"created"`
	Failed  []ImportRowError `json:"failed"`
}

// BootstrapAdmin describes the super-admin seeded at startup
type BootstrapAdmin struct {
	Username string
	Email    string
	Password string
}

// IsSet reports whether all bootstrap credentials are provided
func (b BootstrapAdmin) IsSet() bool {
	return b.Username != "" && b.Email != "" && b.Password != ""
}

// ===== SERVICE INTERFACES =====

type PaperService interface {
	Create(ctx context.Context, req *CreatePaperRequest, adminID string) (*models.Paper, error)
	GetByID(ctx context.Context, id string) (*models.Paper, error)
	Update(ctx context.Context, id string, req *UpdatePaperRequest, adminID string) (*models.Paper, error)
	Delete(ctx context.Context, id string, adminID string) (*models.Paper, error)
	List(ctx context.Context, query repositories.PaperQuery) (*PaperListResponse, error)
	Stats(ctx context.Context) (*models.PaperStats, error)
}

type AuthService interface {
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	Register(ctx context.Context, req *RegisterAdminRequest) (*AuthResponse, error)
	GetProfile(ctx context.Context, adminID string) (*models.Admin, error)

	// Token verification and admin lookup for the auth middleware
	Authenticate(ctx context.Context, token string) (*models.Admin, error)
	RequireRole(admin *models.Admin, role models.AdminRole) error

	EnsureBootstrapAdmin(ctx context.Context, bootstrap BootstrapAdmin) (bool, error)
}

type ImportExportService interface {
	ExportPapers(ctx context.Context, query repositories.PaperQuery, w io.Writer) (int, error)
	ImportPapers(ctx context.Context, r io.Reader, adminID string) (*ImportReport, error)
}

type ServiceManager interface {
	Paper() PaperService
	Auth() AuthService
	ImportExport() ImportExportService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
