package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/paperlords/admin-service/internal/auth"
	"github.com/paperlords/admin-service/internal/models"
	"github.com/paperlords/admin-service/internal/repositories"
	"github.com/paperlords/admin-service/internal/services"
	"github.com/paperlords/admin-service/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() utils.Logger {
	return utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// fakeAuthService resolves tokens from a fixed table
type fakeAuthService struct {
	admins      map[string]*models.Admin // by token
	loginErr    error
	registerErr error
	registered  []*services.RegisterAdminRequest
}

func (f *fakeAuthService) Login(ctx context.Context, req *services.LoginRequest) (*services.AuthResponse, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	for token, a := range f.admins {
		if a.Username == req.Identifier() {
			return &services.AuthResponse{Token: token, Admin: a.Summary()}, nil
		}
	}
	return nil, services.ErrInvalidCredentials
}

func (f *fakeAuthService) Register(ctx context.Context, req *services.RegisterAdminRequest) (*services.AuthResponse, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	f.registered = append(f.registered, req)
	role := req.Role
	if role == "" {
		role = models.RoleAdmin
	}
	return &services.AuthResponse{
		Token: "new-token",
		Admin: models.AdminSummary{ID: "new-admin", Username: req.Username, Email: req.Email, Role: role},
	}, nil
}

func (f *fakeAuthService) GetProfile(ctx context.Context, adminID string) (*models.Admin, error) {
	for _, a := range f.admins {
		if a.ID == adminID {
			c := *a
			c.Password = ""
			return &c, nil
		}
	}
	return nil, services.ErrAdminNotFound
}

func (f *fakeAuthService) Authenticate(ctx context.Context, token string) (*models.Admin, error) {
	a, ok := f.admins[token]
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	return a, nil
}

func (f *fakeAuthService) RequireRole(admin *models.Admin, role models.AdminRole) error {
	if admin == nil {
		return services.ErrUnauthorized
	}
	if admin.Role != role {
		return services.ErrForbidden
	}
	return nil
}

func (f *fakeAuthService) EnsureBootstrapAdmin(ctx context.Context, b services.BootstrapAdmin) (bool, error) {
	return false, nil
}

// fakePaperService records what the handlers pass through
type fakePaperService struct {
	mu        sync.Mutex
	papers    map[string]*models.Paper
	lastQuery repositories.PaperQuery
	createErr error
	statsErr  error
}

func newFakePaperService() *fakePaperService {
	return &fakePaperService{papers: map[string]*models.Paper{}}
}

func (f *fakePaperService) Create(ctx context.Context, req *services.CreatePaperRequest, adminID string) (*models.Paper, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p := &models.Paper{
		ID:        "paper-1",
		Title:     req.Title,
		Type:      models.ExamBoard(req.Type),
		Subject:   req.Subject,
		Year:      req.Year,
		AddedByID: adminID,
		AddedBy:   &models.AdminRef{ID: adminID},
	}
	f.papers[p.ID] = p
	return p, nil
}

func (f *fakePaperService) GetByID(ctx context.Context, id string) (*models.Paper, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.papers[id]
	if !ok {
		return nil, services.ErrPaperNotFound
	}
	return p, nil
}

func (f *fakePaperService) Update(ctx context.Context, id string, req *services.UpdatePaperRequest, adminID string) (*models.Paper, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.papers[id]
	if !ok {
		return nil, services.ErrPaperNotFound
	}
	if req.Title != nil {
		p.Title = *req.Title
	}
	return p, nil
}

func (f *fakePaperService) Delete(ctx context.Context, id string, adminID string) (*models.Paper, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.papers[id]
	if !ok {
		return nil, services.ErrPaperNotFound
	}
	delete(f.papers, id)
	return p, nil
}

func (f *fakePaperService) List(ctx context.Context, query repositories.PaperQuery) (*services.PaperListResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = query
	return &services.PaperListResponse{
		Papers:      []*models.Paper{},
		Total:       25,
		TotalPages:  repositories.TotalPages(25, query.Limit),
		CurrentPage: query.Page,
	}, nil
}

func (f *fakePaperService) Stats(ctx context.Context) (*models.PaperStats, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return &models.PaperStats{
		TotalPapers:     3,
		PapersByType:    []models.CountByKey{{Key: "IGCSE", Count: 3}},
		PapersByYear:    []models.CountByKey{{Key: 2023, Count: 3}},
		PapersBySubject: []models.CountByKey{{Key: "Physics", Count: 3}},
	}, nil
}

type fakeImportExportService struct {
	importErr error
}

func (f *fakeImportExportService) ExportPapers(ctx context.Context, query repositories.PaperQuery, w io.Writer) (int, error) {
	_, err := w.Write([]byte("PK-fake-workbook"))
	return 1, err
}

func (f *fakeImportExportService) ImportPapers(ctx context.Context, r io.Reader, adminID string) (*services.ImportReport, error) {
	if f.importErr != nil {
		return nil, f.importErr
	}
	if _, err := io.ReadAll(r); err != nil {
		return nil, err
	}
	return &services.ImportReport{
		Created: 2,
		Failed:  []services.ImportRowError{{Row: 4, Errors: services.ValidationErrors{{Field: "driveLink", Message: "invalid"}}}},
	}, nil
}

type fakeServiceManager struct {
	auth      *fakeAuthService
	paper     *fakePaperService
	io        services.ImportExportService
	healthErr error
}

func (f *fakeServiceManager) Paper() services.PaperService { return f.paper }
func (f *fakeServiceManager) Auth() services.AuthService   { return f.auth }
func (f *fakeServiceManager) ImportExport() services.ImportExportService {
	return f.io
}
func (f *fakeServiceManager) Initialize(ctx context.Context) error  { return nil }
func (f *fakeServiceManager) HealthCheck(ctx context.Context) error { return f.healthErr }
func (f *fakeServiceManager) Shutdown(ctx context.Context) error    { return nil }

var errStoreDown = errors.New("connection refused")

const (
	adminToken      = "admin-token"
	superAdminToken = "super-token"
)

func newTestServiceManager() *fakeServiceManager {
	return &fakeServiceManager{
		auth: &fakeAuthService{admins: map[string]*models.Admin{
			adminToken:      {ID: "admin-1", Username: "alice", Email: "alice@example.com", Role: models.RoleAdmin, Password: "hash"},
			superAdminToken: {ID: "admin-2", Username: "root", Email: "root@example.com", Role: models.RoleSuperAdmin, Password: "hash"},
		}},
		paper: newFakePaperService(),
		io:    &fakeImportExportService{},
	}
}

func newTestRouter(sm services.ServiceManager) *gin.Engine {
	router := gin.New()
	logger := testLogger()
	SetupMiddleware(router, logger, nil)
	NewHandlerManager(sm, logger).SetupRoutes(router)
	return router
}
