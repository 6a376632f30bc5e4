package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/paperlords/admin-service/internal/auth"
	"github.com/paperlords/admin-service/internal/models"
	"github.com/paperlords/admin-service/internal/repositories"
	"github.com/paperlords/admin-service/internal/validator"
)

// LegacyAdminID is the identity behind tokens issued by the legacy login
const LegacyAdminID = "dummy-admin-id"

type authService struct {
	repo        repositories.Repository
	logger      *slog.Logger
	validator   *validator.Validator
	tokens      *auth.TokenManager
	legacyLogin bool
}

func NewAuthService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, tokens *auth.TokenManager, legacyLogin bool) AuthService {
	return &authService{
		repo:        repo,
		logger:      logger,
		validator:   validator,
		tokens:      tokens,
		legacyLogin: legacyLogin,
	}
}

func (s *authService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if s.legacyLogin {
		return s.legacyLoginResponse(ctx)
	}

	identifier := strings.TrimSpace(req.Identifier())
	var errs ValidationErrors
	if identifier == "" {
		errs = append(errs, *NewValidationError("username", "is required", nil))
	}
	if req.Password == "" {
		errs = append(errs, *NewValidationError("password", "is required", nil))
	}
	if len(errs) > 0 {
		return nil, errs
	}

	admin, err := s.findAdminForLogin(ctx, identifier)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			s.logger.Warn("Login failed: unknown admin", "identifier", identifier)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load admin: %w", err)
	}

	if !auth.CheckPassword(admin.Password, req.Password) {
		s.logger.Warn("Login failed: wrong password", "admin_id", admin.ID)
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.IssueToken(admin.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.Info("Admin logged in", "admin_id", admin.ID)
	return &AuthResponse{Token: token, Admin: admin.Summary()}, nil
}

// findAdminForLogin resolves an identifier containing "@" as an email first,
// then as a username, since usernames are not restricted to alphanumerics
func (s *authService) findAdminForLogin(ctx context.Context, identifier string) (*models.Admin, error) {
	if !strings.Contains(identifier, "@") {
		return s.repo.Admin().GetByUsername(ctx, identifier)
	}

	admin, err := s.repo.Admin().GetByEmail(ctx, strings.ToLower(identifier))
	if err == nil || !repositories.IsNotFoundError(err) {
		return admin, err
	}
	return s.repo.Admin().GetByUsername(ctx, identifier)
}

// legacyLoginResponse issues a token for a fixed placeholder identity without
// checking credentials. The token never resolves to a stored admin.
func (s *authService) legacyLoginResponse(ctx context.Context) (*AuthResponse, error) {
	s.logger.WarnContext(ctx, "Legacy login issued a placeholder token", "admin_id", LegacyAdminID)

	token, err := s.tokens.IssueToken(LegacyAdminID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &AuthResponse{
		Token: token,
		Admin: models.AdminSummary{
			ID:       LegacyAdminID,
			Username: "any",
			Email:    "any@example.com",
			Role:     models.RoleAdmin,
		},
	}, nil
}

func (s *authService) Register(ctx context.Context, req *RegisterAdminRequest) (*AuthResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if errs := s.validator.GetBusinessValidator().ValidateAdminRegister(req); len(errs) > 0 {
		return nil, errs
	}

	s.logger.Info("Registering admin", "username", req.Username, "email", req.Email)

	exists, err := s.repo.Admin().ExistsByUsernameOrEmail(ctx, req.Username, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check admin existence: %w", err)
	}
	if exists {
		return nil, ErrConflict
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = models.RoleAdmin
	}

	admin := &models.Admin{
		Username: req.Username,
		Email:    req.Email,
		Password: hash,
		Role:     role,
	}

	if err := s.repo.Admin().Create(ctx, admin); err != nil {
		// A concurrent registration can pass the existence check
		if repositories.IsDuplicateKeyError(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}

	token, err := s.tokens.IssueToken(admin.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.Info("Admin registered successfully", "admin_id", admin.ID, "role", admin.Role)
	return &AuthResponse{Token: token, Admin: admin.Summary()}, nil
}

func (s *authService) GetProfile(ctx context.Context, adminID string) (*models.Admin, error) {
	admin, err := s.repo.Admin().GetByID(ctx, adminID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAdminNotFound
		}
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}
	admin.Password = ""
	return admin, nil
}

// Authenticate verifies a bearer token and loads the admin it names. A valid
// token for a missing admin is reported as an invalid token.
func (s *authService) Authenticate(ctx context.Context, token string) (*models.Admin, error) {
	adminID, err := s.tokens.VerifyToken(token)
	if err != nil {
		return nil, auth.ErrInvalidToken
	}

	admin, err := s.GetProfile(ctx, adminID)
	if err != nil {
		if errors.Is(err, ErrAdminNotFound) {
			return nil, auth.ErrInvalidToken
		}
		return nil, err
	}
	return admin, nil
}

func (s *authService) RequireRole(admin *models.Admin, role models.AdminRole) error {
	if admin == nil {
		return ErrUnauthorized
	}
	if admin.Role != role {
		return ErrForbidden
	}
	return nil
}

// EnsureBootstrapAdmin creates the configured super-admin when no admin with
// that username exists yet. It reports whether an account was created.
func (s *authService) EnsureBootstrapAdmin(ctx context.Context, bootstrap BootstrapAdmin) (bool, error) {
	if !bootstrap.IsSet() {
		return false, nil
	}

	_, err := s.repo.Admin().GetByUsername(ctx, bootstrap.Username)
	if err == nil {
		return false, nil
	}
	if !repositories.IsNotFoundError(err) {
		return false, fmt.Errorf("failed to look up bootstrap admin: %w", err)
	}

	_, err = s.Register(ctx, &RegisterAdminRequest{
		Username: bootstrap.Username,
		Email:    bootstrap.Email,
		Password: bootstrap.Password,
		Role:     models.RoleSuperAdmin,
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create bootstrap admin: %w", err)
	}

	s.logger.Info("Bootstrap super-admin created", "username", bootstrap.Username)
	return true, nil
}
