package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/paperlords/admin-service/internal/services"
	"github.com/paperlords/admin-service/internal/utils"
)

type AuthHandler struct {
	BaseHandler
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService, logger utils.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: NewBaseHandler(logger),
		authService: authService,
	}
}

// Login exchanges credentials for a bearer token
// @Summary Log in
// @Description Exchanges a username or email and password for a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body services.LoginRequest true "Login credentials"
// @Success 200 {object} services.AuthResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	// An empty body is left to the service, which reports missing fields
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Admin logged in", "admin_id", resp.Admin.ID)

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   resp.Token,
		"admin":   resp.Admin,
	})
}

// Register creates a new admin account. Super-admins only.
// @Summary Register admin
// @Description Creates an admin account and returns a token for it
// @Tags auth
// @Accept json
// @Produce json
// @Param admin body services.RegisterAdminRequest true "Admin data"
// @Success 201 {object} services.AuthResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	resp, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	creator, _ := GetAdminIDFromContext(c)
	h.LogRequest(c, "Admin registered", "admin_id", resp.Admin.ID, "created_by", creator)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Admin created successfully",
		"token":   resp.Token,
		"admin":   resp.Admin,
	})
}

// Profile returns the authenticated admin
// @Summary Current admin
// @Description Returns the authenticated admin's account
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} models.Admin
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/auth/profile [get]
func (h *AuthHandler) Profile(c *gin.Context) {
	adminID, ok := GetAdminIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: msgNoToken})
		return
	}

	admin, err := h.authService.GetProfile(c.Request.Context(), adminID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, admin)
}

func (h *AuthHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Admin with this email or username already exists",
		})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Invalid credentials"})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: msgInvalidToken})
	case errors.Is(err, services.ErrAdminNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Admin not found"})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Message: msgSuperAdminReq})
	default:
		h.LogError(c, err, "Unexpected service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
	}
}
