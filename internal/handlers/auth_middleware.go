package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/paperlords/admin-service/internal/auth"
	"github.com/paperlords/admin-service/internal/models"
	"github.com/paperlords/admin-service/internal/services"
	"github.com/paperlords/admin-service/internal/utils"
)

const (
	contextAdminIDKey = "user_id"
	contextAdminKey   = "user"
	contextRoleKey    = "user_role"
)

const (
	msgNoToken       = "No authentication token, access denied"
	msgInvalidToken  = "Token is invalid"
	msgSuperAdminReq = "Access denied. Super admin privileges required."
)

type JWTAuthMiddleware struct {
	authService services.AuthService
	logger      utils.Logger
}

func NewJWTAuthMiddleware(authService services.AuthService, logger utils.Logger) *JWTAuthMiddleware {
	return &JWTAuthMiddleware{
		authService: authService,
		logger:      logger,
	}
}

// AuthMiddleware verifies the bearer token and loads the admin it names
func (am *JWTAuthMiddleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if strings.TrimSpace(header) == "" {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Message: msgNoToken})
			c.Abort()
			return
		}

		token, ok := auth.ExtractBearerToken(header)
		if !ok {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Message: msgNoToken})
			c.Abort()
			return
		}

		admin, err := am.authService.Authenticate(c.Request.Context(), token)
		if err != nil {
			utils.FromContext(c, am.logger).Debug("Rejected bearer token", "error", err)
			c.JSON(http.StatusUnauthorized, ErrorResponse{Message: msgInvalidToken})
			c.Abort()
			return
		}

		c.Set(contextAdminIDKey, admin.ID)
		c.Set(contextAdminKey, admin)
		c.Set(contextRoleKey, admin.Role)

		c.Next()
	}
}

// RequireRoleMiddleware must run after AuthMiddleware
func (am *JWTAuthMiddleware) RequireRoleMiddleware(requiredRoles ...models.AdminRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		admin, ok := GetAdminFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Message: msgNoToken})
			c.Abort()
			return
		}

		for _, role := range requiredRoles {
			if am.authService.RequireRole(admin, role) == nil {
				c.Next()
				return
			}
		}

		message := "Access denied"
		for _, role := range requiredRoles {
			if role == models.RoleSuperAdmin {
				message = msgSuperAdminReq
			}
		}
		c.JSON(http.StatusForbidden, ErrorResponse{Message: message})
		c.Abort()
	}
}

func GetAdminFromContext(c *gin.Context) (*models.Admin, bool) {
	v, exists := c.Get(contextAdminKey)
	if !exists {
		return nil, false
	}
	admin, ok := v.(*models.Admin)
	return admin, ok && admin != nil
}

func GetAdminIDFromContext(c *gin.Context) (string, bool) {
	id := c.GetString(contextAdminIDKey)
	return id, id != ""
}
