package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/paperlords/admin-service/internal/models"
	"github.com/paperlords/admin-service/internal/services"
	"github.com/paperlords/admin-service/internal/utils"
)

const serviceName = "paper-admin-service"

type HandlerManager struct {
	serviceManager services.ServiceManager
	authHandler    *AuthHandler
	paperHandler   *PaperHandler
	authMiddleware *JWTAuthMiddleware
	logger         utils.Logger
}

func NewHandlerManager(serviceManager services.ServiceManager, logger utils.Logger) *HandlerManager {
	return &HandlerManager{
		serviceManager: serviceManager,
		authHandler:    NewAuthHandler(serviceManager.Auth(), logger),
		paperHandler:   NewPaperHandler(serviceManager.Paper(), serviceManager.ImportExport(), logger),
		authMiddleware: NewJWTAuthMiddleware(serviceManager.Auth(), logger),
		logger:         logger,
	}
}

func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.healthCheck)

	api := router.Group("/api")
	{
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/login", hm.authHandler.Login)
			authRoutes.GET("/profile", hm.authMiddleware.AuthMiddleware(), hm.authHandler.Profile)
			authRoutes.POST("/register",
				hm.authMiddleware.AuthMiddleware(),
				hm.authMiddleware.RequireRoleMiddleware(models.RoleSuperAdmin),
				hm.authHandler.Register,
			)
		}

		papers := api.Group("/papers")
		papers.Use(hm.authMiddleware.AuthMiddleware())
		{
			papers.POST("", hm.paperHandler.CreatePaper)
			papers.GET("", hm.paperHandler.ListPapers)
			papers.GET("/stats", hm.paperHandler.GetStats)

			if hm.paperHandler.importExportService != nil {
				papers.GET("/export", hm.paperHandler.ExportPapers)
				papers.POST("/import", hm.paperHandler.ImportPapers)
			}

			papers.GET("/:id", hm.paperHandler.GetPaper)
			papers.PUT("/:id", hm.paperHandler.UpdatePaper)
			papers.DELETE("/:id", hm.paperHandler.DeletePaper)
		}
	}
}

func (hm *HandlerManager) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := hm.serviceManager.HealthCheck(ctx); err != nil {
		utils.FromContext(c, hm.logger).Warn("Health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": serviceName,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   serviceName,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
