package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/paperlords/admin-service/internal/utils"
)

// ErrorResponse is the body of every non-2xx JSON response
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) LogRequest(c *gin.Context, message string, args ...any) {
	l := utils.FromContext(c, h.logger)
	l.Info(message, append(args, "method", c.Request.Method, "path", c.FullPath())...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, message string, args ...any) {
	l := utils.FromContext(c, h.logger)
	l.Error(message, append(args, "error", err, "path", c.FullPath())...)
}

// RespondWithError writes an ErrorResponse; err becomes the details when set
func (h *BaseHandler) RespondWithError(c *gin.Context, status int, message string, err error) {
	resp := ErrorResponse{Message: message}
	if err != nil {
		resp.Details = err.Error()
	}
	c.JSON(status, resp)
}
