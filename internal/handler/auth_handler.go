package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"docflow/internal/middleware"
	"docflow/internal/service"
)

// AuthHandler handles authentication endpoints. Sign-in happens at the
// identity provider; only sign-out is served here.
type AuthHandler struct {
	workflowService service.WorkflowService
	errorHandler
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(workflowService service.WorkflowService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{workflowService: workflowService, errorHandler: newErrorHandler(logger)}
}

// Logout handles POST /api/v1/auth/logout
// @Summary Sign out
// @Description Ends the caller's workflow session and cancels in-flight processing
// @Tags auth
// @Produce json
// @Success 200 {object} Response{data=MessageResponse}
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Security BearerAuth
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing user context")
		return
	}
	h.workflowService.EndSession(userID)
	h.logger.Info("user signed out", zap.String("user_id", userID))
	RespondOK(c, MessageResponse{Message: "signed out"})
}
