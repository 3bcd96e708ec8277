package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"docflow/internal/domain"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondAccepted sends a 202 success response for work that continues in the background.
func RespondAccepted(c *gin.Context, data interface{}) {
	c.JSON(http.StatusAccepted, APIResponse{Success: true, Data: data})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized"
	case errors.Is(err, domain.ErrUnsupportedFileType):
		return http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE", "unsupported file type; allowed: pdf, jpg, png, tiff, docx, xlsx, pptx"
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds maximum allowed size"
	case errors.Is(err, domain.ErrWorkflowBusy):
		return http.StatusConflict, "WORKFLOW_BUSY", "a document is being processed or saved"
	case errors.Is(err, domain.ErrTransitionNotAllowed):
		return http.StatusConflict, "TRANSITION_NOT_ALLOWED", "action not allowed at the current step"
	case errors.Is(err, domain.ErrNoDocument):
		return http.StatusConflict, "NO_DOCUMENT", "no processed document is available"
	case errors.Is(err, domain.ErrNoFile):
		return http.StatusNotFound, "NO_FILE", "no file is selected"
	case errors.Is(err, domain.ErrUnknownField):
		return http.StatusBadRequest, "UNKNOWN_FIELD", "field does not exist on this document"
	case errors.Is(err, domain.ErrSessionClosed):
		return http.StatusConflict, "SESSION_CLOSED", "workflow session has ended; retry the request"
	case errors.Is(err, domain.ErrUploadFailed),
		errors.Is(err, domain.ErrProcessingFailed),
		errors.Is(err, domain.ErrUnknownStatus):
		return http.StatusBadGateway, "PROCESSING_FAILED", domain.UserMessage(err)
	case errors.Is(err, domain.ErrProcessingTimeout):
		return http.StatusGatewayTimeout, "PROCESSING_TIMEOUT", domain.UserMessage(err)
	case errors.Is(err, domain.ErrPersistenceFailed):
		return http.StatusBadGateway, "PERSISTENCE_FAILED", domain.UserMessage(err)
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// errorHandler writes mapped error responses and logs server-side failures.
type errorHandler struct {
	logger *zap.Logger
}

func newErrorHandler(logger *zap.Logger) errorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return errorHandler{logger: logger}
}

// handle maps a domain error and sends the appropriate error response.
func (h errorHandler) handle(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		requestID, _ := c.Get("request_id")
		rid, _ := requestID.(string)
		h.logger.Error("internal error", zap.String("request_id", rid), zap.Error(err))
	}
	_ = c.Error(err)
	RespondError(c, status, code, msg)
}
