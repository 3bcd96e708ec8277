package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"docflow/internal/export"
	"docflow/internal/middleware"
	"docflow/internal/service"
	"docflow/internal/workflow"
)

// WorkflowHandler handles the upload, review and confirm endpoints.
type WorkflowHandler struct {
	workflowService service.WorkflowService
	errorHandler
}

// NewWorkflowHandler creates a new WorkflowHandler.
func NewWorkflowHandler(workflowService service.WorkflowService, logger *zap.Logger) *WorkflowHandler {
	return &WorkflowHandler{workflowService: workflowService, errorHandler: newErrorHandler(logger)}
}

// Get handles GET /api/v1/workflow
// @Summary Current workflow state
// @Description Returns the step, busy flags, enabled actions, document and last error
// @Tags workflow
// @Produce json
// @Success 200 {object} WorkflowResponse
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Security BearerAuth
// @Router /workflow [get]
func (h *WorkflowHandler) Get(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	RespondOK(c, h.workflowService.View(userID))
}

// SelectFile handles POST /api/v1/workflow/file
// @Summary Select a file for processing
// @Description Validates the file and submits it to the processing API. Processing continues in the background; poll GET /workflow for progress.
// @Tags workflow
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Document (PDF, JPG, PNG, TIFF, DOCX, XLSX or PPTX)"
// @Success 202 {object} WorkflowResponse
// @Failure 400 {object} ErrorResponseBody "Missing file or unsupported type"
// @Failure 409 {object} ErrorResponseBody "Workflow busy or not at the upload step"
// @Failure 413 {object} ErrorResponseBody "File too large"
// @Security BearerAuth
// @Router /workflow/file [post]
func (h *WorkflowHandler) SelectFile(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	view, err := h.workflowService.SelectFile(c.Request.Context(), service.FileUploadInput{
		OwnerID: userID,
		File:    file,
		Header:  header,
	})
	if err != nil {
		h.handle(c, err)
		return
	}
	RespondAccepted(c, view)
}

// Next handles POST /api/v1/workflow/next
// @Summary Advance one step
// @Tags workflow
// @Produce json
// @Success 200 {object} WorkflowResponse
// @Failure 409 {object} ErrorResponseBody "No document or workflow busy"
// @Security BearerAuth
// @Router /workflow/next [post]
func (h *WorkflowHandler) Next(c *gin.Context) {
	h.transition(c, h.workflowService.Next)
}

// Back handles POST /api/v1/workflow/back
// @Summary Go back one step
// @Description At the first step with a selected file, clears the selection.
// @Tags workflow
// @Produce json
// @Success 200 {object} WorkflowResponse
// @Failure 409 {object} ErrorResponseBody "Workflow busy"
// @Security BearerAuth
// @Router /workflow/back [post]
func (h *WorkflowHandler) Back(c *gin.Context) {
	h.transition(c, h.workflowService.Back)
}

// Confirm handles POST /api/v1/workflow/confirm
// @Summary Confirm and save the reviewed document
// @Description Starts the save. The workflow resets shortly after a successful save.
// @Tags workflow
// @Produce json
// @Success 202 {object} WorkflowResponse
// @Failure 409 {object} ErrorResponseBody "Not at the confirm step or save in progress"
// @Security BearerAuth
// @Router /workflow/confirm [post]
func (h *WorkflowHandler) Confirm(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	view, err := h.workflowService.Confirm(userID)
	if err != nil {
		h.handle(c, err)
		return
	}
	RespondAccepted(c, view)
}

// EditField handles PATCH /api/v1/workflow/document/fields
// @Summary Edit an extracted value
// @Tags workflow
// @Accept json
// @Produce json
// @Param body body EditFieldRequest true "Field key and new value"
// @Success 200 {object} WorkflowResponse
// @Failure 400 {object} ErrorResponseBody "Invalid body or unknown field"
// @Failure 409 {object} ErrorResponseBody "Not at the review step"
// @Security BearerAuth
// @Router /workflow/document/fields [patch]
func (h *WorkflowHandler) EditField(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req EditFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	view, err := h.workflowService.EditField(userID, req.Key, req.Value)
	if err != nil {
		h.handle(c, err)
		return
	}
	RespondOK(c, view)
}

// Export handles GET /api/v1/workflow/document/export
// @Summary Export the current document
// @Tags workflow
// @Produce text/csv
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param format query string false "csv or xlsx" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} ErrorResponseBody "Unsupported format"
// @Failure 409 {object} ErrorResponseBody "No document"
// @Security BearerAuth
// @Router /workflow/document/export [get]
func (h *WorkflowHandler) Export(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "UNSUPPORTED_FORMAT", err.Error())
		return
	}

	doc, err := h.workflowService.Document(userID)
	if err != nil {
		h.handle(c, err)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, doc); err != nil {
		h.handle(c, fmt.Errorf("workflowHandler.Export: %w", err))
		return
	}

	filename := export.BuildFilename(doc.Title, format, time.Now())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

// File handles GET /api/v1/workflow/file
// @Summary Preview the selected file
// @Description Returns the uploaded file inline with its original content type
// @Tags workflow
// @Produce application/octet-stream
// @Success 200 {file} file
// @Failure 404 {object} ErrorResponseBody "No file selected"
// @Security BearerAuth
// @Router /workflow/file [get]
func (h *WorkflowHandler) File(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	ref, content, err := h.workflowService.File(userID)
	if err != nil {
		h.handle(c, err)
		return
	}

	contentType := ref.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="%s"`, previewFilename(ref.Name)))
	c.Data(http.StatusOK, contentType, content)
}

// previewFilename sanitizes name and keeps its extension.
func previewFilename(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	base := export.SanitizeFilename(strings.TrimSuffix(name, filepath.Ext(name)))
	if ext == "" {
		return base
	}
	return base + "." + export.SanitizeFilename(ext)
}

func (h *WorkflowHandler) transition(c *gin.Context, fn func(ownerID string) (workflow.View, error)) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	view, err := fn(userID)
	if err != nil {
		h.handle(c, err)
		return
	}
	RespondOK(c, view)
}

func (h *WorkflowHandler) userID(c *gin.Context) (string, bool) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing user context")
		return "", false
	}
	return userID, true
}
