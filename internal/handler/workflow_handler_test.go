package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docflow/internal/domain"
	"docflow/internal/handler"
	"docflow/internal/middleware"
	"docflow/internal/service"
	"docflow/internal/workflow"
	"docflow/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupWorkflowRouter(svc *mocks.MockWorkflowService) *gin.Engine {
	h := handler.NewWorkflowHandler(svc, nil)
	authH := handler.NewAuthHandler(svc, nil)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextKeyUserID, "user-1")
		c.Next()
	})
	r.GET("/workflow", h.Get)
	r.POST("/workflow/file", h.SelectFile)
	r.GET("/workflow/file", h.File)
	r.POST("/workflow/next", h.Next)
	r.POST("/workflow/back", h.Back)
	r.POST("/workflow/confirm", h.Confirm)
	r.PATCH("/workflow/document/fields", h.EditField)
	r.GET("/workflow/document/export", h.Export)
	r.POST("/auth/logout", authH.Logout)
	return r
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	resp := decode(t, w)
	errObj, ok := resp["error"].(map[string]interface{})
	require.True(t, ok, w.Body.String())
	return errObj["code"].(string)
}

func TestWorkflowHandler_Get(t *testing.T) {
	svc := new(mocks.MockWorkflowService)
	svc.On("View", "user-1").Return(workflow.View{StepName: "upload", Actions: workflow.Actions{SelectFile: true}})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/workflow", http.NoBody)
	setupWorkflowRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "upload", data["step_name"])
	assert.Equal(t, true, data["actions"].(map[string]interface{})["select_file"])
}

func TestWorkflowHandler_SelectFile(t *testing.T) {
	svc := new(mocks.MockWorkflowService)
	svc.On("SelectFile", mock.Anything, mock.MatchedBy(func(in service.FileUploadInput) bool {
		return in.OwnerID == "user-1" && in.Header.Filename == "scan.pdf"
	})).Return(workflow.View{Processing: true}, nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("file", "scan.pdf")
	_, _ = part.Write([]byte("%PDF-1.4"))
	_ = mw.Close()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/workflow/file", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	setupWorkflowRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	svc.AssertExpectations(t)
}

func TestWorkflowHandler_SelectFile_MissingFile(t *testing.T) {
	svc := new(mocks.MockWorkflowService)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/workflow/file", http.NoBody)
	setupWorkflowRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MISSING_FILE", errorCode(t, w))
}

func TestWorkflowHandler_TransitionErrors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		method string
		err    error
		status int
		code   string
	}{
		{"next without document", "/workflow/next", "Next", domain.ErrNoDocument, http.StatusConflict, "NO_DOCUMENT"},
		{"next while busy", "/workflow/next", "Next", domain.ErrWorkflowBusy, http.StatusConflict, "WORKFLOW_BUSY"},
		{"back while busy", "/workflow/back", "Back", domain.ErrWorkflowBusy, http.StatusConflict, "WORKFLOW_BUSY"},
		{"confirm at wrong step", "/workflow/confirm", "Confirm", domain.ErrTransitionNotAllowed, http.StatusConflict, "TRANSITION_NOT_ALLOWED"},
		{"unexpected", "/workflow/next", "Next", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mocks.MockWorkflowService)
			svc.On(tt.method, "user-1").Return(workflow.View{}, tt.err)

			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodPost, tt.path, http.NoBody)
			setupWorkflowRouter(svc).ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}

func TestWorkflowHandler_Confirm(t *testing.T) {
	svc := new(mocks.MockWorkflowService)
	svc.On("Confirm", "user-1").Return(workflow.View{IsUpdating: true, SaveStatus: domain.SaveSaving}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/workflow/confirm", http.NoBody)
	setupWorkflowRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, true, data["is_updating"])
}

func TestWorkflowHandler_EditField(t *testing.T) {
	svc := new(mocks.MockWorkflowService)
	svc.On("EditField", "user-1", "invoiceNumber", "INV-2").Return(workflow.View{}, nil)
	svc.On("EditField", "user-1", "nope", float64(3)).Return(workflow.View{}, domain.ErrUnknownField)
	r := setupWorkflowRouter(svc)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPatch, "/workflow/document/fields", strings.NewReader(`{"key":"invoiceNumber","value":"INV-2"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodPatch, "/workflow/document/fields", strings.NewReader(`{"key":"nope","value":3}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "UNKNOWN_FIELD", errorCode(t, w))

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodPatch, "/workflow/document/fields", strings.NewReader(`{"value":3}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
}

func TestWorkflowHandler_Export(t *testing.T) {
	svc := new(mocks.MockWorkflowService)
	svc.On("Document", "user-1").Return(&domain.ProcessedDocument{
		Type:          "invoice",
		Title:         "Invoice Processing",
		Fields:        []domain.FieldDescriptor{{Key: "invoiceNumber", Label: "Invoice Number"}},
		ExtractedData: map[string]interface{}{"invoiceNumber": "INV-1"},
	}, nil)
	r := setupWorkflowRouter(svc)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/workflow/document/export?format=csv", http.NoBody)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "Invoice_Processing_")
	assert.Contains(t, w.Body.String(), "invoiceNumber,Invoice Number,INV-1")

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/workflow/document/export?format=pdf", http.NoBody)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWorkflowHandler_Export_NoDocument(t *testing.T) {
	svc := new(mocks.MockWorkflowService)
	svc.On("Document", "user-1").Return(nil, domain.ErrNoDocument)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/workflow/document/export", http.NoBody)
	setupWorkflowRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestWorkflowHandler_File(t *testing.T) {
	svc := new(mocks.MockWorkflowService)
	svc.On("File", "user-1").Return(domain.FileRef{Name: "Q3 report.pdf", ContentType: "application/pdf"}, []byte("%PDF-1.4"), nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/workflow/file", http.NoBody)
	setupWorkflowRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `inline; filename="Q3_report.pdf"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.4", w.Body.String())
}

func TestWorkflowHandler_File_NoneSelected(t *testing.T) {
	svc := new(mocks.MockWorkflowService)
	svc.On("File", "user-1").Return(domain.FileRef{}, nil, domain.ErrNoFile)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/workflow/file", http.NoBody)
	setupWorkflowRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NO_FILE", errorCode(t, w))
}

func TestAuthHandler_Logout(t *testing.T) {
	svc := new(mocks.MockWorkflowService)
	svc.On("EndSession", "user-1").Return()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/auth/logout", http.NoBody)
	setupWorkflowRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestWorkflowHandler_MissingUser(t *testing.T) {
	svc := new(mocks.MockWorkflowService)
	h := handler.NewWorkflowHandler(svc, nil)

	r := gin.New()
	r.GET("/workflow", h.Get)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/workflow", http.NoBody)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMapDomainError(t *testing.T) {
	status, code, msg := handler.MapDomainError(domain.NewTimeoutError("job-1", 30))
	assert.Equal(t, http.StatusGatewayTimeout, status)
	assert.Equal(t, "PROCESSING_TIMEOUT", code)
	assert.Equal(t, "Processing timed out, please try again", msg)

	status, code, _ = handler.MapDomainError(domain.ErrFileTooLarge)
	assert.Equal(t, http.StatusRequestEntityTooLarge, status)
	assert.Equal(t, "FILE_TOO_LARGE", code)
}
