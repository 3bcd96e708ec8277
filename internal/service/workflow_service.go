package service

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docflow/internal/config"
	"docflow/internal/domain"
	"docflow/internal/workflow"
)

// FileUploadInput is a file received from the client.
type FileUploadInput struct {
	OwnerID string
	File    multipart.File
	Header  *multipart.FileHeader
}

// WorkflowService exposes the per-user upload, review and confirm flow.
type WorkflowService interface {
	View(ownerID string) workflow.View
	SelectFile(ctx context.Context, input FileUploadInput) (workflow.View, error)
	Next(ownerID string) (workflow.View, error)
	Back(ownerID string) (workflow.View, error)
	EditField(ownerID, key string, value interface{}) (workflow.View, error)
	Confirm(ownerID string) (workflow.View, error)
	Document(ownerID string) (*domain.ProcessedDocument, error)
	File(ownerID string) (domain.FileRef, []byte, error)
	EndSession(ownerID string)
}

type workflowService struct {
	sessions *workflow.Registry
	cfg      *config.WorkflowConfig
	logger   *zap.Logger
}

// NewWorkflowService creates a WorkflowService backed by sessions.
func NewWorkflowService(sessions *workflow.Registry, cfg *config.WorkflowConfig, logger *zap.Logger) WorkflowService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &workflowService{
		sessions: sessions,
		cfg:      cfg,
		logger:   logger,
	}
}

func (s *workflowService) View(ownerID string) workflow.View {
	return s.sessions.Get(ownerID).View()
}

func (s *workflowService) SelectFile(ctx context.Context, input FileUploadInput) (workflow.View, error) {
	session := s.sessions.Get(input.OwnerID)

	// Validate file extension
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(input.Header.Filename), "."))
	fileType, ok := domain.AllowedExtensions[ext]
	if !ok {
		return session.View(), domain.ErrUnsupportedFileType
	}

	// Validate file size
	maxBytes := s.cfg.MaxFileSizeMB * 1024 * 1024
	if maxBytes > 0 && input.Header.Size > maxBytes {
		return session.View(), domain.ErrFileTooLarge
	}

	reader := io.Reader(input.File)
	if maxBytes > 0 {
		reader = io.LimitReader(input.File, maxBytes+1)
	}
	content, err := io.ReadAll(reader)
	if err != nil {
		return session.View(), fmt.Errorf("workflowService.SelectFile: reading file: %w", err)
	}
	if maxBytes > 0 && int64(len(content)) > maxBytes {
		return session.View(), domain.ErrFileTooLarge
	}

	// Magic-byte content type detection
	head := content
	if len(head) > 512 {
		head = head[:512]
	}
	if detected := http.DetectContentType(head); !fileType.MatchesContent(detected) {
		s.logger.Info("rejected upload with mismatched content",
			zap.String("owner_id", input.OwnerID),
			zap.String("file", input.Header.Filename),
			zap.String("detected", detected))
		return session.View(), domain.ErrUnsupportedFileType
	}

	file := domain.FileRef{
		ID:          uuid.New(),
		Name:        filepath.Base(input.Header.Filename),
		ContentType: domain.AllowedFileTypes[fileType],
		Size:        int64(len(content)),
		FileType:    fileType,
	}
	s.logger.Info("file selected",
		zap.String("owner_id", input.OwnerID),
		zap.String("file", file.Name),
		zap.String("content_type", file.ContentType),
		zap.Int64("size", file.Size))

	st, err := session.SelectFile(file, content)
	return session.Render(st), err
}

func (s *workflowService) Next(ownerID string) (workflow.View, error) {
	session := s.sessions.Get(ownerID)
	st, err := session.Next()
	return session.Render(st), err
}

func (s *workflowService) Back(ownerID string) (workflow.View, error) {
	session := s.sessions.Get(ownerID)
	st, err := session.Back()
	return session.Render(st), err
}

func (s *workflowService) EditField(ownerID, key string, value interface{}) (workflow.View, error) {
	session := s.sessions.Get(ownerID)
	st, err := session.EditField(key, value)
	return session.Render(st), err
}

func (s *workflowService) Confirm(ownerID string) (workflow.View, error) {
	session := s.sessions.Get(ownerID)
	st, err := session.Confirm()
	return session.Render(st), err
}

func (s *workflowService) Document(ownerID string) (*domain.ProcessedDocument, error) {
	st := s.sessions.Get(ownerID).State()
	if st.Document == nil {
		return nil, domain.ErrNoDocument
	}
	doc := *st.Document
	return &doc, nil
}

func (s *workflowService) File(ownerID string) (domain.FileRef, []byte, error) {
	return s.sessions.Get(ownerID).File()
}

func (s *workflowService) EndSession(ownerID string) {
	s.sessions.Close(ownerID)
}
