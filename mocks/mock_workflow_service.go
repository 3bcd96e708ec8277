package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docflow/internal/domain"
	"docflow/internal/service"
	"docflow/internal/workflow"
)

// MockWorkflowService is a mock implementation of service.WorkflowService.
type MockWorkflowService struct {
	mock.Mock
}

func (m *MockWorkflowService) View(ownerID string) workflow.View {
	args := m.Called(ownerID)
	return args.Get(0).(workflow.View)
}

func (m *MockWorkflowService) SelectFile(ctx context.Context, input service.FileUploadInput) (workflow.View, error) {
	args := m.Called(ctx, input)
	return args.Get(0).(workflow.View), args.Error(1)
}

func (m *MockWorkflowService) Next(ownerID string) (workflow.View, error) {
	args := m.Called(ownerID)
	return args.Get(0).(workflow.View), args.Error(1)
}

func (m *MockWorkflowService) Back(ownerID string) (workflow.View, error) {
	args := m.Called(ownerID)
	return args.Get(0).(workflow.View), args.Error(1)
}

func (m *MockWorkflowService) EditField(ownerID, key string, value interface{}) (workflow.View, error) {
	args := m.Called(ownerID, key, value)
	return args.Get(0).(workflow.View), args.Error(1)
}

func (m *MockWorkflowService) Confirm(ownerID string) (workflow.View, error) {
	args := m.Called(ownerID)
	return args.Get(0).(workflow.View), args.Error(1)
}

func (m *MockWorkflowService) Document(ownerID string) (*domain.ProcessedDocument, error) {
	args := m.Called(ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProcessedDocument), args.Error(1)
}

func (m *MockWorkflowService) File(ownerID string) (domain.FileRef, []byte, error) {
	args := m.Called(ownerID)
	var content []byte
	if args.Get(1) != nil {
		content = args.Get(1).([]byte)
	}
	return args.Get(0).(domain.FileRef), content, args.Error(2)
}

func (m *MockWorkflowService) EndSession(ownerID string) {
	m.Called(ownerID)
}
