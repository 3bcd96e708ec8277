package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docflow/internal/domain"
	"docflow/internal/port"
)

// MockDocumentProcessor is a mock implementation of port.DocumentProcessor.
type MockDocumentProcessor struct {
	mock.Mock
}

func (m *MockDocumentProcessor) Submit(ctx context.Context, input port.FileInput, observe port.JobObserver) (domain.RawPayload, error) {
	args := m.Called(ctx, input, observe)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.RawPayload), args.Error(1)
}
