package port

import (
	"context"

	"docflow/internal/domain"
)

// SaveInput carries a confirmed document and its source file.
type SaveInput struct {
	Document domain.ReviewedDocument
	File     []byte
	FileRef  domain.FileRef
}

// SaveResult reports where a confirmed document was persisted.
type SaveResult struct {
	ID       string
	Location string
}

// DocumentStore persists confirmed documents.
type DocumentStore interface {
	Save(ctx context.Context, input SaveInput) (*SaveResult, error)
}
