package port

import (
	"context"
	"io"

	"docflow/internal/domain"
)

// FileInput carries a file to be submitted to the processing API.
type FileInput struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// JobObserver is notified whenever an UploadJob changes state.
type JobObserver func(job domain.UploadJob)

// DocumentProcessor submits a file to the external processing API and waits
// for the job to reach a terminal state.
type DocumentProcessor interface {
	Submit(ctx context.Context, file FileInput, observe JobObserver) (domain.RawPayload, error)
}
