package port

import (
	"context"
	"io"
)

// PutObjectInput encapsulates the parameters needed to store an object.
type PutObjectInput struct {
	Bucket      string
	Key         string
	Body        io.Reader
	ContentType string
	Metadata    map[string]string
}

// PutObjectOutput contains the result of a successful upload.
type PutObjectOutput struct {
	Location string
	ETag     string
}

// ObjectStorage abstracts cloud object storage operations.
type ObjectStorage interface {
	Put(ctx context.Context, input PutObjectInput) (*PutObjectOutput, error)
	Delete(ctx context.Context, bucket, key string) error
}
