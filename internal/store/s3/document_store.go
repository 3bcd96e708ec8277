// Package s3 persists confirmed documents to an S3 bucket: the original file
// under {prefix}/{id}/source/{name} and the reviewed document as
// {prefix}/{id}/document.json.
package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"docflow/internal/port"
)

type documentStore struct {
	storage port.ObjectStorage
	bucket  string
	prefix  string
}

// NewDocumentStore creates a DocumentStore writing into bucket through storage.
func NewDocumentStore(storage port.ObjectStorage, bucket, prefix string) port.DocumentStore {
	return &documentStore{
		storage: storage,
		bucket:  bucket,
		prefix:  strings.Trim(prefix, "/"),
	}
}

// storedDocument is the JSON object written next to the source file.
type storedDocument struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"owner_id"`
	JobID       string          `json:"job_id"`
	FileName    string          `json:"file_name"`
	SourceKey   string          `json:"source_key,omitempty"`
	Type        string          `json:"document_type"`
	Title       string          `json:"title"`
	Confidence  float64         `json:"confidence"`
	Data        json.RawMessage `json:"extracted_data"`
	Fields      json.RawMessage `json:"fields"`
	ConfirmedAt string          `json:"confirmed_at"`
}

func (s *documentStore) Save(ctx context.Context, input port.SaveInput) (*port.SaveResult, error) {
	doc := input.Document
	id := doc.ID.String()
	base := path.Join(s.prefix, id)

	var sourceKey string
	if len(input.File) > 0 {
		name := path.Base(input.FileRef.Name)
		if name == "." || name == "/" || name == "" {
			name = "source"
		}
		sourceKey = path.Join(base, "source", name)
		contentType := input.FileRef.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		if _, err := s.storage.Put(ctx, port.PutObjectInput{
			Bucket:      s.bucket,
			Key:         sourceKey,
			Body:        bytes.NewReader(input.File),
			ContentType: contentType,
			Metadata:    map[string]string{"owner-id": doc.OwnerID},
		}); err != nil {
			return nil, fmt.Errorf("s3.Save: uploading source file: %w", err)
		}
	}

	body, err := json.Marshal(storedDocument{
		ID:          id,
		OwnerID:     doc.OwnerID,
		JobID:       doc.JobID,
		FileName:    doc.FileName,
		SourceKey:   sourceKey,
		Type:        doc.DocType,
		Title:       doc.Title,
		Confidence:  doc.Confidence,
		Data:        doc.Data,
		Fields:      doc.Fields,
		ConfirmedAt: doc.ConfirmedAt.Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("s3.Save: marshaling document: %w", err)
	}

	out, err := s.storage.Put(ctx, port.PutObjectInput{
		Bucket:      s.bucket,
		Key:         path.Join(base, "document.json"),
		Body:        bytes.NewReader(body),
		ContentType: "application/json",
	})
	if err != nil {
		if sourceKey != "" {
			_ = s.storage.Delete(ctx, s.bucket, sourceKey)
		}
		return nil, fmt.Errorf("s3.Save: uploading document: %w", err)
	}

	return &port.SaveResult{ID: id, Location: out.Location}, nil
}
