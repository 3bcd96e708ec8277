package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"docflow/internal/port"
)

// ReviewedDocumentRepo stores confirmed documents and implements
// port.DocumentStore.
type ReviewedDocumentRepo struct {
	db *sqlx.DB
}

// NewReviewedDocumentRepo creates a new PostgreSQL-backed repository.
func NewReviewedDocumentRepo(db *sqlx.DB) *ReviewedDocumentRepo {
	return &ReviewedDocumentRepo{db: db}
}

var _ port.DocumentStore = (*ReviewedDocumentRepo)(nil)

const insertReviewedDocument = `INSERT INTO reviewed_documents
	(id, owner_id, job_id, file_name, document_type, title, confidence,
	 extracted_data, fields, confirmed_at)
	VALUES (:id, :owner_id, :job_id, :file_name, :document_type, :title, :confidence,
	 :extracted_data, :fields, :confirmed_at)`

// Save inserts the confirmed document.
func (r *ReviewedDocumentRepo) Save(ctx context.Context, input port.SaveInput) (*port.SaveResult, error) {
	doc := input.Document
	if len(doc.Data) == 0 {
		doc.Data = []byte("{}")
	}
	if len(doc.Fields) == 0 {
		doc.Fields = []byte("[]")
	}

	if _, err := r.db.NamedExecContext(ctx, insertReviewedDocument, &doc); err != nil {
		return nil, fmt.Errorf("reviewedDocumentRepo.Save: %w", err)
	}
	return &port.SaveResult{ID: doc.ID.String(), Location: "postgres://reviewed_documents/" + doc.ID.String()}, nil
}

// Ping checks that the database is reachable.
func (r *ReviewedDocumentRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
