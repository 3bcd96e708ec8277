package postgres_test

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docflow/internal/domain"
	"docflow/internal/port"
	"docflow/internal/store/postgres"
)

// openTestDB connects to DOCFLOW_TEST_DATABASE_URL, which must point at a
// migrated database. Tests are skipped when it is unset.
func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv("DOCFLOW_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("DOCFLOW_TEST_DATABASE_URL not set")
	}
	db, err := sqlx.Connect("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestReviewedDocumentRepo_Save(t *testing.T) {
	db := openTestDB(t)
	repo := postgres.NewReviewedDocumentRepo(db)
	ctx := context.Background()

	doc := domain.ReviewedDocument{
		ID:          uuid.New(),
		OwnerID:     "user-" + uuid.NewString(),
		JobID:       "job-1",
		FileName:    "scan.pdf",
		DocType:     "invoice",
		Title:       "Invoice Processing",
		Confidence:  0.91,
		Data:        json.RawMessage(`{"invoiceNumber":"INV-9"}`),
		ConfirmedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	res, err := repo.Save(ctx, port.SaveInput{Document: doc})
	require.NoError(t, err)
	assert.Equal(t, doc.ID.String(), res.ID)

	var got domain.ReviewedDocument
	err = db.GetContext(ctx, &got,
		`SELECT id, owner_id, job_id, file_name, document_type, title, confidence,
		        extracted_data, fields, confirmed_at
		   FROM reviewed_documents WHERE id = $1`, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.OwnerID, got.OwnerID)
	assert.Equal(t, "invoice", got.DocType)
	assert.JSONEq(t, `{"invoiceNumber":"INV-9"}`, string(got.Data))
	assert.JSONEq(t, `[]`, string(got.Fields))

	_, err = repo.Save(ctx, port.SaveInput{Document: doc})
	assert.Error(t, err, "duplicate id")
}
