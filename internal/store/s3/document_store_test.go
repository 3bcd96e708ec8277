package s3_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docflow/internal/domain"
	"docflow/internal/port"
	s3store "docflow/internal/store/s3"
	"docflow/mocks"
)

var docID = uuid.MustParse("0a0b0c0d-0000-4000-8000-000000000001")

func input(file []byte) port.SaveInput {
	return port.SaveInput{
		Document: domain.ReviewedDocument{
			ID:          docID,
			OwnerID:     "user-1",
			FileName:    "scan.pdf",
			DocType:     "invoice",
			Data:        json.RawMessage(`{"a":1}`),
			Fields:      json.RawMessage(`[]`),
			ConfirmedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		File:    file,
		FileRef: domain.FileRef{Name: "scan.pdf", ContentType: "application/pdf"},
	}
}

func TestSave_WritesSourceAndDocument(t *testing.T) {
	storage := new(mocks.MockObjectStorage)
	var docBody []byte

	storage.On("Put", mock.Anything, mock.MatchedBy(func(in port.PutObjectInput) bool {
		return in.Key == "documents/"+docID.String()+"/source/scan.pdf" && in.ContentType == "application/pdf"
	})).Return(&port.PutObjectOutput{Location: "s3://src"}, nil).Once()
	storage.On("Put", mock.Anything, mock.MatchedBy(func(in port.PutObjectInput) bool {
		return in.Key == "documents/"+docID.String()+"/document.json"
	})).Run(func(args mock.Arguments) {
		docBody, _ = io.ReadAll(args.Get(1).(port.PutObjectInput).Body)
	}).Return(&port.PutObjectOutput{Location: "s3://doc"}, nil).Once()

	s := s3store.NewDocumentStore(storage, "bucket", "/documents/")
	res, err := s.Save(context.Background(), input([]byte("%PDF")))
	require.NoError(t, err)
	assert.Equal(t, "s3://doc", res.Location)

	var stored map[string]interface{}
	require.NoError(t, json.Unmarshal(docBody, &stored))
	assert.Equal(t, "invoice", stored["document_type"])
	assert.Equal(t, "2024-01-02T03:04:05Z", stored["confirmed_at"])
	storage.AssertExpectations(t)
}

func TestSave_DocumentFailureRemovesSource(t *testing.T) {
	storage := new(mocks.MockObjectStorage)
	srcKey := "documents/" + docID.String() + "/source/scan.pdf"

	storage.On("Put", mock.Anything, mock.MatchedBy(func(in port.PutObjectInput) bool {
		return in.Key == srcKey
	})).Return(&port.PutObjectOutput{}, nil).Once()
	storage.On("Put", mock.Anything, mock.Anything).Return(nil, errors.New("access denied")).Once()
	storage.On("Delete", mock.Anything, "bucket", srcKey).Return(nil).Once()

	s := s3store.NewDocumentStore(storage, "bucket", "documents")
	_, err := s.Save(context.Background(), input([]byte("%PDF")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
	storage.AssertExpectations(t)
}

func TestSave_WithoutFileOnlyWritesDocument(t *testing.T) {
	storage := new(mocks.MockObjectStorage)
	storage.On("Put", mock.Anything, mock.Anything).Return(&port.PutObjectOutput{Location: "s3://doc"}, nil).Once()

	s := s3store.NewDocumentStore(storage, "bucket", "")
	_, err := s.Save(context.Background(), input(nil))
	require.NoError(t, err)
	storage.AssertNumberOfCalls(t, "Put", 1)
}
