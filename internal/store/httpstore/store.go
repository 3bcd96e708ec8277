// Package httpstore persists confirmed documents to a REST backend with
// PUT {base}/documents/{id}.
package httpstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"docflow/internal/config"
	"docflow/internal/domain"
	"docflow/internal/port"
)

const defaultTimeout = 30 * time.Second

type store struct {
	endpoint string
	client   *http.Client
}

// NewStore creates an HTTP-backed DocumentStore.
func NewStore(cfg *config.StoreConfig) port.DocumentStore {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return NewStoreWithClient(cfg.Endpoint, &http.Client{Timeout: timeout})
}

// NewStoreWithClient creates a DocumentStore using the given HTTP client.
func NewStoreWithClient(endpoint string, client *http.Client) port.DocumentStore {
	return &store{endpoint: strings.TrimRight(endpoint, "/"), client: client}
}

// documentBody is the JSON shape sent to the backend.
type documentBody struct {
	domain.ReviewedDocument
	FileContentType string `json:"file_content_type,omitempty"`
	FileSize        int64  `json:"file_size,omitempty"`
}

func (s *store) Save(ctx context.Context, input port.SaveInput) (*port.SaveResult, error) {
	id := input.Document.ID.String()
	body, err := json.Marshal(documentBody{
		ReviewedDocument: input.Document,
		FileContentType:  input.FileRef.ContentType,
		FileSize:         input.FileRef.Size,
	})
	if err != nil {
		return nil, fmt.Errorf("httpstore.Save: marshaling document: %w", err)
	}

	target := s.endpoint + "/documents/" + url.PathEscape(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("httpstore.Save: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpstore.Save: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("httpstore.Save: backend returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	return &port.SaveResult{ID: id, Location: target}, nil
}
