package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"docflow/internal/config"
	"docflow/internal/domain"
	"docflow/internal/port"
)

const (
	defaultPollInterval = 10 * time.Second
	defaultMaxAttempts  = 30
	defaultTimeout      = 60 * time.Second
)

// Client implements port.DocumentProcessor against the document-processing
// HTTP API: a multipart upload followed by bounded status polling.
type Client struct {
	endpoint     string
	apiKey       string
	pollInterval time.Duration
	maxAttempts  int
	client       *http.Client
	logger       *zap.Logger
	sleep        func(ctx context.Context, d time.Duration) error
	now          func() time.Time
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for all requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithSleeper replaces the function used to wait between status requests.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		if sleep != nil {
			c.sleep = sleep
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a processing API client from cfg.
func NewClient(cfg *config.ProcessorConfig, opts ...Option) *Client {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		endpoint:     strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:       cfg.APIKey,
		pollInterval: pollInterval,
		maxAttempts:  maxAttempts,
		client:       &http.Client{Timeout: timeout},
		logger:       zap.NewNop(),
		sleep:        sleepContext,
		now:          time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// uploadResponse models the body of POST /.
type uploadResponse struct {
	Status  string `json:"status"`
	JobID   string `json:"jobId"`
	Message string `json:"message"`
}

// statusResponse models the body of GET /status/{jobId}.
type statusResponse struct {
	Status  string          `json:"status"`
	Results json.RawMessage `json:"results"`
	Error   json.RawMessage `json:"error"`
}

// Submit uploads file, polls the resulting job to a terminal state and returns
// the raw results payload. observe, when non-nil, receives every job update.
func (c *Client) Submit(ctx context.Context, file port.FileInput, observe port.JobObserver) (domain.RawPayload, error) {
	if observe == nil {
		observe = func(domain.UploadJob) {}
	}
	job := domain.UploadJob{
		File:        domain.FileRef{Name: file.Name, ContentType: file.ContentType, Size: file.Size},
		Status:      domain.JobStatusSubmitted,
		SubmittedAt: c.now().UTC(),
	}
	observe(job)

	jobID, err := c.Upload(ctx, file)
	if err != nil {
		c.finish(&job, domain.JobStatusFailed, observe)
		return nil, err
	}
	job.ID = jobID
	job.Status = domain.JobStatusPolling
	observe(job)

	payload, attempts, err := c.poll(ctx, jobID, func(n int) {
		job.Attempts = n
		observe(job)
	})
	job.Attempts = attempts
	switch {
	case err == nil:
		c.finish(&job, domain.JobStatusCompleted, observe)
	case isTimeout(err):
		c.finish(&job, domain.JobStatusTimedOut, observe)
	default:
		c.finish(&job, domain.JobStatusFailed, observe)
	}
	return payload, err
}

func (c *Client) finish(job *domain.UploadJob, status domain.JobStatus, observe port.JobObserver) {
	now := c.now().UTC()
	job.Status = status
	job.FinishedAt = &now
	observe(*job)
}

// Upload sends file as a multipart request and returns the job identifier.
func (c *Client) Upload(ctx context.Context, file port.FileInput) (string, error) {
	body, contentType, err := buildMultipart(file)
	if err != nil {
		return "", domain.NewUploadError("building request body", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/", body)
	if err != nil {
		return "", domain.NewUploadError("creating request", err)
	}
	req.Header.Set("Content-Type", contentType)
	c.authorize(req)

	c.logger.Debug("uploading document",
		zap.String("file", file.Name), zap.String("content_type", file.ContentType), zap.Int64("size", file.Size))

	resp, err := c.client.Do(req)
	if err != nil {
		return "", domain.NewUploadError("calling processing API", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", domain.NewUploadError("reading response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", domain.NewUploadError(fmt.Sprintf("processing API error (status %d): %s", resp.StatusCode, truncate(string(respBody), 200)), nil)
	}

	var parsed uploadResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", domain.NewUploadError("unmarshaling response", err)
	}
	if parsed.Status == domain.RemoteStatusError {
		msg := parsed.Message
		if msg == "" {
			msg = "upload rejected"
		}
		return "", domain.NewUploadError(msg, nil)
	}
	if parsed.JobID == "" {
		return "", domain.NewUploadError("missing job id", nil)
	}

	c.logger.Info("document uploaded", zap.String("job_id", parsed.JobID), zap.String("file", file.Name))
	return parsed.JobID, nil
}

// Poll requests the job status until it completes, fails or the attempt
// budget runs out.
func (c *Client) Poll(ctx context.Context, jobID string) (domain.RawPayload, error) {
	payload, _, err := c.poll(ctx, jobID, nil)
	return payload, err
}

func (c *Client) poll(ctx context.Context, jobID string, onAttempt func(int)) (domain.RawPayload, int, error) {
	statusURL := c.endpoint + "/status/" + url.PathEscape(jobID)

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if onAttempt != nil {
			onAttempt(attempt)
		}

		status, err := c.fetchStatus(ctx, statusURL)
		if err != nil {
			return nil, attempt, fmt.Errorf("processor.Poll job %s: %w", jobID, err)
		}

		switch status.Status {
		case domain.RemoteStatusCompleted:
			c.logger.Info("job completed", zap.String("job_id", jobID), zap.Int("attempts", attempt))
			if len(status.Results) == 0 {
				return domain.RawPayload("{}"), attempt, nil
			}
			return domain.RawPayload(status.Results), attempt, nil
		case domain.RemoteStatusFailed:
			reason := errorText(status.Error)
			c.logger.Warn("job failed", zap.String("job_id", jobID), zap.String("reason", reason))
			return nil, attempt, domain.NewProcessingFailedError(jobID, reason)
		case domain.RemoteStatusProcessing:
			c.logger.Debug("job still processing", zap.String("job_id", jobID), zap.Int("attempt", attempt))
		default:
			return nil, attempt, domain.NewUnknownStatusError(jobID, status.Status)
		}

		if attempt == c.maxAttempts {
			break
		}
		if err := c.sleep(ctx, c.pollInterval); err != nil {
			return nil, attempt, fmt.Errorf("processor.Poll job %s: %w", jobID, err)
		}
	}

	c.logger.Warn("job timed out", zap.String("job_id", jobID), zap.Int("attempts", c.maxAttempts))
	return nil, c.maxAttempts, domain.NewTimeoutError(jobID, c.maxAttempts)
}

func (c *Client) fetchStatus(ctx context.Context, statusURL string) (*statusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling processing API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("processing API error (status %d): %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var status statusResponse
	if err := json.Unmarshal(respBody, &status); err != nil {
		return nil, fmt.Errorf("unmarshaling status response: %w", err)
	}
	return &status, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func buildMultipart(file port.FileInput) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, file.Name))
	ct := file.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, file.Body); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return body, w.FormDataContentType(), nil
}

// errorText renders the `error` member of a status response, which may be a
// string or an arbitrary JSON value.
func errorText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}
	return truncate(string(raw), 200)
}

func isTimeout(err error) bool {
	return errors.Is(err, domain.ErrProcessingTimeout)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
