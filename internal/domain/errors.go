package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("resource not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")

	// Job failures reported by the processing API client.
	ErrUploadFailed      = errors.New("document upload failed")
	ErrProcessingFailed  = errors.New("document processing failed")
	ErrUnknownStatus     = errors.New("unknown job status")
	ErrProcessingTimeout = errors.New("document processing timed out")

	ErrPersistenceFailed = errors.New("failed to save document")

	// Workflow guard violations.
	ErrTransitionNotAllowed = errors.New("transition not allowed in current state")
	ErrWorkflowBusy         = errors.New("workflow is busy")
	ErrNoDocument           = errors.New("no processed document")
	ErrNoFile               = errors.New("no file selected")
	ErrUnknownField         = errors.New("unknown document field")
	ErrSessionClosed        = errors.New("workflow session is closed")
)

// JobError describes a failed upload or polling run for one job.
type JobError struct {
	Kind   error // one of the job sentinel errors above
	JobID  string
	Reason string
	Err    error
}

func (e *JobError) Error() string {
	msg := e.Kind.Error()
	if e.JobID != "" {
		msg = fmt.Sprintf("%s (job %s)", msg, e.JobID)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind sentinel and the underlying cause to errors.Is.
func (e *JobError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewUploadError creates a JobError of kind ErrUploadFailed.
func NewUploadError(reason string, err error) *JobError {
	return &JobError{Kind: ErrUploadFailed, Reason: reason, Err: err}
}

// NewProcessingFailedError creates a JobError of kind ErrProcessingFailed.
func NewProcessingFailedError(jobID, reason string) *JobError {
	return &JobError{Kind: ErrProcessingFailed, JobID: jobID, Reason: reason}
}

// NewUnknownStatusError creates a JobError of kind ErrUnknownStatus.
func NewUnknownStatusError(jobID, status string) *JobError {
	return &JobError{Kind: ErrUnknownStatus, JobID: jobID, Reason: fmt.Sprintf("status %q", status)}
}

// NewTimeoutError creates a JobError of kind ErrProcessingTimeout.
func NewTimeoutError(jobID string, attempts int) *JobError {
	return &JobError{Kind: ErrProcessingTimeout, JobID: jobID, Reason: fmt.Sprintf("no terminal status after %d attempts", attempts)}
}

// GenericErrorMessage is shown when an error carries no user-facing meaning.
const GenericErrorMessage = "An error occurred"

// UserMessage maps err to the short message shown to the user.
func UserMessage(err error) string {
	var jobErr *JobError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &jobErr) && errors.Is(err, ErrProcessingFailed) && jobErr.Reason != "":
		return "Processing failed: " + jobErr.Reason
	case errors.Is(err, ErrUploadFailed):
		return "Upload failed, please try another file"
	case errors.Is(err, ErrProcessingFailed):
		return "Processing failed"
	case errors.Is(err, ErrUnknownStatus):
		return "Processing returned an unexpected status"
	case errors.Is(err, ErrProcessingTimeout):
		return "Processing timed out, please try again"
	case errors.Is(err, ErrPersistenceFailed):
		return "Failed to update database"
	case errors.Is(err, ErrUnsupportedFileType):
		return "Unsupported file type"
	case errors.Is(err, ErrFileTooLarge):
		return "File is too large"
	default:
		return GenericErrorMessage
	}
}
