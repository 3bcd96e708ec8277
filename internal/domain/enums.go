package domain

// FileType represents the allowed file types for upload.
type FileType string

const (
	FileTypePDF  FileType = "pdf"
	FileTypeJPG  FileType = "jpg"
	FileTypePNG  FileType = "png"
	FileTypeTIFF FileType = "tiff"
	FileTypeDOCX FileType = "docx"
	FileTypeXLSX FileType = "xlsx"
	FileTypePPTX FileType = "pptx"
)

// AllowedFileTypes maps FileType to its MIME content type.
var AllowedFileTypes = map[FileType]string{
	FileTypePDF:  "application/pdf",
	FileTypeJPG:  "image/jpeg",
	FileTypePNG:  "image/png",
	FileTypeTIFF: "image/tiff",
	FileTypeDOCX: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	FileTypeXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	FileTypePPTX: "application/vnd.openxmlformats-officedocument.presentationml.presentation",
}

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"pdf":  FileTypePDF,
	"jpg":  FileTypeJPG,
	"jpeg": FileTypeJPG,
	"png":  FileTypePNG,
	"tif":  FileTypeTIFF,
	"tiff": FileTypeTIFF,
	"docx": FileTypeDOCX,
	"xlsx": FileTypeXLSX,
	"pptx": FileTypePPTX,
}

// sniffedContentTypes lists what http.DetectContentType reports for each type.
// Office files are zip containers and sniff as application/zip.
var sniffedContentTypes = map[FileType][]string{
	FileTypePDF:  {"application/pdf"},
	FileTypeJPG:  {"image/jpeg"},
	FileTypePNG:  {"image/png"},
	FileTypeTIFF: {"image/tiff", "application/octet-stream"},
	FileTypeDOCX: {"application/zip"},
	FileTypeXLSX: {"application/zip"},
	FileTypePPTX: {"application/zip"},
}

// MatchesContent reports whether the sniffed content type is consistent with ft.
func (ft FileType) MatchesContent(detected string) bool {
	for _, ct := range sniffedContentTypes[ft] {
		if ct == detected {
			return true
		}
	}
	return false
}

// JobStatus is the lifecycle of an UploadJob.
type JobStatus string

const (
	JobStatusSubmitted JobStatus = "submitted"
	JobStatusPolling   JobStatus = "polling"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusTimedOut  JobStatus = "timed_out"
)

// IsTerminal reports whether no further automatic transition follows s.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusTimedOut
}

// Remote job status discriminators returned by the processing API.
const (
	RemoteStatusProcessing = "processing"
	RemoteStatusCompleted  = "completed"
	RemoteStatusFailed     = "failed"
	RemoteStatusOK         = "ok"
	RemoteStatusError      = "error"
)

// ViewStep is the position in the linear upload/review/confirm sequence.
type ViewStep int

const (
	StepUpload ViewStep = iota
	StepReview
	StepConfirm
)

func (s ViewStep) String() string {
	switch s {
	case StepUpload:
		return "upload"
	case StepReview:
		return "review"
	case StepConfirm:
		return "confirm"
	default:
		return "unknown"
	}
}

// Clamp bounds s to [StepUpload, StepConfirm].
func (s ViewStep) Clamp() ViewStep {
	if s < StepUpload {
		return StepUpload
	}
	if s > StepConfirm {
		return StepConfirm
	}
	return s
}

// SaveStatus is the state of the confirm/save operation. A failed save
// returns to SaveIdle with an error message so it can be retried.
type SaveStatus string

const (
	SaveIdle      SaveStatus = "idle"
	SaveSaving    SaveStatus = "saving"
	SaveSucceeded SaveStatus = "succeeded"
)

// FieldType is the rendering type of a document field.
type FieldType string

const (
	FieldTypeString FieldType = "string"
	FieldTypeDate   FieldType = "date"
	FieldTypeNumber FieldType = "number"
)
