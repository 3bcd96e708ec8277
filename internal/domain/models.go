package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// FieldDescriptor defines how an extracted value is rendered and edited.
// It does not carry the value itself.
type FieldDescriptor struct {
	Key       string    `json:"key"`
	Label     string    `json:"label"`
	Type      FieldType `json:"type"`
	Format    string    `json:"format,omitempty"`
	Prefix    string    `json:"prefix,omitempty"`
	Multiline bool      `json:"multiline,omitempty"`
}

// ProcessedDocument is the normalized extraction result shown for review.
// Values are replaced wholesale; callers must not mutate ExtractedData in place.
type ProcessedDocument struct {
	Type           string                 `json:"type"`
	Title          string                 `json:"title"`
	Fields         []FieldDescriptor      `json:"fields"`
	ExtractedData  map[string]interface{} `json:"extractedData"`
	Confidence     float64                `json:"confidence"`
	ProcessingTime float64                `json:"processingTime"`
}

// Field returns the descriptor for key.
func (d *ProcessedDocument) Field(key string) (FieldDescriptor, bool) {
	for _, f := range d.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return FieldDescriptor{}, false
}

// Value returns the extracted value for key. Top-level entries win; otherwise
// the first pages[*].fields[key] found is used, unwrapping {"value": v}.
func (d *ProcessedDocument) Value(key string) (interface{}, bool) {
	if v, ok := d.ExtractedData[key]; ok {
		return v, true
	}
	pages, _ := d.ExtractedData["pages"].([]interface{})
	for _, p := range pages {
		page, _ := p.(map[string]interface{})
		fields, _ := page["fields"].(map[string]interface{})
		v, ok := fields[key]
		if !ok {
			continue
		}
		if wrapped, isMap := v.(map[string]interface{}); isMap {
			if inner, has := wrapped["value"]; has {
				return inner, true
			}
		}
		return v, true
	}
	return nil, false
}

// WithValue returns a copy of d with ExtractedData[key] set to value.
func (d ProcessedDocument) WithValue(key string, value interface{}) ProcessedDocument {
	data := make(map[string]interface{}, len(d.ExtractedData)+1)
	for k, v := range d.ExtractedData {
		data[k] = v
	}
	data[key] = value
	d.ExtractedData = data
	return d
}

// RawPayload is the untyped `results` object returned by the processing API.
type RawPayload = json.RawMessage

// FileRef identifies the file the user selected for processing.
type FileRef struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	FileType    FileType  `json:"file_type"`
}

// UploadJob tracks one upload-to-completion run against the processing API.
type UploadJob struct {
	ID          string     `json:"id,omitempty"`
	File        FileRef    `json:"file"`
	Status      JobStatus  `json:"status"`
	Attempts    int        `json:"attempts"`
	SubmittedAt time.Time  `json:"submitted_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

// ReviewedDocument is what the confirm flow persists.
type ReviewedDocument struct {
	ID          uuid.UUID         `db:"id" json:"id"`
	OwnerID     string            `db:"owner_id" json:"owner_id"`
	JobID       string            `db:"job_id" json:"job_id"`
	FileName    string            `db:"file_name" json:"file_name"`
	DocType     string            `db:"document_type" json:"document_type"`
	Title       string            `db:"title" json:"title"`
	Confidence  float64           `db:"confidence" json:"confidence"`
	Data        json.RawMessage   `db:"extracted_data" json:"extracted_data"`
	Fields      json.RawMessage   `db:"fields" json:"fields"`
	ConfirmedAt time.Time         `db:"confirmed_at" json:"confirmed_at"`
	Document    ProcessedDocument `db:"-" json:"-"`
}
