// Package export renders a reviewed document as CSV or XLSX.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"docflow/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// ParseFormat accepts "csv" and "xlsx", case-insensitively. Empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "xlsx":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// header is the column row of every export.
var header = []string{"Field", "Label", "Value"}

// Rows returns the field rows of doc followed by the document metadata rows.
func Rows(doc *domain.ProcessedDocument) [][]string {
	rows := make([][]string, 0, len(doc.Fields)+3)
	for _, f := range doc.Fields {
		v, _ := doc.Value(f.Key)
		rows = append(rows, []string{f.Key, f.Label, formatValue(f, v)})
	}
	rows = append(rows,
		[]string{"document_type", "Document Type", doc.Type},
		[]string{"title", "Title", doc.Title},
		[]string{"confidence", "Confidence", strconv.FormatFloat(doc.Confidence*100, 'f', 1, 64) + "%"},
	)
	return rows
}

// WriteCSV writes doc to w as CSV, preceded by the UTF-8 BOM.
func WriteCSV(w io.Writer, doc *domain.ProcessedDocument) error {
	if _, err := w.Write(BOM); err != nil {
		return fmt.Errorf("export.WriteCSV: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("export.WriteCSV: %w", err)
	}
	if err := cw.WriteAll(Rows(doc)); err != nil {
		return fmt.Errorf("export.WriteCSV: %w", err)
	}
	return nil
}

func formatValue(f domain.FieldDescriptor, v interface{}) string {
	var s string
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		s = val
	case float64:
		if f.Type == domain.FieldTypeNumber {
			s = strconv.FormatFloat(val, 'f', 2, 64)
		} else {
			s = strconv.FormatFloat(val, 'f', -1, 64)
		}
	case bool:
		s = strconv.FormatBool(val)
	case map[string]interface{}, []interface{}:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		s = string(b)
	default:
		s = fmt.Sprint(val)
	}
	if f.Prefix != "" && s != "" && !strings.HasPrefix(s, f.Prefix) {
		s = f.Prefix + s
	}
	return s
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a name for use in Content-Disposition.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "document"
	}
	return s
}

// BuildFilename returns {sanitized_base}_{YYYY-MM-DD}.{format}.
func BuildFilename(base string, f Format, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", SanitizeFilename(base), now.Format("2006-01-02"), f)
}
