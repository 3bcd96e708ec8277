// Package transform normalizes raw processing API results into the document
// shape used by the review workflow.
package transform

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"docflow/internal/domain"
)

// UnknownType is used when the payload carries no document_type.
const UnknownType = "Unknown"

// Transform maps a raw `results` payload to a ProcessedDocument. It never
// fails: shape problems surface as missing fields, not errors.
func Transform(raw domain.RawPayload) domain.ProcessedDocument {
	var results struct {
		Data map[string]interface{} `json:"data"`
	}
	_ = json.Unmarshal(raw, &results)

	data := results.Data
	if data == nil {
		data = map[string]interface{}{}
	}

	docType := UnknownType
	if s, ok := data["document_type"].(string); ok && strings.TrimSpace(s) != "" {
		docType = strings.TrimSpace(s)
	}

	fields, ok := Template(strings.ToLower(docType))
	if !ok {
		fields = pageFields(data)
	}

	return domain.ProcessedDocument{
		Type:           docType,
		Title:          titleFor(docType),
		Fields:         fields,
		ExtractedData:  data,
		Confidence:     parseConfidence(data["confidence"]),
		ProcessingTime: 0,
	}
}

func titleFor(docType string) string {
	return capitalize(docType) + " Processing"
}

// parseConfidence accepts a number or a numeric string; anything else is 0.
func parseConfidence(v interface{}) float64 {
	var f float64
	switch c := v.(type) {
	case float64:
		f = c
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(c), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// pageFields derives string descriptors from the keys of pages[*].fields,
// sorted so the result is stable across calls.
func pageFields(data map[string]interface{}) []domain.FieldDescriptor {
	pages, _ := data["pages"].([]interface{})
	seen := make(map[string]struct{})
	for _, p := range pages {
		page, ok := p.(map[string]interface{})
		if !ok {
			continue
		}
		fields, ok := page["fields"].(map[string]interface{})
		if !ok {
			continue
		}
		for k := range fields {
			seen[k] = struct{}{}
		}
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]domain.FieldDescriptor, 0, len(keys))
	for _, k := range keys {
		out = append(out, domain.FieldDescriptor{Key: k, Label: Humanize(k), Type: domain.FieldTypeString})
	}
	return out
}

// Humanize turns snake_case or camelCase keys into a display label.
func Humanize(key string) string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, capitalize(string(cur)))
			cur = cur[:0]
		}
	}
	for i, r := range key {
		switch {
		case r == '_' || r == '-' || r == ' ':
			flush()
		case unicode.IsUpper(r) && i > 0:
			flush()
			cur = append(cur, unicode.ToLower(r))
		default:
			cur = append(cur, r)
		}
	}
	flush()
	return strings.Join(words, " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
