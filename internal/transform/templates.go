package transform

import "docflow/internal/domain"

// templates holds the field layouts of the document types the review screen
// knows how to render. Types without a template fall back to field keys found
// in the payload.
var templates = map[string][]domain.FieldDescriptor{
	"invoice": {
		{Key: "invoiceNumber", Label: "Invoice Number", Type: domain.FieldTypeString, Format: "INV-YYYY-XXXX"},
		{Key: "issueDate", Label: "Issue Date", Type: domain.FieldTypeDate},
		{Key: "dueDate", Label: "Due Date", Type: domain.FieldTypeDate},
		{Key: "totalAmount", Label: "Total Amount", Type: domain.FieldTypeNumber, Prefix: "$"},
		{Key: "taxAmount", Label: "Tax Amount", Type: domain.FieldTypeNumber, Prefix: "$"},
		{Key: "vendorName", Label: "Vendor Name", Type: domain.FieldTypeString},
		{Key: "vendorAddress", Label: "Vendor Address", Type: domain.FieldTypeString, Multiline: true},
	},
	"resume": {
		{Key: "fullName", Label: "Full Name", Type: domain.FieldTypeString},
		{Key: "email", Label: "Email", Type: domain.FieldTypeString, Format: "email"},
		{Key: "phone", Label: "Phone", Type: domain.FieldTypeString, Format: "phone"},
		{Key: "education", Label: "Education", Type: domain.FieldTypeString, Multiline: true},
		{Key: "experience", Label: "Work Experience", Type: domain.FieldTypeString, Multiline: true},
		{Key: "skills", Label: "Skills", Type: domain.FieldTypeString, Multiline: true},
	},
}

// Template returns a copy of the field layout registered for docType.
func Template(docType string) ([]domain.FieldDescriptor, bool) {
	fields, ok := templates[docType]
	if !ok {
		return nil, false
	}
	out := make([]domain.FieldDescriptor, len(fields))
	copy(out, fields)
	return out, true
}
