package domain

import "time"

// DocumentType categorizes an uploaded medical document.
type DocumentType string

const (
	DocumentTypePrescription DocumentType = "Prescription"
	DocumentTypeLabReport    DocumentType = "Lab Report"
	DocumentTypeScan         DocumentType = "Scan"
	DocumentTypeOther        DocumentType = "Other"
)

// NormalizeDocumentType maps free-form client input onto a known type,
// defaulting to Other.
func NormalizeDocumentType(s string) DocumentType {
	switch DocumentType(s) {
	case DocumentTypePrescription, DocumentTypeLabReport, DocumentTypeScan:
		return DocumentType(s)
	default:
		return DocumentTypeOther
	}
}

// LabValue is a single extracted lab measurement.
type LabValue struct {
	Value float64 `bson:"value"          json:"value"`
	Unit  string  `bson:"unit,omitempty" json:"unit,omitempty"`
}

// LabResults holds the lab metrics extracted from a report by the
// summarization pipeline. All fields are optional.
type LabResults struct {
	Hemoglobin *LabValue `bson:"hemoglobin,omitempty" json:"hemoglobin,omitempty"`
	WBC        *LabValue `bson:"wbc,omitempty"        json:"wbc,omitempty"`
	Platelets  *LabValue `bson:"platelets,omitempty"  json:"platelets,omitempty"`
	Glucose    *LabValue `bson:"glucose,omitempty"    json:"glucose,omitempty"`
}

// Document is a medical record owned by a patient. PatientID is the
// persistent owner; the uploader metadata only records who performed the
// upload (a doctor uploading under a session never becomes the owner).
type Document struct {
	ID             string       `bson:"_id,omitempty"              json:"id"`
	PatientID      string       `bson:"patient_id"                 json:"patientId"`
	URL            string       `bson:"url"                        json:"url"`
	Type           DocumentType `bson:"type"                       json:"type"`
	UploadedByName string       `bson:"uploaded_by_name,omitempty" json:"uploadedByName,omitempty"`
	UploadedByRole string       `bson:"uploaded_by_role,omitempty" json:"uploadedByRole,omitempty"`
	Summary        string       `bson:"summary,omitempty"          json:"summary,omitempty"`
	// ReportDate is the date found inside the report itself, extracted from
	// OCR text. Distinct from CreatedAt which is the upload time.
	ReportDate *time.Time  `bson:"report_date,omitempty" json:"reportDate,omitempty"`
	LabResults *LabResults `bson:"lab_results,omitempty" json:"labResults,omitempty"`
	CreatedAt  time.Time   `bson:"created_at"            json:"createdAt"`
	UpdatedAt  time.Time   `bson:"updated_at"            json:"updatedAt"`
}
