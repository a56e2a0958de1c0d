package domain

import "time"

// PredictionResult is the outcome of a single-record prediction, held in the
// session store only for the lifetime of the results view.
type PredictionResult struct {
	RiskLevel    RiskLevel    `json:"risk_level"`
	Probability  float64      `json:"probability"`
	RiskScore    int          `json:"risk_score"`
	SourceRecord HealthRecord `json:"source_record"`
}

// PatientRecord is one row of a batch prediction result.
type PatientRecord struct {
	ID          string    `json:"id"`
	Age         int       `json:"age"`
	Gender      string    `json:"gender"`
	RiskLevel   RiskLevel `json:"risk_level"`
	Probability float64   `json:"probability"`
}

// ValidationError describes one failed check in an uploaded CSV. Row 0 refers
// to the header line; data rows are numbered from 1.
type ValidationError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// UploadStatus is the per-file validation outcome. Validation is synchronous,
// so a stored upload is always in one of the two terminal states.
type UploadStatus string

const (
	UploadValidated UploadStatus = "validated"
	UploadErrored   UploadStatus = "errored"
)

// Upload is one uploaded batch file and its validation state. The raw content
// is retained so a validated file can be forwarded to the prediction service
// without a re-upload.
type Upload struct {
	Token     string            `json:"token"`
	Filename  string            `json:"filename"`
	SizeBytes int64             `json:"size_bytes"`
	Content   []byte            `json:"content"`
	Status    UploadStatus      `json:"status"`
	Errors    []ValidationError `json:"errors,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}
