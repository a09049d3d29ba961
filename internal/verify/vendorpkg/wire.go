package vendor

import (
	"encoding/json"
	"net/http"
	"time"
)

// Result vocabulary used by the vendor for alerts and the overall document
// authentication verdict.
const (
	ResultPassed    = "Passed"
	ResultFailed    = "Failed"
	ResultAttention = "Attention"
	ResultSkipped   = "Skipped"
)

// Alert names reported by the vendor. The normalizer keys its error mapping
// off these; the template backend mutates them.
const (
	AlertBarcodeRead         = "2D Barcode Read"
	AlertBarcodeContent      = "2D Barcode Content"
	AlertBirthDateValid      = "Birth Date Valid"
	AlertDocClassification   = "Document Classification"
	AlertDocumentExpired     = "Document Expired"
	AlertExpirationDateValid = "Expiration Date Valid"
	AlertFullNameCrosscheck  = "Full Name Crosscheck"
	AlertDocNumberCrosscheck = "Document Number Crosscheck"
	AlertLayoutValid         = "Layout Valid"
	AlertVisiblePattern      = "Visible Pattern"
	AlertSexCheck            = "Sex Check"
)

// Document class names as they appear on the wire.
const (
	ClassNameDriversLicense     = "Drivers License"
	ClassNameIdentificationCard = "Identification Card"
	ClassNamePassport           = "Passport"
	ClassNamePassportCard       = "Passport Card"
	ClassNameUnknown            = "Unknown"
)

// Issue types for passports on the wire.
const (
	IssueTypeBook = "Book"
	IssueTypeCard = "Card"
)

// Extracted field names on the wire.
const (
	FieldFirstName      = "FirstName"
	FieldMiddleName     = "MiddleName"
	FieldSurname        = "Surname"
	FieldBirthDate      = "BirthDate"
	FieldAddress1       = "Address1"
	FieldAddress2       = "Address2"
	FieldCity           = "City"
	FieldState          = "State"
	FieldPostalCode     = "PostalCode"
	FieldDocumentNumber = "DocumentNumber"
	FieldExpirationDate = "ExpirationDate"
	FieldIssueDate      = "IssueDate"
	FieldMRZ            = "MRZ"
	FieldNationality    = "Nationality"
)

// WireDateLayout is the date format the vendor uses for extracted dates.
const WireDateLayout = "2006-01-02"

// Alert is one named check with its result.
type Alert struct {
	Name   string `json:"name"`
	Result string `json:"result"`
}

// Field is one extracted document field.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Classification describes the vendor's document typing decision.
type Classification struct {
	ClassName   string `json:"class_name"`
	IssuerCode  string `json:"issuer_code"`
	CountryCode string `json:"country_code"`
	IssueType   string `json:"issue_type,omitempty"`
}

// ImageMetric carries per-side quality measurements.
type ImageMetric struct {
	Side          string  `json:"side"`
	Sharpness     float64 `json:"sharpness"`
	Glare         float64 `json:"glare"`
	HorizontalDPI int     `json:"horizontal_dpi"`
	VerticalDPI   int     `json:"vertical_dpi"`
}

// PortraitMatch is the biometric comparison block, present only when a
// selfie was submitted.
type PortraitMatch struct {
	Result      string `json:"result"`
	Score       int    `json:"score"`
	IsLive      bool   `json:"is_live"`
	QualityGood bool   `json:"quality_good"`
}

// ResultsPayload is the vendor's parsed results document.
type ResultsPayload struct {
	InstanceID     string         `json:"instance_id"`
	CompletedAt    time.Time      `json:"completed_at"`
	DocAuthResult  string         `json:"doc_auth_result"`
	Classification Classification `json:"classification"`
	Alerts         []Alert        `json:"alerts"`
	Fields         []Field        `json:"fields"`
	ImageMetrics   []ImageMetric  `json:"image_metrics"`
	PortraitMatch  *PortraitMatch `json:"portrait_match,omitempty"`

	// Reference echoes the caller's correlation id.
	Reference string `json:"reference,omitempty"`
}

// FieldValue returns the named extracted field, or "" when absent.
func (p *ResultsPayload) FieldValue(name string) string {
	for _, f := range p.Fields {
		if f.Name == name {
			return f.Value
		}
	}
	return ""
}

// RawResponse is one backend exchange outcome: the HTTP status the vendor
// answered with and, when the body parsed, the structured payload. A non-nil
// RawResponse with failed checks is a content result, not an error.
type RawResponse struct {
	HTTPStatus int
	Payload    *ResultsPayload
	Body       json.RawMessage
}

// OK reports whether the vendor produced a parseable result document.
func (r *RawResponse) OK() bool {
	return r != nil && r.HTTPStatus == http.StatusOK && r.Payload != nil
}
