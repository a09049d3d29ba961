package models

// CheckDisposition is the uniform pass/fail state of one vendor check after
// normalization of vendor-specific result vocabularies.
type CheckDisposition string

const (
	CheckPassed    CheckDisposition = "passed"
	CheckFailed    CheckDisposition = "failed"
	CheckAttention CheckDisposition = "attention"
	CheckSkipped   CheckDisposition = "skipped"
)

// Failed reports whether the disposition counts against the document.
// Attention results are treated as failures; only an explicit pass or an
// intentionally skipped check is acceptable.
func (d CheckDisposition) Failed() bool {
	return d == CheckFailed || d == CheckAttention
}

// CheckResult is one (check-name, disposition) pair parsed from a vendor
// response.
type CheckResult struct {
	Name        string
	Disposition CheckDisposition
}

// SelfieChecks describes the outcome of biometric comparison, when performed.
type SelfieChecks struct {
	Performed   bool
	Live        bool
	QualityGood bool
	Match       bool
}

// ImageMetrics carries per-side quality measurements reported by the vendor.
type ImageMetrics struct {
	Sharpness     float64
	Glare         float64
	HorizontalDPI int
	VerticalDPI   int
}

// VendorVerdict is the normalized result of one dispatch. It is owned
// exclusively by the response normalizer; the orchestrator only reads it.
type VendorVerdict struct {
	Success          bool
	Errors           FieldErrors
	PII              *PIIRecord
	DocTypeSupported bool
	Selfie           *SelfieChecks
	Telemetry        map[string]any
}
