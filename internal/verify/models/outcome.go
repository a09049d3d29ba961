package models

import "sort"

// Stable, user-facing field error codes. These cross the service boundary;
// raw vendor detail never does.
const (
	ErrNotAFile                = "not_a_file"
	ErrMissingImage            = "missing_image"
	ErrExpired                 = "expired"
	ErrExpirationMissing       = "expiration_missing"
	ErrUnsupportedJurisdiction = "unsupported_jurisdiction"
	ErrUnsupportedDocType      = "unsupported_doc_type"
	ErrUnsupportedCountry      = "unsupported_country"
	ErrBarcodeUnreadable       = "barcode_unreadable"
	ErrImageTooBlurry          = "image_too_blurry"
	ErrGlareDetected           = "glare_detected"
	ErrResolutionTooLow        = "resolution_too_low"
	ErrSelfieMismatch          = "selfie_mismatch"
	ErrSelfieNotLive           = "selfie_not_live"
	ErrSelfieQuality           = "selfie_quality"
	ErrDocAuthFailed           = "doc_auth_failed"
	ErrPIIIncomplete           = "pii_incomplete"
	ErrRateLimited             = "rate_limited"
	ErrSessionExpired          = "session_expired"
	ErrVendorUnavailable       = "vendor_unavailable"
)

// Well-known error fields.
const (
	FieldFront   = "front"
	FieldBack    = "back"
	FieldSelfie  = "selfie"
	FieldGeneral = "general"
	FieldPII     = "pii"
	FieldDocType = "doc_type"
	FieldExpiry  = "state_id_expiration"
	FieldLimit   = "limit"
	FieldNetwork = "network"
)

// FieldErrors maps an error field to its ordered list of codes.
type FieldErrors map[string][]string

// Add appends a code to a field, skipping exact duplicates.
func (fe FieldErrors) Add(field, code string) {
	for _, existing := range fe[field] {
		if existing == code {
			return
		}
	}
	fe[field] = append(fe[field], code)
}

// Merge folds other's codes into fe.
func (fe FieldErrors) Merge(other FieldErrors) {
	for field, codes := range other {
		for _, code := range codes {
			fe.Add(field, code)
		}
	}
}

// IsEmpty reports whether no errors are recorded.
func (fe FieldErrors) IsEmpty() bool { return len(fe) == 0 }

// Fields returns the sorted error field names.
func (fe FieldErrors) Fields() []string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// ErrorKind tags one branch of the attempt error taxonomy.
type ErrorKind string

const (
	KindIntake    ErrorKind = "intake"
	KindRateLimit ErrorKind = "rate_limit"
	KindTransport ErrorKind = "transport"
	KindContent   ErrorKind = "content_rejection"
	KindPII       ErrorKind = "pii_rejection"
)

// AttemptError is the tagged union of per-attempt failure classes. Each
// branch carries its own structured payload; the orchestrator unions them
// into a NormalizedOutcome at the boundary.
type AttemptError interface {
	error
	Kind() ErrorKind
	FieldErrors() FieldErrors
}

// IntakeError reports malformed or missing image input. It never reaches the
// vendor.
type IntakeError struct {
	Fields FieldErrors
}

func (e *IntakeError) Error() string           { return "intake validation failed" }
func (e *IntakeError) Kind() ErrorKind         { return KindIntake }
func (e *IntakeError) FieldErrors() FieldErrors { return e.Fields }

// RateLimitError reports an attempt blocked before dispatch.
type RateLimitError struct {
	Remaining int
	Attempts  int
	LockedOut bool
}

func (e *RateLimitError) Error() string   { return "attempt rate limited" }
func (e *RateLimitError) Kind() ErrorKind { return KindRateLimit }
func (e *RateLimitError) FieldErrors() FieldErrors {
	return FieldErrors{FieldLimit: {ErrRateLimited}}
}

// TransportError reports a vendor that was unreachable or returned an
// unexpected HTTP status. Keyed by status, never by document content.
type TransportError struct {
	StatusCode int
	Timeout    bool
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return "vendor transport failure"
}
func (e *TransportError) Kind() ErrorKind { return KindTransport }
func (e *TransportError) Unwrap() error   { return e.Err }
func (e *TransportError) FieldErrors() FieldErrors {
	return FieldErrors{FieldNetwork: {ErrVendorUnavailable}}
}

// ContentRejection reports a vendor that parsed the document but failed one
// or more checks.
type ContentRejection struct {
	Fields    FieldErrors
	Telemetry map[string]any
}

func (e *ContentRejection) Error() string            { return "document rejected by vendor" }
func (e *ContentRejection) Kind() ErrorKind          { return KindContent }
func (e *ContentRejection) FieldErrors() FieldErrors { return e.Fields }

// SideErrors reports which capture sides have attributable errors. The dedup
// tracker uses this to decide which fingerprints to record.
func (e *ContentRejection) SideErrors() (front, back bool) {
	_, front = e.Fields[FieldFront]
	_, back = e.Fields[FieldBack]
	return front, back
}

// PIIRejection reports extracted PII that failed domain acceptance rules.
type PIIRejection struct {
	Fields FieldErrors
}

func (e *PIIRejection) Error() string            { return "extracted PII failed acceptance" }
func (e *PIIRejection) Kind() ErrorKind          { return KindPII }
func (e *PIIRejection) FieldErrors() FieldErrors { return e.Fields }

// NormalizedOutcome is the single result shape returned to callers for every
// attempt, successful or not. Extra carries non-essential telemetry that
// downstream flow control may ignore.
type NormalizedOutcome struct {
	Success           bool           `json:"success"`
	Errors            FieldErrors    `json:"errors"`
	RemainingAttempts int            `json:"remaining_attempts"`
	Extra             map[string]any `json:"extra,omitempty"`
}
