// Package normalize transforms raw vendor responses into one structured
// verdict with a stable error taxonomy. Vendor-specific alert names, result
// vocabularies and quality metrics never escape this package.
package normalize

import (
	"log/slog"
	"time"

	"docauth/internal/verify/config"
	"docauth/internal/verify/models"
	"docauth/internal/verify/vendorpkg"
)

// Normalizer owns VendorVerdict construction. The orchestrator only reads
// the verdicts it produces.
type Normalizer struct {
	quality config.Quality
	logger  *slog.Logger
}

// Option configures the normalizer.
type Option func(*Normalizer)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Normalizer) {
		n.logger = logger
	}
}

// New builds a normalizer with the given quality thresholds.
func New(quality config.Quality, opts ...Option) *Normalizer {
	n := &Normalizer{quality: quality}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// checkFieldMap routes each failed vendor check to a user-facing field and
// stable error code.
var checkFieldMap = map[string]struct {
	field string
	code  string
}{
	vendor.AlertDocumentExpired:     {models.FieldExpiry, models.ErrExpired},
	vendor.AlertExpirationDateValid: {models.FieldExpiry, models.ErrExpired},
	vendor.AlertBarcodeRead:         {models.FieldBack, models.ErrBarcodeUnreadable},
	vendor.AlertBarcodeContent:      {models.FieldBack, models.ErrBarcodeUnreadable},
	vendor.AlertDocClassification:   {models.FieldDocType, models.ErrUnsupportedDocType},
	vendor.AlertLayoutValid:         {models.FieldFront, models.ErrDocAuthFailed},
	vendor.AlertVisiblePattern:      {models.FieldFront, models.ErrDocAuthFailed},
	vendor.AlertBirthDateValid:      {models.FieldGeneral, models.ErrDocAuthFailed},
	vendor.AlertFullNameCrosscheck:  {models.FieldGeneral, models.ErrDocAuthFailed},
	vendor.AlertDocNumberCrosscheck: {models.FieldGeneral, models.ErrDocAuthFailed},
	vendor.AlertSexCheck:            {models.FieldGeneral, models.ErrDocAuthFailed},
}

// Normalize turns one raw response into a verdict, or a transport error when
// the vendor did not produce a parseable result document. Transport errors
// are keyed by HTTP status and are never conflated with content rejections.
func (n *Normalizer) Normalize(resp *vendor.RawResponse, biometricRequested bool) (*models.VendorVerdict, *models.TransportError) {
	if !resp.OK() {
		status := 0
		if resp != nil {
			status = resp.HTTPStatus
		}
		return nil, &models.TransportError{StatusCode: status}
	}

	payload := resp.Payload
	checks := parseChecks(payload.Alerts)
	docClass := parseClass(payload.Classification.ClassName)
	pii := extractPII(payload, docClass)

	verdict := &models.VendorVerdict{
		Errors:           models.FieldErrors{},
		PII:              pii,
		DocTypeSupported: docClass.Supported(),
		Telemetry: map[string]any{
			"vendor_instance_id": payload.InstanceID,
			"doc_auth_result":    payload.DocAuthResult,
			"doc_class":          string(docClass),
			"reference":          payload.Reference,
		},
	}

	failed := failedChecks(checks)
	verdict.Telemetry["failed_checks"] = checkNames(failed)

	if biometricRequested {
		verdict.Selfie = parseSelfie(payload.PortraitMatch)
	}

	qualityErrors := n.qualityErrors(payload.ImageMetrics)

	// Degraded-but-acceptable path: an unreadable barcode as the sole
	// failure does not reject the document.
	if barcodeOnly(failed) && verdict.DocTypeSupported && qualityErrors.IsEmpty() && selfieOK(biometricRequested, verdict.Selfie) {
		verdict.Success = true
		verdict.Telemetry["barcode_provisional_pass"] = true
		return verdict, nil
	}

	if len(failed) == 0 && payload.DocAuthResult == vendor.ResultPassed &&
		verdict.DocTypeSupported && qualityErrors.IsEmpty() &&
		selfieOK(biometricRequested, verdict.Selfie) {
		verdict.Success = true
		return verdict, nil
	}

	// Error generation: failed checks plus quality metrics map to typed,
	// user-facing field errors.
	for _, check := range failed {
		mapping, ok := checkFieldMap[check.Name]
		if !ok {
			mapping.field, mapping.code = models.FieldGeneral, models.ErrDocAuthFailed
		}
		verdict.Errors.Add(mapping.field, mapping.code)
	}
	if len(failed) == 0 && payload.DocAuthResult != vendor.ResultPassed {
		verdict.Errors.Add(models.FieldGeneral, models.ErrDocAuthFailed)
	}
	if !verdict.DocTypeSupported {
		verdict.Errors.Add(models.FieldDocType, models.ErrUnsupportedDocType)
	}
	verdict.Errors.Merge(qualityErrors)

	if biometricRequested && !selfieOK(true, verdict.Selfie) {
		addSelfieErrors(verdict.Errors, verdict.Selfie)
	}

	if n.logger != nil {
		n.logger.Debug("vendor verdict normalized",
			"success", verdict.Success,
			"error_fields", verdict.Errors.Fields(),
			"doc_type_supported", verdict.DocTypeSupported,
		)
	}
	return verdict, nil
}

// qualityErrors compares per-side metrics against configured thresholds.
func (n *Normalizer) qualityErrors(metrics []vendor.ImageMetric) models.FieldErrors {
	errs := models.FieldErrors{}
	for _, m := range metrics {
		field := m.Side
		if field != models.FieldFront && field != models.FieldBack {
			continue
		}
		if m.Sharpness > 0 && m.Sharpness < n.quality.MinSharpness {
			errs.Add(field, models.ErrImageTooBlurry)
		}
		if m.Glare > n.quality.MaxGlare {
			errs.Add(field, models.ErrGlareDetected)
		}
		if dpi := min(m.HorizontalDPI, m.VerticalDPI); dpi > 0 && dpi < n.quality.MinDPI {
			errs.Add(field, models.ErrResolutionTooLow)
		}
	}
	return errs
}

func parseChecks(alerts []vendor.Alert) []models.CheckResult {
	checks := make([]models.CheckResult, 0, len(alerts))
	for _, a := range alerts {
		checks = append(checks, models.CheckResult{
			Name:        a.Name,
			Disposition: parseDisposition(a.Result),
		})
	}
	return checks
}

func parseDisposition(result string) models.CheckDisposition {
	switch result {
	case vendor.ResultPassed:
		return models.CheckPassed
	case vendor.ResultAttention:
		return models.CheckAttention
	case vendor.ResultSkipped:
		return models.CheckSkipped
	default:
		return models.CheckFailed
	}
}

func failedChecks(checks []models.CheckResult) []models.CheckResult {
	var failed []models.CheckResult
	for _, c := range checks {
		if c.Disposition.Failed() {
			failed = append(failed, c)
		}
	}
	return failed
}

func checkNames(checks []models.CheckResult) []string {
	names := make([]string, 0, len(checks))
	for _, c := range checks {
		names = append(names, c.Name)
	}
	return names
}

func barcodeOnly(failed []models.CheckResult) bool {
	return len(failed) == 1 && failed[0].Name == vendor.AlertBarcodeRead
}

func parseSelfie(pm *vendor.PortraitMatch) *models.SelfieChecks {
	if pm == nil {
		return &models.SelfieChecks{Performed: false}
	}
	return &models.SelfieChecks{
		Performed:   true,
		Live:        pm.IsLive,
		QualityGood: pm.QualityGood,
		Match:       pm.Result == vendor.ResultPassed,
	}
}

func selfieOK(biometricRequested bool, selfie *models.SelfieChecks) bool {
	if !biometricRequested {
		return true
	}
	return selfie != nil && selfie.Performed && selfie.Live && selfie.QualityGood && selfie.Match
}

func addSelfieErrors(errs models.FieldErrors, selfie *models.SelfieChecks) {
	switch {
	case selfie == nil || !selfie.Performed:
		errs.Add(models.FieldSelfie, models.ErrSelfieQuality)
	case !selfie.Live:
		errs.Add(models.FieldSelfie, models.ErrSelfieNotLive)
	case !selfie.QualityGood:
		errs.Add(models.FieldSelfie, models.ErrSelfieQuality)
	case !selfie.Match:
		errs.Add(models.FieldSelfie, models.ErrSelfieMismatch)
	}
}

func parseClass(name string) models.DocumentClass {
	switch name {
	case vendor.ClassNameDriversLicense:
		return models.ClassDriversLicense
	case vendor.ClassNameIdentificationCard:
		return models.ClassIdentificationCard
	case vendor.ClassNamePassport:
		return models.ClassPassport
	case vendor.ClassNamePassportCard:
		return models.ClassPassportCard
	default:
		return models.ClassUnknown
	}
}

// extractPII builds the structured PII record from extracted wire fields.
func extractPII(payload *vendor.ResultsPayload, docClass models.DocumentClass) *models.PIIRecord {
	pii := &models.PIIRecord{
		FirstName:      payload.FieldValue(vendor.FieldFirstName),
		MiddleName:     payload.FieldValue(vendor.FieldMiddleName),
		LastName:       payload.FieldValue(vendor.FieldSurname),
		DOB:            parseWireDate(payload.FieldValue(vendor.FieldBirthDate)),
		Address1:       payload.FieldValue(vendor.FieldAddress1),
		Address2:       payload.FieldValue(vendor.FieldAddress2),
		City:           payload.FieldValue(vendor.FieldCity),
		State:          payload.FieldValue(vendor.FieldState),
		ZipCode:        payload.FieldValue(vendor.FieldPostalCode),
		DocumentNumber: payload.FieldValue(vendor.FieldDocumentNumber),
		Jurisdiction:   payload.Classification.IssuerCode,
		DocumentClass:  docClass,
		ExpirationDate: parseWireDate(payload.FieldValue(vendor.FieldExpirationDate)),
		IssueDate:      parseWireDate(payload.FieldValue(vendor.FieldIssueDate)),
		MRZ:            payload.FieldValue(vendor.FieldMRZ),
		Nationality:    payload.FieldValue(vendor.FieldNationality),
		IssuingCountry: payload.Classification.CountryCode,
		PassportBook:   payload.Classification.IssueType == vendor.IssueTypeBook,
	}
	return pii
}

func parseWireDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(vendor.WireDateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
