package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"docauth/internal/verify/config"
	"docauth/internal/verify/models"
	"docauth/internal/verify/vendorpkg"
	"docauth/internal/verify/vendorpkg/template"
)

type NormalizerSuite struct {
	suite.Suite
	normalizer *Normalizer
}

func TestNormalizerSuite(t *testing.T) {
	suite.Run(t, new(NormalizerSuite))
}

func (s *NormalizerSuite) SetupTest() {
	s.normalizer = New(config.Default().Quality)
}

func (s *NormalizerSuite) build(b *template.Builder) *vendor.RawResponse {
	resp, err := b.Build()
	s.Require().NoError(err)
	return resp
}

// ==========================================================================
// Passing documents
// ==========================================================================

func (s *NormalizerSuite) TestCanonicalTemplatePasses() {
	verdict, terr := s.normalizer.Normalize(s.build(template.NewBuilder()), false)

	s.Require().Nil(terr)
	s.True(verdict.Success)
	s.True(verdict.Errors.IsEmpty())
	s.True(verdict.DocTypeSupported)

	s.Require().NotNil(verdict.PII)
	s.Equal("JANE", verdict.PII.FirstName)
	s.Equal("SAMPLE", verdict.PII.LastName)
	s.Equal("NY", verdict.PII.Jurisdiction)
	s.Equal(models.ClassDriversLicense, verdict.PII.DocumentClass)
	s.Equal(time.Date(1990, 10, 6, 0, 0, 0, 0, time.UTC), verdict.PII.DOB)
	s.Equal(time.Date(2039, 12, 31, 0, 0, 0, 0, time.UTC), verdict.PII.ExpirationDate)

	s.Equal("22222222-2222-4222-8222-222222222222", verdict.Telemetry["vendor_instance_id"])
	s.Equal(string(models.ClassDriversLicense), verdict.Telemetry["doc_class"])
}

func (s *NormalizerSuite) TestSkippedChecksDoNotCountAgainstTheDocument() {
	resp := s.build(template.NewBuilder().
		WithCheck(vendor.AlertSexCheck, vendor.ResultSkipped))

	verdict, terr := s.normalizer.Normalize(resp, false)

	s.Require().Nil(terr)
	s.True(verdict.Success)
}

// ==========================================================================
// Failed checks map to stable field errors
// ==========================================================================

func (s *NormalizerSuite) TestExpiredDocumentRoundTrip() {
	resp := s.build(template.NewBuilder().
		WithDocAuthResult(vendor.ResultFailed).
		WithCheck(vendor.AlertDocumentExpired, vendor.ResultFailed))

	verdict, terr := s.normalizer.Normalize(resp, false)

	s.Require().Nil(terr)
	s.False(verdict.Success)
	s.Equal([]string{models.ErrExpired}, verdict.Errors[models.FieldExpiry])
	s.Contains(verdict.Telemetry["failed_checks"], vendor.AlertDocumentExpired)
}

func (s *NormalizerSuite) TestAttentionCountsAsFailure() {
	resp := s.build(template.NewBuilder().
		WithCheck(vendor.AlertLayoutValid, vendor.ResultAttention))

	verdict, terr := s.normalizer.Normalize(resp, false)

	s.Require().Nil(terr)
	s.False(verdict.Success)
	s.Equal([]string{models.ErrDocAuthFailed}, verdict.Errors[models.FieldFront])
}

func (s *NormalizerSuite) TestUnknownFailedCheckFallsBackToGeneral() {
	resp := s.build(template.NewBuilder().
		WithCheck("Hologram Pattern", vendor.ResultFailed))

	verdict, terr := s.normalizer.Normalize(resp, false)

	s.Require().Nil(terr)
	s.False(verdict.Success)
	s.Equal([]string{models.ErrDocAuthFailed}, verdict.Errors[models.FieldGeneral])
}

func (s *NormalizerSuite) TestFailedOverallResultWithoutFailedChecks() {
	resp := s.build(template.NewBuilder().WithDocAuthResult(vendor.ResultFailed))

	verdict, terr := s.normalizer.Normalize(resp, false)

	s.Require().Nil(terr)
	s.False(verdict.Success)
	s.Equal([]string{models.ErrDocAuthFailed}, verdict.Errors[models.FieldGeneral])
}

func (s *NormalizerSuite) TestCrosscheckFailureAttributesToGeneral() {
	resp := s.build(template.NewBuilder().
		WithCheck(vendor.AlertFullNameCrosscheck, vendor.ResultFailed))

	verdict, terr := s.normalizer.Normalize(resp, false)

	s.Require().Nil(terr)
	s.False(verdict.Success)
	s.Equal([]string{models.ErrDocAuthFailed}, verdict.Errors[models.FieldGeneral])
	s.NotContains(verdict.Errors, models.FieldFront)
	s.NotContains(verdict.Errors, models.FieldBack)
}

// ==========================================================================
// Barcode provisional pass
// ==========================================================================

func (s *NormalizerSuite) TestUnreadableBarcodeAloneStillPasses() {
	resp := s.build(template.NewBuilder().
		WithCheck(vendor.AlertBarcodeRead, vendor.ResultFailed))

	verdict, terr := s.normalizer.Normalize(resp, false)

	s.Require().Nil(terr)
	s.True(verdict.Success)
	s.Equal(true, verdict.Telemetry["barcode_provisional_pass"])
}

func (s *NormalizerSuite) TestBarcodeContentFailureIsNotProvisional() {
	resp := s.build(template.NewBuilder().
		WithCheck(vendor.AlertBarcodeContent, vendor.ResultFailed))

	verdict, terr := s.normalizer.Normalize(resp, false)

	s.Require().Nil(terr)
	s.False(verdict.Success)
	s.Equal([]string{models.ErrBarcodeUnreadable}, verdict.Errors[models.FieldBack])
}

func (s *NormalizerSuite) TestUnreadableBarcodePlusOtherFailureRejects() {
	resp := s.build(template.NewBuilder().
		WithCheck(vendor.AlertBarcodeRead, vendor.ResultFailed).
		WithCheck(vendor.AlertDocumentExpired, vendor.ResultFailed))

	verdict, terr := s.normalizer.Normalize(resp, false)

	s.Require().Nil(terr)
	s.False(verdict.Success)
	s.Equal([]string{models.ErrBarcodeUnreadable}, verdict.Errors[models.FieldBack])
	s.Equal([]string{models.ErrExpired}, verdict.Errors[models.FieldExpiry])
	s.NotContains(verdict.Telemetry, "barcode_provisional_pass")
}

func (s *NormalizerSuite) TestUnreadableBarcodeWithBadQualityRejects() {
	resp := s.build(template.NewBuilder().
		WithCheck(vendor.AlertBarcodeRead, vendor.ResultFailed).
		WithImageMetrics(models.FieldFront, 10, 10, 300))

	verdict, terr := s.normalizer.Normalize(resp, false)

	s.Require().Nil(terr)
	s.False(verdict.Success)
}

// ==========================================================================
// Quality thresholds
// ==========================================================================

func (s *NormalizerSuite) TestQualityThresholds() {
	tests := []struct {
		name            string
		side            string
		sharpness       float64
		glare           float64
		dpi             int
		wantField, code string
	}{
		{"blurry front", models.FieldFront, 10, 10, 300, models.FieldFront, models.ErrImageTooBlurry},
		{"glare on back", models.FieldBack, 80, 90, 300, models.FieldBack, models.ErrGlareDetected},
		{"low resolution front", models.FieldFront, 80, 10, 72, models.FieldFront, models.ErrResolutionTooLow},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			resp := s.build(template.NewBuilder().
				WithImageMetrics(tt.side, tt.sharpness, tt.glare, tt.dpi))

			verdict, terr := s.normalizer.Normalize(resp, false)

			s.Require().Nil(terr)
			s.False(verdict.Success)
			s.Contains(verdict.Errors[tt.wantField], tt.code)
		})
	}
}

func (s *NormalizerSuite) TestZeroMetricsAreNotPenalized() {
	// A vendor that omits sharpness or DPI reports zeros; absent
	// measurements must not read as threshold violations.
	resp := s.build(template.NewBuilder().
		WithImageMetrics(models.FieldFront, 0, 0, 0))

	verdict, terr := s.normalizer.Normalize(resp, false)

	s.Require().Nil(terr)
	s.True(verdict.Success)
}

// ==========================================================================
// Document classification
// ==========================================================================

func (s *NormalizerSuite) TestPassportCardIsUnsupported() {
	resp := s.build(template.NewBuilder().
		WithDocumentClass(vendor.ClassNamePassportCard))

	verdict, terr := s.normalizer.Normalize(resp, false)

	s.Require().Nil(terr)
	s.False(verdict.Success)
	s.False(verdict.DocTypeSupported)
	s.Equal([]string{models.ErrUnsupportedDocType}, verdict.Errors[models.FieldDocType])
}

func (s *NormalizerSuite) TestPassportBookCarriesIssueType() {
	resp := s.build(template.NewBuilder().
		WithDocumentClass(vendor.ClassNamePassport).
		WithIssueType(vendor.IssueTypeBook).
		WithIssuer("", "USA").
		WithField(vendor.FieldMRZ, "P<USASAMPLE<<JANE<<<<<<<<<<<<<<<<<<<<<<<<<<<").
		WithField(vendor.FieldNationality, "USA"))

	verdict, terr := s.normalizer.Normalize(resp, false)

	s.Require().Nil(terr)
	s.Equal(models.ClassPassport, verdict.PII.DocumentClass)
	s.True(verdict.PII.PassportBook)
	s.Equal("USA", verdict.PII.IssuingCountry)
	s.NotEmpty(verdict.PII.MRZ)
}

func (s *NormalizerSuite) TestUnrecognizedClassNameIsUnknown() {
	resp := s.build(template.NewBuilder().WithDocumentClass("Voter Card"))

	verdict, terr := s.normalizer.Normalize(resp, false)

	s.Require().Nil(terr)
	s.False(verdict.DocTypeSupported)
	s.Equal(models.ClassUnknown, verdict.PII.DocumentClass)
}

// ==========================================================================
// Biometric comparison
// ==========================================================================

func (s *NormalizerSuite) TestSelfieIgnoredWhenNotRequested() {
	resp := s.build(template.NewBuilder().
		WithPortraitMatch(vendor.ResultFailed, false, false))

	verdict, terr := s.normalizer.Normalize(resp, false)

	s.Require().Nil(terr)
	s.True(verdict.Success)
	s.Nil(verdict.Selfie)
}

func (s *NormalizerSuite) TestSelfiePassesWhenAllChecksHold() {
	resp := s.build(template.NewBuilder().
		WithPortraitMatch(vendor.ResultPassed, true, true))

	verdict, terr := s.normalizer.Normalize(resp, true)

	s.Require().Nil(terr)
	s.True(verdict.Success)
	s.Require().NotNil(verdict.Selfie)
	s.True(verdict.Selfie.Performed)
	s.True(verdict.Selfie.Match)
}

func (s *NormalizerSuite) TestSelfieFailures() {
	tests := []struct {
		name    string
		mutate  func(b *template.Builder) *template.Builder
		code    string
	}{
		{
			"missing portrait block",
			func(b *template.Builder) *template.Builder { return b.WithoutPortraitMatch() },
			models.ErrSelfieQuality,
		},
		{
			"not live",
			func(b *template.Builder) *template.Builder {
				return b.WithPortraitMatch(vendor.ResultPassed, false, true)
			},
			models.ErrSelfieNotLive,
		},
		{
			"poor quality",
			func(b *template.Builder) *template.Builder {
				return b.WithPortraitMatch(vendor.ResultPassed, true, false)
			},
			models.ErrSelfieQuality,
		},
		{
			"no match",
			func(b *template.Builder) *template.Builder {
				return b.WithPortraitMatch(vendor.ResultFailed, true, true)
			},
			models.ErrSelfieMismatch,
		},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			resp := s.build(tt.mutate(template.NewBuilder()))

			verdict, terr := s.normalizer.Normalize(resp, true)

			s.Require().Nil(terr)
			s.False(verdict.Success)
			s.Equal([]string{tt.code}, verdict.Errors[models.FieldSelfie])
		})
	}
}

// ==========================================================================
// Transport failures
// ==========================================================================

func (s *NormalizerSuite) TestNonOKStatusIsTransportError() {
	verdict, terr := s.normalizer.Normalize(&vendor.RawResponse{HTTPStatus: 438}, false)

	s.Nil(verdict)
	s.Require().NotNil(terr)
	s.Equal(438, terr.StatusCode)
}

func (s *NormalizerSuite) TestOKStatusWithoutPayloadIsTransportError() {
	verdict, terr := s.normalizer.Normalize(&vendor.RawResponse{HTTPStatus: 200}, false)

	s.Nil(verdict)
	s.Require().NotNil(terr)
	s.Equal(200, terr.StatusCode)
}

func (s *NormalizerSuite) TestNilResponseIsTransportError() {
	verdict, terr := s.normalizer.Normalize(nil, false)

	s.Nil(verdict)
	s.Require().NotNil(terr)
	s.Zero(terr.StatusCode)
}
