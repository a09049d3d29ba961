package template

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"docauth/internal/verify/vendorpkg"
)

type TemplateSuite struct {
	suite.Suite
}

func TestTemplateSuite(t *testing.T) {
	suite.Run(t, new(TemplateSuite))
}

func (s *TemplateSuite) build(b *Builder) *vendor.RawResponse {
	resp, err := b.Build()
	s.Require().NoError(err)
	return resp
}

// ==========================================================================
// Canonical template
// ==========================================================================

func (s *TemplateSuite) TestCanonicalTemplateIsAPassingDocument() {
	resp := s.build(NewBuilder())

	s.Require().True(resp.OK())
	s.Equal(vendor.ResultPassed, resp.Payload.DocAuthResult)
	for _, a := range resp.Payload.Alerts {
		s.Equal(vendor.ResultPassed, a.Result, a.Name)
	}
	s.Equal("JANE", resp.Payload.FieldValue(vendor.FieldFirstName))
	s.Nil(resp.Payload.PortraitMatch)
}

func (s *TemplateSuite) TestBodyIsWireJSON() {
	resp := s.build(NewBuilder())

	var reparsed vendor.ResultsPayload
	s.Require().NoError(json.Unmarshal(resp.Body, &reparsed))
	s.Equal(*resp.Payload, reparsed)
}

// ==========================================================================
// Mutators
// ==========================================================================

func (s *TemplateSuite) TestWithCheckUpdatesExistingAlert() {
	resp := s.build(NewBuilder().WithCheck(vendor.AlertDocumentExpired, vendor.ResultFailed))

	var found bool
	for _, a := range resp.Payload.Alerts {
		if a.Name == vendor.AlertDocumentExpired {
			found = true
			s.Equal(vendor.ResultFailed, a.Result)
		}
	}
	s.True(found)
}

func (s *TemplateSuite) TestWithCheckAppendsUnknownAlert() {
	base := len(s.build(NewBuilder()).Payload.Alerts)
	resp := s.build(NewBuilder().WithCheck("Hologram Pattern", vendor.ResultFailed))

	s.Len(resp.Payload.Alerts, base+1)
}

func (s *TemplateSuite) TestWithoutFieldRemovesTheField() {
	resp := s.build(NewBuilder().WithoutField(vendor.FieldAddress1))

	s.Empty(resp.Payload.FieldValue(vendor.FieldAddress1))
	s.NotEmpty(resp.Payload.FieldValue(vendor.FieldCity))
}

func (s *TemplateSuite) TestWithExpirationDateFormatsWireDate() {
	resp := s.build(NewBuilder().WithExpirationDate(time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC)))

	s.Equal("2020-01-15", resp.Payload.FieldValue(vendor.FieldExpirationDate))
}

func (s *TemplateSuite) TestWithAddressSetsTheBlock() {
	resp := s.build(NewBuilder().WithAddress("9 PINE RD", "SEATTLE", "WA", "98101"))

	s.Equal("9 PINE RD", resp.Payload.FieldValue(vendor.FieldAddress1))
	s.Equal("SEATTLE", resp.Payload.FieldValue(vendor.FieldCity))
	s.Equal("WA", resp.Payload.FieldValue(vendor.FieldState))
	s.Equal("98101", resp.Payload.FieldValue(vendor.FieldPostalCode))
}

func (s *TemplateSuite) TestWithImageMetricsReplacesSide() {
	resp := s.build(NewBuilder().WithImageMetrics("front", 12, 80, 72))

	for _, m := range resp.Payload.ImageMetrics {
		if m.Side == "front" {
			s.Equal(float64(12), m.Sharpness)
			s.Equal(72, m.HorizontalDPI)
		}
		if m.Side == "back" {
			s.Equal(float64(80), m.Sharpness)
		}
	}
}

// ==========================================================================
// Snapshot semantics
// ==========================================================================

func (s *TemplateSuite) TestBuildSnapshotsAreIndependent() {
	b := NewBuilder()
	first := s.build(b)

	b.WithDocAuthResult(vendor.ResultFailed)
	second := s.build(b)

	s.Equal(vendor.ResultPassed, first.Payload.DocAuthResult)
	s.Equal(vendor.ResultFailed, second.Payload.DocAuthResult)
}

func (s *TemplateSuite) TestBackendServesTheBuiltResponse() {
	backend, err := NewBackend(NewBuilder().WithInstanceID("instance-7"))
	s.Require().NoError(err)

	resp, err := backend.Submit(context.Background(), &vendor.Request{})
	s.Require().NoError(err)
	s.Equal("instance-7", resp.Payload.InstanceID)

	fetched, err := backend.FetchResult(context.Background(), "instance-7")
	s.Require().NoError(err)
	s.Equal(resp.Payload.InstanceID, fetched.Payload.InstanceID)
}

func (s *TemplateSuite) TestBackendHonorsCancelledContext() {
	backend, err := NewBackend(NewBuilder())
	s.Require().NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = backend.Submit(ctx, &vendor.Request{})
	s.True(vendor.IsNetworkError(err))
}
