// Package template implements a vendor backend built around a canonical
// wire-shaped response template. Tests mutate individual fields through the
// builder and the result is serialized into the exact JSON the live
// adapter's parser consumes, so the parser can be exercised without a live
// endpoint.
package template

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"docauth/internal/verify/vendorpkg"
)

// Builder assembles one vendor response by mutating a copy of the canonical
// template. Build produces an immutable snapshot; further mutations never
// affect payloads already built.
type Builder struct {
	payload vendor.ResultsPayload
}

// NewBuilder returns a builder holding the canonical template: a passing New
// York drivers license with complete PII.
func NewBuilder() *Builder {
	return &Builder{payload: canonical()}
}

// WithInstanceID sets the vendor session identifier.
func (b *Builder) WithInstanceID(id string) *Builder {
	b.payload.InstanceID = id
	return b
}

// WithDocumentClass sets the classification's document class name.
func (b *Builder) WithDocumentClass(name string) *Builder {
	b.payload.Classification.ClassName = name
	return b
}

// WithIssuer sets the issuing jurisdiction and country codes.
func (b *Builder) WithIssuer(issuerCode, countryCode string) *Builder {
	b.payload.Classification.IssuerCode = issuerCode
	b.payload.Classification.CountryCode = countryCode
	return b
}

// WithIssueType sets the passport issue type ("Book" or "Card").
func (b *Builder) WithIssueType(issueType string) *Builder {
	b.payload.Classification.IssueType = issueType
	return b
}

// WithDocAuthResult sets the overall document authentication result.
func (b *Builder) WithDocAuthResult(result string) *Builder {
	b.payload.DocAuthResult = result
	return b
}

// WithCheck sets the result of one named alert, adding the alert when the
// template does not carry it.
func (b *Builder) WithCheck(name, result string) *Builder {
	for i := range b.payload.Alerts {
		if b.payload.Alerts[i].Name == name {
			b.payload.Alerts[i].Result = result
			return b
		}
	}
	b.payload.Alerts = append(b.payload.Alerts, vendor.Alert{Name: name, Result: result})
	return b
}

// WithField sets one extracted field value, adding the field when absent.
func (b *Builder) WithField(name, value string) *Builder {
	for i := range b.payload.Fields {
		if b.payload.Fields[i].Name == name {
			b.payload.Fields[i].Value = value
			return b
		}
	}
	b.payload.Fields = append(b.payload.Fields, vendor.Field{Name: name, Value: value})
	return b
}

// WithoutField removes one extracted field entirely.
func (b *Builder) WithoutField(name string) *Builder {
	kept := b.payload.Fields[:0]
	for _, f := range b.payload.Fields {
		if f.Name != name {
			kept = append(kept, f)
		}
	}
	b.payload.Fields = kept
	return b
}

// WithExpirationDate sets the extracted expiration date.
func (b *Builder) WithExpirationDate(t time.Time) *Builder {
	return b.WithField(vendor.FieldExpirationDate, t.Format(vendor.WireDateLayout))
}

// WithAddress sets the extracted address block.
func (b *Builder) WithAddress(address1, city, state, postalCode string) *Builder {
	b.WithField(vendor.FieldAddress1, address1)
	b.WithField(vendor.FieldCity, city)
	b.WithField(vendor.FieldState, state)
	return b.WithField(vendor.FieldPostalCode, postalCode)
}

// WithPortraitMatch sets the biometric comparison block.
func (b *Builder) WithPortraitMatch(result string, live, qualityGood bool) *Builder {
	b.payload.PortraitMatch = &vendor.PortraitMatch{
		Result:      result,
		Score:       90,
		IsLive:      live,
		QualityGood: qualityGood,
	}
	return b
}

// WithoutPortraitMatch removes the biometric comparison block.
func (b *Builder) WithoutPortraitMatch() *Builder {
	b.payload.PortraitMatch = nil
	return b
}

// WithImageMetrics sets the quality metrics for one side.
func (b *Builder) WithImageMetrics(side string, sharpness, glare float64, dpi int) *Builder {
	for i := range b.payload.ImageMetrics {
		if b.payload.ImageMetrics[i].Side == side {
			b.payload.ImageMetrics[i].Sharpness = sharpness
			b.payload.ImageMetrics[i].Glare = glare
			b.payload.ImageMetrics[i].HorizontalDPI = dpi
			b.payload.ImageMetrics[i].VerticalDPI = dpi
			return b
		}
	}
	b.payload.ImageMetrics = append(b.payload.ImageMetrics, vendor.ImageMetric{
		Side: side, Sharpness: sharpness, Glare: glare, HorizontalDPI: dpi, VerticalDPI: dpi,
	})
	return b
}

// Build serializes the mutated template into wire JSON and parses it back,
// returning the response exactly as the live adapter would produce it.
func (b *Builder) Build() (*vendor.RawResponse, error) {
	body, err := json.Marshal(b.payload)
	if err != nil {
		return nil, fmt.Errorf("marshal template payload: %w", err)
	}
	var parsed vendor.ResultsPayload
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("reparse template payload: %w", err)
	}
	return &vendor.RawResponse{
		HTTPStatus: 200,
		Payload:    &parsed,
		Body:       body,
	}, nil
}

// Backend serves one built response as a Dispatcher. Its state is test-scoped
// and fixed at construction.
type Backend struct {
	resp *vendor.RawResponse
}

// NewBackend builds the response once and returns a Dispatcher serving it.
func NewBackend(b *Builder) (*Backend, error) {
	resp, err := b.Build()
	if err != nil {
		return nil, err
	}
	return &Backend{resp: resp}, nil
}

// Submit implements vendor.Dispatcher.
func (t *Backend) Submit(ctx context.Context, req *vendor.Request) (*vendor.RawResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, &vendor.NetworkError{Op: "submit", Timeout: true, Err: err}
	}
	return t.resp, nil
}

// FetchResult implements vendor.Dispatcher.
func (t *Backend) FetchResult(ctx context.Context, instanceID string) (*vendor.RawResponse, error) {
	return t.resp, nil
}

func canonical() vendor.ResultsPayload {
	return vendor.ResultsPayload{
		InstanceID:    "22222222-2222-4222-8222-222222222222",
		DocAuthResult: vendor.ResultPassed,
		Classification: vendor.Classification{
			ClassName:   vendor.ClassNameDriversLicense,
			IssuerCode:  "NY",
			CountryCode: "USA",
		},
		Alerts: []vendor.Alert{
			{Name: vendor.AlertBarcodeRead, Result: vendor.ResultPassed},
			{Name: vendor.AlertBarcodeContent, Result: vendor.ResultPassed},
			{Name: vendor.AlertBirthDateValid, Result: vendor.ResultPassed},
			{Name: vendor.AlertDocClassification, Result: vendor.ResultPassed},
			{Name: vendor.AlertDocumentExpired, Result: vendor.ResultPassed},
			{Name: vendor.AlertExpirationDateValid, Result: vendor.ResultPassed},
			{Name: vendor.AlertFullNameCrosscheck, Result: vendor.ResultPassed},
			{Name: vendor.AlertDocNumberCrosscheck, Result: vendor.ResultPassed},
			{Name: vendor.AlertLayoutValid, Result: vendor.ResultPassed},
			{Name: vendor.AlertVisiblePattern, Result: vendor.ResultPassed},
		},
		Fields: []vendor.Field{
			{Name: vendor.FieldFirstName, Value: "JANE"},
			{Name: vendor.FieldMiddleName, Value: "Q"},
			{Name: vendor.FieldSurname, Value: "SAMPLE"},
			{Name: vendor.FieldBirthDate, Value: "1990-10-06"},
			{Name: vendor.FieldAddress1, Value: "123 ANY ST"},
			{Name: vendor.FieldCity, Value: "ALBANY"},
			{Name: vendor.FieldState, Value: "NY"},
			{Name: vendor.FieldPostalCode, Value: "12201"},
			{Name: vendor.FieldDocumentNumber, Value: "123456789"},
			{Name: vendor.FieldExpirationDate, Value: "2039-12-31"},
			{Name: vendor.FieldIssueDate, Value: "2019-12-31"},
		},
		ImageMetrics: []vendor.ImageMetric{
			{Side: "front", Sharpness: 80, Glare: 10, HorizontalDPI: 300, VerticalDPI: 300},
			{Side: "back", Sharpness: 80, Glare: 10, HorizontalDPI: 300, VerticalDPI: 300},
		},
	}
}
