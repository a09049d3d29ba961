// Package fixture implements a vendor backend that answers from a canned
// payload. Tests and local environments declare overrides which are
// deep-merged into the default known-good document; the merged document is
// then parsed through the same wire shape the live adapter produces.
//
// All configuration is constructor-scoped so concurrent tests cannot
// interfere with one another.
package fixture

import (
	"context"
	"encoding/json"
	"fmt"

	"docauth/internal/verify/vendorpkg"
)

// Backend is a fixture-driven Dispatcher.
type Backend struct {
	overrides  map[string]any
	httpStatus int
	networkErr *vendor.NetworkError
}

// Option configures the backend.
type Option func(*Backend)

// WithOverrides deep-merges the given document into the default payload.
// Map values merge recursively; any other value replaces the default.
func WithOverrides(overrides map[string]any) Option {
	return func(b *Backend) {
		b.overrides = overrides
	}
}

// WithHTTPStatus makes every exchange answer with the given status instead
// of 200. Non-200 responses carry no payload.
func WithHTTPStatus(status int) Option {
	return func(b *Backend) {
		b.httpStatus = status
	}
}

// WithNetworkError makes every exchange fail with the given transport error
// before any response is produced.
func WithNetworkError(op string, timeout bool) Option {
	return func(b *Backend) {
		b.networkErr = &vendor.NetworkError{Op: op, Timeout: timeout, Err: fmt.Errorf("fixture: injected %s failure", op)}
	}
}

// New builds a fixture backend.
func New(opts ...Option) *Backend {
	b := &Backend{httpStatus: 200}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Submit implements vendor.Dispatcher.
func (b *Backend) Submit(ctx context.Context, req *vendor.Request) (*vendor.RawResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, &vendor.NetworkError{Op: "submit", Timeout: true, Err: err}
	}
	if b.networkErr != nil {
		return nil, b.networkErr
	}
	if b.httpStatus != 200 {
		return &vendor.RawResponse{HTTPStatus: b.httpStatus}, nil
	}

	doc := deepMerge(DefaultPayload(), b.overrides)
	doc["reference"] = req.CorrelationID
	if !req.BiometricComparison {
		delete(doc, "portrait_match")
	}
	return respond(doc)
}

// FetchResult implements vendor.Dispatcher. The fixture has no session state;
// it re-serves the merged payload under the requested instance id.
func (b *Backend) FetchResult(ctx context.Context, instanceID string) (*vendor.RawResponse, error) {
	if b.networkErr != nil {
		return nil, b.networkErr
	}
	if b.httpStatus != 200 {
		return &vendor.RawResponse{HTTPStatus: b.httpStatus}, nil
	}

	doc := deepMerge(DefaultPayload(), b.overrides)
	doc["instance_id"] = instanceID
	return respond(doc)
}

func respond(doc map[string]any) (*vendor.RawResponse, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal fixture payload: %w", err)
	}
	var payload vendor.ResultsPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("fixture payload does not match wire shape: %w", err)
	}
	return &vendor.RawResponse{
		HTTPStatus: 200,
		Payload:    &payload,
		Body:       body,
	}, nil
}

// deepMerge returns base with override folded in. Nested maps merge
// recursively; all other override values win. Neither input is mutated.
func deepMerge(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		if ov, ok := v.(map[string]any); ok {
			if bv, ok := out[k].(map[string]any); ok {
				out[k] = deepMerge(bv, ov)
				continue
			}
		}
		out[k] = v
	}
	return out
}

// DefaultPayload is the known-good wire document: a current New York drivers
// license with every check passing and complete PII.
func DefaultPayload() map[string]any {
	return map[string]any{
		"instance_id":     "11111111-1111-4111-8111-111111111111",
		"doc_auth_result": vendor.ResultPassed,
		"classification": map[string]any{
			"class_name":   vendor.ClassNameDriversLicense,
			"issuer_code":  "NY",
			"country_code": "USA",
		},
		"alerts": []any{
			map[string]any{"name": vendor.AlertBarcodeRead, "result": vendor.ResultPassed},
			map[string]any{"name": vendor.AlertBarcodeContent, "result": vendor.ResultPassed},
			map[string]any{"name": vendor.AlertBirthDateValid, "result": vendor.ResultPassed},
			map[string]any{"name": vendor.AlertDocClassification, "result": vendor.ResultPassed},
			map[string]any{"name": vendor.AlertDocumentExpired, "result": vendor.ResultPassed},
			map[string]any{"name": vendor.AlertExpirationDateValid, "result": vendor.ResultPassed},
			map[string]any{"name": vendor.AlertFullNameCrosscheck, "result": vendor.ResultPassed},
			map[string]any{"name": vendor.AlertDocNumberCrosscheck, "result": vendor.ResultPassed},
			map[string]any{"name": vendor.AlertLayoutValid, "result": vendor.ResultPassed},
			map[string]any{"name": vendor.AlertVisiblePattern, "result": vendor.ResultPassed},
		},
		"fields": []any{
			map[string]any{"name": vendor.FieldFirstName, "value": "JANE"},
			map[string]any{"name": vendor.FieldMiddleName, "value": "Q"},
			map[string]any{"name": vendor.FieldSurname, "value": "SAMPLE"},
			map[string]any{"name": vendor.FieldBirthDate, "value": "1990-10-06"},
			map[string]any{"name": vendor.FieldAddress1, "value": "123 ANY ST"},
			map[string]any{"name": vendor.FieldCity, "value": "ALBANY"},
			map[string]any{"name": vendor.FieldState, "value": "NY"},
			map[string]any{"name": vendor.FieldPostalCode, "value": "12201"},
			map[string]any{"name": vendor.FieldDocumentNumber, "value": "123456789"},
			map[string]any{"name": vendor.FieldExpirationDate, "value": "2039-12-31"},
			map[string]any{"name": vendor.FieldIssueDate, "value": "2019-12-31"},
		},
		"image_metrics": []any{
			map[string]any{"side": "front", "sharpness": 80.0, "glare": 10.0, "horizontal_dpi": 300, "vertical_dpi": 300},
			map[string]any{"side": "back", "sharpness": 80.0, "glare": 10.0, "horizontal_dpi": 300, "vertical_dpi": 300},
		},
		"portrait_match": map[string]any{
			"result":       vendor.ResultPassed,
			"score":        98,
			"is_live":      true,
			"quality_good": true,
		},
	}
}
