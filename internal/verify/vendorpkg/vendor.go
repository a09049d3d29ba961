// Package vendor defines the capability interface to the document
// verification vendor and the wire shapes shared by the live adapter, the
// test backends, and the response normalizer.
package vendor

import (
	"context"
	"errors"
	"fmt"

	"docauth/internal/verify/models"
)

//go:generate mockgen -source=vendor.go -destination=mocks/mocks.go -package=mocks Dispatcher

// Request carries one submission's images and metadata to a backend.
type Request struct {
	Front  *models.Image
	Back   *models.Image
	Selfie *models.Image

	// CorrelationID identifies the attempt in vendor telemetry without
	// re-transmitting images.
	CorrelationID string
	Source        models.ImageSource

	// BiometricComparison requests a selfie-to-portrait match.
	BiometricComparison bool

	// RoutingHint is an opaque vendor-routing discriminator passed through
	// to the backend unchanged.
	RoutingHint string
}

// Dispatcher is implemented by every vendor backend. All implementations are
// behaviorally interchangeable for the orchestrator: Submit runs the full
// submission chain and returns the vendor's raw response, FetchResult
// re-reads the result of a prior submission.
//
// A *NetworkError return distinguishes transport failures from a vendor
// reported rejection (an HTTP 200 carrying failed checks); dedup bookkeeping
// must never treat a network error as a content rejection.
type Dispatcher interface {
	Submit(ctx context.Context, req *Request) (*RawResponse, error)
	FetchResult(ctx context.Context, instanceID string) (*RawResponse, error)
}

// NetworkError reports that a backend could not complete a network exchange
// with the vendor: timeouts, connection failures, or malformed transport
// payloads. It is never produced for a vendor-reported content rejection.
type NetworkError struct {
	Op      string
	Timeout bool
	Err     error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("vendor %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("vendor %s failed", e.Op)
}

// Unwrap implements error unwrapping.
func (e *NetworkError) Unwrap() error { return e.Err }

// IsNetworkError reports whether err is (or wraps) a NetworkError.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}
