package handler

import (
	"strings"

	"github.com/mssola/useragent"

	"docauth/internal/verify/intake"
	"docauth/internal/verify/models"
	dErrors "docauth/pkg/domain-errors"
)

// SubmitRequest is the HTTP request body for POST /verify/documents. Images
// arrive as data URLs; intake owns decoding and validation, so the handler
// only checks presence and size ceilings.
type SubmitRequest struct {
	FrontImage  string `json:"front_image"`
	BackImage   string `json:"back_image"`
	SelfieImage string `json:"selfie_image,omitempty"`

	// ImageSource optionally overrides User-Agent based detection:
	// "camera" or "upload".
	ImageSource string `json:"image_source,omitempty"`

	BiometricComparison bool   `json:"biometric_comparison,omitempty"`
	RoutingHint         string `json:"routing_hint,omitempty"`
}

// maxImagePayload bounds one encoded image field. Vendor-side limits are far
// below this; the ceiling only stops pathological bodies.
const maxImagePayload = 15 << 20

// Validate implements basic shape checks. Decoding errors surface as intake
// field errors in the outcome, not as HTTP errors.
func (r *SubmitRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	for _, img := range []string{r.FrontImage, r.BackImage, r.SelfieImage} {
		if len(img) > maxImagePayload {
			return dErrors.New(dErrors.CodeBadRequest, "image payload too large")
		}
	}
	switch strings.TrimSpace(r.ImageSource) {
	case "", string(models.SourceCamera), string(models.SourceUpload):
	default:
		return dErrors.New(dErrors.CodeBadRequest, "image_source must be camera or upload")
	}
	return nil
}

// Source resolves the capture source: an explicit override wins, otherwise
// the User-Agent decides (native mobile capture vs desktop file upload).
func (r *SubmitRequest) Source(userAgent string) models.ImageSource {
	switch strings.TrimSpace(r.ImageSource) {
	case string(models.SourceCamera):
		return models.SourceCamera
	case string(models.SourceUpload):
		return models.SourceUpload
	}
	if userAgent == "" {
		return models.SourceUnknown
	}
	if useragent.New(userAgent).Mobile() {
		return models.SourceCamera
	}
	return models.SourceUpload
}

func imageInput(value string) intake.Input {
	value = strings.TrimSpace(value)
	if value == "" {
		return intake.Input{}
	}
	return intake.Input{DataURL: value}
}

// SessionRequest is the HTTP request body for POST /verify/sessions.
type SessionRequest struct {
	Subject string `json:"subject"`
}

// Validate implements the shape check for session minting.
func (r *SessionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if strings.TrimSpace(r.Subject) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "subject is required")
	}
	return nil
}

// SessionResponse is the HTTP response for POST /verify/sessions.
type SessionResponse struct {
	Token string `json:"token"`
}
