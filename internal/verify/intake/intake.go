// Package intake validates submitted document images and computes content
// fingerprints. Intake failures never reach the vendor.
package intake

import (
	"encoding/base64"
	"encoding/hex"
	"strings"
	"time"

	"github.com/zeebo/blake3"

	"docauth/internal/verify/models"
)

// Input is one submitted image value: either raw bytes with a content type,
// or an embedded data URL. A zero Input means the side was not submitted.
type Input struct {
	Bytes       []byte
	ContentType string
	DataURL     string
}

// IsZero reports whether nothing was submitted for this side.
func (in Input) IsZero() bool {
	return len(in.Bytes) == 0 && in.DataURL == ""
}

// Params carries all submitted images plus the detected capture source.
type Params struct {
	Front  Input
	Back   Input
	Selfie Input
	Source models.ImageSource
}

// Ingest validates presence and format of the submitted images and builds the
// attempt. Front and back are mandatory; selfie is mandatory only when
// requireSelfie is set. A value that is present but not decodable is
// classified not_a_file; an absent mandatory value is missing_image.
// Returns a nil attempt iff the intake error is non-nil.
func Ingest(params Params, requireSelfie bool, now time.Time) (*models.Attempt, *models.IntakeError) {
	fields := models.FieldErrors{}
	attempt := models.NewAttempt(params.Source, now)

	ingestSide(attempt, fields, models.SideFront, models.FieldFront, params.Front, true)
	ingestSide(attempt, fields, models.SideBack, models.FieldBack, params.Back, true)
	ingestSide(attempt, fields, models.SideSelfie, models.FieldSelfie, params.Selfie, requireSelfie)

	if !fields.IsEmpty() {
		return nil, &models.IntakeError{Fields: fields}
	}
	return attempt, nil
}

func ingestSide(attempt *models.Attempt, fields models.FieldErrors, side models.ImageSide, field string, in Input, required bool) {
	if in.IsZero() {
		if required {
			fields.Add(field, models.ErrMissingImage)
		}
		return
	}

	img, ok := decode(in)
	if !ok {
		fields.Add(field, models.ErrNotAFile)
		return
	}
	attempt.Images[side] = img
}

func decode(in Input) (*models.Image, bool) {
	if len(in.Bytes) > 0 {
		contentType := in.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		return &models.Image{Bytes: in.Bytes, ContentType: contentType}, true
	}
	return decodeDataURL(in.DataURL)
}

// decodeDataURL parses an embedded data:<mediatype>;base64,<data> image.
func decodeDataURL(raw string) (*models.Image, bool) {
	rest, ok := strings.CutPrefix(raw, "data:")
	if !ok {
		return nil, false
	}
	meta, data, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, false
	}
	contentType, encoding := meta, ""
	if ct, enc, found := strings.Cut(meta, ";"); found {
		contentType, encoding = ct, enc
	}
	if encoding != "base64" {
		return nil, false
	}
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil || len(decoded) == 0 {
		return nil, false
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &models.Image{Bytes: decoded, ContentType: contentType}, true
}

// Fingerprint returns the content fingerprint for one side of the attempt,
// computing and caching it on first use. Fingerprints must be computed
// before dispatch so dedup bookkeeping can use them even when the vendor
// call itself fails.
func Fingerprint(attempt *models.Attempt, side models.ImageSide) models.Fingerprint {
	if fp, ok := attempt.CachedFingerprint(side); ok {
		return fp
	}
	img := attempt.Image(side)
	if img == nil {
		return ""
	}
	fp := FingerprintBytes(img.Bytes)
	attempt.CacheFingerprint(side, fp)
	return fp
}

// FingerprintBytes computes the deterministic digest of raw image bytes.
// Identical bytes always yield the same fingerprint.
func FingerprintBytes(b []byte) models.Fingerprint {
	sum := blake3.Sum256(b)
	return models.Fingerprint(hex.EncodeToString(sum[:]))
}
