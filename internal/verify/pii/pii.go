// Package pii implements acceptance validation of PII extracted from a
// verified document. Validators are pure functions of the record and the
// validation time: no network, no storage, no shared state.
//
// When several core identity fields fail at once, errors collapse into a
// single generic message so an adversary cannot iteratively discover which
// field to forge next.
package pii

import (
	"time"

	"docauth/internal/verify/models"
)

// Field names used by acceptance errors.
const (
	FieldAddress        = "address"
	FieldJurisdiction   = "jurisdiction"
	FieldIDNumber       = "state_id_number"
	FieldDOB            = "dob"
	FieldFirstName      = "first_name"
	FieldLastName       = "last_name"
	FieldPassportExpiry = "passport_expiration"
)

// Validator decides whether an extracted PII record is complete and
// internally consistent for one document family.
type Validator interface {
	Validate(record *models.PIIRecord, now time.Time) models.FieldErrors
}

// Config carries the settings shared by validators.
type Config struct {
	// ExpirationBypassDate, when non-nil, names one expiration date treated
	// as not expired regardless of the current time. Legacy test-fixture
	// accommodation; see config.Config.ExpirationBypassDate.
	ExpirationBypassDate *time.Time

	// AcceptedPassportCountry is the single issuing country accepted for
	// passports.
	AcceptedPassportCountry string
}

// DefaultConfig returns production validator settings.
func DefaultConfig() Config {
	return Config{AcceptedPassportCountry: "USA"}
}

// ForDocument returns the purpose-specific validator for a document class,
// falling back to the generic validator for unclassified documents.
func ForDocument(class models.DocumentClass, cfg Config) Validator {
	switch class {
	case models.ClassDriversLicense, models.ClassIdentificationCard:
		return NewStateID(cfg)
	case models.ClassPassport, models.ClassPassportCard:
		return NewPassport(cfg)
	default:
		return NewGeneric()
	}
}

// expired applies the expiration rule with the explicitly configurable
// bypass. The bypass is compared by calendar date, never generalized.
func expired(expiration time.Time, now time.Time, cfg Config) bool {
	if expiration.IsZero() {
		return false
	}
	if cfg.ExpirationBypassDate != nil && sameDate(expiration, *cfg.ExpirationBypassDate) {
		return false
	}
	return expiration.Before(now)
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// collapse replaces field-specific errors with the single generic message.
func collapse() models.FieldErrors {
	return models.FieldErrors{models.FieldPII: {models.ErrPIIIncomplete}}
}
