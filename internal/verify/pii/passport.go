package pii

import (
	"time"

	"docauth/internal/verify/models"
)

// Passport enforces acceptance rules for passports. Only book passports from
// the single accepted issuing country are allowed.
type Passport struct {
	cfg     Config
	generic *Generic
}

// NewPassport builds the passport validator.
func NewPassport(cfg Config) *Passport {
	if cfg.AcceptedPassportCountry == "" {
		cfg.AcceptedPassportCountry = DefaultConfig().AcceptedPassportCountry
	}
	return &Passport{cfg: cfg, generic: NewGeneric()}
}

// Validate implements Validator. The issuing-country rejection is a single
// generic message: the specific country never appears in the error.
func (v *Passport) Validate(record *models.PIIRecord, now time.Time) models.FieldErrors {
	if record == nil {
		return collapse()
	}

	if record.IssuingCountry != v.cfg.AcceptedPassportCountry {
		return collapse()
	}

	errs := v.generic.Validate(record, now)

	if record.DocumentClass == models.ClassPassportCard || !record.PassportBook {
		errs.Add(models.FieldDocType, models.ErrUnsupportedDocType)
	}
	if record.MRZ == "" {
		errs.Add(models.FieldPII, models.ErrPIIIncomplete)
	}

	switch {
	case record.ExpirationDate.IsZero():
		errs.Add(FieldPassportExpiry, models.ErrExpirationMissing)
	case expired(record.ExpirationDate, now, v.cfg):
		errs.Add(FieldPassportExpiry, models.ErrExpired)
	}

	return errs
}
