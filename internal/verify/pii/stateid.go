package pii

import (
	"time"

	"docauth/internal/verify/models"
)

// StateID enforces acceptance rules for state-issued licenses and
// identification cards.
type StateID struct {
	cfg     Config
	generic *Generic
}

// NewStateID builds the state ID validator.
func NewStateID(cfg Config) *StateID {
	return &StateID{cfg: cfg, generic: NewGeneric()}
}

// Validate implements Validator.
func (v *StateID) Validate(record *models.PIIRecord, now time.Time) models.FieldErrors {
	if record == nil {
		return collapse()
	}

	errs := v.generic.Validate(record, now)

	if record.Address1 == "" || record.City == "" || record.State == "" || record.ZipCode == "" {
		errs.Add(FieldAddress, models.ErrPIIIncomplete)
	}
	if record.State != "" && !models.ValidJurisdiction(record.State) {
		errs.Add(FieldAddress, models.ErrUnsupportedJurisdiction)
	}
	if !models.ValidJurisdiction(record.Jurisdiction) {
		errs.Add(FieldJurisdiction, models.ErrUnsupportedJurisdiction)
	}
	if record.DocumentNumber == "" {
		errs.Add(FieldIDNumber, models.ErrPIIIncomplete)
	}

	switch {
	case record.ExpirationDate.IsZero():
		errs.Add(models.FieldExpiry, models.ErrExpirationMissing)
	case expired(record.ExpirationDate, now, v.cfg):
		errs.Add(models.FieldExpiry, models.ErrExpired)
	}

	return errs
}
