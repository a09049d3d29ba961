package pii

import (
	"time"

	"docauth/internal/verify/models"
)

// Generic enforces the minimum identity fields every document must yield:
// first name, last name, and date of birth.
type Generic struct{}

// NewGeneric builds the generic validator.
func NewGeneric() *Generic { return &Generic{} }

// Validate implements Validator. More than one invalid core field collapses
// into a single generic error.
func (g *Generic) Validate(record *models.PIIRecord, now time.Time) models.FieldErrors {
	errs := models.FieldErrors{}
	if record == nil {
		return collapse()
	}

	if record.FirstName == "" {
		errs.Add(FieldFirstName, models.ErrPIIIncomplete)
	}
	if record.LastName == "" {
		errs.Add(FieldLastName, models.ErrPIIIncomplete)
	}
	if record.DOB.IsZero() {
		errs.Add(FieldDOB, models.ErrPIIIncomplete)
	}

	if len(errs) > 1 {
		return collapse()
	}
	return errs
}
