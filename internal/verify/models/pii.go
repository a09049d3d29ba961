package models

import "time"

// DocumentClass is the vendor's classification of the submitted document.
type DocumentClass string

const (
	ClassDriversLicense     DocumentClass = "drivers_license"
	ClassIdentificationCard DocumentClass = "identification_card"
	ClassPassport           DocumentClass = "passport"
	ClassPassportCard       DocumentClass = "passport_card"
	ClassUnknown            DocumentClass = "unknown"
)

// IsValid checks if the class is one of the supported enum values.
func (c DocumentClass) IsValid() bool {
	switch c {
	case ClassDriversLicense, ClassIdentificationCard, ClassPassport, ClassPassportCard, ClassUnknown:
		return true
	}
	return false
}

// Supported reports whether this document class is accepted by the pipeline.
// Card-type passports are classified but never accepted.
func (c DocumentClass) Supported() bool {
	switch c {
	case ClassDriversLicense, ClassIdentificationCard, ClassPassport:
		return true
	}
	return false
}

// PIIRecord holds the structured fields recovered from a document. It is
// produced by the vendor adapter, consumed immediately by an acceptance
// validator, and handed to the storage collaborator only on overall success.
// Zero time values mean the field was not recovered.
type PIIRecord struct {
	FirstName  string
	MiddleName string
	LastName   string
	DOB        time.Time

	Address1 string
	Address2 string
	City     string
	State    string
	ZipCode  string

	DocumentNumber string
	Jurisdiction   string
	DocumentClass  DocumentClass
	ExpirationDate time.Time
	IssueDate      time.Time

	// Passport-only fields.
	MRZ            string
	Nationality    string
	IssuingCountry string
	PassportBook   bool
}

// jurisdictions is the fixed enumeration of valid issuing jurisdiction codes:
// the 50 states, DC, and the territories that issue accepted IDs.
var jurisdictions = map[string]struct{}{
	"AL": {}, "AK": {}, "AZ": {}, "AR": {}, "CA": {}, "CO": {}, "CT": {},
	"DE": {}, "DC": {}, "FL": {}, "GA": {}, "HI": {}, "ID": {}, "IL": {},
	"IN": {}, "IA": {}, "KS": {}, "KY": {}, "LA": {}, "ME": {}, "MD": {},
	"MA": {}, "MI": {}, "MN": {}, "MS": {}, "MO": {}, "MT": {}, "NE": {},
	"NV": {}, "NH": {}, "NJ": {}, "NM": {}, "NY": {}, "NC": {}, "ND": {},
	"OH": {}, "OK": {}, "OR": {}, "PA": {}, "RI": {}, "SC": {}, "SD": {},
	"TN": {}, "TX": {}, "UT": {}, "VT": {}, "VA": {}, "WA": {}, "WV": {},
	"WI": {}, "WY": {}, "AS": {}, "GU": {}, "MP": {}, "PR": {}, "VI": {},
}

// ValidJurisdiction reports whether code is an accepted issuing jurisdiction.
func ValidJurisdiction(code string) bool {
	_, ok := jurisdictions[code]
	return ok
}
