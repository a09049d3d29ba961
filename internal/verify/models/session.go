package models

import "time"

// CaptureSession is the resolved form of an opaque document capture session
// token: who is attempting verification and until when the session is valid.
type CaptureSession struct {
	// ID is the stable identifier for the session, independent of the
	// token's encoding. Dedup records and stored results are keyed by it.
	ID        string
	Subject   string
	ExpiresAt time.Time

	// PriorOutcome holds the stored result of an earlier attempt in this
	// session, when one exists.
	PriorOutcome *NormalizedOutcome
}

// ExpiredAt reports whether the session is expired as of now.
func (s *CaptureSession) ExpiredAt(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// ArchivedImages is the storage collaborator's receipt for one archived
// attempt: the sealed front/back pair and, when extraction succeeded, the
// sealed personal record alongside them.
type ArchivedImages struct {
	FrontFilename  string
	BackFilename   string
	RecordFilename string
	EncryptionKey  string
}
