package domain

import "time"

// Operation names a write the tool performed against the API.
type Operation string

const (
	OpSave    Operation = "save"
	OpPublish Operation = "publish"
	OpCommit  Operation = "commit"
)

// Outcome of one journaled call.
type Outcome string

const (
	OutcomeOK     Outcome = "ok"
	OutcomeFailed Outcome = "failed"
)

// JournalEntry records one API write made on behalf of a document, so a
// partially failed commit can be inspected afterwards.
type JournalEntry struct {
	ID         string
	DocumentID string
	Operation  Operation
	Method     string
	Target     string
	Outcome    Outcome
	Error      string
	CreatedAt  time.Time
}
