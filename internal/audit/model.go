// Package audit provides the transactional audit-trail engine. It records a
// field-level history of every create, update, and soft delete performed by
// the business handlers, atomically with the mutation itself, tied back to
// the API call that caused it.
package audit

import (
	"time"
)

// APICall is the ledger row representing one inbound HTTP request. It is
// created by the request-entry middleware before any business logic runs and
// is never mutated afterwards. The engine only reads it to validate linkage.
type APICall struct {
	ID        string
	CreatedAt time.Time

	// Optional request metadata
	UserID    string
	IPAddress string
	UserAgent string
	Method    string
	Route     string
}

// AuditLog is one audit-trail batch, produced by one TrackChanges invocation
// and linked to the APICall that caused it.
type AuditLog struct {
	ID        string
	CreatedAt time.Time
	APICallID string
}

// Change is one recorded attribute transition belonging to an AuditLog.
// Old and new values are stored as their string representation regardless of
// source type; the trail is a forensic record, not a typed replay log.
type Change struct {
	ID         string
	AuditLogID string
	TableName  string
	RecordID   string
	Attribute  string
	OldValue   *string
	NewValue   *string
}

// ChangeDraft is a not-yet-persisted attribute transition computed by the
// diff recorder. The engine fills in the log linkage and record identity
// before writing it as a Change.
type ChangeDraft struct {
	Attribute string
	OldValue  *string
	NewValue  *string
}

// FieldChange is one pending in-memory attribute transition reported by a
// record, with both values already stringified.
type FieldChange struct {
	Old string
	New string
}
