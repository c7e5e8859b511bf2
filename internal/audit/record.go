package audit

import (
	"context"
	"database/sql"
	"time"
)

// Tx is the subset of *sql.Tx the engine and record implementations need.
// The engine never begins, commits, or rolls back a transaction; it only
// participates in the one it is given.
type Tx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Record is the capability contract every auditable business entity
// implements. The engine depends only on this interface, never on concrete
// entity types.
type Record interface {
	// Kind returns the owning table name, e.g. "expenses".
	Kind() string

	// Identity returns the current value of the record's primary key. Kinds
	// registered with an identity override in the Policy are keyed through
	// Attributes instead.
	Identity() string

	// Attributes returns every attribute currently set on the record as
	// stringified attribute/value pairs.
	Attributes() map[string]string

	// ChangedAttributes returns the attributes mutated in memory since the
	// record was loaded, with previous and current values.
	ChangedAttributes() map[string]FieldChange

	// Save flushes the record's in-memory state to storage inside the given
	// transaction.
	Save(ctx context.Context, tx Tx) error
}

// SoftDeletable is implemented by records whose kind supports soft deletion
// via a deletion-marker attribute. Kinds without this capability are hard
// deleted by the caller through a separate path; the engine never removes
// rows.
type SoftDeletable interface {
	Record

	// MarkDeleted sets the deletion marker to the given time in memory and
	// returns the marker attribute name and its stringified value.
	MarkDeleted(now time.Time) (attribute, value string)
}

// FormatTime renders a timestamp the way audit values are stored.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
