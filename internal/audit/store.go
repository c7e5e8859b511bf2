package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store defines the persistence operations the engine issues inside the
// caller's transaction. None of them commit independently.
type Store interface {
	// APICallExists reports whether an api_calls row with the given ID
	// exists, read inside the ambient transaction.
	APICallExists(ctx context.Context, tx Tx, id string) (bool, error)

	// InsertLog writes one audit_logs row.
	InsertLog(ctx context.Context, tx Tx, log *AuditLog) error

	// InsertChanges writes a batch of audit_changes rows belonging to an
	// already-inserted log.
	InsertChanges(ctx context.Context, tx Tx, changes []*Change) error
}

// PostgresStore implements Store with plain SQL against the transaction
// handle it is given. It holds no connection state of its own.
type PostgresStore struct{}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore() *PostgresStore {
	return &PostgresStore{}
}

// APICallExists implements Store.
func (s *PostgresStore) APICallExists(ctx context.Context, tx Tx, id string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM api_calls WHERE id = $1)`
	if err := tx.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check api call existence: %w", err)
	}
	return exists, nil
}

// InsertLog implements Store.
func (s *PostgresStore) InsertLog(ctx context.Context, tx Tx, log *AuditLog) error {
	query := `
		INSERT INTO audit_logs (id, api_call_id, created_at)
		VALUES ($1, $2, $3)
	`
	if _, err := tx.ExecContext(ctx, query, log.ID, log.APICallID, log.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}
	return nil
}

// InsertChanges implements Store.
func (s *PostgresStore) InsertChanges(ctx context.Context, tx Tx, changes []*Change) error {
	query := `
		INSERT INTO audit_changes (id, audit_log_id, table_name, record_id, attribute, old_value, new_value)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, c := range changes {
		_, err := tx.ExecContext(ctx, query,
			c.ID, c.AuditLogID, c.TableName, c.RecordID, c.Attribute, c.OldValue, c.NewValue)
		if err != nil {
			return fmt.Errorf("failed to insert audit change for %s.%s: %w", c.TableName, c.Attribute, err)
		}
	}
	return nil
}

// Ledger writes api_calls rows for the request-entry middleware. It runs
// outside any business transaction so the row is visible to every
// transaction opened later in the same request.
type Ledger struct {
	q Tx
}

// NewLedger creates a Ledger bound to a database handle. *sql.DB satisfies
// the Tx interface for this non-transactional use.
func NewLedger(q Tx) *Ledger {
	return &Ledger{q: q}
}

// RecordCall inserts the api_calls row, filling in the ID and creation time
// if unset. The call's ID is returned through the (possibly updated) struct.
func (l *Ledger) RecordCall(ctx context.Context, call *APICall) error {
	if call.ID == "" {
		call.ID = uuid.New().String()
	}
	if call.CreatedAt.IsZero() {
		call.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO api_calls (id, created_at, user_id, ip_address, user_agent, method, route)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7)
	`
	_, err := l.q.ExecContext(ctx, query,
		call.ID, call.CreatedAt, call.UserID, call.IPAddress, call.UserAgent, call.Method, call.Route)
	if err != nil {
		return fmt.Errorf("failed to insert api call: %w", err)
	}
	return nil
}

// MemoryStore is an in-memory implementation of Store plus the api-call
// ledger. Used for testing and development. Thread-safe via RWMutex; it
// ignores the transaction handle.
type MemoryStore struct {
	mu       sync.RWMutex
	apiCalls map[string]*APICall
	logs     map[string]*AuditLog
	changes  []*Change
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		apiCalls: make(map[string]*APICall),
		logs:     make(map[string]*AuditLog),
	}
}

// RecordCall stores an api_calls row, filling in ID and creation time if
// unset. Satisfies the middleware ledger interface.
func (s *MemoryStore) RecordCall(ctx context.Context, call *APICall) error {
	if call.ID == "" {
		call.ID = uuid.New().String()
	}
	if call.CreatedAt.IsZero() {
		call.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *call
	s.apiCalls[call.ID] = &copied
	return nil
}

// APICallExists implements Store.
func (s *MemoryStore) APICallExists(ctx context.Context, tx Tx, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.apiCalls[id]
	return ok, nil
}

// InsertLog implements Store.
func (s *MemoryStore) InsertLog(ctx context.Context, tx Tx, log *AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *log
	s.logs[log.ID] = &copied
	return nil
}

// InsertChanges implements Store.
func (s *MemoryStore) InsertChanges(ctx context.Context, tx Tx, changes []*Change) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range changes {
		copied := *c
		s.changes = append(s.changes, &copied)
	}
	return nil
}

// Logs returns a copy of all stored audit logs.
func (s *MemoryStore) Logs() []*AuditLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*AuditLog, 0, len(s.logs))
	for _, log := range s.logs {
		copied := *log
		out = append(out, &copied)
	}
	return out
}

// Changes returns a copy of all stored audit changes.
func (s *MemoryStore) Changes() []*Change {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Change, 0, len(s.changes))
	for _, c := range s.changes {
		copied := *c
		out = append(out, &copied)
	}
	return out
}

// APICalls returns a copy of all stored api calls.
func (s *MemoryStore) APICalls() []*APICall {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*APICall, 0, len(s.apiCalls))
	for _, call := range s.apiCalls {
		copied := *call
		out = append(out, &copied)
	}
	return out
}
