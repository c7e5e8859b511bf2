package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrMissingTransaction is returned when no ambient transaction is
	// supplied. Fatal to the invocation, never retried.
	ErrMissingTransaction = errors.New("audit: no transaction supplied")

	// ErrMissingAPICall is returned when the api-call identifier is absent
	// or does not resolve to an existing row. Fatal, never retried; the
	// caller is expected to have created the row earlier in the request.
	ErrMissingAPICall = errors.New("audit: api call not found")
)

// Engine is the public entry point of the audit trail. It fans the diff and
// persistence work out per record and awaits completion of every write
// before returning, all inside the transaction supplied by the caller.
type Engine struct {
	store   Store
	policy  *Policy
	logger  *slog.Logger
	metrics *Metrics
	now     func() time.Time

	// txMu serializes statements on the shared transaction handle: a
	// database/sql transaction is bound to a single connection, so the
	// per-record tasks fan out and join as a group while their statements
	// take turns on the wire.
	txMu sync.Mutex
}

// NewEngine creates an Engine. A nil logger falls back to slog.Default.
func NewEngine(store Store, policy *Policy, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:  store,
		policy: policy,
		logger: logger,
		now:    time.Now,
	}
}

// NewEngineWithMetrics creates an Engine that also records Prometheus
// metrics for every invocation.
func NewEngineWithMetrics(store Store, policy *Policy, logger *slog.Logger, metrics *Metrics) *Engine {
	e := NewEngine(store, policy, logger)
	e.metrics = metrics
	return e
}

// TrackChanges records the audit trail for one batch of mutations: one
// audit_logs row linked to the api call, plus one audit_changes row per
// audited attribute transition across the three record lists. Updated
// records are also flushed to storage, and soft-deletable deleted records
// are marked and flushed. Every write happens inside tx; on any failure the
// whole invocation fails and the caller is expected to roll back, leaving no
// partial trail visible.
//
// The three lists are processed independently and may be empty in any
// combination; with all three empty only the log row is written. There is no
// ordering guarantee between records, only that the log row is written
// before any change referencing it.
func (e *Engine) TrackChanges(ctx context.Context, tx Tx, apiCallID string, newRecords, changedRecords, deletedRecords []Record) error {
	if tx == nil {
		return ErrMissingTransaction
	}
	if apiCallID == "" {
		e.fail("missing_api_call")
		return fmt.Errorf("empty api call id: %w", ErrMissingAPICall)
	}

	exists, err := e.store.APICallExists(ctx, tx, apiCallID)
	if err != nil {
		e.fail("persistence")
		return fmt.Errorf("failed to resolve api call %q: %w", apiCallID, err)
	}
	if !exists {
		e.fail("missing_api_call")
		return fmt.Errorf("api call %q: %w", apiCallID, ErrMissingAPICall)
	}

	log := &AuditLog{
		ID:        uuid.New().String(),
		CreatedAt: e.now().UTC(),
		APICallID: apiCallID,
	}
	if err := e.store.InsertLog(ctx, tx, log); err != nil {
		e.fail("persistence")
		return fmt.Errorf("failed to create audit log: %w", err)
	}

	var changeCount int64
	countMu := sync.Mutex{}
	count := func(n int) {
		countMu.Lock()
		changeCount += int64(n)
		countMu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, rec := range changedRecords {
		g.Go(func() error {
			n, err := e.trackUpdate(gctx, tx, log, rec)
			count(n)
			return err
		})
	}
	for _, rec := range deletedRecords {
		g.Go(func() error {
			n, err := e.trackSoftDelete(gctx, tx, log, rec)
			count(n)
			return err
		})
	}
	for _, rec := range newRecords {
		g.Go(func() error {
			n, err := e.trackNew(gctx, tx, log, rec)
			count(n)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		e.fail("persistence")
		return err
	}

	e.logger.LogAttrs(ctx, slog.LevelDebug, "audit trail recorded",
		slog.String("audit_log_id", log.ID),
		slog.String("api_call_id", apiCallID),
		slog.Int("new", len(newRecords)),
		slog.Int("changed", len(changedRecords)),
		slog.Int("deleted", len(deletedRecords)),
		slog.Int64("changes", changeCount),
	)
	if e.metrics != nil {
		e.metrics.ObserveInvocation(changeCount)
	}
	return nil
}

// trackNew writes the drafts for a new record. The record's own insert is
// issued by the caller before invoking the engine.
func (e *Engine) trackNew(ctx context.Context, tx Tx, log *AuditLog, rec Record) (int, error) {
	changes := e.buildChanges(log, rec, RecordNew(e.policy, rec))
	if len(changes) == 0 {
		return 0, nil
	}
	if err := e.insertChanges(ctx, tx, changes); err != nil {
		return 0, fmt.Errorf("new %s: %w", rec.Kind(), err)
	}
	return len(changes), nil
}

// trackUpdate writes the drafts for a changed record, then flushes the
// record's pending in-memory mutation. The flush is not optional cleanup;
// the engine is what persists updates.
func (e *Engine) trackUpdate(ctx context.Context, tx Tx, log *AuditLog, rec Record) (int, error) {
	changes := e.buildChanges(log, rec, RecordUpdate(e.policy, rec))
	if len(changes) > 0 {
		if err := e.insertChanges(ctx, tx, changes); err != nil {
			return 0, fmt.Errorf("update %s: %w", rec.Kind(), err)
		}
	}
	if err := e.saveRecord(ctx, tx, rec); err != nil {
		return len(changes), fmt.Errorf("failed to save %s %q: %w", rec.Kind(), rec.Identity(), err)
	}
	return len(changes), nil
}

// trackSoftDelete marks a soft-deletable record deleted, flushes the
// mutation, and writes the single deletion-marker draft. Records whose kind
// does not support soft deletion are a no-op; hard deletes belong to the
// caller.
func (e *Engine) trackSoftDelete(ctx context.Context, tx Tx, log *AuditLog, rec Record) (int, error) {
	sd, ok := rec.(SoftDeletable)
	if !ok {
		return 0, nil
	}

	draft := RecordSoftDelete(sd, e.now())
	if err := e.saveRecord(ctx, tx, sd); err != nil {
		return 0, fmt.Errorf("failed to soft-delete %s %q: %w", sd.Kind(), sd.Identity(), err)
	}
	changes := e.buildChanges(log, sd, []ChangeDraft{draft})
	if err := e.insertChanges(ctx, tx, changes); err != nil {
		return 0, fmt.Errorf("soft-delete %s: %w", sd.Kind(), err)
	}
	return len(changes), nil
}

// buildChanges fills the log linkage and record identity into the drafts.
func (e *Engine) buildChanges(log *AuditLog, rec Record, drafts []ChangeDraft) []*Change {
	recordID := e.resolveIdentity(rec)
	changes := make([]*Change, 0, len(drafts))
	for _, d := range drafts {
		changes = append(changes, &Change{
			ID:         uuid.New().String(),
			AuditLogID: log.ID,
			TableName:  rec.Kind(),
			RecordID:   recordID,
			Attribute:  d.Attribute,
			OldValue:   d.OldValue,
			NewValue:   d.NewValue,
		})
	}
	return changes
}

// resolveIdentity returns the value that keys audit rows for rec. Kinds with
// a policy override read the overridden attribute; a kind that should be
// registered but is not falls back to the primary key and is mis-keyed
// rather than failing loudly, so overrides must be registered with care.
func (e *Engine) resolveIdentity(rec Record) string {
	attr := e.policy.IdentityAttribute(rec.Kind())
	if attr != DefaultIdentityAttribute {
		if value, ok := rec.Attributes()[attr]; ok {
			return value
		}
	}
	return rec.Identity()
}

func (e *Engine) insertChanges(ctx context.Context, tx Tx, changes []*Change) error {
	e.txMu.Lock()
	defer e.txMu.Unlock()
	return e.store.InsertChanges(ctx, tx, changes)
}

func (e *Engine) saveRecord(ctx context.Context, tx Tx, rec Record) error {
	e.txMu.Lock()
	defer e.txMu.Unlock()
	return rec.Save(ctx, tx)
}

func (e *Engine) fail(reason string) {
	if e.metrics != nil {
		e.metrics.ObserveFailure(reason)
	}
}
