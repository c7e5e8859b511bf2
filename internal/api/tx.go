package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/onnwee/homebooks/internal/audit"
)

// runInTx executes fn inside a repeatable-read transaction. The transaction
// commits only when fn returns nil; any error rolls the whole request back,
// audit trail included.
func runInTx(ctx context.Context, dbc *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := dbc.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			return fmt.Errorf("rollback failed: %v (original: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// writeTxError maps transactional failures onto API errors. A missing api
// call row means the request entered without the ledger middleware, which is
// an audit availability problem rather than a client mistake.
func writeTxError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, msg string) {
	logger.Error(msg, "error", err)
	if errors.Is(err, audit.ErrMissingAPICall) || errors.Is(err, audit.ErrMissingTransaction) {
		WriteError(w, r.Context(), http.StatusServiceUnavailable, ErrCodeAuditUnavailable, "Audit trail is unavailable")
		return
	}
	WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "The request could not be completed")
}
