package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/onnwee/homebooks/internal/audit"
	"github.com/onnwee/homebooks/internal/income"
	"github.com/onnwee/homebooks/internal/middleware"
	"github.com/onnwee/homebooks/internal/validate"
)

// CreateIncomeRequest represents the request body for recording an income.
type CreateIncomeRequest struct {
	HouseholdID string `json:"household_id"`
	Source      string `json:"source"`
	AmountCents int64  `json:"amount_cents"`
	ReceivedOn  string `json:"received_on"`
}

// UpdateIncomeRequest represents the request body for updating an income.
// Absent fields are left unchanged.
type UpdateIncomeRequest struct {
	Source      *string `json:"source,omitempty"`
	AmountCents *int64  `json:"amount_cents,omitempty"`
}

// IncomeResponse is the representation returned for income endpoints.
type IncomeResponse struct {
	Income *income.Income `json:"income"`
}

// IncomeHandlers holds dependencies for income HTTP handlers.
type IncomeHandlers struct {
	db      *sql.DB
	incomes *income.Repository
	engine  *audit.Engine
	logger  *slog.Logger
}

// NewIncomeHandlers creates a new IncomeHandlers instance.
func NewIncomeHandlers(db *sql.DB, incomes *income.Repository, engine *audit.Engine, logger *slog.Logger) *IncomeHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &IncomeHandlers{db: db, incomes: incomes, engine: engine, logger: logger}
}

// Collection handles /incomes.
func (h *IncomeHandlers) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.create(w, r)
	default:
		WriteError(w, r.Context(), http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
	}
}

// Item handles /incomes/{id}.
func (h *IncomeHandlers) Item(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/incomes/")
	if id == "" || strings.Contains(id, "/") {
		WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "The requested resource was not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPatch:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		WriteError(w, r.Context(), http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
	}
}

// create handles POST /incomes.
func (h *IncomeHandlers) create(w http.ResponseWriter, r *http.Request) {
	var req CreateIncomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}

	if strings.TrimSpace(req.HouseholdID) == "" {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "household_id is required")
		return
	}
	source, err := validate.String(req.Source, validate.NameConstraints)
	if err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "Source must be 1-120 characters")
		return
	}
	if !validateAmount(req.AmountCents) {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeInvalidAmount, "amount_cents must be a positive integer")
		return
	}
	receivedOn, err := time.Parse(dateLayout, req.ReceivedOn)
	if err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeInvalidDate, "received_on must be a YYYY-MM-DD date")
		return
	}

	in := income.New(req.HouseholdID, source, req.AmountCents, receivedOn)

	apiCallID := middleware.GetAPICallID(r.Context())
	err = runInTx(r.Context(), h.db, func(tx *sql.Tx) error {
		if err := h.incomes.Insert(r.Context(), tx, in); err != nil {
			return err
		}
		return h.engine.TrackChanges(r.Context(), tx, apiCallID,
			[]audit.Record{in}, nil, nil)
	})
	if err != nil {
		writeTxError(w, r, h.logger, err, "failed to create income")
		return
	}

	WriteJSON(w, http.StatusCreated, IncomeResponse{Income: in})
}

// get handles GET /incomes/{id}.
func (h *IncomeHandlers) get(w http.ResponseWriter, r *http.Request, id string) {
	in, err := h.incomes.GetByID(r.Context(), h.db, id)
	if err != nil {
		if errors.Is(err, income.ErrNotFound) {
			WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "Income not found")
			return
		}
		h.logger.Error("failed to load income", "error", err, "income_id", id)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to load income")
		return
	}
	WriteJSON(w, http.StatusOK, IncomeResponse{Income: in})
}

// update handles PATCH /incomes/{id}.
func (h *IncomeHandlers) update(w http.ResponseWriter, r *http.Request, id string) {
	var req UpdateIncomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}

	in, err := h.incomes.GetByID(r.Context(), h.db, id)
	if err != nil {
		if errors.Is(err, income.ErrNotFound) {
			WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "Income not found")
			return
		}
		h.logger.Error("failed to load income", "error", err, "income_id", id)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to load income")
		return
	}

	if req.Source != nil {
		source, err := validate.String(*req.Source, validate.NameConstraints)
		if err != nil {
			WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "Source must be 1-120 characters")
			return
		}
		in.SetSource(source)
	}
	if req.AmountCents != nil {
		if !validateAmount(*req.AmountCents) {
			WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeInvalidAmount, "amount_cents must be a positive integer")
			return
		}
		in.SetAmountCents(*req.AmountCents)
	}

	apiCallID := middleware.GetAPICallID(r.Context())
	err = runInTx(r.Context(), h.db, func(tx *sql.Tx) error {
		return h.engine.TrackChanges(r.Context(), tx, apiCallID,
			nil, []audit.Record{in}, nil)
	})
	if err != nil {
		writeTxError(w, r, h.logger, err, "failed to update income")
		return
	}

	WriteJSON(w, http.StatusOK, IncomeResponse{Income: in})
}

// delete handles DELETE /incomes/{id} (soft delete).
func (h *IncomeHandlers) delete(w http.ResponseWriter, r *http.Request, id string) {
	in, err := h.incomes.GetByID(r.Context(), h.db, id)
	if err != nil {
		if errors.Is(err, income.ErrNotFound) {
			WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "Income not found")
			return
		}
		h.logger.Error("failed to load income", "error", err, "income_id", id)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to load income")
		return
	}

	apiCallID := middleware.GetAPICallID(r.Context())
	err = runInTx(r.Context(), h.db, func(tx *sql.Tx) error {
		return h.engine.TrackChanges(r.Context(), tx, apiCallID,
			nil, nil, []audit.Record{in})
	})
	if err != nil {
		writeTxError(w, r, h.logger, err, "failed to delete income")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
