package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/onnwee/homebooks/internal/audit"
	"github.com/onnwee/homebooks/internal/budget"
	"github.com/onnwee/homebooks/internal/middleware"
	"github.com/onnwee/homebooks/internal/validate"
)

// CreateBudgetRequest represents the request body for creating a budget.
type CreateBudgetRequest struct {
	HouseholdID string `json:"household_id"`
	Name        string `json:"name"`
	Year        int    `json:"year"`
}

// PutBudgetMonthRequest represents the request body for setting the planned
// amount of one month.
type PutBudgetMonthRequest struct {
	PlannedCents int64 `json:"planned_cents"`
}

// BudgetResponse is the representation returned for budget endpoints.
type BudgetResponse struct {
	Budget *budget.Budget `json:"budget"`
}

// BudgetMonthResponse is the representation returned for month endpoints.
type BudgetMonthResponse struct {
	Month *budget.Month `json:"month"`
}

// BudgetHandlers holds dependencies for budget HTTP handlers.
type BudgetHandlers struct {
	db      *sql.DB
	budgets *budget.Repository
	engine  *audit.Engine
	logger  *slog.Logger
}

// NewBudgetHandlers creates a new BudgetHandlers instance.
func NewBudgetHandlers(db *sql.DB, budgets *budget.Repository, engine *audit.Engine, logger *slog.Logger) *BudgetHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &BudgetHandlers{db: db, budgets: budgets, engine: engine, logger: logger}
}

// Collection handles /budgets.
func (h *BudgetHandlers) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.create(w, r)
	default:
		WriteError(w, r.Context(), http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
	}
}

// Item handles /budgets/{id} and /budgets/{id}/months/{month}.
func (h *BudgetHandlers) Item(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/budgets/")
	if rest == "" {
		WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "The requested resource was not found")
		return
	}

	// /budgets/{id}
	if !strings.Contains(rest, "/") {
		switch r.Method {
		case http.MethodGet:
			h.get(w, r, rest)
		case http.MethodDelete:
			h.delete(w, r, rest)
		default:
			WriteError(w, r.Context(), http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		}
		return
	}

	// /budgets/{id}/months/{month}
	parts := strings.Split(rest, "/")
	if len(parts) != 3 || parts[1] != "months" {
		WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "The requested resource was not found")
		return
	}
	month, err := strconv.Atoi(parts[2])
	if err != nil || month < 1 || month > 12 {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeInvalidMonth, "Month must be an integer between 1 and 12")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getMonth(w, r, parts[0], month)
	case http.MethodPut:
		h.putMonth(w, r, parts[0], month)
	default:
		WriteError(w, r.Context(), http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
	}
}

// create handles POST /budgets.
func (h *BudgetHandlers) create(w http.ResponseWriter, r *http.Request) {
	var req CreateBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}

	if strings.TrimSpace(req.HouseholdID) == "" {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "household_id is required")
		return
	}
	name, err := validate.String(req.Name, validate.NameConstraints)
	if err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "Budget name must be 1-120 characters")
		return
	}
	if req.Year < 2000 || req.Year > time.Now().UTC().Year()+1 {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "Year is out of range")
		return
	}

	b := budget.New(req.HouseholdID, name, req.Year)

	apiCallID := middleware.GetAPICallID(r.Context())
	err = runInTx(r.Context(), h.db, func(tx *sql.Tx) error {
		if err := h.budgets.Insert(r.Context(), tx, b); err != nil {
			return err
		}
		return h.engine.TrackChanges(r.Context(), tx, apiCallID,
			[]audit.Record{b}, nil, nil)
	})
	if err != nil {
		writeTxError(w, r, h.logger, err, "failed to create budget")
		return
	}

	WriteJSON(w, http.StatusCreated, BudgetResponse{Budget: b})
}

// get handles GET /budgets/{id}.
func (h *BudgetHandlers) get(w http.ResponseWriter, r *http.Request, id string) {
	b, err := h.budgets.GetByID(r.Context(), h.db, id)
	if err != nil {
		if errors.Is(err, budget.ErrNotFound) {
			WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "Budget not found")
			return
		}
		h.logger.Error("failed to load budget", "error", err, "budget_id", id)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to load budget")
		return
	}
	WriteJSON(w, http.StatusOK, BudgetResponse{Budget: b})
}

// delete handles DELETE /budgets/{id} (soft delete).
func (h *BudgetHandlers) delete(w http.ResponseWriter, r *http.Request, id string) {
	b, err := h.budgets.GetByID(r.Context(), h.db, id)
	if err != nil {
		if errors.Is(err, budget.ErrNotFound) {
			WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "Budget not found")
			return
		}
		h.logger.Error("failed to load budget", "error", err, "budget_id", id)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to load budget")
		return
	}

	apiCallID := middleware.GetAPICallID(r.Context())
	err = runInTx(r.Context(), h.db, func(tx *sql.Tx) error {
		return h.engine.TrackChanges(r.Context(), tx, apiCallID,
			nil, nil, []audit.Record{b})
	})
	if err != nil {
		writeTxError(w, r, h.logger, err, "failed to delete budget")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// getMonth handles GET /budgets/{id}/months/{month}.
func (h *BudgetHandlers) getMonth(w http.ResponseWriter, r *http.Request, budgetID string, month int) {
	m, err := h.budgets.GetMonth(r.Context(), h.db, budgetID, month)
	if err != nil {
		if errors.Is(err, budget.ErrMonthNotFound) {
			WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "Budget month not found")
			return
		}
		h.logger.Error("failed to load budget month", "error", err, "budget_id", budgetID, "month", month)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to load budget month")
		return
	}
	WriteJSON(w, http.StatusOK, BudgetMonthResponse{Month: m})
}

// putMonth handles PUT /budgets/{id}/months/{month}. It upserts the month's
// planned amount. Months audit under their budget id, so the whole year of
// adjustments reads as one history.
func (h *BudgetHandlers) putMonth(w http.ResponseWriter, r *http.Request, budgetID string, month int) {
	var req PutBudgetMonthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}
	if req.PlannedCents < 0 {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeInvalidAmount, "planned_cents must not be negative")
		return
	}

	if _, err := h.budgets.GetByID(r.Context(), h.db, budgetID); err != nil {
		if errors.Is(err, budget.ErrNotFound) {
			WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "Budget not found")
			return
		}
		h.logger.Error("failed to load budget", "error", err, "budget_id", budgetID)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to load budget")
		return
	}

	apiCallID := middleware.GetAPICallID(r.Context())
	status := http.StatusOK

	m, err := h.budgets.GetMonth(r.Context(), h.db, budgetID, month)
	switch {
	case err == nil:
		m.SetPlannedCents(req.PlannedCents)
		err = runInTx(r.Context(), h.db, func(tx *sql.Tx) error {
			return h.engine.TrackChanges(r.Context(), tx, apiCallID,
				nil, []audit.Record{m}, nil)
		})
	case errors.Is(err, budget.ErrMonthNotFound):
		m = budget.NewMonth(budgetID, month, req.PlannedCents)
		status = http.StatusCreated
		err = runInTx(r.Context(), h.db, func(tx *sql.Tx) error {
			if err := h.budgets.InsertMonth(r.Context(), tx, m); err != nil {
				return err
			}
			return h.engine.TrackChanges(r.Context(), tx, apiCallID,
				[]audit.Record{m}, nil, nil)
		})
	default:
		h.logger.Error("failed to load budget month", "error", err, "budget_id", budgetID, "month", month)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to load budget month")
		return
	}
	if err != nil {
		writeTxError(w, r, h.logger, err, "failed to save budget month")
		return
	}

	WriteJSON(w, status, BudgetMonthResponse{Month: m})
}
