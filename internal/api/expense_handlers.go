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
	"github.com/onnwee/homebooks/internal/expense"
	"github.com/onnwee/homebooks/internal/middleware"
	"github.com/onnwee/homebooks/internal/validate"
)

// Expense listing bounds.
const (
	DefaultExpenseLimit = 50
	MaxExpenseLimit     = 200
)

// dateLayout is the wire format for calendar dates.
const dateLayout = "2006-01-02"

// CreateExpenseRequest represents the request body for creating an expense.
type CreateExpenseRequest struct {
	HouseholdID string  `json:"household_id"`
	Description string  `json:"description"`
	AmountCents int64   `json:"amount_cents"`
	SpentOn     string  `json:"spent_on"`
	VendorID    *string `json:"vendor_id,omitempty"`
	CategoryID  *string `json:"category_id,omitempty"`
	FundID      *string `json:"fund_id,omitempty"`
}

// UpdateExpenseRequest represents the request body for updating an expense.
// Absent fields are left unchanged.
type UpdateExpenseRequest struct {
	Description *string `json:"description,omitempty"`
	AmountCents *int64  `json:"amount_cents,omitempty"`
	SpentOn     *string `json:"spent_on,omitempty"`
	VendorID    *string `json:"vendor_id,omitempty"`
	CategoryID  *string `json:"category_id,omitempty"`
	FundID      *string `json:"fund_id,omitempty"`
}

// ExpenseResponse is the representation returned for expense endpoints.
type ExpenseResponse struct {
	Expense *expense.Expense `json:"expense"`
}

// ExpenseListResponse is the representation returned for expense listings.
type ExpenseListResponse struct {
	Expenses []*expense.Expense `json:"expenses"`
}

// ExpenseHandlers holds dependencies for expense HTTP handlers.
type ExpenseHandlers struct {
	db       *sql.DB
	expenses *expense.Repository
	engine   *audit.Engine
	logger   *slog.Logger
}

// NewExpenseHandlers creates a new ExpenseHandlers instance.
func NewExpenseHandlers(db *sql.DB, expenses *expense.Repository, engine *audit.Engine, logger *slog.Logger) *ExpenseHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExpenseHandlers{db: db, expenses: expenses, engine: engine, logger: logger}
}

// Collection handles /expenses.
func (h *ExpenseHandlers) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.create(w, r)
	case http.MethodGet:
		h.list(w, r)
	default:
		WriteError(w, r.Context(), http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
	}
}

// Item handles /expenses/{id}.
func (h *ExpenseHandlers) Item(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/expenses/")
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

// validateAmount rejects non-positive amounts. Amounts are integer cents;
// fractional currency never enters the system.
func validateAmount(cents int64) bool {
	return cents > 0
}

// create handles POST /expenses.
func (h *ExpenseHandlers) create(w http.ResponseWriter, r *http.Request) {
	var req CreateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}

	if strings.TrimSpace(req.HouseholdID) == "" {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "household_id is required")
		return
	}
	description, err := validate.String(req.Description, validate.DescriptionConstraints)
	if err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "Description must be 1-500 characters")
		return
	}
	if !validateAmount(req.AmountCents) {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeInvalidAmount, "amount_cents must be a positive integer")
		return
	}
	spentOn, err := time.Parse(dateLayout, req.SpentOn)
	if err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeInvalidDate, "spent_on must be a YYYY-MM-DD date")
		return
	}

	e := expense.New(req.HouseholdID, description, req.AmountCents, spentOn)
	e.VendorID = req.VendorID
	e.CategoryID = req.CategoryID
	e.FundID = req.FundID

	apiCallID := middleware.GetAPICallID(r.Context())
	err = runInTx(r.Context(), h.db, func(tx *sql.Tx) error {
		if err := h.expenses.Insert(r.Context(), tx, e); err != nil {
			return err
		}
		return h.engine.TrackChanges(r.Context(), tx, apiCallID,
			[]audit.Record{e}, nil, nil)
	})
	if err != nil {
		writeTxError(w, r, h.logger, err, "failed to create expense")
		return
	}

	WriteJSON(w, http.StatusCreated, ExpenseResponse{Expense: e})
}

// list handles GET /expenses?household_id=...&limit=...
func (h *ExpenseHandlers) list(w http.ResponseWriter, r *http.Request) {
	householdID := r.URL.Query().Get("household_id")
	if householdID == "" {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "household_id query parameter is required")
		return
	}

	limit := DefaultExpenseLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "limit must be a positive integer")
			return
		}
		if n > MaxExpenseLimit {
			n = MaxExpenseLimit
		}
		limit = n
	}

	expenses, err := h.expenses.ListByHousehold(r.Context(), h.db, householdID, limit)
	if err != nil {
		h.logger.Error("failed to list expenses", "error", err, "household_id", householdID)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to list expenses")
		return
	}

	WriteJSON(w, http.StatusOK, ExpenseListResponse{Expenses: expenses})
}

// get handles GET /expenses/{id}.
func (h *ExpenseHandlers) get(w http.ResponseWriter, r *http.Request, id string) {
	e, err := h.expenses.GetByID(r.Context(), h.db, id)
	if err != nil {
		if errors.Is(err, expense.ErrNotFound) {
			WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "Expense not found")
			return
		}
		h.logger.Error("failed to load expense", "error", err, "expense_id", id)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to load expense")
		return
	}
	WriteJSON(w, http.StatusOK, ExpenseResponse{Expense: e})
}

// update handles PATCH /expenses/{id}. Only the fields present in the body
// are applied, so the audit trail carries exactly the attributes that moved.
func (h *ExpenseHandlers) update(w http.ResponseWriter, r *http.Request, id string) {
	var req UpdateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}

	e, err := h.expenses.GetByID(r.Context(), h.db, id)
	if err != nil {
		if errors.Is(err, expense.ErrNotFound) {
			WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "Expense not found")
			return
		}
		h.logger.Error("failed to load expense", "error", err, "expense_id", id)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to load expense")
		return
	}

	if req.Description != nil {
		description, err := validate.String(*req.Description, validate.DescriptionConstraints)
		if err != nil {
			WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "Description must be 1-500 characters")
			return
		}
		e.SetDescription(description)
	}
	if req.AmountCents != nil {
		if !validateAmount(*req.AmountCents) {
			WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeInvalidAmount, "amount_cents must be a positive integer")
			return
		}
		e.SetAmountCents(*req.AmountCents)
	}
	if req.SpentOn != nil {
		spentOn, err := time.Parse(dateLayout, *req.SpentOn)
		if err != nil {
			WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeInvalidDate, "spent_on must be a YYYY-MM-DD date")
			return
		}
		e.SetSpentOn(spentOn)
	}
	if req.VendorID != nil {
		e.SetVendorID(req.VendorID)
	}
	if req.CategoryID != nil {
		e.SetCategoryID(req.CategoryID)
	}
	if req.FundID != nil {
		e.SetFundID(req.FundID)
	}

	apiCallID := middleware.GetAPICallID(r.Context())
	err = runInTx(r.Context(), h.db, func(tx *sql.Tx) error {
		return h.engine.TrackChanges(r.Context(), tx, apiCallID,
			nil, []audit.Record{e}, nil)
	})
	if err != nil {
		writeTxError(w, r, h.logger, err, "failed to update expense")
		return
	}

	WriteJSON(w, http.StatusOK, ExpenseResponse{Expense: e})
}

// delete handles DELETE /expenses/{id} (soft delete).
func (h *ExpenseHandlers) delete(w http.ResponseWriter, r *http.Request, id string) {
	e, err := h.expenses.GetByID(r.Context(), h.db, id)
	if err != nil {
		if errors.Is(err, expense.ErrNotFound) {
			WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "Expense not found")
			return
		}
		h.logger.Error("failed to load expense", "error", err, "expense_id", id)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to load expense")
		return
	}

	apiCallID := middleware.GetAPICallID(r.Context())
	err = runInTx(r.Context(), h.db, func(tx *sql.Tx) error {
		return h.engine.TrackChanges(r.Context(), tx, apiCallID,
			nil, nil, []audit.Record{e})
	})
	if err != nil {
		writeTxError(w, r, h.logger, err, "failed to delete expense")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
