package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/onnwee/homebooks/internal/audit"
	"github.com/onnwee/homebooks/internal/auth"
	"github.com/onnwee/homebooks/internal/household"
	"github.com/onnwee/homebooks/internal/middleware"
	"github.com/onnwee/homebooks/internal/user"
	"github.com/onnwee/homebooks/internal/validate"
)

// CreateHouseholdRequest represents the request body for creating a
// household together with its owning user.
type CreateHouseholdRequest struct {
	Name  string             `json:"name"`
	Owner CreateOwnerRequest `json:"owner"`
}

// CreateOwnerRequest is the nested owner payload of CreateHouseholdRequest.
type CreateOwnerRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

// UpdateHouseholdRequest represents the request body for renaming a household.
type UpdateHouseholdRequest struct {
	Name *string `json:"name,omitempty"`
}

// HouseholdResponse is the representation returned for household endpoints.
type HouseholdResponse struct {
	Household *household.Household `json:"household"`
	Owner     *user.User           `json:"owner,omitempty"`
}

// HouseholdHandlers holds dependencies for household HTTP handlers.
type HouseholdHandlers struct {
	db         *sql.DB
	households *household.Repository
	users      *user.Repository
	engine     *audit.Engine
	bcryptCost int
	logger     *slog.Logger
}

// NewHouseholdHandlers creates a new HouseholdHandlers instance.
func NewHouseholdHandlers(db *sql.DB, households *household.Repository, users *user.Repository, engine *audit.Engine, bcryptCost int, logger *slog.Logger) *HouseholdHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &HouseholdHandlers{
		db:         db,
		households: households,
		users:      users,
		engine:     engine,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// Collection handles /households.
func (h *HouseholdHandlers) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.create(w, r)
	default:
		WriteError(w, r.Context(), http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
	}
}

// Item handles /households/{id}.
func (h *HouseholdHandlers) Item(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/households/")
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

// create handles POST /households. The household and its owning user are
// inserted and audited in one transaction.
func (h *HouseholdHandlers) create(w http.ResponseWriter, r *http.Request) {
	var req CreateHouseholdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}

	name, err := validate.String(req.Name, validate.NameConstraints)
	if err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "Household name must be 1-120 characters")
		return
	}
	email, err := validate.Email(req.Owner.Email)
	if err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "A valid owner email is required")
		return
	}
	if len(req.Owner.Password) < 8 {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "Password must be at least 8 characters")
		return
	}

	if _, err := h.users.GetByEmail(r.Context(), h.db, email); err == nil {
		WriteError(w, r.Context(), http.StatusConflict, ErrCodeDuplicateEmail, "A user with this email already exists")
		return
	} else if !errors.Is(err, user.ErrNotFound) {
		h.logger.Error("failed to check email uniqueness", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to create household")
		return
	}

	hash, err := auth.HashPassword(req.Owner.Password, h.bcryptCost)
	if err != nil {
		h.logger.Error("failed to hash password", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to create household")
		return
	}

	hh := household.New(name)
	owner := user.New(hh.ID, email, strings.TrimSpace(req.Owner.FirstName), strings.TrimSpace(req.Owner.LastName), hash)

	apiCallID := middleware.GetAPICallID(r.Context())
	err = runInTx(r.Context(), h.db, func(tx *sql.Tx) error {
		if err := h.households.Insert(r.Context(), tx, hh); err != nil {
			return err
		}
		if err := h.users.Insert(r.Context(), tx, owner); err != nil {
			return err
		}
		return h.engine.TrackChanges(r.Context(), tx, apiCallID,
			[]audit.Record{hh, owner}, nil, nil)
	})
	if err != nil {
		writeTxError(w, r, h.logger, err, "failed to create household")
		return
	}

	WriteJSON(w, http.StatusCreated, HouseholdResponse{Household: hh, Owner: owner})
}

// get handles GET /households/{id}.
func (h *HouseholdHandlers) get(w http.ResponseWriter, r *http.Request, id string) {
	hh, err := h.households.GetByID(r.Context(), h.db, id)
	if err != nil {
		if errors.Is(err, household.ErrNotFound) {
			WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "Household not found")
			return
		}
		h.logger.Error("failed to load household", "error", err, "household_id", id)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to load household")
		return
	}
	WriteJSON(w, http.StatusOK, HouseholdResponse{Household: hh})
}

// update handles PATCH /households/{id}.
func (h *HouseholdHandlers) update(w http.ResponseWriter, r *http.Request, id string) {
	var req UpdateHouseholdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}

	hh, err := h.households.GetByID(r.Context(), h.db, id)
	if err != nil {
		if errors.Is(err, household.ErrNotFound) {
			WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "Household not found")
			return
		}
		h.logger.Error("failed to load household", "error", err, "household_id", id)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to load household")
		return
	}

	if req.Name != nil {
		name, err := validate.String(*req.Name, validate.NameConstraints)
		if err != nil {
			WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "Household name must be 1-120 characters")
			return
		}
		hh.SetName(name)
	}

	apiCallID := middleware.GetAPICallID(r.Context())
	err = runInTx(r.Context(), h.db, func(tx *sql.Tx) error {
		return h.engine.TrackChanges(r.Context(), tx, apiCallID,
			nil, []audit.Record{hh}, nil)
	})
	if err != nil {
		writeTxError(w, r, h.logger, err, "failed to update household")
		return
	}

	WriteJSON(w, http.StatusOK, HouseholdResponse{Household: hh})
}

// delete handles DELETE /households/{id} (soft delete).
func (h *HouseholdHandlers) delete(w http.ResponseWriter, r *http.Request, id string) {
	hh, err := h.households.GetByID(r.Context(), h.db, id)
	if err != nil {
		if errors.Is(err, household.ErrNotFound) {
			WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "Household not found")
			return
		}
		h.logger.Error("failed to load household", "error", err, "household_id", id)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to load household")
		return
	}

	apiCallID := middleware.GetAPICallID(r.Context())
	err = runInTx(r.Context(), h.db, func(tx *sql.Tx) error {
		return h.engine.TrackChanges(r.Context(), tx, apiCallID,
			nil, nil, []audit.Record{hh})
	})
	if err != nil {
		writeTxError(w, r, h.logger, err, "failed to delete household")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
