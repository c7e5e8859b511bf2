package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// newExpenseHandlersForValidation builds handlers with nil dependencies.
// Validation failures must short-circuit before any of them are touched.
func newExpenseHandlersForValidation() *ExpenseHandlers {
	return NewExpenseHandlers(nil, nil, nil, nil)
}

func decodeErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return resp.Error.Code
}

func TestExpenseCreateValidation(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "malformed json",
			body:       `{"household_id":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeBadRequest,
		},
		{
			name:       "missing household id",
			body:       `{"description":"Groceries","amount_cents":1450,"spent_on":"2026-03-01"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeValidation,
		},
		{
			name:       "empty description",
			body:       `{"household_id":"hh1","description":"","amount_cents":1450,"spent_on":"2026-03-01"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeValidation,
		},
		{
			name:       "zero amount",
			body:       `{"household_id":"hh1","description":"Groceries","amount_cents":0,"spent_on":"2026-03-01"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeInvalidAmount,
		},
		{
			name:       "negative amount",
			body:       `{"household_id":"hh1","description":"Groceries","amount_cents":-500,"spent_on":"2026-03-01"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeInvalidAmount,
		},
		{
			name:       "bad date",
			body:       `{"household_id":"hh1","description":"Groceries","amount_cents":1450,"spent_on":"03/01/2026"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeInvalidDate,
		},
	}

	h := newExpenseHandlersForValidation()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/expenses", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			h.Collection(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if code := decodeErrorCode(t, rec); code != tt.wantCode {
				t.Errorf("error code = %q, want %q", code, tt.wantCode)
			}
		})
	}
}

func TestExpenseListRequiresHouseholdID(t *testing.T) {
	h := newExpenseHandlersForValidation()
	req := httptest.NewRequest(http.MethodGet, "/expenses", nil)
	rec := httptest.NewRecorder()

	h.Collection(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestExpenseListRejectsBadLimit(t *testing.T) {
	h := newExpenseHandlersForValidation()
	for _, raw := range []string{"0", "-5", "abc"} {
		req := httptest.NewRequest(http.MethodGet, "/expenses?household_id=hh1&limit="+raw, nil)
		rec := httptest.NewRecorder()

		h.Collection(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("limit=%q: status = %d, want %d", raw, rec.Code, http.StatusBadRequest)
		}
	}
}

func TestExpenseCollectionMethodNotAllowed(t *testing.T) {
	h := newExpenseHandlersForValidation()
	req := httptest.NewRequest(http.MethodPut, "/expenses", nil)
	rec := httptest.NewRecorder()

	h.Collection(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestExpenseItemRejectsNestedPaths(t *testing.T) {
	h := newExpenseHandlersForValidation()
	for _, path := range []string{"/expenses/", "/expenses/abc/extra"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()

		h.Item(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("path %q: status = %d, want %d", path, rec.Code, http.StatusNotFound)
		}
	}
}
