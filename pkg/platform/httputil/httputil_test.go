package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	dErrors "territorial/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "db failed"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "internal_error" {
			t.Fatalf("expected error code internal_error, got %q", body["error"])
		}
		if _, ok := body["error_description"]; ok {
			t.Fatalf("expected error_description to be omitted for internal errors")
		}
	})

	t.Run("uncoded error is internal", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, http.ErrHandlerTimeout)
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}
	})

	t.Run("self delete maps to forbidden", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeForbiddenSelfDelete, "administrators cannot delete their own account"))

		if w.Code != http.StatusForbidden {
			t.Fatalf("expected status %d, got %d", http.StatusForbidden, w.Code)
		}
		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "forbidden_self_delete" {
			t.Fatalf("expected forbidden_self_delete, got %q", body["error"])
		}
	})

	t.Run("bad request includes description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid input"))

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error_description"] != "invalid input" {
			t.Fatalf("expected error_description to be returned for bad request")
		}
	})
}

type pingRequest struct {
	Name string `json:"name"`
}

func (r *pingRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	return nil
}

func TestDecodeAndPrepare(t *testing.T) {
	logger := zap.NewNop()

	t.Run("valid body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/ping", strings.NewReader(`{"name":"north"}`))
		w := httptest.NewRecorder()
		req, ok := DecodeAndPrepare[pingRequest](w, r, logger, "req-1")
		if !ok {
			t.Fatalf("expected success, got status %d", w.Code)
		}
		if req.Name != "north" {
			t.Fatalf("unexpected name %q", req.Name)
		}
	})

	t.Run("validation failure writes 400", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/ping", strings.NewReader(`{"name":" "}`))
		w := httptest.NewRecorder()
		if _, ok := DecodeAndPrepare[pingRequest](w, r, logger, "req-2"); ok {
			t.Fatalf("expected failure")
		}
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("unknown fields rejected", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/ping", strings.NewReader(`{"name":"a","extra":1}`))
		w := httptest.NewRecorder()
		if _, ok := DecodeAndPrepare[pingRequest](w, r, logger, "req-3"); ok {
			t.Fatalf("expected failure")
		}
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("empty body rejected", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/ping", strings.NewReader(``))
		w := httptest.NewRecorder()
		if _, ok := DecodeAndPrepare[pingRequest](w, r, logger, "req-4"); ok {
			t.Fatalf("expected failure")
		}
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})
}
