package httputil

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	dErrors "registrar/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "db failed"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}

		var body map[string]any
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
		WriteError(w, io.ErrUnexpectedEOF)
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}
	})

	t.Run("validation includes description and fields", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.Validation("registration form is invalid", map[string]string{"first_name": "first name is required"}))

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}

		var body ErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body.Error != "validation" {
			t.Fatalf("expected error code validation, got %q", body.Error)
		}
		if body.ErrorDescription != "registration form is invalid" {
			t.Fatalf("expected error_description to be returned for validation")
		}
		if body.Fields["first_name"] == "" {
			t.Fatalf("expected field errors, got %v", body.Fields)
		}
	})

	t.Run("throttled sets retry-after", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.Throttled(42*time.Second))
		if w.Code != http.StatusTooManyRequests {
			t.Fatalf("expected status %d, got %d", http.StatusTooManyRequests, w.Code)
		}
		if got := w.Header().Get("Retry-After"); got != "42" {
			t.Fatalf("expected Retry-After 42, got %q", got)
		}
	})
}

type codeRequest struct {
	Code string `json:"code"`
}

func (r *codeRequest) Validate() error {
	r.Code = strings.TrimSpace(r.Code)
	if r.Code == "" {
		return dErrors.Validation("code is required", map[string]string{"code": "code is required"})
	}
	return nil
}

func TestDecodeAndPrepare(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("decodes and validates", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"code":" 123456 "}`))
		w := httptest.NewRecorder()
		req, ok := DecodeAndPrepare[codeRequest](w, r, logger, r.Context(), "req-1")
		if !ok {
			t.Fatalf("expected ok, got status %d", w.Code)
		}
		if req.Code != "123456" {
			t.Fatalf("expected trimmed code, got %q", req.Code)
		}
	})

	t.Run("malformed json is a validation error", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"code":`))
		w := httptest.NewRecorder()
		if _, ok := DecodeAndPrepare[codeRequest](w, r, logger, r.Context(), "req-1"); ok {
			t.Fatalf("expected failure")
		}
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"code":"1","extra":true}`))
		w := httptest.NewRecorder()
		if _, ok := DecodeAndPrepare[codeRequest](w, r, logger, r.Context(), "req-1"); ok {
			t.Fatalf("expected failure")
		}
	})

	t.Run("empty body runs validation", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", http.NoBody)
		w := httptest.NewRecorder()
		if _, ok := DecodeAndPrepare[codeRequest](w, r, logger, r.Context(), "req-1"); ok {
			t.Fatalf("expected failure")
		}
		var body ErrorResponse
		_ = json.NewDecoder(w.Body).Decode(&body)
		if body.Fields["code"] == "" {
			t.Fatalf("expected code field error, got %v", body.Fields)
		}
	})
}
