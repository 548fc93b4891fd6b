// Package httputil holds the JSON response and request helpers shared by every handler.
package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	dErrors "territorial/pkg/domain-errors"
)

const maxBodyBytes = 1 << 20

// Validatable is implemented by request DTOs that normalize and validate themselves.
type Validatable interface {
	Validate() error
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates err into the JSON envelope. Errors without a domain code
// are reported as internal errors; internal errors never expose a description.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeInternal
	description := ""
	if de, ok := dErrors.As(err); ok {
		code = de.Code
		description = de.Message
	}
	if code == dErrors.CodeInternal || code == dErrors.CodeContention {
		description = ""
	}
	WriteJSON(w, dErrors.HTTPStatus(code), ErrorResponse{
		Error:            string(code),
		ErrorDescription: description,
	})
}

// Decode reads a JSON body into T, rejecting unknown fields and oversized bodies.
func Decode[T any](r *http.Request) (*T, error) {
	var req T
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, dErrors.New(dErrors.CodeBadRequest, "request body is required")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid JSON body")
	}
	return &req, nil
}

// DecodeAndPrepare decodes and validates the body. On failure it writes the error
// response and returns false; handlers return immediately.
func DecodeAndPrepare[T any, PT interface {
	*T
	Validatable
}](w http.ResponseWriter, r *http.Request, logger *zap.Logger, requestID string) (PT, bool) {
	req, err := Decode[T](r)
	if err != nil {
		logger.Warn("failed to decode request",
			zap.String("request_id", requestID),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		WriteError(w, err)
		return nil, false
	}
	prepared := PT(req)
	if err := prepared.Validate(); err != nil {
		logger.Warn("invalid request",
			zap.String("request_id", requestID),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		WriteError(w, err)
		return nil, false
	}
	return prepared, true
}
