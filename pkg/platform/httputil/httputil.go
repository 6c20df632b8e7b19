// Package httputil maps domain errors onto the JSON error contract and keeps
// response writing in one place.
package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	dErrors "atrium/pkg/domain-errors"
)

// ErrorResponse is the wire shape for all error replies.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
	Critical         bool   `json:"critical,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into a JSON error response.
// Internal errors omit the description so store/collaborator detail never
// leaks to clients. Critical dependency failures carry the critical flag so
// operators can distinguish a security gap from a routine outage.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	resp := ErrorResponse{Error: string(code), Critical: dErrors.IsCritical(err)}

	var derr *dErrors.Error
	if code != dErrors.CodeInternal && errors.As(err, &derr) {
		resp.ErrorDescription = derr.Message
	}

	WriteJSON(w, StatusFor(code), resp)
}

// StatusFor maps an error code to an HTTP status.
func StatusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeInvalidInput, dErrors.CodeBadRequest:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict, dErrors.CodeInvariantViolation:
		return http.StatusConflict
	case dErrors.CodeExpired, dErrors.CodeAlreadyUsed:
		return http.StatusGone
	case dErrors.CodeDependency:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// maxBodyBytes caps request bodies; nothing in this API needs more.
const maxBodyBytes = 1 << 20

// Decode reads a JSON request body into T, returning a coded error on
// malformed input.
func Decode[T any](r *http.Request) (T, error) {
	var v T
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return v, dErrors.New(dErrors.CodeBadRequest, "request body is required")
		}
		return v, dErrors.New(dErrors.CodeBadRequest, "invalid JSON body")
	}
	return v, nil
}
