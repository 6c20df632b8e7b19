// Package derrors defines the error taxonomy services speak.
//
// Stores return sentinel errors (pkg/platform/sentinel); services translate
// them into coded errors here so transports can map them uniformly. The
// Critical flag marks dependency failures that leave the system in a
// security-relevant inconsistent state (e.g. a delegation removed while its
// principal still exists) and must be surfaced prominently, never retried
// silently.
package derrors

import (
	"errors"
	"fmt"
)

// Code classifies an error for transport mapping and caller policy.
type Code string

const (
	// CodeInvalidInput marks malformed or missing input. Never retried.
	CodeInvalidInput Code = "invalid_input"
	// CodeBadRequest marks a structurally invalid request.
	CodeBadRequest Code = "bad_request"
	// CodeNotFound marks a missing invitation, delegation, or record.
	CodeNotFound Code = "not_found"
	// CodeExpired marks a token past its expiry. Ask for a new invitation.
	CodeExpired Code = "expired"
	// CodeAlreadyUsed marks a single-use token that was already consumed.
	CodeAlreadyUsed Code = "already_used"
	// CodeConflict marks a state conflict (duplicate pending invite, etc).
	CodeConflict Code = "conflict"
	// CodeUnauthorized marks missing or invalid credentials.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden marks an authenticated caller without the needed role.
	CodeForbidden Code = "forbidden"
	// CodeDependency marks an unreachable or erroring collaborator
	// (store, principal directory, mail). Retry may help unless Critical.
	CodeDependency Code = "dependency_failure"
	// CodeInvariantViolation marks a broken domain invariant.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeInternal marks everything else. Detail is suppressed at the edge.
	CodeInternal Code = "internal_error"
)

// Error is the coded error services return.
type Error struct {
	Code     Code
	Message  string
	Critical bool
	wrapped  error
}

func (e *Error) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.wrapped }

// New builds a coded error.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf builds a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, wrapped: err}
}

// MarkCritical flags err (wrapping it if needed) as a critical failure.
func MarkCritical(err error) error {
	if err == nil {
		return nil
	}
	var derr *Error
	if errors.As(err, &derr) {
		return &Error{Code: derr.Code, Message: derr.Message, Critical: true, wrapped: err}
	}
	return &Error{Code: CodeDependency, Message: err.Error(), Critical: true, wrapped: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var derr *Error
	if errors.As(err, &derr) {
		return derr.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var derr *Error
	if errors.As(err, &derr) {
		return derr.Code
	}
	return CodeInternal
}

// IsCritical reports whether err is flagged as a critical failure.
func IsCritical(err error) bool {
	var derr *Error
	if errors.As(err, &derr) {
		return derr.Critical
	}
	return false
}
