// Package domainerrors provides coded errors for the registry domain.
//
// Services construct these at the point a precondition fails; stores return
// sentinel errors (pkg/platform/sentinel) which services translate here. The
// HTTP layer maps codes to statuses in exactly one place.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error for callers and the transport layer.
type Code string

const (
	// CodeUnauthorized: the caller lacks the role the operation requires, or
	// is not the issuer of the certificate it is acting on.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden: the caller is authenticated but the action is not
	// permitted for it.
	CodeForbidden Code = "forbidden"
	// CodeNotFound: issuer, earner, or certificate absent.
	CodeNotFound Code = "not_found"
	// CodeAlreadyAssigned: the role or registration is already held.
	CodeAlreadyAssigned Code = "already_assigned"
	// CodeRoleConflict: the identity would hold mutually exclusive roles, or
	// already owns outstanding certificates when becoming an issuer.
	CodeRoleConflict Code = "role_conflict"
	// CodeTransferBlocked: an ownership change that is neither mint nor burn.
	CodeTransferBlocked Code = "transfer_blocked"
	// CodeInvalidRecipient: the recipient fails issuance eligibility checks.
	CodeInvalidRecipient Code = "invalid_recipient"
	// CodeConflict: a uniqueness or state conflict outside the role taxonomy.
	CodeConflict Code = "conflict"
	// CodeInvalidInput: a domain primitive rejected external input.
	CodeInvalidInput Code = "invalid_input"
	// CodeValidation: a request failed validation.
	CodeValidation Code = "validation"
	// CodeBadRequest: the request is malformed at the transport level.
	CodeBadRequest Code = "bad_request"
	// CodeInvariantViolation: an aggregate rejected a state transition.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeInternal: unexpected infrastructure failure.
	CodeInternal Code = "internal_error"
)

// Error is a coded domain error. It wraps an optional cause for diagnostics
// while keeping the code as the contract callers branch on.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New constructs a coded error with no cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf constructs a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause. A nil cause yields
// nil so call sites can wrap unconditionally.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether err or any error in its chain carries the code.
func HasCode(err error, code Code) bool {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// Is is an alias of HasCode kept for call-site readability
// (dErrors.Is(err, dErrors.CodeNotFound)).
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf extracts the code from err, defaulting to CodeInternal for uncoded
// errors.
func CodeOf(err error) Code {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeInternal
}
