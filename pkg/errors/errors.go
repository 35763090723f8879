// SPDX-License-Identifier: Apache-2.0
// Package errors provides typed error handling with classified failure
// kinds for Ensemble.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
)

// ErrorCode classifies Ensemble errors for retry decisions and monitoring.
type ErrorCode string

const (
	// CodeInternal indicates an internal system error.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeRateLimit indicates the external backend rejected the call due
	// to rate limiting. Transient.
	CodeRateLimit ErrorCode = "RATE_LIMITED"

	// CodeTimeout indicates an external call exceeded its time limit. Transient.
	CodeTimeout ErrorCode = "TIMEOUT"

	// CodeServerError indicates a 5xx-equivalent backend failure. Transient.
	CodeServerError ErrorCode = "SERVER_ERROR"

	// CodeInvalidRequest indicates the request was malformed. Permanent.
	CodeInvalidRequest ErrorCode = "INVALID_REQUEST"

	// CodeUnauthorized indicates authentication failed. Permanent.
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"

	// CodeContentPolicy indicates the backend refused the content. Permanent.
	CodeContentPolicy ErrorCode = "CONTENT_POLICY"

	// CodeDuplicateMessage indicates a message id was appended twice.
	// Protocol error, fatal to the run.
	CodeDuplicateMessage ErrorCode = "DUPLICATE_MESSAGE"

	// CodeUnknownRole indicates a message was addressed to or published by
	// an unregistered role.
	CodeUnknownRole ErrorCode = "UNKNOWN_ROLE"

	// CodeNoApplicableAction indicates a role observed messages but no
	// dispatch entry matched. The caller treats this as idle.
	CodeNoApplicableAction ErrorCode = "NO_APPLICABLE_ACTION"

	// CodeRoundLimit indicates the round cap was reached before completion.
	CodeRoundLimit ErrorCode = "ROUND_LIMIT_EXCEEDED"

	// CodeMemoryError indicates a memory store failure.
	CodeMemoryError ErrorCode = "MEMORY_ERROR"

	// CodeLLMError indicates a completion provider error.
	CodeLLMError ErrorCode = "LLM_ERROR"

	// CodeToolFailure indicates a tool invocation failed.
	CodeToolFailure ErrorCode = "TOOL_FAILURE"

	// CodeContextLost indicates the context was cancelled mid-operation.
	CodeContextLost ErrorCode = "CONTEXT_LOST"
)

// EnsembleError is a typed error with classification and context.
// It implements the error interface and can be unwrapped with errors.As().
type EnsembleError struct {
	Code        ErrorCode
	Message     string
	Err         error
	Context     map[string]any
	Recoverable bool
}

// Error implements the error interface.
func (e *EnsembleError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements errors.Unwrap for error chain traversal.
func (e *EnsembleError) Unwrap() error {
	return e.Err
}

// MarshalJSON implements json.Marshaler for structured logging.
func (e *EnsembleError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Message     string         `json:"message"`
		Code        string         `json:"code"`
		Recoverable bool           `json:"recoverable"`
		Context     map[string]any `json:"context,omitempty"`
	}{
		Message:     e.Error(),
		Code:        string(e.Code),
		Recoverable: e.Recoverable,
		Context:     e.Context,
	})
}

// New creates a new EnsembleError with the given code, message, and cause.
// The Recoverable flag is derived from the code and can be overridden with
// WithRecoverable.
func New(code ErrorCode, msg string, cause error) *EnsembleError {
	return &EnsembleError{
		Code:        code,
		Message:     msg,
		Err:         cause,
		Context:     make(map[string]any),
		Recoverable: codeIsTransient(code),
	}
}

// WithContext adds a key-value pair to the error context.
// Returns the error for method chaining.
func (e *EnsembleError) WithContext(key string, value any) *EnsembleError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// WithRecoverable overrides whether the error can be retried.
// Returns the error for method chaining.
func (e *EnsembleError) WithRecoverable(recoverable bool) *EnsembleError {
	e.Recoverable = recoverable
	return e
}

// AsEnsembleError attempts to convert an error to an EnsembleError.
// Unknown errors are wrapped as CodeInternal.
func AsEnsembleError(err error) *EnsembleError {
	if err == nil {
		return nil
	}
	var ee *EnsembleError
	if stderrors.As(err, &ee) {
		return ee
	}
	return New(CodeInternal, "wrapped error", err)
}

// IsTransient reports whether err should be retried: it is transient when
// it is an EnsembleError with the Recoverable flag set. Unclassified errors
// are not retried.
func IsTransient(err error) bool {
	var ee *EnsembleError
	if stderrors.As(err, &ee) {
		return ee.Recoverable
	}
	return false
}

// CodeOf returns the error code of err, or CodeInternal for unclassified
// errors.
func CodeOf(err error) ErrorCode {
	var ee *EnsembleError
	if stderrors.As(err, &ee) {
		return ee.Code
	}
	return CodeInternal
}

// codeIsTransient maps codes to their default retry classification.
func codeIsTransient(code ErrorCode) bool {
	switch code {
	case CodeRateLimit, CodeTimeout, CodeServerError:
		return true
	default:
		return false
	}
}
