// SPDX-License-Identifier: Apache-2.0
// Package errors provides typed error handling with rich context for Ember.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
)

// ErrorCode classifies Ember errors for logging, metrics and CLI hints.
type ErrorCode string

const (
	// CodeInternal indicates an internal system error.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeInvalidInput indicates the input or configuration was invalid.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeNotFound indicates a resource was not found.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeLLMError indicates an LLM provider error.
	CodeLLMError ErrorCode = "LLM_ERROR"

	// CodeStoreError indicates an identity store error.
	CodeStoreError ErrorCode = "STORE_ERROR"

	// CodeEmptySource indicates the seed source returned no content.
	CodeEmptySource ErrorCode = "EMPTY_SOURCE"

	// CodeEmptyResponse indicates the reasoning backend returned no content.
	CodeEmptyResponse ErrorCode = "EMPTY_RESPONSE"

	// CodeParseError indicates the reasoning response was not a JSON object.
	CodeParseError ErrorCode = "PARSE_ERROR"

	// CodeStoreInconsistency indicates the store reported an identity it could not load.
	CodeStoreInconsistency ErrorCode = "STORE_INCONSISTENCY"

	// CodePersistError indicates the store rejected a newly generated identity.
	CodePersistError ErrorCode = "PERSIST_ERROR"
)

// failureCodes are the terminal outcomes of a discovery run.
var failureCodes = map[ErrorCode]bool{
	CodeEmptySource:        true,
	CodeEmptyResponse:      true,
	CodeParseError:         true,
	CodeStoreInconsistency: true,
	CodePersistError:       true,
}

// EmberError is a typed error with rich context for observability.
// It implements the error interface and can be unwrapped with errors.As().
type EmberError struct {
	Code        ErrorCode
	Message     string
	Err         error
	Context     map[string]interface{}
	Attributes  map[string]string
	Recoverable bool
}

// Error implements the error interface.
func (e *EmberError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements errors.Unwrap for error chain traversal.
func (e *EmberError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an EmberError carrying the same code.
func (e *EmberError) Is(target error) bool {
	t, ok := target.(*EmberError)
	if !ok {
		return false
	}
	return t.Code == e.Code && t.Message == ""
}

// MarshalJSON implements json.Marshaler for structured logging.
func (e *EmberError) MarshalJSON() ([]byte, error) {
	out := struct {
		Message     string                 `json:"message"`
		Code        string                 `json:"code"`
		Err         string                 `json:"error,omitempty"`
		Recoverable bool                   `json:"recoverable"`
		Context     map[string]interface{} `json:"context,omitempty"`
		Attributes  map[string]string      `json:"attributes,omitempty"`
	}{
		Message:     e.Error(),
		Code:        string(e.Code),
		Recoverable: e.Recoverable,
		Context:     e.Context,
		Attributes:  e.Attributes,
	}
	if e.Err != nil {
		out.Err = e.Err.Error()
	}
	return json.Marshal(out)
}

// New creates a new EmberError with the given code, message, and cause.
func New(code ErrorCode, msg string, cause error) *EmberError {
	return &EmberError{
		Code:       code,
		Message:    msg,
		Err:        cause,
		Context:    make(map[string]interface{}),
		Attributes: make(map[string]string),
	}
}

// Code returns a bare error that matches any EmberError with the same code
// under errors.Is.
func Code(code ErrorCode) error {
	return &EmberError{Code: code}
}

// WithContext adds a key-value pair to the error context.
// Returns the error for method chaining.
func (e *EmberError) WithContext(key string, value interface{}) *EmberError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithAttribute adds a string attribute for OTEL traces.
// Returns the error for method chaining.
func (e *EmberError) WithAttribute(key, value string) *EmberError {
	if e.Attributes == nil {
		e.Attributes = make(map[string]string)
	}
	e.Attributes[key] = value
	return e
}

// WithRecoverable sets whether the error can be recovered from.
// Returns the error for method chaining.
func (e *EmberError) WithRecoverable(recoverable bool) *EmberError {
	e.Recoverable = recoverable
	return e
}

// AsEmberError attempts to convert an error to an EmberError.
// Returns the error as EmberError if it is one, or wraps it otherwise.
func AsEmberError(err error) *EmberError {
	if err == nil {
		return nil
	}
	var ee *EmberError
	if stderrors.As(err, &ee) {
		return ee
	}
	return New(CodeInternal, "wrapped error", err)
}

// IsFailure reports whether err is one of the discovery failure outcomes
// rather than a fault propagated from a source, reasoner or store.
func IsFailure(err error) bool {
	var ee *EmberError
	if !stderrors.As(err, &ee) {
		return false
	}
	return failureCodes[ee.Code]
}

// CodeOf returns the code of the first EmberError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var ee *EmberError
	if stderrors.As(err, &ee) {
		return ee.Code
	}
	return ""
}

// RecoverableString returns "true" or "false" as a string for observability.
func (e *EmberError) RecoverableString() string {
	if e.Recoverable {
		return "true"
	}
	return "false"
}
