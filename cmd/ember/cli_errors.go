// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"

	"github.com/jllopis/ember/pkg/errors"
)

// CLIError wraps EmberError with CLI-specific formatting and hints.
type CLIError struct {
	*errors.EmberError
	Hint string
}

// NewCLIError creates a new CLI error.
func NewCLIError(ee *errors.EmberError, hint string) *CLIError {
	return &CLIError{
		EmberError: ee,
		Hint:       hint,
	}
}

// Error returns the formatted error message with hints.
func (e *CLIError) Error() string {
	if e.EmberError == nil {
		return "unknown error"
	}
	msg := e.EmberError.Error()
	if e.Hint != "" {
		msg += "\n  Hint: " + e.Hint
	}
	return msg
}

type cliErrorJSON struct {
	Code    errors.ErrorCode       `json:"code"`
	Message string                 `json:"message"`
	Cause   string                 `json:"cause,omitempty"`
	Hint    string                 `json:"hint,omitempty"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// PrintError prints the error with appropriate formatting.
func (e *CLIError) PrintError(w io.Writer, asJSON bool) {
	if asJSON {
		payload := cliErrorJSON{
			Code:    e.Code,
			Message: e.Message,
			Hint:    e.Hint,
			Context: e.Context,
		}
		if e.Err != nil {
			payload.Cause = e.Err.Error()
		}
		_ = json.NewEncoder(w).Encode(map[string]cliErrorJSON{"error": payload})
		return
	}

	fmt.Fprintf(w, "Error [%s] %s: %s\n", e.Code, FormatErrorCode(e.Code), e.Message)
	if e.Err != nil {
		fmt.Fprintf(w, "  Cause: %s\n", e.Err)
	}
	if e.Hint != "" {
		fmt.Fprintf(w, "  Hint: %s\n", e.Hint)
	}
}

// NewConfigError creates a configuration error with CLI hints.
func NewConfigError(err error, configPath string) *CLIError {
	ee := errors.New(errors.CodeInvalidInput, "configuration error", err).
		WithContext("config_path", configPath)

	hint := "check your configuration file syntax and --set values"
	if configPath != "" {
		hint = fmt.Sprintf("check %s for syntax errors", configPath)
	}
	return NewCLIError(ee, hint)
}

// toCLIError converts any command error into a CLIError carrying a hint
// for its code.
func toCLIError(err error, configPath string) *CLIError {
	var cliErr *CLIError
	if stderrors.As(err, &cliErr) {
		return cliErr
	}
	ee := errors.AsEmberError(err)
	return NewCLIError(ee, hintFor(ee.Code, configPath))
}

func hintFor(code errors.ErrorCode, configPath string) string {
	switch code {
	case errors.CodeEmptySource:
		return "the seed text is empty; point source.path (or source.url) at a file with content"
	case errors.CodeEmptyResponse:
		return "the model returned nothing; check llm.model and try again"
	case errors.CodeParseError:
		return "the model did not answer with a JSON object; try a model that supports JSON output"
	case errors.CodeStoreInconsistency:
		return "the store reports an identity it cannot read; inspect or remove the store file"
	case errors.CodePersistError:
		return "another process created the identity first; run 'ember show' to see it"
	case errors.CodeNotFound:
		return "run 'ember awaken' to create the identity"
	case errors.CodeInvalidInput:
		if configPath != "" {
			return fmt.Sprintf("check the values in %s", configPath)
		}
		return "run 'ember --help' for usage information"
	case errors.CodeLLMError:
		return "check llm.provider, llm.base_url and llm.api_key"
	case errors.CodeStoreError:
		return "check store.path and its permissions"
	default:
		return ""
	}
}

// FormatErrorCode returns a user-friendly name for error codes.
func FormatErrorCode(code errors.ErrorCode) string {
	switch code {
	case errors.CodeInternal:
		return "Internal Error"
	case errors.CodeInvalidInput:
		return "Invalid Input"
	case errors.CodeNotFound:
		return "Not Found"
	case errors.CodeLLMError:
		return "LLM Error"
	case errors.CodeStoreError:
		return "Store Error"
	case errors.CodeEmptySource:
		return "Empty Seed"
	case errors.CodeEmptyResponse:
		return "Empty Response"
	case errors.CodeParseError:
		return "Unparsable Response"
	case errors.CodeStoreInconsistency:
		return "Store Inconsistency"
	case errors.CodePersistError:
		return "Persist Rejected"
	default:
		return string(code)
	}
}
