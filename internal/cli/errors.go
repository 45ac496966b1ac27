// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error types and exit codes for quickask commands.
//
// Handlers always return errors and let main decide how to display them.
// A failure the submission session already alerted is returned as a
// ReportedError so it is not printed twice.

package cli

import (
	"errors"
	"fmt"

	"github.com/jeranaias/quickask/internal/openai"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitUsageError   = 2
	ExitConfigError  = 3
	ExitAPIError     = 4
	ExitNetworkError = 5
	ExitCancelled    = 130
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string
	Action  string
	Reason  string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s: %v", e.Command, e.Action, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Command, e.Action, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewCommandError creates a new command error.
func NewCommandError(command, action, reason string, err error) error {
	return &CommandError{Command: command, Action: action, Reason: reason, Err: err}
}

// UsageError is returned for malformed invocations.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string { return e.Message }

// ReportedError wraps a failure that has already been shown to the user.
type ReportedError struct {
	Code int
	Err  error
}

func (e *ReportedError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ReportedError) Unwrap() error { return e.Err }

// IsReported reports whether err was already displayed.
func IsReported(err error) bool {
	var r *ReportedError
	return errors.As(err, &r)
}

// =============================================================================
// EXIT CODE MAPPING
// =============================================================================

// ExitCodeForKind maps a completion outcome to a process exit code.
func ExitCodeForKind(kind openai.Kind) int {
	switch kind {
	case openai.KindSuccess:
		return ExitSuccess
	case openai.KindValidation:
		return ExitUsageError
	case openai.KindConfiguration:
		return ExitConfigError
	case openai.KindHTTP, openai.KindMalformed:
		return ExitAPIError
	case openai.KindNetwork:
		return ExitNetworkError
	case openai.KindCancelled:
		return ExitCancelled
	default:
		return ExitGeneralError
	}
}

// GetExitCode returns the exit code for err.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var reported *ReportedError
	if errors.As(err, &reported) {
		return reported.Code
	}
	var usage *UsageError
	if errors.As(err, &usage) {
		return ExitUsageError
	}
	var failure *openai.Failure
	if errors.As(err, &failure) {
		return ExitCodeForKind(failure.Kind)
	}
	return ExitGeneralError
}
