// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package openai

import (
	"errors"
	"fmt"
)

// Kind classifies the outcome of a completion request.
type Kind int

const (
	KindSuccess Kind = iota
	// KindValidation: empty prompt, no call made.
	KindValidation
	// KindConfiguration: no credential resolved, no call made.
	KindConfiguration
	// KindHTTP: non-2xx status, with or without a parseable body.
	KindHTTP
	// KindMalformed: 2xx status but no choices[0].message.content.
	KindMalformed
	// KindNetwork: transport fault other than cancellation.
	KindNetwork
	// KindCancelled: the request was superseded or abandoned.
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "Success"
	case KindValidation:
		return "ValidationError"
	case KindConfiguration:
		return "ConfigurationError"
	case KindHTTP:
		return "HttpError"
	case KindMalformed:
		return "MalformedResponse"
	case KindNetwork:
		return "NetworkError"
	case KindCancelled:
		return "Cancelled"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Sentinel errors, one per failure kind, for errors.Is checks.
var (
	ErrValidation    = errors.New("empty prompt")
	ErrConfiguration = errors.New("OpenAI API key not configured")
	ErrHTTP          = errors.New("HTTP error")
	ErrMalformed     = errors.New("malformed response")
	ErrNetwork       = errors.New("network error")
	ErrCancelled     = errors.New("request cancelled")
)

func sentinel(k Kind) error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindConfiguration:
		return ErrConfiguration
	case KindHTTP:
		return ErrHTTP
	case KindMalformed:
		return ErrMalformed
	case KindNetwork:
		return ErrNetwork
	case KindCancelled:
		return ErrCancelled
	}
	return nil
}

// User-facing messages. Lower-level causes never appear in these.
const (
	MsgValidation    = "Please enter some text"
	MsgConfiguration = "Please set your OpenAI API key (OPENAI_API_KEY or cloud.openai_key)"
	MsgNetwork       = "Failed to get response from OpenAI"
	MsgMalformed     = "Unexpected response from OpenAI"
	MsgCancelled     = "Request cancelled"
)

// Result is the tagged outcome of Complete. Exactly one of Text (on success)
// or the failure fields is meaningful, according to Kind.
type Result struct {
	Kind Kind
	Text string

	// Status is the HTTP status, when a response was received.
	Status int
	// Message is safe to show to the user.
	Message string
	// Body is the raw (or compacted JSON) response body, for diagnostics.
	Body string
	// Cause is the underlying transport error. Logged, never shown.
	Cause error
}

// Success wraps completion text.
func Success(text string) Result {
	return Result{Kind: KindSuccess, Text: text}
}

// Fail builds a failure result with the given user-facing message.
func Fail(kind Kind, message string) Result {
	return Result{Kind: kind, Message: message}
}

// OK reports whether the result is a success.
func (r Result) OK() bool { return r.Kind == KindSuccess }

// Cancelled reports whether the request was cancelled.
func (r Result) Cancelled() bool { return r.Kind == KindCancelled }

// Err returns nil on success, otherwise a *Failure.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	return &Failure{Kind: r.Kind, Status: r.Status, Message: r.Message, Cause: r.Cause}
}

// Failure is the error form of a non-success Result.
type Failure struct {
	Kind    Kind
	Status  int
	Message string
	Cause   error
}

// Error implements the error interface. Only the user-facing message is
// included; Cause is reachable through errors.Unwrap.
func (f *Failure) Error() string {
	if f.Message == "" {
		return f.Kind.String()
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Unwrap returns the underlying transport error, if any.
func (f *Failure) Unwrap() error { return f.Cause }

// Is matches the sentinel error for the failure's kind.
func (f *Failure) Is(target error) bool {
	s := sentinel(f.Kind)
	return s != nil && target == s
}
