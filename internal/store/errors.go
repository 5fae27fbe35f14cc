// Audiograph - Personal Music Listening Analytics
// Copyright 2026 Colin R. (colin-rod)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/colin-rod/audiograph-sub000

package store

import (
	"errors"
	"fmt"
)

// ErrorCode classifies store failures. The analytics engine branches on
// these codes: not_installed triggers a silent fallback to the local
// computation path, unauthorized is surfaced distinctly so callers can
// redirect to sign-in, transport is surfaced as-is and never auto-retried.
type ErrorCode string

const (
	// ErrCodeTransport means the store was unreachable or the query failed
	// at the connection level.
	ErrCodeTransport ErrorCode = "transport"

	// ErrCodeUnauthorized means the store rejected the call for
	// authorization reasons.
	ErrCodeUnauthorized ErrorCode = "unauthorized"

	// ErrCodeNotInstalled means the named-aggregation capability is not
	// installed on this store handle.
	ErrCodeNotInstalled ErrorCode = "not_installed"
)

// Error is a typed store failure carrying the classification code, the
// operation that failed, and the underlying cause.
type Error struct {
	Code ErrorCode
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("store: %s: %s", e.Op, e.Code)
	}
	return fmt.Sprintf("store: %s: %s: %v", e.Op, e.Code, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewTransportError wraps err as a transport failure for op.
func NewTransportError(op string, err error) *Error {
	return &Error{Code: ErrCodeTransport, Op: op, Err: err}
}

// NewUnauthorizedError wraps err as an authorization failure for op.
func NewUnauthorizedError(op string, err error) *Error {
	return &Error{Code: ErrCodeUnauthorized, Op: op, Err: err}
}

// NewNotInstalledError reports that the aggregation name is not available
// on this handle.
func NewNotInstalledError(op string) *Error {
	return &Error{Code: ErrCodeNotInstalled, Op: op}
}

// CodeOf extracts the error code from err, or "" when err is not a store
// error.
func CodeOf(err error) ErrorCode {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// IsNotInstalled reports whether err is a missing-aggregation failure.
func IsNotInstalled(err error) bool { return CodeOf(err) == ErrCodeNotInstalled }

// IsUnauthorized reports whether err is an authorization failure.
func IsUnauthorized(err error) bool { return CodeOf(err) == ErrCodeUnauthorized }

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool { return CodeOf(err) == ErrCodeTransport }
