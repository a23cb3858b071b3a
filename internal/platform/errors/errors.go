// Package errors provides a structured error type with wrapping and metadata
package errors

// Always import the project errors package as perr (platform/errors)

import (
	stderrs "errors"
	"fmt"
)

// ErrorCode defines supported error codes used across the bridge
// Values are stable for wire compatibility; add sparingly
type ErrorCode uint16

const (
	// ErrorCodeUnknown is for unclassified errors
	ErrorCodeUnknown ErrorCode = iota

	// ErrorCodeNoAccount means no account is registered for the target vendor
	ErrorCodeNoAccount

	// ErrorCodeNotDeliverable means the vendor cannot carry the requested
	// operation (app not installed and no web fallback, or unsupported media kind)
	ErrorCodeNotDeliverable

	// ErrorCodeInvalidMedia means image or media bytes could not be used
	ErrorCodeInvalidMedia

	// ErrorCodeSchemeUnavailable means the external app launch failed
	ErrorCodeSchemeUnavailable

	// ErrorCodeSerialize means an outbound payload could not be encoded
	ErrorCodeSerialize

	// ErrorCodeConnectFailed means the remote API could not be reached
	ErrorCodeConnectFailed

	// ErrorCodeInvalidToken means the remote API rejected the access token
	ErrorCodeInvalidToken

	// ErrorCodeRemoteAPI is for remote API failures that match no known code table entry
	ErrorCodeRemoteAPI

	// ErrorCodeCancelled means the user cancelled the external flow
	ErrorCodeCancelled

	// ErrorCodeValidation is for validation failures (input data)
	ErrorCodeValidation

	// ErrorCodeSessionActive means a browser auth session is already running
	ErrorCodeSessionActive

	// ErrorCodeStore is for token store failures
	ErrorCodeStore
)

// Error is the structured error type with wrapping and metadata
// msg is human/developer facing; code is machine facing
// payload keeps the raw vendor response for diagnostics
type Error struct {
	orig    error
	msg     string
	code    ErrorCode
	payload map[string]any
}

// Error implements the error interface
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.orig != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.orig)
	}
	return e.msg
}

// Unwrap returns the wrapped error, if any
func (e *Error) Unwrap() error { return e.orig }

// Code returns the error code
func (e *Error) Code() ErrorCode { return e.code }

// Payload returns the attached raw vendor response, if any
func (e *Error) Payload() map[string]any { return e.payload }

// CodeOf extracts an ErrorCode from any error, defaulting to Unknown
func CodeOf(err error) ErrorCode {
	if e, ok := As(err); ok {
		return e.code
	}
	return ErrorCodeUnknown
}

// IsCode reports whether err has the given code
func IsCode(err error, code ErrorCode) bool { return CodeOf(err) == code }

// PayloadOf extracts the raw vendor response from any error, if attached
func PayloadOf(err error) map[string]any {
	if e, ok := As(err); ok {
		return e.payload
	}
	return nil
}

// As unwraps and returns (*Error, true) if err is one of ours
func As(err error) (*Error, bool) {
	var e *Error
	if stderrs.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Mutators (copy-on-write)

// WithPayload attaches the raw vendor response to an *Error (copy-on-write).
// If err isn't *Error, wraps it into one with Unknown code
func WithPayload(err error, payload map[string]any) error {
	if e, ok := As(err); ok {
		c := *e
		c.payload = payload
		return &c
	}
	return &Error{code: ErrorCodeUnknown, msg: err.Error(), payload: payload, orig: err}
}

// Constructors

// Newf returns a new *Error with code and formatted message
func Newf(code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...)}
}

// Wrap returns a new *Error that wraps orig with code and message
func Wrap(orig error, code ErrorCode, msg string) error {
	return &Error{code: code, msg: msg, orig: orig}
}

// WrapIf wraps only when err != nil (helper for 1-liners)
func WrapIf(err error, code ErrorCode, msg string) error {
	if err == nil {
		return nil
	}
	return Wrap(err, code, msg)
}

// Sugar

// NoAccountf returns a no-account error
func NoAccountf(format string, a ...any) error { return Newf(ErrorCodeNoAccount, format, a...) }

// NotDeliverablef returns a capability mismatch error
func NotDeliverablef(format string, a ...any) error { return Newf(ErrorCodeNotDeliverable, format, a...) }

// InvalidMediaf returns a media encoding error
func InvalidMediaf(format string, a ...any) error { return Newf(ErrorCodeInvalidMedia, format, a...) }

// Serializef returns a payload encoding error
func Serializef(format string, a ...any) error { return Newf(ErrorCodeSerialize, format, a...) }

// InvalidTokenf returns an expired/invalid token error
func InvalidTokenf(format string, a ...any) error { return Newf(ErrorCodeInvalidToken, format, a...) }

// RemoteAPIf returns an unclassified remote API error
func RemoteAPIf(format string, a ...any) error { return Newf(ErrorCodeRemoteAPI, format, a...) }

// Cancelledf returns a user-cancelled error
func Cancelledf(format string, a ...any) error { return Newf(ErrorCodeCancelled, format, a...) }

// Validationf returns a validation error
func Validationf(format string, a ...any) error { return Newf(ErrorCodeValidation, format, a...) }

// SessionActivef returns a busy browser-session error
func SessionActivef(format string, a ...any) error { return Newf(ErrorCodeSessionActive, format, a...) }

// Storef returns a token store error
func Storef(format string, a ...any) error { return Newf(ErrorCodeStore, format, a...) }
