package sforce

import (
	"errors"
	"fmt"
)

// Error taxonomy. Every error returned by the client wraps one of these, so
// callers can branch with errors.Is.
var (
	ErrConfiguration     = errors.New("configuration error")
	ErrMethodNotAllowed  = errors.New("method not allowed")
	ErrMissingParameter  = errors.New("missing parameter")
	ErrTypeMismatch      = errors.New("type mismatch")
	ErrInvalidRange      = errors.New("invalid range")
	ErrResourceNotFound  = errors.New("resource not found")
	ErrAPI               = errors.New("api error")
	ErrParse             = errors.New("parse error")
	ErrMissingRemoteID   = errors.New("missing remote id")
	ErrTimeout           = errors.New("request timed out")
	ErrAuthentication    = errors.New("authentication failed")
	ErrMissingAttribute  = errors.New("missing attribute")
	ErrTreeSourceUnknown = errors.New("unknown resource tree source")
)

// APIError describes a failed API call: a timeout, an unexpected status code or
// a vendor error payload.
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	Expected   int
	// Payload is the parsed error body (or its first element when the body is
	// a list). It is only set when it carries the resource's error key.
	Payload Payload
	Err     error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if errors.Is(e.Err, ErrTimeout) {
		return fmt.Sprintf("api call on %s : %s timed out", e.Method, e.URL)
	}

	if e.StatusCode == 0 && e.Err != nil {
		return fmt.Sprintf("api call on %s : %s failed: %v", e.Method, e.URL, e.Err)
	}

	msg := fmt.Sprintf("api call on %s : %s returned a status code %d, expected a %d",
		e.Method, e.URL, e.StatusCode, e.Expected)
	if e.Payload != nil {
		msg += fmt.Sprintf(" : %v", e.Payload)
	}

	return msg
}

// Unwrap allows errors.Is(err, ErrAPI) and errors.Is(err, ErrTimeout).
func (e *APIError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrAPI, e.Err}
	}

	return []error{ErrAPI}
}

// ParseError is returned when a response body that should be structured
// cannot be decoded.
type ParseError struct {
	Method string
	URL    string
	Text   string
	Err    error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("api call on %s : %s returned invalid json : %s", e.Method, e.URL, e.Text)
}

// Unwrap returns ErrParse and the decoder error.
func (e *ParseError) Unwrap() []error {
	return []error{ErrParse, e.Err}
}

// ErrorCode extracts the value stored under errorKey from a payload. Lists are
// inspected through their first element, the way vendors wrap error bodies.
func ErrorCode(payload Payload, errorKey string) (string, bool) {
	fields, ok := FirstFields(payload)
	if !ok {
		return "", false
	}

	value, ok := fields[errorKey]
	if !ok {
		return "", false
	}

	return fmt.Sprint(value), true
}

// IsNotFound reports whether err is a ResourceNotFound error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrResourceNotFound)
}

// IsTimeout reports whether err was caused by a transport timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// HasErrorCode reports whether err is an APIError whose payload carries code
// under errorKey.
func HasErrorCode(err error, errorKey, code string) bool {
	apiErr := &APIError{}
	if !errors.As(err, &apiErr) {
		return false
	}

	got, ok := ErrorCode(apiErr.Payload, errorKey)

	return ok && got == code
}
