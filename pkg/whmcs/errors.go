package whmcs

import (
	"errors"
	"fmt"
)

// Code is the machine-readable class of a failed API call.
type Code string

const (
	CodeNotConfigured Code = "NOT_CONFIGURED"
	CodeTransport     Code = "TRANSPORT_ERROR"
	CodeHTTP          Code = "HTTP_ERROR"
	CodeParse         Code = "PARSE_ERROR"
	CodeAPI           Code = "API_ERROR"
)

// ErrNotConfigured is wrapped by every NOT_CONFIGURED failure.
var ErrNotConfigured = errors.New("WHMCS API is not configured. Please set API URL, Identifier, and Secret")

// Error is the single failure contract of the API client.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	// Status is the HTTP status for HTTP_ERROR failures.
	Status int   `json:"status,omitempty"`
	Err    error `json:"-"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("whmcs %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// AsError extracts an *Error from err.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsCode reports whether err is an *Error with the given code.
func IsCode(err error, code Code) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Code == code
}
