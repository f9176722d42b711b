package apiclient

import (
	"errors"
	"fmt"
)

// Fallbacks used when the remote API does not describe its own failure.
const (
	DefaultCode    = 500
	DefaultError   = "Unknown Error"
	DefaultMessage = "An error occurred while processing the request."
)

var (
	ErrTokenExpired = errors.New("auth token expired")
)

// APIError is the normalized {code, error, message} shape every failed call
// is converted to, transport failures included.
type APIError struct {
	Code    int    `json:"code"`
	Err     string `json:"error"`
	Message string `json:"message"`

	cause error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s: %s", e.Code, e.Err, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.cause
}

func newAPIError(code int, errText, message string, cause error) *APIError {
	if code == 0 {
		code = DefaultCode
	}
	if errText == "" {
		errText = DefaultError
	}
	if message == "" {
		message = DefaultMessage
	}
	return &APIError{Code: code, Err: errText, Message: message, cause: cause}
}

// UserMessage returns the server-provided message carried by err, or
// fallback when the server gave none.
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" && apiErr.Message != DefaultMessage {
		return apiErr.Message
	}
	return fallback
}

// IsStatus reports whether err is an APIError with the given HTTP status.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}
