// Package apperr holds the error kinds the HTTP layer translates into statuses.
package apperr

import "fmt"

// ValidationError is a missing or malformed input field. Maps to 400.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func Validation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// GatewayError is a failed or timed out payment gateway call. Message is safe
// to show to the customer; the caller may retry. Maps to 502.
type GatewayError struct {
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("payment gateway: %s: %v", e.Message, e.Err)
	}
	return "payment gateway: " + e.Message
}

func (e *GatewayError) Unwrap() error { return e.Err }

func Gateway(message string, err error) error {
	return &GatewayError{Message: message, Err: err}
}
