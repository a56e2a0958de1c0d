package domain

import (
	"fmt"
	"time"
)

// GatewayError represents a standardized error response
type GatewayError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

// Error implements the error interface
func (e *GatewayError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes for different failure scenarios
const (
	ErrInvalidInput   = "INVALID_INPUT"
	ErrValidation     = "VALIDATION_ERROR"
	ErrFileRejected   = "FILE_REJECTED"
	ErrUpstream       = "PREDICTION_SERVICE_ERROR"
	ErrBusy           = "SUBMISSION_IN_FLIGHT"
	ErrInternalServer = "INTERNAL_SERVER_ERROR"
)

// FieldError represents a single form field that failed coercion or its
// range check.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   string `json:"value"`
}

// Error implements the error interface
func (e *FieldError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// NewGatewayError creates a new GatewayError with timestamp
func NewGatewayError(code, message, details, requestID string) *GatewayError {
	return &GatewayError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}

// NewFieldError creates a new FieldError
func NewFieldError(field, message, value string) *FieldError {
	return &FieldError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}
