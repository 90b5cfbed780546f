package utils

import (
	"errors"
	"fmt"
)

// Sentinel errors for the forecasting pipeline. Handlers map these to HTTP
// status codes; everything else is treated as an internal fault.
var (
	// ErrNoData indicates the requested dimension filter matched no sales rows.
	ErrNoData = errors.New("no sales data found")
	// ErrInsufficientHistory indicates fewer than the minimum number of
	// aggregated periods required to fit any model.
	ErrInsufficientHistory = errors.New("not enough historical data for forecasting")
	// ErrUnknownModel indicates an unrecognized model selector.
	ErrUnknownModel = errors.New("unknown model type")
)

// ValidationError represents an error occurring during request validation.
type ValidationError struct {
	Message string
}

// Error returns the error message string.
func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a new ValidationError with a specific message.
func NewValidationError(message string) error {
	return &ValidationError{
		Message: message,
	}
}

// NewValidationErrorf creates a new ValidationError with a formatted message.
func NewValidationErrorf(format string, args ...interface{}) error {
	return &ValidationError{
		Message: fmt.Sprintf(format, args...),
	}
}

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
