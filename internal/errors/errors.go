package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

/**
 * Custom error types for the BOLL capture worker
 *
 * Setup errors are fatal; capture and OCR errors end one cycle;
 * publish errors are logged and ignored.
 */

// ErrorCode enum for structured error handling
type ErrorCode string

const (
	// Startup errors
	ErrorSetupFailed   ErrorCode = "SETUP_FAILED"
	ErrorInvalidConfig ErrorCode = "INVALID_CONFIG"

	// Per-cycle errors
	ErrorCaptureFailed ErrorCode = "CAPTURE_FAILED"
	ErrorOCRFailed     ErrorCode = "OCR_FAILED"

	// Output errors
	ErrorPublishFailed ErrorCode = "PUBLISH_FAILED"
)

// ProcessingError represents a structured worker error
type ProcessingError struct {
	Code      ErrorCode
	Message   string
	CycleID   string
	Timestamp time.Time
	Details   map[string]interface{}
	Cause     error
}

func (e *ProcessingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ProcessingError) Unwrap() error {
	return e.Cause
}

// Fatal reports whether the error should stop the process
func (e *ProcessingError) Fatal() bool {
	return e.Code == ErrorSetupFailed || e.Code == ErrorInvalidConfig
}

// Factory functions for common errors

func NewSetupFailedError(component string, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorSetupFailed,
		Message:   fmt.Sprintf("Failed to initialize %s", component),
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"component": component,
		},
		Cause: cause,
	}
}

func NewInvalidConfigError(cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorInvalidConfig,
		Message:   "Invalid configuration",
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

func NewCaptureFailedError(cycleID string, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorCaptureFailed,
		Message:   "Failed to capture frame",
		CycleID:   cycleID,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

func NewOCRFailedError(cycleID string, mode string, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorOCRFailed,
		Message:   fmt.Sprintf("OCR failed in mode: %s", mode),
		CycleID:   cycleID,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"ocr_mode": mode,
		},
		Cause: cause,
	}
}

func NewPublishFailedError(cycleID string, sink string, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorPublishFailed,
		Message:   fmt.Sprintf("Failed to publish reading to %s", sink),
		CycleID:   cycleID,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"sink": sink,
		},
		Cause: cause,
	}
}

// ToMap converts error to map for structured logging
func (e *ProcessingError) ToMap() map[string]interface{} {
	result := map[string]interface{}{
		"error_code": string(e.Code),
		"message":    e.Message,
		"timestamp":  e.Timestamp,
	}

	if e.CycleID != "" {
		result["cycle_id"] = e.CycleID
	}

	for k, v := range e.Details {
		result[k] = v
	}

	if e.Cause != nil {
		result["cause"] = e.Cause.Error()
	}

	return result
}

// As finds the first ProcessingError in err's chain
func As(err error, target **ProcessingError) bool {
	return stderrors.As(err, target)
}
