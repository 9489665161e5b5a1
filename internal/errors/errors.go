// Package errors provides a lightweight structured error type (ImageBuilderError)
// for category-based classification and retry semantics in HTTP adapters and CLI.
package errors

import (
	"fmt"
)

// ErrorCategory represents the category of an ImageBuilder error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// Repository access errors
	CategoryRepoNotFound ErrorCategory = "repo_not_found"
	CategoryAuth         ErrorCategory = "auth"
	CategoryGit          ErrorCategory = "git"

	// Local preparation errors
	CategoryWorkspace ErrorCategory = "workspace"

	// Container engine errors
	CategoryEngineUnavailable ErrorCategory = "engine_unavailable"
	CategoryBuild             ErrorCategory = "build"
	CategoryEngineAPI         ErrorCategory = "engine_api"

	// Runtime and infrastructure errors
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// ImageBuilderError is a structured error with category, retryability, and context
type ImageBuilderError struct {
	Category  ErrorCategory `json:"category"`
	Severity  ErrorSeverity `json:"severity"`
	Message   string        `json:"message"`
	Cause     error         `json:"cause,omitempty"`
	Retryable bool          `json:"retryable"`
	Context   ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for ImageBuilderError
type ContextFields map[string]any

// Error implements the error interface
func (e *ImageBuilderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *ImageBuilderError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *ImageBuilderError) WithContext(key string, value any) *ImageBuilderError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new ImageBuilderError
func New(category ErrorCategory, severity ErrorSeverity, message string) *ImageBuilderError {
	return &ImageBuilderError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Retryable: false,
	}
}

// Wrap creates a new ImageBuilderError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *ImageBuilderError {
	return &ImageBuilderError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: false,
	}
}

// Retryable creates a new retryable ImageBuilderError
func Retryable(category ErrorCategory, severity ErrorSeverity, message string) *ImageBuilderError {
	return &ImageBuilderError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Retryable: true,
	}
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if ibe, ok := err.(*ImageBuilderError); ok {
		return ibe.Category == category
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	if ibe, ok := err.(*ImageBuilderError); ok {
		return ibe.Retryable
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not an ImageBuilderError
func GetCategory(err error) ErrorCategory {
	if ibe, ok := err.(*ImageBuilderError); ok {
		return ibe.Category
	}
	return CategoryInternal
}

// ValidationError creates a new validation error (400 Bad Request)
func ValidationError(message string) *ImageBuilderError {
	return &ImageBuilderError{
		Category:  CategoryValidation,
		Severity:  SeverityWarning,
		Message:   message,
		Retryable: false,
	}
}
