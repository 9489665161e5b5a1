package errors

import "net/http"

// HTTPStatusFor maps an error to the status code the build API returns.
// Validation faults are the caller's problem; everything else is a 500.
func HTTPStatusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}

	if ibe, ok := err.(*ImageBuilderError); ok {
		if ibe.Category == CategoryValidation {
			return http.StatusBadRequest
		}
		return http.StatusInternalServerError
	}

	return http.StatusInternalServerError
}

// UserMessage returns the message safe to expose in an HTTP error body.
// Classified errors carry user-actionable messages; anything unclassified
// is masked so internal diagnostics never leak to callers.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	if ibe, ok := err.(*ImageBuilderError); ok && ibe.Category != CategoryInternal {
		return ibe.Message
	}

	return "Internal server error"
}
