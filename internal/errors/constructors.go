package errors

import "fmt"

// Convenience functions for common error patterns. The message strings on
// request-path errors are part of the HTTP API contract and must stay stable.

// Config errors

func ConfigNotFound(path string) *ImageBuilderError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigRequired(field string) *ImageBuilderError {
	return New(CategoryConfig, SeverityFatal, "required configuration missing").
		WithContext("field", field)
}

// Request validation errors

func RequestNotJSON() *ImageBuilderError {
	return ValidationError("Request must be JSON")
}

func MissingRepoURL() *ImageBuilderError {
	return ValidationError("Missing repo_url")
}

func InvalidRepositoryURL(url string) *ImageBuilderError {
	return ValidationError("Invalid repository URL").
		WithContext("url", url)
}

// Repository access errors

func RepositoryNotFound(url string, cause error) *ImageBuilderError {
	return Wrap(cause, CategoryRepoNotFound, SeverityError,
		"Repository not found or private (needs access token)").
		WithContext("url", url)
}

func AuthenticationRequired(url string, cause error) *ImageBuilderError {
	return Wrap(cause, CategoryAuth, SeverityError,
		"Authentication failed - use HTTPS with token").
		WithContext("url", url)
}

func CloneFailed(detail string, cause error) *ImageBuilderError {
	return Wrap(cause, CategoryGit, SeverityError,
		fmt.Sprintf("Git clone failed: %s", detail))
}

// Workspace errors

func WorkspacePrepareFailed(path string, attempts int, cause error) *ImageBuilderError {
	return Wrap(cause, CategoryWorkspace, SeverityError,
		fmt.Sprintf("Failed to clean build directory after %d attempts: %s", attempts, path)).
		WithContext("path", path)
}

// Container engine errors

func EngineUnavailable() *ImageBuilderError {
	// Marked retryable: the daemon coming back is the usual resolution.
	return Retryable(CategoryEngineUnavailable, SeverityError, "Docker service unavailable")
}

func BuildFailed(detail string, cause error) *ImageBuilderError {
	return Wrap(cause, CategoryBuild, SeverityError,
		fmt.Sprintf("Docker build failed: %s", detail))
}

func EngineAPIError(cause error) *ImageBuilderError {
	// The underlying engine diagnostic is logged, never shown to callers.
	return Wrap(cause, CategoryEngineAPI, SeverityError, "Docker service error")
}

// Internal errors

func InternalError(message string, cause error) *ImageBuilderError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
