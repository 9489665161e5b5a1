// Package handlers contains the HTTP handlers for the ImageBuilder API.
//
// This package provides handlers for:
//   - Status and health endpoints (monitoring)
//   - The synchronous build endpoint
//   - Shared response helper functions
//
// Handlers answer JSON exclusively. Pipeline errors are translated to status
// codes and user-safe messages by the errors package adapters; response
// shapes live in the server/responses package.
package handlers
