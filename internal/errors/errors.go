// Package errors defines the structured API error shape shared by every
// HTTP handler, plus the predefined catalog the data endpoints map
// service errors onto.
package errors

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/render"
)

// APIError represents a structured API error response.
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// New creates a new APIError with the given parameters.
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewWithDetails creates a new APIError with additional details.
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// Predefined error types for common scenarios.
var (
	// 404 Not Found
	ErrDatasetNotLoaded = New(http.StatusNotFound, "DATASET_NOT_LOADED", "Dataset has not been loaded")
	ErrDatasetUnknown   = New(http.StatusNotFound, "DATASET_UNKNOWN", "Unknown dataset kind")

	// 409 Conflict
	ErrQuerySuperseded = New(http.StatusConflict, "QUERY_SUPERSEDED", "Query superseded by a newer one")

	// 429 Too Many Requests
	ErrRateLimitExceeded = New(http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Rate limit exceeded")

	// 500 Internal Server Error
	ErrInternalServer = New(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error")

	// 503 Service Unavailable
	ErrDatasetUnavailable = New(http.StatusServiceUnavailable, "DATASET_UNAVAILABLE", "Dataset source unavailable")

	// 504 Gateway Timeout
	ErrRequestTimeout = New(http.StatusGatewayTimeout, "REQUEST_TIMEOUT", "The request took too long to process")
)

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrValidation creates a validation error with field details.
func ErrValidation(field, message string) *APIError {
	return NewWithDetails(http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed", ValidationError{
		Field:   field,
		Message: message,
	})
}

// DatasetUnavailableError wraps a hard fetch failure so the rendering
// layer can show a clear "dataset unavailable" message.
func DatasetUnavailableError(err error) *APIError {
	return NewWithDetails(http.StatusServiceUnavailable, "DATASET_UNAVAILABLE", "Dataset source unavailable", err.Error())
}

// ErrorResponse represents a standard error response envelope.
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   *APIError `json:"error"`
}

// NewErrorResponse creates a new error response.
func NewErrorResponse(err *APIError) *ErrorResponse {
	return &ErrorResponse{
		Success: false,
		Error:   err,
	}
}

// Render implements the render.Renderer interface.
func (e *ErrorResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return e.Error.Render(w, r)
}

// WriteError writes an error response directly, for middleware running
// outside the chi render pipeline.
func WriteError(w http.ResponseWriter, err *APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode)
	json.NewEncoder(w).Encode(NewErrorResponse(err))
}
