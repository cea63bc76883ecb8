// errors.go - Structured error handling for API responses
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/panel-configurator/backend/internal/cart"
	"github.com/panel-configurator/backend/internal/catalog"
	"github.com/panel-configurator/backend/internal/design"
	"github.com/panel-configurator/backend/internal/export"
	"github.com/panel-configurator/backend/internal/input"
	"github.com/panel-configurator/backend/internal/layout"
	"github.com/panel-configurator/backend/internal/placement"
	"github.com/panel-configurator/backend/internal/session"
)

// APIError represents a structured API error response
type APIError struct {
	Status  int                 `json:"-"`
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Details string              `json:"details,omitempty"`
	Fields  []design.FieldError `json:"fields,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusBadRequest,
		Code:    "BAD_REQUEST",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewValidationError creates a 400 validation error for a specific field
func NewValidationError(field string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "VALIDATION_ERROR",
		Message: fmt.Sprintf("validation failed for field: %s", field),
		Fields:  []design.FieldError{{Field: field, Message: "invalid or missing"}},
	}
}

// NewFieldValidationError creates a 400 validation error carrying
// field-level messages for a form.
func NewFieldValidationError(fields []design.FieldError) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "VALIDATION_ERROR",
		Message: "design is not ready to be added to the project",
		Fields:  fields,
	}
}

// NewNotFoundError creates a 404 Not Found error
func NewNotFoundError(resource string, id string) *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// NewConflictError creates a 409 Conflict error
func NewConflictError(message string) *APIError {
	return &APIError{
		Status:  http.StatusConflict,
		Code:    "CONFLICT",
		Message: message,
	}
}

// NewInternalError creates a 500 Internal Server Error
func NewInternalError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL_ERROR",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewServiceUnavailableError creates a 503 Service Unavailable error
func NewServiceUnavailableError(message string) *APIError {
	return &APIError{
		Status:  http.StatusServiceUnavailable,
		Code:    "SERVICE_UNAVAILABLE",
		Message: message,
	}
}

// fromDomainError maps package sentinel errors to API errors. Unknown errors
// become 500s described by message.
func fromDomainError(message string, err error) *APIError {
	var apiErr *APIError
	var verr *design.ValidationError
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.As(err, &verr):
		return NewFieldValidationError(verr.Fields)
	case errors.Is(err, layout.ErrUnknownPanelType):
		return &APIError{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: "unknown panel type", Details: err.Error()}
	case errors.Is(err, catalog.ErrUnknownIcon):
		return &APIError{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: "unknown icon", Details: err.Error()}
	case errors.Is(err, session.ErrSessionNotFound):
		return &APIError{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: "session not found", Details: err.Error()}
	case errors.Is(err, cart.ErrIndexOutOfRange):
		return &APIError{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: "design not found", Details: err.Error()}
	case errors.Is(err, export.ErrExportNotFound):
		return &APIError{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: "export not found", Details: err.Error()}
	case errors.Is(err, session.ErrTooManySessions):
		return NewServiceUnavailableError(err.Error())
	case errors.Is(err, placement.ErrInvalidSnapshot):
		return NewConflictError(err.Error())
	case errors.Is(err, export.ErrUnsupportedFormat), errors.Is(err, input.ErrInvalidCommand):
		return NewBadRequestError(message, err)
	default:
		return NewInternalError(message, err)
	}
}

// ErrorHandler renders any error returned by a handler as JSON.
// Usage: e.HTTPErrorHandler = api.ErrorHandler
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var apiErr *APIError
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &apiErr):
	case errors.As(err, &httpErr):
		apiErr = &APIError{
			Status:  httpErr.Code,
			Code:    "HTTP_ERROR",
			Message: fmt.Sprintf("%v", httpErr.Message),
		}
	default:
		apiErr = &APIError{
			Status:  http.StatusInternalServerError,
			Code:    "UNKNOWN_ERROR",
			Message: "An unexpected error occurred",
			Details: err.Error(),
		}
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(apiErr.Status)
		return
	}
	_ = c.JSON(apiErr.Status, apiErr)
}

// RespondWithError is a helper to respond with an APIError
func RespondWithError(c echo.Context, err *APIError) error {
	return c.JSON(err.Status, err)
}
