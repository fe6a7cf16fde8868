package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"bikeshare/internal/repository"
	"bikeshare/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrRideNotFound),
		errors.Is(err, service.ErrBikeNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidRiderID),
		errors.Is(err, service.ErrInvalidBikeID),
		errors.Is(err, service.ErrInvalidRideID),
		errors.Is(err, service.ErrInvalidLocation),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidHour),
		errors.Is(err, service.ErrInvalidTimeRange):
		return http.StatusBadRequest

	// Payment required
	case errors.Is(err, service.ErrInsufficientBalance):
		return http.StatusPaymentRequired

	// Conflict errors
	case errors.Is(err, service.ErrRideAlreadyActive),
		errors.Is(err, service.ErrBikeUnavailable),
		errors.Is(err, service.ErrRideNotActive),
		errors.Is(err, service.ErrRideBusy),
		errors.Is(err, service.ErrRiderExists),
		errors.Is(err, service.ErrInvalidStatusTransition):
		return http.StatusConflict

	// Forbidden/Business rule errors
	case errors.Is(err, service.ErrRideNotOwned):
		return http.StatusForbidden

	// Service unavailable
	case errors.Is(err, service.ErrNoPricingConfig):
		return http.StatusServiceUnavailable

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
