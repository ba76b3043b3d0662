package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors
var (
	ErrNotFound   = errors.New("resource not found")
	ErrConflict   = errors.New("resource conflict")
	ErrBadRequest = errors.New("bad request")
	ErrForbidden  = errors.New("forbidden")

	// Business errors
	ErrInsufficientSeats  = errors.New("not enough seats available")
	ErrRideNotActive      = errors.New("ride is not active")
	ErrDuplicateBooking   = errors.New("passenger already has an active booking for this ride")
	ErrBookingNotActive   = errors.New("booking is not active")
	ErrRequestNotPending  = errors.New("ride request is not pending")
	ErrBlacklisted        = errors.New("user is blacklisted")
	ErrInvalidTransition  = errors.New("invalid state transition")
	ErrSelfReport         = errors.New("cannot report yourself")
	ErrInvalidRatingScore = errors.New("rating must be between 1 and 5")
)

// APIError represents a structured API error
type APIError struct {
	Code       string `json:"error"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
}

func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates a new API error
func NewAPIError(code, message string, statusCode int) *APIError {
	return &APIError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Common API errors
func NotFound(resource string) *APIError {
	return NewAPIError("not_found", fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

func Validation(message string) *APIError {
	return NewAPIError("validation_error", message, http.StatusBadRequest)
}

func Conflict(message string) *APIError {
	return NewAPIError("conflict", message, http.StatusConflict)
}

func Forbidden(message string) *APIError {
	return NewAPIError("forbidden", message, http.StatusForbidden)
}

func InternalError(message string) *APIError {
	return NewAPIError("internal_error", message, http.StatusInternalServerError)
}

func Blacklisted() *APIError {
	return NewAPIError("blacklisted", "account is temporarily blacklisted", http.StatusForbidden)
}

func InsufficientSeats(available int) *APIError {
	return NewAPIError("insufficient_seats",
		fmt.Sprintf("not enough seats available, only %d left", available), http.StatusConflict)
}

func RideNotActive() *APIError {
	return NewAPIError("ride_not_active", "ride no longer accepts bookings", http.StatusConflict)
}

func DuplicateBooking() *APIError {
	return NewAPIError("duplicate_booking", "you already have an active booking for this ride", http.StatusConflict)
}

func NotOwner(resource string) *APIError {
	return NewAPIError("forbidden", fmt.Sprintf("you do not own this %s", resource), http.StatusForbidden)
}

func InvalidTransition(from, to string) *APIError {
	return NewAPIError("invalid_transition", fmt.Sprintf("cannot transition from %s to %s", from, to), http.StatusConflict)
}
