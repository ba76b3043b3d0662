package models

import (
	"time"
)

// Booking status constants
const (
	BookingStatusRequested = "requested"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
)

// Valid booking state transitions. Requested means seats are already
// reserved and the booking awaits driver confirmation; it does not mean
// the reservation is tentative. Cancelled is terminal.
var ValidBookingTransitions = map[string][]string{
	BookingStatusRequested: {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCancelled},
	BookingStatusCancelled: {},
}

type Booking struct {
	ID          string    `db:"id" json:"id"`
	RideID      string    `db:"ride_id" json:"ride_id"`
	PassengerID string    `db:"passenger_id" json:"passenger_id"`
	Seats       int       `db:"seats" json:"seats"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

type CreateBookingRequest struct {
	PassengerID string `json:"passenger_id" validate:"required,uuid"`
	RideID      string `json:"ride_id" validate:"required,uuid"`
	Seats       int    `json:"seats" validate:"required,min=1"`
}

type BookingResponse struct {
	ID          string        `json:"id"`
	RideID      string        `json:"ride_id"`
	PassengerID string        `json:"passenger_id"`
	Seats       int           `json:"seats"`
	Status      string        `json:"status"`
	Ride        *RideResponse `json:"ride,omitempty"`
	Passenger   *UserResponse `json:"passenger,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

func (b *Booking) ToResponse() *BookingResponse {
	return &BookingResponse{
		ID:          b.ID,
		RideID:      b.RideID,
		PassengerID: b.PassengerID,
		Seats:       b.Seats,
		Status:      b.Status,
		CreatedAt:   b.CreatedAt,
	}
}

// CanTransitionTo checks if a booking can transition to a new status
func (b *Booking) CanTransitionTo(newStatus string) bool {
	validNextStates, exists := ValidBookingTransitions[b.Status]
	if !exists {
		return false
	}

	for _, state := range validNextStates {
		if state == newStatus {
			return true
		}
	}
	return false
}

// IsActive reports whether the booking currently holds seats. At most one
// active booking may exist per (passenger, ride) pair.
func (b *Booking) IsActive() bool {
	return b.Status == BookingStatusRequested || b.Status == BookingStatusConfirmed
}
