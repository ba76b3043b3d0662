package models

import (
	"time"
)

// Ride request status constants
const (
	RequestStatusPending   = "pending"
	RequestStatusMatched   = "matched"
	RequestStatusCancelled = "cancelled"
)

// RideRequest is a passenger's standing want-ad for a route and time.
// Unlike a booking it does not reference a ride; matching pairs pending
// requests with active rides in either direction.
type RideRequest struct {
	ID          string    `db:"id" json:"id"`
	PassengerID string    `db:"passenger_id" json:"passenger_id"`
	Origin      string    `db:"origin" json:"origin"`
	Destination string    `db:"destination" json:"destination"`
	PreferredAt time.Time `db:"preferred_at" json:"preferred_at"`
	Seats       int       `db:"seats" json:"seats"`
	Status      string    `db:"status" json:"status"`
	Notes       *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

type CreateRideRequestRequest struct {
	PassengerID string `json:"passenger_id" validate:"required,uuid"`
	Origin      string `json:"origin" validate:"required,min=2,max=120"`
	Destination string `json:"destination" validate:"required,min=2,max=120"`
	PreferredAt string `json:"preferred_at" validate:"required"` // RFC 3339
	Seats       int    `json:"seats" validate:"required,min=1,max=8"`
	Notes       string `json:"notes,omitempty" validate:"max=500"`
}

type RideRequestResponse struct {
	ID          string        `json:"id"`
	PassengerID string        `json:"passenger_id"`
	Passenger   *UserResponse `json:"passenger,omitempty"`
	Origin      string        `json:"origin"`
	Destination string        `json:"destination"`
	PreferredAt time.Time     `json:"preferred_at"`
	Seats       int           `json:"seats"`
	Status      string        `json:"status"`
	Notes       *string       `json:"notes,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

func (rr *RideRequest) ToResponse() *RideRequestResponse {
	return &RideRequestResponse{
		ID:          rr.ID,
		PassengerID: rr.PassengerID,
		Origin:      rr.Origin,
		Destination: rr.Destination,
		PreferredAt: rr.PreferredAt,
		Seats:       rr.Seats,
		Status:      rr.Status,
		Notes:       rr.Notes,
		CreatedAt:   rr.CreatedAt,
	}
}

// IsPending reports whether the request is still eligible for matching.
func (rr *RideRequest) IsPending() bool {
	return rr.Status == RequestStatusPending
}

// PreferredDate returns the calendar date of the preferred departure.
func (rr *RideRequest) PreferredDate() time.Time {
	y, m, d := rr.PreferredAt.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
