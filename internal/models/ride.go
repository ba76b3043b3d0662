package models

import (
	"strings"
	"time"
)

// Ride status constants
const (
	RideStatusActive    = "active"
	RideStatusCompleted = "completed"
	RideStatusCancelled = "cancelled"
)

// Valid ride state transitions. Active is the only non-terminal state.
var ValidRideTransitions = map[string][]string{
	RideStatusActive:    {RideStatusCompleted, RideStatusCancelled},
	RideStatusCompleted: {},
	RideStatusCancelled: {},
}

type Ride struct {
	ID             string    `db:"id" json:"id"`
	DriverID       string    `db:"driver_id" json:"driver_id"`
	Origin         string    `db:"origin" json:"origin"`
	Destination    string    `db:"destination" json:"destination"`
	DepartureAt    time.Time `db:"departure_at" json:"departure_at"`
	SeatsTotal     int       `db:"seats_total" json:"seats_total"`
	SeatsAvailable int       `db:"seats_available" json:"seats_available"`
	PricePerSeat   float64   `db:"price_per_seat" json:"price_per_seat"`
	Status         string    `db:"status" json:"status"`
	VehicleInfo    *string   `db:"vehicle_info" json:"vehicle_info,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

type CreateRideRequest struct {
	DriverID     string  `json:"driver_id" validate:"required,uuid"`
	Origin       string  `json:"origin" validate:"required,min=2,max=120"`
	Destination  string  `json:"destination" validate:"required,min=2,max=120"`
	DepartureAt  string  `json:"departure_at" validate:"required"` // RFC 3339
	Seats        int     `json:"seats" validate:"required,min=1,max=8"`
	PricePerSeat float64 `json:"price_per_seat" validate:"min=0"`
}

type RideResponse struct {
	ID             string        `json:"id"`
	Status         string        `json:"status"`
	Driver         *UserResponse `json:"driver,omitempty"`
	Origin         string        `json:"origin"`
	Destination    string        `json:"destination"`
	DepartureAt    time.Time     `json:"departure_at"`
	SeatsTotal     int           `json:"seats_total"`
	SeatsAvailable int           `json:"seats_available"`
	PricePerSeat   float64       `json:"price_per_seat"`
	VehicleInfo    *string       `json:"vehicle_info,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

func (r *Ride) ToResponse() *RideResponse {
	return &RideResponse{
		ID:             r.ID,
		Status:         r.Status,
		Origin:         r.Origin,
		Destination:    r.Destination,
		DepartureAt:    r.DepartureAt,
		SeatsTotal:     r.SeatsTotal,
		SeatsAvailable: r.SeatsAvailable,
		PricePerSeat:   r.PricePerSeat,
		VehicleInfo:    r.VehicleInfo,
		CreatedAt:      r.CreatedAt,
	}
}

// CanTransitionTo checks if a ride can transition to a new status
func (r *Ride) CanTransitionTo(newStatus string) bool {
	validNextStates, exists := ValidRideTransitions[r.Status]
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

// IsActive returns true if the ride still accepts bookings
func (r *Ride) IsActive() bool {
	return r.Status == RideStatusActive
}

// DepartureDate returns the calendar date of departure, truncated in the
// ride's own location-free representation (dates compare by year/month/day).
func (r *Ride) DepartureDate() time.Time {
	y, m, d := r.DepartureAt.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameRoute compares origin and destination case-insensitively. Destinations
// are opaque named strings; no substring or proximity matching.
func (r *Ride) SameRoute(origin, destination string) bool {
	return strings.EqualFold(strings.TrimSpace(r.Origin), strings.TrimSpace(origin)) &&
		strings.EqualFold(strings.TrimSpace(r.Destination), strings.TrimSpace(destination))
}
