package models

import (
	"time"
)

// User roles
const (
	RoleDriver    = "driver"
	RolePassenger = "passenger"
	RoleBoth      = "both"
)

// Seat capacity bounds for a declared vehicle
const (
	MinSeatCapacity = 1
	MaxSeatCapacity = 8
)

type User struct {
	ID            string     `db:"id" json:"id"`
	Name          string     `db:"name" json:"name"`
	Email         *string    `db:"email" json:"email,omitempty"`
	Role          string     `db:"role" json:"role"`
	Warnings      int        `db:"warnings" json:"warnings"`
	BlacklistedTo *time.Time `db:"blacklisted_until" json:"blacklisted_until,omitempty"`
	Rating        float64    `db:"rating" json:"rating"`
	RatingCount   int        `db:"rating_count" json:"rating_count"`

	// Driver payload, set when Role is driver or both
	LicenseNumber *string `db:"license_number" json:"license_number,omitempty"`
	VehicleModel  *string `db:"vehicle_model" json:"vehicle_model,omitempty"`
	VehicleNumber *string `db:"vehicle_number" json:"vehicle_number,omitempty"`
	SeatCapacity  *int    `db:"seat_capacity" json:"seat_capacity,omitempty"`

	// Passenger payload
	PreferredDestination *string `db:"preferred_destination" json:"preferred_destination,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type CreateUserRequest struct {
	Name  string `json:"name" validate:"required,min=2,max=100"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
	Role  string `json:"role" validate:"required,oneof=driver passenger both"`

	LicenseNumber        string `json:"license_number,omitempty"`
	VehicleModel         string `json:"vehicle_model,omitempty"`
	VehicleNumber        string `json:"vehicle_number,omitempty"`
	SeatCapacity         int    `json:"seat_capacity,omitempty" validate:"omitempty,min=1,max=8"`
	PreferredDestination string `json:"preferred_destination,omitempty"`
}

type UserResponse struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         *string    `json:"email,omitempty"`
	Role          string     `json:"role"`
	Warnings      int        `json:"warnings"`
	Blacklisted   bool       `json:"blacklisted"`
	BlacklistedTo *time.Time `json:"blacklisted_until,omitempty"`
	Rating        float64    `json:"rating"`
	RatingCount   int        `json:"rating_count"`
	VehicleModel  *string    `json:"vehicle_model,omitempty"`
	VehicleNumber *string    `json:"vehicle_number,omitempty"`
	SeatCapacity  *int       `json:"seat_capacity,omitempty"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Role:          u.Role,
		Warnings:      u.Warnings,
		Blacklisted:   u.IsBlacklisted(time.Now()),
		BlacklistedTo: u.BlacklistedTo,
		Rating:        u.Rating,
		RatingCount:   u.RatingCount,
		VehicleModel:  u.VehicleModel,
		VehicleNumber: u.VehicleNumber,
		SeatCapacity:  u.SeatCapacity,
	}
}

// IsBlacklisted reports whether the user is restricted at the given instant.
// Expiry is implicit: once now passes the deadline the user is clear again.
func (u *User) IsBlacklisted(now time.Time) bool {
	return u.BlacklistedTo != nil && now.Before(*u.BlacklistedTo)
}

// CanDrive reports whether the user's role allows posting rides.
func (u *User) CanDrive() bool {
	return u.Role == RoleDriver || u.Role == RoleBoth
}

// CanRide reports whether the user's role allows booking seats.
func (u *User) CanRide() bool {
	return u.Role == RolePassenger || u.Role == RoleBoth
}

// HasValidVehicleInfo reports whether the driver payload is complete enough
// to post rides: license, vehicle identification and a sane seat capacity.
func (u *User) HasValidVehicleInfo() bool {
	if u.LicenseNumber == nil || *u.LicenseNumber == "" {
		return false
	}
	if u.VehicleModel == nil || *u.VehicleModel == "" {
		return false
	}
	if u.VehicleNumber == nil || *u.VehicleNumber == "" {
		return false
	}
	if u.SeatCapacity == nil {
		return false
	}
	return *u.SeatCapacity >= MinSeatCapacity && *u.SeatCapacity <= MaxSeatCapacity
}

func IsValidRole(role string) bool {
	return role == RoleDriver || role == RolePassenger || role == RoleBoth
}
