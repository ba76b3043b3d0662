package repository

import (
	"context"
	"database/sql"
	"time"

	apperrors "github.com/campool/campool/internal/errors"
	"github.com/campool/campool/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type BookingRepository interface {
	// CreateWithReservation inserts the booking and decrements the ride's
	// seat inventory in a single transaction. On any failure nothing is
	// written: no booking row exists whose seats are not reflected in the
	// ride, and vice versa.
	CreateWithReservation(ctx context.Context, booking *models.Booking) error
	// CancelWithRelease flips the booking to cancelled and returns its seats
	// to the ride in one transaction. Cancelling an already-cancelled
	// booking fails, which guarantees seats are released exactly once.
	CancelWithRelease(ctx context.Context, bookingID string) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	GetActiveByPassengerAndRide(ctx context.Context, passengerID, rideID string) (*models.Booking, error)
	GetByPassenger(ctx context.Context, passengerID string) ([]*models.Booking, error)
	GetByRide(ctx context.Context, rideID string) ([]*models.Booking, error)
	Confirm(ctx context.Context, id string) error
	CountPendingByDriver(ctx context.Context, driverID string) (int, error)
	CountByPassenger(ctx context.Context, passengerID string) (int, error)
}

type bookingRepository struct {
	db *sqlx.DB
}

func NewBookingRepository(db *sqlx.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) CreateWithReservation(ctx context.Context, booking *models.Booking) error {
	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}
	now := time.Now()
	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.Status = models.BookingStatusRequested

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Lock the ride row for the duration of the check-and-decrement.
	var ride models.Ride
	err = tx.GetContext(ctx, &ride, `SELECT * FROM rides WHERE id = $1 FOR UPDATE`, booking.RideID)
	if err == sql.ErrNoRows {
		return apperrors.ErrNotFound
	}
	if err != nil {
		return err
	}

	if !ride.IsActive() {
		return apperrors.ErrRideNotActive
	}
	if ride.SeatsAvailable < booking.Seats {
		return apperrors.ErrInsufficientSeats
	}

	// Re-check the one-active-booking-per-(passenger, ride) invariant under
	// the lock; the service-level check is advisory only.
	var active int
	err = tx.GetContext(ctx, &active, `
		SELECT COUNT(*) FROM bookings
		WHERE passenger_id = $1 AND ride_id = $2 AND status IN ($3, $4)
	`, booking.PassengerID, booking.RideID, models.BookingStatusRequested, models.BookingStatusConfirmed)
	if err != nil {
		return err
	}
	if active > 0 {
		return apperrors.ErrDuplicateBooking
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE rides SET seats_available = seats_available - $1, updated_at = $2 WHERE id = $3
	`, booking.Seats, now, booking.RideID)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO bookings (id, ride_id, passenger_id, seats, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, booking.ID, booking.RideID, booking.PassengerID, booking.Seats, booking.Status,
		booking.CreatedAt, booking.UpdatedAt)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *bookingRepository) CancelWithRelease(ctx context.Context, bookingID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var booking models.Booking
	err = tx.GetContext(ctx, &booking, `SELECT * FROM bookings WHERE id = $1 FOR UPDATE`, bookingID)
	if err == sql.ErrNoRows {
		return apperrors.ErrNotFound
	}
	if err != nil {
		return err
	}

	if !booking.IsActive() {
		return apperrors.ErrBookingNotActive
	}

	now := time.Now()
	_, err = tx.ExecContext(ctx, `
		UPDATE bookings SET status = $1, updated_at = $2 WHERE id = $3
	`, models.BookingStatusCancelled, now, bookingID)
	if err != nil {
		return err
	}

	// Clamp at seats_total so a release can never exceed capacity.
	_, err = tx.ExecContext(ctx, `
		UPDATE rides
		SET seats_available = LEAST(seats_available + $1, seats_total), updated_at = $2
		WHERE id = $3
	`, booking.Seats, now, booking.RideID)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *bookingRepository) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	query := `SELECT * FROM bookings WHERE id = $1`
	err := r.db.GetContext(ctx, &booking, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &booking, err
}

func (r *bookingRepository) GetActiveByPassengerAndRide(ctx context.Context, passengerID, rideID string) (*models.Booking, error) {
	var booking models.Booking
	query := `
		SELECT * FROM bookings
		WHERE passenger_id = $1 AND ride_id = $2 AND status IN ($3, $4)
		LIMIT 1
	`
	err := r.db.GetContext(ctx, &booking, query,
		passengerID, rideID, models.BookingStatusRequested, models.BookingStatusConfirmed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &booking, err
}

func (r *bookingRepository) GetByPassenger(ctx context.Context, passengerID string) ([]*models.Booking, error) {
	var bookings []*models.Booking
	query := `SELECT * FROM bookings WHERE passenger_id = $1 ORDER BY created_at DESC, id`
	err := r.db.SelectContext(ctx, &bookings, query, passengerID)
	return bookings, err
}

func (r *bookingRepository) GetByRide(ctx context.Context, rideID string) ([]*models.Booking, error) {
	var bookings []*models.Booking
	query := `SELECT * FROM bookings WHERE ride_id = $1 ORDER BY created_at, id`
	err := r.db.SelectContext(ctx, &bookings, query, rideID)
	return bookings, err
}

// Confirm moves a requested booking to confirmed. The status guard in the
// WHERE clause makes confirmation of a cancelled or already-confirmed
// booking a no-op reported as an invalid transition.
func (r *bookingRepository) Confirm(ctx context.Context, id string) error {
	query := `
		UPDATE bookings SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`
	res, err := r.db.ExecContext(ctx, query,
		models.BookingStatusConfirmed, time.Now(), id, models.BookingStatusRequested)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.ErrInvalidTransition
	}
	return nil
}

func (r *bookingRepository) CountPendingByDriver(ctx context.Context, driverID string) (int, error) {
	var count int
	query := `
		SELECT COUNT(*) FROM bookings b
		JOIN rides r ON r.id = b.ride_id
		WHERE r.driver_id = $1 AND b.status = $2
	`
	err := r.db.GetContext(ctx, &count, query, driverID, models.BookingStatusRequested)
	return count, err
}

func (r *bookingRepository) CountByPassenger(ctx context.Context, passengerID string) (int, error) {
	var count int
	query := `
		SELECT COUNT(*) FROM bookings
		WHERE passenger_id = $1 AND status IN ($2, $3)
	`
	err := r.db.GetContext(ctx, &count, query,
		passengerID, models.BookingStatusRequested, models.BookingStatusConfirmed)
	return count, err
}
