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

type RideRepository interface {
	Create(ctx context.Context, ride *models.Ride) error
	GetByID(ctx context.Context, id string) (*models.Ride, error)
	UpdateStatus(ctx context.Context, id, status string) error
	ReserveSeats(ctx context.Context, id string, seats int) error
	ReleaseSeats(ctx context.Context, id string, seats int) error
	GetAllActive(ctx context.Context) ([]*models.Ride, error)
	GetByDestination(ctx context.Context, destination string) ([]*models.Ride, error)
	GetByRoute(ctx context.Context, origin, destination string) ([]*models.Ride, error)
	GetByDate(ctx context.Context, date time.Time) ([]*models.Ride, error)
	GetByDriver(ctx context.Context, driverID string) ([]*models.Ride, error)
}

type rideRepository struct {
	db *sqlx.DB
}

func NewRideRepository(db *sqlx.DB) RideRepository {
	return &rideRepository{db: db}
}

func (r *rideRepository) Create(ctx context.Context, ride *models.Ride) error {
	if ride.ID == "" {
		ride.ID = uuid.New().String()
	}
	ride.CreatedAt = time.Now()
	ride.UpdatedAt = time.Now()
	ride.Status = models.RideStatusActive

	query := `
		INSERT INTO rides (id, driver_id, origin, destination, departure_at,
			seats_total, seats_available, price_per_seat, status, vehicle_info,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.ExecContext(ctx, query,
		ride.ID, ride.DriverID, ride.Origin, ride.Destination, ride.DepartureAt,
		ride.SeatsTotal, ride.SeatsAvailable, ride.PricePerSeat, ride.Status,
		ride.VehicleInfo, ride.CreatedAt, ride.UpdatedAt)
	return err
}

func (r *rideRepository) GetByID(ctx context.Context, id string) (*models.Ride, error) {
	var ride models.Ride
	query := `SELECT * FROM rides WHERE id = $1`
	err := r.db.GetContext(ctx, &ride, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &ride, err
}

func (r *rideRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `UPDATE rides SET status = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	return err
}

// ReserveSeats atomically checks and decrements availability. The conditional
// UPDATE with a verified affected-row count is what prevents overbooking when
// several passengers hit the same ride at once.
func (r *rideRepository) ReserveSeats(ctx context.Context, id string, seats int) error {
	query := `
		UPDATE rides
		SET seats_available = seats_available - $1, updated_at = $2
		WHERE id = $3 AND status = $4 AND seats_available >= $1
	`
	res, err := r.db.ExecContext(ctx, query, seats, time.Now(), id, models.RideStatusActive)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 1 {
		return nil
	}

	// The reservation did not apply; look at the ride to say why.
	ride, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if ride == nil {
		return apperrors.ErrNotFound
	}
	if !ride.IsActive() {
		return apperrors.ErrRideNotActive
	}
	return apperrors.ErrInsufficientSeats
}

// ReleaseSeats returns seats to the pool, clamped at seats_total so a
// double release can never push availability past capacity.
func (r *rideRepository) ReleaseSeats(ctx context.Context, id string, seats int) error {
	query := `
		UPDATE rides
		SET seats_available = LEAST(seats_available + $1, seats_total), updated_at = $2
		WHERE id = $3
	`
	res, err := r.db.ExecContext(ctx, query, seats, time.Now(), id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *rideRepository) GetAllActive(ctx context.Context) ([]*models.Ride, error) {
	var rides []*models.Ride
	query := `
		SELECT * FROM rides
		WHERE status = $1
		ORDER BY departure_at, id
	`
	err := r.db.SelectContext(ctx, &rides, query, models.RideStatusActive)
	return rides, err
}

func (r *rideRepository) GetByDestination(ctx context.Context, destination string) ([]*models.Ride, error) {
	var rides []*models.Ride
	query := `
		SELECT * FROM rides
		WHERE status = $1 AND LOWER(destination) = LOWER($2)
		ORDER BY departure_at, id
	`
	err := r.db.SelectContext(ctx, &rides, query, models.RideStatusActive, destination)
	return rides, err
}

func (r *rideRepository) GetByRoute(ctx context.Context, origin, destination string) ([]*models.Ride, error) {
	var rides []*models.Ride
	query := `
		SELECT * FROM rides
		WHERE status = $1 AND LOWER(origin) = LOWER($2) AND LOWER(destination) = LOWER($3)
		ORDER BY departure_at, id
	`
	err := r.db.SelectContext(ctx, &rides, query, models.RideStatusActive, origin, destination)
	return rides, err
}

func (r *rideRepository) GetByDate(ctx context.Context, date time.Time) ([]*models.Ride, error) {
	var rides []*models.Ride
	query := `
		SELECT * FROM rides
		WHERE status = $1 AND departure_at::date = $2::date
		ORDER BY departure_at, id
	`
	err := r.db.SelectContext(ctx, &rides, query, models.RideStatusActive, date)
	return rides, err
}

func (r *rideRepository) GetByDriver(ctx context.Context, driverID string) ([]*models.Ride, error) {
	var rides []*models.Ride
	query := `
		SELECT * FROM rides
		WHERE driver_id = $1
		ORDER BY departure_at DESC, id
	`
	err := r.db.SelectContext(ctx, &rides, query, driverID)
	return rides, err
}
