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

type RideRequestRepository interface {
	Create(ctx context.Context, request *models.RideRequest) error
	GetByID(ctx context.Context, id string) (*models.RideRequest, error)
	UpdateStatus(ctx context.Context, id, status string) error
	CancelPending(ctx context.Context, id string) error
	GetPending(ctx context.Context) ([]*models.RideRequest, error)
	GetByPassenger(ctx context.Context, passengerID string) ([]*models.RideRequest, error)
}

type rideRequestRepository struct {
	db *sqlx.DB
}

func NewRideRequestRepository(db *sqlx.DB) RideRequestRepository {
	return &rideRequestRepository{db: db}
}

func (r *rideRequestRepository) Create(ctx context.Context, request *models.RideRequest) error {
	if request.ID == "" {
		request.ID = uuid.New().String()
	}
	request.CreatedAt = time.Now()
	request.UpdatedAt = time.Now()
	request.Status = models.RequestStatusPending

	query := `
		INSERT INTO ride_requests (id, passenger_id, origin, destination,
			preferred_at, seats, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		request.ID, request.PassengerID, request.Origin, request.Destination,
		request.PreferredAt, request.Seats, request.Status, request.Notes,
		request.CreatedAt, request.UpdatedAt)
	return err
}

func (r *rideRequestRepository) GetByID(ctx context.Context, id string) (*models.RideRequest, error) {
	var request models.RideRequest
	query := `SELECT * FROM ride_requests WHERE id = $1`
	err := r.db.GetContext(ctx, &request, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &request, err
}

func (r *rideRequestRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `UPDATE ride_requests SET status = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	return err
}

// CancelPending cancels a request only while it is still pending.
func (r *rideRequestRepository) CancelPending(ctx context.Context, id string) error {
	query := `
		UPDATE ride_requests SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`
	res, err := r.db.ExecContext(ctx, query,
		models.RequestStatusCancelled, time.Now(), id, models.RequestStatusPending)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.ErrRequestNotPending
	}
	return nil
}

func (r *rideRequestRepository) GetPending(ctx context.Context) ([]*models.RideRequest, error) {
	var requests []*models.RideRequest
	query := `
		SELECT * FROM ride_requests
		WHERE status = $1
		ORDER BY preferred_at, id
	`
	err := r.db.SelectContext(ctx, &requests, query, models.RequestStatusPending)
	return requests, err
}

func (r *rideRequestRepository) GetByPassenger(ctx context.Context, passengerID string) ([]*models.RideRequest, error) {
	var requests []*models.RideRequest
	query := `SELECT * FROM ride_requests WHERE passenger_id = $1 ORDER BY created_at DESC, id`
	err := r.db.SelectContext(ctx, &requests, query, passengerID)
	return requests, err
}
