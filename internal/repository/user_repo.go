package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/campool/campool/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdateTrust(ctx context.Context, id string, warnings int, blacklistedUntil *time.Time) error
	UpdateRating(ctx context.Context, id string, rating float64, ratingCount int) error
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()

	query := `
		INSERT INTO users (id, name, email, role, warnings, blacklisted_until,
			rating, rating_count, license_number, vehicle_model, vehicle_number,
			seat_capacity, preferred_destination, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Name, user.Email, user.Role, user.Warnings, user.BlacklistedTo,
		user.Rating, user.RatingCount, user.LicenseNumber, user.VehicleModel, user.VehicleNumber,
		user.SeatCapacity, user.PreferredDestination, user.CreatedAt, user.UpdatedAt)
	return err
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	query := `SELECT * FROM users WHERE id = $1`
	err := r.db.GetContext(ctx, &user, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &user, err
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	query := `SELECT * FROM users WHERE email = $1`
	err := r.db.GetContext(ctx, &user, query, email)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &user, err
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()
	query := `
		UPDATE users
		SET name = $1, email = $2, license_number = $3, vehicle_model = $4,
			vehicle_number = $5, seat_capacity = $6, preferred_destination = $7,
			updated_at = $8
		WHERE id = $9
	`
	_, err := r.db.ExecContext(ctx, query,
		user.Name, user.Email, user.LicenseNumber, user.VehicleModel,
		user.VehicleNumber, user.SeatCapacity, user.PreferredDestination,
		user.UpdatedAt, user.ID)
	return err
}

func (r *userRepository) UpdateTrust(ctx context.Context, id string, warnings int, blacklistedUntil *time.Time) error {
	query := `UPDATE users SET warnings = $1, blacklisted_until = $2, updated_at = $3 WHERE id = $4`
	_, err := r.db.ExecContext(ctx, query, warnings, blacklistedUntil, time.Now(), id)
	return err
}

func (r *userRepository) UpdateRating(ctx context.Context, id string, rating float64, ratingCount int) error {
	query := `UPDATE users SET rating = $1, rating_count = $2, updated_at = $3 WHERE id = $4`
	_, err := r.db.ExecContext(ctx, query, rating, ratingCount, time.Now(), id)
	return err
}
