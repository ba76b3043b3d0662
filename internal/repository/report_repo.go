package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/campool/campool/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type ReportRepository interface {
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id string) (*models.Report, error)
	UpdateStatus(ctx context.Context, id, status string, notes *string) error
	GetPending(ctx context.Context) ([]*models.Report, error)
	GetByReportedUser(ctx context.Context, userID string) ([]*models.Report, error)
	GetByReporter(ctx context.Context, reporterID string) ([]*models.Report, error)
	CountByReportedUser(ctx context.Context, userID string) (int, error)
}

type reportRepository struct {
	db *sqlx.DB
}

func NewReportRepository(db *sqlx.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(ctx context.Context, report *models.Report) error {
	if report.ID == "" {
		report.ID = uuid.New().String()
	}
	report.CreatedAt = time.Now()
	report.UpdatedAt = time.Now()
	report.Status = models.ReportStatusPending

	query := `
		INSERT INTO reports (id, reporter_id, reported_user_id, ride_id, reason,
			admin_notes, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		report.ID, report.ReporterID, report.ReportedUserID, report.RideID,
		report.Reason, report.AdminNotes, report.Status, report.CreatedAt, report.UpdatedAt)
	return err
}

func (r *reportRepository) GetByID(ctx context.Context, id string) (*models.Report, error) {
	var report models.Report
	query := `SELECT * FROM reports WHERE id = $1`
	err := r.db.GetContext(ctx, &report, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &report, err
}

func (r *reportRepository) UpdateStatus(ctx context.Context, id, status string, notes *string) error {
	query := `
		UPDATE reports SET status = $1, admin_notes = COALESCE($2, admin_notes), updated_at = $3
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, status, notes, time.Now(), id)
	return err
}

func (r *reportRepository) GetPending(ctx context.Context) ([]*models.Report, error) {
	var reports []*models.Report
	query := `SELECT * FROM reports WHERE status = $1 ORDER BY created_at, id`
	err := r.db.SelectContext(ctx, &reports, query, models.ReportStatusPending)
	return reports, err
}

func (r *reportRepository) GetByReportedUser(ctx context.Context, userID string) ([]*models.Report, error) {
	var reports []*models.Report
	query := `SELECT * FROM reports WHERE reported_user_id = $1 ORDER BY created_at DESC, id`
	err := r.db.SelectContext(ctx, &reports, query, userID)
	return reports, err
}

func (r *reportRepository) GetByReporter(ctx context.Context, reporterID string) ([]*models.Report, error) {
	var reports []*models.Report
	query := `SELECT * FROM reports WHERE reporter_id = $1 ORDER BY created_at DESC, id`
	err := r.db.SelectContext(ctx, &reports, query, reporterID)
	return reports, err
}

func (r *reportRepository) CountByReportedUser(ctx context.Context, userID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM reports WHERE reported_user_id = $1`
	err := r.db.GetContext(ctx, &count, query, userID)
	return count, err
}
