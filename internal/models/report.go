package models

import (
	"time"
)

// Report status constants
const (
	ReportStatusPending  = "pending"
	ReportStatusReviewed = "reviewed"
	ReportStatusResolved = "resolved"
)

type Report struct {
	ID             string    `db:"id" json:"id"`
	ReporterID     string    `db:"reporter_id" json:"reporter_id"`
	ReportedUserID string    `db:"reported_user_id" json:"reported_user_id"`
	RideID         *string   `db:"ride_id" json:"ride_id,omitempty"`
	Reason         string    `db:"reason" json:"reason"`
	AdminNotes     *string   `db:"admin_notes" json:"admin_notes,omitempty"`
	Status         string    `db:"status" json:"status"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

type CreateReportRequest struct {
	ReporterID     string `json:"reporter_id" validate:"required,uuid"`
	ReportedUserID string `json:"reported_user_id" validate:"required,uuid"`
	RideID         string `json:"ride_id,omitempty" validate:"omitempty,uuid"`
	Reason         string `json:"reason" validate:"required,min=3,max=500"`
}

type ReviewReportRequest struct {
	Approved bool   `json:"approved"`
	Notes    string `json:"notes,omitempty" validate:"max=500"`
}

// ReportResponse carries the stored report plus the escalation outcome of
// submitting it, so callers can observe an auto-warning without a second query.
type ReportResponse struct {
	ID             string    `json:"id"`
	ReporterID     string    `json:"reporter_id"`
	ReportedUserID string    `json:"reported_user_id"`
	RideID         *string   `json:"ride_id,omitempty"`
	Reason         string    `json:"reason"`
	AdminNotes     *string   `json:"admin_notes,omitempty"`
	Status         string    `json:"status"`
	ReportCount    int       `json:"report_count,omitempty"`
	WarningIssued  bool      `json:"warning_issued,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func (r *Report) ToResponse() *ReportResponse {
	return &ReportResponse{
		ID:             r.ID,
		ReporterID:     r.ReporterID,
		ReportedUserID: r.ReportedUserID,
		RideID:         r.RideID,
		Reason:         r.Reason,
		AdminNotes:     r.AdminNotes,
		Status:         r.Status,
		CreatedAt:      r.CreatedAt,
	}
}

// SubmitRatingRequest rates a counterpart after a shared ride. Only the
// aggregate average is kept on the user record.
type SubmitRatingRequest struct {
	RaterID     string  `json:"rater_id" validate:"required,uuid"`
	RatedUserID string  `json:"rated_user_id" validate:"required,uuid"`
	RideID      string  `json:"ride_id" validate:"required,uuid"`
	Score       float64 `json:"score" validate:"required"`
}

type BlacklistUserRequest struct {
	Days int `json:"days" validate:"required,min=1,max=365"`
}
