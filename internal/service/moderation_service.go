package service

import (
	"context"
	"log"
	"strings"
	"time"

	apperrors "github.com/campool/campool/internal/errors"
	"github.com/campool/campool/internal/models"
	"github.com/campool/campool/internal/notify"
	"github.com/campool/campool/internal/observability"
	"github.com/campool/campool/internal/repository"
)

// Moderation policy constants. These are fixed policy, not user input.
const (
	warningThreshold      = 3
	blacklistDays         = 7
	reportEscalationCount = 3

	minRatingScore = 1.0
	maxRatingScore = 5.0
)

type ModerationService interface {
	// CanPerformAction is the eligibility gate shared by ride posting and
	// booking: it loads the user and rejects anyone currently blacklisted.
	CanPerformAction(ctx context.Context, userID string) (*models.User, error)
	SubmitReport(ctx context.Context, req *models.CreateReportRequest) (*models.ReportResponse, error)
	ReviewReport(ctx context.Context, reportID string, approved bool, notes string) error
	AddWarning(ctx context.Context, userID string) (*models.User, error)
	BlacklistUser(ctx context.Context, userID string, days int) error
	ClearWarnings(ctx context.Context, userID string) error
	SubmitRating(ctx context.Context, req *models.SubmitRatingRequest) error
	GetPendingReports(ctx context.Context) ([]*models.Report, error)
	GetReportsForUser(ctx context.Context, userID string) ([]*models.Report, error)
	GetReportsByUser(ctx context.Context, userID string) ([]*models.Report, error)
	ReportCount(ctx context.Context, userID string) (int, error)
}

type moderationService struct {
	userRepo   repository.UserRepository
	reportRepo repository.ReportRepository
	rideRepo   repository.RideRepository
	publisher  notify.Publisher
	now        func() time.Time
}

func NewModerationService(
	userRepo repository.UserRepository,
	reportRepo repository.ReportRepository,
	rideRepo repository.RideRepository,
	publisher notify.Publisher,
) ModerationService {
	return &moderationService{
		userRepo:   userRepo,
		reportRepo: reportRepo,
		rideRepo:   rideRepo,
		publisher:  publisher,
		now:        time.Now,
	}
}

func (s *moderationService) CanPerformAction(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NotFound("user")
	}
	if user.IsBlacklisted(s.now()) {
		return nil, apperrors.Blacklisted()
	}
	return user, nil
}

func (s *moderationService) SubmitReport(ctx context.Context, req *models.CreateReportRequest) (*models.ReportResponse, error) {
	if req.ReporterID == req.ReportedUserID {
		return nil, apperrors.Validation("cannot report yourself")
	}
	if strings.TrimSpace(req.Reason) == "" {
		return nil, apperrors.Validation("reason is required")
	}

	reporter, err := s.userRepo.GetByID(ctx, req.ReporterID)
	if err != nil {
		return nil, err
	}
	if reporter == nil {
		return nil, apperrors.NotFound("reporter")
	}

	reported, err := s.userRepo.GetByID(ctx, req.ReportedUserID)
	if err != nil {
		return nil, err
	}
	if reported == nil {
		return nil, apperrors.NotFound("reported user")
	}

	report := &models.Report{
		ReporterID:     req.ReporterID,
		ReportedUserID: req.ReportedUserID,
		Reason:         strings.TrimSpace(req.Reason),
	}
	if req.RideID != "" {
		report.RideID = &req.RideID
	}

	if err := s.reportRepo.Create(ctx, report); err != nil {
		return nil, err
	}
	observability.ReportsSubmitted.Inc()

	response := report.ToResponse()

	// Auto-escalation: once the accumulated report count reaches the
	// threshold, every further report keeps adding warnings. Report volume
	// alone can blacklist a user before any report is reviewed. This is a
	// side effect of a successful submission, not an error path, and the
	// outcome is surfaced in the response.
	count, err := s.reportRepo.CountByReportedUser(ctx, req.ReportedUserID)
	if err != nil {
		log.Printf("failed to count reports for %s: %v", req.ReportedUserID, err)
		return response, nil
	}
	response.ReportCount = count

	if count >= reportEscalationCount {
		if _, err := s.AddWarning(ctx, req.ReportedUserID); err != nil {
			log.Printf("failed to add auto-warning to %s: %v", req.ReportedUserID, err)
		} else {
			response.WarningIssued = true
		}
	}

	return response, nil
}

func (s *moderationService) ReviewReport(ctx context.Context, reportID string, approved bool, notes string) error {
	report, err := s.reportRepo.GetByID(ctx, reportID)
	if err != nil {
		return err
	}
	if report == nil {
		return apperrors.NotFound("report")
	}

	var adminNotes *string
	if notes != "" {
		adminNotes = &notes
	}

	if !approved {
		return s.reportRepo.UpdateStatus(ctx, reportID, models.ReportStatusReviewed, adminNotes)
	}

	if err := s.reportRepo.UpdateStatus(ctx, reportID, models.ReportStatusResolved, adminNotes); err != nil {
		return err
	}
	if _, err := s.AddWarning(ctx, report.ReportedUserID); err != nil {
		log.Printf("failed to warn user %s after report review: %v", report.ReportedUserID, err)
	}
	return nil
}

// AddWarning increments the user's warning count and, once the count is at
// or past the threshold, starts (or extends) a blacklist period.
func (s *moderationService) AddWarning(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NotFound("user")
	}

	user.Warnings++
	observability.WarningsIssued.Inc()

	if user.Warnings >= warningThreshold {
		until := s.now().AddDate(0, 0, blacklistDays)
		user.BlacklistedTo = &until
		observability.UsersBlacklisted.Inc()
		s.publisher.Publish(ctx, notify.Event{Type: notify.EventUserBlacklisted, SubjectID: userID})
	}

	if err := s.userRepo.UpdateTrust(ctx, userID, user.Warnings, user.BlacklistedTo); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *moderationService) BlacklistUser(ctx context.Context, userID string, days int) error {
	if days <= 0 {
		return apperrors.Validation("blacklist days must be positive")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return apperrors.NotFound("user")
	}

	until := s.now().AddDate(0, 0, days)
	observability.UsersBlacklisted.Inc()
	s.publisher.Publish(ctx, notify.Event{Type: notify.EventUserBlacklisted, SubjectID: userID})
	return s.userRepo.UpdateTrust(ctx, userID, user.Warnings, &until)
}

// ClearWarnings resets both the warning counter and any blacklist period.
func (s *moderationService) ClearWarnings(ctx context.Context, userID string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return apperrors.NotFound("user")
	}

	return s.userRepo.UpdateTrust(ctx, userID, 0, nil)
}

func (s *moderationService) SubmitRating(ctx context.Context, req *models.SubmitRatingRequest) error {
	if req.Score < minRatingScore || req.Score > maxRatingScore {
		return apperrors.Validation("rating must be between 1 and 5")
	}
	if req.RaterID == req.RatedUserID {
		return apperrors.Validation("cannot rate yourself")
	}

	rated, err := s.userRepo.GetByID(ctx, req.RatedUserID)
	if err != nil {
		return err
	}
	if rated == nil {
		return apperrors.NotFound("rated user")
	}

	ride, err := s.rideRepo.GetByID(ctx, req.RideID)
	if err != nil {
		return err
	}
	if ride == nil {
		return apperrors.NotFound("ride")
	}

	// Fold the score into the running average; no per-rating history is kept.
	n := float64(rated.RatingCount)
	newAvg := (rated.Rating*n + req.Score) / (n + 1)
	return s.userRepo.UpdateRating(ctx, req.RatedUserID, newAvg, rated.RatingCount+1)
}

func (s *moderationService) GetPendingReports(ctx context.Context) ([]*models.Report, error) {
	return s.reportRepo.GetPending(ctx)
}

func (s *moderationService) GetReportsForUser(ctx context.Context, userID string) ([]*models.Report, error) {
	return s.reportRepo.GetByReportedUser(ctx, userID)
}

func (s *moderationService) GetReportsByUser(ctx context.Context, userID string) ([]*models.Report, error) {
	return s.reportRepo.GetByReporter(ctx, userID)
}

func (s *moderationService) ReportCount(ctx context.Context, userID string) (int, error) {
	return s.reportRepo.CountByReportedUser(ctx, userID)
}
