package handler

import (
	"encoding/json"
	"net/http"

	"github.com/campool/campool/internal/models"
	"github.com/campool/campool/internal/service"
	"github.com/campool/campool/pkg/utils"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type ModerationHandler struct {
	moderationService service.ModerationService
	validate          *validator.Validate
}

func NewModerationHandler(moderationService service.ModerationService) *ModerationHandler {
	return &ModerationHandler{
		moderationService: moderationService,
		validate:          validator.New(),
	}
}

func (h *ModerationHandler) RegisterRoutes(r chi.Router) {
	r.Post("/reports", h.SubmitReport)
	r.Get("/reports", h.ListReports)
	r.Post("/reports/{id}/review", h.ReviewReport)
	r.Get("/users/{id}/reports/count", h.ReportCount)
	r.Post("/users/{id}/blacklist", h.BlacklistUser)
	r.Post("/users/{id}/clear-warnings", h.ClearWarnings)
	r.Post("/ratings", h.SubmitRating)
}

// POST /v1/reports
func (h *ModerationHandler) SubmitReport(w http.ResponseWriter, r *http.Request) {
	var req models.CreateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		utils.BadRequest(w, err.Error())
		return
	}

	report, err := h.moderationService.SubmitReport(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Created(w, report)
}

// GET /v1/reports?user_id=|reporter_id= (defaults to pending reports)
func (h *ModerationHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ctx := r.Context()

	var (
		reports []*models.Report
		err     error
	)
	switch {
	case q.Get("user_id") != "":
		reports, err = h.moderationService.GetReportsForUser(ctx, q.Get("user_id"))
	case q.Get("reporter_id") != "":
		reports, err = h.moderationService.GetReportsByUser(ctx, q.Get("reporter_id"))
	default:
		reports, err = h.moderationService.GetPendingReports(ctx)
	}

	if err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, reports)
}

// POST /v1/reports/{id}/review
func (h *ModerationHandler) ReviewReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.BadRequest(w, "report id is required")
		return
	}

	var req models.ReviewReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.BadRequest(w, err.Error())
		return
	}

	if err := h.moderationService.ReviewReport(r.Context(), id, req.Approved, req.Notes); err != nil {
		handleError(w, err)
		return
	}

	status := "reviewed"
	if req.Approved {
		status = "resolved"
	}
	utils.Success(w, http.StatusOK, map[string]string{"status": status})
}

// GET /v1/users/{id}/reports/count
func (h *ModerationHandler) ReportCount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.BadRequest(w, "user id is required")
		return
	}

	count, err := h.moderationService.ReportCount(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, map[string]int{"report_count": count})
}

// POST /v1/users/{id}/blacklist
func (h *ModerationHandler) BlacklistUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.BadRequest(w, "user id is required")
		return
	}

	var req models.BlacklistUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.BadRequest(w, err.Error())
		return
	}

	if err := h.moderationService.BlacklistUser(r.Context(), id, req.Days); err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, map[string]string{"status": "blacklisted"})
}

// POST /v1/users/{id}/clear-warnings
func (h *ModerationHandler) ClearWarnings(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.BadRequest(w, "user id is required")
		return
	}

	if err := h.moderationService.ClearWarnings(r.Context(), id); err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// POST /v1/ratings
func (h *ModerationHandler) SubmitRating(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitRatingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		utils.BadRequest(w, err.Error())
		return
	}

	if err := h.moderationService.SubmitRating(r.Context(), &req); err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, map[string]string{"status": "rated"})
}
