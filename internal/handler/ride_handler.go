package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	apperrors "github.com/campool/campool/internal/errors"
	"github.com/campool/campool/internal/models"
	"github.com/campool/campool/internal/service"
	"github.com/campool/campool/pkg/utils"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type RideHandler struct {
	rideService     service.RideService
	matchingService service.MatchingService
	bookingService  service.BookingService
	validate        *validator.Validate
}

func NewRideHandler(
	rideService service.RideService,
	matchingService service.MatchingService,
	bookingService service.BookingService,
) *RideHandler {
	return &RideHandler{
		rideService:     rideService,
		matchingService: matchingService,
		bookingService:  bookingService,
		validate:        validator.New(),
	}
}

func (h *RideHandler) RegisterRoutes(r chi.Router) {
	r.Post("/rides", h.PostRide)
	r.Get("/rides", h.SearchRides)
	r.Get("/rides/{id}", h.GetRide)
	r.Post("/rides/{id}/cancel", h.CancelRide)
	r.Post("/rides/{id}/complete", h.CompleteRide)
	r.Get("/rides/{id}/requests", h.MatchingRequests)
	r.Get("/rides/{id}/bookings", h.RideBookings)
}

// POST /v1/rides
func (h *RideHandler) PostRide(w http.ResponseWriter, r *http.Request) {
	var req models.CreateRideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		utils.BadRequest(w, err.Error())
		return
	}

	ride, err := h.rideService.PostRide(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	// Scan for pending requests this ride can satisfy. Best-effort
	// notification, deliberately outside the posting transaction. The request
	// context dies with this handler, so the scan gets a detached one.
	go h.matchingService.NotifyMatchesForRide(context.WithoutCancel(r.Context()), ride.ID)

	utils.Created(w, ride)
}

// GET /v1/rides?destination=|origin=&destination=|date=|driver_id=
func (h *RideHandler) SearchRides(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ctx := r.Context()

	var (
		rides []*models.Ride
		err   error
	)
	switch {
	case q.Get("driver_id") != "":
		rides, err = h.rideService.GetRidesByDriver(ctx, q.Get("driver_id"))
	case q.Get("origin") != "" && q.Get("destination") != "":
		rides, err = h.rideService.SearchByRoute(ctx, q.Get("origin"), q.Get("destination"))
	case q.Get("destination") != "":
		rides, err = h.rideService.SearchByDestination(ctx, q.Get("destination"))
	case q.Get("date") != "":
		var date time.Time
		date, err = time.Parse("2006-01-02", q.Get("date"))
		if err != nil {
			utils.BadRequest(w, "date must be YYYY-MM-DD")
			return
		}
		rides, err = h.rideService.SearchByDate(ctx, date)
	default:
		rides, err = h.rideService.GetAllActive(ctx)
	}

	if err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, rides)
}

// GET /v1/rides/{id}
func (h *RideHandler) GetRide(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.BadRequest(w, "ride id is required")
		return
	}

	ride, err := h.rideService.GetRide(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, ride)
}

type rideActionRequest struct {
	DriverID string `json:"driver_id" validate:"required,uuid"`
}

// POST /v1/rides/{id}/cancel
func (h *RideHandler) CancelRide(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.BadRequest(w, "ride id is required")
		return
	}

	var req rideActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.BadRequest(w, err.Error())
		return
	}

	if err := h.rideService.CancelRide(r.Context(), id, req.DriverID); err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, map[string]string{
		"status":  "cancelled",
		"message": "ride cancelled successfully",
	})
}

// POST /v1/rides/{id}/complete
func (h *RideHandler) CompleteRide(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.BadRequest(w, "ride id is required")
		return
	}

	var req rideActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.BadRequest(w, err.Error())
		return
	}

	if err := h.rideService.CompleteRide(r.Context(), id, req.DriverID); err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, map[string]string{
		"status":  "completed",
		"message": "ride marked as completed",
	})
}

// GET /v1/rides/{id}/requests
func (h *RideHandler) MatchingRequests(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.BadRequest(w, "ride id is required")
		return
	}

	requests, err := h.matchingService.FindMatchingRequestsForRide(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, requests)
}

// GET /v1/rides/{id}/bookings
func (h *RideHandler) RideBookings(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.BadRequest(w, "ride id is required")
		return
	}

	bookings, err := h.bookingService.GetRideBookings(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, bookings)
}

func handleError(w http.ResponseWriter, err error) {
	if apiErr, ok := err.(*apperrors.APIError); ok {
		utils.Error(w, apiErr)
		return
	}

	switch err {
	case apperrors.ErrNotFound:
		utils.Error(w, apperrors.NotFound("resource"))
	case apperrors.ErrInsufficientSeats:
		utils.Error(w, apperrors.InsufficientSeats(0))
	case apperrors.ErrRideNotActive:
		utils.Error(w, apperrors.RideNotActive())
	case apperrors.ErrDuplicateBooking:
		utils.Error(w, apperrors.DuplicateBooking())
	case apperrors.ErrBlacklisted:
		utils.Error(w, apperrors.Blacklisted())
	default:
		utils.InternalError(w, "internal server error")
	}
}
