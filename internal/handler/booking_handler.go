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

type BookingHandler struct {
	bookingService service.BookingService
	validate       *validator.Validate
}

func NewBookingHandler(bookingService service.BookingService) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
		validate:       validator.New(),
	}
}

func (h *BookingHandler) RegisterRoutes(r chi.Router) {
	r.Post("/bookings", h.BookSeat)
	r.Get("/bookings", h.ListBookings)
	r.Get("/bookings/{id}", h.GetBooking)
	r.Post("/bookings/{id}/cancel", h.CancelBooking)
	r.Post("/bookings/{id}/confirm", h.ConfirmBooking)
	r.Get("/drivers/{id}/bookings/pending", h.PendingCount)
	r.Get("/passengers/{id}/rides", h.RidesBookedByPassenger)
}

// POST /v1/bookings
func (h *BookingHandler) BookSeat(w http.ResponseWriter, r *http.Request) {
	var req models.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		utils.BadRequest(w, err.Error())
		return
	}

	booking, err := h.bookingService.BookSeat(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Created(w, booking)
}

// GET /v1/bookings?passenger_id=&ride_id=
// With both parameters this answers the "have I already booked this ride"
// question for idempotent UI state.
func (h *BookingHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	passengerID := r.URL.Query().Get("passenger_id")
	rideID := r.URL.Query().Get("ride_id")

	if passengerID == "" {
		utils.BadRequest(w, "passenger_id is required")
		return
	}

	if rideID != "" {
		bookingID, err := h.bookingService.BookingIDFor(r.Context(), passengerID, rideID)
		if err != nil {
			handleError(w, err)
			return
		}
		utils.Success(w, http.StatusOK, map[string]string{"booking_id": bookingID})
		return
	}

	bookings, err := h.bookingService.GetPassengerBookings(r.Context(), passengerID)
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, bookings)
}

// GET /v1/bookings/{id}
func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.BadRequest(w, "booking id is required")
		return
	}

	booking, err := h.bookingService.GetBooking(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, booking)
}

type cancelBookingRequest struct {
	PassengerID string `json:"passenger_id" validate:"required,uuid"`
}

// POST /v1/bookings/{id}/cancel
func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.BadRequest(w, "booking id is required")
		return
	}

	var req cancelBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.BadRequest(w, err.Error())
		return
	}

	if err := h.bookingService.CancelBooking(r.Context(), id, req.PassengerID); err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, map[string]string{
		"status":  "cancelled",
		"message": "booking cancelled, seats returned to the ride",
	})
}

type confirmBookingRequest struct {
	DriverID string `json:"driver_id" validate:"required,uuid"`
}

// POST /v1/bookings/{id}/confirm
func (h *BookingHandler) ConfirmBooking(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.BadRequest(w, "booking id is required")
		return
	}

	var req confirmBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.BadRequest(w, err.Error())
		return
	}

	if err := h.bookingService.ConfirmBooking(r.Context(), id, req.DriverID); err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, map[string]string{
		"status":  "confirmed",
		"message": "booking confirmed",
	})
}

// GET /v1/drivers/{id}/bookings/pending
func (h *BookingHandler) PendingCount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.BadRequest(w, "driver id is required")
		return
	}

	count, err := h.bookingService.PendingBookingCount(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, map[string]int{"pending_bookings": count})
}

// GET /v1/passengers/{id}/rides
func (h *BookingHandler) RidesBookedByPassenger(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.BadRequest(w, "passenger id is required")
		return
	}

	rides, err := h.bookingService.GetRidesBookedByPassenger(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, rides)
}
