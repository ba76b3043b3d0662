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

type RequestHandler struct {
	matchingService service.MatchingService
	validate        *validator.Validate
}

func NewRequestHandler(matchingService service.MatchingService) *RequestHandler {
	return &RequestHandler{
		matchingService: matchingService,
		validate:        validator.New(),
	}
}

func (h *RequestHandler) RegisterRoutes(r chi.Router) {
	r.Post("/requests", h.PostRequest)
	r.Get("/requests", h.ListRequests)
	r.Get("/requests/{id}", h.GetRequest)
	r.Post("/requests/{id}/cancel", h.CancelRequest)
	r.Get("/requests/{id}/matches", h.MatchingRides)
}

// POST /v1/requests
func (h *RequestHandler) PostRequest(w http.ResponseWriter, r *http.Request) {
	var req models.CreateRideRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		utils.BadRequest(w, err.Error())
		return
	}

	request, err := h.matchingService.PostRideRequest(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Created(w, request)
}

// GET /v1/requests?passenger_id= (defaults to all pending)
func (h *RequestHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	passengerID := r.URL.Query().Get("passenger_id")

	var (
		requests []*models.RideRequest
		err      error
	)
	if passengerID != "" {
		requests, err = h.matchingService.GetRequestsByPassenger(r.Context(), passengerID)
	} else {
		requests, err = h.matchingService.GetPendingRequests(r.Context())
	}

	if err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, requests)
}

// GET /v1/requests/{id}
func (h *RequestHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.BadRequest(w, "request id is required")
		return
	}

	request, err := h.matchingService.GetRideRequest(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, request)
}

type cancelRequestRequest struct {
	PassengerID string `json:"passenger_id" validate:"required,uuid"`
}

// POST /v1/requests/{id}/cancel
func (h *RequestHandler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.BadRequest(w, "request id is required")
		return
	}

	var req cancelRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.BadRequest(w, err.Error())
		return
	}

	if err := h.matchingService.CancelRideRequest(r.Context(), id, req.PassengerID); err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, map[string]string{
		"status":  "cancelled",
		"message": "ride request cancelled",
	})
}

// GET /v1/requests/{id}/matches
func (h *RequestHandler) MatchingRides(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.BadRequest(w, "request id is required")
		return
	}

	rides, err := h.matchingService.FindMatchingRidesForRequest(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, rides)
}
