package handler

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/campool/campool/internal/errors"
	"github.com/campool/campool/internal/models"
	"github.com/campool/campool/internal/repository"
	"github.com/campool/campool/pkg/utils"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type UserHandler struct {
	userRepo repository.UserRepository
	validate *validator.Validate
}

func NewUserHandler(userRepo repository.UserRepository) *UserHandler {
	return &UserHandler{
		userRepo: userRepo,
		validate: validator.New(),
	}
}

func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Post("/users", h.CreateUser)
	r.Get("/users/{id}", h.GetUser)
}

// POST /v1/users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		utils.BadRequest(w, err.Error())
		return
	}

	if req.Email != "" {
		existing, err := h.userRepo.GetByEmail(r.Context(), req.Email)
		if err != nil {
			utils.InternalError(w, "failed to check existing user")
			return
		}
		if existing != nil {
			utils.Error(w, apperrors.Conflict("user with this email already exists"))
			return
		}
	}

	user := &models.User{
		Name: req.Name,
		Role: req.Role,
	}
	if req.Email != "" {
		user.Email = &req.Email
	}
	if req.PreferredDestination != "" {
		user.PreferredDestination = &req.PreferredDestination
	}

	if req.Role == models.RoleDriver || req.Role == models.RoleBoth {
		if req.LicenseNumber == "" || req.VehicleModel == "" || req.VehicleNumber == "" || req.SeatCapacity == 0 {
			utils.BadRequest(w, "drivers must provide license, vehicle and seat capacity")
			return
		}
		user.LicenseNumber = &req.LicenseNumber
		user.VehicleModel = &req.VehicleModel
		user.VehicleNumber = &req.VehicleNumber
		capacity := req.SeatCapacity
		user.SeatCapacity = &capacity
	}

	if err := h.userRepo.Create(r.Context(), user); err != nil {
		utils.InternalError(w, "failed to create user")
		return
	}

	utils.Created(w, user.ToResponse())
}

// GET /v1/users/{id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.BadRequest(w, "user id is required")
		return
	}

	user, err := h.userRepo.GetByID(r.Context(), id)
	if err != nil {
		utils.InternalError(w, "failed to load user")
		return
	}
	if user == nil {
		utils.NotFound(w, "user")
		return
	}

	utils.Success(w, http.StatusOK, user.ToResponse())
}
