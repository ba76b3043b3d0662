package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/campool/campool/internal/cache"
	apperrors "github.com/campool/campool/internal/errors"
	"github.com/campool/campool/internal/models"
	"github.com/campool/campool/internal/notify"
	"github.com/campool/campool/internal/observability"
	"github.com/campool/campool/internal/repository"
)

type RideService interface {
	PostRide(ctx context.Context, req *models.CreateRideRequest) (*models.Ride, error)
	GetRide(ctx context.Context, id string) (*models.RideResponse, error)
	CancelRide(ctx context.Context, rideID, driverID string) error
	CompleteRide(ctx context.Context, rideID, driverID string) error
	GetAllActive(ctx context.Context) ([]*models.Ride, error)
	SearchByDestination(ctx context.Context, destination string) ([]*models.Ride, error)
	SearchByRoute(ctx context.Context, origin, destination string) ([]*models.Ride, error)
	SearchByDate(ctx context.Context, date time.Time) ([]*models.Ride, error)
	GetRidesByDriver(ctx context.Context, driverID string) ([]*models.Ride, error)
}

type rideService struct {
	rideRepo   repository.RideRepository
	userRepo   repository.UserRepository
	moderation ModerationService
	seatCache  cache.AvailabilityCache
	publisher  notify.Publisher
	now        func() time.Time
}

func NewRideService(
	rideRepo repository.RideRepository,
	userRepo repository.UserRepository,
	moderation ModerationService,
	seatCache cache.AvailabilityCache,
	publisher notify.Publisher,
) RideService {
	return &rideService{
		rideRepo:   rideRepo,
		userRepo:   userRepo,
		moderation: moderation,
		seatCache:  seatCache,
		publisher:  publisher,
		now:        time.Now,
	}
}

func (s *rideService) PostRide(ctx context.Context, req *models.CreateRideRequest) (*models.Ride, error) {
	driver, err := s.moderation.CanPerformAction(ctx, req.DriverID)
	if err != nil {
		return nil, err
	}
	if !driver.CanDrive() {
		return nil, apperrors.Forbidden("only drivers can post rides")
	}
	if !driver.HasValidVehicleInfo() {
		return nil, apperrors.Validation("driver profile is missing vehicle information")
	}

	origin := strings.TrimSpace(req.Origin)
	destination := strings.TrimSpace(req.Destination)
	if strings.EqualFold(origin, destination) {
		return nil, apperrors.Validation("origin and destination must differ")
	}

	departureAt, err := time.Parse(time.RFC3339, req.DepartureAt)
	if err != nil {
		return nil, apperrors.Validation("departure_at must be RFC 3339")
	}
	if departureAt.Before(s.now()) {
		return nil, apperrors.Validation("departure must not be in the past")
	}

	if req.Seats < models.MinSeatCapacity || req.Seats > *driver.SeatCapacity {
		return nil, apperrors.Validation(
			fmt.Sprintf("seats must be between %d and the declared capacity of %d",
				models.MinSeatCapacity, *driver.SeatCapacity))
	}
	if req.PricePerSeat < 0 {
		return nil, apperrors.Validation("price per seat must not be negative")
	}

	vehicleInfo := fmt.Sprintf("%s (%s)", *driver.VehicleModel, *driver.VehicleNumber)

	ride := &models.Ride{
		DriverID:       req.DriverID,
		Origin:         origin,
		Destination:    destination,
		DepartureAt:    departureAt,
		SeatsTotal:     req.Seats,
		SeatsAvailable: req.Seats,
		PricePerSeat:   req.PricePerSeat,
		VehicleInfo:    &vehicleInfo,
	}

	if err := s.rideRepo.Create(ctx, ride); err != nil {
		return nil, err
	}
	observability.RidesPosted.Inc()

	if s.seatCache != nil {
		if err := s.seatCache.SetAvailability(ctx, ride.ID, ride.SeatsAvailable); err != nil {
			log.Printf("failed to prime seat cache for ride %s: %v", ride.ID, err)
		}
	}

	s.publisher.Publish(ctx, notify.Event{
		Type:      notify.EventRidePosted,
		SubjectID: ride.ID,
		ActorID:   ride.DriverID,
		RideID:    ride.ID,
	})

	return ride, nil
}

func (s *rideService) GetRide(ctx context.Context, id string) (*models.RideResponse, error) {
	ride, err := s.rideRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ride == nil {
		return nil, apperrors.NotFound("ride")
	}

	response := ride.ToResponse()

	driver, err := s.userRepo.GetByID(ctx, ride.DriverID)
	if err == nil && driver != nil {
		response.Driver = driver.ToResponse()
	}

	return response, nil
}

// CancelRide moves an active ride to cancelled. Seats are not refunded to
// bookings here; affected passengers are resolved through the notification
// collaborator.
func (s *rideService) CancelRide(ctx context.Context, rideID, driverID string) error {
	ride, err := s.ownedActiveRide(ctx, rideID, driverID)
	if err != nil {
		return err
	}

	if err := s.rideRepo.UpdateStatus(ctx, rideID, models.RideStatusCancelled); err != nil {
		return err
	}

	if s.seatCache != nil {
		if err := s.seatCache.Invalidate(ctx, rideID); err != nil {
			log.Printf("failed to invalidate seat cache for ride %s: %v", rideID, err)
		}
	}

	s.publisher.Publish(ctx, notify.Event{
		Type:      notify.EventRideCancelled,
		SubjectID: ride.ID,
		ActorID:   driverID,
		RideID:    ride.ID,
	})
	return nil
}

func (s *rideService) CompleteRide(ctx context.Context, rideID, driverID string) error {
	_, err := s.ownedActiveRide(ctx, rideID, driverID)
	if err != nil {
		return err
	}
	return s.rideRepo.UpdateStatus(ctx, rideID, models.RideStatusCompleted)
}

func (s *rideService) ownedActiveRide(ctx context.Context, rideID, driverID string) (*models.Ride, error) {
	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride == nil {
		return nil, apperrors.NotFound("ride")
	}
	if ride.DriverID != driverID {
		return nil, apperrors.NotOwner("ride")
	}
	if !ride.IsActive() {
		return nil, apperrors.RideNotActive()
	}
	return ride, nil
}

func (s *rideService) GetAllActive(ctx context.Context) ([]*models.Ride, error) {
	return s.rideRepo.GetAllActive(ctx)
}

func (s *rideService) SearchByDestination(ctx context.Context, destination string) ([]*models.Ride, error) {
	return s.rideRepo.GetByDestination(ctx, destination)
}

func (s *rideService) SearchByRoute(ctx context.Context, origin, destination string) ([]*models.Ride, error) {
	return s.rideRepo.GetByRoute(ctx, origin, destination)
}

func (s *rideService) SearchByDate(ctx context.Context, date time.Time) ([]*models.Ride, error) {
	return s.rideRepo.GetByDate(ctx, date)
}

func (s *rideService) GetRidesByDriver(ctx context.Context, driverID string) ([]*models.Ride, error) {
	return s.rideRepo.GetByDriver(ctx, driverID)
}
