package service

import (
	"context"
	"sort"
	"strings"
	"time"

	apperrors "github.com/campool/campool/internal/errors"
	"github.com/campool/campool/internal/models"
	"github.com/campool/campool/internal/notify"
	"github.com/campool/campool/internal/observability"
	"github.com/campool/campool/internal/repository"
)

// maxTimeDifference is the widest gap between a request's preferred time
// and a ride's departure that still counts as time-compatible.
const maxTimeDifference = 120 * time.Minute

// MatchesRide reports whether a request and a ride share a route and a
// calendar date. Route comparison is case-insensitive exact equality on
// both endpoints; no substring or proximity matching, no date fuzzing.
func MatchesRide(request *models.RideRequest, ride *models.Ride) bool {
	if !ride.SameRoute(request.Origin, request.Destination) {
		return false
	}
	return ride.DepartureDate().Equal(request.PreferredDate())
}

// IsTimeCompatible compares only the time of day of the preferred and
// departure instants; the calendar date is MatchesRide's concern.
func IsTimeCompatible(request *models.RideRequest, ride *models.Ride) bool {
	diff := minutesOfDay(request.PreferredAt) - minutesOfDay(ride.DepartureAt)
	if diff < 0 {
		diff = -diff
	}
	return time.Duration(diff)*time.Minute <= maxTimeDifference
}

func minutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// CanBeFulfilledBy reports whether the ride could satisfy the request right
// now: matching route and date, enough open seats, and both sides in their
// matchable state.
func CanBeFulfilledBy(request *models.RideRequest, ride *models.Ride) bool {
	if !MatchesRide(request, ride) {
		return false
	}
	if ride.SeatsAvailable < request.Seats {
		return false
	}
	return ride.IsActive() && request.IsPending()
}

type MatchingService interface {
	PostRideRequest(ctx context.Context, req *models.CreateRideRequestRequest) (*models.RideRequest, error)
	CancelRideRequest(ctx context.Context, requestID, passengerID string) error
	GetRideRequest(ctx context.Context, id string) (*models.RideRequest, error)
	GetPendingRequests(ctx context.Context) ([]*models.RideRequest, error)
	GetRequestsByPassenger(ctx context.Context, passengerID string) ([]*models.RideRequest, error)
	FindMatchingRidesForRequest(ctx context.Context, requestID string) ([]*models.Ride, error)
	FindMatchingRequestsForRide(ctx context.Context, rideID string) ([]*models.RideRequest, error)
	// NotifyMatchesForRide is the best-effort scan run after a ride is
	// posted; it only surfaces candidates, it never books anything.
	NotifyMatchesForRide(ctx context.Context, rideID string)
}

type matchingService struct {
	requestRepo repository.RideRequestRepository
	rideRepo    repository.RideRepository
	moderation  ModerationService
	publisher   notify.Publisher
	now         func() time.Time
}

func NewMatchingService(
	requestRepo repository.RideRequestRepository,
	rideRepo repository.RideRepository,
	moderation ModerationService,
	publisher notify.Publisher,
) MatchingService {
	return &matchingService{
		requestRepo: requestRepo,
		rideRepo:    rideRepo,
		moderation:  moderation,
		publisher:   publisher,
		now:         time.Now,
	}
}

func (s *matchingService) PostRideRequest(ctx context.Context, req *models.CreateRideRequestRequest) (*models.RideRequest, error) {
	passenger, err := s.moderation.CanPerformAction(ctx, req.PassengerID)
	if err != nil {
		return nil, err
	}
	if !passenger.CanRide() {
		return nil, apperrors.Forbidden("only passengers can post ride requests")
	}

	origin := strings.TrimSpace(req.Origin)
	destination := strings.TrimSpace(req.Destination)
	if strings.EqualFold(origin, destination) {
		return nil, apperrors.Validation("origin and destination must differ")
	}

	preferredAt, err := time.Parse(time.RFC3339, req.PreferredAt)
	if err != nil {
		return nil, apperrors.Validation("preferred_at must be RFC 3339")
	}
	if preferredAt.Before(s.now()) {
		return nil, apperrors.Validation("preferred time must not be in the past")
	}

	request := &models.RideRequest{
		PassengerID: req.PassengerID,
		Origin:      origin,
		Destination: destination,
		PreferredAt: preferredAt,
		Seats:       req.Seats,
	}
	if req.Notes != "" {
		notes := req.Notes
		request.Notes = &notes
	}

	if err := s.requestRepo.Create(ctx, request); err != nil {
		return nil, err
	}
	return request, nil
}

func (s *matchingService) CancelRideRequest(ctx context.Context, requestID, passengerID string) error {
	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if request == nil {
		return apperrors.NotFound("ride request")
	}
	if request.PassengerID != passengerID {
		return apperrors.NotOwner("ride request")
	}

	if err := s.requestRepo.CancelPending(ctx, requestID); err != nil {
		if err == apperrors.ErrRequestNotPending {
			return apperrors.Conflict("ride request is no longer pending")
		}
		return err
	}
	return nil
}

func (s *matchingService) GetRideRequest(ctx context.Context, id string) (*models.RideRequest, error) {
	request, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, apperrors.NotFound("ride request")
	}
	return request, nil
}

func (s *matchingService) GetPendingRequests(ctx context.Context) ([]*models.RideRequest, error) {
	return s.requestRepo.GetPending(ctx)
}

func (s *matchingService) GetRequestsByPassenger(ctx context.Context, passengerID string) ([]*models.RideRequest, error) {
	return s.requestRepo.GetByPassenger(ctx, passengerID)
}

func (s *matchingService) FindMatchingRidesForRequest(ctx context.Context, requestID string) ([]*models.Ride, error) {
	request, err := s.GetRideRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	rides, err := s.rideRepo.GetAllActive(ctx)
	if err != nil {
		return nil, err
	}

	matches := make([]*models.Ride, 0)
	for _, ride := range rides {
		if CanBeFulfilledBy(request, ride) {
			matches = append(matches, ride)
		}
	}

	// Deterministic order for a given catalog snapshot.
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })
	observability.MatchesFound.Add(float64(len(matches)))
	return matches, nil
}

func (s *matchingService) FindMatchingRequestsForRide(ctx context.Context, rideID string) ([]*models.RideRequest, error) {
	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride == nil {
		return nil, apperrors.NotFound("ride")
	}

	requests, err := s.requestRepo.GetPending(ctx)
	if err != nil {
		return nil, err
	}

	matches := make([]*models.RideRequest, 0)
	for _, request := range requests {
		if CanBeFulfilledBy(request, ride) {
			matches = append(matches, request)
		}
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })
	observability.MatchesFound.Add(float64(len(matches)))
	return matches, nil
}

func (s *matchingService) NotifyMatchesForRide(ctx context.Context, rideID string) {
	matches, err := s.FindMatchingRequestsForRide(ctx, rideID)
	if err != nil {
		return
	}

	for _, request := range matches {
		s.publisher.Publish(ctx, notify.Event{
			Type:      notify.EventRequestMatched,
			SubjectID: request.ID,
			ActorID:   request.PassengerID,
			RideID:    rideID,
		})
	}
}
