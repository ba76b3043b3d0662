package service

import (
	"context"
	"log"
	"time"

	"github.com/campool/campool/internal/cache"
	apperrors "github.com/campool/campool/internal/errors"
	"github.com/campool/campool/internal/models"
	"github.com/campool/campool/internal/notify"
	"github.com/campool/campool/internal/observability"
	"github.com/campool/campool/internal/repository"
)

type BookingService interface {
	BookSeat(ctx context.Context, req *models.CreateBookingRequest) (*models.Booking, error)
	CancelBooking(ctx context.Context, bookingID, passengerID string) error
	ConfirmBooking(ctx context.Context, bookingID, driverID string) error
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	HasBooked(ctx context.Context, passengerID, rideID string) (bool, error)
	BookingIDFor(ctx context.Context, passengerID, rideID string) (string, error)
	PendingBookingCount(ctx context.Context, driverID string) (int, error)
	BookingCountForPassenger(ctx context.Context, passengerID string) (int, error)
	GetPassengerBookings(ctx context.Context, passengerID string) ([]*models.Booking, error)
	GetRideBookings(ctx context.Context, rideID string) ([]*models.Booking, error)
	GetRidesBookedByPassenger(ctx context.Context, passengerID string) ([]*models.Ride, error)
}

type bookingService struct {
	bookingRepo repository.BookingRepository
	rideRepo    repository.RideRepository
	moderation  ModerationService
	seatCache   cache.AvailabilityCache
	publisher   notify.Publisher
	now         func() time.Time
}

func NewBookingService(
	bookingRepo repository.BookingRepository,
	rideRepo repository.RideRepository,
	moderation ModerationService,
	seatCache cache.AvailabilityCache,
	publisher notify.Publisher,
) BookingService {
	return &bookingService{
		bookingRepo: bookingRepo,
		rideRepo:    rideRepo,
		moderation:  moderation,
		seatCache:   seatCache,
		publisher:   publisher,
		now:         time.Now,
	}
}

// BookSeat reserves seats on a ride for a passenger. The reservation is
// immediate commitment: the booking starts as requested, meaning seats are
// held and the driver's confirmation is still outstanding. The seat
// decrement and the booking insert commit together or not at all.
func (s *bookingService) BookSeat(ctx context.Context, req *models.CreateBookingRequest) (*models.Booking, error) {
	passenger, err := s.moderation.CanPerformAction(ctx, req.PassengerID)
	if err != nil {
		s.countBooking("rejected")
		return nil, err
	}
	if !passenger.CanRide() {
		s.countBooking("rejected")
		return nil, apperrors.Forbidden("only passengers can book rides")
	}
	if req.Seats < 1 {
		s.countBooking("rejected")
		return nil, apperrors.Validation("must request at least 1 seat")
	}

	ride, err := s.rideRepo.GetByID(ctx, req.RideID)
	if err != nil {
		return nil, err
	}
	if ride == nil {
		s.countBooking("rejected")
		return nil, apperrors.NotFound("ride")
	}

	booking := &models.Booking{
		RideID:      req.RideID,
		PassengerID: req.PassengerID,
		Seats:       req.Seats,
	}

	// All remaining checks run inside the reservation transaction; the
	// sentinel errors map back to specific API failures here.
	if err := s.bookingRepo.CreateWithReservation(ctx, booking); err != nil {
		switch err {
		case apperrors.ErrNotFound:
			s.countBooking("rejected")
			return nil, apperrors.NotFound("ride")
		case apperrors.ErrRideNotActive:
			s.countBooking("rejected")
			return nil, apperrors.RideNotActive()
		case apperrors.ErrInsufficientSeats:
			s.countBooking("no_seats")
			return nil, apperrors.InsufficientSeats(ride.SeatsAvailable)
		case apperrors.ErrDuplicateBooking:
			s.countBooking("duplicate")
			return nil, apperrors.DuplicateBooking()
		default:
			return nil, err
		}
	}

	s.countBooking("ok")
	observability.SeatsReserved.Add(float64(req.Seats))
	s.invalidateSeatCache(ctx, req.RideID)

	s.publisher.Publish(ctx, notify.Event{
		Type:      notify.EventBookingCreated,
		SubjectID: booking.ID,
		ActorID:   req.PassengerID,
		RideID:    req.RideID,
	})

	return booking, nil
}

// CancelBooking cancels the passenger's own booking and returns its seats.
// A second cancel of the same booking is a conflict, never a second release.
func (s *bookingService) CancelBooking(ctx context.Context, bookingID, passengerID string) error {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking == nil {
		return apperrors.NotFound("booking")
	}
	if booking.PassengerID != passengerID {
		return apperrors.NotOwner("booking")
	}

	if err := s.bookingRepo.CancelWithRelease(ctx, bookingID); err != nil {
		switch err {
		case apperrors.ErrNotFound:
			return apperrors.NotFound("booking")
		case apperrors.ErrBookingNotActive:
			return apperrors.Conflict("booking is already cancelled")
		default:
			return err
		}
	}

	observability.SeatsReleased.Add(float64(booking.Seats))
	s.invalidateSeatCache(ctx, booking.RideID)

	s.publisher.Publish(ctx, notify.Event{
		Type:      notify.EventBookingCancelled,
		SubjectID: bookingID,
		ActorID:   passengerID,
		RideID:    booking.RideID,
	})
	return nil
}

// ConfirmBooking lets the ride's driver acknowledge a requested booking.
func (s *bookingService) ConfirmBooking(ctx context.Context, bookingID, driverID string) error {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking == nil {
		return apperrors.NotFound("booking")
	}

	ride, err := s.rideRepo.GetByID(ctx, booking.RideID)
	if err != nil {
		return err
	}
	if ride == nil {
		return apperrors.NotFound("ride")
	}
	if ride.DriverID != driverID {
		return apperrors.NotOwner("booking")
	}

	if !booking.CanTransitionTo(models.BookingStatusConfirmed) {
		return apperrors.InvalidTransition(booking.Status, models.BookingStatusConfirmed)
	}

	if err := s.bookingRepo.Confirm(ctx, bookingID); err != nil {
		if err == apperrors.ErrInvalidTransition {
			return apperrors.InvalidTransition(booking.Status, models.BookingStatusConfirmed)
		}
		return err
	}

	s.publisher.Publish(ctx, notify.Event{
		Type:      notify.EventBookingConfirmed,
		SubjectID: bookingID,
		ActorID:   driverID,
		RideID:    booking.RideID,
	})
	return nil
}

func (s *bookingService) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, apperrors.NotFound("booking")
	}
	return booking, nil
}

func (s *bookingService) HasBooked(ctx context.Context, passengerID, rideID string) (bool, error) {
	booking, err := s.bookingRepo.GetActiveByPassengerAndRide(ctx, passengerID, rideID)
	if err != nil {
		return false, err
	}
	return booking != nil, nil
}

func (s *bookingService) BookingIDFor(ctx context.Context, passengerID, rideID string) (string, error) {
	booking, err := s.bookingRepo.GetActiveByPassengerAndRide(ctx, passengerID, rideID)
	if err != nil {
		return "", err
	}
	if booking == nil {
		return "", apperrors.NotFound("booking")
	}
	return booking.ID, nil
}

func (s *bookingService) PendingBookingCount(ctx context.Context, driverID string) (int, error) {
	return s.bookingRepo.CountPendingByDriver(ctx, driverID)
}

func (s *bookingService) BookingCountForPassenger(ctx context.Context, passengerID string) (int, error) {
	return s.bookingRepo.CountByPassenger(ctx, passengerID)
}

func (s *bookingService) GetPassengerBookings(ctx context.Context, passengerID string) ([]*models.Booking, error) {
	return s.bookingRepo.GetByPassenger(ctx, passengerID)
}

func (s *bookingService) GetRideBookings(ctx context.Context, rideID string) ([]*models.Booking, error) {
	return s.bookingRepo.GetByRide(ctx, rideID)
}

// GetRidesBookedByPassenger resolves the passenger's active bookings to the
// still-active rides behind them. The ledger is authoritative; nothing is
// cached on the user record.
func (s *bookingService) GetRidesBookedByPassenger(ctx context.Context, passengerID string) ([]*models.Ride, error) {
	bookings, err := s.bookingRepo.GetByPassenger(ctx, passengerID)
	if err != nil {
		return nil, err
	}

	rides := make([]*models.Ride, 0, len(bookings))
	for _, booking := range bookings {
		if !booking.IsActive() {
			continue
		}
		ride, err := s.rideRepo.GetByID(ctx, booking.RideID)
		if err != nil {
			return nil, err
		}
		if ride != nil && ride.IsActive() {
			rides = append(rides, ride)
		}
	}
	return rides, nil
}

func (s *bookingService) countBooking(outcome string) {
	observability.BookingsTotal.WithLabelValues(outcome).Inc()
}

func (s *bookingService) invalidateSeatCache(ctx context.Context, rideID string) {
	if s.seatCache == nil {
		return
	}
	if err := s.seatCache.Invalidate(ctx, rideID); err != nil {
		log.Printf("failed to invalidate seat cache for ride %s: %v", rideID, err)
	}
}
