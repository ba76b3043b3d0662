package service

import (
	"context"
	"sync"
	"testing"
	"time"

	apperrors "github.com/campool/campool/internal/errors"
	"github.com/campool/campool/internal/models"
)

type bookingFixture struct {
	ctx      context.Context
	users    *fakeUserRepo
	rides    *fakeRideRepo
	bookings *fakeBookingRepo
	cache    *fakeSeatCache
	pub      *recordingPublisher
	svc      BookingService
}

func newBookingFixture() *bookingFixture {
	users := newFakeUserRepo()
	rides := newFakeRideRepo()
	bookings := newFakeBookingRepo(rides)
	reports := newFakeReportRepo()
	pub := &recordingPublisher{}
	seatCache := newFakeSeatCache()

	moderation := NewModerationService(users, reports, rides, pub)
	svc := NewBookingService(bookings, rides, moderation, seatCache, pub)

	return &bookingFixture{
		ctx:      context.Background(),
		users:    users,
		rides:    rides,
		bookings: bookings,
		cache:    seatCache,
		pub:      pub,
		svc:      svc,
	}
}

func asAPIError(t *testing.T, err error) *apperrors.APIError {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	apiErr, ok := err.(*apperrors.APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	return apiErr
}

func TestBookSeat(t *testing.T) {
	f := newBookingFixture()
	driver := seedDriver(f.ctx, f.users, "Driver", 4)
	passenger := seedPassenger(f.ctx, f.users, "Passenger")
	departure := time.Now().Add(24 * time.Hour)
	ride := seedRide(f.ctx, f.rides, driver.ID, "North Campus", "City Mall", departure, 3)

	booking, err := f.svc.BookSeat(f.ctx, &models.CreateBookingRequest{
		PassengerID: passenger.ID,
		RideID:      ride.ID,
		Seats:       2,
	})
	if err != nil {
		t.Fatalf("BookSeat() error = %v", err)
	}
	if booking.Status != models.BookingStatusRequested {
		t.Errorf("booking status = %q, want %q", booking.Status, models.BookingStatusRequested)
	}

	got, _ := f.rides.GetByID(f.ctx, ride.ID)
	if got.SeatsAvailable != 1 {
		t.Errorf("seats available = %d, want 1", got.SeatsAvailable)
	}

	if len(f.cache.invalidated) != 1 || f.cache.invalidated[0] != ride.ID {
		t.Errorf("expected seat cache invalidation for ride %s, got %v", ride.ID, f.cache.invalidated)
	}

	types := f.pub.eventTypes()
	if len(types) != 1 || types[0] != "booking.created" {
		t.Errorf("published events = %v, want [booking.created]", types)
	}
}

func TestBookSeatRejections(t *testing.T) {
	f := newBookingFixture()
	driver := seedDriver(f.ctx, f.users, "Driver", 4)
	passenger := seedPassenger(f.ctx, f.users, "Passenger")
	departure := time.Now().Add(24 * time.Hour)
	ride := seedRide(f.ctx, f.rides, driver.ID, "North Campus", "City Mall", departure, 2)

	cancelled := seedRide(f.ctx, f.rides, driver.ID, "Library", "Airport", departure, 2)
	f.rides.UpdateStatus(f.ctx, cancelled.ID, models.RideStatusCancelled)

	until := time.Now().Add(48 * time.Hour)
	blocked := seedPassenger(f.ctx, f.users, "Blocked")
	f.users.UpdateTrust(f.ctx, blocked.ID, 3, &until)

	tests := []struct {
		name        string
		passengerID string
		rideID      string
		seats       int
		wantCode    string
	}{
		{"unknown passenger", "no-such-user", ride.ID, 1, "not_found"},
		{"blacklisted passenger", blocked.ID, ride.ID, 1, "blacklisted"},
		{"driver cannot book", driver.ID, ride.ID, 1, "forbidden"},
		{"zero seats", passenger.ID, ride.ID, 0, "validation_error"},
		{"unknown ride", passenger.ID, "no-such-ride", 1, "not_found"},
		{"cancelled ride", passenger.ID, cancelled.ID, 1, "ride_not_active"},
		{"too many seats", passenger.ID, ride.ID, 3, "insufficient_seats"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.BookSeat(f.ctx, &models.CreateBookingRequest{
				PassengerID: tt.passengerID,
				RideID:      tt.rideID,
				Seats:       tt.seats,
			})
			apiErr := asAPIError(t, err)
			if apiErr.Code != tt.wantCode {
				t.Errorf("error code = %q, want %q", apiErr.Code, tt.wantCode)
			}
		})
	}

	// None of the rejections should have touched the inventory.
	got, _ := f.rides.GetByID(f.ctx, ride.ID)
	if got.SeatsAvailable != 2 {
		t.Errorf("seats available = %d, want 2 after rejected bookings", got.SeatsAvailable)
	}
}

func TestBookSeatDuplicate(t *testing.T) {
	f := newBookingFixture()
	driver := seedDriver(f.ctx, f.users, "Driver", 4)
	passenger := seedPassenger(f.ctx, f.users, "Passenger")
	ride := seedRide(f.ctx, f.rides, driver.ID, "North Campus", "City Mall", time.Now().Add(24*time.Hour), 4)

	first, err := f.svc.BookSeat(f.ctx, &models.CreateBookingRequest{
		PassengerID: passenger.ID, RideID: ride.ID, Seats: 1,
	})
	if err != nil {
		t.Fatalf("first BookSeat() error = %v", err)
	}

	_, err = f.svc.BookSeat(f.ctx, &models.CreateBookingRequest{
		PassengerID: passenger.ID, RideID: ride.ID, Seats: 1,
	})
	if apiErr := asAPIError(t, err); apiErr.Code != "duplicate_booking" {
		t.Fatalf("second booking error code = %q, want duplicate_booking", apiErr.Code)
	}

	// Cancelling clears the pair, so booking again is allowed.
	if err := f.svc.CancelBooking(f.ctx, first.ID, passenger.ID); err != nil {
		t.Fatalf("CancelBooking() error = %v", err)
	}
	if _, err := f.svc.BookSeat(f.ctx, &models.CreateBookingRequest{
		PassengerID: passenger.ID, RideID: ride.ID, Seats: 1,
	}); err != nil {
		t.Fatalf("rebooking after cancel error = %v", err)
	}
}

func TestCancelBooking(t *testing.T) {
	f := newBookingFixture()
	driver := seedDriver(f.ctx, f.users, "Driver", 4)
	passenger := seedPassenger(f.ctx, f.users, "Passenger")
	other := seedPassenger(f.ctx, f.users, "Other")
	ride := seedRide(f.ctx, f.rides, driver.ID, "North Campus", "City Mall", time.Now().Add(24*time.Hour), 3)

	booking, err := f.svc.BookSeat(f.ctx, &models.CreateBookingRequest{
		PassengerID: passenger.ID, RideID: ride.ID, Seats: 2,
	})
	if err != nil {
		t.Fatalf("BookSeat() error = %v", err)
	}

	if err := f.svc.CancelBooking(f.ctx, booking.ID, other.ID); err != nil {
		if apiErr := asAPIError(t, err); apiErr.Code != "forbidden" {
			t.Errorf("foreign cancel error code = %q, want forbidden", apiErr.Code)
		}
	} else {
		t.Error("expected foreign cancel to fail")
	}

	if err := f.svc.CancelBooking(f.ctx, booking.ID, passenger.ID); err != nil {
		t.Fatalf("CancelBooking() error = %v", err)
	}

	got, _ := f.rides.GetByID(f.ctx, ride.ID)
	if got.SeatsAvailable != 3 {
		t.Errorf("seats available = %d, want 3 after cancel", got.SeatsAvailable)
	}

	// A second cancel must not release seats again.
	err = f.svc.CancelBooking(f.ctx, booking.ID, passenger.ID)
	if apiErr := asAPIError(t, err); apiErr.Code != "conflict" {
		t.Errorf("double cancel error code = %q, want conflict", apiErr.Code)
	}
	got, _ = f.rides.GetByID(f.ctx, ride.ID)
	if got.SeatsAvailable != 3 {
		t.Errorf("seats available = %d, want 3 after double cancel", got.SeatsAvailable)
	}
}

func TestBookCancelCyclesKeepInventoryStable(t *testing.T) {
	f := newBookingFixture()
	driver := seedDriver(f.ctx, f.users, "Driver", 4)
	passenger := seedPassenger(f.ctx, f.users, "Passenger")
	ride := seedRide(f.ctx, f.rides, driver.ID, "North Campus", "City Mall", time.Now().Add(24*time.Hour), 4)

	for i := 0; i < 25; i++ {
		booking, err := f.svc.BookSeat(f.ctx, &models.CreateBookingRequest{
			PassengerID: passenger.ID, RideID: ride.ID, Seats: 2,
		})
		if err != nil {
			t.Fatalf("cycle %d: BookSeat() error = %v", i, err)
		}
		if err := f.svc.CancelBooking(f.ctx, booking.ID, passenger.ID); err != nil {
			t.Fatalf("cycle %d: CancelBooking() error = %v", i, err)
		}
	}

	got, _ := f.rides.GetByID(f.ctx, ride.ID)
	if got.SeatsAvailable != 4 {
		t.Errorf("seats available = %d, want 4 after 25 book/cancel cycles", got.SeatsAvailable)
	}
}

func TestConcurrentBookingsNeverOversell(t *testing.T) {
	f := newBookingFixture()
	driver := seedDriver(f.ctx, f.users, "Driver", 4)
	ride := seedRide(f.ctx, f.rides, driver.ID, "North Campus", "City Mall", time.Now().Add(24*time.Hour), 3)

	passengers := make([]*models.User, 8)
	for i := range passengers {
		passengers[i] = seedPassenger(f.ctx, f.users, "Passenger")
	}

	var wg sync.WaitGroup
	results := make([]error, len(passengers))
	for i, p := range passengers {
		wg.Add(1)
		go func(i int, passengerID string) {
			defer wg.Done()
			_, err := f.svc.BookSeat(f.ctx, &models.CreateBookingRequest{
				PassengerID: passengerID, RideID: ride.ID, Seats: 1,
			})
			results[i] = err
		}(i, p.ID)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		}
	}
	if succeeded != 3 {
		t.Fatalf("%d bookings succeeded, want exactly 3", succeeded)
	}

	got, _ := f.rides.GetByID(f.ctx, ride.ID)
	if got.SeatsAvailable != 0 {
		t.Errorf("seats available = %d, want 0", got.SeatsAvailable)
	}

	// Freeing one seat makes room for exactly one more passenger.
	var holder *models.Booking
	bookings, _ := f.bookings.GetByRide(f.ctx, ride.ID)
	for _, b := range bookings {
		if b.IsActive() {
			holder = b
			break
		}
	}
	if holder == nil {
		t.Fatal("no active booking found")
	}
	if err := f.svc.CancelBooking(f.ctx, holder.ID, holder.PassengerID); err != nil {
		t.Fatalf("CancelBooking() error = %v", err)
	}

	late := seedPassenger(f.ctx, f.users, "Late")
	if _, err := f.svc.BookSeat(f.ctx, &models.CreateBookingRequest{
		PassengerID: late.ID, RideID: ride.ID, Seats: 1,
	}); err != nil {
		t.Fatalf("booking the freed seat error = %v", err)
	}
}

func TestConfirmBooking(t *testing.T) {
	f := newBookingFixture()
	driver := seedDriver(f.ctx, f.users, "Driver", 4)
	stranger := seedDriver(f.ctx, f.users, "Stranger", 4)
	passenger := seedPassenger(f.ctx, f.users, "Passenger")
	ride := seedRide(f.ctx, f.rides, driver.ID, "North Campus", "City Mall", time.Now().Add(24*time.Hour), 3)

	booking, err := f.svc.BookSeat(f.ctx, &models.CreateBookingRequest{
		PassengerID: passenger.ID, RideID: ride.ID, Seats: 1,
	})
	if err != nil {
		t.Fatalf("BookSeat() error = %v", err)
	}

	err = f.svc.ConfirmBooking(f.ctx, booking.ID, stranger.ID)
	if apiErr := asAPIError(t, err); apiErr.Code != "forbidden" {
		t.Errorf("foreign confirm error code = %q, want forbidden", apiErr.Code)
	}

	if err := f.svc.ConfirmBooking(f.ctx, booking.ID, driver.ID); err != nil {
		t.Fatalf("ConfirmBooking() error = %v", err)
	}
	got, _ := f.bookings.GetByID(f.ctx, booking.ID)
	if got.Status != models.BookingStatusConfirmed {
		t.Errorf("booking status = %q, want %q", got.Status, models.BookingStatusConfirmed)
	}

	// Confirming twice is an invalid transition.
	err = f.svc.ConfirmBooking(f.ctx, booking.ID, driver.ID)
	if apiErr := asAPIError(t, err); apiErr.Code != "invalid_transition" {
		t.Errorf("double confirm error code = %q, want invalid_transition", apiErr.Code)
	}

	// A confirmed booking still releases its seats on cancel.
	if err := f.svc.CancelBooking(f.ctx, booking.ID, passenger.ID); err != nil {
		t.Fatalf("cancel of confirmed booking error = %v", err)
	}
	ride2, _ := f.rides.GetByID(f.ctx, ride.ID)
	if ride2.SeatsAvailable != 3 {
		t.Errorf("seats available = %d, want 3", ride2.SeatsAvailable)
	}
}

func TestGetRidesBookedByPassenger(t *testing.T) {
	f := newBookingFixture()
	driver := seedDriver(f.ctx, f.users, "Driver", 4)
	passenger := seedPassenger(f.ctx, f.users, "Passenger")
	departure := time.Now().Add(24 * time.Hour)

	active := seedRide(f.ctx, f.rides, driver.ID, "North Campus", "City Mall", departure, 2)
	toCancel := seedRide(f.ctx, f.rides, driver.ID, "Library", "Airport", departure, 2)

	if _, err := f.svc.BookSeat(f.ctx, &models.CreateBookingRequest{
		PassengerID: passenger.ID, RideID: active.ID, Seats: 1,
	}); err != nil {
		t.Fatalf("BookSeat() error = %v", err)
	}
	if _, err := f.svc.BookSeat(f.ctx, &models.CreateBookingRequest{
		PassengerID: passenger.ID, RideID: toCancel.ID, Seats: 1,
	}); err != nil {
		t.Fatalf("BookSeat() error = %v", err)
	}

	// Rides that are no longer active drop out of the view.
	f.rides.UpdateStatus(f.ctx, toCancel.ID, models.RideStatusCancelled)

	rides, err := f.svc.GetRidesBookedByPassenger(f.ctx, passenger.ID)
	if err != nil {
		t.Fatalf("GetRidesBookedByPassenger() error = %v", err)
	}
	if len(rides) != 1 || rides[0].ID != active.ID {
		t.Errorf("got %d rides, want only %s", len(rides), active.ID)
	}
}

func TestHasBookedAndBookingIDFor(t *testing.T) {
	f := newBookingFixture()
	driver := seedDriver(f.ctx, f.users, "Driver", 4)
	passenger := seedPassenger(f.ctx, f.users, "Passenger")
	ride := seedRide(f.ctx, f.rides, driver.ID, "North Campus", "City Mall", time.Now().Add(24*time.Hour), 2)

	booked, err := f.svc.HasBooked(f.ctx, passenger.ID, ride.ID)
	if err != nil || booked {
		t.Fatalf("HasBooked() = %v, %v; want false, nil", booked, err)
	}

	booking, err := f.svc.BookSeat(f.ctx, &models.CreateBookingRequest{
		PassengerID: passenger.ID, RideID: ride.ID, Seats: 1,
	})
	if err != nil {
		t.Fatalf("BookSeat() error = %v", err)
	}

	booked, _ = f.svc.HasBooked(f.ctx, passenger.ID, ride.ID)
	if !booked {
		t.Error("HasBooked() = false after booking")
	}

	id, err := f.svc.BookingIDFor(f.ctx, passenger.ID, ride.ID)
	if err != nil || id != booking.ID {
		t.Errorf("BookingIDFor() = %q, %v; want %q", id, err, booking.ID)
	}

	if err := f.svc.CancelBooking(f.ctx, booking.ID, passenger.ID); err != nil {
		t.Fatalf("CancelBooking() error = %v", err)
	}
	booked, _ = f.svc.HasBooked(f.ctx, passenger.ID, ride.ID)
	if booked {
		t.Error("HasBooked() = true after cancel")
	}
}
