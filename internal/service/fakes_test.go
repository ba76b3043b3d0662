package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	apperrors "github.com/campool/campool/internal/errors"
	"github.com/campool/campool/internal/models"
	"github.com/campool/campool/internal/notify"
)

// In-memory repository fakes. The booking fake shares the ride fake's store
// so its transactional guarantees (check, decrement, insert under one lock)
// mirror the real implementation.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
	seq   int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user.ID == "" {
		f.seq++
		user.ID = fmt.Sprintf("user-%03d", f.seq)
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	cp := *user
	return &cp, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email != nil && strings.EqualFold(*user.Email, email) {
			cp := *user
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserRepo) UpdateTrust(ctx context.Context, id string, warnings int, blacklistedUntil *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	user.Warnings = warnings
	user.BlacklistedTo = blacklistedUntil
	return nil
}

func (f *fakeUserRepo) UpdateRating(ctx context.Context, id string, rating float64, ratingCount int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	user.Rating = rating
	user.RatingCount = ratingCount
	return nil
}

type fakeRideRepo struct {
	mu    sync.Mutex
	rides map[string]*models.Ride
	seq   int
}

func newFakeRideRepo() *fakeRideRepo {
	return &fakeRideRepo{rides: make(map[string]*models.Ride)}
}

func (f *fakeRideRepo) Create(ctx context.Context, ride *models.Ride) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ride.ID == "" {
		f.seq++
		ride.ID = fmt.Sprintf("ride-%03d", f.seq)
	}
	ride.Status = models.RideStatusActive
	ride.CreatedAt = time.Now()
	ride.UpdatedAt = time.Now()
	cp := *ride
	f.rides[ride.ID] = &cp
	return nil
}

func (f *fakeRideRepo) GetByID(ctx context.Context, id string) (*models.Ride, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ride, ok := f.rides[id]
	if !ok {
		return nil, nil
	}
	cp := *ride
	return &cp, nil
}

func (f *fakeRideRepo) UpdateStatus(ctx context.Context, id, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ride, ok := f.rides[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	ride.Status = status
	return nil
}

func (f *fakeRideRepo) ReserveSeats(ctx context.Context, id string, seats int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reserveLocked(id, seats)
}

// reserveLocked applies the conditional decrement; callers hold f.mu.
func (f *fakeRideRepo) reserveLocked(id string, seats int) error {
	ride, ok := f.rides[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if !ride.IsActive() {
		return apperrors.ErrRideNotActive
	}
	if ride.SeatsAvailable < seats {
		return apperrors.ErrInsufficientSeats
	}
	ride.SeatsAvailable -= seats
	return nil
}

func (f *fakeRideRepo) ReleaseSeats(ctx context.Context, id string, seats int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.releaseLocked(id, seats)
}

func (f *fakeRideRepo) releaseLocked(id string, seats int) error {
	ride, ok := f.rides[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	ride.SeatsAvailable += seats
	if ride.SeatsAvailable > ride.SeatsTotal {
		ride.SeatsAvailable = ride.SeatsTotal
	}
	return nil
}

func (f *fakeRideRepo) GetAllActive(ctx context.Context) ([]*models.Ride, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rides := make([]*models.Ride, 0)
	for _, ride := range f.rides {
		if ride.IsActive() {
			cp := *ride
			rides = append(rides, &cp)
		}
	}
	sort.Slice(rides, func(i, j int) bool { return rides[i].ID < rides[j].ID })
	return rides, nil
}

func (f *fakeRideRepo) GetByDestination(ctx context.Context, destination string) ([]*models.Ride, error) {
	all, _ := f.GetAllActive(ctx)
	rides := make([]*models.Ride, 0)
	for _, ride := range all {
		if strings.EqualFold(ride.Destination, destination) {
			rides = append(rides, ride)
		}
	}
	return rides, nil
}

func (f *fakeRideRepo) GetByRoute(ctx context.Context, origin, destination string) ([]*models.Ride, error) {
	all, _ := f.GetAllActive(ctx)
	rides := make([]*models.Ride, 0)
	for _, ride := range all {
		if ride.SameRoute(origin, destination) {
			rides = append(rides, ride)
		}
	}
	return rides, nil
}

func (f *fakeRideRepo) GetByDate(ctx context.Context, date time.Time) ([]*models.Ride, error) {
	all, _ := f.GetAllActive(ctx)
	y, m, d := date.Date()
	want := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	rides := make([]*models.Ride, 0)
	for _, ride := range all {
		if ride.DepartureDate().Equal(want) {
			rides = append(rides, ride)
		}
	}
	return rides, nil
}

func (f *fakeRideRepo) GetByDriver(ctx context.Context, driverID string) ([]*models.Ride, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rides := make([]*models.Ride, 0)
	for _, ride := range f.rides {
		if ride.DriverID == driverID {
			cp := *ride
			rides = append(rides, &cp)
		}
	}
	sort.Slice(rides, func(i, j int) bool { return rides[i].ID < rides[j].ID })
	return rides, nil
}

type fakeBookingRepo struct {
	rides    *fakeRideRepo
	bookings map[string]*models.Booking
	seq      int
}

func newFakeBookingRepo(rides *fakeRideRepo) *fakeBookingRepo {
	return &fakeBookingRepo{rides: rides, bookings: make(map[string]*models.Booking)}
}

func (f *fakeBookingRepo) CreateWithReservation(ctx context.Context, booking *models.Booking) error {
	f.rides.mu.Lock()
	defer f.rides.mu.Unlock()

	for _, existing := range f.bookings {
		if existing.PassengerID == booking.PassengerID &&
			existing.RideID == booking.RideID && existing.IsActive() {
			return apperrors.ErrDuplicateBooking
		}
	}

	if err := f.rides.reserveLocked(booking.RideID, booking.Seats); err != nil {
		return err
	}

	f.seq++
	booking.ID = fmt.Sprintf("booking-%03d", f.seq)
	booking.Status = models.BookingStatusRequested
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = time.Now()
	cp := *booking
	f.bookings[booking.ID] = &cp
	return nil
}

func (f *fakeBookingRepo) CancelWithRelease(ctx context.Context, bookingID string) error {
	f.rides.mu.Lock()
	defer f.rides.mu.Unlock()

	booking, ok := f.bookings[bookingID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if !booking.IsActive() {
		return apperrors.ErrBookingNotActive
	}

	booking.Status = models.BookingStatusCancelled
	return f.rides.releaseLocked(booking.RideID, booking.Seats)
}

func (f *fakeBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	f.rides.mu.Lock()
	defer f.rides.mu.Unlock()
	booking, ok := f.bookings[id]
	if !ok {
		return nil, nil
	}
	cp := *booking
	return &cp, nil
}

func (f *fakeBookingRepo) GetActiveByPassengerAndRide(ctx context.Context, passengerID, rideID string) (*models.Booking, error) {
	f.rides.mu.Lock()
	defer f.rides.mu.Unlock()
	for _, booking := range f.bookings {
		if booking.PassengerID == passengerID && booking.RideID == rideID && booking.IsActive() {
			cp := *booking
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeBookingRepo) GetByPassenger(ctx context.Context, passengerID string) ([]*models.Booking, error) {
	f.rides.mu.Lock()
	defer f.rides.mu.Unlock()
	bookings := make([]*models.Booking, 0)
	for _, booking := range f.bookings {
		if booking.PassengerID == passengerID {
			cp := *booking
			bookings = append(bookings, &cp)
		}
	}
	sort.Slice(bookings, func(i, j int) bool { return bookings[i].ID < bookings[j].ID })
	return bookings, nil
}

func (f *fakeBookingRepo) GetByRide(ctx context.Context, rideID string) ([]*models.Booking, error) {
	f.rides.mu.Lock()
	defer f.rides.mu.Unlock()
	bookings := make([]*models.Booking, 0)
	for _, booking := range f.bookings {
		if booking.RideID == rideID {
			cp := *booking
			bookings = append(bookings, &cp)
		}
	}
	sort.Slice(bookings, func(i, j int) bool { return bookings[i].ID < bookings[j].ID })
	return bookings, nil
}

func (f *fakeBookingRepo) Confirm(ctx context.Context, id string) error {
	f.rides.mu.Lock()
	defer f.rides.mu.Unlock()
	booking, ok := f.bookings[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if booking.Status != models.BookingStatusRequested {
		return apperrors.ErrInvalidTransition
	}
	booking.Status = models.BookingStatusConfirmed
	return nil
}

func (f *fakeBookingRepo) CountPendingByDriver(ctx context.Context, driverID string) (int, error) {
	f.rides.mu.Lock()
	defer f.rides.mu.Unlock()
	count := 0
	for _, booking := range f.bookings {
		if booking.Status != models.BookingStatusRequested {
			continue
		}
		ride, ok := f.rides.rides[booking.RideID]
		if ok && ride.DriverID == driverID {
			count++
		}
	}
	return count, nil
}

func (f *fakeBookingRepo) CountByPassenger(ctx context.Context, passengerID string) (int, error) {
	f.rides.mu.Lock()
	defer f.rides.mu.Unlock()
	count := 0
	for _, booking := range f.bookings {
		if booking.PassengerID == passengerID {
			count++
		}
	}
	return count, nil
}

type fakeRequestRepo struct {
	mu       sync.Mutex
	requests map[string]*models.RideRequest
	seq      int
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: make(map[string]*models.RideRequest)}
}

func (f *fakeRequestRepo) Create(ctx context.Context, request *models.RideRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if request.ID == "" {
		f.seq++
		request.ID = fmt.Sprintf("request-%03d", f.seq)
	}
	request.Status = models.RequestStatusPending
	request.CreatedAt = time.Now()
	request.UpdatedAt = time.Now()
	cp := *request
	f.requests[request.ID] = &cp
	return nil
}

func (f *fakeRequestRepo) GetByID(ctx context.Context, id string) (*models.RideRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	request, ok := f.requests[id]
	if !ok {
		return nil, nil
	}
	cp := *request
	return &cp, nil
}

func (f *fakeRequestRepo) UpdateStatus(ctx context.Context, id, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	request, ok := f.requests[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	request.Status = status
	return nil
}

func (f *fakeRequestRepo) CancelPending(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	request, ok := f.requests[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if !request.IsPending() {
		return apperrors.ErrRequestNotPending
	}
	request.Status = models.RequestStatusCancelled
	return nil
}

func (f *fakeRequestRepo) GetPending(ctx context.Context) ([]*models.RideRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	requests := make([]*models.RideRequest, 0)
	for _, request := range f.requests {
		if request.IsPending() {
			cp := *request
			requests = append(requests, &cp)
		}
	}
	sort.Slice(requests, func(i, j int) bool { return requests[i].ID < requests[j].ID })
	return requests, nil
}

func (f *fakeRequestRepo) GetByPassenger(ctx context.Context, passengerID string) ([]*models.RideRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	requests := make([]*models.RideRequest, 0)
	for _, request := range f.requests {
		if request.PassengerID == passengerID {
			cp := *request
			requests = append(requests, &cp)
		}
	}
	sort.Slice(requests, func(i, j int) bool { return requests[i].ID < requests[j].ID })
	return requests, nil
}

type fakeReportRepo struct {
	mu      sync.Mutex
	reports map[string]*models.Report
	seq     int
}

func newFakeReportRepo() *fakeReportRepo {
	return &fakeReportRepo{reports: make(map[string]*models.Report)}
}

func (f *fakeReportRepo) Create(ctx context.Context, report *models.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if report.ID == "" {
		f.seq++
		report.ID = fmt.Sprintf("report-%03d", f.seq)
	}
	report.Status = models.ReportStatusPending
	report.CreatedAt = time.Now()
	report.UpdatedAt = time.Now()
	cp := *report
	f.reports[report.ID] = &cp
	return nil
}

func (f *fakeReportRepo) GetByID(ctx context.Context, id string) (*models.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	report, ok := f.reports[id]
	if !ok {
		return nil, nil
	}
	cp := *report
	return &cp, nil
}

func (f *fakeReportRepo) UpdateStatus(ctx context.Context, id, status string, notes *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	report, ok := f.reports[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	report.Status = status
	if notes != nil {
		report.AdminNotes = notes
	}
	return nil
}

func (f *fakeReportRepo) GetPending(ctx context.Context) ([]*models.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	reports := make([]*models.Report, 0)
	for _, report := range f.reports {
		if report.Status == models.ReportStatusPending {
			cp := *report
			reports = append(reports, &cp)
		}
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].ID < reports[j].ID })
	return reports, nil
}

func (f *fakeReportRepo) GetByReportedUser(ctx context.Context, userID string) ([]*models.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	reports := make([]*models.Report, 0)
	for _, report := range f.reports {
		if report.ReportedUserID == userID {
			cp := *report
			reports = append(reports, &cp)
		}
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].ID < reports[j].ID })
	return reports, nil
}

func (f *fakeReportRepo) GetByReporter(ctx context.Context, reporterID string) ([]*models.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	reports := make([]*models.Report, 0)
	for _, report := range f.reports {
		if report.ReporterID == reporterID {
			cp := *report
			reports = append(reports, &cp)
		}
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].ID < reports[j].ID })
	return reports, nil
}

func (f *fakeReportRepo) CountByReportedUser(ctx context.Context, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, report := range f.reports {
		if report.ReportedUserID == userID {
			count++
		}
	}
	return count, nil
}

// fakeSeatCache records invalidations so tests can assert the read path is
// kept honest after a write.
type fakeSeatCache struct {
	mu          sync.Mutex
	seats       map[string]int
	invalidated []string
}

func newFakeSeatCache() *fakeSeatCache {
	return &fakeSeatCache{seats: make(map[string]int)}
}

func (f *fakeSeatCache) SetAvailability(ctx context.Context, rideID string, seats int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seats[rideID] = seats
	return nil
}

func (f *fakeSeatCache) GetAvailability(ctx context.Context, rideID string) (int, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seats, ok := f.seats[rideID]
	return seats, ok, nil
}

func (f *fakeSeatCache) Invalidate(ctx context.Context, rideID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.seats, rideID)
	f.invalidated = append(f.invalidated, rideID)
	return nil
}

// recordingPublisher captures published events for assertions.
type recordingPublisher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event notify.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) eventTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

// Test fixture helpers shared across the service tests.

func seedDriver(ctx context.Context, users *fakeUserRepo, name string, capacity int) *models.User {
	license := "KA01AB1234"
	model := "Maruti Swift"
	number := "KA-01-AB-1234"
	user := &models.User{
		Name:          name,
		Role:          models.RoleDriver,
		LicenseNumber: &license,
		VehicleModel:  &model,
		VehicleNumber: &number,
		SeatCapacity:  &capacity,
	}
	users.Create(ctx, user)
	return user
}

func seedPassenger(ctx context.Context, users *fakeUserRepo, name string) *models.User {
	user := &models.User{
		Name: name,
		Role: models.RolePassenger,
	}
	users.Create(ctx, user)
	return user
}

func seedRide(ctx context.Context, rides *fakeRideRepo, driverID, origin, destination string, departure time.Time, seats int) *models.Ride {
	ride := &models.Ride{
		DriverID:       driverID,
		Origin:         origin,
		Destination:    destination,
		DepartureAt:    departure,
		SeatsTotal:     seats,
		SeatsAvailable: seats,
		PricePerSeat:   50,
	}
	rides.Create(ctx, ride)
	return ride
}
