//go:build ignore

package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/campool/campool/internal/cache"
	"github.com/campool/campool/internal/config"
	"github.com/campool/campool/internal/database"
	"github.com/campool/campool/internal/models"
	"github.com/campool/campool/internal/repository"
	"github.com/campool/campool/pkg/utils"
)

var (
	firstNames = []string{"Rahul", "Priya", "Amit", "Sneha", "Vikram", "Anita", "Raj", "Neha", "Suresh", "Kavita",
		"Arun", "Deepa", "Kiran", "Meera", "Sanjay", "Ritu", "Vijay", "Pooja", "Manoj", "Swati"}
	lastNames = []string{"Kumar", "Sharma", "Patel", "Singh", "Reddy", "Rao", "Gupta", "Joshi", "Nair", "Menon"}

	places = []string{"North Campus", "South Campus", "City Mall", "Central Station", "Airport",
		"Tech Park", "Hostel Block C", "Library", "Stadium", "Lakeside"}

	vehicleModels = []string{"Maruti Swift", "Hyundai i20", "Honda City", "Tata Nexon", "Toyota Innova"}
)

func main() {
	rand.Seed(time.Now().UnixNano())

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.DatabaseURL, cfg.DBMaxConnections, cfg.DBMaxIdleConnections)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()

	redis, err := database.NewRedis(cfg.RedisURL, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redis.Close()

	ctx := context.Background()

	userRepo := repository.NewUserRepository(db.DB)
	rideRepo := repository.NewRideRepository(db.DB)
	requestRepo := repository.NewRideRequestRepository(db.DB)
	seatCache := cache.NewAvailabilityCache(redis.Client)

	// Create drivers
	log.Println("Creating 20 drivers...")
	driverIDs := make([]string, 0)
	for i := 0; i < 20; i++ {
		license := fmt.Sprintf("KA%02d%08d", rand.Intn(60), rand.Intn(100000000))
		model := vehicleModels[rand.Intn(len(vehicleModels))]
		number := fmt.Sprintf("KA-%02d-%c-%04d", rand.Intn(60), 'A'+rune(rand.Intn(26)), rand.Intn(10000))
		capacity := 2 + rand.Intn(5)
		email := fmt.Sprintf("driver%d@campool.dev", i)

		user := &models.User{
			ID:            utils.GenerateID(),
			Name:          fmt.Sprintf("%s %s", firstNames[rand.Intn(len(firstNames))], lastNames[rand.Intn(len(lastNames))]),
			Email:         &email,
			Role:          models.RoleDriver,
			Rating:        3.5 + rand.Float64()*1.5,
			RatingCount:   rand.Intn(40),
			LicenseNumber: &license,
			VehicleModel:  &model,
			VehicleNumber: &number,
			SeatCapacity:  &capacity,
		}

		if err := userRepo.Create(ctx, user); err != nil {
			log.Printf("Failed to create driver: %v", err)
			continue
		}
		driverIDs = append(driverIDs, user.ID)
	}
	log.Printf("Created %d drivers", len(driverIDs))

	// Create passengers
	log.Println("Creating 50 passengers...")
	passengerIDs := make([]string, 0)
	for i := 0; i < 50; i++ {
		email := fmt.Sprintf("passenger%d@campool.dev", i)
		preferred := places[rand.Intn(len(places))]

		user := &models.User{
			ID:                   utils.GenerateID(),
			Name:                 fmt.Sprintf("%s %s", firstNames[rand.Intn(len(firstNames))], lastNames[rand.Intn(len(lastNames))]),
			Email:                &email,
			Role:                 models.RolePassenger,
			Rating:               3.5 + rand.Float64()*1.5,
			RatingCount:          rand.Intn(25),
			PreferredDestination: &preferred,
		}

		if err := userRepo.Create(ctx, user); err != nil {
			log.Printf("Failed to create passenger: %v", err)
			continue
		}
		passengerIDs = append(passengerIDs, user.ID)
	}
	log.Printf("Created %d passengers", len(passengerIDs))

	// Create rides over the next week
	log.Println("Creating 60 rides...")
	rideCount := 0
	for i := 0; i < 60; i++ {
		origin := places[rand.Intn(len(places))]
		destination := places[rand.Intn(len(places))]
		for destination == origin {
			destination = places[rand.Intn(len(places))]
		}

		seats := 1 + rand.Intn(4)
		departure := time.Now().
			Add(time.Duration(1+rand.Intn(7*24)) * time.Hour).
			Truncate(time.Minute)

		ride := &models.Ride{
			DriverID:       driverIDs[rand.Intn(len(driverIDs))],
			Origin:         origin,
			Destination:    destination,
			DepartureAt:    departure,
			SeatsTotal:     seats,
			SeatsAvailable: seats,
			PricePerSeat:   float64(20 + rand.Intn(180)),
		}

		if err := rideRepo.Create(ctx, ride); err != nil {
			log.Printf("Failed to create ride: %v", err)
			continue
		}

		if err := seatCache.SetAvailability(ctx, ride.ID, ride.SeatsAvailable); err != nil {
			log.Printf("Failed to prime seat cache for ride %s: %v", ride.ID, err)
		}
		rideCount++
	}
	log.Printf("Created %d rides", rideCount)

	// Create pending ride requests
	log.Println("Creating 30 ride requests...")
	requestCount := 0
	for i := 0; i < 30; i++ {
		origin := places[rand.Intn(len(places))]
		destination := places[rand.Intn(len(places))]
		for destination == origin {
			destination = places[rand.Intn(len(places))]
		}

		request := &models.RideRequest{
			PassengerID: passengerIDs[rand.Intn(len(passengerIDs))],
			Origin:      origin,
			Destination: destination,
			PreferredAt: time.Now().
				Add(time.Duration(1+rand.Intn(7*24)) * time.Hour).
				Truncate(time.Minute),
			Seats: 1 + rand.Intn(3),
		}

		if err := requestRepo.Create(ctx, request); err != nil {
			log.Printf("Failed to create ride request: %v", err)
			continue
		}
		requestCount++
	}
	log.Printf("Created %d ride requests", requestCount)

	log.Println("Seed complete")
}
