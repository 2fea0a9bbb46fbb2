package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // Optional .env loader for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/stayease/hotel-reservation-api/internal/config"   // Internal config loader
	"github.com/stayease/hotel-reservation-api/internal/database" // MySQL pool constructor
	"github.com/stayease/hotel-reservation-api/internal/handler"
	"github.com/stayease/hotel-reservation-api/internal/inventory"
	"github.com/stayease/hotel-reservation-api/internal/payment"
	"github.com/stayease/hotel-reservation-api/internal/repository"
	"github.com/stayease/hotel-reservation-api/internal/router" // Internal router setup
	queue_publisher "github.com/stayease/hotel-reservation-api/internal/service"
)

func main() {
	_ = godotenv.Load() // Load .env when present; real env vars win
	cfg := config.Load() // Load environment config, fatal on missing required vars

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err) // No point serving payment traffic without a store
	}
	defer db.Close()

	reservations := repository.NewReservationRepo(db) // Reservation lookups and payment transitions
	rooms := repository.NewRoomRepo(db)               // Room availability writes

	// Gateways share the validated config; no channel reads the
	// environment after this point.
	cash := payment.NewCashGateway()
	esewa := payment.NewEsewaGateway(cfg.Esewa, cfg.BackendURL)
	khalti := payment.NewKhaltiGateway(cfg.Khalti, cfg.BackendURL, cfg.FrontendURL, reservations, cfg.HTTPTimeout)

	reconciler := inventory.NewReconciler(rooms)             // Applies room availability on success
	events := queue_publisher.NewPublisher(cfg.AMQPURL)      // Publishes payment.confirmed (no-op without broker)
	orchestrator := payment.NewOrchestrator(reservations, cash, esewa, khalti, reconciler, events)

	e := echo.New() // Create Echo instance
	router.RegisterRoutes(e, db)
	router.RegisterPayment(e,
		handler.NewPaymentHandler(orchestrator, reservations, cfg.FrontendURL),
		cfg.JWTSecret,
		config.LoadRateLimitConfig(),
		config.NewRedisClient(),
	)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
