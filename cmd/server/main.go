package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"bikeshare/internal/app"
	"bikeshare/internal/config"
	"bikeshare/internal/handler"
	internalRedis "bikeshare/internal/redis"
	"bikeshare/internal/repository/postgres"
	"bikeshare/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s (with DB instrumentation)", cfg.NewRelic.AppName)
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// Wire dependencies.
	server := wireServer(db, redisClient, nrApp, cfg)

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) *http.Server {
	// Initialize Redis stores.
	locationStore := internalRedis.NewLocationStore(redisClient)
	lockStore := internalRedis.NewLockStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)
	traceStore := internalRedis.NewTraceStore(redisClient)

	// Initialize repositories.
	riderRepo := postgres.NewRiderRepository(db)
	bikeRepo := postgres.NewBikeRepository(db)
	rideRepo := postgres.NewRideRepository(db)
	walletRepo := postgres.NewWalletRepository(db)
	pricingRepo := postgres.NewPricingRepository(db)
	uow := postgres.NewUnitOfWork(db)

	// Initialize services.
	notificationService := service.NewNotificationService()
	pricingResolver := service.NewPricingResolver(pricingRepo, cacheStore)
	pricingAdmin := service.NewPricingAdminService(uow, pricingRepo)
	walletService := service.NewWalletService(uow, walletRepo)
	bikeService := service.NewBikeService(bikeRepo, locationStore, traceStore)
	riderService := service.NewRiderService(riderRepo, walletRepo)
	rideService := service.NewRideService(
		uow,
		rideRepo,
		bikeRepo,
		walletRepo,
		pricingResolver,
		traceStore,
		lockStore,
		notificationService,
		fareConfigFromEnv(cfg.Fare),
	)

	// Initialize handlers.
	riderHandler := handler.NewRiderHandler(riderService, rideService)
	rideHandler := handler.NewRideHandler(rideService)
	bikeHandler := handler.NewBikeHandler(bikeService)
	walletHandler := handler.NewWalletHandler(walletService)
	pricingHandler := handler.NewPricingHandler(pricingResolver, pricingAdmin)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		RideHandler:    rideHandler,
		BikeHandler:    bikeHandler,
		WalletHandler:  walletHandler,
		PricingHandler: pricingHandler,
		RiderHandler:   riderHandler,
		RedisClient:    redisClient,
		NewRelicApp:    nrApp,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}

// fareConfigFromEnv maps config fare settings onto the service's fare
// model, falling back to defaults on unknown values.
func fareConfigFromEnv(cfg config.FareConfig) service.FareConfig {
	fare := service.DefaultFareConfig()
	fare.MinStartBalance = cfg.MinStartBalance
	fare.PerMinuteRate = cfg.PerMinuteRate
	fare.UnlockFee = cfg.UnlockFee

	if cfg.Source == string(service.FareSourceDynamic) {
		fare.Source = service.FareSourceDynamic
	}
	if cfg.RateTime == string(service.RateTimeEnd) {
		fare.RateTime = service.RateTimeEnd
	}
	return fare
}
