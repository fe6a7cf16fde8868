package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"bikeshare/internal/handler"
	"bikeshare/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	RideHandler    *handler.RideHandler
	BikeHandler    *handler.BikeHandler
	WalletHandler  *handler.WalletHandler
	PricingHandler *handler.PricingHandler
	RiderHandler   *handler.RiderHandler
	RedisClient    *redis.Client
	NewRelicApp    *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Rider routes.
		riders := v1.Group("/riders")
		{
			riders.POST("", deps.RiderHandler.RegisterRider)
			riders.GET("", deps.RiderHandler.ListRiders)
			riders.GET("/:id", deps.RiderHandler.GetRider)
			riders.GET("/:id/rides", deps.RiderHandler.GetRiderRides)
		}

		// Ride lifecycle routes.
		rides := v1.Group("/rides")
		{
			rides.POST("", deps.RideHandler.StartRide)
			rides.GET("/:id", deps.RideHandler.GetRide)
			rides.POST("/:id/end", deps.RideHandler.EndRide)
			rides.POST("/:id/cancel", deps.RideHandler.CancelRide)
		}

		// Bike fleet routes.
		bikes := v1.Group("/bikes")
		{
			bikes.POST("", deps.BikeHandler.RegisterBike)
			bikes.GET("", deps.BikeHandler.ListBikes)
			bikes.GET("/nearby", deps.BikeHandler.NearbyBikes)
			bikes.GET("/:id", deps.BikeHandler.GetBike)
			bikes.POST("/:id/telemetry", deps.BikeHandler.UpdateTelemetry)
			bikes.PUT("/:id/status", deps.BikeHandler.SetStatus)
		}

		// Wallet routes.
		wallets := v1.Group("/wallets")
		{
			wallets.GET("/:riderID", deps.WalletHandler.GetBalance)
			wallets.POST("/:riderID/topup", deps.WalletHandler.TopUp)
			wallets.POST("/:riderID/withdraw", deps.WalletHandler.Withdraw)
			wallets.GET("/:riderID/transactions", deps.WalletHandler.GetTransactions)
			wallets.GET("/:riderID/reconcile", deps.WalletHandler.Reconcile)
		}

		// Pricing routes.
		pricing := v1.Group("/pricing")
		{
			pricing.GET("/resolve", deps.PricingHandler.Resolve)
			pricing.POST("/configs", deps.PricingHandler.CreateConfig)
			pricing.GET("/configs/active", deps.PricingHandler.GetActiveConfig)
			pricing.GET("/configs/:id", deps.PricingHandler.GetConfig)
			pricing.POST("/configs/:id/activate", deps.PricingHandler.ActivateConfig)
		}
	}

	return router
}
