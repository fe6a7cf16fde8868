package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bikeshare/internal/domain"
	"bikeshare/internal/service"
)

// RideHandler handles HTTP requests for rides.
type RideHandler struct {
	rideService *service.RideService
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(rideService *service.RideService) *RideHandler {
	return &RideHandler{rideService: rideService}
}

// StartRideRequest is the HTTP request body for starting a ride.
type StartRideRequest struct {
	RiderID  string  `json:"rider_id" binding:"required"`
	BikeID   string  `json:"bike_id" binding:"required"`
	StartLat float64 `json:"start_lat"`
	StartLng float64 `json:"start_lng"`
}

// EndRideRequest is the HTTP request body for ending a ride.
type EndRideRequest struct {
	EndLat float64 `json:"end_lat"`
	EndLng float64 `json:"end_lng"`
}

// CancelRideRequest is the HTTP request body for cancelling a ride.
type CancelRideRequest struct {
	RiderID string `json:"rider_id" binding:"required"`
}

// RideResponse is the HTTP response for ride operations.
type RideResponse struct {
	RideID      string  `json:"ride_id"`
	RiderID     string  `json:"rider_id"`
	BikeID      string  `json:"bike_id"`
	Status      string  `json:"status"`
	StartLat    float64 `json:"start_lat"`
	StartLng    float64 `json:"start_lng"`
	EndLat      float64 `json:"end_lat,omitempty"`
	EndLng      float64 `json:"end_lng,omitempty"`
	DistanceKm  float64 `json:"distance_km,omitempty"`
	DurationMin int     `json:"duration_min,omitempty"`
	Cost        float64 `json:"cost,omitempty"`
	StartedAt   string  `json:"started_at"`
	EndedAt     string  `json:"ended_at,omitempty"`
}

func toRideResponse(ride *domain.Ride) RideResponse {
	response := RideResponse{
		RideID:      ride.ID,
		RiderID:     ride.RiderID,
		BikeID:      ride.BikeID,
		Status:      string(ride.Status),
		StartLat:    ride.StartLat,
		StartLng:    ride.StartLng,
		EndLat:      ride.EndLat,
		EndLng:      ride.EndLng,
		DistanceKm:  ride.DistanceKm,
		DurationMin: ride.DurationMin,
		Cost:        ride.Cost,
		StartedAt:   ride.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if !ride.EndedAt.IsZero() {
		response.EndedAt = ride.EndedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	return response
}

// StartRide handles POST /v1/rides
func (h *RideHandler) StartRide(c *gin.Context) {
	var req StartRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	ride, err := h.rideService.StartRide(c.Request.Context(), service.StartRideRequest{
		RiderID:  req.RiderID,
		BikeID:   req.BikeID,
		StartLat: req.StartLat,
		StartLng: req.StartLng,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toRideResponse(ride))
}

// EndRide handles POST /v1/rides/:id/end
func (h *RideHandler) EndRide(c *gin.Context) {
	rideID := c.Param("id")

	var req EndRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	ride, err := h.rideService.EndRide(c.Request.Context(), service.EndRideRequest{
		RideID: rideID,
		EndLat: req.EndLat,
		EndLng: req.EndLng,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// CancelRide handles POST /v1/rides/:id/cancel
func (h *RideHandler) CancelRide(c *gin.Context) {
	rideID := c.Param("id")

	var req CancelRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	ride, err := h.rideService.CancelRide(c.Request.Context(), service.CancelRideRequest{
		RideID:  rideID,
		RiderID: req.RiderID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// GetRide handles GET /v1/rides/:id
func (h *RideHandler) GetRide(c *gin.Context) {
	ride, err := h.rideService.GetRide(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}
