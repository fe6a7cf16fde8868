package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bikeshare/internal/domain"
	"bikeshare/internal/service"
)

// BikeHandler handles HTTP requests for the bike fleet.
type BikeHandler struct {
	bikeService *service.BikeService
}

// NewBikeHandler creates a new BikeHandler.
func NewBikeHandler(bikeService *service.BikeService) *BikeHandler {
	return &BikeHandler{bikeService: bikeService}
}

// RegisterBikeRequest is the HTTP request body for registering a bike.
type RegisterBikeRequest struct {
	Label        string  `json:"label" binding:"required"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	BatteryLevel int     `json:"battery_level"`
}

// TelemetryRequest is the HTTP request body for a bike telemetry report.
type TelemetryRequest struct {
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	BatteryLevel int     `json:"battery_level"`
}

// SetStatusRequest is the HTTP request body for an operator status change.
type SetStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// BikeResponse is the HTTP response for bike operations.
type BikeResponse struct {
	BikeID       string  `json:"bike_id"`
	Label        string  `json:"label"`
	Status       string  `json:"status"`
	BatteryLevel int     `json:"battery_level"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	UpdatedAt    string  `json:"updated_at"`
}

// NearbyBikeResponse is one entry in the nearby search result.
type NearbyBikeResponse struct {
	BikeID       string  `json:"bike_id"`
	Label        string  `json:"label"`
	BatteryLevel int     `json:"battery_level"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
}

func toBikeResponse(bike *domain.Bike) BikeResponse {
	return BikeResponse{
		BikeID:       bike.ID,
		Label:        bike.Label,
		Status:       string(bike.Status),
		BatteryLevel: bike.BatteryLevel,
		Lat:          bike.Lat,
		Lng:          bike.Lng,
		UpdatedAt:    bike.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// RegisterBike handles POST /v1/bikes
func (h *BikeHandler) RegisterBike(c *gin.Context) {
	var req RegisterBikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	bike, err := h.bikeService.RegisterBike(c.Request.Context(), service.RegisterBikeRequest{
		Label:        req.Label,
		Lat:          req.Lat,
		Lng:          req.Lng,
		BatteryLevel: req.BatteryLevel,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toBikeResponse(bike))
}

// GetBike handles GET /v1/bikes/:id
func (h *BikeHandler) GetBike(c *gin.Context) {
	bike, err := h.bikeService.GetBike(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBikeResponse(bike))
}

// ListBikes handles GET /v1/bikes
func (h *BikeHandler) ListBikes(c *gin.Context) {
	bikes, err := h.bikeService.ListBikes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]BikeResponse, 0, len(bikes))
	for _, bike := range bikes {
		response = append(response, toBikeResponse(bike))
	}

	respondJSON(c, http.StatusOK, response)
}

// UpdateTelemetry handles POST /v1/bikes/:id/telemetry
func (h *BikeHandler) UpdateTelemetry(c *gin.Context) {
	var req TelemetryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	err := h.bikeService.UpdateTelemetry(c.Request.Context(), service.UpdateTelemetryRequest{
		BikeID:       c.Param("id"),
		Lat:          req.Lat,
		Lng:          req.Lng,
		BatteryLevel: req.BatteryLevel,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// NearbyBikes handles GET /v1/bikes/nearby?lat=..&lng=..&radius_km=..
func (h *BikeHandler) NearbyBikes(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid lat parameter"})
		return
	}
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid lng parameter"})
		return
	}

	radiusKm := 0.0
	if raw := c.Query("radius_km"); raw != "" {
		radiusKm, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid radius_km parameter"})
			return
		}
	}

	nearby, err := h.bikeService.NearbyBikes(c.Request.Context(), lat, lng, radiusKm)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]NearbyBikeResponse, 0, len(nearby))
	for _, entry := range nearby {
		response = append(response, NearbyBikeResponse{
			BikeID:       entry.Bike.ID,
			Label:        entry.Bike.Label,
			BatteryLevel: entry.Bike.BatteryLevel,
			Lat:          entry.Lat,
			Lng:          entry.Lng,
		})
	}

	respondJSON(c, http.StatusOK, response)
}

// SetStatus handles PUT /v1/bikes/:id/status
func (h *BikeHandler) SetStatus(c *gin.Context) {
	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	bike, err := h.bikeService.SetStatus(c.Request.Context(), c.Param("id"), domain.BikeStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBikeResponse(bike))
}
