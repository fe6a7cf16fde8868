package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bikeshare/internal/domain"
	"bikeshare/internal/service"
)

// RiderHandler handles HTTP requests for riders.
type RiderHandler struct {
	riderService *service.RiderService
	rideService  *service.RideService
}

// NewRiderHandler creates a new RiderHandler.
func NewRiderHandler(riderService *service.RiderService, rideService *service.RideService) *RiderHandler {
	return &RiderHandler{riderService: riderService, rideService: rideService}
}

// RegisterRiderRequest is the HTTP request body for registering a rider.
type RegisterRiderRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone"`
}

// RiderResponse is the HTTP response for rider operations.
type RiderResponse struct {
	RiderID   string `json:"rider_id"`
	Name      string `json:"name"`
	Phone     string `json:"phone,omitempty"`
	CreatedAt string `json:"created_at"`
}

func toRiderResponse(rider *domain.Rider) RiderResponse {
	return RiderResponse{
		RiderID:   rider.ID,
		Name:      rider.Name,
		Phone:     rider.Phone,
		CreatedAt: rider.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// RegisterRider handles POST /v1/riders
func (h *RiderHandler) RegisterRider(c *gin.Context) {
	var req RegisterRiderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	rider, err := h.riderService.RegisterRider(c.Request.Context(), service.RegisterRiderRequest{
		Name:  req.Name,
		Phone: req.Phone,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toRiderResponse(rider))
}

// GetRider handles GET /v1/riders/:id
func (h *RiderHandler) GetRider(c *gin.Context) {
	rider, err := h.riderService.GetRider(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRiderResponse(rider))
}

// ListRiders handles GET /v1/riders
func (h *RiderHandler) ListRiders(c *gin.Context) {
	riders, err := h.riderService.ListRiders(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]RiderResponse, 0, len(riders))
	for _, rider := range riders {
		response = append(response, toRiderResponse(rider))
	}

	respondJSON(c, http.StatusOK, response)
}

// GetRiderRides handles GET /v1/riders/:id/rides
func (h *RiderHandler) GetRiderRides(c *gin.Context) {
	rides, err := h.rideService.RiderRides(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]RideResponse, 0, len(rides))
	for _, ride := range rides {
		response = append(response, toRideResponse(ride))
	}

	respondJSON(c, http.StatusOK, response)
}
