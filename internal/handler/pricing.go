package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"bikeshare/internal/domain"
	"bikeshare/internal/service"
)

// PricingHandler handles HTTP requests for pricing resolution and
// configuration management.
type PricingHandler struct {
	resolver *service.PricingResolver
	admin    *service.PricingAdminService
}

// NewPricingHandler creates a new PricingHandler.
func NewPricingHandler(resolver *service.PricingResolver, admin *service.PricingAdminService) *PricingHandler {
	return &PricingHandler{resolver: resolver, admin: admin}
}

// Resolve handles GET /v1/pricing/resolve?date=YYYY-MM-DD&hour=H
// Both parameters default to the current instant.
func (h *PricingHandler) Resolve(c *gin.Context) {
	now := time.Now()
	targetDate := now
	targetHour := now.Hour()

	if raw := c.Query("date"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, now.Location())
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid date parameter, expected YYYY-MM-DD"})
			return
		}
		targetDate = parsed
	}
	if raw := c.Query("hour"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid hour parameter"})
			return
		}
		targetHour = parsed
	}

	snapshot, err := h.resolver.Resolve(c.Request.Context(), targetDate, targetHour)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, snapshot)
}

// PlanRequest is one plan in a create-config request.
type PlanRequest struct {
	Name         string `json:"name" binding:"required"`
	DisplayOrder int    `json:"display_order"`
	HourlyRate   int64  `json:"hourly_rate"`
	DailyRate    int64  `json:"daily_rate"`
	WeeklyRate   int64  `json:"weekly_rate"`
	MonthlyRate  int64  `json:"monthly_rate"`
}

// RuleRequest is one time rule in a create-config request.
type RuleRequest struct {
	Name       string  `json:"name" binding:"required"`
	DayOfWeek  *int    `json:"day_of_week"`
	StartHour  *int    `json:"start_hour"`
	EndHour    *int    `json:"end_hour"`
	Multiplier float64 `json:"multiplier" binding:"required"`
	Priority   int     `json:"priority"`
}

// PromotionRequest is one promotion in a create-config request.
type PromotionRequest struct {
	Name          string   `json:"name" binding:"required"`
	DiscountType  string   `json:"discount_type" binding:"required"`
	DiscountValue float64  `json:"discount_value" binding:"required"`
	ValidFrom     string   `json:"valid_from"`
	ValidUntil    string   `json:"valid_until"`
	UsageLimit    int      `json:"usage_limit"`
	PlanNames     []string `json:"plan_names"`
}

// CreateConfigRequest is the HTTP request body for creating a config.
type CreateConfigRequest struct {
	Name       string             `json:"name" binding:"required"`
	Plans      []PlanRequest      `json:"plans" binding:"required"`
	Rules      []RuleRequest      `json:"rules"`
	Promotions []PromotionRequest `json:"promotions"`
}

// ConfigResponse is the HTTP response for config operations.
type ConfigResponse struct {
	ConfigID   string `json:"config_id"`
	Name       string `json:"name"`
	Active     bool   `json:"active"`
	Plans      int    `json:"plans"`
	Rules      int    `json:"rules"`
	Promotions int    `json:"promotions"`
	CreatedAt  string `json:"created_at"`
}

func toConfigResponse(cfg *domain.PricingConfig) ConfigResponse {
	return ConfigResponse{
		ConfigID:   cfg.ID,
		Name:       cfg.Name,
		Active:     cfg.Active,
		Plans:      len(cfg.Plans),
		Rules:      len(cfg.Rules),
		Promotions: len(cfg.Promotions),
		CreatedAt:  cfg.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// CreateConfig handles POST /v1/pricing/configs
func (h *PricingHandler) CreateConfig(c *gin.Context) {
	var req CreateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	svcReq := service.CreateConfigRequest{Name: req.Name}
	for _, p := range req.Plans {
		svcReq.Plans = append(svcReq.Plans, service.PlanInput{
			Name:         p.Name,
			DisplayOrder: p.DisplayOrder,
			HourlyRate:   p.HourlyRate,
			DailyRate:    p.DailyRate,
			WeeklyRate:   p.WeeklyRate,
			MonthlyRate:  p.MonthlyRate,
		})
	}
	for _, r := range req.Rules {
		svcReq.Rules = append(svcReq.Rules, service.RuleInput{
			Name:       r.Name,
			DayOfWeek:  r.DayOfWeek,
			StartHour:  r.StartHour,
			EndHour:    r.EndHour,
			Multiplier: r.Multiplier,
			Priority:   r.Priority,
		})
	}
	for _, p := range req.Promotions {
		validFrom, validUntil, err := parsePromotionWindow(p.ValidFrom, p.ValidUntil)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		svcReq.Promotions = append(svcReq.Promotions, service.PromotionInput{
			Name:          p.Name,
			DiscountType:  domain.DiscountType(p.DiscountType),
			DiscountValue: p.DiscountValue,
			ValidFrom:     validFrom,
			ValidUntil:    validUntil,
			UsageLimit:    p.UsageLimit,
			PlanNames:     p.PlanNames,
		})
	}

	cfg, err := h.admin.CreateConfig(c.Request.Context(), svcReq)
	if err != nil {
		// Admin validation errors are plain errors, not sentinels.
		code := mapErrorToHTTPStatus(err)
		if code == http.StatusInternalServerError {
			code = http.StatusBadRequest
		}
		c.JSON(code, ErrorResponse{Error: err.Error()})
		return
	}

	respondJSON(c, http.StatusCreated, toConfigResponse(cfg))
}

// GetConfig handles GET /v1/pricing/configs/:id
func (h *PricingHandler) GetConfig(c *gin.Context) {
	cfg, err := h.admin.GetConfig(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toConfigResponse(cfg))
}

// GetActiveConfig handles GET /v1/pricing/configs/active
func (h *PricingHandler) GetActiveConfig(c *gin.Context) {
	cfg, err := h.admin.GetActiveConfig(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toConfigResponse(cfg))
}

// ActivateConfig handles POST /v1/pricing/configs/:id/activate
func (h *PricingHandler) ActivateConfig(c *gin.Context) {
	if err := h.admin.ActivateConfig(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func parsePromotionWindow(from, until string) (time.Time, time.Time, error) {
	var validFrom, validUntil time.Time
	var err error
	if from != "" {
		validFrom, err = time.Parse(time.RFC3339, from)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if until != "" {
		validUntil, err = time.Parse(time.RFC3339, until)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	return validFrom, validUntil, nil
}
