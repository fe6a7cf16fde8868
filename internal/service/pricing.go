package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"bikeshare/internal/domain"
	"bikeshare/internal/redis"
	"bikeshare/internal/repository"
)

// Rough hour counts used to scale fixed-amount discounts onto longer
// billing periods. Documented approximation, not calendar-accurate.
const (
	hoursPerDay   = 24
	hoursPerWeek  = 24 * 7
	hoursPerMonth = 24 * 30
)

// PricingResolverInterface defines the pricing resolution contract.
type PricingResolverInterface interface {
	Resolve(ctx context.Context, targetDate time.Time, targetHour int) (*PricingSnapshot, error)
}

// Ensure PricingResolver implements PricingResolverInterface.
var _ PricingResolverInterface = (*PricingResolver)(nil)

// AppliedPromotion describes one promotion applied to a plan's rates.
type AppliedPromotion struct {
	PromotionID   string              `json:"promotion_id"`
	Name          string              `json:"name"`
	DiscountType  domain.DiscountType `json:"discount_type"`
	DiscountValue float64             `json:"discount_value"`
}

// PlanQuote is one plan's rates after rule and promotion adjustment. The
// original hourly rate is kept for audit and display.
type PlanQuote struct {
	PlanID         string             `json:"plan_id"`
	PlanName       string             `json:"plan_name"`
	OriginalHourly int64              `json:"original_hourly_rate"`
	HourlyRate     int64              `json:"hourly_rate"`
	DailyRate      int64              `json:"daily_rate"`
	WeeklyRate     int64              `json:"weekly_rate"`
	MonthlyRate    int64              `json:"monthly_rate"`
	Promotions     []AppliedPromotion `json:"promotions,omitempty"`
}

// PricingSnapshot is the result of one pricing resolution.
type PricingSnapshot struct {
	ConfigID      string      `json:"config_id"`
	Multiplier    float64     `json:"multiplier"`
	RuleName      string      `json:"rule_name,omitempty"`
	Plans         []PlanQuote `json:"plans"`
	NextRecompute time.Time   `json:"next_recompute"`
}

// PricingResolver selects the active time rule and valid promotions for a
// target instant and produces adjusted per-tier rates. Resolution is
// read-only and idempotent; promotion usage counters are incremented at
// redemption time, not here.
type PricingResolver struct {
	pricingRepo repository.PricingRepository
	cache       *redis.CacheStore
}

// NewPricingResolver creates a new PricingResolver. The cache may be nil.
func NewPricingResolver(pricingRepo repository.PricingRepository, cache *redis.CacheStore) *PricingResolver {
	return &PricingResolver{
		pricingRepo: pricingRepo,
		cache:       cache,
	}
}

// Resolve computes the pricing snapshot for the given date and hour. The
// active config is loaded fresh on every call; snapshots are cached until
// the next hour boundary, and cache failures degrade to a direct resolve.
func (s *PricingResolver) Resolve(ctx context.Context, targetDate time.Time, targetHour int) (*PricingSnapshot, error) {
	if targetHour < 0 || targetHour > 23 {
		return nil, ErrInvalidHour
	}

	cacheKey := fmt.Sprintf("%s:%02d", targetDate.Format("2006-01-02"), targetHour)
	if s.cache != nil {
		var cached PricingSnapshot
		if hit, err := s.cache.GetPricingSnapshot(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	cfg, err := s.pricingRepo.GetActiveConfig(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoPricingConfig
		}
		return nil, err
	}

	now := time.Now()
	snapshot := resolveSnapshot(cfg, targetDate, targetHour, now)

	if s.cache != nil {
		_ = s.cache.SetPricingSnapshot(ctx, cacheKey, snapshot, time.Until(snapshot.NextRecompute))
	}

	return snapshot, nil
}

// resolveSnapshot applies rule selection and promotion stacking to a loaded
// config. Pure except for the promotion-validity clock.
func resolveSnapshot(cfg *domain.PricingConfig, targetDate time.Time, targetHour int, now time.Time) *PricingSnapshot {
	rule := selectRule(cfg.Rules, targetDate.Weekday(), targetHour)

	multiplier := 1.0
	ruleName := ""
	if rule != nil {
		multiplier = rule.Multiplier
		ruleName = rule.Name
	}

	snapshot := &PricingSnapshot{
		ConfigID:      cfg.ID,
		Multiplier:    multiplier,
		RuleName:      ruleName,
		Plans:         make([]PlanQuote, 0, len(cfg.Plans)),
		NextRecompute: now.Truncate(time.Hour).Add(time.Hour),
	}

	for _, plan := range cfg.Plans {
		quote := PlanQuote{
			PlanID:         plan.ID,
			PlanName:       plan.Name,
			OriginalHourly: plan.HourlyRate,
			HourlyRate:     applyMultiplier(plan.HourlyRate, multiplier),
			DailyRate:      applyMultiplier(plan.DailyRate, multiplier),
			WeeklyRate:     applyMultiplier(plan.WeeklyRate, multiplier),
			MonthlyRate:    applyMultiplier(plan.MonthlyRate, multiplier),
		}

		// Promotions stack in data-source order (creation order) on top
		// of the already rule-adjusted rates.
		for _, promo := range cfg.Promotions {
			if !promo.Redeemable(now) || !promo.AppliesTo(plan.ID) {
				continue
			}
			applyPromotion(&quote, promo)
			quote.Promotions = append(quote.Promotions, AppliedPromotion{
				PromotionID:   promo.ID,
				Name:          promo.Name,
				DiscountType:  promo.DiscountType,
				DiscountValue: promo.DiscountValue,
			})
		}

		snapshot.Plans = append(snapshot.Plans, quote)
	}

	return snapshot
}

// selectRule returns the highest-priority active rule whose window contains
// the given day and hour, or nil when none matches.
func selectRule(rules []*domain.PricingRule, day time.Weekday, hour int) *domain.PricingRule {
	var best *domain.PricingRule
	for _, rule := range rules {
		if !rule.Active || !rule.Matches(day, hour) {
			continue
		}
		if best == nil || rule.Priority > best.Priority {
			best = rule
		}
	}
	return best
}

func applyMultiplier(rate int64, multiplier float64) int64 {
	return int64(math.Round(float64(rate) * multiplier))
}

func applyPromotion(quote *PlanQuote, promo *domain.Promotion) {
	switch promo.DiscountType {
	case domain.DiscountTypePercentage:
		factor := 1 - promo.DiscountValue/100
		quote.HourlyRate = int64(math.Round(float64(quote.HourlyRate) * factor))
		quote.DailyRate = int64(math.Round(float64(quote.DailyRate) * factor))
		quote.WeeklyRate = int64(math.Round(float64(quote.WeeklyRate) * factor))
		quote.MonthlyRate = int64(math.Round(float64(quote.MonthlyRate) * factor))
	case domain.DiscountTypeFixedAmount:
		quote.HourlyRate = subtractFloor(quote.HourlyRate, promo.DiscountValue)
		quote.DailyRate = subtractFloor(quote.DailyRate, promo.DiscountValue*hoursPerDay)
		quote.WeeklyRate = subtractFloor(quote.WeeklyRate, promo.DiscountValue*hoursPerWeek)
		quote.MonthlyRate = subtractFloor(quote.MonthlyRate, promo.DiscountValue*hoursPerMonth)
	}
}

func subtractFloor(rate int64, value float64) int64 {
	adjusted := int64(math.Round(float64(rate) - value))
	if adjusted < 0 {
		return 0
	}
	return adjusted
}
