package domain

import "time"

// PricingConfig is a complete pricing configuration. At most one config is
// active at a time; plans, rules and promotions are owned by their config.
type PricingConfig struct {
	ID         string
	Name       string
	Active     bool
	CreatedAt  time.Time
	Plans      []*PricingPlan
	Rules      []*PricingRule
	Promotions []*Promotion
}

// PricingPlan is a pricing tier with rates in whole currency units.
type PricingPlan struct {
	ID           string
	ConfigID     string
	Name         string
	DisplayOrder int
	HourlyRate   int64
	DailyRate    int64
	WeeklyRate   int64
	MonthlyRate  int64
	Active       bool
}

// PricingRule applies a multiplier to plan rates inside a time window.
// A nil DayOfWeek matches every day; nil StartHour/EndHour match every hour.
// A window with StartHour > EndHour crosses midnight (e.g. 22-6).
type PricingRule struct {
	ID         string
	ConfigID   string
	Name       string
	DayOfWeek  *int // 0 = Sunday .. 6 = Saturday
	StartHour  *int // Inclusive, 0-23
	EndHour    *int // Exclusive, 0-23
	Multiplier float64
	Priority   int
	Active     bool
}

// Matches reports whether the rule window contains the given day and hour.
func (r *PricingRule) Matches(day time.Weekday, hour int) bool {
	if r.DayOfWeek != nil && *r.DayOfWeek != int(day) {
		return false
	}
	if r.StartHour == nil || r.EndHour == nil {
		return true
	}
	start, end := *r.StartHour, *r.EndHour
	if start <= end {
		return hour >= start && hour < end
	}
	// Window crosses midnight, e.g. 22-6 matches 23 and 2 but not 10.
	return hour >= start || hour < end
}

// DiscountType represents how a promotion reduces a rate.
type DiscountType string

const (
	DiscountTypePercentage  DiscountType = "PERCENTAGE"
	DiscountTypeFixedAmount DiscountType = "FIXED_AMOUNT"
)

// Promotion is a discount applied to one or more plans for a bounded
// validity window and usage count.
type Promotion struct {
	ID            string
	ConfigID      string
	Name          string
	DiscountType  DiscountType
	DiscountValue float64
	ValidFrom     time.Time
	ValidUntil    time.Time
	UsageLimit    int // 0 means unlimited
	UsageCount    int
	PlanIDs       []string
	Active        bool
	CreatedAt     time.Time
}

// Redeemable reports whether the promotion is valid at the given instant
// and still has usage headroom.
func (p *Promotion) Redeemable(at time.Time) bool {
	if !p.Active {
		return false
	}
	if at.Before(p.ValidFrom) {
		return false
	}
	// A zero ValidUntil means no expiry.
	if !p.ValidUntil.IsZero() && at.After(p.ValidUntil) {
		return false
	}
	if p.UsageLimit > 0 && p.UsageCount >= p.UsageLimit {
		return false
	}
	return true
}

// AppliesTo reports whether the promotion is associated with the plan.
func (p *Promotion) AppliesTo(planID string) bool {
	for _, id := range p.PlanIDs {
		if id == planID {
			return true
		}
	}
	return false
}
