package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bikeshare/internal/domain"
	"bikeshare/internal/repository"
)

// PricingAdminService manages pricing configurations. Configs are created
// inactive and switched over with Activate; the resolver only ever sees the
// single active config.
type PricingAdminService struct {
	uow         repository.UnitOfWork
	pricingRepo repository.PricingRepository
}

// NewPricingAdminService creates a new PricingAdminService.
func NewPricingAdminService(uow repository.UnitOfWork, pricingRepo repository.PricingRepository) *PricingAdminService {
	return &PricingAdminService{uow: uow, pricingRepo: pricingRepo}
}

// PlanInput describes one pricing tier of a new config.
type PlanInput struct {
	Name         string
	DisplayOrder int
	HourlyRate   int64
	DailyRate    int64
	WeeklyRate   int64
	MonthlyRate  int64
}

// RuleInput describes one time-window rule of a new config.
type RuleInput struct {
	Name       string
	DayOfWeek  *int
	StartHour  *int
	EndHour    *int
	Multiplier float64
	Priority   int
}

// PromotionInput describes one promotion of a new config. PlanNames refer
// to plans in the same request.
type PromotionInput struct {
	Name          string
	DiscountType  domain.DiscountType
	DiscountValue float64
	ValidFrom     time.Time
	ValidUntil    time.Time
	UsageLimit    int
	PlanNames     []string
}

// CreateConfigRequest contains a complete pricing configuration.
type CreateConfigRequest struct {
	Name       string
	Plans      []PlanInput
	Rules      []RuleInput
	Promotions []PromotionInput
}

// CreateConfig validates and persists a new inactive pricing configuration.
func (s *PricingAdminService) CreateConfig(ctx context.Context, req CreateConfigRequest) (*domain.PricingConfig, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("config name is required")
	}
	if len(req.Plans) == 0 {
		return nil, fmt.Errorf("config requires at least one plan")
	}

	now := time.Now()
	cfg := &domain.PricingConfig{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Active:    false,
		CreatedAt: now,
	}

	planIDByName := make(map[string]string, len(req.Plans))
	for i, in := range req.Plans {
		if in.Name == "" {
			return nil, fmt.Errorf("plan %d: name is required", i)
		}
		if in.HourlyRate < 0 || in.DailyRate < 0 || in.WeeklyRate < 0 || in.MonthlyRate < 0 {
			return nil, fmt.Errorf("plan %q: rates must be non-negative", in.Name)
		}
		if _, dup := planIDByName[in.Name]; dup {
			return nil, fmt.Errorf("plan %q: duplicate name", in.Name)
		}
		plan := &domain.PricingPlan{
			ID:           uuid.New().String(),
			ConfigID:     cfg.ID,
			Name:         in.Name,
			DisplayOrder: in.DisplayOrder,
			HourlyRate:   in.HourlyRate,
			DailyRate:    in.DailyRate,
			WeeklyRate:   in.WeeklyRate,
			MonthlyRate:  in.MonthlyRate,
			Active:       true,
		}
		planIDByName[in.Name] = plan.ID
		cfg.Plans = append(cfg.Plans, plan)
	}

	for _, in := range req.Rules {
		if err := validateRuleInput(in); err != nil {
			return nil, err
		}
		cfg.Rules = append(cfg.Rules, &domain.PricingRule{
			ID:         uuid.New().String(),
			ConfigID:   cfg.ID,
			Name:       in.Name,
			DayOfWeek:  in.DayOfWeek,
			StartHour:  in.StartHour,
			EndHour:    in.EndHour,
			Multiplier: in.Multiplier,
			Priority:   in.Priority,
			Active:     true,
		})
	}

	for _, in := range req.Promotions {
		promo, err := buildPromotion(cfg.ID, in, planIDByName, now)
		if err != nil {
			return nil, err
		}
		cfg.Promotions = append(cfg.Promotions, promo)
	}

	// The config row and its plans, rules and promotions commit together.
	err := s.uow.Do(ctx, func(r repository.Repositories) error {
		return r.Pricing.CreateConfig(ctx, cfg)
	})
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// GetConfig retrieves a pricing configuration by ID.
func (s *PricingAdminService) GetConfig(ctx context.Context, configID string) (*domain.PricingConfig, error) {
	return s.pricingRepo.GetConfig(ctx, configID)
}

// GetActiveConfig retrieves the currently active pricing configuration.
func (s *PricingAdminService) GetActiveConfig(ctx context.Context) (*domain.PricingConfig, error) {
	cfg, err := s.pricingRepo.GetActiveConfig(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoPricingConfig
		}
		return nil, err
	}
	return cfg, nil
}

// ActivateConfig makes the given config the single active one. The
// deactivation of the previous config and the activation of the new one
// commit together.
func (s *PricingAdminService) ActivateConfig(ctx context.Context, configID string) error {
	return s.uow.Do(ctx, func(r repository.Repositories) error {
		return r.Pricing.ActivateConfig(ctx, configID)
	})
}

func validateRuleInput(in RuleInput) error {
	if in.Name == "" {
		return fmt.Errorf("rule: name is required")
	}
	if in.Multiplier <= 0 {
		return fmt.Errorf("rule %q: multiplier must be positive", in.Name)
	}
	if in.DayOfWeek != nil && (*in.DayOfWeek < 0 || *in.DayOfWeek > 6) {
		return fmt.Errorf("rule %q: day_of_week must be 0-6", in.Name)
	}
	// Hours come paired; a half-open window is rejected rather than guessed.
	if (in.StartHour == nil) != (in.EndHour == nil) {
		return fmt.Errorf("rule %q: start_hour and end_hour must be set together", in.Name)
	}
	if in.StartHour != nil {
		if *in.StartHour < 0 || *in.StartHour > 23 || *in.EndHour < 0 || *in.EndHour > 23 {
			return ErrInvalidHour
		}
	}
	return nil
}

func buildPromotion(configID string, in PromotionInput, planIDByName map[string]string, now time.Time) (*domain.Promotion, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("promotion: name is required")
	}
	switch in.DiscountType {
	case domain.DiscountTypePercentage:
		if in.DiscountValue <= 0 || in.DiscountValue > 100 {
			return nil, fmt.Errorf("promotion %q: percentage must be in (0, 100]", in.Name)
		}
	case domain.DiscountTypeFixedAmount:
		if in.DiscountValue <= 0 {
			return nil, fmt.Errorf("promotion %q: fixed amount must be positive", in.Name)
		}
	default:
		return nil, fmt.Errorf("promotion %q: unknown discount type %q", in.Name, in.DiscountType)
	}
	if in.UsageLimit < 0 {
		return nil, fmt.Errorf("promotion %q: usage limit must be non-negative", in.Name)
	}
	if !in.ValidUntil.IsZero() && in.ValidUntil.Before(in.ValidFrom) {
		return nil, ErrInvalidTimeRange
	}

	planIDs := make([]string, 0, len(in.PlanNames))
	for _, name := range in.PlanNames {
		id, ok := planIDByName[name]
		if !ok {
			return nil, fmt.Errorf("promotion %q: unknown plan %q", in.Name, name)
		}
		planIDs = append(planIDs, id)
	}

	return &domain.Promotion{
		ID:            uuid.New().String(),
		ConfigID:      configID,
		Name:          in.Name,
		DiscountType:  in.DiscountType,
		DiscountValue: in.DiscountValue,
		ValidFrom:     in.ValidFrom,
		ValidUntil:    in.ValidUntil,
		UsageLimit:    in.UsageLimit,
		PlanIDs:       planIDs,
		Active:        true,
		CreatedAt:     now,
	}, nil
}
