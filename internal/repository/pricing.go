package repository

import (
	"context"

	"bikeshare/internal/domain"
)

// PricingRepository defines the persistence operations for pricing
// configurations.
type PricingRepository interface {
	// GetActiveConfig retrieves the single active config with its active
	// plans (by display order), rules and promotions (by creation order).
	// Returns ErrNotFound if no config is active.
	GetActiveConfig(ctx context.Context) (*domain.PricingConfig, error)

	// GetConfig retrieves a config by ID with all its children.
	GetConfig(ctx context.Context, id string) (*domain.PricingConfig, error)

	// CreateConfig persists a config together with its plans, rules and
	// promotions.
	CreateConfig(ctx context.Context, cfg *domain.PricingConfig) error

	// ActivateConfig marks the given config active and deactivates any
	// other config in the same statement batch.
	ActivateConfig(ctx context.Context, id string) error

	// IncrementPromotionUsage bumps a promotion's usage counter. Called
	// at redemption time, never during resolution.
	IncrementPromotionUsage(ctx context.Context, promotionID string) error
}
