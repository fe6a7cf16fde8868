package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"bikeshare/internal/domain"
	"bikeshare/internal/repository"
)

// PricingRepository is a PostgreSQL implementation of
// repository.PricingRepository.
type PricingRepository struct {
	q Querier
}

// NewPricingRepository creates a new PostgreSQL pricing repository.
func NewPricingRepository(db *sql.DB) *PricingRepository {
	return &PricingRepository{q: db}
}

// NewPricingRepositoryWithTx creates a pricing repository using a transaction.
func NewPricingRepositoryWithTx(tx *sql.Tx) *PricingRepository {
	return &PricingRepository{q: tx}
}

// GetActiveConfig retrieves the single active config with its children.
func (r *PricingRepository) GetActiveConfig(ctx context.Context) (*domain.PricingConfig, error) {
	query := `
		SELECT id, name, active, created_at
		FROM pricing_configs WHERE active = true LIMIT 1
	`
	return r.loadConfig(ctx, query)
}

// GetConfig retrieves a config by ID with its children.
func (r *PricingRepository) GetConfig(ctx context.Context, id string) (*domain.PricingConfig, error) {
	query := `
		SELECT id, name, active, created_at
		FROM pricing_configs WHERE id = $1
	`
	return r.loadConfig(ctx, query, id)
}

func (r *PricingRepository) loadConfig(ctx context.Context, query string, args ...any) (*domain.PricingConfig, error) {
	var cfg domain.PricingConfig
	err := r.q.QueryRowContext(ctx, query, args...).Scan(
		&cfg.ID,
		&cfg.Name,
		&cfg.Active,
		&cfg.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if cfg.Plans, err = r.loadPlans(ctx, cfg.ID); err != nil {
		return nil, err
	}
	if cfg.Rules, err = r.loadRules(ctx, cfg.ID); err != nil {
		return nil, err
	}
	if cfg.Promotions, err = r.loadPromotions(ctx, cfg.ID); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (r *PricingRepository) loadPlans(ctx context.Context, configID string) ([]*domain.PricingPlan, error) {
	query := `
		SELECT id, config_id, name, display_order, hourly_rate, daily_rate, weekly_rate, monthly_rate, active
		FROM pricing_plans WHERE config_id = $1 AND active = true
		ORDER BY display_order, id
	`

	rows, err := r.q.QueryContext(ctx, query, configID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []*domain.PricingPlan
	for rows.Next() {
		var plan domain.PricingPlan
		if err := rows.Scan(
			&plan.ID,
			&plan.ConfigID,
			&plan.Name,
			&plan.DisplayOrder,
			&plan.HourlyRate,
			&plan.DailyRate,
			&plan.WeeklyRate,
			&plan.MonthlyRate,
			&plan.Active,
		); err != nil {
			return nil, err
		}
		plans = append(plans, &plan)
	}
	return plans, rows.Err()
}

func (r *PricingRepository) loadRules(ctx context.Context, configID string) ([]*domain.PricingRule, error) {
	query := `
		SELECT id, config_id, name, day_of_week, start_hour, end_hour, multiplier, priority, active
		FROM pricing_rules WHERE config_id = $1 AND active = true
		ORDER BY priority DESC, id
	`

	rows, err := r.q.QueryContext(ctx, query, configID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []*domain.PricingRule
	for rows.Next() {
		var rule domain.PricingRule
		var dayOfWeek, startHour, endHour sql.NullInt64
		if err := rows.Scan(
			&rule.ID,
			&rule.ConfigID,
			&rule.Name,
			&dayOfWeek,
			&startHour,
			&endHour,
			&rule.Multiplier,
			&rule.Priority,
			&rule.Active,
		); err != nil {
			return nil, err
		}
		rule.DayOfWeek = nullableInt(dayOfWeek)
		rule.StartHour = nullableInt(startHour)
		rule.EndHour = nullableInt(endHour)
		rules = append(rules, &rule)
	}
	return rules, rows.Err()
}

// loadPromotions returns promotions in creation order; the resolver applies
// stacked discounts in exactly this order.
func (r *PricingRepository) loadPromotions(ctx context.Context, configID string) ([]*domain.Promotion, error) {
	query := `
		SELECT p.id, p.config_id, p.name, p.discount_type, p.discount_value,
		       p.valid_from, p.valid_until, p.usage_limit, p.usage_count, p.active, p.created_at,
		       COALESCE(ARRAY_AGG(pp.plan_id) FILTER (WHERE pp.plan_id IS NOT NULL), '{}')
		FROM promotions p
		LEFT JOIN promotion_plans pp ON pp.promotion_id = p.id
		WHERE p.config_id = $1 AND p.active = true
		GROUP BY p.id
		ORDER BY p.created_at, p.id
	`

	rows, err := r.q.QueryContext(ctx, query, configID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var promotions []*domain.Promotion
	for rows.Next() {
		var promo domain.Promotion
		if err := rows.Scan(
			&promo.ID,
			&promo.ConfigID,
			&promo.Name,
			&promo.DiscountType,
			&promo.DiscountValue,
			&promo.ValidFrom,
			&promo.ValidUntil,
			&promo.UsageLimit,
			&promo.UsageCount,
			&promo.Active,
			&promo.CreatedAt,
			pq.Array(&promo.PlanIDs),
		); err != nil {
			return nil, err
		}
		promotions = append(promotions, &promo)
	}
	return promotions, rows.Err()
}

// CreateConfig persists a config with its plans, rules and promotions.
// Callers wanting all-or-nothing creation run this through a UnitOfWork.
func (r *PricingRepository) CreateConfig(ctx context.Context, cfg *domain.PricingConfig) error {
	query := `
		INSERT INTO pricing_configs (id, name, active, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.q.ExecContext(ctx, query, cfg.ID, cfg.Name, cfg.Active, cfg.CreatedAt); err != nil {
		return err
	}

	for _, plan := range cfg.Plans {
		if _, err := r.q.ExecContext(ctx, `
			INSERT INTO pricing_plans (id, config_id, name, display_order, hourly_rate, daily_rate, weekly_rate, monthly_rate, active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, plan.ID, cfg.ID, plan.Name, plan.DisplayOrder, plan.HourlyRate, plan.DailyRate, plan.WeeklyRate, plan.MonthlyRate, plan.Active); err != nil {
			return err
		}
	}

	for _, rule := range cfg.Rules {
		if _, err := r.q.ExecContext(ctx, `
			INSERT INTO pricing_rules (id, config_id, name, day_of_week, start_hour, end_hour, multiplier, priority, active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, rule.ID, cfg.ID, rule.Name, nullableInt64(rule.DayOfWeek), nullableInt64(rule.StartHour), nullableInt64(rule.EndHour), rule.Multiplier, rule.Priority, rule.Active); err != nil {
			return err
		}
	}

	for _, promo := range cfg.Promotions {
		if _, err := r.q.ExecContext(ctx, `
			INSERT INTO promotions (id, config_id, name, discount_type, discount_value, valid_from, valid_until, usage_limit, usage_count, active, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, promo.ID, cfg.ID, promo.Name, promo.DiscountType, promo.DiscountValue, promo.ValidFrom, promo.ValidUntil, promo.UsageLimit, promo.UsageCount, promo.Active, promo.CreatedAt); err != nil {
			return err
		}
		for _, planID := range promo.PlanIDs {
			if _, err := r.q.ExecContext(ctx, `
				INSERT INTO promotion_plans (promotion_id, plan_id)
				VALUES ($1, $2)
			`, promo.ID, planID); err != nil {
				return err
			}
		}
	}

	return nil
}

// ActivateConfig marks the given config active and deactivates the rest.
func (r *PricingRepository) ActivateConfig(ctx context.Context, id string) error {
	if _, err := r.q.ExecContext(ctx, `UPDATE pricing_configs SET active = false WHERE active = true AND id <> $1`, id); err != nil {
		return err
	}

	result, err := r.q.ExecContext(ctx, `UPDATE pricing_configs SET active = true WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// IncrementPromotionUsage bumps a promotion's usage counter.
func (r *PricingRepository) IncrementPromotionUsage(ctx context.Context, promotionID string) error {
	result, err := r.q.ExecContext(ctx, `UPDATE promotions SET usage_count = usage_count + 1 WHERE id = $1`, promotionID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func nullableInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func nullableInt64(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
