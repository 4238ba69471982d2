package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/irfndi/bovara-ml/internal/models"
)

// RanchConfigRepository reads ranch_repro_settings and production_goals.
type RanchConfigRepository struct {
	pool DatabasePool
}

// NewRanchConfigRepository creates a new ranch configuration repository.
func NewRanchConfigRepository(pool DatabasePool) *RanchConfigRepository {
	return &RanchConfigRepository{pool: pool}
}

// GetReproSettings returns nil when the ranch has no live settings row.
func (r *RanchConfigRepository) GetReproSettings(ctx context.Context, ranchID uuid.UUID) (*models.RanchReproSettings, error) {
	query := `
		SELECT id, ranch_id, avg_gestation_days, estrus_cycle_days, voluntary_waiting_period, days_to_dry_off, gdp_factor_dry_season, gdp_factor_rainy_season
		FROM ranch_repro_settings
		WHERE ranch_id = $1 AND is_deleted = FALSE`

	var s models.RanchReproSettings
	err := r.pool.QueryRow(ctx, query, ranchID).Scan(
		&s.ID,
		&s.RanchID,
		&s.AvgGestationDays,
		&s.EstrusCycleDays,
		&s.VoluntaryWaitingPeriod,
		&s.DaysToDryOff,
		&s.GDPFactorDrySeason,
		&s.GDPFactorRainySeason,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get repro settings of ranch %s: %w", ranchID, err)
	}
	return &s, nil
}

// GetProductionGoals returns nil when the ranch has no live goals row.
func (r *RanchConfigRepository) GetProductionGoals(ctx context.Context, ranchID uuid.UUID) (*models.ProductionGoals, error) {
	query := `
		SELECT id, ranch_id, target_sale_weight_kg, max_ranch_capacity_kg
		FROM production_goals
		WHERE ranch_id = $1 AND is_deleted = FALSE`

	var g models.ProductionGoals
	err := r.pool.QueryRow(ctx, query, ranchID).Scan(
		&g.ID,
		&g.RanchID,
		&g.TargetSaleWeightKg,
		&g.MaxRanchCapacityKg,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get production goals of ranch %s: %w", ranchID, err)
	}
	return &g, nil
}
