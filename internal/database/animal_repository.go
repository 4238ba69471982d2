package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/irfndi/bovara-ml/internal/models"
)

const animalColumns = `id, ranch_id, lot_id, visual_tag, electronic_tag, name, sex, breed, birth_date, health_score, last_heat_date, last_birth_date, last_insemination_date, current_cluster_label, is_active, server_updated_at`

// AnimalRepository handles database operations for the animals table.
type AnimalRepository struct {
	pool DatabasePool
}

// NewAnimalRepository creates a new animal repository.
func NewAnimalRepository(pool DatabasePool) *AnimalRepository {
	return &AnimalRepository{pool: pool}
}

// FindByID returns the animal, or nil when no live row matches.
func (r *AnimalRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Animal, error) {
	query := `SELECT ` + animalColumns + `
		FROM animals
		WHERE id = $1 AND is_deleted = FALSE`

	animal, err := scanAnimal(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get animal %s: %w", id, err)
	}
	return animal, nil
}

// FindActivePeers returns the active animals of a ranch ordered by visual tag.
func (r *AnimalRepository) FindActivePeers(ctx context.Context, ranchID uuid.UUID) ([]models.Animal, error) {
	query := `SELECT ` + animalColumns + `
		FROM animals
		WHERE ranch_id = $1 AND is_active = TRUE AND is_deleted = FALSE
		ORDER BY visual_tag`

	rows, err := r.pool.Query(ctx, query, ranchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query active animals of ranch %s: %w", ranchID, err)
	}
	defer rows.Close()

	var animals []models.Animal
	for rows.Next() {
		animal, err := scanAnimal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan animal: %w", err)
		}
		animals = append(animals, *animal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating animals: %w", err)
	}
	return animals, nil
}

// UpdateClusterLabel stores the label and reports whether a row was touched.
func (r *AnimalRepository) UpdateClusterLabel(ctx context.Context, id uuid.UUID, label models.ClusterLabel) (bool, error) {
	query := `
		UPDATE animals
		SET current_cluster_label = $1, server_updated_at = NOW()
		WHERE id = $2 AND is_deleted = FALSE`

	result, err := r.pool.Exec(ctx, query, string(label), id)
	if err != nil {
		return false, fmt.Errorf("failed to update cluster label of animal %s: %w", id, err)
	}
	return result.RowsAffected() > 0, nil
}

// UpdateForecastFields stores the forecast columns. The projected weight is
// rounded to two decimals to match the NUMERIC(10,2) column.
func (r *AnimalRepository) UpdateForecastFields(ctx context.Context, id uuid.UUID, fields models.ForecastFields) (bool, error) {
	query := `
		UPDATE animals
		SET predicted_sale_date = $1, expected_calving_date = $2, suggested_dry_date = $3, next_likely_heat_date = $4, projected_weight_30d = $5, server_updated_at = NOW()
		WHERE id = $6 AND is_deleted = FALSE`

	var weight decimal.NullDecimal
	if fields.ProjectedWeight30d != nil {
		weight = decimal.NewNullDecimal(decimal.NewFromFloat(*fields.ProjectedWeight30d).Round(2))
	}

	result, err := r.pool.Exec(ctx, query,
		fields.PredictedSaleDate,
		fields.ExpectedCalvingDate,
		fields.SuggestedDryDate,
		fields.NextLikelyHeatDate,
		weight,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update forecast of animal %s: %w", id, err)
	}
	return result.RowsAffected() > 0, nil
}

func scanAnimal(row pgx.Row) (*models.Animal, error) {
	var (
		a     models.Animal
		label *string
	)
	err := row.Scan(
		&a.ID,
		&a.RanchID,
		&a.LotID,
		&a.VisualTag,
		&a.ElectronicTag,
		&a.Name,
		&a.Sex,
		&a.Breed,
		&a.BirthDate,
		&a.HealthScore,
		&a.LastHeatDate,
		&a.LastBirthDate,
		&a.LastInseminationDate,
		&label,
		&a.IsActive,
		&a.ServerUpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if label != nil {
		a.CurrentClusterLabel = models.ClusterLabel(*label)
	}
	return &a, nil
}
