package database

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/irfndi/bovara-ml/internal/models"
)

const upsertPredictionQuery = `
		INSERT INTO ml_predictions (id, ranch_id, animal_id, prediction_type, prediction_date, confidence_score, explanation, severity, is_acknowledged, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET explanation = EXCLUDED.explanation, severity = EXCLUDED.severity`

// PredictionRepository persists audit records to ml_predictions.
type PredictionRepository struct {
	pool DatabasePool
}

// NewPredictionRepository creates a new prediction repository.
func NewPredictionRepository(pool DatabasePool) *PredictionRepository {
	return &PredictionRepository{pool: pool}
}

// Save upserts one record.
func (r *PredictionRepository) Save(ctx context.Context, record *models.PredictionRecord) (bool, error) {
	result, err := r.pool.Exec(ctx, upsertPredictionQuery, predictionArgs(record)...)
	if err != nil {
		return false, fmt.Errorf("failed to save prediction %s: %w", record.ID, err)
	}
	return result.RowsAffected() > 0, nil
}

// SaveBatch upserts all records in one transaction. An empty batch is a no-op
// that reports success.
func (r *PredictionRepository) SaveBatch(ctx context.Context, records []models.PredictionRecord) (bool, error) {
	if len(records) == 0 {
		return true, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin prediction batch: %w", err)
	}

	var affected int64
	for i := range records {
		result, err := tx.Exec(ctx, upsertPredictionQuery, predictionArgs(&records[i])...)
		if err != nil {
			_ = tx.Rollback(ctx)
			return false, fmt.Errorf("failed to save prediction %s: %w", records[i].ID, err)
		}
		affected += result.RowsAffected()
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit prediction batch: %w", err)
	}
	return affected > 0, nil
}

// predictionArgs orders the record fields for upsertPredictionQuery. The
// confidence is rounded to the NUMERIC(5,4) scale of the column.
func predictionArgs(p *models.PredictionRecord) []interface{} {
	return []interface{}{
		p.ID,
		p.RanchID,
		p.AnimalID,
		string(p.Type),
		p.PredictionDate,
		decimal.NewFromFloat(p.Confidence).Round(4),
		p.Explanation,
		string(p.Severity),
		p.IsAcknowledged,
		p.CreatedAt,
	}
}
