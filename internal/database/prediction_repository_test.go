package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/bovara-ml/internal/models"
)

func newRecord(kind models.PredictionType) models.PredictionRecord {
	now := time.Date(2026, time.March, 15, 9, 30, 0, 0, time.UTC)
	return models.NewPredictionRecord(uuid.New(), uuid.New(), kind, 0.78349, "predicted sale date 2026-04-04", models.SeverityInfo, now)
}

func expectUpsert(mock pgxmock.PgxPoolIface, r models.PredictionRecord) *pgxmock.ExpectedExec {
	return mock.ExpectExec("INSERT INTO ml_predictions").
		WithArgs(r.ID, r.RanchID, r.AnimalID, string(r.Type), r.PredictionDate, pgxmock.AnyArg(),
			r.Explanation, string(r.Severity), false, r.CreatedAt)
}

func TestPredictionRepository_Save(t *testing.T) {
	mock := newMockPool(t)
	repo := NewPredictionRepository(mock)
	record := newRecord(models.PredictionForecastUpdate)

	expectUpsert(mock, record).WillReturnResult(pgxmock.NewResult("INSERT", 1))

	saved, err := repo.Save(context.Background(), &record)
	require.NoError(t, err)
	assert.True(t, saved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPredictionRepository_Save_Error(t *testing.T) {
	mock := newMockPool(t)
	repo := NewPredictionRepository(mock)
	record := newRecord(models.PredictionClusterAssignment)

	expectUpsert(mock, record).WillReturnError(errors.New("check constraint violated"))

	saved, err := repo.Save(context.Background(), &record)
	require.Error(t, err)
	assert.False(t, saved)
	assert.Contains(t, err.Error(), record.ID.String())
}

func TestPredictionRepository_SaveBatch(t *testing.T) {
	mock := newMockPool(t)
	repo := NewPredictionRepository(mock)
	records := []models.PredictionRecord{
		newRecord(models.PredictionClusterAssignment),
		newRecord(models.PredictionClusterAssignment),
	}

	mock.ExpectBegin()
	expectUpsert(mock, records[0]).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	expectUpsert(mock, records[1]).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	saved, err := repo.SaveBatch(context.Background(), records)
	require.NoError(t, err)
	assert.True(t, saved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Test an empty batch never opens a transaction
func TestPredictionRepository_SaveBatch_Empty(t *testing.T) {
	mock := newMockPool(t)
	repo := NewPredictionRepository(mock)

	saved, err := repo.SaveBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, saved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPredictionRepository_SaveBatch_RollsBackOnFailure(t *testing.T) {
	mock := newMockPool(t)
	repo := NewPredictionRepository(mock)
	records := []models.PredictionRecord{
		newRecord(models.PredictionClusterAssignment),
		newRecord(models.PredictionClusterAssignment),
	}

	mock.ExpectBegin()
	expectUpsert(mock, records[0]).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	expectUpsert(mock, records[1]).WillReturnError(errors.New("serialization failure"))
	mock.ExpectRollback()

	saved, err := repo.SaveBatch(context.Background(), records)
	require.Error(t, err)
	assert.False(t, saved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPredictionRepository_SaveBatch_BeginError(t *testing.T) {
	mock := newMockPool(t)
	repo := NewPredictionRepository(mock)

	mock.ExpectBegin().WillReturnError(errors.New("pool closed"))

	saved, err := repo.SaveBatch(context.Background(), []models.PredictionRecord{newRecord(models.PredictionClusterAssignment)})
	require.Error(t, err)
	assert.False(t, saved)
	assert.Contains(t, err.Error(), "failed to begin")
}

func TestPredictionArgs_RoundsConfidence(t *testing.T) {
	record := newRecord(models.PredictionForecastUpdate)

	args := predictionArgs(&record)
	require.Len(t, args, 10)
	assert.Equal(t, "0.7835", args[5].(interface{ String() string }).String())
	assert.Equal(t, "forecast_update", args[3])
	assert.Equal(t, "info", args[7])
}
