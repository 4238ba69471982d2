package interfaces

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/irfndi/bovara-ml/internal/models"
)

// AnimalRepository defines the contract for reading and updating animals.
// Implementations map rows to typed records so callers never depend on column order.
type AnimalRepository interface {
	// FindByID returns the animal, or nil with no error when it does not exist.
	FindByID(ctx context.Context, id uuid.UUID) (*models.Animal, error)

	// FindActivePeers returns every active animal of the ranch, the focal animal included.
	FindActivePeers(ctx context.Context, ranchID uuid.UUID) ([]models.Animal, error)

	// UpdateClusterLabel stores the label and reports whether a row was touched.
	UpdateClusterLabel(ctx context.Context, id uuid.UUID, label models.ClusterLabel) (bool, error)

	// UpdateForecastFields stores the forecast columns and reports whether a row was touched.
	UpdateForecastFields(ctx context.Context, id uuid.UUID, fields models.ForecastFields) (bool, error)
}

// EventRepository reads the weight and reproductive history of an animal
type EventRepository interface {
	FindWeightEvents(ctx context.Context, animalID uuid.UUID, daysBack int) ([]models.WeightObservation, error)
	FindBreedingEvents(ctx context.Context, animalID uuid.UUID, daysBack int) ([]models.ReproductiveEvent, error)
	FindBirthEvents(ctx context.Context, animalID uuid.UUID, daysBack int) ([]models.ReproductiveEvent, error)
}

// RanchConfigRepository reads ranch configuration. Both methods return nil with
// no error when the ranch has no such configuration.
type RanchConfigRepository interface {
	GetReproSettings(ctx context.Context, ranchID uuid.UUID) (*models.RanchReproSettings, error)
	GetProductionGoals(ctx context.Context, ranchID uuid.UUID) (*models.ProductionGoals, error)
}

// PredictionRepository persists prediction audit records. Writes are upserts
// keyed by record id; a conflict only refreshes explanation and severity.
type PredictionRepository interface {
	Save(ctx context.Context, record *models.PredictionRecord) (bool, error)
	SaveBatch(ctx context.Context, records []models.PredictionRecord) (bool, error)
}

// TaskStatusRepository records the outcome of queued tasks
type TaskStatusRepository interface {
	MarkSucceeded(ctx context.Context, taskID string, processedAt time.Time) error
	MarkFailed(ctx context.Context, taskID string, message string, processedAt time.Time) error
}

// TaskLedger deduplicates task deliveries.
type TaskLedger interface {
	// Claim reserves a task for processing. It returns false when the task is
	// already completed or another worker currently holds it.
	Claim(ctx context.Context, taskID string) (bool, error)

	// Complete marks a claimed task as done.
	Complete(ctx context.Context, taskID string) error

	// Release drops a claim so a redelivery can retry the task.
	Release(ctx context.Context, taskID string) error
}
