package services

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"go.uber.org/goleak"

	"github.com/irfndi/bovara-ml/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	testRanch = uuid.MustParse("0b7f2c5e-4d1a-4a8e-9f3b-6c2d1e0a9b88")
	testNow   = time.Date(2026, time.March, 15, 10, 30, 0, 0, time.UTC)
	testToday = models.DateOnly(testNow)
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func fixedClock() time.Time { return testNow }

func ptr[T any](v T) *T { return &v }

func daysFromToday(n int) time.Time { return models.AddDays(testToday, n) }

// growth builds a three-point series gaining rate kg/day over sixty days
func growth(rate float64) []models.WeightObservation {
	return []models.WeightObservation{
		{Date: daysFromToday(-60), WeightKg: 250},
		{Date: daysFromToday(-30), WeightKg: 250 + 30*rate},
		{Date: daysFromToday(0), WeightKg: 250 + 60*rate},
	}
}

type MockAnimalRepository struct {
	mock.Mock
}

func (m *MockAnimalRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Animal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Animal), args.Error(1)
}

func (m *MockAnimalRepository) FindActivePeers(ctx context.Context, ranchID uuid.UUID) ([]models.Animal, error) {
	args := m.Called(ctx, ranchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Animal), args.Error(1)
}

func (m *MockAnimalRepository) UpdateClusterLabel(ctx context.Context, id uuid.UUID, label models.ClusterLabel) (bool, error) {
	args := m.Called(ctx, id, label)
	return args.Bool(0), args.Error(1)
}

func (m *MockAnimalRepository) UpdateForecastFields(ctx context.Context, id uuid.UUID, fields models.ForecastFields) (bool, error) {
	args := m.Called(ctx, id, fields)
	return args.Bool(0), args.Error(1)
}

type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) FindWeightEvents(ctx context.Context, animalID uuid.UUID, daysBack int) ([]models.WeightObservation, error) {
	args := m.Called(ctx, animalID, daysBack)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.WeightObservation), args.Error(1)
}

func (m *MockEventRepository) FindBreedingEvents(ctx context.Context, animalID uuid.UUID, daysBack int) ([]models.ReproductiveEvent, error) {
	args := m.Called(ctx, animalID, daysBack)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ReproductiveEvent), args.Error(1)
}

func (m *MockEventRepository) FindBirthEvents(ctx context.Context, animalID uuid.UUID, daysBack int) ([]models.ReproductiveEvent, error) {
	args := m.Called(ctx, animalID, daysBack)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ReproductiveEvent), args.Error(1)
}

type MockRanchConfigRepository struct {
	mock.Mock
}

func (m *MockRanchConfigRepository) GetReproSettings(ctx context.Context, ranchID uuid.UUID) (*models.RanchReproSettings, error) {
	args := m.Called(ctx, ranchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RanchReproSettings), args.Error(1)
}

func (m *MockRanchConfigRepository) GetProductionGoals(ctx context.Context, ranchID uuid.UUID) (*models.ProductionGoals, error) {
	args := m.Called(ctx, ranchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProductionGoals), args.Error(1)
}

type MockPredictionRepository struct {
	mock.Mock
}

func (m *MockPredictionRepository) Save(ctx context.Context, record *models.PredictionRecord) (bool, error) {
	args := m.Called(ctx, record)
	return args.Bool(0), args.Error(1)
}

func (m *MockPredictionRepository) SaveBatch(ctx context.Context, records []models.PredictionRecord) (bool, error) {
	args := m.Called(ctx, records)
	return args.Bool(0), args.Error(1)
}

type MockTaskStatusRepository struct {
	mock.Mock
}

func (m *MockTaskStatusRepository) MarkSucceeded(ctx context.Context, taskID string, processedAt time.Time) error {
	return m.Called(ctx, taskID, processedAt).Error(0)
}

func (m *MockTaskStatusRepository) MarkFailed(ctx context.Context, taskID string, message string, processedAt time.Time) error {
	return m.Called(ctx, taskID, message, processedAt).Error(0)
}

type MockTaskLedger struct {
	mock.Mock
}

func (m *MockTaskLedger) Claim(ctx context.Context, taskID string) (bool, error) {
	args := m.Called(ctx, taskID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTaskLedger) Complete(ctx context.Context, taskID string) error {
	return m.Called(ctx, taskID).Error(0)
}

func (m *MockTaskLedger) Release(ctx context.Context, taskID string) error {
	return m.Called(ctx, taskID).Error(0)
}

type MockClusterExecutor struct {
	mock.Mock
}

func (m *MockClusterExecutor) Execute(ctx context.Context, ranchID, animalID uuid.UUID) (*models.ClusterResult, error) {
	args := m.Called(ctx, ranchID, animalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ClusterResult), args.Error(1)
}

type MockForecastExecutor struct {
	mock.Mock
}

func (m *MockForecastExecutor) Execute(ctx context.Context, ranchID, animalID uuid.UUID) (*models.ForecastOutcome, error) {
	args := m.Called(ctx, ranchID, animalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ForecastOutcome), args.Error(1)
}

// recordingRecorder captures everything the services report
type recordingRecorder struct {
	clusters  []models.ClusterAssignment
	forecasts []models.ForecastResult
	tasks     []string
}

func (r *recordingRecorder) RecordClusterAssignment(a models.ClusterAssignment) {
	r.clusters = append(r.clusters, a)
}

func (r *recordingRecorder) RecordForecast(f models.ForecastResult) {
	r.forecasts = append(r.forecasts, f)
}

func (r *recordingRecorder) RecordTask(kind models.TaskKind, status string, _ time.Duration) {
	r.tasks = append(r.tasks, string(kind)+":"+status)
}
