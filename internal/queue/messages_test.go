package queue

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/bovara-ml/internal/models"
	"github.com/irfndi/bovara-ml/internal/utils"
)

var (
	testRanch    = uuid.MustParse("0b7f2c5e-4d1a-4a8e-9f3b-6c2d1e0a9b88")
	testAnimal   = uuid.MustParse("5e3a9d21-7c4b-4f60-8a1e-2b9c7d4f6a10")
	testReceived = time.Date(2026, time.March, 15, 8, 0, 0, 0, time.UTC)
)

func TestDecodeTask(t *testing.T) {
	data := []byte(`{"ranch_id":"` + testRanch.String() + `","animal_id":"` + testAnimal.String() + `","task_id":"t-1","timestamp":"2026-03-14T22:15:00-03:00"}`)

	task, err := DecodeTask(models.TaskCluster, data, testReceived)
	require.NoError(t, err)

	assert.Equal(t, models.TaskCluster, task.Kind)
	assert.Equal(t, "t-1", task.TaskID)
	assert.Equal(t, testRanch, task.RanchID)
	assert.Equal(t, testAnimal, task.AnimalID)
	assert.Equal(t, time.Date(2026, time.March, 15, 1, 15, 0, 0, time.UTC), task.RequestedAt)
}

// Test a message without timestamp is stamped with the receive time
func TestDecodeTask_DefaultsTimestamp(t *testing.T) {
	data := []byte(`{"ranch_id":"` + testRanch.String() + `","animal_id":"` + testAnimal.String() + `","task_id":"t-2"}`)

	task, err := DecodeTask(models.TaskForecast, data, testReceived)
	require.NoError(t, err)
	assert.Equal(t, testReceived, task.RequestedAt)
}

func TestDecodeTask_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		kind    models.TaskKind
		data    string
		message string
	}{
		{name: "not json", kind: models.TaskForecast, data: `{"ranch_id":`, message: "malformed task message"},
		{name: "missing fields", kind: models.TaskForecast, data: `{"ranch_id":"` + testRanch.String() + `"}`, message: "missing animal_id, task_id"},
		{name: "bad ranch id", kind: models.TaskCluster, data: `{"ranch_id":"r1","animal_id":"a1","task_id":"t"}`, message: `invalid ranch_id "r1"`},
		{name: "bad animal id", kind: models.TaskCluster, data: `{"ranch_id":"` + testRanch.String() + `","animal_id":"a1","task_id":"t"}`, message: `invalid animal_id "a1"`},
		{name: "unknown kind", kind: models.TaskKind("herd"), data: `{}`, message: "unknown task kind"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeTask(tt.kind, []byte(tt.data), testReceived)
			require.Error(t, err)

			var validation *utils.ValidationError
			assert.True(t, errors.As(err, &validation))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestResultMessage_Encoding(t *testing.T) {
	msg := ResultMessage{
		TaskResult: models.TaskResult{
			Status: models.TaskStatusError,
			TaskID: "t-9",
			Kind:   models.TaskForecast,
			Error:  "ranch " + testRanch.String() + " is missing production goals",
		},
		ProcessedAt: testReceived,
	}

	data, err := Encode(msg)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "error", decoded["status"])
	assert.Equal(t, "t-9", decoded["task_id"])
	assert.Equal(t, "forecast", decoded["kind"])
	assert.NotContains(t, decoded, "data")
	assert.Equal(t, "2026-03-15T08:00:00Z", decoded["processed_at"])
}
