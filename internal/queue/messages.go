package queue

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/irfndi/bovara-ml/internal/models"
	"github.com/irfndi/bovara-ml/internal/utils"
)

// TaskMessage is the wire form of a prediction request
type TaskMessage struct {
	RanchID   string     `json:"ranch_id"`
	AnimalID  string     `json:"animal_id"`
	TaskID    string     `json:"task_id"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// ResultMessage is published for every task that reached a final outcome
type ResultMessage struct {
	models.TaskResult
	ProcessedAt time.Time `json:"processed_at"`
}

// Encode serializes a message to JSON bytes
func Encode(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// DecodeTask parses and validates a task of the given kind. Every failure is
// a *utils.ValidationError so callers can dead-letter the message.
func DecodeTask(kind models.TaskKind, data []byte, receivedAt time.Time) (models.Task, error) {
	if !kind.Valid() {
		return models.Task{}, utils.NewValidationErrorf("unknown task kind %q", kind)
	}

	var msg TaskMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return models.Task{}, utils.NewValidationErrorf("malformed task message: %v", err)
	}

	var missing []string
	if msg.RanchID == "" {
		missing = append(missing, "ranch_id")
	}
	if msg.AnimalID == "" {
		missing = append(missing, "animal_id")
	}
	if msg.TaskID == "" {
		missing = append(missing, "task_id")
	}
	if len(missing) > 0 {
		return models.Task{}, utils.NewValidationErrorf("task message missing %s", strings.Join(missing, ", "))
	}

	ranchID, err := uuid.Parse(msg.RanchID)
	if err != nil {
		return models.Task{}, utils.NewValidationErrorf("invalid ranch_id %q", msg.RanchID)
	}
	animalID, err := uuid.Parse(msg.AnimalID)
	if err != nil {
		return models.Task{}, utils.NewValidationErrorf("invalid animal_id %q", msg.AnimalID)
	}

	requestedAt := receivedAt.UTC()
	if msg.Timestamp != nil {
		requestedAt = msg.Timestamp.UTC()
	}

	return models.Task{
		Kind:        kind,
		TaskID:      msg.TaskID,
		RanchID:     ranchID,
		AnimalID:    animalID,
		RequestedAt: requestedAt,
	}, nil
}
