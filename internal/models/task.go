package models

import (
	"time"

	"github.com/google/uuid"
)

// TaskKind names the prediction a queued task asks for
type TaskKind string

const (
	TaskForecast TaskKind = "forecast"
	TaskCluster  TaskKind = "cluster"
)

// Valid reports whether k is a known task kind
func (k TaskKind) Valid() bool {
	return k == TaskForecast || k == TaskCluster
}

// Task is a validated prediction request
type Task struct {
	Kind        TaskKind  `json:"kind"`
	TaskID      string    `json:"task_id"`
	RanchID     uuid.UUID `json:"ranch_id"`
	AnimalID    uuid.UUID `json:"animal_id"`
	RequestedAt time.Time `json:"requested_at"`
}

// Task result statuses
const (
	TaskStatusSuccess = "success"
	TaskStatusError   = "error"
	TaskStatusSkipped = "skipped"
)

// TaskResult is the envelope reported for every processed task
type TaskResult struct {
	Status string      `json:"status"`
	TaskID string      `json:"task_id"`
	Kind   TaskKind    `json:"kind"`
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
}
