package database

import (
	"context"
	"fmt"
	"time"
)

// Task statuses written to processing_queue
const (
	TaskStatusSuccess = "SUCCESS"
	TaskStatusError   = "ERROR"
)

// TaskStatusRepository records task outcomes in processing_queue.
type TaskStatusRepository struct {
	pool DatabasePool
}

// NewTaskStatusRepository creates a new task status repository.
func NewTaskStatusRepository(pool DatabasePool) *TaskStatusRepository {
	return &TaskStatusRepository{pool: pool}
}

// MarkSucceeded sets the task to SUCCESS. Unknown task ids are not an error;
// tasks published without a queue row simply have nothing to update.
func (r *TaskStatusRepository) MarkSucceeded(ctx context.Context, taskID string, processedAt time.Time) error {
	query := `UPDATE processing_queue SET status = $1, error_message = NULL, processed_at = $2 WHERE id = $3`

	if _, err := r.pool.Exec(ctx, query, TaskStatusSuccess, processedAt, taskID); err != nil {
		return fmt.Errorf("failed to mark task %s succeeded: %w", taskID, err)
	}
	return nil
}

// MarkFailed sets the task to ERROR with the failure message.
func (r *TaskStatusRepository) MarkFailed(ctx context.Context, taskID string, message string, processedAt time.Time) error {
	query := `UPDATE processing_queue SET status = $1, error_message = $2, processed_at = $3 WHERE id = $4`

	if _, err := r.pool.Exec(ctx, query, TaskStatusError, message, processedAt, taskID); err != nil {
		return fmt.Errorf("failed to mark task %s failed: %w", taskID, err)
	}
	return nil
}
