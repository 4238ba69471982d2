package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/irfndi/bovara-ml/internal/models"
	"github.com/irfndi/bovara-ml/internal/utils"
	"github.com/irfndi/bovara-ml/pkg/interfaces"
)

// Processor runs queued tasks exactly once per task id and records their status
type Processor struct {
	cluster  ClusterExecutor
	forecast ForecastExecutor
	statuses interfaces.TaskStatusRepository
	ledger   interfaces.TaskLedger
	recorder TaskRecorder
	logger   *logrus.Logger
	now      func() time.Time
}

// NewProcessor wires the use cases to the task bookkeeping. A nil ledger
// processes every delivery; a nil recorder disables metrics.
func NewProcessor(cluster ClusterExecutor, forecast ForecastExecutor, statuses interfaces.TaskStatusRepository, ledger interfaces.TaskLedger, recorder TaskRecorder, logger *logrus.Logger) *Processor {
	if ledger == nil {
		ledger = openLedger{}
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Processor{
		cluster:  cluster,
		forecast: forecast,
		statuses: statuses,
		ledger:   ledger,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// Process runs one task. Missing animals and missing ranch configuration are
// final and come back as an error result with a nil error. Any returned error
// means the task may be retried.
func (p *Processor) Process(ctx context.Context, task models.Task) (models.TaskResult, error) {
	start := p.now()
	log := p.logger.WithFields(logrus.Fields{
		"task_id":   task.TaskID,
		"kind":      task.Kind,
		"ranch_id":  task.RanchID,
		"animal_id": task.AnimalID,
	})

	claimed, err := p.ledger.Claim(ctx, task.TaskID)
	if err != nil {
		return models.TaskResult{}, fmt.Errorf("failed to claim task %s: %w", task.TaskID, err)
	}
	if !claimed {
		log.Info("Task already processed or in flight, skipping")
		p.recorder.RecordTask(task.Kind, models.TaskStatusSkipped, p.now().Sub(start))
		return models.TaskResult{Status: models.TaskStatusSkipped, TaskID: task.TaskID, Kind: task.Kind}, nil
	}

	data, runErr := p.run(ctx, task)
	processedAt := p.now().UTC()

	switch {
	case runErr == nil:
		if err := p.statuses.MarkSucceeded(ctx, task.TaskID, processedAt); err != nil {
			log.WithError(err).Error("Failed to record task success")
		}
		p.complete(ctx, log, task.TaskID)
		p.recorder.RecordTask(task.Kind, models.TaskStatusSuccess, p.now().Sub(start))
		return models.TaskResult{Status: models.TaskStatusSuccess, TaskID: task.TaskID, Kind: task.Kind, Data: data}, nil

	case errors.Is(runErr, utils.ErrNotFound), errors.Is(runErr, utils.ErrConfigMissing):
		log.WithError(runErr).Warn("Task failed permanently")
		if err := p.statuses.MarkFailed(ctx, task.TaskID, runErr.Error(), processedAt); err != nil {
			log.WithError(err).Error("Failed to record task failure")
		}
		p.complete(ctx, log, task.TaskID)
		p.recorder.RecordTask(task.Kind, models.TaskStatusError, p.now().Sub(start))
		return models.TaskResult{Status: models.TaskStatusError, TaskID: task.TaskID, Kind: task.Kind, Error: runErr.Error()}, nil
	}

	log.WithError(runErr).Error("Task failed, releasing for retry")
	if err := p.statuses.MarkFailed(ctx, task.TaskID, runErr.Error(), processedAt); err != nil {
		log.WithError(err).Error("Failed to record task failure")
	}
	if err := p.ledger.Release(ctx, task.TaskID); err != nil {
		log.WithError(err).Warn("Failed to release task claim")
	}
	p.recorder.RecordTask(task.Kind, models.TaskStatusError, p.now().Sub(start))
	return models.TaskResult{}, runErr
}

func (p *Processor) run(ctx context.Context, task models.Task) (interface{}, error) {
	switch task.Kind {
	case models.TaskCluster:
		return p.cluster.Execute(ctx, task.RanchID, task.AnimalID)
	case models.TaskForecast:
		return p.forecast.Execute(ctx, task.RanchID, task.AnimalID)
	}
	return nil, utils.NewValidationErrorf("unknown task kind %q", task.Kind)
}

func (p *Processor) complete(ctx context.Context, log *logrus.Entry, taskID string) {
	if err := p.ledger.Complete(ctx, taskID); err != nil {
		log.WithError(err).Warn("Failed to mark task done in ledger")
	}
}

// openLedger admits every delivery
type openLedger struct{}

func (openLedger) Claim(context.Context, string) (bool, error) { return true, nil }
func (openLedger) Complete(context.Context, string) error      { return nil }
func (openLedger) Release(context.Context, string) error       { return nil }
