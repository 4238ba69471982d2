package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/bovara-ml/internal/config"
	"github.com/irfndi/bovara-ml/internal/models"
	"github.com/irfndi/bovara-ml/internal/utils"
)

// TaskProcessor runs one decoded task. A returned error means the task should
// be redelivered; final failures are reported inside the result instead.
type TaskProcessor interface {
	Process(ctx context.Context, task models.Task) (models.TaskResult, error)
}

// Publisher sends encoded results
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// Delivery is the part of a JetStream message the consumer acknowledges through
type Delivery interface {
	Data() []byte
	Ack() error
	Nak() error
	Term() error
}

// Consumer turns JetStream deliveries into processed tasks
type Consumer struct {
	processor TaskProcessor
	publisher Publisher
	config    config.NATSConfig
	timeout   time.Duration
	logger    *logrus.Logger
	now       func() time.Time
}

// NewConsumer creates a consumer. A non-positive timeout disables the per-task deadline.
func NewConsumer(processor TaskProcessor, publisher Publisher, cfg config.NATSConfig, timeout time.Duration, logger *logrus.Logger) *Consumer {
	return &Consumer{
		processor: processor,
		publisher: publisher,
		config:    cfg,
		timeout:   timeout,
		logger:    logger,
		now:       time.Now,
	}
}

// Handle processes one delivery. Malformed messages are terminated, retryable
// failures are nacked, everything else is acked after the result is published.
func (c *Consumer) Handle(ctx context.Context, kind models.TaskKind, d Delivery) {
	task, err := DecodeTask(kind, d.Data(), c.now())
	if err != nil {
		c.logger.WithError(err).WithField("kind", kind).Error("Dropping malformed task message")
		c.settle(d.Term, "term")
		return
	}

	log := c.logger.WithFields(logrus.Fields{
		"kind":      task.Kind,
		"task_id":   task.TaskID,
		"ranch_id":  task.RanchID,
		"animal_id": task.AnimalID,
	})

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	result, err := c.processor.Process(ctx, task)
	if err != nil {
		var validation *utils.ValidationError
		if errors.As(err, &validation) {
			log.WithError(err).Error("Task rejected")
			c.settle(d.Term, "term")
			return
		}
		log.WithError(err).Warn("Task failed, requesting redelivery")
		c.settle(d.Nak, "nak")
		return
	}

	if result.Status != models.TaskStatusSkipped {
		if err := c.publish(ctx, result); err != nil {
			log.WithError(err).Error("Failed to publish task result")
		}
	}
	c.settle(d.Ack, "ack")
}

// Run subscribes to the forecast and cluster subjects and blocks until ctx is done
func (c *Consumer) Run(ctx context.Context, client *Client) error {
	subscriptions := []struct {
		kind    models.TaskKind
		subject string
	}{
		{kind: models.TaskForecast, subject: c.config.ForecastSubject},
		{kind: models.TaskCluster, subject: c.config.ClusterSubject},
	}

	var running []jetstream.ConsumeContext
	defer func() {
		for _, cc := range running {
			cc.Stop()
		}
	}()

	for _, sub := range subscriptions {
		kind := sub.kind
		durable := fmt.Sprintf("%s-%s", c.config.DurablePrefix, kind)
		cc, err := client.Subscribe(ctx, sub.subject, durable, func(msg jetstream.Msg) {
			c.Handle(ctx, kind, msg)
		})
		if err != nil {
			return err
		}
		running = append(running, cc)
		c.logger.WithFields(logrus.Fields{"subject": sub.subject, "durable": durable}).Info("Consuming tasks")
	}

	<-ctx.Done()
	return nil
}

func (c *Consumer) publish(ctx context.Context, result models.TaskResult) error {
	data, err := Encode(ResultMessage{TaskResult: result, ProcessedAt: c.now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return c.publisher.Publish(ctx, c.config.ResultSubject, data)
}

func (c *Consumer) settle(fn func() error, action string) {
	if err := fn(); err != nil {
		c.logger.WithError(err).WithField("action", action).Warn("Failed to settle message")
	}
}
