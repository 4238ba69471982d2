package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/irfndi/bovara-ml/internal/analytics"
	"github.com/irfndi/bovara-ml/internal/logging"
	"github.com/irfndi/bovara-ml/internal/models"
)

// RefreshSummary reports one whole-ranch clustering pass
type RefreshSummary struct {
	RanchID   uuid.UUID                   `json:"ranch_id"`
	Evaluated int                         `json:"evaluated"`
	Labels    map[models.ClusterLabel]int `json:"labels"`
	Degraded  int                         `json:"degraded"`
	Timestamp time.Time                   `json:"timestamp"`
}

// RanchRefresher re-clusters every active animal of a ranch in one pass
type RanchRefresher struct {
	cluster *ClusterService
	logger  *logrus.Logger
}

// NewRanchRefresher reuses the cluster service's repositories, engine and options
func NewRanchRefresher(cluster *ClusterService, logger *logrus.Logger) *RanchRefresher {
	return &RanchRefresher{cluster: cluster, logger: logger}
}

// Refresh loads the herd once, evaluates every active animal against it,
// stores each label and saves all audit records in one batch.
func (r *RanchRefresher) Refresh(ctx context.Context, ranchID uuid.UUID) (summary *RefreshSummary, err error) {
	svc := r.cluster
	ctx, span := svc.tracer.TraceRanchRefresh(ctx, ranchID.String())
	defer func() {
		if err != nil {
			span.SetTag("error", err.Error())
		}
		span.Finish()
	}()

	peers, err := svc.repos.Animals.FindActivePeers(ctx, ranchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load herd of ranch %s: %w", ranchID, err)
	}
	series, err := loadPeerSeries(ctx, svc.repos.Events, peers, svc.opts.WeightLookbackDays, svc.opts.PeerConcurrency)
	if err != nil {
		return nil, err
	}

	now := svc.now().UTC()
	summary = &RefreshSummary{
		RanchID:   ranchID,
		Labels:    make(map[models.ClusterLabel]int),
		Timestamp: now,
	}
	if len(peers) == 0 {
		return summary, nil
	}

	evals := make([]analytics.ClusterEvaluation, len(peers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(svc.opts.PeerConcurrency, 1))
	for i := range peers {
		g.Go(func() error {
			eval, err := svc.evaluate(gctx, peers[i], series, now)
			if err != nil {
				return err
			}
			evals[i] = eval
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	records := make([]models.PredictionRecord, 0, len(peers))
	for i, animal := range peers {
		a := evals[i].Assignment
		if err := svc.storeLabel(ctx, animal.ID, a.Label); err != nil {
			return nil, err
		}
		records = append(records, clusterRecord(ranchID, animal.ID, a, now))

		svc.recorder.RecordClusterAssignment(a)
		summary.Labels[a.Label]++
		if a.Reason != models.ReasonNone {
			summary.Degraded++
		}
		if evals[i].FitError != nil {
			r.logger.WithError(evals[i].FitError).WithField("animal_id", animal.ID).Warn("Cluster fit failed, animal left pending")
		}
	}

	if _, err := svc.repos.Predictions.SaveBatch(ctx, records); err != nil {
		return nil, fmt.Errorf("failed to save refresh predictions: %w", err)
	}
	summary.Evaluated = len(records)

	logging.LogBusinessEvent(r.logger, "ranch_refresh", map[string]interface{}{
		"ranch_id":  ranchID.String(),
		"evaluated": summary.Evaluated,
		"degraded":  summary.Degraded,
	})
	return summary, nil
}
