package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/bovara-ml/internal/services"
	"github.com/irfndi/bovara-ml/internal/utils"
)

// RanchRefresher re-clusters a whole ranch
type RanchRefresher interface {
	Refresh(ctx context.Context, ranchID uuid.UUID) (*services.RefreshSummary, error)
}

// PredictionHandler serves on-demand cluster, forecast and refresh runs
type PredictionHandler struct {
	cluster   services.ClusterExecutor
	forecast  services.ForecastExecutor
	refresher RanchRefresher
	logger    *logrus.Logger
}

func NewPredictionHandler(cluster services.ClusterExecutor, forecast services.ForecastExecutor, refresher RanchRefresher, logger *logrus.Logger) *PredictionHandler {
	return &PredictionHandler{
		cluster:   cluster,
		forecast:  forecast,
		refresher: refresher,
		logger:    logger,
	}
}

// Cluster handles POST /api/v1/ranches/:ranch_id/animals/:animal_id/cluster
func (h *PredictionHandler) Cluster(c *gin.Context) {
	ranchID, animalID, ok := animalParams(c)
	if !ok {
		return
	}
	result, err := h.cluster.Execute(c.Request.Context(), ranchID, animalID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Forecast handles POST /api/v1/ranches/:ranch_id/animals/:animal_id/forecast
func (h *PredictionHandler) Forecast(c *gin.Context) {
	ranchID, animalID, ok := animalParams(c)
	if !ok {
		return
	}
	outcome, err := h.forecast.Execute(c.Request.Context(), ranchID, animalID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

// Refresh handles POST /api/v1/ranches/:ranch_id/refresh
func (h *PredictionHandler) Refresh(c *gin.Context) {
	ranchID, ok := uuidParam(c, "ranch_id")
	if !ok {
		return
	}
	summary, err := h.refresher.Refresh(c.Request.Context(), ranchID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *PredictionHandler) respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, utils.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrConfigMissing):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "prediction timed out"})
	default:
		h.logger.WithError(err).WithField("path", c.FullPath()).Error("Prediction request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func animalParams(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	ranchID, ok := uuidParam(c, "ranch_id")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	animalID, ok := uuidParam(c, "animal_id")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return ranchID, animalID, true
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}
