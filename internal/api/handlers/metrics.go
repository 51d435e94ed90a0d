package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/pncp-vagas/internal/models"
)

// MetricsSources gathers the counters exposed by /metrics. Nil sources
// report zero values.
type MetricsSources struct {
	Queries  interface{ Metrics() models.QueryMetrics }
	Upstream interface{ Stats() models.UpstreamMetrics }
	Cache    interface{ Metrics() models.CacheMetrics }
	Snapshot interface{ Info() models.SnapshotInfo }
}

// MetricsHandler handles metrics requests
type MetricsHandler struct {
	sources MetricsSources
	logger  *logrus.Logger
}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler(sources MetricsSources, logger *logrus.Logger) *MetricsHandler {
	return &MetricsHandler{
		sources: sources,
		logger:  logger,
	}
}

// GetMetrics handles metrics request
// @Summary Get application metrics
// @Description Query outcomes, upstream page counters, cache hit rate and snapshot state
// @Tags Metrics
// @Produce json
// @Success 200 {object} models.MetricsResponse
// @Router /metrics [get]
func (h *MetricsHandler) GetMetrics(c *gin.Context) {
	h.logger.WithField("request_id", c.GetString("request_id")).Debug("Getting application metrics")

	response := models.MetricsResponse{Timestamp: time.Now()}
	if h.sources.Queries != nil {
		response.Queries = h.sources.Queries.Metrics()
	}
	if h.sources.Upstream != nil {
		response.Upstream = h.sources.Upstream.Stats()
	}
	if h.sources.Cache != nil {
		response.Cache = h.sources.Cache.Metrics()
	}
	if h.sources.Snapshot != nil {
		response.Snapshot = h.sources.Snapshot.Info()
	}

	c.JSON(http.StatusOK, response)
}
