package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/pncp-vagas/internal/services"
)

// SnapshotHandler exposes the cache snapshot
type SnapshotHandler struct {
	service        services.SnapshotServiceInterface
	rebuildTimeout time.Duration
	logger         *logrus.Logger
}

// NewSnapshotHandler creates a new snapshot handler
func NewSnapshotHandler(service services.SnapshotServiceInterface, rebuildTimeout time.Duration, logger *logrus.Logger) *SnapshotHandler {
	return &SnapshotHandler{service: service, rebuildTimeout: rebuildTimeout, logger: logger}
}

// Get returns the snapshot metadata
// @Summary Snapshot metadata
// @Description Generation time, coverage and freshness of the nationwide cache snapshot
// @Tags Snapshot
// @Produce json
// @Success 200 {object} models.SnapshotInfo
// @Router /snapshot [get]
func (h *SnapshotHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Info())
}

// Rebuild starts a snapshot rebuild in the background
// @Summary Rebuild the snapshot
// @Description Start a nationwide snapshot rebuild. Poll GET /snapshot for the result.
// @Tags Snapshot
// @Produce json
// @Success 202 {object} map[string]interface{}
// @Failure 409 {object} models.ErrorResponse
// @Router /snapshot/rebuild [post]
func (h *SnapshotHandler) Rebuild(c *gin.Context) {
	if err := h.service.RebuildInBackground(h.rebuildTimeout); err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	h.logger.WithField("request_id", c.GetString("request_id")).Info("Snapshot rebuild requested")
	c.JSON(http.StatusAccepted, gin.H{
		"message":   "Snapshot rebuild started",
		"timestamp": time.Now(),
	})
}
