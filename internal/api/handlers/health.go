package handlers

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/pncp-vagas/internal/models"
)

// Version is reported by the health endpoints
const Version = "1.0.0"

// HealthChecker reports per-service health, keyed by service name
type HealthChecker interface {
	Health() map[string]interface{}
}

// HealthHandler handles health check requests
type HealthHandler struct {
	services  HealthChecker
	logger    *logrus.Logger
	startTime time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(services HealthChecker, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{
		services:  services,
		logger:    logger,
		startTime: time.Now(),
	}
}

// GetHealth handles general health check
// @Summary Health check
// @Description Get the health status of the API and its dependencies
// @Tags Health
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Failure 503 {object} models.HealthResponse
// @Router /health [get]
func (h *HealthHandler) GetHealth(c *gin.Context) {
	servicesHealth := h.services.Health()
	now := time.Now()

	response := models.HealthResponse{
		Status:    overallStatus(servicesHealth),
		Timestamp: now,
		Version:   Version,
		Services:  make(map[string]models.ServiceInfo, len(servicesHealth)),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}

	for name, raw := range servicesHealth {
		info := models.ServiceInfo{LastCheck: now, Details: raw}
		if healthMap, ok := raw.(map[string]interface{}); ok {
			info.Status, _ = healthMap["status"].(string)
			info.Error, _ = healthMap["error"].(string)
		}
		response.Services[name] = info
	}

	httpStatus := http.StatusOK
	if response.Status == "unhealthy" {
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, response)
}

// GetReadiness handles the readiness check
// @Summary Readiness check
// @Description Check if the API is ready to serve requests
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/ready [get]
func (h *HealthHandler) GetReadiness(c *gin.Context) {
	servicesHealth := h.services.Health()

	issues := make([]string, 0)
	for name, raw := range servicesHealth {
		if healthMap, ok := raw.(map[string]interface{}); ok && healthMap["status"] == "unhealthy" {
			issues = append(issues, name+" service is unhealthy")
		}
	}
	sort.Strings(issues)

	response := gin.H{
		"ready":     len(issues) == 0,
		"timestamp": time.Now(),
		"services":  servicesHealth,
	}

	httpStatus := http.StatusOK
	if len(issues) > 0 {
		response["issues"] = issues
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, response)
}

// GetLiveness handles the liveness check
// @Summary Liveness check
// @Description Check if the API is alive and responding
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/live [get]
func (h *HealthHandler) GetLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"alive":     true,
		"timestamp": time.Now(),
		"uptime":    time.Since(h.startTime).Round(time.Second).String(),
		"version":   Version,
	})
}

// overallStatus is unhealthy if any service is, degraded if any service is
// degraded or stale, healthy otherwise.
func overallStatus(servicesHealth map[string]interface{}) string {
	status := "healthy"
	for _, raw := range servicesHealth {
		healthMap, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		switch healthMap["status"] {
		case "unhealthy":
			return "unhealthy"
		case "degraded", "stale":
			status = "degraded"
		}
	}
	return status
}
