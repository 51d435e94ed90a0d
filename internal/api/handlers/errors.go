package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/pncp-vagas/internal/models"
	"github.com/nexconsult/pncp-vagas/internal/pncp"
	"github.com/nexconsult/pncp-vagas/internal/services"
)

func respondError(c *gin.Context, status int, title, message, code string) {
	c.JSON(status, models.ErrorResponse{
		Error:     title,
		Message:   message,
		Code:      code,
		Timestamp: time.Now(),
		Path:      c.Request.URL.Path,
	})
}

// respondServiceError maps a service error onto an HTTP status
func respondServiceError(c *gin.Context, logger *logrus.Logger, err error) {
	entry := logger.WithFields(logrus.Fields{
		"request_id": c.GetString("request_id"),
		"path":       c.Request.URL.Path,
		"error":      err.Error(),
	})

	var invalid *services.InvalidRequestError
	switch {
	case errors.As(err, &invalid):
		respondError(c, http.StatusBadRequest, "Invalid request", invalid.Error(), "INVALID_REQUEST")
	case pncp.IsTimeout(err):
		entry.Warn("Upstream timeout")
		respondError(c, http.StatusGatewayTimeout, "Upstream timeout", err.Error(), "UPSTREAM_TIMEOUT")
	case pncp.IsUpstream(err):
		entry.Warn("Upstream failure")
		respondError(c, http.StatusBadGateway, "Upstream error", err.Error(), "UPSTREAM_ERROR")
	case errors.Is(err, services.ErrRebuildInProgress):
		respondError(c, http.StatusConflict, "Conflict", err.Error(), "REBUILD_IN_PROGRESS")
	case pncp.IsCancelled(err):
		respondError(c, http.StatusRequestTimeout, "Request cancelled", err.Error(), "CANCELLED")
	default:
		entry.Error("Unexpected service error")
		respondError(c, http.StatusInternalServerError, "Internal server error",
			"An unexpected error occurred while processing your request", "INTERNAL_ERROR")
	}
}
