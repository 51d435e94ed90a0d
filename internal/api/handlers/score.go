package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/pncp-vagas/internal/models"
	"github.com/nexconsult/pncp-vagas/internal/scoring"
	"github.com/nexconsult/pncp-vagas/internal/textnorm"
)

// ScoreHandler exposes the relevance scorer for vocabulary tuning
type ScoreHandler struct {
	scorer *scoring.Scorer
	logger *logrus.Logger
}

// NewScoreHandler creates a new score handler
func NewScoreHandler(scorer *scoring.Scorer, logger *logrus.Logger) *ScoreHandler {
	return &ScoreHandler{scorer: scorer, logger: logger}
}

// Score classifies one procurement object description
// @Summary Score a description
// @Description Run the relevance scorer on a procurement object text
// @Tags Scoring
// @Accept json
// @Produce json
// @Param request body models.ScoreRequest true "Description to score"
// @Success 200 {object} models.ScoreResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /score [post]
func (h *ScoreHandler) Score(c *gin.Context) {
	var req models.ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request", err.Error(), "INVALID_REQUEST")
		return
	}

	c.JSON(http.StatusOK, NewScoreResponse(req.Text, h.scorer.Score(req.Text)))
}

// NewScoreResponse reports r for text
func NewScoreResponse(text string, r scoring.Result) models.ScoreResponse {
	return models.ScoreResponse{
		Text:       text,
		Normalized: textnorm.Normalize(text),
		Accepted:   r.Accepted,
		Score:      r.Score,
		Doctor:     r.Doctor,
		Hiring:     r.Hiring,
		Excluded:   r.Excluded,
	}
}
