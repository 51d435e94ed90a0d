package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/pncp-vagas/internal/services"
)

// SessionHeader carries the client session id
const SessionHeader = "X-Session-ID"

// OpportunitiesQuery are the query parameters of GET /opportunities
type OpportunitiesQuery struct {
	UF        string `form:"uf" validate:"required,len=2,alpha"`
	Days      int    `form:"days" validate:"omitempty,min=1"`
	OpenOnly  bool   `form:"open_only"`
	Secondary bool   `form:"secondary"`
	Raw       bool   `form:"raw"`
	Live      bool   `form:"live"`
}

// OpportunityHandler handles opportunity searches
type OpportunityHandler struct {
	service  services.OpportunityServiceInterface
	validate *validator.Validate
	logger   *logrus.Logger
}

// NewOpportunityHandler creates a new opportunity handler
func NewOpportunityHandler(service services.OpportunityServiceInterface, logger *logrus.Logger) *OpportunityHandler {
	return &OpportunityHandler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}
}

// Search handles an opportunity search for one state
// @Summary Search medical hiring opportunities
// @Description Query PNCP for one state, keep medical hiring notices and group them by municipality.
// @Description A newer search on the same session supersedes this one, which then answers with superseded=true.
// @Tags Opportunities
// @Produce json
// @Param uf query string true "State code" example(SP)
// @Param days query int false "Window in days ending today"
// @Param open_only query bool false "Only records still accepting proposals"
// @Param secondary query bool false "Also query price-registration minutes and contracts"
// @Param raw query bool false "Include the raw upstream record"
// @Param live query bool false "Skip the cache snapshot"
// @Param X-Session-ID header string false "Client session id, generated when absent"
// @Success 200 {object} models.OpportunitiesResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Failure 504 {object} models.ErrorResponse
// @Router /opportunities [get]
func (h *OpportunityHandler) Search(c *gin.Context) {
	sessionID := sessionID(c)

	var q OpportunitiesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request", err.Error(), "INVALID_REQUEST")
		return
	}
	if err := h.validate.Struct(q); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request", validationMessage(err), "INVALID_REQUEST")
		return
	}

	resp, err := h.service.Search(c.Request.Context(), sessionID, services.QueryRequest{
		UF:               q.UF,
		Days:             q.Days,
		OpenOnly:         q.OpenOnly,
		IncludeSecondary: q.Secondary,
		IncludeRaw:       q.Raw,
		SkipSnapshot:     q.Live,
	})
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	if resp.Result != nil {
		if resp.Result.FromCache {
			c.Header("X-Cache", "HIT")
		} else {
			c.Header("X-Cache", "MISS")
		}
	}
	c.JSON(http.StatusOK, resp)
}

// Cancel aborts the session's in-flight search
// @Summary Cancel the running search
// @Description Abort the in-flight search of the session named by X-Session-ID
// @Tags Opportunities
// @Produce json
// @Param X-Session-ID header string true "Client session id"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse
// @Router /opportunities [delete]
func (h *OpportunityHandler) Cancel(c *gin.Context) {
	id := strings.TrimSpace(c.GetHeader(SessionHeader))
	if id == "" {
		respondError(c, http.StatusBadRequest, "Invalid request", SessionHeader+" header is required", "MISSING_SESSION")
		return
	}

	cancelled := h.service.Cancel(id)
	h.logger.WithFields(logrus.Fields{
		"request_id": c.GetString("request_id"),
		"session_id": id,
		"cancelled":  cancelled,
	}).Info("Search cancellation requested")

	c.Header(SessionHeader, id)
	c.JSON(http.StatusOK, gin.H{"session_id": id, "cancelled": cancelled})
}

// sessionID reads the client session or starts a new one, echoing it back
func sessionID(c *gin.Context) string {
	id := strings.TrimSpace(c.GetHeader(SessionHeader))
	if id == "" {
		id = uuid.New().String()
	}
	c.Header(SessionHeader, id)
	return id
}

func validationMessage(err error) string {
	errs, ok := err.(validator.ValidationErrors)
	if !ok || len(errs) == 0 {
		return err.Error()
	}
	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		parts = append(parts, strings.ToLower(fe.Field())+" failed "+fe.Tag()+" validation")
	}
	return strings.Join(parts, "; ")
}
