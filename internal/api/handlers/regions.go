package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nexconsult/pncp-vagas/internal/regions"
)

// RegionHandler serves the region and state table
type RegionHandler struct{}

// NewRegionHandler creates a new region handler
func NewRegionHandler() *RegionHandler {
	return &RegionHandler{}
}

// List returns every region with its states
// @Summary List regions
// @Description Brazilian regions and their federative units, in display order
// @Tags Regions
// @Produce json
// @Success 200 {array} models.Region
// @Router /regions [get]
func (h *RegionHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, regions.All())
}

// States returns the states of one region
// @Summary List the states of a region
// @Description Region names are matched ignoring case and accents
// @Tags Regions
// @Produce json
// @Param region path string true "Region name" example(Sudeste)
// @Success 200 {array} models.State
// @Failure 404 {object} models.ErrorResponse
// @Router /regions/{region}/states [get]
func (h *RegionHandler) States(c *gin.Context) {
	region, ok := regions.Find(c.Param("region"))
	if !ok {
		respondError(c, http.StatusNotFound, "Not found", "Unknown region "+c.Param("region"), "REGION_NOT_FOUND")
		return
	}
	c.JSON(http.StatusOK, region.States)
}
