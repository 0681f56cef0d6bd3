package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"rental-watch/internal/neighborhood"
)

type NeighborhoodFetcher interface {
	FetchFullNeighborhoodData(ctx context.Context, areaID int, name string) (*neighborhood.Result, error)
}

type NeighborhoodHandler struct {
	agg NeighborhoodFetcher
}

func NewNeighborhoodHandler(agg NeighborhoodFetcher) *NeighborhoodHandler {
	return &NeighborhoodHandler{agg: agg}
}

// GetNeighborhood resolves ?q= to a community area and summarizes it
func (h *NeighborhoodHandler) GetNeighborhood(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}
	area, ok := neighborhood.Match(q)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Neighborhood not found"})
		return
	}

	result, err := h.agg.FetchFullNeighborhoodData(c.Request.Context(), area.ID, area.Name)
	if err != nil {
		upstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListAreas returns every community area
func (h *NeighborhoodHandler) ListAreas(c *gin.Context) {
	areas := neighborhood.Areas()
	c.JSON(http.StatusOK, gin.H{
		"areas": areas,
		"count": len(areas),
	})
}
