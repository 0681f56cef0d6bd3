package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"rental-watch/internal/search"
)

type BuildingSearcher interface {
	Search(params search.FilterParams) ([]search.BuildingDocument, error)
}

// Unsubscriber deactivates a watch by its email token
type Unsubscriber interface {
	Unsubscribe(ctx context.Context, token string) (bool, error)
}

type BuildingHandler struct {
	searcher BuildingSearcher
	watches  Unsubscriber
}

// NewBuildingHandler accepts nil for either dependency; the matching
// endpoint then answers 503.
func NewBuildingHandler(searcher BuildingSearcher, watches Unsubscriber) *BuildingHandler {
	return &BuildingHandler{searcher: searcher, watches: watches}
}

// SearchBuildings queries the building index
func (h *BuildingHandler) SearchBuildings(c *gin.Context) {
	if h.searcher == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Search not configured"})
		return
	}

	params := search.FilterParams{
		Query:          c.Query("q"),
		SortBy:         c.Query("sort"),
		OpenViolations: c.Query("open") == "true",
	}
	if v, err := strconv.Atoi(c.Query("min_violations")); err == nil {
		params.MinViolations = &v
	}
	if v, err := strconv.Atoi(c.Query("min_complaints")); err == nil {
		params.MinComplaints = &v
	}
	if v, err := strconv.ParseInt(c.Query("limit"), 10, 64); err == nil {
		params.Limit = v
	}

	hits, err := h.searcher.Search(params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"hits":  hits,
		"count": len(hits),
	})
}

// Unsubscribe deactivates the watch behind an email token. It is POST only
// so link prefetchers cannot trigger it; the token comes from the form body
// or the query string.
func (h *BuildingHandler) Unsubscribe(c *gin.Context) {
	if h.watches == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database not available"})
		return
	}
	token := c.PostForm("token")
	if token == "" {
		token = c.Query("token")
	}
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}
	ok, err := h.watches.Unsubscribe(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Subscription not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"unsubscribed": true})
}
