package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"rental-watch/internal/address"
	"rental-watch/internal/opendata"
)

// RecordFetcher is the open-data client as the records endpoint sees it.
type RecordFetcher interface {
	FetchViolations(ctx context.Context, variants []string) ([]opendata.Violation, error)
	FetchServiceRequests(ctx context.Context, variants []string) ([]opendata.ServiceRequest, error)
	FetchPermits(ctx context.Context, variants []string) ([]opendata.Permit, error)
}

type RecordsHandler struct {
	src RecordFetcher
}

func NewRecordsHandler(src RecordFetcher) *RecordsHandler {
	return &RecordsHandler{src: src}
}

// GetAddressRecords returns everything on file for the address behind a slug
func (h *RecordsHandler) GetAddressRecords(c *gin.Context) {
	slug := c.Param("slug")
	canonical := address.Normalize(address.FromSlug(slug))
	if canonical == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid address"})
		return
	}
	variants := address.Variants(canonical)

	var (
		violations []opendata.Violation
		requests   []opendata.ServiceRequest
		permits    []opendata.Permit
	)
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() (err error) {
		violations, err = h.src.FetchViolations(ctx, variants)
		return err
	})
	g.Go(func() (err error) {
		requests, err = h.src.FetchServiceRequests(ctx, variants)
		return err
	})
	g.Go(func() (err error) {
		permits, err = h.src.FetchPermits(ctx, variants)
		return err
	})
	if err := g.Wait(); err != nil {
		upstreamError(c, err)
		return
	}

	openViolations := 0
	for _, v := range violations {
		if v.IsOpen() {
			openViolations++
		}
	}
	buildingRequests := 0
	for _, r := range requests {
		if r.Category() == opendata.CategoryBuilding {
			buildingRequests++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"address":          canonical,
		"slug":             address.Slug(canonical),
		"variants":         variants,
		"violations":       violations,
		"service_requests": requests,
		"permits":          permits,
		"summary": gin.H{
			"violations":        len(violations),
			"open_violations":   openViolations,
			"service_requests":  len(requests),
			"building_requests": buildingRequests,
			"permits":           len(permits),
		},
	})
}

// upstreamError maps an open-data failure to 502
func upstreamError(c *gin.Context, err error) {
	var odErr *opendata.Error
	if errors.As(err, &odErr) {
		c.JSON(http.StatusBadGateway, gin.H{"error": "open data request failed", "dataset": odErr.Dataset, "status": odErr.StatusCode})
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
}
