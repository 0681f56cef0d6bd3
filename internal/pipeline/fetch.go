package pipeline

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"rental-watch/internal/diff"
	"rental-watch/internal/opendata"
	"rental-watch/internal/search"
)

// observation is what one fetch saw at an address.
type observation struct {
	counts         diff.Counts
	openViolations int
	openComplaints int
}

// observe fetches violations and service requests concurrently.
func observe(ctx context.Context, src RecordSource, variants []string) (observation, error) {
	var (
		violations []opendata.Violation
		requests   []opendata.ServiceRequest
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		violations, err = src.FetchViolations(gctx, variants)
		return err
	})
	g.Go(func() error {
		var err error
		requests, err = src.FetchServiceRequests(gctx, variants)
		return err
	})
	if err := g.Wait(); err != nil {
		return observation{}, err
	}

	obs := observation{counts: diff.Counts{Violations: len(violations), Complaints: len(requests)}}
	for _, v := range violations {
		if v.IsOpen() {
			obs.openViolations++
		}
	}
	for _, r := range requests {
		if r.IsOpen() {
			obs.openComplaints++
		}
	}
	return obs, nil
}

func (o observation) document(canonical string, at time.Time) search.BuildingDocument {
	doc := search.NewBuildingDocument(canonical)
	doc.Violations = o.counts.Violations
	doc.OpenViolations = o.openViolations
	doc.Complaints = o.counts.Complaints
	doc.OpenComplaints = o.openComplaints
	doc.CheckedAt = at.Unix()
	return doc
}
