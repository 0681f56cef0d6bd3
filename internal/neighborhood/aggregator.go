package neighborhood

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"rental-watch/internal/opendata"
)

const (
	requestLimit   = 200
	topAddressSize = 10
	recentCap      = 50
)

// AreaSource is the slice of the open-data client the aggregator needs.
type AreaSource interface {
	AreaServiceRequests(ctx context.Context, areaID, limit int) ([]opendata.ServiceRequest, error)
	ViolationsAtAddresses(ctx context.Context, addrs []string, limit int) ([]opendata.Violation, error)
}

// AddressCount is one row of the top-addresses ranking.
type AddressCount struct {
	Address    string `json:"address"`
	Complaints int    `json:"complaints"`
	Violations int    `json:"violations"`
}

// AreaData is the complaint side of a neighborhood lookup.
type AreaData struct {
	TopAddresses []AddressCount
	Complaints   []opendata.ServiceRequest
}

// Result is a full neighborhood summary. It is recomputed on every query.
type Result struct {
	AreaID           int                       `json:"area_id"`
	AreaName         string                    `json:"area_name"`
	TotalComplaints  int                       `json:"total_complaints"`
	TotalViolations  int                       `json:"total_violations"`
	TopAddresses     []AddressCount            `json:"top_addresses"`
	RecentComplaints []opendata.ServiceRequest `json:"recent_complaints"`
	RecentViolations []opendata.Violation      `json:"recent_violations"`
}

type Aggregator struct {
	src AreaSource
	log *logrus.Entry
}

func NewAggregator(src AreaSource) *Aggregator {
	return &Aggregator{
		src: src,
		log: logrus.WithField("component", "neighborhood"),
	}
}

// FetchNeighborhoodData ranks the area's addresses by recent complaint volume.
func (a *Aggregator) FetchNeighborhoodData(ctx context.Context, areaID int) (*AreaData, error) {
	requests, err := a.src.AreaServiceRequests(ctx, areaID, requestLimit)
	if err != nil {
		return nil, fmt.Errorf("area %d service requests: %w", areaID, err)
	}

	counts := make(map[string]int)
	for _, r := range requests {
		addr := strings.ToUpper(strings.TrimSpace(r.StreetAddress))
		if addr == "" {
			continue
		}
		counts[addr]++
	}

	top := make([]AddressCount, 0, len(counts))
	for addr, n := range counts {
		top = append(top, AddressCount{Address: addr, Complaints: n})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Complaints != top[j].Complaints {
			return top[i].Complaints > top[j].Complaints
		}
		return top[i].Address < top[j].Address
	})
	if len(top) > topAddressSize {
		top = top[:topAddressSize]
	}

	return &AreaData{TopAddresses: top, Complaints: requests}, nil
}

// FetchFullNeighborhoodData adds violation counts for the top addresses.
// Violations are supplementary: if that lookup fails the result carries zero
// violations instead of an error.
func (a *Aggregator) FetchFullNeighborhoodData(ctx context.Context, areaID int, name string) (*Result, error) {
	data, err := a.FetchNeighborhoodData(ctx, areaID)
	if err != nil {
		return nil, err
	}

	addrs := make([]string, len(data.TopAddresses))
	for i, t := range data.TopAddresses {
		addrs[i] = t.Address
	}

	var violations []opendata.Violation
	if len(addrs) > 0 {
		violations, err = a.src.ViolationsAtAddresses(ctx, addrs, requestLimit)
		if err != nil {
			a.log.WithError(err).WithField("area_id", areaID).Warn("violations lookup failed, reporting zero")
			violations = nil
		}
	}

	perAddress := make(map[string]int, len(violations))
	for _, v := range violations {
		perAddress[strings.ToUpper(strings.TrimSpace(v.Address))]++
	}
	for i := range data.TopAddresses {
		data.TopAddresses[i].Violations = perAddress[data.TopAddresses[i].Address]
	}

	result := &Result{
		AreaID:           areaID,
		AreaName:         name,
		TotalComplaints:  len(data.Complaints),
		TotalViolations:  len(violations),
		TopAddresses:     data.TopAddresses,
		RecentComplaints: capRecent(data.Complaints),
		RecentViolations: capRecent(violations),
	}
	if result.RecentViolations == nil {
		result.RecentViolations = []opendata.Violation{}
	}
	return result, nil
}

func capRecent[T any](rows []T) []T {
	if len(rows) > recentCap {
		return rows[:recentCap]
	}
	return rows
}
