package search

import (
	"fmt"
	"strings"

	"github.com/meilisearch/meilisearch-go"
)

type FilterParams struct {
	Query          string
	MinViolations  *int
	MinComplaints  *int
	OpenViolations bool
	SortBy         string
	Limit          int64
}

// Filters returns the Meilisearch filter expressions for p
func (p FilterParams) Filters() []string {
	var filters []string
	if p.MinViolations != nil {
		filters = append(filters, fmt.Sprintf("violations >= %d", *p.MinViolations))
	}
	if p.MinComplaints != nil {
		filters = append(filters, fmt.Sprintf("complaints >= %d", *p.MinComplaints))
	}
	if p.OpenViolations {
		filters = append(filters, "open_violations > 0")
	}
	return filters
}

// Sort maps the sort parameter to sortable attributes
func (p FilterParams) Sort() []string {
	switch p.SortBy {
	case "violations_desc":
		return []string{"violations:desc"}
	case "complaints_desc":
		return []string{"complaints:desc"}
	case "recent":
		return []string{"checked_at:desc"}
	default:
		return nil
	}
}

func (p FilterParams) request() *meilisearch.SearchRequest {
	limit := p.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	req := &meilisearch.SearchRequest{Limit: limit}
	if filters := p.Filters(); len(filters) > 0 {
		req.Filter = strings.Join(filters, " AND ")
	}
	if sort := p.Sort(); len(sort) > 0 {
		req.Sort = sort
	}
	return req
}
