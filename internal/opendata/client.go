package opendata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"rental-watch/internal/ratelimit"
)

// MaxPageSize is the largest page requested from any dataset.
const MaxPageSize = 200

// Default dataset ids on data.cityofchicago.org.
const (
	DefaultBaseURL            = "https://data.cityofchicago.org"
	DefaultViolationsDataset  = "22u3-xenr"
	DefaultServiceReqsDataset = "v6vf-nfxy"
	DefaultPermitsDataset     = "ydr8-5enu"
)

// Error is a non-2xx response from the open-data portal.
type Error struct {
	Dataset    string
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("open data %s: status %d: %s", e.Dataset, e.StatusCode, e.Body)
}

type Config struct {
	BaseURL                string
	AppToken               string
	ViolationsDataset      string
	ServiceRequestsDataset string
	PermitsDataset         string
	PageSize               int
	Timeout                time.Duration
}

// Client queries the city's Socrata datasets. It never retries; callers
// decide what a failed fetch means.
type Client struct {
	baseURL  string
	appToken string
	datasets struct {
		violations      string
		serviceRequests string
		permits         string
	}
	pageSize int
	http     *http.Client
	limiter  *ratelimit.RateLimiter
	log      *logrus.Entry
}

// NewClient builds a client. A nil httpClient gets one with cfg.Timeout;
// a nil limiter disables pacing.
func NewClient(cfg Config, limiter *ratelimit.RateLimiter, httpClient *http.Client) *Client {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	c := &Client{
		baseURL:  strings.TrimRight(orDefault(cfg.BaseURL, DefaultBaseURL), "/"),
		appToken: cfg.AppToken,
		pageSize: cfg.PageSize,
		http:     httpClient,
		limiter:  limiter,
		log:      logrus.WithField("component", "opendata"),
	}
	if c.pageSize <= 0 || c.pageSize > MaxPageSize {
		c.pageSize = MaxPageSize
	}
	c.datasets.violations = orDefault(cfg.ViolationsDataset, DefaultViolationsDataset)
	c.datasets.serviceRequests = orDefault(cfg.ServiceRequestsDataset, DefaultServiceReqsDataset)
	c.datasets.permits = orDefault(cfg.PermitsDataset, DefaultPermitsDataset)
	return c
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// FetchViolations returns violations whose address starts with any variant,
// newest first.
func (c *Client) FetchViolations(ctx context.Context, variants []string) ([]Violation, error) {
	where := prefixPredicate("address", variants)
	if where == "" {
		return []Violation{}, nil
	}
	var out []Violation
	err := c.query(ctx, c.datasets.violations, soql{where: where, order: "violation_date DESC", limit: c.pageSize}, &out)
	return out, err
}

// FetchServiceRequests returns 311 requests whose street address starts with
// any variant, newest first.
func (c *Client) FetchServiceRequests(ctx context.Context, variants []string) ([]ServiceRequest, error) {
	where := prefixPredicate("street_address", variants)
	if where == "" {
		return []ServiceRequest{}, nil
	}
	var out []ServiceRequest
	err := c.query(ctx, c.datasets.serviceRequests, soql{where: where, order: "created_date DESC", limit: c.pageSize}, &out)
	return out, err
}

// FetchPermits returns building permits matching any variant, newest first.
func (c *Client) FetchPermits(ctx context.Context, variants []string) ([]Permit, error) {
	where := permitPredicate(variants)
	if where == "" {
		return []Permit{}, nil
	}
	var out []Permit
	err := c.query(ctx, c.datasets.permits, soql{where: where, order: "issue_date DESC", limit: c.pageSize}, &out)
	return out, err
}

// AreaServiceRequests returns the most recent requests in a community area.
func (c *Client) AreaServiceRequests(ctx context.Context, areaID, limit int) ([]ServiceRequest, error) {
	q := soql{
		where:      fmt.Sprintf("community_area=%s", quote(strconv.Itoa(areaID))),
		order:      "created_date DESC",
		limit:      c.clamp(limit),
		selectCols: areaRequestColumns,
	}
	var out []ServiceRequest
	err := c.query(ctx, c.datasets.serviceRequests, q, &out)
	return out, err
}

// ViolationsAtAddresses returns violations whose address equals one of addrs exactly.
func (c *Client) ViolationsAtAddresses(ctx context.Context, addrs []string, limit int) ([]Violation, error) {
	where := exactPredicate("address", addrs)
	if where == "" {
		return []Violation{}, nil
	}
	var out []Violation
	err := c.query(ctx, c.datasets.violations, soql{where: where, order: "violation_date DESC", limit: c.clamp(limit)}, &out)
	return out, err
}

const areaRequestColumns = "sr_number,sr_type,status,created_date,closed_date,street_address,ward,community_area"

func (c *Client) clamp(limit int) int {
	if limit <= 0 || limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}

type soql struct {
	where      string
	order      string
	limit      int
	selectCols string
}

func (q soql) values() url.Values {
	v := url.Values{}
	v.Set("$where", q.where)
	if q.order != "" {
		v.Set("$order", q.order)
	}
	if q.limit > 0 {
		v.Set("$limit", strconv.Itoa(q.limit))
	}
	if q.selectCols != "" {
		v.Set("$select", q.selectCols)
	}
	return v
}

func (c *Client) query(ctx context.Context, dataset string, q soql, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	endpoint := fmt.Sprintf("%s/resource/%s.json?%s", c.baseURL, dataset, q.values().Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.appToken != "" {
		req.Header.Set("X-App-Token", c.appToken)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("query %s: %w", dataset, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &Error{Dataset: dataset, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", dataset, err)
	}
	c.log.WithFields(logrus.Fields{"dataset": dataset, "elapsed": time.Since(start)}).Debug("query ok")
	return nil
}
