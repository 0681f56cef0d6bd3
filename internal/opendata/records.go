package opendata

import (
	"strings"
)

// Violation is one row of the building violations dataset.
type Violation struct {
	ID          string `json:"id"`
	Date        string `json:"violation_date"`
	Status      string `json:"violation_status"`
	Description string `json:"violation_description"`
	Ordinance   string `json:"violation_ordinance"`
	Address     string `json:"address"`
}

// resolved violation statuses; anything else counts as open
var resolvedViolationStatuses = map[string]bool{
	"COMPLIED": true,
	"CLOSED":   true,
	"PASSED":   true,
}

// IsOpen reports whether the violation has not been resolved.
func (v Violation) IsOpen() bool {
	return !resolvedViolationStatuses[strings.ToUpper(strings.TrimSpace(v.Status))]
}

// ServiceRequest is one row of the 311 service requests dataset.
type ServiceRequest struct {
	Number        string `json:"sr_number"`
	Type          string `json:"sr_type"`
	Status        string `json:"status"`
	CreatedDate   string `json:"created_date"`
	ClosedDate    string `json:"closed_date,omitempty"`
	StreetAddress string `json:"street_address"`
	Ward          string `json:"ward,omitempty"`
	CommunityArea string `json:"community_area,omitempty"`
}

var closedRequestStatuses = map[string]bool{
	"COMPLETED": true,
	"CLOSED":    true,
	"CANCELED":  true,
	"CANCELLED": true,
}

// IsOpen reports whether the request is still open.
func (r ServiceRequest) IsOpen() bool {
	return !closedRequestStatuses[strings.ToUpper(strings.TrimSpace(r.Status))]
}

// Category classifies the request type as building-related or street-level.
func (r ServiceRequest) Category() Category {
	return Classify(r.Type)
}

// Permit is one row of the building permits dataset.
type Permit struct {
	ID              string `json:"id"`
	PermitNumber    string `json:"permit_"`
	PermitType      string `json:"permit_type"`
	IssueDate       string `json:"issue_date"`
	WorkDescription string `json:"work_description"`
	StreetNumber    string `json:"street_number"`
	StreetDirection string `json:"street_direction"`
	StreetName      string `json:"street_name"`
	ReportedCost    string `json:"reported_cost,omitempty"`
}

// Address joins the permit's split address columns.
func (p Permit) Address() string {
	return strings.Join(strings.Fields(strings.Join([]string{p.StreetNumber, p.StreetDirection, p.StreetName}, " ")), " ")
}
