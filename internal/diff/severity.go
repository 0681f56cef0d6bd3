package diff

import "fmt"

type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
)

// Classify maps the number of new records on a building to a severity.
// total >= 5 is high, total >= 2 is medium.
func Classify(total int) Severity {
	switch {
	case total >= 5:
		return SeverityHigh
	case total >= 2:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

func (s Severity) String() string {
	switch s {
	case SeverityHigh:
		return "high"
	case SeverityMedium:
		return "medium"
	default:
		return "low"
	}
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(b []byte) error {
	switch string(b) {
	case "low":
		*s = SeverityLow
	case "medium":
		*s = SeverityMedium
	case "high":
		*s = SeverityHigh
	default:
		return fmt.Errorf("unknown severity %q", string(b))
	}
	return nil
}

type AlertType int

const (
	AlertViolation AlertType = iota
	AlertServiceRequest
)

func (t AlertType) String() string {
	if t == AlertServiceRequest {
		return "service_request"
	}
	return "violation"
}

func (t AlertType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *AlertType) UnmarshalText(b []byte) error {
	switch string(b) {
	case "violation":
		*t = AlertViolation
	case "service_request":
		*t = AlertServiceRequest
	default:
		return fmt.Errorf("unknown alert type %q", string(b))
	}
	return nil
}

// Alert is the content of one alert row for a claimed building.
type Alert struct {
	Type        AlertType
	Severity    Severity
	Title       string
	Description string
}

// BuildAlerts returns one alert per counter with a positive delta. Both carry
// the building-level severity.
func BuildAlerts(address string, delta, current Counts) []Alert {
	if !delta.Any() {
		return nil
	}
	sev := Classify(delta.Total())
	var alerts []Alert
	if delta.Violations > 0 {
		alerts = append(alerts, Alert{
			Type:        AlertViolation,
			Severity:    sev,
			Title:       fmt.Sprintf("%d new %s at %s", delta.Violations, plural(delta.Violations, "violation", "violations"), address),
			Description: fmt.Sprintf("%d new building %s recorded. %s now has %d on file.", delta.Violations, plural(delta.Violations, "violation", "violations"), address, current.Violations),
		})
	}
	if delta.Complaints > 0 {
		alerts = append(alerts, Alert{
			Type:        AlertServiceRequest,
			Severity:    sev,
			Title:       fmt.Sprintf("%d new 311 %s at %s", delta.Complaints, plural(delta.Complaints, "complaint", "complaints"), address),
			Description: fmt.Sprintf("%d new service %s filed. %s now has %d on file.", delta.Complaints, plural(delta.Complaints, "request", "requests"), address, current.Complaints),
		})
	}
	return alerts
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
