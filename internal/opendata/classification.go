package opendata

import "strings"

// Category is the coarse classification of a 311 request type.
type Category int

const (
	CategoryStreet Category = iota
	CategoryBuilding
)

func (c Category) String() string {
	if c == CategoryBuilding {
		return "building"
	}
	return "street"
}

// MarshalText lets categories serialize as their label.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// request types that are about a building regardless of wording
var buildingRequestTypes = map[string]bool{
	"BUILDING VIOLATION":                            true,
	"NO BUILDING PERMIT AND CONSTRUCTION VIOLATION": true,
	"VACANT/ABANDONED BUILDING COMPLAINT":           true,
	"NO HEAT COMPLAINT":                             true,
	"NO WATER COMPLAINT":                            true,
	"SANITATION CODE VIOLATION":                     true,
}

// request types that are street-level even though they match a building keyword
var streetRequestTypes = map[string]bool{
	"STREET LIGHT OUT COMPLAINT":  true,
	"ALLEY LIGHT OUT COMPLAINT":   true,
	"POTHOLE IN STREET COMPLAINT": true,
	"WATER ON STREET COMPLAINT":   true,
}

var buildingKeywords = []string{
	"BUILDING",
	"HEAT",
	"PLUMBING",
	"ELEVATOR",
	"PORCH",
	"VACANT",
	"APARTMENT",
	"RESIDENTIAL",
	"LANDLORD",
	"MOLD",
	"BED BUG",
	"LEAD",
	"VENTILATION",
}

// Classify maps a free-text request type to a category: exact matches first,
// then keyword containment; everything else is street-level.
func Classify(requestType string) Category {
	t := strings.ToUpper(strings.TrimSpace(requestType))
	if t == "" {
		return CategoryStreet
	}
	if streetRequestTypes[t] {
		return CategoryStreet
	}
	if buildingRequestTypes[t] {
		return CategoryBuilding
	}
	for _, kw := range buildingKeywords {
		if strings.Contains(t, kw) {
			return CategoryBuilding
		}
	}
	return CategoryStreet
}
