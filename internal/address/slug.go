package address

import (
	"strings"
)

// display forms for slug words that should not be title-cased
var slugWords = map[string]string{
	"n":    "N",
	"s":    "S",
	"e":    "E",
	"w":    "W",
	"ne":   "NE",
	"nw":   "NW",
	"se":   "SE",
	"sw":   "SW",
	"st":   "St",
	"ave":  "Ave",
	"blvd": "Blvd",
	"dr":   "Dr",
	"rd":   "Rd",
	"pl":   "Pl",
	"ct":   "Ct",
	"ln":   "Ln",
	"pkwy": "Pkwy",
	"ter":  "Ter",
	"hwy":  "Hwy",
	"sq":   "Sq",
	"cir":  "Cir",
	"il":   "IL",
}

// Slug lowercases address and replaces every run of non-alphanumeric
// characters with a single hyphen. Different addresses can share a slug.
func Slug(address string) string {
	s := slugSeparators.ReplaceAllString(strings.ToLower(fold(address)), "-")
	return strings.Trim(s, "-")
}

// FromSlug is the approximate inverse of Slug: hyphens become spaces, known
// abbreviations get their usual capitalization and every other word is
// capitalized. It does not recover punctuation, units or the original case.
func FromSlug(slug string) string {
	parts := strings.FieldsFunc(slug, func(r rune) bool { return r == '-' })
	for i, p := range parts {
		p = strings.ToLower(p)
		if w, ok := slugWords[p]; ok {
			parts[i] = w
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
