// Package address turns free-form street addresses into the canonical forms
// used as query keys against the city's open-data portal.
package address

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// unit, suite and apartment designators followed by one token, only at the end
	unitPattern  = regexp.MustCompile(`\s+(?:APT|APARTMENT|UNIT|SUITE|STE|FLOOR|FL|RM|ROOM|BSMT|REAR)\s+\S+$`)
	hashPattern  = regexp.MustCompile(`\s*#\s*\S+$`)
	spacePattern = regexp.MustCompile(`\s+`)

	// SoQL like wildcards; canonical forms never contain them
	wildcards = strings.NewReplacer("%", " ", "_", " ")

	// <number> <direction> <rest>
	directionalPrefix = regexp.MustCompile(`^(\d[\dA-Z-]*)\s+(N|S|E|W|NE|NW|SE|SW)\s+(\S.*)$`)
	slugSeparators    = regexp.MustCompile(`[^a-z0-9]+`)
)

var directionals = map[string]string{
	"NORTH":     "N",
	"SOUTH":     "S",
	"EAST":      "E",
	"WEST":      "W",
	"NORTHEAST": "NE",
	"NORTHWEST": "NW",
	"SOUTHEAST": "SE",
	"SOUTHWEST": "SW",
}

var streetTypes = map[string]string{
	"STREET":     "ST",
	"AVENUE":     "AVE",
	"AV":         "AVE",
	"BOULEVARD":  "BLVD",
	"DRIVE":      "DR",
	"ROAD":       "RD",
	"PLACE":      "PL",
	"COURT":      "CT",
	"LANE":       "LN",
	"PARKWAY":    "PKWY",
	"TERRACE":    "TER",
	"HIGHWAY":    "HWY",
	"SQUARE":     "SQ",
	"CIRCLE":     "CIR",
	"EXPRESSWAY": "EXPY",
	"TRAIL":      "TRL",
	"PLAZA":      "PLZ",
}

// Normalize returns the canonical street form of raw: the part before the first
// comma, ASCII-folded, uppercased, without periods or a trailing unit
// designator, with directionals and street types abbreviated.
// Normalize(Normalize(x)) == Normalize(x) for every input.
func Normalize(raw string) string {
	street := raw
	if i := strings.Index(street, ","); i >= 0 {
		street = street[:i]
	}

	street = fold(street)
	street = strings.ToUpper(street)
	street = strings.ReplaceAll(street, ".", "")
	street = wildcards.Replace(street)
	street = collapse(street)

	for {
		trimmed := unitPattern.ReplaceAllString(street, "")
		trimmed = hashPattern.ReplaceAllString(trimmed, "")
		if trimmed == street {
			break
		}
		street = trimmed
	}

	tokens := strings.Fields(street)
	for i, tok := range tokens {
		if abbr, ok := directionals[tok]; ok {
			tokens[i] = abbr
			continue
		}
		if abbr, ok := streetTypes[tok]; ok {
			tokens[i] = abbr
		}
	}
	return strings.Join(tokens, " ")
}

// Variants returns the canonical form plus, when it starts with
// "<number> <direction> ", the same address without the directional token.
// The city datasets are inconsistent about including directional prefixes.
func Variants(canonical string) []string {
	canonical = strings.TrimSpace(canonical)
	if canonical == "" {
		return nil
	}

	variants := []string{canonical}
	if m := directionalPrefix.FindStringSubmatch(canonical); m != nil {
		variants = append(variants, m[1]+" "+m[3])
	}
	return variants
}

// GroupKey is the literal grouping key for watch subscriptions: the raw
// address uppercased and trimmed, without canonicalization.
func GroupKey(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// fold strips diacritics and maps non-ASCII spaces to plain spaces.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		return r
	}, out)
}

func collapse(s string) string {
	return strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
}
