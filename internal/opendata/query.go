package opendata

import (
	"fmt"
	"regexp"
	"strings"
)

// quote escapes a SoQL string literal by doubling single quotes.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// likeLiteral prepares a value for a like pattern. SoQL has no escape clause,
// so the wildcards are folded to spaces the same way address.Normalize does.
func likeLiteral(s string) string {
	s = strings.NewReplacer("%", " ", "_", " ").Replace(strings.ToUpper(s))
	return strings.Join(strings.Fields(s), " ")
}

// prefixPredicate ORs "column starts with variant" over every variant.
func prefixPredicate(column string, variants []string) string {
	parts := make([]string, 0, len(variants))
	for _, v := range variants {
		v = likeLiteral(v)
		if v == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("upper(%s) like %s", column, quote(v+"%")))
	}
	return strings.Join(parts, " OR ")
}

// exactPredicate ORs exact case-insensitive equality over every address.
func exactPredicate(column string, addrs []string) string {
	parts := make([]string, 0, len(addrs))
	for _, a := range addrs {
		a = strings.ToUpper(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("upper(%s) = %s", column, quote(a)))
	}
	return strings.Join(parts, " OR ")
}

var permitAddressPattern = regexp.MustCompile(`^(\d+)\s+(.+)$`)

var directionTokens = map[string]bool{
	"N": true, "S": true, "E": true, "W": true,
}

// permitPredicate matches the permits dataset, which stores the street
// number and name in separate columns. Variants without a leading number
// are skipped.
func permitPredicate(variants []string) string {
	parts := make([]string, 0, len(variants))
	seen := make(map[string]bool)
	for _, v := range variants {
		m := permitAddressPattern.FindStringSubmatch(likeLiteral(v))
		if m == nil {
			continue
		}
		number, street := m[1], m[2]
		fields := strings.Fields(street)
		if len(fields) > 1 && directionTokens[fields[0]] {
			street = strings.Join(fields[1:], " ")
		}
		key := number + " " + street
		if seen[key] {
			continue
		}
		seen[key] = true
		parts = append(parts, fmt.Sprintf("(street_number=%s AND upper(street_name) like %s)", quote(number), quote(street+"%")))
	}
	return strings.Join(parts, " OR ")
}
