package corrections

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	streetAtRegex    = regexp.MustCompile(` (St|Av|Ave|Dr|Rd)( East| West)? at `)
	streetSuffixRe   = regexp.MustCompile(` (St|Av|Ave|Dr|Rd)( East| West)?$`)
	lineNameRegex    = regexp.MustCompile(`LINE \d \((.+)\)`)
	titleCaser       = cases.Title(language.English)
	lowercaseInTitle = map[string]bool{
		"a": true, "an": true, "and": true, "as": true, "at": true, "but": true,
		"by": true, "en": true, "for": true, "if": true, "in": true, "of": true,
		"on": true, "or": true, "the": true, "to": true, "v": true, "via": true,
		"vs": true,
	}
)

// shortenStopName turns "Queen St West at Spadina Ave" into "Queen / Spadina"
func shortenStopName(name string) string {
	name = streetAtRegex.ReplaceAllString(name, " / ")
	return streetSuffixRe.ReplaceAllString(name, "")
}

// shortenLineName turns "LINE 1 (YONGE-UNIVERSITY)" into "YONGE-UNIVERSITY"
func shortenLineName(name string) string {
	return lineNameRegex.ReplaceAllString(name, "${1}")
}

// titleCase title-cases s, keeping short joining words lower case
// unless they start the string.
func titleCase(s string) string {
	words := strings.Fields(titleCaser.String(strings.ToLower(s)))
	for i, w := range words {
		if i > 0 && lowercaseInTitle[strings.ToLower(w)] {
			words[i] = strings.ToLower(w)
		}
	}
	return strings.Join(words, " ")
}

// routeNumber parses the leading integer of a route number such as "504A".
// ok is false when the route number does not start with a digit.
func routeNumber(s string) (n int, ok bool) {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	return n, err == nil
}

// splitNumberedDirection splits "19 - Mississauga Square One" into the
// route number and the remaining destination text
func splitNumberedDirection(s string) (number, dest string) {
	parts := strings.Split(s, " - ")
	return parts[0], strings.Join(parts[1:], " - ")
}
