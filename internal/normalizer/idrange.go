package normalizer

import (
	"fmt"
	"regexp"
	"strconv"
)

var jgadRangePattern = regexp.MustCompile(`^JGAD(\d+)-JGAD(\d+)$`)

// ExpandJgadRange implements spec.md §4.3.5(e) and the §8/§9 round-trip
// property: "JGAD######-JGAD######" expands to the inclusive enumeration,
// preserving the digit width of the lower bound. A malformed range (upper
// < lower, or non-matching input) passes through unchanged as a single
// element.
func ExpandJgadRange(s string) []string {
	m := jgadRangePattern.FindStringSubmatch(s)
	if m == nil {
		return []string{s}
	}

	lowStr, highStr := m[1], m[2]
	low, errL := strconv.Atoi(lowStr)
	high, errH := strconv.Atoi(highStr)
	if errL != nil || errH != nil || high < low {
		return []string{s}
	}

	width := len(lowStr)
	out := make([]string, 0, high-low+1)
	for n := low; n <= high; n++ {
		out = append(out, fmt.Sprintf("JGAD%0*d", width, n))
	}
	return out
}
