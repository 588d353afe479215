package normalizer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	slashDatePattern = regexp.MustCompile(`^(\d{4})/(\d{1,2})/(\d{1,2})$`)
	isoDatePattern   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

var comingSoon = map[string]bool{
	"Coming soon":  true,
	"近日公開予定":       true,
}

// FixDate converts "YYYY/M/D" to zero-padded "YYYY-MM-DD"; an already-ISO
// string is returned unchanged; anything else is returned verbatim
// (spec.md §4.3.4, §8 scenario 1).
func FixDate(s string) string {
	s = strings.TrimSpace(s)
	if isoDatePattern.MatchString(s) {
		return s
	}
	if m := slashDatePattern.FindStringSubmatch(s); m != nil {
		year := m[1]
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		return fmt.Sprintf("%s-%02d-%02d", year, month, day)
	}
	return s
}

// FixReleaseDate applies FixDate to each space-separated part of a release
// date value and maps the "Coming soon"/"近日公開予定" sentinels to nil
// (spec.md §4.3.4, §3 invariant, §8 scenario 1).
func FixReleaseDate(s string) []*string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Fields(s)
	out := make([]*string, 0, len(parts))
	for i := 0; i < len(parts); i++ {
		p := parts[i]
		// "Coming soon" spans two space-separated parts.
		if p == "Coming" && i+1 < len(parts) && parts[i+1] == "soon" {
			out = append(out, nil)
			i++
			continue
		}
		if comingSoon[p] {
			out = append(out, nil)
			continue
		}
		fixed := FixDate(p)
		out = append(out, &fixed)
	}
	return out
}

// FixSingleReleaseDate is the common case of FixReleaseDate for a value that
// is known to carry at most one date: the sentinel values map to nil,
// everything else goes through FixDate.
func FixSingleReleaseDate(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" || comingSoon[s] {
		return nil
	}
	fixed := FixDate(s)
	return &fixed
}
