package domain

import (
	"fmt"
	"regexp"
	"strconv"
)

var (
	humIDPattern        = regexp.MustCompile(`^hum\d{4}$`)
	humVersionIDPattern = regexp.MustCompile(`^(hum\d{4})-v(\d+)$`)
	jgasPattern         = regexp.MustCompile(`^JGAS\d{6}$`)
)

// IsHumID reports whether s is a well-formed humId (hum + 4 digits).
func IsHumID(s string) bool {
	return humIDPattern.MatchString(s)
}

// FormatHumID zero-pads n into the hum#### form.
func FormatHumID(n int) string {
	return fmt.Sprintf("hum%04d", n)
}

// ParseHumVersionID splits a humVersionId into its humId and integer version.
func ParseHumVersionID(s string) (humID string, version int, ok bool) {
	m := humVersionIDPattern.FindStringSubmatch(s)
	if m == nil {
		return "", 0, false
	}
	v, err := strconv.Atoi(m[2])
	if err != nil {
		return "", 0, false
	}
	return m[1], v, true
}

// FormatHumVersionID joins a humId and version into a humVersionId.
func FormatHumVersionID(humID string, version int) string {
	return fmt.Sprintf("%s-v%d", humID, version)
}

// IsJGAS reports whether s matches the JGAS study-id format exactly.
// Per the core invariant, no value matching this predicate may survive into
// structured output.
func IsJGAS(s string) bool {
	return jgasPattern.MatchString(s)
}
