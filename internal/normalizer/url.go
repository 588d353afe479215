package normalizer

import "strings"

// NormalizeURL implements spec.md §4.3.2: absolute URLs pass through
// unchanged; a leading "/" is prefixed with the known portal base; anything
// else passes through unchanged. URLs are never rewritten beyond this.
func NormalizeURL(raw, portalBase string) string {
	if raw == "" {
		return raw
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	if strings.HasPrefix(raw, "/") {
		return strings.TrimSuffix(portalBase, "/") + raw
	}
	return raw
}
