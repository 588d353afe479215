package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeURL(t *testing.T) {
	cases := []struct {
		raw, base, want string
	}{
		{"https://example.com/x", "https://portal.example", "https://example.com/x"},
		{"http://example.com/x", "https://portal.example", "http://example.com/x"},
		{"/en/hum0014", "https://portal.example", "https://portal.example/en/hum0014"},
		{"/en/hum0014", "https://portal.example/", "https://portal.example/en/hum0014"},
		{"relative/path", "https://portal.example", "relative/path"},
		{"", "https://portal.example", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, NormalizeURL(c.raw, c.base), "NormalizeURL(%q, %q)", c.raw, c.base)
	}
}
