package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixDate(t *testing.T) {
	cases := map[string]string{
		"2024/1/5":    "2024-01-05",
		"2024-01-05":  "2024-01-05",
		"Coming soon": "Coming soon",
	}
	for in, want := range cases {
		assert.Equal(t, want, FixDate(in), "FixDate(%q)", in)
	}
}

func TestFixSingleReleaseDate(t *testing.T) {
	assert.Nil(t, FixSingleReleaseDate("Coming soon"))
	assert.Nil(t, FixSingleReleaseDate("近日公開予定"))

	got := FixSingleReleaseDate("2024/1/5")
	require.NotNil(t, got)
	assert.Equal(t, "2024-01-05", *got)
}

func TestFixReleaseDateMultipart(t *testing.T) {
	parts := FixReleaseDate("2024/1/5 2024/2/10")
	require.Len(t, parts, 2)
	assert.Equal(t, "2024-01-05", *parts[0])
	assert.Equal(t, "2024-02-10", *parts[1])
}
