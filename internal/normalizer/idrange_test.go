package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandJgadRange(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"JGAD000001-JGAD000003", []string{"JGAD000001", "JGAD000002", "JGAD000003"}},
		{"JGAD000106-JGAD000108", []string{"JGAD000106", "JGAD000107", "JGAD000108"}},
		{"JGAD000108-JGAD000106", []string{"JGAD000108-JGAD000106"}},
		{"JGAD1-JGAD3", []string{"JGAD1", "JGAD2", "JGAD3"}},
		{"not-a-range", []string{"not-a-range"}},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ExpandJgadRange(c.in), "ExpandJgadRange(%q)", c.in)
	}
}
