package index

import (
	"testing"

	elastic "github.com/olivere/elastic/v7"
	"github.com/stretchr/testify/assert"
)

func TestParseHumIDNumber(t *testing.T) {
	cases := []struct {
		in     string
		wantN  int
		wantOK bool
	}{
		{"hum0001", 1, true},
		{"hum0042", 42, true},
		{"not-a-humid", 0, false},
	}
	for _, c := range cases {
		_, n, ok := parseHumIDNumber(c.in)
		assert.Equal(t, c.wantOK, ok, "parseHumIDNumber(%q)", c.in)
		if ok {
			assert.Equal(t, c.wantN, n, "parseHumIDNumber(%q)", c.in)
		}
	}
}

func TestIsConflict(t *testing.T) {
	assert.True(t, isConflict(&elastic.Error{Status: 409}))
	assert.False(t, isConflict(&elastic.Error{Status: 500}))
	assert.False(t, isConflict(nil))
}
