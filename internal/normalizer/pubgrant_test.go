package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbcls/humandbs-sub002/internal/mapping"
)

func testPubGrantCfg() mapping.NormalizeMapping {
	return mapping.NormalizeMapping{
		GrantDenyList:            []string{"JP00BADGRANT"},
		PublicationTitleDenyList: []string{"In preparation"},
		DOIDenyList:              []string{"10.0000/bad"},
	}
}

func TestNormalizeGrantIDFoldsFullWidth(t *testing.T) {
	n := NewPubGrantNormalizer(testPubGrantCfg())
	id, keep := n.NormalizeGrantID("ＪＰ１７ｋ０１２３４")
	require.True(t, keep)
	assert.Equal(t, "JP17k01234", id)
}

func TestNormalizeGrantIDDenyList(t *testing.T) {
	n := NewPubGrantNormalizer(testPubGrantCfg())
	_, keep := n.NormalizeGrantID("JP00BADGRANT")
	assert.False(t, keep, "expected deny-listed grant to be dropped")
}

func TestIsInSubmissionTitle(t *testing.T) {
	n := NewPubGrantNormalizer(testPubGrantCfg())
	assert.True(t, n.IsInSubmissionTitle("In preparation"), "expected deny-listed title to be dropped")
	assert.False(t, n.IsInSubmissionTitle("A Real Title"), "expected normal title to survive")
}

func TestNormalizeDOI(t *testing.T) {
	n := NewPubGrantNormalizer(testPubGrantCfg())
	assert.Nil(t, n.NormalizeDOI(""), "expected nil for empty DOI")
	assert.Nil(t, n.NormalizeDOI("10.0000/bad"), "expected nil for deny-listed DOI")

	got := n.NormalizeDOI(" 10.1234/good ")
	require.NotNil(t, got)
	assert.Equal(t, "10.1234/good", *got)
}

func TestParsePeriodSlashForm(t *testing.T) {
	p := ParsePeriod("2020/4/1-2021/3/31")
	require.NotNil(t, p)
	assert.Equal(t, "2020-04-01", *p.Start)
	assert.Equal(t, "2021-03-31", *p.End)
}

func TestParsePeriodISOForm(t *testing.T) {
	p := ParsePeriod("2020-04-01-2021-03-31")
	require.NotNil(t, p)
	assert.Equal(t, "2020-04-01", *p.Start)
	assert.Equal(t, "2021-03-31", *p.End)
}

func TestParsePeriodMalformed(t *testing.T) {
	assert.Nil(t, ParsePeriod("not a period"))
}
