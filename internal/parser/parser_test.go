package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbcls/humandbs-sub002/internal/domain"
	"github.com/dbcls/humandbs-sub002/internal/mapping"
)

const detailHTML = `
<html><body>
<div class="research-title">Example Study</div>
<div class="research-aims">Aims text</div>
<table class="data-summary-table"><tbody>
<tr><td>JGAD000001</td><td>制限公開(TypeI)</td><td>2024/1/5</td><td>WGS</td></tr>
<tr><td>-</td><td></td><td></td><td></td></tr>
</tbody></table>
<ul class="data-summary-footer"><li>※1 note text</li></ul>
<table class="molecular-data-table">
<thead><tr><th>ID</th><th>Platform</th><th>Tissue</th></tr></thead>
<tbody>
<tr><td>JGAD000001</td><td>Illumina<br/>HiSeq</td><td>Blood</td></tr>
</tbody>
</table>
<table class="data-provider-table"><tbody>
<tr><td>Dr. A</td><td>Univ X</td><td>Project Y</td><td>http://example.org</td><td>JP12345</td></tr>
</tbody></table>
<table class="publication-table"><tbody>
<tr><td>A Real Paper</td><td>10.1234/x</td><td>JGAS000114</td></tr>
</tbody></table>
<table class="controlled-access-table"><tbody>
<tr><td>Org A</td><td>User A</td><td>2020/1/1-2021/1/1</td><td>JGAD000001</td></tr>
</tbody></table>
</body></html>
`

func TestDetailParserExtractsSummaryRows(t *testing.T) {
	p := NewDetailParser(mapping.CrawlHotfix{})
	rec, err := p.Parse("hum0014-v6", domain.LangJA, []byte(detailHTML))
	require.NoError(t, err)
	require.Len(t, rec.Summary.Datasets, 1, "expected the empty '-' row to be dropped")

	row := rec.Summary.Datasets[0]
	assert.Equal(t, "JGAD000001", row.RawIDs)
	require.NotNil(t, row.Criteria)
	assert.Equal(t, "制限公開(TypeI)", *row.Criteria)
	require.Len(t, rec.Summary.Footers, 1)
	assert.Equal(t, "note text", rec.Summary.Footers[0], "expected footnote marker stripped")
}

func TestDetailParserSplitsMultiValueCellOnBr(t *testing.T) {
	p := NewDetailParser(mapping.CrawlHotfix{})
	rec, err := p.Parse("hum0014-v6", domain.LangJA, []byte(detailHTML))
	require.NoError(t, err)
	require.Len(t, rec.MolecularData, 1)

	platform := rec.MolecularData[0].Data["Platform"]
	assert.Equal(t, []string{"Illumina", "HiSeq"}, platform.Values, "expected br-split platform values")
}

func TestDetailParserControlledAccessRowFixOverridesGenericExtraction(t *testing.T) {
	hotfix := mapping.CrawlHotfix{
		ControlledAccessRowFixes: map[string]mapping.ControlledAccessRowFix{
			"hum0014/4/Org A": {
				Organisation: "Org A (fixed)",
				Name:         "User A (fixed)",
				Period:       "2020/1/1-2021/1/1",
				DatasetIDs:   "JGAD000002",
			},
		},
	}
	p := NewDetailParser(hotfix)
	rec, err := p.Parse("hum0014-v6", domain.LangJA, []byte(detailHTML))
	require.NoError(t, err)
	require.Len(t, rec.ControlledAccessUsers, 1)

	u := rec.ControlledAccessUsers[0]
	assert.Equal(t, "Org A (fixed)", u.Organisation, "expected hotfix row to win")
	assert.Equal(t, "JGAD000002", u.RawDatasetIDs)
}

func TestDetailParserDataProviderAndPublications(t *testing.T) {
	p := NewDetailParser(mapping.CrawlHotfix{})
	rec, err := p.Parse("hum0014-v6", domain.LangJA, []byte(detailHTML))
	require.NoError(t, err)

	require.Len(t, rec.DataProvider.PrincipalInvestigator, 1)
	assert.Equal(t, "Dr. A", rec.DataProvider.PrincipalInvestigator[0])
	require.Len(t, rec.Publications, 1)
	assert.Equal(t, "10.1234/x", rec.Publications[0].DOI)
}

const releaseHTML = `
<html><body>
<table class="release-history-table"><tbody>
<tr><td>v2</td><td>2024/3/1</td><td>Added dataset</td></tr>
<tr><td>v1</td><td>2023/1/1</td><td>Initial release</td></tr>
</tbody></table>
</body></html>
`

func TestReleaseParserExtractsVersionsInOrder(t *testing.T) {
	p := NewReleaseParser()
	releases, err := p.Parse("hum0014-v6", []byte(releaseHTML))
	require.NoError(t, err)
	require.Len(t, releases, 2)

	assert.Equal(t, 2, releases[0].Version)
	assert.Equal(t, "2024/3/1", releases[0].ReleaseDate)
}
