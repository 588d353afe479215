package normalizer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbcls/humandbs-sub002/internal/domain"
	"github.com/dbcls/humandbs-sub002/internal/mapping"
)

func TestNormalizerEndToEndSummaryAndPublications(t *testing.T) {
	svc := &fakeRelationService{
		data: map[string][]string{
			"JGAS000114": {"JGAD000220", "JGAD000410"},
		},
	}
	maps := &mapping.Set{
		DatasetID: mapping.DatasetIDMapping{
			NoSplitAllowList: []string{"hum0014.v6.158k.v1"},
		},
		Normalize: mapping.NormalizeMapping{
			PublicationTitleDenyList: []string{"In preparation"},
		},
	}
	n := New("https://humandbs.dbcls.jp", maps, svc)

	criteriaStr := "制限公開(TypeI),非制限公開"
	releaseDate := "2024/1/5"
	raw := domain.RawRecord{
		HumVersionID: "hum0014-v6",
		Lang:         domain.LangJA,
		Summary: domain.RawSummary{
			Datasets: []domain.RawDatasetSummary{
				{RawIDs: "JGAD000001", Criteria: &criteriaStr, ReleaseDate: &releaseDate},
			},
		},
		Publications: []domain.RawPublication{
			{Title: "In preparation", RawDatasetIDs: "JGAS000114"},
			{Title: "A Real Paper", DOI: "10.1234/x", RawDatasetIDs: "JGAS000114 / hum0014.v6.158k.v1"},
		},
	}

	out, report := n.Normalize(context.Background(), "hum0014", raw)
	require.Empty(t, report.Failed)

	require.Len(t, out.Summary.Datasets, 1)
	assert.Equal(t, "JGAD000001", out.Summary.Datasets[0].DatasetIDs[0])
	assert.Len(t, out.Summary.Datasets[0].Criteria, 2)
	require.NotNil(t, out.Summary.Datasets[0].ReleaseDate)
	assert.Equal(t, "2024-01-05", *out.Summary.Datasets[0].ReleaseDate)

	// The "In preparation" row must be dropped outright, not reported as a failure.
	require.Len(t, out.Publications, 1, "expected exactly one surviving publication")
	pub := out.Publications[0]
	assert.Equal(t, "A Real Paper", pub.Title)
	wantIDs := []string{"JGAD000220", "JGAD000410", "hum0014.v6.158k.v1"}
	assert.ElementsMatch(t, wantIDs, pub.DatasetIDs)
}

func TestNormalizerGrantFolding(t *testing.T) {
	maps := &mapping.Set{}
	n := New("https://humandbs.dbcls.jp", maps, &fakeRelationService{data: map[string][]string{}})

	raw := domain.RawRecord{
		HumVersionID: "hum0001-v1",
		Lang:         domain.LangEN,
		DataProvider: domain.RawDataProvider{
			Grants: []string{"ＪＰ１７ｋ０１２３４"},
		},
	}

	out, _ := n.Normalize(context.Background(), "hum0001", raw)
	require.Len(t, out.DataProvider.Grants, 1)
	assert.Equal(t, "JP17k01234", out.DataProvider.Grants[0].ID)
}
