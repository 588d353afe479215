package structurer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbcls/humandbs-sub002/internal/domain"
	"github.com/dbcls/humandbs-sub002/internal/mapping"
)

func textRow(header string, fields map[string]string) domain.NormalizedMolDataRow {
	data := make(map[string][]domain.TextValue, len(fields))
	for k, v := range fields {
		data[k] = []domain.TextValue{{Text: v}}
	}
	return domain.NormalizedMolDataRow{
		ExtractedDatasetIDs: []string{"JGAD000001"},
		Header:              domain.TextValue{Text: header},
		Data:                data,
	}
}

// TestVersionReuseAcrossHumVersionIds implements spec.md §8 scenario 6:
// two humVersionIds emitting identical experiment content for the same
// datasetId share version "v1"; changing one field in a later version
// bumps it to "v2".
func TestVersionReuseAcrossHumVersionIds(t *testing.T) {
	s := New(mapping.DatasetOverrides{})

	v1 := VersionRecord{
		HumVersionID: "hum0001-v1",
		Version:      1,
		JA: &domain.NormalizedRecord{
			MolecularData: []domain.NormalizedMolDataRow{textRow("JGAD000001", map[string]string{"platform": "HiSeq"})},
		},
		EN: &domain.NormalizedRecord{
			MolecularData: []domain.NormalizedMolDataRow{textRow("JGAD000001", map[string]string{"platform": "HiSeq"})},
		},
	}
	v2Unchanged := VersionRecord{
		HumVersionID: "hum0001-v2",
		Version:      2,
		JA: &domain.NormalizedRecord{
			MolecularData: []domain.NormalizedMolDataRow{textRow("JGAD000001", map[string]string{"platform": "HiSeq"})},
		},
		EN: &domain.NormalizedRecord{
			MolecularData: []domain.NormalizedMolDataRow{textRow("JGAD000001", map[string]string{"platform": "HiSeq"})},
		},
	}

	_, _, datasets, err := s.Structure("hum0001", []VersionRecord{v1, v2Unchanged})
	require.NoError(t, err)
	require.Len(t, datasets, 1, "expected exactly one distinct dataset version")
	assert.Equal(t, "v1", datasets[0].Version)

	v3Changed := VersionRecord{
		HumVersionID: "hum0001-v3",
		Version:      3,
		JA: &domain.NormalizedRecord{
			MolecularData: []domain.NormalizedMolDataRow{textRow("JGAD000001", map[string]string{"platform": "HiSeq"})},
		},
		EN: &domain.NormalizedRecord{
			MolecularData: []domain.NormalizedMolDataRow{textRow("JGAD000001", map[string]string{"platform": "NovaSeq"})},
		},
	}

	_, _, datasets2, err := s.Structure("hum0001", []VersionRecord{v1, v2Unchanged, v3Changed})
	require.NoError(t, err)

	versions := map[string]bool{}
	for _, ds := range datasets2 {
		versions[ds.Version] = true
	}
	assert.True(t, versions["v1"] && versions["v2"], "expected both v1 and v2 to be present, got %+v", datasets2)
}

func TestStructureBuildsResearchFromLatestRecord(t *testing.T) {
	s := New(mapping.DatasetOverrides{})

	jaTitle := "研究タイトル"
	enTitle := "Research Title"

	v1 := VersionRecord{
		HumVersionID: "hum0002-v1",
		Version:      1,
		JA:           &domain.NormalizedRecord{Summary: domain.NormalizedSummary{Title: &jaTitle}},
		EN:           &domain.NormalizedRecord{Summary: domain.NormalizedSummary{Title: &enTitle}},
	}

	research, versions, _, err := s.Structure("hum0002", []VersionRecord{v1})
	require.NoError(t, err)
	require.NotNil(t, research.Title.JA)
	assert.Equal(t, jaTitle, *research.Title.JA)
	require.NotNil(t, research.Title.EN)
	assert.Equal(t, enTitle, *research.Title.EN)
	require.Len(t, versions, 1)
	assert.Equal(t, "hum0002-v1", versions[0].HumVersionID)
	assert.Equal(t, "hum0002-v1", research.LatestVersion)
}

func TestMergePublicationsRewritesDatasetIDsViaExpansionMap(t *testing.T) {
	s := New(mapping.DatasetOverrides{})

	v1 := VersionRecord{
		HumVersionID: "hum0003-v1",
		Version:      1,
		JA: &domain.NormalizedRecord{
			MolecularData: []domain.NormalizedMolDataRow{textRow("JGAD000001", map[string]string{"platform": "HiSeq"})},
			Publications: []domain.NormalizedPublication{
				{Title: "A Paper", DatasetIDs: []string{"JGAD000001"}},
			},
		},
	}

	research, _, _, err := s.Structure("hum0003", []VersionRecord{v1})
	require.NoError(t, err)
	require.Len(t, research.RelatedPublication, 1)
	assert.Equal(t, []string{"JGAD000001"}, research.RelatedPublication[0].DatasetIDs)
}
