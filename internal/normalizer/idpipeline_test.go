package normalizer

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbcls/humandbs-sub002/internal/mapping"
)

type fakeRelationService struct {
	data map[string][]string
}

func (f *fakeRelationService) GetDatasetsFromStudy(ctx context.Context, jgasID string) ([]string, error) {
	return f.data[jgasID], nil
}

func sortedStrings(ss []string) []string {
	out := append([]string{}, ss...)
	sort.Strings(out)
	return out
}

// TestIDPipelinePublicationJGASExpansion implements spec.md §8 scenario 4:
// a publication row reading "JGAS000114 / hum0014.v6.158k.v1" resolves,
// via the relation service, to ["JGAD000220", "JGAD000410"].
func TestIDPipelinePublicationJGASExpansion(t *testing.T) {
	svc := &fakeRelationService{
		data: map[string][]string{
			"JGAS000114": {"JGAD000220", "JGAD000410"},
		},
	}
	cfg := mapping.DatasetIDMapping{
		NoSplitAllowList: []string{"hum0014.v6.158k.v1"},
	}
	p := NewIDPipeline(cfg, svc)

	ids, warnings, err := p.Reconcile(context.Background(), "hum0014", IDContextPublication, "JGAS000114 / hum0014.v6.158k.v1")
	require.NoError(t, err)
	assert.Empty(t, warnings)

	want := []string{"JGAD000220", "JGAD000410", "hum0014.v6.158k.v1"}
	assert.Equal(t, sortedStrings(want), sortedStrings(ids))
}

func TestIDPipelineRangeAndDenyList(t *testing.T) {
	svc := &fakeRelationService{data: map[string][]string{}}
	cfg := mapping.DatasetIDMapping{
		InvalidIDDenyList: []string{"JGAD999999"},
	}
	p := NewIDPipeline(cfg, svc)

	ids, _, err := p.Reconcile(context.Background(), "hum0001", IDContextGeneral, "JGAD000106-JGAD000108 JGAD999999")
	require.NoError(t, err)
	want := []string{"JGAD000106", "JGAD000107", "JGAD000108"}
	assert.Equal(t, sortedStrings(want), sortedStrings(ids))
}

func TestIDPipelineAdditionalAndIgnoreDatasetIDs(t *testing.T) {
	svc := &fakeRelationService{
		data: map[string][]string{
			"JGAS000001": {"JGAD000001", "JGAD000002"},
		},
	}
	cfg := mapping.DatasetIDMapping{
		AdditionalDatasetIDs: map[string]map[string][]string{
			"hum0002": {"JGAS000001": {"JGAD000003"}},
		},
		IgnoreDatasetIDs: map[string][]string{
			"hum0002": {"JGAD000002"},
		},
	}
	p := NewIDPipeline(cfg, svc)

	ids, _, err := p.Reconcile(context.Background(), "hum0002", IDContextGeneral, "JGAS000001")
	require.NoError(t, err)
	want := []string{"JGAD000001", "JGAD000003"}
	assert.Equal(t, sortedStrings(want), sortedStrings(ids))
}

func TestIDPipelineAnnotationStrippingAndAliases(t *testing.T) {
	svc := &fakeRelationService{data: map[string][]string{}}
	cfg := mapping.DatasetIDMapping{
		PerResearchAliases: map[string]map[string]string{
			"hum0003": {"JGAD000099": "JGAD000100"},
		},
	}
	p := NewIDPipeline(cfg, svc)

	ids, _, err := p.Reconcile(context.Background(), "hum0003", IDContextGeneral, "JGAD000099（データ追加）")
	require.NoError(t, err)
	assert.Equal(t, []string{"JGAD000100"}, ids)
}
