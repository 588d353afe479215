package structurer

import (
	"strings"

	"github.com/dbcls/humandbs-sub002/internal/domain"
	"github.com/dbcls/humandbs-sub002/internal/mapping"
)

// datasetMeta is the criteria/releaseDate/typeOfData triple a dataset may
// either carry directly (summary-table entry) or inherit (§4.4.2).
type datasetMeta struct {
	Criteria    []domain.Criteria
	ReleaseDate *string
	TypeOfData  *string
}

// resolveMeta looks up the explicit override table first (keyed by
// "<humId>/<datasetId>"), then a direct summary-table entry, then walks the
// dotted-prefix ancestor chain ("hum0014.v3.T2DM-1.v1" -> "hum0014.v3.T2DM-1"
// -> "hum0014.v3" -> ...) until a summary entry is found.
func resolveMeta(humID, datasetID string, direct map[string]datasetMeta, overrides mapping.DatasetOverrides) datasetMeta {
	if o, ok := overrides.Overrides[humID+"/"+datasetID]; ok {
		return datasetMeta{
			Criteria:    overrideCriteria(o.Criteria),
			ReleaseDate: o.ReleaseDate,
			TypeOfData:  o.TypeOfData,
		}
	}

	id := datasetID
	for {
		if m, ok := direct[id]; ok {
			return m
		}
		idx := strings.LastIndex(id, ".")
		if idx < 0 {
			return datasetMeta{}
		}
		id = id[:idx]
	}
}

func overrideCriteria(raw []string) []domain.Criteria {
	out := make([]domain.Criteria, 0, len(raw))
	for _, s := range raw {
		out = append(out, domain.Criteria(s))
	}
	return out
}

// directMetaFromSummary builds the direct (non-inherited) metadata table
// from one language's normalized summary datasets, keyed by every clean
// datasetId the row's (already-reconciled) id list resolved to.
func directMetaFromSummary(datasets []domain.NormalizedDatasetSummary) map[string]datasetMeta {
	out := make(map[string]datasetMeta)
	for _, ds := range datasets {
		meta := datasetMeta{
			Criteria:    ds.Criteria,
			ReleaseDate: ds.ReleaseDate,
			TypeOfData:  ds.TypeOfData,
		}
		for _, id := range ds.DatasetIDs {
			out[id] = meta
		}
	}
	return out
}
