package structurer

import "github.com/dbcls/humandbs-sub002/internal/domain"

// buildExpansionMap implements spec.md §4.4.5: rawId -> Set<owningDatasetId>,
// computed from which molecular-data rows (and therefore which raw,
// already-reconciled id tokens) ended up under which dataset bucket.
func buildExpansionMap(invertedByDataset map[string][]domain.NormalizedMolDataRow) map[string]map[string]bool {
	out := make(map[string]map[string]bool)
	for datasetID, rows := range invertedByDataset {
		for _, row := range rows {
			for _, id := range row.ExtractedDatasetIDs {
				owners, ok := out[id]
				if !ok {
					owners = make(map[string]bool)
					out[id] = owners
				}
				owners[datasetID] = true
			}
		}
	}
	return out
}

// rewriteDatasetIDs rewrites publication/controlledAccessUser datasetIds
// from raw tokens to their owning dataset ids. IDs absent from the
// expansion map pass through unchanged (§4.4.5).
func rewriteDatasetIDs(ids []string, expansion map[string]map[string]bool) []string {
	seen := make(map[string]bool, len(ids))
	var out []string
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, id := range ids {
		if owners, ok := expansion[id]; ok {
			for owner := range owners {
				add(owner)
			}
			continue
		}
		add(id)
	}
	return out
}
