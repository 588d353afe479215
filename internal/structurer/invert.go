package structurer

import "github.com/dbcls/humandbs-sub002/internal/domain"

// invertMolData implements spec.md §4.4.1: invert row->ids into id->rows,
// preserving the original row order within each dataset's bucket.
func invertMolData(rows []domain.NormalizedMolDataRow) map[string][]domain.NormalizedMolDataRow {
	out := make(map[string][]domain.NormalizedMolDataRow)
	for _, row := range rows {
		for _, id := range row.ExtractedDatasetIDs {
			out[id] = append(out[id], row)
		}
	}
	return out
}

// flattenRow turns one row's (possibly multi-valued) data map into a
// single-valued map, preferring the first element per field (§4.4.1).
func flattenRow(row domain.NormalizedMolDataRow) (header domain.TextValue, data map[string]domain.TextValue, footers []domain.TextValue) {
	data = make(map[string]domain.TextValue, len(row.Data))
	for k, vals := range row.Data {
		if len(vals) > 0 {
			data[k] = vals[0]
		}
	}
	return row.Header, data, row.Footers
}

// mergeExperiments pairs the ja/en row lists for one dataset into bilingual
// Experiments. Rows are matched by position when the counts agree;
// otherwise by header text, with unmatched rows surviving as ja-only/
// en-only experiments (§4.4.3's matching pass, applied to experiment rows).
func mergeExperiments(jaRows, enRows []domain.NormalizedMolDataRow) []domain.Experiment {
	pairs := pairLists(jaRows, enRows, func(r domain.NormalizedMolDataRow) string { return r.Header.Text })

	out := make([]domain.Experiment, 0, len(pairs))
	for _, p := range pairs {
		exp := domain.Experiment{Data: make(map[string]domain.BilingualTextValue)}

		var jaHeader, enHeader *domain.TextValue
		var jaData, enData map[string]domain.TextValue
		var jaFooters, enFooters []domain.TextValue

		if p.JA != nil {
			h, d, f := flattenRow(*p.JA)
			jaHeader, jaData, jaFooters = &h, d, f
		}
		if p.EN != nil {
			h, d, f := flattenRow(*p.EN)
			enHeader, enData, enFooters = &h, d, f
		}

		exp.Header = domain.MergeValuePair(jaHeader, enHeader)

		keys := make(map[string]bool)
		for k := range jaData {
			keys[k] = true
		}
		for k := range enData {
			keys[k] = true
		}
		for k := range keys {
			var jv, ev *domain.TextValue
			if v, ok := jaData[k]; ok {
				jv = &v
			}
			if v, ok := enData[k]; ok {
				ev = &v
			}
			exp.Data[k] = domain.MergeValuePair(jv, ev)
		}

		exp.Footers = mergeFooters(jaFooters, enFooters)
		out = append(out, exp)
	}
	return out
}

func mergeFooters(ja, en []domain.TextValue) []domain.BilingualTextValue {
	n := len(ja)
	if len(en) > n {
		n = len(en)
	}
	out := make([]domain.BilingualTextValue, 0, n)
	for i := 0; i < n; i++ {
		var jv, ev *domain.TextValue
		if i < len(ja) {
			jv = &ja[i]
		}
		if i < len(en) {
			ev = &en[i]
		}
		out = append(out, domain.MergeValuePair(jv, ev))
	}
	return out
}
