package normalizer

import (
	"github.com/dbcls/humandbs-sub002/internal/domain"
	"github.com/dbcls/humandbs-sub002/internal/mapping"
)

// MolDataNormalizer canonicalizes molecular-data table rows per spec.md
// §4.3.6: ja/en raw header labels map to one or more canonical field names,
// a discard sentinel drops that field from the row, and unrecognized labels pass
// through unchanged (with a warning) rather than being dropped.
type MolDataNormalizer struct {
	cfg mapping.MolDataFieldMapping
}

// NewMolDataNormalizer constructs a MolDataNormalizer. If cfg.DiscardSentinel
// is empty it defaults to "__DISCARD__", matching mapping.Load's default.
func NewMolDataNormalizer(cfg mapping.MolDataFieldMapping) *MolDataNormalizer {
	if cfg.DiscardSentinel == "" {
		cfg.DiscardSentinel = "__DISCARD__"
	}
	return &MolDataNormalizer{cfg: cfg}
}

// CanonicalKeys resolves one raw header label to its canonical field
// name(s). A split key (one raw label covering more than one canonical
// column, e.g. a combined "platform/read length" header) returns more than
// one name. An unrecognized label returns the label itself, unchanged, plus
// ok=false so the caller can log a warning without dropping the data.
func (n *MolDataNormalizer) CanonicalKeys(rawLabel string) (keys []string, ok bool) {
	key := CanonicalHeaderKey(rawLabel)
	if mapped, found := n.cfg.KeyMap[key]; found {
		if len(mapped) == 1 && mapped[0] == n.cfg.DiscardSentinel {
			return nil, true
		}
		return mapped, true
	}
	return []string{rawLabel}, false
}

// NormalizeRow maps one RawMolDataRow's cell keys onto their canonical
// field names, dropping keys that resolve to the discard sentinel. It does
// not perform dataset-id extraction; Normalizer.Normalize does that from
// IDFieldValues plus the row's raw id and header.
func (n *MolDataNormalizer) NormalizeRow(lang domain.Lang, row domain.RawMolDataRow) (domain.NormalizedMolDataRow, []string) {
	var warnings []string

	out := domain.NormalizedMolDataRow{
		Header: domain.TextValue{Text: NormalizeText(row.Header, lang)},
		Data:   make(map[string][]domain.TextValue, len(row.Data)),
	}

	for rawKey, cell := range row.Data {
		canonical, recognized := n.CanonicalKeys(rawKey)
		if !recognized {
			warnings = append(warnings, "unrecognized molecular-data field: "+rawKey)
		}
		if len(canonical) == 0 {
			continue // discard sentinel
		}

		values := make([]domain.TextValue, 0, len(cell.Values))
		for _, v := range cell.Values {
			if EmptyCellValue(v) {
				continue
			}
			values = append(values, domain.TextValue{Text: NormalizeText(v, lang)})
		}
		if len(values) == 0 {
			continue
		}

		for _, canonKey := range canonical {
			out.Data[canonKey] = append(out.Data[canonKey], values...)
		}
	}

	for _, f := range row.Footers {
		f = StripFootnoteMarker(NormalizeText(f, lang))
		if f == "" {
			continue
		}
		out.Footers = append(out.Footers, domain.TextValue{Text: f})
	}

	return out, warnings
}

// IDFieldValues returns the raw cell values of the row's designated
// id-bearing fields (cfg.IDFields), for dataset-id extraction by
// Normalizer.Normalize. Each IDFields entry is looked up as a raw row key.
func (n *MolDataNormalizer) IDFieldValues(row domain.RawMolDataRow) []string {
	var out []string
	for _, field := range n.cfg.IDFields {
		if cell, ok := row.Data[field]; ok {
			out = append(out, cell.Values...)
		}
	}
	return out
}
