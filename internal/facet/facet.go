// Package facet implements spec.md §4.5's Facet-Normalizer: idempotent,
// file-backed canonicalization of raw facet values against a curated TSV
// mapping, one file per facet field.
package facet

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"sort"

	"github.com/dbcls/humandbs-sub002/internal/domain"
)

// Pending is the sentinel status meaning "used as-is; do not normalize".
const Pending = "__PENDING__"

// Entry is one row of a facet mapping TSV: raw value, canonical value (or
// Pending), and a free-text curation note.
type Entry struct {
	Raw       string
	Canonical string
	Notes     string
}

// Mapping is one facet field's raw->canonical table, loaded from
// facet-mappings/{fieldName}.tsv.
type Mapping struct {
	path    string
	entries map[string]Entry
	order   []string
	dirty   bool
}

// Load reads one facet field's TSV mapping file. A missing file yields an
// empty, freshly-creatable Mapping.
func Load(dir, fieldName string) (*Mapping, error) {
	path := filepath.Join(dir, fieldName+".tsv")
	m := &Mapping{path: path, entries: make(map[string]Entry)}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, domain.NewPipelineError(domain.ErrConfig, "opening facet mapping "+path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '\t'
	r.FieldsPerRecord = 3
	rows, err := r.ReadAll()
	if err != nil {
		return nil, domain.NewPipelineError(domain.ErrConfig, "parsing facet mapping "+path, err)
	}
	for _, row := range rows {
		e := Entry{Raw: row[0], Canonical: row[1], Notes: row[2]}
		m.entries[e.Raw] = e
		m.order = append(m.order, e.Raw)
	}
	return m, nil
}

// Normalize resolves one raw facet value. Pending entries and entries with
// no mapping row are returned unchanged; a new unmapped raw value is
// recorded with status Pending so a curator can fill it in later, and the
// mapping is marked dirty so the caller knows to persist it.
func (m *Mapping) Normalize(raw string) string {
	if e, ok := m.entries[raw]; ok {
		if e.Canonical == Pending {
			return raw
		}
		return e.Canonical
	}

	m.entries[raw] = Entry{Raw: raw, Canonical: Pending}
	m.order = append(m.order, raw)
	m.dirty = true
	return raw
}

// NormalizeAll applies Normalize to every element of values.
func (m *Mapping) NormalizeAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = m.Normalize(v)
	}
	return out
}

// Dirty reports whether Normalize recorded any new unmapped values since
// load (or since the last Save).
func (m *Mapping) Dirty() bool {
	return m.dirty
}

// Save rewrites the TSV file in place, but only if the mapping changed
// (spec.md: "Applies only when a change would occur, and re-writes the
// file in place"). Rows are written in first-seen order for stable diffs.
func (m *Mapping) Save() error {
	if !m.dirty {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return domain.NewPipelineError(domain.ErrIndexIO, "creating facet mapping dir", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(m.path), ".facet-*.tmp")
	if err != nil {
		return domain.NewPipelineError(domain.ErrIndexIO, "creating temp facet mapping", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	w.Comma = '\t'
	for _, raw := range m.order {
		e := m.entries[raw]
		if err := w.Write([]string{e.Raw, e.Canonical, e.Notes}); err != nil {
			tmp.Close()
			return domain.NewPipelineError(domain.ErrIndexIO, "writing facet mapping row", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return domain.NewPipelineError(domain.ErrIndexIO, "flushing facet mapping", err)
	}
	if err := tmp.Close(); err != nil {
		return domain.NewPipelineError(domain.ErrIndexIO, "closing temp facet mapping", err)
	}
	if err := os.Rename(tmp.Name(), m.path); err != nil {
		return domain.NewPipelineError(domain.ErrIndexIO, "renaming facet mapping into place", err)
	}

	m.dirty = false
	return nil
}

// PendingValues returns every raw value currently marked Pending, sorted,
// for curation reporting.
func (m *Mapping) PendingValues() []string {
	var out []string
	for _, e := range m.entries {
		if e.Canonical == Pending {
			out = append(out, e.Raw)
		}
	}
	sort.Strings(out)
	return out
}

// Set bundles every facet field's Mapping for one Facet-Normalizer run.
type Set struct {
	dir      string
	mappings map[string]*Mapping
}

// FacetFields lists every named facet field consulted by the Facet-Normalizer
// (spec.md §3's searchable block).
var FacetFields = []string{
	"assayType", "tissues", "population", "platformVendor", "platformModel",
	"fileTypes", "healthStatus", "sex", "ageGroup", "libraryKits", "readType",
	"referenceGenome", "processedDataTypes", "cellLine",
}

// LoadSet loads every field in FacetFields from dir.
func LoadSet(dir string) (*Set, error) {
	s := &Set{dir: dir, mappings: make(map[string]*Mapping, len(FacetFields))}
	for _, field := range FacetFields {
		m, err := Load(dir, field)
		if err != nil {
			return nil, err
		}
		s.mappings[field] = m
	}
	return s, nil
}

// Field returns the Mapping for one facet field, or nil if unknown.
func (s *Set) Field(name string) *Mapping {
	return s.mappings[name]
}

// SaveAll persists every dirty mapping in the set.
func (s *Set) SaveAll() error {
	for _, m := range s.mappings {
		if err := m.Save(); err != nil {
			return err
		}
	}
	return nil
}

// NormalizeSearchable rewrites the string-valued facet fields of one
// Searchable block in place, idempotently (re-running against already
// canonical values is a no-op).
func (s *Set) NormalizeSearchable(sv *domain.Searchable) {
	sv.AssayType = s.Field("assayType").NormalizeAll(sv.AssayType)
	sv.Tissues = s.Field("tissues").NormalizeAll(sv.Tissues)
	sv.Population = s.Field("population").NormalizeAll(sv.Population)
	sv.FileTypes = s.Field("fileTypes").NormalizeAll(sv.FileTypes)
	sv.HealthStatus = s.Field("healthStatus").NormalizeAll(sv.HealthStatus)
	sv.Sex = s.Field("sex").NormalizeAll(sv.Sex)
	sv.AgeGroup = s.Field("ageGroup").NormalizeAll(sv.AgeGroup)
	sv.LibraryKits = s.Field("libraryKits").NormalizeAll(sv.LibraryKits)
	sv.ReadType = s.Field("readType").NormalizeAll(sv.ReadType)
	sv.ReferenceGenome = s.Field("referenceGenome").NormalizeAll(sv.ReferenceGenome)
	sv.ProcessedDataTypes = s.Field("processedDataTypes").NormalizeAll(sv.ProcessedDataTypes)
	sv.CellLine = s.Field("cellLine").NormalizeAll(sv.CellLine)

	for i := range sv.Platform {
		sv.Platform[i].Vendor = s.Field("platformVendor").Normalize(sv.Platform[i].Vendor)
		sv.Platform[i].Model = s.Field("platformModel").Normalize(sv.Platform[i].Model)
	}
}
