// Package search implements spec.md §4.7's SearchQuerier: typed builders
// over the Elasticsearch query DSL, principal-based authorization, and the
// two search entry points (searchDatasets, searchResearches).
package search

import (
	"strings"

	elastic "github.com/olivere/elastic/v7"
)

const experimentsPath = "experiments"
const searchablePath = "experiments.searchable"

// NestedTermFilterSpec is one row of the table-driven nested-terms filter
// list (§4.7.1): a query parameter name maps to a dotted field under
// experiments.searchable.
type NestedTermFilterSpec struct {
	Param string
	Field string
}

// NestedRangeFilterSpec is the range-query counterpart of NestedTermFilterSpec.
type NestedRangeFilterSpec struct {
	Param string
	Field string
}

// NestedTermFilters is the fixed table of simple single-level nested terms
// filters over experiments.searchable.*.
var NestedTermFilters = []NestedTermFilterSpec{
	{Param: "assayType", Field: "assayType"},
	{Param: "tissue", Field: "tissues"},
	{Param: "population", Field: "population"},
	{Param: "fileType", Field: "fileTypes"},
	{Param: "healthStatus", Field: "healthStatus"},
	{Param: "sex", Field: "sex"},
	{Param: "ageGroup", Field: "ageGroup"},
	{Param: "libraryKit", Field: "libraryKits"},
	{Param: "readType", Field: "readType"},
	{Param: "referenceGenome", Field: "referenceGenome"},
	{Param: "processedDataType", Field: "processedDataTypes"},
	{Param: "cellLine", Field: "cellLine"},
}

// NestedRangeFilters is the fixed table of range filters over
// experiments.searchable.*.
var NestedRangeFilters = []NestedRangeFilterSpec{
	{Param: "sequencingDepth", Field: "sequencingDepth"},
	{Param: "targetCoverage", Field: "targetCoverage"},
	{Param: "dataVolumeGb", Field: "dataVolumeGb"},
	{Param: "readLength", Field: "readLength"},
}

// nestedTerm builds a single-level `nested { path: experiments, query: terms }`.
func nestedTerm(field string, values []string) elastic.Query {
	inner := elastic.NewTermsQueryFromStrings(searchablePath+"."+field, values...)
	return elastic.NewNestedQuery(experimentsPath, inner)
}

// nestedRange builds `nested { path: experiments, query: range }`.
func nestedRange(field string, gte, lte interface{}) elastic.Query {
	r := elastic.NewRangeQuery(searchablePath + "." + field)
	if gte != nil {
		r = r.Gte(gte)
	}
	if lte != nil {
		r = r.Lte(lte)
	}
	return elastic.NewNestedQuery(experimentsPath, r)
}

// nestedBool builds `nested { path: experiments, query: bool }`.
func nestedBool(b *elastic.BoolQuery) elastic.Query {
	return elastic.NewNestedQuery(experimentsPath, b)
}

// PlatformTerm is one "vendor||model" incoming platform value.
type PlatformTerm struct {
	Vendor string
	Model  string
}

// ParsePlatformTerm splits a raw "vendor||model" query value. Either half
// may be empty.
func ParsePlatformTerm(raw string) PlatformTerm {
	parts := strings.SplitN(raw, "||", 2)
	if len(parts) == 1 {
		return PlatformTerm{Vendor: parts[0]}
	}
	return PlatformTerm{Vendor: parts[0], Model: parts[1]}
}

// platformQuery implements §4.7.1's platform special case: when both
// vendor and model are present, nested bool.must of two term queries;
// otherwise nested bool.should.
func platformQuery(t PlatformTerm) elastic.Query {
	b := elastic.NewBoolQuery()
	var vendorQ, modelQ elastic.Query
	if t.Vendor != "" {
		vendorQ = elastic.NewTermQuery(searchablePath+".platform.vendor", t.Vendor)
	}
	if t.Model != "" {
		modelQ = elastic.NewTermQuery(searchablePath+".platform.model", t.Model)
	}
	if vendorQ != nil && modelQ != nil {
		b = b.Must(vendorQ, modelQ)
	} else if vendorQ != nil {
		b = b.Should(vendorQ)
	} else if modelQ != nil {
		b = b.Should(modelQ)
	}
	return nestedBool(b)
}

// PlatformFilter implements §8 scenario 5: each incoming comma-separated
// "vendor||model" term becomes one nested bool query, and all of them are
// OR'd together in a single top-level bool.should.
func PlatformFilter(rawValues []string) elastic.Query {
	if len(rawValues) == 0 {
		return nil
	}
	b := elastic.NewBoolQuery().MinimumShouldMatch("1")
	for _, raw := range rawValues {
		b = b.Should(platformQuery(ParsePlatformTerm(raw)))
	}
	return b
}

// BooleanFacetFilter implements isTumor/hasPhenotypeData: nested term on a
// boolean field.
func BooleanFacetFilter(field string, value bool) elastic.Query {
	return nestedBool(elastic.NewBoolQuery().Must(elastic.NewTermQuery(searchablePath+"."+field, value)))
}

// DiseaseWildcardFilter implements §4.7.1's `disease` param: double-nested
// wildcard on experiments.searchable.diseases.label.
func DiseaseWildcardFilter(pattern string) elastic.Query {
	inner := elastic.NewNestedQuery(searchablePath+".diseases",
		elastic.NewWildcardQuery(searchablePath+".diseases.label", "*"+pattern+"*"))
	return elastic.NewNestedQuery(experimentsPath, inner)
}

// DiseaseICD10PrefixFilter implements `diseaseIcd10`: double-nested
// case-insensitive prefix on .icd10.
func DiseaseICD10PrefixFilter(prefix string) elastic.Query {
	inner := elastic.NewNestedQuery(searchablePath+".diseases",
		elastic.NewPrefixQuery(searchablePath+".diseases.icd10", strings.ToLower(prefix)).CaseInsensitive(true))
	return elastic.NewNestedQuery(experimentsPath, inner)
}

// PolicyIDFilter implements `policyId`: double-nested terms on .policies.id.
func PolicyIDFilter(ids []string) elastic.Query {
	inner := elastic.NewNestedQuery(searchablePath+".policies",
		elastic.NewTermsQueryFromStrings(searchablePath+".policies.id", ids...))
	return elastic.NewNestedQuery(experimentsPath, inner)
}

// BilingualWildcard implements the `typeOfData` partial-match filter:
// matches if either language side wildcard-matches.
func BilingualWildcard(field, pattern string) elastic.Query {
	p := "*" + pattern + "*"
	return elastic.NewBoolQuery().MinimumShouldMatch("1").Should(
		elastic.NewWildcardQuery(field+".ja", p),
		elastic.NewWildcardQuery(field+".en", p),
	)
}

// ReleaseDateRangeFilter implements the top-level release-date range filter.
func ReleaseDateRangeFilter(field string, gte, lte *string) elastic.Query {
	r := elastic.NewRangeQuery(field)
	if gte != nil {
		r = r.Gte(*gte)
	}
	if lte != nil {
		r = r.Lte(*lte)
	}
	return r
}

// FilterParams is the fully-parsed set of incoming query parameters
// consulted by both searchDatasets and searchResearches filter
// construction (§4.7.1).
type FilterParams struct {
	HumID           []string
	Criteria        []string
	TypeOfData      string
	ReleaseDateGTE  *string
	ReleaseDateLTE  *string
	NestedTerms     map[string][]string // keyed by NestedTermFilterSpec.Param
	NestedRanges    map[string]RangeValue
	Platform        []string
	IsTumor         *bool
	HasPhenotype    *bool
	Disease         string
	DiseaseICD10    string
	PolicyID        []string
}

// RangeValue is one inclusive numeric range for a NestedRangeFilterSpec.
type RangeValue struct {
	GTE *float64
	LTE *float64
}

// BuildFilters assembles the full table-driven filter clause list of
// §4.7.1 from FilterParams, in deterministic table order.
func BuildFilters(p FilterParams) []elastic.Query {
	var clauses []elastic.Query

	if len(p.HumID) > 0 {
		clauses = append(clauses, elastic.NewTermsQueryFromStrings("humId", p.HumID...))
	}
	if len(p.Criteria) > 0 {
		clauses = append(clauses, elastic.NewTermsQueryFromStrings("criteria", p.Criteria...))
	}
	if p.TypeOfData != "" {
		clauses = append(clauses, BilingualWildcard("typeOfData", p.TypeOfData))
	}
	if p.ReleaseDateGTE != nil || p.ReleaseDateLTE != nil {
		clauses = append(clauses, ReleaseDateRangeFilter("releaseDate", p.ReleaseDateGTE, p.ReleaseDateLTE))
	}

	for _, spec := range NestedTermFilters {
		if values, ok := p.NestedTerms[spec.Param]; ok && len(values) > 0 {
			clauses = append(clauses, nestedTerm(spec.Field, values))
		}
	}
	for _, spec := range NestedRangeFilters {
		if rv, ok := p.NestedRanges[spec.Param]; ok {
			var gte, lte interface{}
			if rv.GTE != nil {
				gte = *rv.GTE
			}
			if rv.LTE != nil {
				lte = *rv.LTE
			}
			clauses = append(clauses, nestedRange(spec.Field, gte, lte))
		}
	}

	if q := PlatformFilter(p.Platform); q != nil {
		clauses = append(clauses, q)
	}
	if p.IsTumor != nil {
		clauses = append(clauses, BooleanFacetFilter("isTumor", *p.IsTumor))
	}
	if p.HasPhenotype != nil {
		clauses = append(clauses, BooleanFacetFilter("hasPhenotypeData", *p.HasPhenotype))
	}
	if p.Disease != "" {
		clauses = append(clauses, DiseaseWildcardFilter(p.Disease))
	}
	if p.DiseaseICD10 != "" {
		clauses = append(clauses, DiseaseICD10PrefixFilter(p.DiseaseICD10))
	}
	if len(p.PolicyID) > 0 {
		clauses = append(clauses, PolicyIDFilter(p.PolicyID))
	}

	return clauses
}
