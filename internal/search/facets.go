package search

import (
	"context"
	"strings"

	elastic "github.com/olivere/elastic/v7"

	"github.com/dbcls/humandbs-sub002/internal/domain"
)

// FacetCounts is one facet's bucketed distinct-Dataset counts.
type FacetCounts struct {
	Field   string
	Buckets []FacetBucket
}

// FacetBucket is one {value, count} pair. For the platform facet, Value is
// the serialized "vendor||model" key.
type FacetBucket struct {
	Value string
	Count int64
}

// FacetFields lists the simple (non-platform) nested term fields exposed
// as facets, reusing the NestedTermFilters table so facet keys always
// track the filter params they narrow.
var FacetFields = NestedTermFilters

// Facets computes all configured facets over the full current result set:
// every facet aggregates under the same base query, and a facet's own
// filter is not removed from it.
type Facets struct {
	es           *elastic.Client
	datasetIndex string
}

func NewFacets(es *elastic.Client, datasetIndex string) *Facets {
	return &Facets{es: es, datasetIndex: datasetIndex}
}

// Compute runs the reverse_nested-wrapped term aggregations of §4.7.5: a
// distinct-Dataset count per bucket, plus the platform composite
// aggregation serialized back to "vendor||model".
func (f *Facets) Compute(ctx context.Context, baseQuery elastic.Query) (map[string]FacetCounts, error) {
	search := f.es.Search().Index(f.datasetIndex).Query(baseQuery).Size(0)

	for _, spec := range FacetFields {
		search = search.Aggregation(spec.Param, nestedFacetAgg(spec.Field))
	}
	search = search.Aggregation("platform", platformFacetAgg())

	res, err := search.Do(ctx)
	if err != nil {
		return nil, domain.NewPipelineError(domain.ErrIndexIO, "facet aggregation", err)
	}

	out := map[string]FacetCounts{}
	for _, spec := range FacetFields {
		nested, found := res.Aggregations.Nested(spec.Param)
		if !found {
			continue
		}
		terms, found := nested.Aggregations.Terms("values")
		if !found {
			continue
		}
		out[spec.Param] = FacetCounts{Field: spec.Field, Buckets: termsToBuckets(terms)}
	}

	if nested, found := res.Aggregations.Nested("platform"); found {
		if composite, found := nested.Aggregations.Composite("values"); found {
			out["platform"] = FacetCounts{Field: "platform", Buckets: compositeToBuckets(composite)}
		}
	}

	return out, nil
}

// nestedFacetAgg builds `nested { terms(field).reverse_nested() }` so
// bucket doc_counts reflect distinct Datasets rather than inner
// experiments.
func nestedFacetAgg(field string) elastic.Aggregation {
	reverseNested := elastic.NewReverseNestedAggregation()
	terms := elastic.NewTermsAggregation().
		Field(searchablePath + "." + field).
		Size(1000).
		SubAggregation("datasets", reverseNested)
	return elastic.NewNestedAggregation().Path(experimentsPath).SubAggregation("values", terms)
}

// platformFacetAgg builds the composite (vendor, model) aggregation.
func platformFacetAgg() elastic.Aggregation {
	vendorSrc := elastic.NewCompositeAggregationTermsValuesSource("vendor").
		Field(searchablePath + ".platform.vendor")
	modelSrc := elastic.NewCompositeAggregationTermsValuesSource("model").
		Field(searchablePath + ".platform.model")
	composite := elastic.NewCompositeAggregation().
		Sources(vendorSrc, modelSrc).
		Size(1000).
		SubAggregation("datasets", elastic.NewReverseNestedAggregation())
	return elastic.NewNestedAggregation().Path(experimentsPath).SubAggregation("values", composite)
}

func termsToBuckets(terms *elastic.AggregationBucketKeyItems) []FacetBucket {
	out := make([]FacetBucket, 0, len(terms.Buckets))
	for _, b := range terms.Buckets {
		key, ok := b.Key.(string)
		if !ok {
			continue
		}
		out = append(out, FacetBucket{Value: key, Count: reverseNestedCount(b.Aggregations)})
	}
	return out
}

func compositeToBuckets(composite *elastic.AggregationBucketCompositeItems) []FacetBucket {
	out := make([]FacetBucket, 0, len(composite.Buckets))
	for _, b := range composite.Buckets {
		vendor, _ := b.Key["vendor"].(string)
		model, _ := b.Key["model"].(string)
		out = append(out, FacetBucket{
			Value: strings.Join([]string{vendor, model}, "||"),
			Count: reverseNestedCount(b.Aggregations),
		})
	}
	return out
}

func reverseNestedCount(aggs elastic.Aggregations) int64 {
	rn, found := aggs.ReverseNested("datasets")
	if !found {
		return 0
	}
	return rn.DocCount
}
