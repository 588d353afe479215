package search

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	elastic "github.com/olivere/elastic/v7"

	"github.com/dbcls/humandbs-sub002/internal/domain"
)

// SortMode selects the Dataset search result ordering of §4.7.3.
type SortMode string

const (
	SortRelevance   SortMode = "relevance"
	SortReleaseDate SortMode = "releaseDate"
	SortDatasetID   SortMode = "datasetId"
)

// DatasetSearchParams bundles a parsed filter set with paging/sort controls.
type DatasetSearchParams struct {
	Filters  FilterParams
	QueryStr string // free-text query; presence enables SortRelevance
	Sort     SortMode
	From     int
	Size     int
}

// DatasetSearchResult is one page of deduplicated Dataset hits.
type DatasetSearchResult struct {
	Datasets []domain.Dataset
	Total    int64 // cardinality aggregation over datasetId
}

// DatasetSearcher executes searchDatasets (§4.7.3) against the Dataset index.
type DatasetSearcher struct {
	es            *elastic.Client
	researchIndex string
	datasetIndex  string
}

func NewDatasetSearcher(es *elastic.Client, researchIndex, datasetIndex string) *DatasetSearcher {
	return &DatasetSearcher{es: es, researchIndex: researchIndex, datasetIndex: datasetIndex}
}

// Search implements §4.7.3: resolve accessible humIds, short-circuit on an
// empty set, then query with a cardinality aggregation for the true total
// and client-side collapse-by-datasetId since the Dataset index stores one
// document per dataset VERSION, not one per dataset.
func (s *DatasetSearcher) Search(ctx context.Context, p DatasetSearchParams, principal Principal) (DatasetSearchResult, error) {
	humIDs, err := AccessibleHumIDs(ctx, s.es, s.researchIndex, principal)
	if err != nil {
		return DatasetSearchResult{}, err
	}
	if len(humIDs) == 0 {
		return DatasetSearchResult{}, nil
	}
	p.Filters.HumID = intersectOrReplace(p.Filters.HumID, humIDs)

	clauses := BuildFilters(p.Filters)
	b := elastic.NewBoolQuery().Filter(clauses...)
	if p.QueryStr != "" {
		b = b.Must(elastic.NewMultiMatchQuery(p.QueryStr, "typeOfData.ja", "typeOfData.en"))
	}

	svc := s.es.Search().Index(s.datasetIndex).Query(b).
		Aggregation("datasetCount", elastic.NewCardinalityAggregation().Field("datasetId"))

	switch p.Sort {
	case SortRelevance:
		if p.QueryStr != "" {
			svc = svc.Sort("_score", false).Sort("datasetId.keyword", true)
		} else {
			svc = svc.Sort("releaseDate", false).Sort("datasetId.keyword", true)
		}
	case SortReleaseDate:
		svc = svc.SortWithInfo(elastic.SortInfo{Field: "releaseDate", Ascending: false, UnmappedType: "date"}).
			Sort("datasetId.keyword", true)
	default:
		svc = svc.Sort("datasetId.keyword", true)
	}

	// Overfetch to allow client-side collapse-by-datasetId to still fill a
	// full page even when several versions of the same dataset match.
	fetchSize := (p.From + p.Size) * 4
	if fetchSize < 100 {
		fetchSize = 100
	}
	res, err := svc.From(0).Size(fetchSize).Do(ctx)
	if err != nil {
		return DatasetSearchResult{}, domain.NewPipelineError(domain.ErrIndexIO, "dataset search", err)
	}

	best := map[string]domain.Dataset{}
	order := map[string]int{}
	for i, hit := range res.Hits.Hits {
		var d domain.Dataset
		if err := json.Unmarshal(hit.Source, &d); err != nil {
			continue
		}
		cur, ok := best[d.DatasetID]
		if !ok || higherVersion(d, cur) {
			best[d.DatasetID] = d
			order[d.DatasetID] = i
		}
	}
	out := make([]domain.Dataset, 0, len(best))
	for _, d := range best {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		return order[out[i].DatasetID] < order[out[j].DatasetID]
	})

	var total int64
	if agg, found := res.Aggregations.Cardinality("datasetCount"); found && agg.Value != nil {
		total = int64(*agg.Value)
	}

	lo, hi := page(len(out), p.From, p.Size)
	return DatasetSearchResult{Datasets: out[lo:hi], Total: total}, nil
}

// higherVersion keeps the inner hit with the higher (version, releaseDate)
// pair, per §4.7.3.
func higherVersion(candidate, current domain.Dataset) bool {
	cv, dv := versionNumber(candidate.Version), versionNumber(current.Version)
	if cv != dv {
		return cv > dv
	}
	cd, cok := dateOrZero(candidate.ReleaseDate)
	dd, dok := dateOrZero(current.ReleaseDate)
	if cok != dok {
		return cok
	}
	return cd > dd
}

// versionNumber parses the structurer's "v{n}" version strings (see
// internal/structurer/version.go) into their integer ordinal for numeric
// comparison. Unparseable input sorts lowest.
func versionNumber(v string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(v, "v"))
	if err != nil {
		return -1
	}
	return n
}

func dateOrZero(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	return *s, true
}

func page(n, from, size int) (int, int) {
	if from < 0 {
		from = 0
	}
	if from > n {
		from = n
	}
	hi := from + size
	if size <= 0 || hi > n {
		hi = n
	}
	return from, hi
}

// intersectOrReplace returns requested if non-empty (narrowed to what's
// accessible), else the full accessible set.
func intersectOrReplace(requested, accessible []string) []string {
	if len(requested) == 0 {
		return accessible
	}
	allowed := make(map[string]bool, len(accessible))
	for _, id := range accessible {
		allowed[id] = true
	}
	out := make([]string, 0, len(requested))
	for _, id := range requested {
		if allowed[id] {
			out = append(out, id)
		}
	}
	return out
}
