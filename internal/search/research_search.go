package search

import (
	"context"
	"encoding/json"

	elastic "github.com/olivere/elastic/v7"

	"github.com/dbcls/humandbs-sub002/internal/domain"
)

// ResearchSearchParams bundles a parsed filter set plus the Dataset-level
// filters that require the two-phase lookup of §4.7.4.
type ResearchSearchParams struct {
	Filters      FilterParams
	DatasetOnly  FilterParams // the subset of Filters that only apply to Datasets
	HasDatasetFilters bool
	QueryStr     string
	Lang         domain.Lang
	From         int
	Size         int
}

// ResearchSummary projects one Research document plus its nested versions
// and datasets into the requested display language, falling back ja->en
// per field (§4.7.4).
type ResearchSummary struct {
	HumID            string   `json:"humId"`
	Title            string   `json:"title"`
	Summary          string   `json:"summary"`
	FirstReleaseDate *string  `json:"firstReleaseDate"`
	LastReleaseDate  *string  `json:"lastReleaseDate"`
	Status           string   `json:"status"`
	DatasetIDs       []string `json:"datasetIds"`
}

// ResearchSearchResult is one page of ResearchSummary projections.
type ResearchSearchResult struct {
	Results []ResearchSummary
	Total   int64
}

// ResearchSearcher executes searchResearches (§4.7.4).
type ResearchSearcher struct {
	es            *elastic.Client
	researchIndex string
	versionIndex  string
	datasetIndex  string
}

func NewResearchSearcher(es *elastic.Client, researchIndex, versionIndex, datasetIndex string) *ResearchSearcher {
	return &ResearchSearcher{es: es, researchIndex: researchIndex, versionIndex: versionIndex, datasetIndex: datasetIndex}
}

// Search implements the two-phase research search. If DatasetOnly carries
// any clause, phase one runs an aggregation-only query against the
// Dataset index to collect matching humIds (terms agg, size 10000);
// an empty result short-circuits to an empty page. Phase two then queries
// the Research index filtered by that humId set plus Research-level
// filters, multi-gets the referenced ResearchVersions and Datasets, and
// projects a ResearchSummary per hit.
func (s *ResearchSearcher) Search(ctx context.Context, p ResearchSearchParams, principal Principal) (ResearchSearchResult, error) {
	var datasetHumIDs []string
	if p.HasDatasetFilters {
		ids, err := s.matchingHumIDsFromDatasets(ctx, p.DatasetOnly)
		if err != nil {
			return ResearchSearchResult{}, err
		}
		if len(ids) == 0 {
			return ResearchSearchResult{}, nil
		}
		datasetHumIDs = ids
	}

	accessible, err := AccessibleHumIDs(ctx, s.es, s.researchIndex, principal)
	if err != nil {
		return ResearchSearchResult{}, err
	}
	if len(accessible) == 0 {
		return ResearchSearchResult{}, nil
	}
	humIDs := accessible
	if datasetHumIDs != nil {
		humIDs = intersect(accessible, datasetHumIDs)
		if len(humIDs) == 0 {
			return ResearchSearchResult{}, nil
		}
	}

	filters := p.Filters
	filters.HumID = humIDs
	clauses := BuildFilters(filters)
	b := elastic.NewBoolQuery().Filter(clauses...)
	if p.QueryStr != "" {
		b = b.Must(elastic.NewMultiMatchQuery(p.QueryStr, "title.ja", "title.en", "summary.ja", "summary.en"))
	}

	res, err := s.es.Search().Index(s.researchIndex).Query(b).
		From(p.From).Size(p.Size).
		TrackTotalHits(true).
		Do(ctx)
	if err != nil {
		return ResearchSearchResult{}, domain.NewPipelineError(domain.ErrIndexIO, "research search", err)
	}

	var researches []domain.Research
	for _, hit := range res.Hits.Hits {
		var r domain.Research
		if err := json.Unmarshal(hit.Source, &r); err != nil {
			continue
		}
		researches = append(researches, r)
	}

	versionsByResearch, datasetsByResearch, err := s.fetchRelated(ctx, researches)
	if err != nil {
		return ResearchSearchResult{}, err
	}

	summaries := make([]ResearchSummary, 0, len(researches))
	for _, r := range researches {
		summaries = append(summaries, projectSummary(r, versionsByResearch[r.HumID], datasetsByResearch[r.HumID], p.Lang))
	}

	var total int64
	if res.Hits.TotalHits != nil {
		total = res.Hits.TotalHits.Value
	}
	return ResearchSearchResult{Results: summaries, Total: total}, nil
}

// matchingHumIDsFromDatasets runs the aggregation-only phase-one query.
func (s *ResearchSearcher) matchingHumIDsFromDatasets(ctx context.Context, datasetFilters FilterParams) ([]string, error) {
	clauses := BuildFilters(datasetFilters)
	b := elastic.NewBoolQuery().Filter(clauses...)

	res, err := s.es.Search().Index(s.datasetIndex).Query(b).Size(0).
		Aggregation("byHumId", elastic.NewTermsAggregation().Field("humId.keyword").Size(10000)).
		Do(ctx)
	if err != nil {
		return nil, domain.NewPipelineError(domain.ErrIndexIO, "dataset humId aggregation", err)
	}
	agg, found := res.Aggregations.Terms("byHumId")
	if !found {
		return nil, nil
	}
	out := make([]string, 0, len(agg.Buckets))
	for _, bucket := range agg.Buckets {
		if key, ok := bucket.Key.(string); ok {
			out = append(out, key)
		}
	}
	return out, nil
}

// fetchRelated multi-gets the ResearchVersions and Datasets referenced by a
// batch of Research documents.
func (s *ResearchSearcher) fetchRelated(ctx context.Context, researches []domain.Research) (map[string][]domain.ResearchVersion, map[string][]domain.Dataset, error) {
	versionsByResearch := map[string][]domain.ResearchVersion{}
	datasetsByResearch := map[string][]domain.Dataset{}
	if len(researches) == 0 {
		return versionsByResearch, datasetsByResearch, nil
	}

	mget := s.es.MultiGet()
	var versionIDs []string
	for _, r := range researches {
		for _, vid := range r.VersionIDs {
			mget = mget.Add(elastic.NewMultiGetItem().Index(s.versionIndex).Id(vid))
			versionIDs = append(versionIDs, vid)
		}
	}
	versionsByID := map[string]domain.ResearchVersion{}
	if len(versionIDs) > 0 {
		res, err := mget.Do(ctx)
		if err != nil {
			return nil, nil, domain.NewPipelineError(domain.ErrIndexIO, "multi-get research versions", err)
		}
		for _, doc := range res.Docs {
			if !doc.Found {
				continue
			}
			var v domain.ResearchVersion
			if err := json.Unmarshal(doc.Source, &v); err != nil {
				continue
			}
			versionsByID[v.HumVersionID] = v
		}
	}

	datasetKeys := map[string]bool{}
	for _, r := range researches {
		for _, vid := range r.VersionIDs {
			v, ok := versionsByID[vid]
			if !ok {
				continue
			}
			versionsByResearch[r.HumID] = append(versionsByResearch[r.HumID], v)
			for _, ref := range v.Datasets {
				datasetKeys[ref.DatasetID+"@"+ref.Version] = true
			}
		}
	}

	dget := s.es.MultiGet()
	var keys []string
	for k := range datasetKeys {
		keys = append(keys, k)
		dget = dget.Add(elastic.NewMultiGetItem().Index(s.datasetIndex).Id(k))
	}
	datasetByKey := map[string]domain.Dataset{}
	if len(keys) > 0 {
		res, err := dget.Do(ctx)
		if err != nil {
			return nil, nil, domain.NewPipelineError(domain.ErrIndexIO, "multi-get datasets", err)
		}
		for _, doc := range res.Docs {
			if !doc.Found {
				continue
			}
			var d domain.Dataset
			if err := json.Unmarshal(doc.Source, &d); err != nil {
				continue
			}
			datasetByKey[d.DatasetID+"@"+d.Version] = d
		}
	}

	for _, r := range researches {
		seen := map[string]bool{}
		for _, v := range versionsByResearch[r.HumID] {
			for _, ref := range v.Datasets {
				key := ref.DatasetID + "@" + ref.Version
				if seen[key] {
					continue
				}
				seen[key] = true
				if d, ok := datasetByKey[key]; ok {
					datasetsByResearch[r.HumID] = append(datasetsByResearch[r.HumID], d)
				}
			}
		}
	}

	return versionsByResearch, datasetsByResearch, nil
}

// projectSummary extracts the requested language from each bilingual
// field, falling back ja->en when the requested language is empty.
func projectSummary(r domain.Research, versions []domain.ResearchVersion, datasets []domain.Dataset, lang domain.Lang) ResearchSummary {
	ids := make([]string, 0, len(datasets))
	for _, d := range datasets {
		ids = append(ids, d.DatasetID)
	}
	return ResearchSummary{
		HumID:            r.HumID,
		Title:            domain.PickLang(r.Title, lang),
		Summary:          domain.PickLangValue(r.Summary, lang),
		FirstReleaseDate: r.FirstReleaseDate,
		LastReleaseDate:  r.LastReleaseDate,
		Status:           string(r.Status),
		DatasetIDs:       ids,
	}
}

func intersect(a, b []string) []string {
	set := make(map[string]bool, len(b))
	for _, v := range b {
		set[v] = true
	}
	var out []string
	for _, v := range a {
		if set[v] {
			out = append(out, v)
		}
	}
	return out
}
