package search

import (
	"context"
	"encoding/json"

	elastic "github.com/olivere/elastic/v7"

	"github.com/dbcls/humandbs-sub002/internal/domain"
)

// Principal identifies the caller issuing a search request.
type Principal struct {
	UserID        string
	IsAdmin       bool
	IncludeDeleted bool // only honored when IsAdmin is true
}

func (p Principal) authenticated() bool {
	return p.UserID != ""
}

// VisibilityClause builds the top-level status/uid visibility filter of
// §4.7.2:
//   - anonymous: status == published
//   - authenticated non-admin: status == published OR uids contains userId
//   - admin: all non-deleted, or all if IncludeDeleted is set
func VisibilityClause(p Principal) elastic.Query {
	if p.IsAdmin {
		if p.IncludeDeleted {
			return elastic.NewMatchAllQuery()
		}
		return elastic.NewBoolQuery().MustNot(elastic.NewTermQuery("status", string(domain.StatusDeleted)))
	}
	published := elastic.NewTermQuery("status", string(domain.StatusPublished))
	if !p.authenticated() {
		return published
	}
	return elastic.NewBoolQuery().MinimumShouldMatch("1").Should(
		published,
		elastic.NewTermQuery("uids", p.UserID),
	)
}

// AccessibleHumIDs resolves the set of humIds a principal may see by
// running VisibilityClause against the research index and collecting the
// humId field. Returns (nil, nil) to signal "no restriction beyond
// VisibilityClause" is not used here: callers always get a concrete slice,
// possibly empty, per §4.7.2's "if the set is empty, return an empty page
// without hitting the index" rule applied by the Dataset search path.
func AccessibleHumIDs(ctx context.Context, es *elastic.Client, researchIndex string, p Principal) ([]string, error) {
	res, err := es.Search().Index(researchIndex).
		Query(VisibilityClause(p)).
		FetchSourceContext(elastic.NewFetchSourceContext(true).Include("humId")).
		Size(10000).
		Do(ctx)
	if err != nil {
		return nil, domain.NewPipelineError(domain.ErrIndexIO, "resolving accessible humIds", err)
	}
	ids := make([]string, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		var doc struct {
			HumID string `json:"humId"`
		}
		if err := json.Unmarshal(hit.Source, &doc); err != nil {
			continue
		}
		ids = append(ids, doc.HumID)
	}
	return ids, nil
}
