// Package index implements spec.md §4.6's IndexWriter against the three
// logical Elasticsearch indices (research, research-version, dataset).
package index

import (
	"context"

	elastic "github.com/olivere/elastic/v7"
	"github.com/sirupsen/logrus"

	"github.com/dbcls/humandbs-sub002/internal/domain"
)

// Client wraps the olivere/elastic client with the three logical index
// names this pipeline writes/reads.
type Client struct {
	es       *elastic.Client
	Research string
	Version  string
	Dataset  string
	log      *logrus.Logger
}

// NewClient dials Elasticsearch at the given addresses.
func NewClient(addresses []string, researchIndex, versionIndex, datasetIndex string, log *logrus.Logger) (*Client, error) {
	es, err := elastic.NewClient(
		elastic.SetURL(addresses...),
		elastic.SetSniff(false),
	)
	if err != nil {
		return nil, domain.NewPipelineError(domain.ErrIndexIO, "connecting to elasticsearch", err)
	}
	return &Client{es: es, Research: researchIndex, Version: versionIndex, Dataset: datasetIndex, log: log}, nil
}

// EnsureIndices creates any of the three logical indices that do not yet
// exist, with no explicit mapping (documents are plain JSON; nested fields
// on experiments/diseases/policies are declared by an operator-managed
// mapping template, not by this pipeline).
func (c *Client) EnsureIndices(ctx context.Context) error {
	for _, name := range []string{c.Research, c.Version, c.Dataset} {
		exists, err := c.es.IndexExists(name).Do(ctx)
		if err != nil {
			return domain.NewPipelineError(domain.ErrIndexIO, "checking index "+name, err)
		}
		if !exists {
			if _, err := c.es.CreateIndex(name).Do(ctx); err != nil {
				return domain.NewPipelineError(domain.ErrIndexIO, "creating index "+name, err)
			}
		}
	}
	return nil
}

// get fetches a document's current source, sequence number, and primary
// term for optimistic-concurrency updates.
func (c *Client) get(ctx context.Context, index, id string) (*elastic.GetResult, error) {
	res, err := c.es.Get().Index(index).Id(id).Do(ctx)
	if err != nil {
		if elastic.IsNotFound(err) {
			return nil, nil
		}
		return nil, domain.NewPipelineError(domain.ErrIndexIO, "getting "+index+"/"+id, err)
	}
	return res, nil
}
