package structurer

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dbcls/humandbs-sub002/internal/domain"
)

// versionHistory is one datasetId's ordered list of previously emitted
// (version, canonical experiments JSON) pairs (§4.4.4). Versions are
// assigned in first-seen order; content that exactly matches any earlier
// entry, superseded or not, gets that entry's version back.
type versionHistory struct {
	seen []versionedExperiments
}

type versionedExperiments struct {
	version string
	json    []byte
}

// VersionTracker assigns Dataset versions across a Structurer run, carrying
// history across humVersionIds in processing order as spec.md §4.4.4
// requires ("v1 before v2 before ...").
type VersionTracker struct {
	byDataset map[string]*versionHistory
}

// NewVersionTracker constructs an empty tracker for one structurer run.
func NewVersionTracker() *VersionTracker {
	return &VersionTracker{byDataset: make(map[string]*versionHistory)}
}

// AssignVersion returns the version string for datasetId's experiments at
// this humVersionId: an exact canonical-JSON match against a prior
// emission reuses that version; otherwise the next integer is assigned.
func (t *VersionTracker) AssignVersion(datasetID string, experiments []domain.Experiment) (string, error) {
	canon, err := canonicalJSON(experiments)
	if err != nil {
		return "", err
	}

	hist, ok := t.byDataset[datasetID]
	if !ok {
		hist = &versionHistory{}
		t.byDataset[datasetID] = hist
	}

	for _, prior := range hist.seen {
		if bytes.Equal(prior.json, canon) {
			return prior.version, nil
		}
	}

	version := fmt.Sprintf("v%d", len(hist.seen)+1)
	hist.seen = append(hist.seen, versionedExperiments{version: version, json: canon})
	return version, nil
}

// canonicalJSON marshals v with sorted map keys (Go's encoding/json does
// this for map[string]X by default) so equal logical content always
// produces byte-identical output regardless of original key order.
func canonicalJSON(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}
