package mapping

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dbcls/humandbs-sub002/internal/domain"
)

// Set bundles every fixed-schema config file, loaded once per pipeline run.
type Set struct {
	CrawlHotfix   CrawlHotfix
	DatasetID     DatasetIDMapping
	Normalize     NormalizeMapping
	MolDataField  MolDataFieldMapping
	DatasetOverride DatasetOverrides
}

// Load reads all five config files from dir and validates referential
// integrity eagerly, surfacing a ConfigError rather than letting a bad
// mapping fail deep inside the normalizer (SPEC_FULL.md §5 supplement).
func Load(dir string) (*Set, error) {
	var s Set

	if err := loadJSON(filepath.Join(dir, "crawl-hotfix-mapping.json"), &s.CrawlHotfix); err != nil {
		return nil, err
	}
	if err := loadJSON(filepath.Join(dir, "dataset-id-mapping.json"), &s.DatasetID); err != nil {
		return nil, err
	}
	if err := loadJSON(filepath.Join(dir, "normalize-mapping.json"), &s.Normalize); err != nil {
		return nil, err
	}
	if err := loadJSON(filepath.Join(dir, "moldata-field-mapping.json"), &s.MolDataField); err != nil {
		return nil, err
	}
	if err := loadJSON(filepath.Join(dir, "dataset-overrides.json"), &s.DatasetOverride); err != nil {
		return nil, err
	}

	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func loadJSON(path string, out interface{}) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Missing optional config files fall back to zero-value tables.
			return nil
		}
		return domain.NewPipelineError(domain.ErrConfig, fmt.Sprintf("reading %s", path), err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return domain.NewPipelineError(domain.ErrConfig, fmt.Sprintf("parsing %s", path), err)
	}
	return nil
}

// validate checks the few referential-integrity constraints called out in
// SPEC_FULL.md §5: every no-split allow-list entry should be reachable from
// the pipeline's split step (i.e. non-empty), and deny lists/alias tables
// must not be internally contradictory (an alias cannot target an id on the
// deny list).
func (s *Set) validate() error {
	deny := make(map[string]bool, len(s.DatasetID.InvalidIDDenyList))
	for _, id := range s.DatasetID.InvalidIDDenyList {
		if id == "" {
			return domain.NewPipelineError(domain.ErrConfig, "invalidIdDenyList contains an empty entry", nil)
		}
		deny[id] = true
	}
	for _, entry := range s.DatasetID.NoSplitAllowList {
		if entry == "" {
			return domain.NewPipelineError(domain.ErrConfig, "noSplitAllowList contains an empty entry", nil)
		}
	}
	for humID, aliases := range s.DatasetID.PerResearchAliases {
		if !domain.IsHumID(humID) {
			return domain.NewPipelineError(domain.ErrConfig, fmt.Sprintf("perResearchAliases key %q is not a valid humId", humID), nil)
		}
		for raw, canonical := range aliases {
			if deny[canonical] {
				return domain.NewPipelineError(domain.ErrConfig, fmt.Sprintf("alias %q->%q for %s targets a denied id", raw, canonical, humID), nil)
			}
		}
	}
	if s.MolDataField.DiscardSentinel == "" {
		s.MolDataField.DiscardSentinel = "__DISCARD__"
	}
	return nil
}
