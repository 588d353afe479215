// Package pipeline implements the bounded-concurrency stage runner and
// on-disk artifact handoff described in spec.md §5: each stage reads the
// previous stage's artifacts, writes its own, and is individually
// re-runnable.
package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dbcls/humandbs-sub002/internal/domain"
)

// StageName identifies one pipeline stage for manifest/artifact naming.
type StageName string

const (
	StageFetch     StageName = "fetch"
	StageParse     StageName = "parse"
	StageNormalize StageName = "normalize"
	StageStructure StageName = "structure"
	StageFacet     StageName = "facet"
	StageICD10     StageName = "icd10"
	StageIndex     StageName = "index"
)

// ArtifactStore persists one stage's per-key JSON artifacts under
// <resultsDir>/<stage>/<key>.json, and reads them back for the next stage.
// Every write overwrites in place — artifacts are never mutated downstream,
// only replaced wholesale by a re-run of the owning stage.
type ArtifactStore struct {
	dir string
}

// NewArtifactStore opens (creating if necessary) the artifact directory for
// one stage.
func NewArtifactStore(resultsDir string, stage StageName) (*ArtifactStore, error) {
	dir := filepath.Join(resultsDir, string(stage))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, domain.NewPipelineError(domain.ErrConfig, "creating artifact directory "+dir, err)
	}
	return &ArtifactStore{dir: dir}, nil
}

// Write stores v as the JSON artifact for key, replacing any prior value.
func (s *ArtifactStore) Write(key string, v interface{}) error {
	path := s.pathFor(key)
	tmp := path + ".tmp"
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return domain.NewPipelineError(domain.ErrConfig, "marshaling artifact "+key, err)
	}
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return domain.NewPipelineError(domain.ErrConfig, "writing artifact "+key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return domain.NewPipelineError(domain.ErrConfig, "finalizing artifact "+key, err)
	}
	return nil
}

// Read decodes the stored artifact for key into out. Returns (false, nil)
// if no artifact exists for key yet.
func (s *ArtifactStore) Read(key string, out interface{}) (bool, error) {
	b, err := os.ReadFile(s.pathFor(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, domain.NewPipelineError(domain.ErrConfig, "reading artifact "+key, err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return false, domain.NewPipelineError(domain.ErrConfig, "decoding artifact "+key, err)
	}
	return true, nil
}

// Keys lists every artifact key currently stored, sorted.
func (s *ArtifactStore) Keys() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, domain.NewPipelineError(domain.ErrConfig, "listing artifacts in "+s.dir, err)
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *ArtifactStore) pathFor(key string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s.json", sanitizeKey(key)))
}

// sanitizeKey replaces path separators ("/" and "\") with "_" so a key such
// as "hum0014/JGAD000001" can't escape the artifact directory.
func sanitizeKey(key string) string {
	return strings.NewReplacer("/", "_", "\\", "_").Replace(key)
}
