package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/dbcls/humandbs-sub002/internal/domain"
)

// ManifestFailure is the JSON-safe projection of one domain.RecordError
// (RecordError.Err is deliberately unexported from JSON, so the manifest
// carries its rendered message instead).
type ManifestFailure struct {
	Key     string `json:"key"`
	Message string `json:"message"`
}

// Manifest records one stage run: when it ran, over how many items, and
// which keys failed. Every run overwrites <resultsDir>/manifests/<stage>.json
// so "latest run" is always a fixed, predictable path; SPEC_FULL.md's
// supplemented manifest feature (no equivalent named in spec.md).
type Manifest struct {
	Stage      StageName         `json:"stage"`
	StartedAt  time.Time         `json:"startedAt"`
	FinishedAt time.Time         `json:"finishedAt"`
	Total      int               `json:"total"`
	Succeeded  int               `json:"succeeded"`
	Failed     []ManifestFailure `json:"failed,omitempty"`
}

// NewManifest builds a Manifest from a StageReport and its run boundaries.
func NewManifest(stage StageName, report *domain.StageReport, started, finished time.Time) Manifest {
	m := Manifest{
		Stage:      stage,
		StartedAt:  started,
		FinishedAt: finished,
		Total:      report.Total,
		Succeeded:  report.Succeeded,
	}
	for _, f := range report.Failed {
		m.Failed = append(m.Failed, ManifestFailure{Key: f.Key, Message: f.Error()})
	}
	return m
}

// WriteManifest persists m to <resultsDir>/manifests/<stage>.json.
func WriteManifest(resultsDir string, m Manifest) error {
	dir := filepath.Join(resultsDir, "manifests")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return domain.NewPipelineError(domain.ErrConfig, "creating manifest directory", err)
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return domain.NewPipelineError(domain.ErrConfig, "marshaling manifest", err)
	}
	path := filepath.Join(dir, string(m.Stage)+".json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return domain.NewPipelineError(domain.ErrConfig, "writing manifest", err)
	}
	return os.Rename(tmp, path)
}

// ReadManifest loads the most recent manifest for stage, if any.
func ReadManifest(resultsDir string, stage StageName) (*Manifest, bool, error) {
	path := filepath.Join(resultsDir, "manifests", string(stage)+".json")
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, domain.NewPipelineError(domain.ErrConfig, "reading manifest", err)
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, false, domain.NewPipelineError(domain.ErrConfig, "decoding manifest", err)
	}
	return &m, true, nil
}
