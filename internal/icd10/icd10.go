// Package icd10 implements spec.md §4.5's ICD10-Normalizer: rewriting
// searchable.diseases into {label, icd10} pairs against a master label
// table plus per-humId manual split definitions, and a --check validation
// mode for CI.
package icd10

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/dbcls/humandbs-sub002/internal/domain"
)

// MasterTable maps an ICD10 code to its canonical label.
type MasterTable map[string]string

// Split is one per-humId manual disease-label split: a compound raw label
// that must be broken into several {label, icd10} pairs the master table
// alone cannot resolve (e.g. a comorbidity list in one free-text cell).
type Split struct {
	RawLabel string            `json:"rawLabel"`
	Labels   map[string]string `json:"labels"` // icd10 -> label
}

// Config is icd10-labels.json: the master table plus per-humId splits.
type Config struct {
	Master MasterTable        `json:"master"`
	Splits map[string][]Split `json:"splits"` // keyed by humId
}

// Load reads one icd10-labels.json file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{Master: MasterTable{}, Splits: map[string][]Split{}}, nil
		}
		return nil, domain.NewPipelineError(domain.ErrConfig, "reading "+path, err)
	}
	var cfg Config
	if err := json.Unmarshal(b, &cfg); err != nil {
		return nil, domain.NewPipelineError(domain.ErrConfig, "parsing "+path, err)
	}
	if cfg.Master == nil {
		cfg.Master = MasterTable{}
	}
	return &cfg, nil
}

// Normalizer rewrites disease labels for one pipeline run.
type Normalizer struct {
	cfg *Config
}

func New(cfg *Config) *Normalizer {
	return &Normalizer{cfg: cfg}
}

// splitFor finds a manual split definition for rawLabel under humID, if any.
func (n *Normalizer) splitFor(humID, rawLabel string) (Split, bool) {
	for _, s := range n.cfg.Splits[humID] {
		if s.RawLabel == rawLabel {
			return s, true
		}
	}
	return Split{}, false
}

// labelForCode returns the master label for an ICD10 code, or empty if
// unknown.
func (n *Normalizer) labelForCode(code string) string {
	return n.cfg.Master[code]
}

// codeForLabel reverse-looks-up an ICD10 code from its exact master label.
func (n *Normalizer) codeForLabel(label string) (string, bool) {
	for code, lbl := range n.cfg.Master {
		if lbl == label {
			return code, true
		}
	}
	return "", false
}

// Normalize rewrites one humId's disease entries into {label, icd10} pairs.
// A raw entry matching a manual split expands into multiple entries. A raw
// entry whose ICD10 is a known code keeps that code and takes its master
// label. Otherwise (ICD10 nil or unknown), an entry whose Label equals a
// master label gets that label's code. Unresolvable entries are passed
// through unchanged, with their raw label preserved, so --check can flag
// them later.
func (n *Normalizer) Normalize(humID string, diseases []domain.DiseaseLabel) []domain.DiseaseLabel {
	var out []domain.DiseaseLabel
	for _, d := range diseases {
		if split, ok := n.splitFor(humID, d.Label); ok {
			codes := make([]string, 0, len(split.Labels))
			for code := range split.Labels {
				codes = append(codes, code)
			}
			sort.Strings(codes)
			for _, code := range codes {
				code := code
				out = append(out, domain.DiseaseLabel{Label: split.Labels[code], ICD10: &code})
			}
			continue
		}

		if d.ICD10 != nil {
			if label := n.labelForCode(*d.ICD10); label != "" {
				out = append(out, domain.DiseaseLabel{Label: label, ICD10: d.ICD10})
				continue
			}
		}

		if code, ok := n.codeForLabel(d.Label); ok {
			c := code
			out = append(out, domain.DiseaseLabel{Label: d.Label, ICD10: &c})
			continue
		}

		out = append(out, d)
	}
	return out
}

// CheckViolation is one --check failure: a disease entry that has no
// ICD10, or whose label does not exactly match the master label for that
// code.
type CheckViolation struct {
	HumID      string
	DatasetID  string
	Label      string
	ICD10      *string
	WantLabel  string
}

func (v CheckViolation) String() string {
	if v.ICD10 == nil {
		return fmt.Sprintf("%s/%s: disease %q has no icd10 code", v.HumID, v.DatasetID, v.Label)
	}
	return fmt.Sprintf("%s/%s: disease %q (icd10=%s) does not match master label %q", v.HumID, v.DatasetID, v.Label, *v.ICD10, v.WantLabel)
}

// Check validates one dataset's diseases per spec.md §4.5's --check mode:
// every disease must have a non-null icd10 and a label exactly equal to
// the master label for that code.
func (n *Normalizer) Check(humID, datasetID string, diseases []domain.DiseaseLabel) []CheckViolation {
	var violations []CheckViolation
	for _, d := range diseases {
		if d.ICD10 == nil {
			violations = append(violations, CheckViolation{HumID: humID, DatasetID: datasetID, Label: d.Label})
			continue
		}
		want := n.labelForCode(*d.ICD10)
		if want == "" || want != d.Label {
			violations = append(violations, CheckViolation{
				HumID: humID, DatasetID: datasetID, Label: d.Label, ICD10: d.ICD10, WantLabel: want,
			})
		}
	}
	return violations
}
