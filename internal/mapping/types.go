// Package mapping loads and validates the fixed-schema JSON configuration
// files consumed read-only by the pipeline (spec.md §6).
package mapping

// CrawlHotfix is crawl-hotfix-mapping.json: per-humId skip list, per-page
// release-URL overrides, controlled-access row special cases, and the list
// of pages that carry a data-summary table.
type CrawlHotfix struct {
	SkipHumIDs []string `json:"skipHumIds"`

	// ReleaseURLOverrides maps "<humVersionId>/<lang>" -> URL suffix.
	ReleaseURLOverrides map[string]string `json:"releaseUrlOverrides"`

	// ControlledAccessRowFixes is keyed by "<humId>/<cellCount>/<firstCellText>"
	// and supplies hand-authored replacement row data.
	ControlledAccessRowFixes map[string]ControlledAccessRowFix `json:"controlledAccessRowFixes"`

	DataSummaryPages []string `json:"dataSummaryPages"`
}

// ControlledAccessRowFix is one hand-authored replacement for a
// controlled-access table row that the generic parser cannot handle.
type ControlledAccessRowFix struct {
	Organisation string `json:"organisation"`
	Name         string `json:"name"`
	Period       string `json:"period"`
	DatasetIDs   string `json:"datasetIds"`
}

// DatasetIDMapping is dataset-id-mapping.json: every table consulted by the
// ID reconciliation pipeline (spec.md §4.3.5).
type DatasetIDMapping struct {
	// GlobalOverrides applies regardless of context (step 3a "general").
	GlobalOverrides map[string]string `json:"globalOverrides"`
	// PublicationOverrides applies only to publication-row tokens.
	PublicationOverrides map[string]string `json:"publicationOverrides"`
	// ControlledAccessOverrides applies only to controlled-access-user-row tokens.
	ControlledAccessOverrides map[string]string `json:"controlledAccessOverrides"`

	// JGADTypoToJGAS fixes tokens that look like a dataset id but are
	// actually a mistyped study id (step 3b).
	JGADTypoToJGAS map[string]string `json:"jgadTypoToJgas"`

	// PerResearchAliases is keyed by humId, then raw alias -> canonical id(s)
	// (space separated), applied at step 3c.
	PerResearchAliases map[string]map[string]string `json:"perResearchAliases"`

	// LegacyToJGAS converts JGAX/legacy-JGA spellings to JGAS (step 3d).
	LegacyToJGAS map[string]string `json:"legacyToJgas"`

	// InvalidJGASDenyList is dropped silently at step 3f.
	InvalidJGASDenyList []string `json:"invalidJgasDenyList"`
	// InvalidIDDenyList is dropped at step 3g.
	InvalidIDDenyList []string `json:"invalidIdDenyList"`

	// NoSplitAllowList holds cleaned forms that must NOT be whitespace-split
	// (step 2).
	NoSplitAllowList []string `json:"noSplitAllowList"`

	// AdditionalDatasetIDs supplements relation-service expansion per
	// humId+JGAS (open question #1 in SPEC_FULL.md: additive only).
	AdditionalDatasetIDs map[string]map[string][]string `json:"additionalDatasetIds"`

	// IgnoreDatasetIDs removes specific JGAD ids per humId after expansion.
	IgnoreDatasetIDs map[string][]string `json:"ignoreDatasetIds"`

	// SpecialCaseStrings is the per-string special-case table applied right
	// after annotation stripping in step 1.
	SpecialCaseStrings map[string]string `json:"specialCaseStrings"`
}

// NormalizeMapping is normalize-mapping.json: the canonical lookup tables
// for criteria/policy, grant, and publication normalization (spec.md
// §4.3.3, §4.3.7).
type NormalizeMapping struct {
	// Criteria maps a lowercase/NFKC/whitespace-stripped criteria token to
	// one of the three canonical Criteria values.
	Criteria map[string]string `json:"criteria"`

	// Policy maps a raw policy string to a canonical policy id.
	Policy map[string]string `json:"policy"`

	// GrantDenyList holds grant ids to drop outright.
	GrantDenyList []string `json:"grantDenyList"`

	// PublicationTitleDenyList holds "in-submission" titles to drop.
	PublicationTitleDenyList []string `json:"publicationTitleDenyList"`

	// DOIDenyList holds DOI strings that normalize to null.
	DOIDenyList []string `json:"doiDenyList"`
}

// MolDataFieldMapping is moldata-field-mapping.json: the molecular-data row
// key canonicalization table (spec.md §4.3.6).
type MolDataFieldMapping struct {
	// KeyMap maps a ja/en raw header label to one or more canonical field
	// names (a "split key" maps to more than one).
	KeyMap map[string][]string `json:"keyMap"`

	// DiscardSentinel is the canonical value meaning "drop this field".
	DiscardSentinel string `json:"discardSentinel"`

	// IDFields names the field keys whose cell values are harvested for
	// dataset-id extraction (spec.md §4.4.1), in addition to the row header.
	// They are matched exactly against the parsed row's raw header labels,
	// not against canonical names from KeyMap.
	IDFields []string `json:"idFields"`
}

// DatasetOverrides is dataset-overrides.json: explicit per-(humId,
// datasetId) criteria/releaseDate overrides that supersede prefix-based
// metadata inheritance (spec.md §4.4.2).
type DatasetOverrides struct {
	// Overrides is keyed by "<humId>/<datasetId>".
	Overrides map[string]DatasetOverride `json:"overrides"`
}

// DatasetOverride is one explicit metadata override.
type DatasetOverride struct {
	Criteria    []string `json:"criteria"`
	ReleaseDate *string  `json:"releaseDate"`
	TypeOfData  *string  `json:"typeOfData"`
}
