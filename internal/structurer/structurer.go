package structurer

import (
	"sort"

	"github.com/dbcls/humandbs-sub002/internal/domain"
	"github.com/dbcls/humandbs-sub002/internal/mapping"
)

// VersionRecord pairs one humVersionId's ja/en NormalizedRecords (either
// may be absent if a page exists in only one language at that snapshot).
type VersionRecord struct {
	HumVersionID string
	Version      int
	JA           *domain.NormalizedRecord
	EN           *domain.NormalizedRecord
}

// Structurer implements spec.md §4.4: turns one humId's ordered
// VersionRecords into a Research, its ResearchVersions, and its Datasets.
type Structurer struct {
	overrides mapping.DatasetOverrides
}

// New constructs a Structurer.
func New(overrides mapping.DatasetOverrides) *Structurer {
	return &Structurer{overrides: overrides}
}

// Structure runs the full pipeline. records need not be pre-sorted; they
// are sorted ascending by Version here so dataset-version assignment is
// deterministic regardless of caller order (§5 ordering requirement).
func (s *Structurer) Structure(humID string, records []VersionRecord) (domain.Research, []domain.ResearchVersion, []domain.Dataset, error) {
	sorted := append([]VersionRecord{}, records...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Version < sorted[j].Version })

	tracker := NewVersionTracker()
	datasetsByKey := make(map[string]domain.Dataset)
	globalExpansion := make(map[string]map[string]bool)

	var researchVersions []domain.ResearchVersion
	var versionIDs []string
	var firstReleaseDate, lastReleaseDate *string

	for _, rec := range sorted {
		rv, err := s.structureOneVersion(humID, rec, tracker, datasetsByKey, globalExpansion)
		if err != nil {
			return domain.Research{}, nil, nil, err
		}
		researchVersions = append(researchVersions, rv)
		versionIDs = append(versionIDs, rec.HumVersionID)

		if rv.VersionReleaseDate != nil {
			if firstReleaseDate == nil {
				firstReleaseDate = rv.VersionReleaseDate
			}
			lastReleaseDate = rv.VersionReleaseDate
		}
	}

	research := domain.Research{HumID: humID}
	if len(sorted) > 0 {
		last := sorted[len(sorted)-1]
		research = s.buildResearch(humID, last, globalExpansion)
	}
	research.VersionIDs = versionIDs
	if len(versionIDs) > 0 {
		research.LatestVersion = versionIDs[len(versionIDs)-1]
	}
	research.FirstReleaseDate = firstReleaseDate
	research.LastReleaseDate = lastReleaseDate
	research.Status = domain.StatusDraft

	datasets := make([]domain.Dataset, 0, len(datasetsByKey))
	for _, ds := range datasetsByKey {
		datasets = append(datasets, ds)
	}
	sort.Slice(datasets, func(i, j int) bool {
		if datasets[i].DatasetID != datasets[j].DatasetID {
			return datasets[i].DatasetID < datasets[j].DatasetID
		}
		return datasets[i].Version < datasets[j].Version
	})

	return research, researchVersions, datasets, nil
}

func (s *Structurer) structureOneVersion(
	humID string,
	rec VersionRecord,
	tracker *VersionTracker,
	datasetsByKey map[string]domain.Dataset,
	globalExpansion map[string]map[string]bool,
) (domain.ResearchVersion, error) {
	var jaRows, enRows map[string][]domain.NormalizedMolDataRow
	var jaDirect, enDirect map[string]datasetMeta
	var jaSummaryDatasetIDs, enSummaryDatasetIDs []string

	if rec.JA != nil {
		jaRows = invertMolData(rec.JA.MolecularData)
		jaDirect = directMetaFromSummary(rec.JA.Summary.Datasets)
		jaSummaryDatasetIDs = summaryDatasetIDs(rec.JA.Summary.Datasets)
	}
	if rec.EN != nil {
		enRows = invertMolData(rec.EN.MolecularData)
		enDirect = directMetaFromSummary(rec.EN.Summary.Datasets)
		enSummaryDatasetIDs = summaryDatasetIDs(rec.EN.Summary.Datasets)
	}

	for id, owners := range buildExpansionMap(jaRows) {
		mergeOwners(globalExpansion, id, owners)
	}
	for id, owners := range buildExpansionMap(enRows) {
		mergeOwners(globalExpansion, id, owners)
	}

	candidateIDs := unionKeys(jaRows, enRows, jaSummaryDatasetIDs, enSummaryDatasetIDs)

	var refs []domain.DatasetRef
	var releaseDate *string

	for _, id := range candidateIDs {
		experiments := mergeExperiments(jaRows[id], enRows[id])

		meta := resolveMeta(humID, id, jaDirect, s.overrides)
		if len(meta.Criteria) == 0 && meta.ReleaseDate == nil && meta.TypeOfData == nil {
			meta = resolveMeta(humID, id, enDirect, s.overrides)
		}

		version, err := tracker.AssignVersion(id, experiments)
		if err != nil {
			return domain.ResearchVersion{}, err
		}

		key := id + "|" + version
		if _, exists := datasetsByKey[key]; !exists {
			datasetsByKey[key] = domain.Dataset{
				DatasetID:          id,
				Version:            version,
				VersionReleaseDate: meta.ReleaseDate,
				HumID:              humID,
				HumVersionID:       rec.HumVersionID,
				ReleaseDate:        meta.ReleaseDate,
				Criteria:           meta.Criteria,
				TypeOfData:         typeOfDataPair(meta.TypeOfData),
				Experiments:        experiments,
			}
		}
		refs = append(refs, domain.DatasetRef{DatasetID: id, Version: version})

		if meta.ReleaseDate != nil {
			releaseDate = meta.ReleaseDate
		}
	}

	sort.Slice(refs, func(i, j int) bool { return refs[i].DatasetID < refs[j].DatasetID })

	var jaNote, enNote *domain.TextValue
	if rec.JA != nil && len(rec.JA.Releases) > 0 {
		note := rec.JA.Releases[len(rec.JA.Releases)-1].Note
		jaNote = &note
	}
	if rec.EN != nil && len(rec.EN.Releases) > 0 {
		note := rec.EN.Releases[len(rec.EN.Releases)-1].Note
		enNote = &note
	}

	return domain.ResearchVersion{
		HumID:              humID,
		HumVersionID:       rec.HumVersionID,
		Version:            rec.Version,
		VersionReleaseDate: releaseDate,
		Datasets:           refs,
		ReleaseNote:        domain.MergeValuePair(jaNote, enNote),
	}, nil
}

func (s *Structurer) buildResearch(humID string, rec VersionRecord, globalExpansion map[string]map[string]bool) domain.Research {
	var jaSummary, enSummary domain.NormalizedSummary
	var jaDP, enDP domain.NormalizedDataProvider
	var jaPubs, enPubs []domain.NormalizedPublication
	var jaCAU, enCAU []domain.NormalizedControlledAccessUser

	if rec.JA != nil {
		jaSummary = rec.JA.Summary
		jaDP = rec.JA.DataProvider
		jaPubs = rec.JA.Publications
		jaCAU = rec.JA.ControlledAccessUsers
	}
	if rec.EN != nil {
		enSummary = rec.EN.Summary
		enDP = rec.EN.DataProvider
		enPubs = rec.EN.Publications
		enCAU = rec.EN.ControlledAccessUsers
	}

	var jaURL, enURL *string
	if jaSummary.URL != nil {
		jaURL = jaSummary.URL
	}
	if enSummary.URL != nil {
		enURL = enSummary.URL
	}

	var jaAimsValue, enAimsValue *domain.TextValue
	if jaSummary.Aims != nil {
		jaAimsValue = &domain.TextValue{Text: *jaSummary.Aims}
	}
	if enSummary.Aims != nil {
		enAimsValue = &domain.TextValue{Text: *enSummary.Aims}
	}

	publications := mergePublications(jaPubs, enPubs)
	for i := range publications {
		publications[i].DatasetIDs = rewriteDatasetIDs(publications[i].DatasetIDs, globalExpansion)
	}
	cau := mergeControlledAccessUsers(jaCAU, enCAU)
	for i := range cau {
		cau[i].DatasetIDs = rewriteDatasetIDs(cau[i].DatasetIDs, globalExpansion)
	}

	return domain.Research{
		HumID:                humID,
		URL:                  domain.MergePair(jaURL, enURL),
		Title:                domain.MergePair(jaSummary.Title, enSummary.Title),
		Summary:              domain.MergeValuePair(jaAimsValue, enAimsValue),
		DataProvider:         mergeDataProvider(jaDP, enDP),
		ResearchProject:      mergeResearchProject(jaDP, enDP),
		Grant:                mergeGrants(jaDP.Grants, enDP.Grants),
		RelatedPublication:   publications,
		ControlledAccessUser: cau,
	}
}

func typeOfDataPair(s *string) domain.BilingualText {
	if s == nil {
		return domain.BilingualText{}
	}
	return domain.BilingualText{JA: s, EN: s}
}

func summaryDatasetIDs(datasets []domain.NormalizedDatasetSummary) []string {
	var out []string
	for _, ds := range datasets {
		out = append(out, ds.DatasetIDs...)
	}
	return out
}

func unionKeys(jaRows, enRows map[string][]domain.NormalizedMolDataRow, extra ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for id := range jaRows {
		add(id)
	}
	for id := range enRows {
		add(id)
	}
	for _, list := range extra {
		for _, id := range list {
			add(id)
		}
	}
	sort.Strings(out)
	return out
}

func mergeOwners(dst map[string]map[string]bool, id string, owners map[string]bool) {
	set, ok := dst[id]
	if !ok {
		set = make(map[string]bool)
		dst[id] = set
	}
	for owner := range owners {
		set[owner] = true
	}
}
