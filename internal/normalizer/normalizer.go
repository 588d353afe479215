// Package normalizer implements spec.md §4.3: the per-field normalization
// stage that turns one language's RawRecord into a NormalizedRecord. Every
// sub-concern (text folding, URLs, dates, criteria, dataset-id
// reconciliation, molecular-data keys, publications/grants) lives in its
// own file; Normalizer wires them together and owns the per-record
// failure accounting (spec.md's "stage reports (total, succeeded,
// failed[]) and continues" failure model).
package normalizer

import (
	"context"
	"strconv"

	"github.com/dbcls/humandbs-sub002/internal/domain"
	"github.com/dbcls/humandbs-sub002/internal/mapping"
	"github.com/dbcls/humandbs-sub002/internal/relation"
)

// Normalizer holds every configured sub-normalizer plus the portal base URL
// needed for relative-link resolution (§4.3.2).
type Normalizer struct {
	portalBase string

	ids      *IDPipeline
	molData  *MolDataNormalizer
	pubGrant *PubGrantNormalizer

	criteriaExtra map[string]string
}

// New builds a Normalizer from the loaded mapping config set.
func New(portalBase string, maps *mapping.Set, svc relation.Service) *Normalizer {
	return &Normalizer{
		portalBase:    portalBase,
		ids:           NewIDPipeline(maps.DatasetID, svc),
		molData:       NewMolDataNormalizer(maps.MolDataField),
		pubGrant:      NewPubGrantNormalizer(maps.Normalize),
		criteriaExtra: CriteriaMapFromConfig(maps.Normalize),
	}
}

// Normalize turns one RawRecord into a NormalizedRecord, accumulating
// per-subrecord failures into report rather than aborting. humID is the
// owning research's humId, used for per-research ID overrides/aliases.
func (n *Normalizer) Normalize(ctx context.Context, humID string, raw domain.RawRecord) (domain.NormalizedRecord, domain.StageReport) {
	var report domain.StageReport

	out := domain.NormalizedRecord{
		HumVersionID: raw.HumVersionID,
		Lang:         raw.Lang,
	}

	out.Summary = n.normalizeSummary(ctx, humID, raw.Lang, raw.Summary, &report)

	for i, row := range raw.MolecularData {
		report.Total++
		normRow, warnings := n.molData.NormalizeRow(raw.Lang, row)

		ids, idWarnings, err := n.ids.Reconcile(ctx, humID, IDContextGeneral, row.RawID+" "+row.Header)
		if err != nil {
			report.AddFailure(rowKey(i, row.Header), err)
			continue
		}
		for _, v := range n.molData.IDFieldValues(row) {
			extra, _, err := n.ids.Reconcile(ctx, humID, IDContextGeneral, v)
			if err != nil {
				report.AddFailure(rowKey(i, row.Header), err)
				continue
			}
			ids = append(ids, extra...)
		}
		normRow.ExtractedDatasetIDs = dedupe(ids)

		_ = warnings
		_ = idWarnings
		out.MolecularData = append(out.MolecularData, normRow)
		report.AddSuccess()
	}

	out.DataProvider = n.normalizeDataProvider(raw.DataProvider)

	for _, pub := range raw.Publications {
		report.Total++
		if n.pubGrant.IsInSubmissionTitle(pub.Title) {
			report.AddSuccess()
			continue // dropped per §4.3.7, not a failure
		}
		ids, _, err := n.ids.Reconcile(ctx, humID, IDContextPublication, pub.RawDatasetIDs)
		if err != nil {
			report.AddFailure("publication:"+pub.Title, err)
			continue
		}
		out.Publications = append(out.Publications, domain.NormalizedPublication{
			Title:      NormalizeText(pub.Title, raw.Lang),
			DOI:        n.pubGrant.NormalizeDOI(pub.DOI),
			DatasetIDs: ids,
		})
		report.AddSuccess()
	}

	for _, cau := range raw.ControlledAccessUsers {
		report.Total++
		ids, _, err := n.ids.Reconcile(ctx, humID, IDContextControlledAccess, cau.RawDatasetIDs)
		if err != nil {
			report.AddFailure("controlledAccessUser:"+cau.Name, err)
			continue
		}
		out.ControlledAccessUsers = append(out.ControlledAccessUsers, domain.NormalizedControlledAccessUser{
			Organisation: NormalizeText(cau.Organisation, raw.Lang),
			Name:         NormalizeText(cau.Name, raw.Lang),
			Period:       ParsePeriod(cau.Period),
			DatasetIDs:   ids,
		})
		report.AddSuccess()
	}

	for _, rel := range raw.Releases {
		out.Releases = append(out.Releases, domain.NormalizedRelease{
			Version:     rel.Version,
			ReleaseDate: FixSingleReleaseDate(rel.ReleaseDate),
			Note:        domain.TextValue{Text: NormalizeText(rel.Note, raw.Lang)},
		})
	}

	return out, report
}

func (n *Normalizer) normalizeSummary(ctx context.Context, humID string, lang domain.Lang, raw domain.RawSummary, report *domain.StageReport) domain.NormalizedSummary {
	out := domain.NormalizedSummary{
		Title:   normalizeOptionalText(raw.Title, lang),
		Aims:    normalizeOptionalText(raw.Aims, lang),
		Methods: normalizeOptionalText(raw.Methods, lang),
		Targets: normalizeOptionalText(raw.Targets, lang),
	}
	if raw.URL != nil {
		u := NormalizeURL(*raw.URL, n.portalBase)
		out.URL = &u
	}
	for _, f := range raw.Footers {
		f = StripFootnoteMarker(NormalizeText(f, lang))
		if f != "" {
			out.Footers = append(out.Footers, f)
		}
	}

	for i, ds := range raw.Datasets {
		report.Total++
		ids, _, err := n.ids.Reconcile(ctx, humID, IDContextGeneral, ds.RawIDs)
		if err != nil {
			report.AddFailure(rowKey(i, ds.RawIDs), err)
			continue
		}

		var criteria []domain.Criteria
		if ds.Criteria != nil {
			parsed, _ := NormalizeCriteria(*ds.Criteria, n.criteriaExtra)
			criteria = parsed
		}

		out.Datasets = append(out.Datasets, domain.NormalizedDatasetSummary{
			DatasetIDs:  ids,
			Criteria:    criteria,
			ReleaseDate: FixSingleReleaseDate(derefOr(ds.ReleaseDate, "")),
			TypeOfData:  ds.TypeOfData,
		})
		report.AddSuccess()
	}

	return out
}

func (n *Normalizer) normalizeDataProvider(raw domain.RawDataProvider) domain.NormalizedDataProvider {
	out := domain.NormalizedDataProvider{
		PrincipalInvestigator: raw.PrincipalInvestigator,
		Affiliation:           raw.Affiliation,
		ProjectName:           raw.ProjectName,
		ProjectURL:            raw.ProjectURL,
	}
	for _, g := range raw.Grants {
		id, keep := n.pubGrant.NormalizeGrantID(g)
		if !keep {
			continue
		}
		out.Grants = append(out.Grants, domain.NormalizedGrant{ID: id})
	}
	return out
}

func normalizeOptionalText(s *string, lang domain.Lang) *string {
	if s == nil {
		return nil
	}
	v := NormalizeText(*s, lang)
	return &v
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}

func rowKey(i int, label string) string {
	if label == "" {
		return "row-" + strconv.Itoa(i)
	}
	return label
}
