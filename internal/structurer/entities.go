package structurer

import (
	"github.com/dbcls/humandbs-sub002/internal/domain"
)

// mergeDataProvider pairs the ja/en data-provider parallel-array halves
// (§4.4.3) into the final list of bilingual DataProvider entities. The
// principal-investigator name is the dominant identity field when the two
// language sides carry a different number of entries.
func mergeDataProvider(ja, en domain.NormalizedDataProvider) []domain.DataProvider {
	jaRows := zipProviderRows(ja)
	enRows := zipProviderRows(en)

	pairs := pairLists(jaRows, enRows, func(r providerRow) string { return r.PrincipalInvestigator })

	out := make([]domain.DataProvider, 0, len(pairs))
	for _, p := range pairs {
		var jaRow, enRow providerRow
		if p.JA != nil {
			jaRow = *p.JA
		}
		if p.EN != nil {
			enRow = *p.EN
		}
		out = append(out, domain.DataProvider{
			PrincipalInvestigator: strPair(jaRow.PrincipalInvestigator, enRow.PrincipalInvestigator, p.JA != nil, p.EN != nil),
			Affiliation:           strPair(jaRow.Affiliation, enRow.Affiliation, p.JA != nil, p.EN != nil),
			ProjectName:           strPair(jaRow.ProjectName, enRow.ProjectName, p.JA != nil, p.EN != nil),
			ProjectURL:            strPair(jaRow.ProjectURL, enRow.ProjectURL, p.JA != nil, p.EN != nil),
		})
	}
	return out
}

type providerRow struct {
	PrincipalInvestigator string
	Affiliation           string
	ProjectName           string
	ProjectURL            string
}

func zipProviderRows(p domain.NormalizedDataProvider) []providerRow {
	n := maxLen(len(p.PrincipalInvestigator), len(p.Affiliation), len(p.ProjectName), len(p.ProjectURL))
	rows := make([]providerRow, n)
	for i := 0; i < n; i++ {
		rows[i] = providerRow{
			PrincipalInvestigator: stringAt(p.PrincipalInvestigator, i),
			Affiliation:           stringAt(p.Affiliation, i),
			ProjectName:           stringAt(p.ProjectName, i),
			ProjectURL:            stringAt(p.ProjectURL, i),
		}
	}
	return rows
}

// mergeResearchProject derives {name, url} project entities from the same
// parallel-array halves used by mergeDataProvider, pairing on project name.
func mergeResearchProject(ja, en domain.NormalizedDataProvider) []domain.ResearchProject {
	jaRows := zipProviderRows(ja)
	enRows := zipProviderRows(en)
	pairs := pairLists(jaRows, enRows, func(r providerRow) string { return r.ProjectName })

	out := make([]domain.ResearchProject, 0, len(pairs))
	for _, p := range pairs {
		var jaRow, enRow providerRow
		if p.JA != nil {
			jaRow = *p.JA
		}
		if p.EN != nil {
			enRow = *p.EN
		}
		if jaRow.ProjectName == "" && enRow.ProjectName == "" {
			continue
		}
		out = append(out, domain.ResearchProject{
			Name: strPair(jaRow.ProjectName, enRow.ProjectName, p.JA != nil, p.EN != nil),
			URL:  strPair(jaRow.ProjectURL, enRow.ProjectURL, p.JA != nil, p.EN != nil),
		})
	}
	return out
}

// mergeGrants pairs ja/en grant lists on grant id.
func mergeGrants(ja, en []domain.NormalizedGrant) []domain.Grant {
	pairs := pairLists(ja, en, func(g domain.NormalizedGrant) string { return g.ID })

	out := make([]domain.Grant, 0, len(pairs))
	for _, p := range pairs {
		var id string
		var jaTitle, jaAgency, enTitle, enAgency *string
		if p.JA != nil {
			id = p.JA.ID
			if p.JA.Title != "" {
				jaTitle = &p.JA.Title
			}
			if p.JA.Agency != "" {
				jaAgency = &p.JA.Agency
			}
		}
		if p.EN != nil {
			if id == "" {
				id = p.EN.ID
			}
			if p.EN.Title != "" {
				enTitle = &p.EN.Title
			}
			if p.EN.Agency != "" {
				enAgency = &p.EN.Agency
			}
		}
		out = append(out, domain.Grant{
			ID:     id,
			Title:  domain.MergePair(jaTitle, enTitle),
			Agency: domain.MergePair(jaAgency, enAgency),
		})
	}
	return out
}

// mergePublications pairs ja/en publication lists on DOI, falling back to
// title when neither side has a DOI.
func mergePublications(ja, en []domain.NormalizedPublication) []domain.Publication {
	pairs := pairLists(ja, en, func(p domain.NormalizedPublication) string {
		if p.DOI != nil {
			return "doi:" + *p.DOI
		}
		return "title:" + p.Title
	})

	out := make([]domain.Publication, 0, len(pairs))
	for _, p := range pairs {
		var jaTitle, enTitle *string
		var doi *string
		var ids []string
		if p.JA != nil {
			if p.JA.Title != "" {
				jaTitle = &p.JA.Title
			}
			doi = p.JA.DOI
			ids = p.JA.DatasetIDs
		}
		if p.EN != nil {
			if p.EN.Title != "" {
				enTitle = &p.EN.Title
			}
			if doi == nil {
				doi = p.EN.DOI
			}
			if len(ids) == 0 {
				ids = p.EN.DatasetIDs
			}
		}
		out = append(out, domain.Publication{
			Title:      domain.MergePair(jaTitle, enTitle),
			DOI:        doi,
			DatasetIDs: ids,
		})
	}
	return out
}

// mergeControlledAccessUsers pairs ja/en CAU lists on organisation+name.
func mergeControlledAccessUsers(ja, en []domain.NormalizedControlledAccessUser) []domain.ControlledAccessUser {
	pairs := pairLists(ja, en, func(u domain.NormalizedControlledAccessUser) string {
		return u.Organisation + "\x00" + u.Name
	})

	out := make([]domain.ControlledAccessUser, 0, len(pairs))
	for _, p := range pairs {
		var jaOrg, jaName, enOrg, enName *string
		var period *domain.Period
		var ids []string
		if p.JA != nil {
			if p.JA.Organisation != "" {
				jaOrg = &p.JA.Organisation
			}
			if p.JA.Name != "" {
				jaName = &p.JA.Name
			}
			period = p.JA.Period
			ids = p.JA.DatasetIDs
		}
		if p.EN != nil {
			if p.EN.Organisation != "" {
				enOrg = &p.EN.Organisation
			}
			if p.EN.Name != "" {
				enName = &p.EN.Name
			}
			if period == nil {
				period = p.EN.Period
			}
			if len(ids) == 0 {
				ids = p.EN.DatasetIDs
			}
		}
		out = append(out, domain.ControlledAccessUser{
			Organisation: domain.MergePair(jaOrg, enOrg),
			Name:         domain.MergePair(jaName, enName),
			Period:       period,
			DatasetIDs:   ids,
		})
	}
	return out
}

func strPair(jaVal, enVal string, jaPresent, enPresent bool) domain.BilingualText {
	var ja, en *string
	if jaPresent && jaVal != "" {
		ja = &jaVal
	}
	if enPresent && enVal != "" {
		en = &enVal
	}
	return domain.MergePair(ja, en)
}

func stringAt(ss []string, i int) string {
	if i < 0 || i >= len(ss) {
		return ""
	}
	return ss[i]
}

func maxLen(ns ...int) int {
	m := 0
	for _, n := range ns {
		if n > m {
			m = n
		}
	}
	return m
}
