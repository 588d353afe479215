// Package parser implements spec.md §4.2's DetailParser and ReleaseParser:
// deterministic HTML table/section extraction into a fixed RawRecord shape.
package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"

	"github.com/dbcls/humandbs-sub002/internal/domain"
	"github.com/dbcls/humandbs-sub002/internal/mapping"
)

var footnoteMarker = regexp.MustCompile(`^[※*]\d*\s*`)

var whitespaceRun = regexp.MustCompile(`\s+`)
var punctuation = regexp.MustCompile(`[[:punct:]]`)

// DetailParser extracts the RawRecord for one (humVersionId, language) detail
// page, consulting the controlled-access row special-case table for rows the
// generic extraction cannot handle.
type DetailParser struct {
	hotfix mapping.CrawlHotfix
}

func NewDetailParser(hotfix mapping.CrawlHotfix) *DetailParser {
	return &DetailParser{hotfix: hotfix}
}

// Parse builds a RawRecord from the raw HTML body of a detail page.
func (p *DetailParser) Parse(humVersionID string, lang domain.Lang, html []byte) (domain.RawRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(html)))
	if err != nil {
		return domain.RawRecord{}, domain.NewPipelineError(domain.ErrParse, "parsing detail HTML for "+humVersionID, err)
	}

	humID, _, _ := domain.ParseHumVersionID(humVersionID)

	rec := domain.RawRecord{
		HumVersionID: humVersionID,
		Lang:         lang,
		Summary:      p.parseSummary(doc),
		MolecularData: p.parseMolecularData(doc),
		DataProvider: p.parseDataProvider(doc),
		Publications: p.parsePublications(doc),
		ControlledAccessUsers: p.parseControlledAccessUsers(doc, humID),
	}
	return rec, nil
}

func (p *DetailParser) parseSummary(doc *goquery.Document) domain.RawSummary {
	get := func(selector string) *string {
		return cellOrNil(doc.Find(selector).First().Text())
	}
	s := domain.RawSummary{
		Title:   get(".research-title"),
		Aims:    get(".research-aims"),
		Methods: get(".research-methods"),
		Targets: get(".research-targets"),
		URL:     get(".research-url"),
	}

	doc.Find(".data-summary-table tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() == 0 {
			return
		}
		row := domain.RawDatasetSummary{
			RawIDs:      strings.TrimSpace(cellText(cells, 0)),
			Criteria:    cellOrNilAt(cells, 1),
			ReleaseDate: cellOrNilAt(cells, 2),
			TypeOfData:  cellOrNilAt(cells, 3),
		}
		if isEmptyCell(row.RawIDs) {
			return
		}
		s.Datasets = append(s.Datasets, row)
	})

	doc.Find(".data-summary-footer li").Each(func(_ int, sel *goquery.Selection) {
		if t := strings.TrimSpace(sel.Text()); t != "" {
			s.Footers = append(s.Footers, stripFootnoteMarker(t))
		}
	})

	return s
}

func (p *DetailParser) parseMolecularData(doc *goquery.Document) []domain.RawMolDataRow {
	var headers []string
	table := doc.Find(".molecular-data-table")
	table.Find("thead th").Each(func(_ int, th *goquery.Selection) {
		headers = append(headers, normalizeHeader(th.Text()))
	})

	var rows []domain.RawMolDataRow
	table.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() == 0 {
			return
		}
		row := domain.RawMolDataRow{
			Data: map[string]domain.RawCell{},
		}
		cells.Each(func(i int, td *goquery.Selection) {
			if i == 0 {
				row.RawID = strings.TrimSpace(td.Text())
				row.Header = normalizeHeader(td.Text())
				return
			}
			key := "column" + strconv.Itoa(i)
			if i < len(headers) {
				key = headers[i]
			}
			row.Data[key] = parseCell(td)
		})
		rows = append(rows, row)
	})
	return rows
}

func (p *DetailParser) parseDataProvider(doc *goquery.Document) domain.RawDataProvider {
	var dp domain.RawDataProvider
	doc.Find(".data-provider-table tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 4 {
			return
		}
		dp.PrincipalInvestigator = append(dp.PrincipalInvestigator, cellText(cells, 0))
		dp.Affiliation = append(dp.Affiliation, cellText(cells, 1))
		dp.ProjectName = append(dp.ProjectName, cellText(cells, 2))
		dp.ProjectURL = append(dp.ProjectURL, cellText(cells, 3))
		if cells.Length() > 4 {
			dp.Grants = append(dp.Grants, cellText(cells, 4))
		}
	})
	return dp
}

func (p *DetailParser) parsePublications(doc *goquery.Document) []domain.RawPublication {
	var pubs []domain.RawPublication
	doc.Find(".publication-table tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 3 {
			return
		}
		pubs = append(pubs, domain.RawPublication{
			Title:         cellText(cells, 0),
			DOI:           cellText(cells, 1),
			RawDatasetIDs: cellText(cells, 2),
		})
	})
	return pubs
}

// parseControlledAccessUsers extracts the controlled-access user table,
// substituting any row matched by the hotfix's controlled-access row
// special-case table (keyed "<humId>/<cellCount>/<firstCellText>").
func (p *DetailParser) parseControlledAccessUsers(doc *goquery.Document, humID string) []domain.RawControlledAccessUser {
	var users []domain.RawControlledAccessUser
	doc.Find(".controlled-access-table tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		n := cells.Length()
		if n == 0 {
			return
		}
		first := cellText(cells, 0)
		if fix, ok := p.hotfix.ControlledAccessRowFixes[rowFixKey(humID, n, first)]; ok {
			users = append(users, domain.RawControlledAccessUser{
				Organisation:  fix.Organisation,
				Name:          fix.Name,
				Period:        fix.Period,
				RawDatasetIDs: fix.DatasetIDs,
			})
			return
		}
		if n < 4 {
			return
		}
		users = append(users, domain.RawControlledAccessUser{
			Organisation:  cellText(cells, 0),
			Name:          cellText(cells, 1),
			Period:        cellText(cells, 2),
			RawDatasetIDs: cellText(cells, 3),
		})
	})
	return users
}

func rowFixKey(humID string, cellCount int, firstCellText string) string {
	return humID + "/" + strconv.Itoa(cellCount) + "/" + firstCellText
}

// parseCell reads one <td>, splitting on <br> into multiple values when
// present, applying the empty-cell and footnote-marker policies.
func parseCell(td *goquery.Selection) domain.RawCell {
	html, err := td.Html()
	if err != nil {
		return domain.RawCell{}
	}
	parts := regexp.MustCompile(`(?i)<br\s*/?>`).Split(html, -1)
	var values []string
	for _, part := range parts {
		frag, err := goquery.NewDocumentFromReader(strings.NewReader(part))
		if err != nil {
			continue
		}
		text := strings.TrimSpace(frag.Text())
		if isEmptyCell(text) {
			continue
		}
		values = append(values, stripFootnoteMarker(text))
	}
	return domain.RawCell{Values: values}
}

func cellText(cells *goquery.Selection, i int) string {
	if i >= cells.Length() {
		return ""
	}
	return strings.TrimSpace(cells.Eq(i).Text())
}

func cellOrNilAt(cells *goquery.Selection, i int) *string {
	return cellOrNil(cellText(cells, i))
}

func cellOrNil(raw string) *string {
	t := strings.TrimSpace(raw)
	if isEmptyCell(t) {
		return nil
	}
	t = stripFootnoteMarker(t)
	return &t
}

func isEmptyCell(s string) bool {
	return s == "" || s == "-"
}

func stripFootnoteMarker(s string) string {
	return footnoteMarker.ReplaceAllString(s, "")
}

// normalizeHeader applies NFKC and collapses whitespace runs to one space,
// keeping the stored header human-readable. It does not fold case or strip
// punctuation; NormalizeHeaderKey does that on top of it.
func normalizeHeader(s string) string {
	n := norm.NFKC.String(s)
	n = whitespaceRun.ReplaceAllString(n, " ")
	n = strings.TrimSpace(n)
	return n
}

// NormalizeHeaderKey produces the case-/whitespace-/punctuation-insensitive
// comparison key for a header string. Molecular-data label matching in the
// normalizer uses normalizer.CanonicalHeaderKey, not this function.
func NormalizeHeaderKey(s string) string {
	n := strings.ToLower(normalizeHeader(s))
	n = punctuation.ReplaceAllString(n, "")
	n = whitespaceRun.ReplaceAllString(n, "")
	return n
}
