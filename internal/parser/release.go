package parser

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/dbcls/humandbs-sub002/internal/domain"
)

// ReleaseParser extracts a page's release-history table into RawRelease
// entries (spec.md §4.2).
type ReleaseParser struct{}

func NewReleaseParser() *ReleaseParser {
	return &ReleaseParser{}
}

// Parse builds the []RawRelease for one release-history page.
func (p *ReleaseParser) Parse(humVersionID string, html []byte) ([]domain.RawRelease, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(html)))
	if err != nil {
		return nil, domain.NewPipelineError(domain.ErrParse, "parsing release HTML for "+humVersionID, err)
	}

	var releases []domain.RawRelease
	doc.Find(".release-history-table tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		versionText := strings.TrimPrefix(strings.TrimSpace(cellText(cells, 0)), "v")
		version, err := strconv.Atoi(versionText)
		if err != nil {
			return
		}
		note := ""
		if cells.Length() > 2 {
			note = cellText(cells, 2)
		}
		releases = append(releases, domain.RawRelease{
			Version:     version,
			ReleaseDate: cellText(cells, 1),
			Note:        note,
		})
	})
	return releases, nil
}
