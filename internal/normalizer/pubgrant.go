package normalizer

import (
	"regexp"
	"strings"

	"golang.org/x/text/width"

	"github.com/dbcls/humandbs-sub002/internal/domain"
	"github.com/dbcls/humandbs-sub002/internal/mapping"
)

// PubGrantNormalizer implements spec.md §4.3.7: publication/grant/
// controlled-access-user cleanup that does not touch dataset ids (the
// IDPipeline owns those).
type PubGrantNormalizer struct {
	cfg mapping.NormalizeMapping
}

func NewPubGrantNormalizer(cfg mapping.NormalizeMapping) *PubGrantNormalizer {
	return &PubGrantNormalizer{cfg: cfg}
}

// NormalizeGrantID converts full-width alphanumerics to half-width (via
// golang.org/x/text/width, the same "fold to narrow form" normalization
// grant/accession numbers need) and drops deny-listed ids.
func (n *PubGrantNormalizer) NormalizeGrantID(raw string) (id string, keep bool) {
	folded := width.Narrow.String(strings.TrimSpace(raw))
	for _, denied := range n.cfg.GrantDenyList {
		if folded == denied {
			return "", false
		}
	}
	return folded, true
}

// IsInSubmissionTitle reports whether a publication title is on the
// "in-submission" deny list and should be dropped outright.
func (n *PubGrantNormalizer) IsInSubmissionTitle(title string) bool {
	for _, denied := range n.cfg.PublicationTitleDenyList {
		if title == denied {
			return true
		}
	}
	return false
}

// NormalizeDOI returns nil when the DOI is deny-listed or empty, otherwise
// the trimmed DOI.
func (n *PubGrantNormalizer) NormalizeDOI(raw string) *string {
	doi := strings.TrimSpace(raw)
	if doi == "" {
		return nil
	}
	for _, denied := range n.cfg.DOIDenyList {
		if doi == denied {
			return nil
		}
	}
	return &doi
}

var periodPattern = regexp.MustCompile(`^\s*(\d{4})/(\d{1,2})/(\d{1,2})\s*-\s*(\d{4})/(\d{1,2})/(\d{1,2})\s*$`)
var periodISOPattern = regexp.MustCompile(`^\s*(\d{4}-\d{2}-\d{2})\s*-\s*(\d{4}-\d{2}-\d{2})\s*$`)

// ParsePeriod implements the "period of data use" grammar: either
// "YYYY/M/D-YYYY/M/D" or "ISO-ISO". Returns nil if the string matches
// neither shape.
func ParsePeriod(raw string) *domain.Period {
	if m := periodPattern.FindStringSubmatch(raw); m != nil {
		start := FixDate(m[1] + "/" + m[2] + "/" + m[3])
		end := FixDate(m[4] + "/" + m[5] + "/" + m[6])
		return &domain.Period{Start: &start, End: &end}
	}
	if m := periodISOPattern.FindStringSubmatch(raw); m != nil {
		start, end := m[1], m[2]
		return &domain.Period{Start: &start, End: &end}
	}
	return nil
}
