package normalizer

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/dbcls/humandbs-sub002/internal/domain"
	"github.com/dbcls/humandbs-sub002/internal/mapping"
)

var criteriaWhitespaceHyphen = regexp.MustCompile(`[\s\x{3000}-]+`)

func criteriaKey(s string) string {
	s = norm.NFKC.String(s)
	s = strings.ToLower(s)
	s = criteriaWhitespaceHyphen.ReplaceAllString(s, "")
	return s
}

// defaultCriteriaMap is the fixed canonical map (ja/en forms) the pipeline
// ships with; normalize-mapping.json may extend or override it.
var defaultCriteriaMap = map[string]domain.Criteria{
	criteriaKey("制限公開(TypeI)"):             domain.CriteriaControlledType1,
	criteriaKey("制限公開（TypeI）"):             domain.CriteriaControlledType1,
	criteriaKey("Controlled-access (Type I)"): domain.CriteriaControlledType1,
	criteriaKey("Controlled Access Type I"):    domain.CriteriaControlledType1,
	criteriaKey("制限公開(TypeII)"):            domain.CriteriaControlledType2,
	criteriaKey("Controlled-access (Type II)"): domain.CriteriaControlledType2,
	criteriaKey("Controlled Access Type II"):   domain.CriteriaControlledType2,
	criteriaKey("非制限公開"):                   domain.CriteriaUnrestricted,
	criteriaKey("Unrestricted-access"):        domain.CriteriaUnrestricted,
	criteriaKey("Unrestricted Access"):         domain.CriteriaUnrestricted,
}

// NormalizeCriteria implements spec.md §4.3.3: lowercase + NFKC + strip
// whitespace/hyphens, comma/slash-split, look up each token in the
// canonical map. Unknown tokens are dropped (callers may log a warning).
// §8 scenario 2: normalizeCriteria("制限公開(TypeI),非制限公開") ->
// ["Controlled-access (Type I)", "Unrestricted-access"].
func NormalizeCriteria(raw string, extra map[string]string) ([]domain.Criteria, []string) {
	var unknown []string
	var out []domain.Criteria

	for _, tok := range splitCriteria(raw) {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		key := criteriaKey(tok)

		if extra != nil {
			if v, ok := extra[key]; ok {
				if c, ok := canonicalCriteria(v); ok {
					out = append(out, c)
					continue
				}
			}
		}
		if c, ok := defaultCriteriaMap[key]; ok {
			out = append(out, c)
			continue
		}
		unknown = append(unknown, tok)
	}
	return out, unknown
}

func canonicalCriteria(s string) (domain.Criteria, bool) {
	switch domain.Criteria(s) {
	case domain.CriteriaControlledType1, domain.CriteriaControlledType2, domain.CriteriaUnrestricted:
		return domain.Criteria(s), true
	}
	return "", false
}

func splitCriteria(raw string) []string {
	raw = strings.ReplaceAll(raw, "、", ",")
	parts := regexp.MustCompile(`[,/]`).Split(raw, -1)
	return parts
}

// CriteriaMapFromConfig extracts the normalize-mapping.json criteria table
// into the {criteriaKey -> canonical string} shape NormalizeCriteria takes.
func CriteriaMapFromConfig(m mapping.NormalizeMapping) map[string]string {
	out := make(map[string]string, len(m.Criteria))
	for raw, canonical := range m.Criteria {
		out[criteriaKey(raw)] = canonical
	}
	return out
}
