package normalizer

import (
	"context"
	"regexp"
	"strings"

	"github.com/dbcls/humandbs-sub002/internal/domain"
	"github.com/dbcls/humandbs-sub002/internal/mapping"
	"github.com/dbcls/humandbs-sub002/internal/relation"
)

// IDContext selects which per-context override map applies at step 3a of
// the ID reconciliation pipeline (spec.md §4.3.5).
type IDContext string

const (
	IDContextGeneral          IDContext = "general"
	IDContextPublication      IDContext = "publication"
	IDContextControlledAccess IDContext = "controlledAccess"
)

var annotationTokens = []string{
	"データ追加", "データ削除", "に", "追加",
}

var annotationTokensEN = []string{
	"Data addition", "Dataset addition", "data added", "data deleted",
}

var parenPattern = regexp.MustCompile(`[()（）]`)

// IDPipeline implements the ordered dataset-id reconciliation pipeline of
// spec.md §4.3.5. It is pure apart from step (f), the relation-service
// call, which goes through the injected relation.Service port.
type IDPipeline struct {
	cfg      mapping.DatasetIDMapping
	relation relation.Service
}

// NewIDPipeline constructs an IDPipeline.
func NewIDPipeline(cfg mapping.DatasetIDMapping, svc relation.Service) *IDPipeline {
	return &IDPipeline{cfg: cfg, relation: svc}
}

// Reconcile runs the full pipeline over one raw id cell and returns the
// clean surviving ids plus any warnings (e.g. a JGAS that the relation
// service could not expand).
func (p *IDPipeline) Reconcile(ctx context.Context, humID string, idCtx IDContext, raw string) (ids []string, warnings []string, err error) {
	cleaned := p.stripAnnotations(raw)

	tokens := p.split(cleaned)

	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}

		resolved, warns, dropErr := p.resolveToken(ctx, humID, idCtx, tok)
		if dropErr != nil {
			return nil, warnings, dropErr
		}
		warnings = append(warnings, warns...)
		ids = append(ids, resolved...)
	}

	return dedupe(ids), warnings, nil
}

// stripAnnotations implements step 1.
func (p *IDPipeline) stripAnnotations(raw string) string {
	s := parenPattern.ReplaceAllString(raw, "")

	for _, tok := range annotationTokens {
		s = strings.ReplaceAll(s, tok, "")
	}
	lower := strings.ToLower(s)
	for _, tok := range annotationTokensEN {
		idx := strings.Index(strings.ToLower(lower), strings.ToLower(tok))
		for idx >= 0 {
			s = s[:idx] + s[idx+len(tok):]
			lower = strings.ToLower(s)
			idx = strings.Index(lower, strings.ToLower(tok))
		}
	}

	s = strings.ReplaceAll(s, "、", " ")
	s = strings.ReplaceAll(s, ",", " ")
	s = strings.ReplaceAll(s, " / ", " ")
	s = collapseWhitespace(s)

	if special, ok := p.cfg.SpecialCaseStrings[s]; ok {
		return special
	}
	return s
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// split implements step 2: whitespace split unless the cleaned form is on
// the no-split allow-list.
func (p *IDPipeline) split(cleaned string) []string {
	for _, allowed := range p.cfg.NoSplitAllowList {
		if cleaned == allowed {
			return []string{cleaned}
		}
	}
	return strings.Fields(cleaned)
}

// resolveToken implements steps 3a-3g and 4 for a single whitespace-split
// token, which may itself expand into zero or more clean ids (a JGAS
// expansion, a JGAD range, or simply passing through).
func (p *IDPipeline) resolveToken(ctx context.Context, humID string, idCtx IDContext, tok string) (ids []string, warnings []string, err error) {
	// 3a: per-context override.
	if override, ok := p.contextOverride(idCtx)[tok]; ok {
		tok = override
	}

	// 3b: JGAD-typo-to-JGAS.
	if fix, ok := p.cfg.JGADTypoToJGAS[tok]; ok {
		tok = fix
	}

	// 3c: per-research-scope special cases (bilingual aliases).
	if aliases, ok := p.cfg.PerResearchAliases[humID]; ok {
		if alias, ok := aliases[tok]; ok {
			tok = alias
		}
	}

	// 3d: JGAX/legacy JGA format -> JGAS.
	if fix, ok := p.cfg.LegacyToJGAS[tok]; ok {
		tok = fix
	}

	// tok may have expanded into multiple space-separated ids via 3c/3d.
	candidates := strings.Fields(tok)

	for _, cand := range candidates {
		// 3e: JGAD range expansion.
		enumerated := ExpandJgadRange(cand)

		for _, one := range enumerated {
			// 3f: JGAS expansion via relation service.
			if domain.IsJGAS(one) {
				if p.isInvalidJGAS(one) {
					continue // dropped silently
				}
				expanded, err := p.expandJGAS(ctx, humID, one)
				if err != nil {
					return nil, warnings, err
				}
				if len(expanded) == 0 {
					warnings = append(warnings, "relation service returned no datasets for "+one)
					continue
				}
				ids = append(ids, expanded...)
				continue
			}

			// 3g: invalid-ID deny list.
			if p.isInvalidID(one) {
				continue
			}

			ids = append(ids, one)
		}
	}

	return ids, warnings, nil
}

func (p *IDPipeline) contextOverride(idCtx IDContext) map[string]string {
	switch idCtx {
	case IDContextPublication:
		return p.cfg.PublicationOverrides
	case IDContextControlledAccess:
		return p.cfg.ControlledAccessOverrides
	default:
		return p.cfg.GlobalOverrides
	}
}

func (p *IDPipeline) isInvalidJGAS(id string) bool {
	for _, v := range p.cfg.InvalidJGASDenyList {
		if v == id {
			return true
		}
	}
	return false
}

func (p *IDPipeline) isInvalidID(id string) bool {
	for _, v := range p.cfg.InvalidIDDenyList {
		if v == id {
			return true
		}
	}
	return false
}

// expandJGAS expands one JGAS id into JGADs via the relation service,
// unioned with any per-humId additional-JGAD table entry (SPEC_FULL.md
// open question #1: additive only), then filtered by the per-humId ignore
// list.
func (p *IDPipeline) expandJGAS(ctx context.Context, humID, jgasID string) ([]string, error) {
	fromService, err := p.relation.GetDatasetsFromStudy(ctx, jgasID)
	if err != nil {
		return nil, domain.NewPipelineError(domain.ErrRelationService, "expanding "+jgasID, err)
	}

	combined := append([]string{}, fromService...)
	if perHum, ok := p.cfg.AdditionalDatasetIDs[humID]; ok {
		if extra, ok := perHum[jgasID]; ok {
			combined = append(combined, extra...)
		}
	}
	combined = dedupe(combined)

	if ignored, ok := p.cfg.IgnoreDatasetIDs[humID]; ok {
		ignoreSet := make(map[string]bool, len(ignored))
		for _, v := range ignored {
			ignoreSet[v] = true
		}
		filtered := combined[:0:0]
		for _, id := range combined {
			if !ignoreSet[id] {
				filtered = append(filtered, id)
			}
		}
		combined = filtered
	}

	return combined, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
