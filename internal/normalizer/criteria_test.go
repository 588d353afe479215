package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dbcls/humandbs-sub002/internal/domain"
	"github.com/dbcls/humandbs-sub002/internal/mapping"
)

func TestNormalizeCriteriaSpecScenario(t *testing.T) {
	got, unknown := NormalizeCriteria("制限公開(TypeI),非制限公開", nil)
	want := []domain.Criteria{domain.CriteriaControlledType1, domain.CriteriaUnrestricted}
	assert.Equal(t, want, got)
	assert.Empty(t, unknown)
}

func TestNormalizeCriteriaEnglishForms(t *testing.T) {
	got, _ := NormalizeCriteria("Controlled-access (Type II) / Unrestricted-access", nil)
	want := []domain.Criteria{domain.CriteriaControlledType2, domain.CriteriaUnrestricted}
	assert.Equal(t, want, got)
}

func TestNormalizeCriteriaUnknownDropped(t *testing.T) {
	got, unknown := NormalizeCriteria("not-a-real-criteria", nil)
	assert.Empty(t, got)
	assert.Len(t, unknown, 1)
}

func TestNormalizeCriteriaExtraOverride(t *testing.T) {
	extra := CriteriaMapFromConfig(mapping.NormalizeMapping{
		Criteria: map[string]string{"custom label": string(domain.CriteriaUnrestricted)},
	})
	got, _ := NormalizeCriteria("custom label", extra)
	assert.Equal(t, []domain.Criteria{domain.CriteriaUnrestricted}, got, "expected extra override to resolve")
}
