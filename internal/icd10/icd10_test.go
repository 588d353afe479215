package icd10

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbcls/humandbs-sub002/internal/domain"
)

func testConfig() *Config {
	return &Config{
		Master: MasterTable{
			"E11": "Type 2 diabetes mellitus",
			"I10": "Essential (primary) hypertension",
		},
		Splits: map[string][]Split{
			"hum0014": {
				{
					RawLabel: "T2DM+HTN comorbidity",
					Labels: map[string]string{
						"E11": "Type 2 diabetes mellitus",
						"I10": "Essential (primary) hypertension",
					},
				},
			},
		},
	}
}

func TestNormalizeFillsLabelFromCode(t *testing.T) {
	n := New(testConfig())
	code := "E11"
	out := n.Normalize("hum0001", []domain.DiseaseLabel{{Label: "wrong label", ICD10: &code}})
	require.Len(t, out, 1)
	assert.Equal(t, "Type 2 diabetes mellitus", out[0].Label)
}

func TestNormalizeResolvesCodeFromExactLabel(t *testing.T) {
	n := New(testConfig())
	out := n.Normalize("hum0001", []domain.DiseaseLabel{{Label: "Essential (primary) hypertension"}})
	require.Len(t, out, 1)
	require.NotNil(t, out[0].ICD10)
	assert.Equal(t, "I10", *out[0].ICD10)
}

func TestNormalizeAppliesManualSplit(t *testing.T) {
	n := New(testConfig())
	out := n.Normalize("hum0014", []domain.DiseaseLabel{{Label: "T2DM+HTN comorbidity"}})
	assert.Len(t, out, 2, "expected split into 2 entries")
}

func TestNormalizeUnresolvedPassesThrough(t *testing.T) {
	n := New(testConfig())
	out := n.Normalize("hum0001", []domain.DiseaseLabel{{Label: "Unknown Disease"}})
	require.Len(t, out, 1)
	assert.Equal(t, "Unknown Disease", out[0].Label)
	assert.Nil(t, out[0].ICD10)
}

func TestCheckFlagsMissingICD10(t *testing.T) {
	n := New(testConfig())
	violations := n.Check("hum0001", "JGAD000001", []domain.DiseaseLabel{{Label: "Unknown Disease"}})
	assert.Len(t, violations, 1)
}

func TestCheckFlagsMismatchedLabel(t *testing.T) {
	n := New(testConfig())
	code := "E11"
	violations := n.Check("hum0001", "JGAD000001", []domain.DiseaseLabel{{Label: "wrong label", ICD10: &code}})
	assert.Len(t, violations, 1)
}

func TestCheckPassesOnExactMatch(t *testing.T) {
	n := New(testConfig())
	code := "E11"
	violations := n.Check("hum0001", "JGAD000001", []domain.DiseaseLabel{{Label: "Type 2 diabetes mellitus", ICD10: &code}})
	assert.Empty(t, violations)
}
