package search

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func marshalQuery(t *testing.T, q interface{ Source() (interface{}, error) }) map[string]interface{} {
	t.Helper()
	src, err := q.Source()
	require.NoError(t, err)
	raw, err := json.Marshal(src)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

// TestPlatformFilterMultiValue verifies spec.md §8 scenario 5: a query
// of "Illumina||NovaSeq 6000,Illumina||HiSeq 2500" becomes one top-level
// bool.should containing two nested queries, each a bool.must of two term
// queries.
func TestPlatformFilterMultiValue(t *testing.T) {
	q := PlatformFilter([]string{"Illumina||NovaSeq 6000", "Illumina||HiSeq 2500"})
	require.NotNil(t, q)

	doc := marshalQuery(t, q)
	b, ok := doc["bool"].(map[string]interface{})
	require.True(t, ok, "expected top-level bool, got %+v", doc)

	should, ok := b["should"].([]interface{})
	require.True(t, ok)
	require.Len(t, should, 2)

	for _, clause := range should {
		nested, ok := clause.(map[string]interface{})["nested"].(map[string]interface{})
		require.True(t, ok, "expected nested clause, got %+v", clause)
		assert.Equal(t, experimentsPath, nested["path"])

		inner := nested["query"].(map[string]interface{})["bool"].(map[string]interface{})
		must, ok := inner["must"].([]interface{})
		require.True(t, ok, "expected must term clauses inside nested bool, got %+v", inner)
		assert.Len(t, must, 2)
	}
}

// TestPlatformFilterVendorOnlyUsesShould verifies that a vendor-only term
// (no "||model" half) builds a should clause rather than a must.
func TestPlatformFilterVendorOnlyUsesShould(t *testing.T) {
	q := PlatformFilter([]string{"Illumina"})
	doc := marshalQuery(t, q)
	b := doc["bool"].(map[string]interface{})
	// A bool query with a single should clause serializes it as an object,
	// not a one-element array.
	should := b["should"].(map[string]interface{})
	nested := should["nested"].(map[string]interface{})
	inner := nested["query"].(map[string]interface{})["bool"].(map[string]interface{})

	_, hasMust := inner["must"]
	assert.False(t, hasMust, "expected vendor-only term to use should, not must: %+v", inner)
	_, hasShould := inner["should"]
	assert.True(t, hasShould, "expected should clause for vendor-only term: %+v", inner)
}

func TestDiseaseICD10PrefixFilterIsCaseInsensitive(t *testing.T) {
	q := DiseaseICD10PrefixFilter("E1")
	doc := marshalQuery(t, q)
	nested := doc["nested"].(map[string]interface{})
	inner := nested["query"].(map[string]interface{})["nested"].(map[string]interface{})
	prefix := inner["query"].(map[string]interface{})["prefix"].(map[string]interface{})
	field := prefix[searchablePath+".diseases.icd10"].(map[string]interface{})

	assert.Equal(t, "e1", field["value"], "expected lowercased prefix value")
	assert.Equal(t, true, field["case_insensitive"])
}

func TestBuildFiltersAppliesNestedTermsInTableOrder(t *testing.T) {
	p := FilterParams{
		NestedTerms: map[string][]string{
			"sex":       {"female"},
			"assayType": {"WGS"},
		},
	}
	clauses := BuildFilters(p)
	require.Len(t, clauses, 2)

	// assayType precedes sex in NestedTermFilters.
	doc := marshalQuery(t, clauses[0])
	nested := doc["nested"].(map[string]interface{})
	terms := nested["query"].(map[string]interface{})["terms"].(map[string]interface{})
	_, ok := terms[searchablePath+".assayType"]
	assert.True(t, ok, "expected first clause to be assayType, got %+v", doc)
}
