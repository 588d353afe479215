package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbcls/humandbs-sub002/internal/domain"
	"github.com/dbcls/humandbs-sub002/internal/mapping"
)

func testMolDataCfg() mapping.MolDataFieldMapping {
	return mapping.MolDataFieldMapping{
		KeyMap: map[string][]string{
			CanonicalHeaderKey("プラットフォーム"): {"platform"},
			CanonicalHeaderKey("Platform"):    {"platform"},
			CanonicalHeaderKey("備考"):         {"__DISCARD__"},
			CanonicalHeaderKey("解析手法/対象"):   {"analysisMethod", "target"},
		},
		DiscardSentinel: "__DISCARD__",
		IDFields:        []string{"datasetId"},
	}
}

func TestCanonicalKeysRecognizedSingle(t *testing.T) {
	n := NewMolDataNormalizer(testMolDataCfg())
	keys, ok := n.CanonicalKeys("Platform")
	require.True(t, ok)
	assert.Equal(t, []string{"platform"}, keys)
}

func TestCanonicalKeysSplit(t *testing.T) {
	n := NewMolDataNormalizer(testMolDataCfg())
	keys, ok := n.CanonicalKeys("解析手法/対象")
	require.True(t, ok)
	assert.Len(t, keys, 2)
}

func TestCanonicalKeysDiscard(t *testing.T) {
	n := NewMolDataNormalizer(testMolDataCfg())
	keys, ok := n.CanonicalKeys("備考")
	assert.True(t, ok)
	assert.Nil(t, keys, "expected discard (nil keys, ok=true)")
}

func TestCanonicalKeysUnrecognizedPassesThrough(t *testing.T) {
	n := NewMolDataNormalizer(testMolDataCfg())
	keys, ok := n.CanonicalKeys("Some Unknown Label")
	assert.False(t, ok, "expected unrecognized (ok=false)")
	assert.Equal(t, []string{"Some Unknown Label"}, keys, "expected passthrough label")
}

func TestNormalizeRowDropsDiscardedFields(t *testing.T) {
	n := NewMolDataNormalizer(testMolDataCfg())
	row := domain.RawMolDataRow{
		Header: "JGAD000001",
		Data: map[string]domain.RawCell{
			"Platform": {Values: []string{"HiSeq 2500"}},
			"備考":      {Values: []string{"ignore me"}},
		},
	}
	out, warnings := n.NormalizeRow(domain.LangEN, row)
	assert.Empty(t, warnings)
	assert.Contains(t, out.Data, "platform")
	assert.Len(t, out.Data, 1, "expected discarded field dropped")
}

func TestNormalizeRowWarnsOnUnrecognized(t *testing.T) {
	n := NewMolDataNormalizer(testMolDataCfg())
	row := domain.RawMolDataRow{
		Header: "JGAD000002",
		Data: map[string]domain.RawCell{
			"Mystery Column": {Values: []string{"value"}},
		},
	}
	_, warnings := n.NormalizeRow(domain.LangEN, row)
	assert.Len(t, warnings, 1)
}

func TestIDFieldValues(t *testing.T) {
	n := NewMolDataNormalizer(testMolDataCfg())
	row := domain.RawMolDataRow{
		Data: map[string]domain.RawCell{
			"datasetId": {Values: []string{"JGAD000001", "JGAD000002"}},
		},
	}
	got := n.IDFieldValues(row)
	assert.Len(t, got, 2)
}
