package mapping

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(t *testing.T, dir, name string, v interface{}) {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), b, 0o644))
}

func TestLoadMissingFilesUseZeroValues(t *testing.T) {
	dir := t.TempDir()
	set, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "__DISCARD__", set.MolDataField.DiscardSentinel, "expected default discard sentinel")
}

func TestLoadValidatesAliasAgainstDenyList(t *testing.T) {
	dir := t.TempDir()
	writeJSON(t, dir, "dataset-id-mapping.json", DatasetIDMapping{
		InvalidIDDenyList: []string{"JGAD999999"},
		PerResearchAliases: map[string]map[string]string{
			"hum0014": {"typo": "JGAD999999"},
		},
	})

	_, err := Load(dir)
	assert.Error(t, err, "expected validation error for alias targeting a denied id")
}

func TestLoadRejectsMalformedHumID(t *testing.T) {
	dir := t.TempDir()
	writeJSON(t, dir, "dataset-id-mapping.json", DatasetIDMapping{
		PerResearchAliases: map[string]map[string]string{
			"not-a-hum-id": {"typo": "JGAD000001"},
		},
	})

	_, err := Load(dir)
	assert.Error(t, err, "expected validation error for malformed humId key")
}

func TestLoadParsesCrawlHotfix(t *testing.T) {
	dir := t.TempDir()
	writeJSON(t, dir, "crawl-hotfix-mapping.json", CrawlHotfix{
		SkipHumIDs: []string{"hum0099"},
		ReleaseURLOverrides: map[string]string{
			"hum0014-v6/ja": "/en/hum0014/v6",
		},
	})

	set, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"hum0099"}, set.CrawlHotfix.SkipHumIDs)
}
