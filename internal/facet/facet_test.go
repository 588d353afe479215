package facet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbcls/humandbs-sub002/internal/domain"
)

func writeTSV(t *testing.T, dir, field string, rows [][3]string) {
	t.Helper()
	var lines []string
	for _, r := range rows {
		lines = append(lines, r[0]+"\t"+r[1]+"\t"+r[2])
	}
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, field+".tsv"), []byte(content), 0o644))
}

func TestNormalizeKnownValue(t *testing.T) {
	dir := t.TempDir()
	writeTSV(t, dir, "tissues", [][3]string{{"whole blood", "Whole Blood", ""}})

	m, err := Load(dir, "tissues")
	require.NoError(t, err)
	assert.Equal(t, "Whole Blood", m.Normalize("whole blood"))
	assert.False(t, m.Dirty(), "expected no dirty flag for a known value")
}

func TestNormalizePendingPassesThrough(t *testing.T) {
	dir := t.TempDir()
	writeTSV(t, dir, "tissues", [][3]string{{"Liver", Pending, ""}})

	m, err := Load(dir, "tissues")
	require.NoError(t, err)
	assert.Equal(t, "Liver", m.Normalize("Liver"))
}

func TestNormalizeUnmappedRecordsPendingAndMarksDirty(t *testing.T) {
	dir := t.TempDir()
	m, err := Load(dir, "tissues")
	require.NoError(t, err)

	got := m.Normalize("Unseen Tissue")
	assert.Equal(t, "Unseen Tissue", got)
	assert.True(t, m.Dirty(), "expected dirty after seeing a new value")
	assert.Equal(t, []string{"Unseen Tissue"}, m.PendingValues())
}

func TestSaveOnlyWritesWhenDirty(t *testing.T) {
	dir := t.TempDir()
	writeTSV(t, dir, "tissues", [][3]string{{"Liver", "Liver", ""}})

	m, err := Load(dir, "tissues")
	require.NoError(t, err)
	m.Normalize("Liver")
	require.NoError(t, m.Save())

	info1, _ := os.Stat(filepath.Join(dir, "tissues.tsv"))

	m.Normalize("New Tissue")
	require.NoError(t, m.Save())
	info2, _ := os.Stat(filepath.Join(dir, "tissues.tsv"))

	changed := !info1.ModTime().Equal(info2.ModTime()) || info1.Size() != info2.Size()
	assert.True(t, changed, "expected file to change after a new pending value")

	reloaded, err := Load(dir, "tissues")
	require.NoError(t, err)
	assert.Equal(t, "New Tissue", reloaded.Normalize("New Tissue"), "expected round-tripped pending entry to pass through")
}

func TestNormalizeSearchablePlatformSplitsVendorModel(t *testing.T) {
	dir := t.TempDir()
	writeTSV(t, dir, "platformVendor", [][3]string{{"illumina", "Illumina", ""}})
	writeTSV(t, dir, "platformModel", [][3]string{{"novaseq 6000", "NovaSeq 6000", ""}})

	s, err := LoadSet(dir)
	require.NoError(t, err)

	sv := &domain.Searchable{
		Platform: []domain.PlatformInfo{{Vendor: "illumina", Model: "novaseq 6000"}},
	}
	s.NormalizeSearchable(sv)

	assert.Equal(t, "Illumina", sv.Platform[0].Vendor)
	assert.Equal(t, "NovaSeq 6000", sv.Platform[0].Model)
}
