package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbcls/humandbs-sub002/internal/domain"
)

func TestWriteReadManifestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	report := &domain.StageReport{Total: 3, Succeeded: 2}
	report.AddFailure("hum0014-v6", domain.NewPipelineError(domain.ErrNormalize, "boom", nil))

	started := time.Now().Add(-time.Minute)
	finished := time.Now()
	m := NewManifest(StageNormalize, report, started, finished)

	require.NoError(t, WriteManifest(dir, m))

	got, found, err := ReadManifest(dir, StageNormalize)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 3, got.Total)
	assert.Equal(t, 2, got.Succeeded)
	require.Len(t, got.Failed, 1)
	assert.Equal(t, "hum0014-v6", got.Failed[0].Key)
}

func TestReadManifestMissingReturnsFalse(t *testing.T) {
	dir := t.TempDir()
	_, found, err := ReadManifest(dir, StageFacet)
	require.NoError(t, err)
	assert.False(t, found)
}
