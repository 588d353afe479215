package relation

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	calls map[string]int
	data  map[string][]string
}

func newFakeService(data map[string][]string) *fakeService {
	return &fakeService{calls: map[string]int{}, data: data}
}

func (f *fakeService) GetDatasetsFromStudy(ctx context.Context, jgasID string) ([]string, error) {
	f.calls[jgasID]++
	return f.data[jgasID], nil
}

func TestMemoizedServiceCachesAcrossCalls(t *testing.T) {
	fake := newFakeService(map[string][]string{
		"JGAS000114": {"JGAD000220", "JGAD000410"},
	})
	store := NewFileStore(filepath.Join(t.TempDir(), "relation-cache.json"))

	svc, err := NewMemoizedService(context.Background(), fake, store, 0)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		ids, err := svc.GetDatasetsFromStudy(context.Background(), "JGAS000114")
		require.NoError(t, err)
		assert.Len(t, ids, 2)
	}

	assert.Equal(t, 1, fake.calls["JGAS000114"], "expected underlying service called once")
}

func TestMemoizedServiceFlushPersists(t *testing.T) {
	fake := newFakeService(map[string][]string{"JGAS000001": {"JGAD000001"}})
	path := filepath.Join(t.TempDir(), "relation-cache.json")
	store := NewFileStore(path)

	svc, err := NewMemoizedService(context.Background(), fake, store, 0)
	require.NoError(t, err)
	_, err = svc.GetDatasetsFromStudy(context.Background(), "JGAS000001")
	require.NoError(t, err)
	require.NoError(t, svc.Flush(context.Background()))

	reloaded, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, reloaded["JGAS000001"], 1, "expected persisted entry")
}

func TestMemoizedServicePopulatesFromExistingStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relation-cache.json")
	store := NewFileStore(path)
	require.NoError(t, store.Save(context.Background(), map[string][]string{"JGAS000002": {"JGAD000099"}}))

	fake := newFakeService(nil)
	svc, err := NewMemoizedService(context.Background(), fake, store, 0)
	require.NoError(t, err)

	ids, err := svc.GetDatasetsFromStudy(context.Background(), "JGAS000002")
	require.NoError(t, err)
	assert.Equal(t, []string{"JGAD000099"}, ids, "expected pre-populated entry")
	assert.Equal(t, 0, fake.calls["JGAS000002"], "expected underlying service not called for pre-populated entry")
}
