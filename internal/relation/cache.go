package relation

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"

	"github.com/dbcls/humandbs-sub002/internal/domain"
)

// Store is the persisted backing for the relation cache. spec.md §6 names
// "a plain JSON map" as the canonical shape; FileStore implements that.
// RedisStore is an optional second tier (SPEC_FULL.md domain-stack wiring
// for github.com/redis/go-redis/v9) selected via config, mirroring the
// teacher's pkg/external/cache.go Redis-backed cache.
type Store interface {
	Load(ctx context.Context) (map[string][]string, error)
	// Save persists the full map. Called once at stage teardown by the
	// single writer (spec.md §5).
	Save(ctx context.Context, data map[string][]string) error
}

// FileStore persists the relation cache as one JSON object on disk.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore rooted at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the persisted map, returning an empty map if the file is absent.
func (s *FileStore) Load(ctx context.Context) (map[string][]string, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string][]string{}, nil
		}
		return nil, domain.NewPipelineError(domain.ErrRelationService, "reading relation cache file", err)
	}
	var data map[string][]string
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, domain.NewPipelineError(domain.ErrRelationService, "parsing relation cache file", err)
	}
	return data, nil
}

// Save atomically writes data via temp-file + rename (spec.md §5).
func (s *FileStore) Save(ctx context.Context, data map[string][]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return domain.NewPipelineError(domain.ErrRelationService, "creating relation cache dir", err)
	}
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return domain.NewPipelineError(domain.ErrRelationService, "marshaling relation cache", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), "relation-cache-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, s.path)
}

// RedisStore persists the relation cache as a single Redis hash.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore creates a RedisStore using the given Redis URL.
func NewRedisStore(redisURL, key string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, domain.NewPipelineError(domain.ErrConfig, "parsing relation redis url", err)
	}
	return &RedisStore{client: redis.NewClient(opts), key: key}, nil
}

// Load reads every field of the backing hash into the in-memory map.
func (s *RedisStore) Load(ctx context.Context) (map[string][]string, error) {
	raw, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, domain.NewPipelineError(domain.ErrRelationService, "loading relation cache from redis", err)
	}
	data := make(map[string][]string, len(raw))
	for k, v := range raw {
		var ids []string
		if err := json.Unmarshal([]byte(v), &ids); err != nil {
			return nil, domain.NewPipelineError(domain.ErrRelationService, fmt.Sprintf("decoding redis entry %s", k), err)
		}
		data[k] = ids
	}
	return data, nil
}

// Save overwrites the backing hash with data.
func (s *RedisStore) Save(ctx context.Context, data map[string][]string) error {
	if len(data) == 0 {
		return nil
	}
	fields := make(map[string]interface{}, len(data))
	for k, v := range data {
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		fields[k] = b
	}
	if err := s.client.HSet(ctx, s.key, fields).Err(); err != nil {
		return domain.NewPipelineError(domain.ErrRelationService, "saving relation cache to redis", err)
	}
	return nil
}

// MemoizedService wraps an underlying Service with a read-mostly LRU cache
// fronting a persisted Store, per spec.md §4.3.5/§9: reads are lock-free
// after the initial populate; writes take a single writer lock and are
// flushed to the Store at stage teardown via Flush.
type MemoizedService struct {
	inner Service
	store Store
	lru   *lru.Cache[string, []string]

	mu      sync.Mutex
	pending map[string][]string
	dirty   bool
}

// NewMemoizedService populates the LRU from store and wraps inner.
func NewMemoizedService(ctx context.Context, inner Service, store Store, lruSize int) (*MemoizedService, error) {
	if lruSize <= 0 {
		lruSize = 2048
	}
	cache, err := lru.New[string, []string](lruSize)
	if err != nil {
		return nil, err
	}

	data, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	for k, v := range data {
		cache.Add(k, v)
	}

	return &MemoizedService{
		inner:   inner,
		store:   store,
		lru:     cache,
		pending: make(map[string][]string),
	}, nil
}

// GetDatasetsFromStudy returns the memoized expansion of jgasID, calling the
// underlying service only on a cache miss.
func (m *MemoizedService) GetDatasetsFromStudy(ctx context.Context, jgasID string) ([]string, error) {
	if v, ok := m.lru.Get(jgasID); ok {
		return v, nil
	}

	ids, err := m.inner.GetDatasetsFromStudy(ctx, jgasID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.lru.Add(jgasID, ids)
	m.pending[jgasID] = ids
	m.dirty = true
	m.mu.Unlock()

	return ids, nil
}

// Flush persists any newly-learned entries to the backing Store. Intended
// to be called once at stage teardown by a single writer.
func (m *MemoizedService) Flush(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.dirty {
		return nil
	}

	full, err := m.store.Load(ctx)
	if err != nil {
		return err
	}
	if full == nil {
		full = map[string][]string{}
	}
	for k, v := range m.pending {
		full[k] = v
	}
	if err := m.store.Save(ctx, full); err != nil {
		return err
	}
	m.pending = make(map[string][]string)
	m.dirty = false
	return nil
}
