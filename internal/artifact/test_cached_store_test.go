package artifact

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOriginStore struct {
	mu sync.Mutex

	data map[string][]byte

	getCalls  int
	putCalls  int
	listCalls int

	failPut bool
}

func newFakeOriginStore() *fakeOriginStore {
	return &fakeOriginStore{data: map[string][]byte{}}
}

func (s *fakeOriginStore) Put(_ context.Context, scope, path string, content []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putCalls++
	if s.failPut {
		return errors.New("put failed")
	}
	s.data[scope+"/"+path] = append([]byte(nil), content...)
	return nil
}

func (s *fakeOriginStore) Get(_ context.Context, scope, path string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls++
	raw, ok := s.data[scope+"/"+path]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), raw...), nil
}

func (s *fakeOriginStore) GetURL(_ context.Context, scope, path string) (string, error) {
	return "mem://" + scope + "/" + path, nil
}

func (s *fakeOriginStore) List(_ context.Context, scope string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	out := make([]string, 0, 8)
	prefix := scope + "/"
	for k := range s.data {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			out = append(out, k[len(prefix):])
		}
	}
	return out, nil
}

func TestCachedStoreReadThroughAndMetrics(t *testing.T) {
	origin := newFakeOriginStore()
	origin.data["r1/a.json"] = []byte("hello")
	store := NewCachedStore(origin, CacheConfig{MaxEntries: 8, TTL: time.Minute})
	ctx := context.Background()

	got, err := store.Get(ctx, "r1", "a.json")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))

	got, err = store.Get(ctx, "r1", "a.json")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))

	assert.Equal(t, 1, origin.getCalls)
	m := store.Metrics()
	assert.Equal(t, uint64(1), m.Hits)
	assert.Equal(t, uint64(1), m.Misses)
	assert.Equal(t, uint64(1), m.OriginReads)
}

func TestCachedStorePutPopulatesCache(t *testing.T) {
	origin := newFakeOriginStore()
	store := NewCachedStore(origin, CacheConfig{})
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "r1", "b.json", []byte("x")))
	got, err := store.Get(ctx, "r1", "b.json")
	require.NoError(t, err)
	assert.Equal(t, "x", string(got))
	assert.Equal(t, 0, origin.getCalls)
}

func TestCachedStorePutFailureIsNotCached(t *testing.T) {
	origin := newFakeOriginStore()
	origin.failPut = true
	store := NewCachedStore(origin, CacheConfig{})
	ctx := context.Background()

	require.Error(t, store.Put(ctx, "r1", "c.json", []byte("x")))
	_, err := store.Get(ctx, "r1", "c.json")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, uint64(1), store.Metrics().OriginWriteErr)
}

func TestCachedStoreReturnedBytesAreCopies(t *testing.T) {
	store := NewCachedStore(newFakeOriginStore(), CacheConfig{})
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "r1", "d.json", []byte("abc")))

	got, err := store.Get(ctx, "r1", "d.json")
	require.NoError(t, err)
	got[0] = 'z'

	again, err := store.Get(ctx, "r1", "d.json")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}

func TestCachedStoreListGoesToOrigin(t *testing.T) {
	origin := newFakeOriginStore()
	store := NewCachedStore(origin, CacheConfig{})
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "r1", "files/a.json", []byte("1")))

	paths, err := store.List(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, []string{"files/a.json"}, paths)
	assert.Equal(t, 1, origin.listCalls)
}
