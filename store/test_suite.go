package store

import (
	"testing"

	"github.com/iov-one/ledger/ledgertest/assert"
)

// TestSuite provides checks that can be run against any store
// implementation. Only the store constructor is implementation specific.
type TestSuite struct {
	makeBase TestStoreConstructor
}

// TestStoreConstructor returns a fresh store and a function that releases
// it.
type TestStoreConstructor func() (base CacheableKVStore, cleanup func())

// NewTestSuite returns a suite running checks against stores created with
// given constructor.
func NewTestSuite(constructor TestStoreConstructor) *TestSuite {
	return &TestSuite{makeBase: constructor}
}

// GetSet does basic sanity checks on the cache layered on top of a store.
func (s *TestSuite) GetSet(t *testing.T) {
	base, cleanup := s.makeBase()
	defer cleanup()

	k, v := []byte("french"), []byte("fry")
	s.AssertGetHas(t, base, k, nil, false)
	assert.Nil(t, base.Set(k, v))
	s.AssertGetHas(t, base, k, v, true)

	// writing more data is only visible in the cache
	cache := base.CacheWrap()
	k2, v2 := []byte("LA"), []byte("Dodgers")
	assert.Nil(t, cache.Set(k2, v2))
	s.AssertGetHas(t, cache, k, v, true)
	s.AssertGetHas(t, cache, k2, v2, true)
	s.AssertGetHas(t, base, k2, nil, false)

	assert.Nil(t, cache.Write())
	s.AssertGetHas(t, base, k2, v2, true)

	// a discarded cache leaves no trace
	k3, v3 := []byte("Bayern"), []byte("Munich")
	c2 := base.CacheWrap()
	assert.Nil(t, c2.Set(k3, v3))
	assert.Nil(t, c2.Delete(k))
	c2.Discard()
	s.AssertGetHas(t, base, k, v, true)
	s.AssertGetHas(t, base, k3, nil, false)

	// deletes are written as well
	c3 := base.CacheWrap()
	assert.Nil(t, c3.Delete(k))
	s.AssertGetHas(t, c3, k, nil, false)
	assert.Nil(t, c3.Write())
	s.AssertGetHas(t, base, k, nil, false)
	s.AssertGetHas(t, base, k2, v2, true)
}

// NestedCache checks that a cache layered on a cache is written only to
// its direct parent.
func (s *TestSuite) NestedCache(t *testing.T) {
	base, cleanup := s.makeBase()
	defer cleanup()

	outer := base.CacheWrap()
	inner := outer.CacheWrap()
	assert.Nil(t, inner.Set([]byte("a"), []byte("1")))
	assert.Nil(t, inner.Write())

	s.AssertGetHas(t, outer, []byte("a"), []byte("1"), true)
	s.AssertGetHas(t, base, []byte("a"), nil, false)

	outer.Discard()
	s.AssertGetHas(t, base, []byte("a"), nil, false)
}

// Iterate checks that iterators merge the cache with its parent, in both
// directions, honoring deletes and overwrites.
func (s *TestSuite) Iterate(t *testing.T) {
	base, cleanup := s.makeBase()
	defer cleanup()

	for _, k := range []string{"a", "c", "e", "g"} {
		assert.Nil(t, base.Set([]byte(k), []byte("base-"+k)))
	}
	cache := base.CacheWrap()
	assert.Nil(t, cache.Set([]byte("b"), []byte("cache-b")))
	assert.Nil(t, cache.Set([]byte("c"), []byte("cache-c")))
	assert.Nil(t, cache.Delete([]byte("e")))
	assert.Nil(t, cache.Set([]byte("h"), []byte("cache-h")))

	all, err := Dump(cache)
	assert.Nil(t, err)
	assert.Equal(t, []Model{
		Pair([]byte("a"), []byte("base-a")),
		Pair([]byte("b"), []byte("cache-b")),
		Pair([]byte("c"), []byte("cache-c")),
		Pair([]byte("g"), []byte("base-g")),
		Pair([]byte("h"), []byte("cache-h")),
	}, all)

	it, err := cache.ReverseIterator([]byte("b"), []byte("h"))
	assert.Nil(t, err)
	defer it.Release()
	var keys []string
	for {
		k, _, err := it.Next()
		if err != nil {
			break
		}
		keys = append(keys, string(k))
	}
	assert.Equal(t, []string{"g", "c", "b"}, keys)
}

// AssertGetHas makes sure that this key returns the expected value, and
// Has matches the exists flag.
func (s *TestSuite) AssertGetHas(t testing.TB, kv ReadOnlyKVStore, key, val []byte, has bool) {
	t.Helper()
	got, err := kv.Get(key)
	assert.Nil(t, err)
	assert.Equal(t, val, got)
	exists, err := kv.Has(key)
	assert.Nil(t, err)
	assert.Equal(t, has, exists)
}
