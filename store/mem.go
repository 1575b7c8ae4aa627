package store

import (
	"github.com/google/btree"
	"github.com/iov-one/ledger/errors"
)

// memStore keeps all data in a btree. There is no persistence here.
type memStore struct {
	bt *btree.BTree
}

// MemStore returns an in-memory store. Use it in tests or for a node that
// does not need to keep its state between restarts.
func MemStore() CacheableKVStore {
	return BTreeCacheable{&memStore{bt: btree.New(2)}}
}

func (m *memStore) Get(key []byte) ([]byte, error) {
	if s, ok := m.bt.Get(bkey{key}).(setItem); ok {
		return s.value, nil
	}
	return nil, nil
}

func (m *memStore) Has(key []byte) (bool, error) {
	return m.bt.Has(bkey{key}), nil
}

func (m *memStore) Set(key, value []byte) error {
	if key == nil {
		return errors.Wrap(errors.ErrDatabase, "nil key")
	}
	m.bt.ReplaceOrInsert(setItem{bkey{key}, value})
	return nil
}

func (m *memStore) Delete(key []byte) error {
	m.bt.Delete(bkey{key})
	return nil
}

func (m *memStore) Iterator(start, end []byte) (Iterator, error) {
	return m.iterate(start, end, false), nil
}

func (m *memStore) ReverseIterator(start, end []byte) (Iterator, error) {
	return m.iterate(start, end, true), nil
}

func (m *memStore) iterate(start, end []byte, reverse bool) Iterator {
	items := collect(m.bt, start, end, reverse)
	models := make([]Model, len(items))
	for i, it := range items {
		s := it.(setItem)
		models[i] = Pair(s.key, s.value)
	}
	return NewSliceIterator(models)
}

func (m *memStore) NewBatch() Batch {
	return NewNonAtomicBatch(m)
}

// EmptyKVStore never holds any data, used as a base layer to test caching
type EmptyKVStore struct{}

var _ KVStore = EmptyKVStore{}

func (EmptyKVStore) Get(key []byte) ([]byte, error) { return nil, nil }
func (EmptyKVStore) Has(key []byte) (bool, error)   { return false, nil }
func (EmptyKVStore) Set(key, value []byte) error    { return nil }
func (EmptyKVStore) Delete(key []byte) error        { return nil }
func (EmptyKVStore) Iterator(start, end []byte) (Iterator, error) {
	return NewSliceIterator(nil), nil
}
func (EmptyKVStore) ReverseIterator(start, end []byte) (Iterator, error) {
	return NewSliceIterator(nil), nil
}
func (e EmptyKVStore) NewBatch() Batch { return NewNonAtomicBatch(e) }
