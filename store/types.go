package store

import "github.com/iov-one/ledger"

// Move references for all storage types into this package
// for shorter names everywhere

type (
	ReadOnlyKVStore  = ledger.ReadOnlyKVStore
	SetDeleter       = ledger.SetDeleter
	KVStore          = ledger.KVStore
	Batch            = ledger.Batch
	Iterator         = ledger.Iterator
	CacheableKVStore = ledger.CacheableKVStore
	KVCacheWrap      = ledger.KVCacheWrap
	CommitKVStore    = ledger.CommitKVStore
	CommitID         = ledger.CommitID
)

// Model is a key value pair read from a store.
type Model struct {
	Key   []byte
	Value []byte
}

// Pair constructs a model from a key and a value.
func Pair(key, value []byte) Model {
	return Model{Key: key, Value: value}
}
