package store

import (
	"github.com/iov-one/ledger/errors"
)

// Dump reads every key value pair of given store in ascending key order.
func Dump(db ReadOnlyKVStore) ([]Model, error) {
	it, err := db.Iterator(nil, nil)
	if err != nil {
		return nil, err
	}
	defer it.Release()

	var all []Model
	for {
		k, v, err := it.Next()
		if errors.ErrIteratorDone.Is(err) {
			return all, nil
		}
		if err != nil {
			return nil, err
		}
		all = append(all, Pair(k, v))
	}
}

// PrefixEnd returns the end of the key range that holds all keys starting
// with prefix. Nil is returned if there is no upper bound.
func PrefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
