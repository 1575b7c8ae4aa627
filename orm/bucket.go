package orm

import (
	"fmt"
	"regexp"

	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/codec"
	"github.com/iov-one/ledger/errors"
	"github.com/iov-one/ledger/store"
)

var isBucketName = regexp.MustCompile(`^[a-z_]{3,12}$`).MatchString

// Model is a persisted entity.
type Model interface {
	// Validate returns error if the object is not in a valid state to save
	// to the db (eg. field missing, out of range, ...)
	Validate() error
}

// ModelBucket stores models of a single type under a common prefix.
type ModelBucket struct {
	name   string
	prefix []byte
}

// NewModelBucket returns a bucket that keeps its models under the
// "<name>:" prefix. It panics if the name is not a valid bucket name.
func NewModelBucket(name string) ModelBucket {
	if !isBucketName(name) {
		panic(fmt.Sprintf("illegal bucket: %s", name))
	}
	return ModelBucket{
		name:   name,
		prefix: append([]byte(name), ':'),
	}
}

// Name returns the bucket name.
func (b ModelBucket) Name() string {
	return b.name
}

// DBKey is the full key used in the store.
func (b ModelBucket) DBKey(key []byte) []byte {
	return append(append([]byte(nil), b.prefix...), key...)
}

// One loads the model stored under given key into dest. ErrNotFound is
// returned if there is no such model.
func (b ModelBucket) One(db ledger.ReadOnlyKVStore, key []byte, dest Model) error {
	raw, err := db.Get(b.DBKey(key))
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	if raw == nil {
		return errors.Wrapf(errors.ErrNotFound, "%s %X", b.name, key)
	}
	if err := codec.Unmarshal(raw, dest); err != nil {
		return errors.Wrapf(err, "decode %s", b.name)
	}
	return nil
}

// Has returns true if a model is stored under given key.
func (b ModelBucket) Has(db ledger.ReadOnlyKVStore, key []byte) (bool, error) {
	ok, err := db.Has(b.DBKey(key))
	if err != nil {
		return false, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return ok, nil
}

// Put validates and stores the model under given key, overwriting any
// previous value.
func (b ModelBucket) Put(db ledger.KVStore, key []byte, m Model) error {
	if len(key) == 0 {
		return errors.Wrapf(errors.ErrDatabase, "%s: empty key", b.name)
	}
	if err := m.Validate(); err != nil {
		return errors.Wrapf(err, "invalid %s", b.name)
	}
	raw, err := codec.Marshal(m)
	if err != nil {
		return errors.Wrapf(err, "encode %s", b.name)
	}
	if raw == nil {
		// A zero value model encodes to nothing. Stores treat nil as absent.
		raw = []byte{}
	}
	if err := db.Set(b.DBKey(key), raw); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// Create is like Put but fails with ErrDuplicate if the key is taken.
func (b ModelBucket) Create(db ledger.KVStore, key []byte, m Model) error {
	switch ok, err := b.Has(db, key); {
	case err != nil:
		return err
	case ok:
		return errors.Wrapf(errors.ErrDuplicate, "%s %X", b.name, key)
	}
	return b.Put(db, key, m)
}

// Delete removes the model stored under given key. Deleting a missing model
// is not an error.
func (b ModelBucket) Delete(db ledger.KVStore, key []byte) error {
	if err := db.Delete(b.DBKey(key)); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// Keys returns all keys of this bucket starting with given prefix, without
// the bucket prefix, in ascending order. A nil prefix returns all keys.
func (b ModelBucket) Keys(db ledger.ReadOnlyKVStore, prefix []byte) ([][]byte, error) {
	start := b.DBKey(prefix)
	it, err := db.Iterator(start, store.PrefixEnd(start))
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	defer it.Release()

	var keys [][]byte
	for {
		k, _, err := it.Next()
		if errors.ErrIteratorDone.Is(err) {
			return keys, nil
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrDatabase, err.Error())
		}
		keys = append(keys, k[len(b.prefix):])
	}
}
