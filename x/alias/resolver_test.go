package alias

import (
	"context"
	"testing"

	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/crypto"
	"github.com/iov-one/ledger/errors"
	"github.com/iov-one/ledger/ledgertest"
	"github.com/iov-one/ledger/ledgertest/assert"
	"github.com/iov-one/ledger/store"
	"github.com/iov-one/ledger/x/account"
	"github.com/stretchr/testify/require"
)

func newResolver(t testing.TB) *Resolver {
	t.Helper()
	r, err := NewResolver(16)
	require.NoError(t, err)
	return r
}

func newStore(t testing.TB) ledger.CacheableKVStore {
	t.Helper()
	db := store.MemStore()
	assert.Nil(t, account.NewBucket().Reserve(db, 1000))
	return db
}

func TestResolveOrCreateKeyAlias(t *testing.T) {
	key := ledgertest.NewKey().PublicKey()
	alias := crypto.KeyAlias(key)

	r := newResolver(t)
	db := newStore(t)
	clog := ledger.NewCreationLog()
	ctx := ledger.WithCreationLog(context.Background(), clog)

	id, created, err := r.ResolveOrCreate(ctx, db, alias, 10)
	require.NoError(t, err)
	assert.Equal(t, true, created)
	assert.Equal(t, ledger.AccountID(1001), id)

	acc, err := account.NewBucket().Get(db, id)
	require.NoError(t, err)
	assert.Equal(t, true, acc.Key.Equals(key))
	assert.Equal(t, alias, acc.Alias)
	assert.Equal(t, AutoCreatedMemo, acc.Memo)
	assert.Equal(t, int32(account.UnlimitedAutoAssociations), acc.MaxAutoAssociations)
	assert.Equal(t, int64(0), acc.Balance)
	assert.Equal(t, false, acc.IsHollow())

	// Resolving again reuses the account.
	again, created, err := r.ResolveOrCreate(ctx, db, alias, 10)
	require.NoError(t, err)
	assert.Equal(t, false, created)
	assert.Equal(t, id, again)
	assert.Equal(t, []ledger.AccountID{id}, clog.All())
}

func TestResolveOrCreateEVMAddress(t *testing.T) {
	signer := ledgertest.NewECDSAKey()
	addr := ledgertest.EVMAddress(signer)

	r := newResolver(t)
	db := newStore(t)
	ctx := context.Background()

	id, created, err := r.ResolveOrCreate(ctx, db, addr, 1)
	require.NoError(t, err)
	assert.Equal(t, true, created)

	acc, err := account.NewBucket().Get(db, id)
	require.NoError(t, err)
	assert.Equal(t, true, acc.IsHollow())
	assert.Nil(t, acc.Key)
	assert.Equal(t, 0, len(acc.Alias))
	assert.Equal(t, "", acc.Memo)
	assert.Equal(t, int32(account.UnlimitedAutoAssociations), acc.MaxAutoAssociations)

	// The key alias of the same secp256k1 key finds the hollow account.
	got, ok, err := r.Resolve(db, crypto.KeyAlias(signer.PublicKey()))
	require.NoError(t, err)
	assert.Equal(t, true, ok)
	assert.Equal(t, id, got)
}

func TestECDSAKeyAliasIndexesEVMAddress(t *testing.T) {
	signer := ledgertest.NewECDSAKey()

	r := newResolver(t)
	db := newStore(t)
	id, _, err := r.ResolveOrCreate(context.Background(), db, crypto.KeyAlias(signer.PublicKey()), 5)
	require.NoError(t, err)

	got, ok, err := r.Resolve(db, ledgertest.EVMAddress(signer))
	require.NoError(t, err)
	assert.Equal(t, true, ok)
	assert.Equal(t, id, got)
}

func TestResolveOrCreateFailures(t *testing.T) {
	cases := map[string]struct {
		alias   crypto.Alias
		credit  int64
		wantErr *errors.Error
	}{
		"zero credit": {
			alias:   crypto.KeyAlias(ledgertest.NewKey().PublicKey()),
			credit:  0,
			wantErr: errors.ErrInvalidAccountID,
		},
		"debit": {
			alias:   ledgertest.EVMAddress(ledgertest.NewECDSAKey()),
			credit:  -3,
			wantErr: errors.ErrInvalidAccountID,
		},
		"malformed": {
			alias:   crypto.Alias([]byte{1, 2, 3}),
			credit:  10,
			wantErr: errors.ErrInvalidAliasKey,
		},
		"empty": {
			alias:   crypto.Alias(nil),
			credit:  10,
			wantErr: errors.ErrInvalidAliasKey,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			r := newResolver(t)
			db := newStore(t)
			clog := ledger.NewCreationLog()
			ctx := ledger.WithCreationLog(context.Background(), clog)

			_, created, err := r.ResolveOrCreate(ctx, db, tc.alias, tc.credit)
			assert.IsErr(t, tc.wantErr, err)
			assert.Equal(t, false, created)
			assert.Equal(t, 0, len(clog.All()))

			_, err = account.NewBucket().Get(db, 1001)
			assert.IsErr(t, errors.ErrNotFound, err)
		})
	}
}

func TestCommittedCache(t *testing.T) {
	r := newResolver(t)
	db := newStore(t)
	clog := ledger.NewCreationLog()
	ctx := ledger.WithCreationLog(context.Background(), clog)

	alias := crypto.KeyAlias(ledgertest.NewKey().PublicKey())
	cache := db.CacheWrap()
	id, _, err := r.ResolveOrCreate(ctx, cache, alias, 1)
	require.NoError(t, err)

	// Not committed yet.
	assert.Equal(t, false, r.Cached(alias))
	_, ok, err := r.Resolve(db, alias)
	require.NoError(t, err)
	assert.Equal(t, false, ok)

	require.NoError(t, cache.Write())
	r.Remember(clog.Aliases())
	assert.Equal(t, true, r.Cached(alias))

	// Served from the cache even when the store does not know it.
	got, ok, err := r.Resolve(store.MemStore(), alias)
	require.NoError(t, err)
	assert.Equal(t, true, ok)
	assert.Equal(t, id, got)
}
