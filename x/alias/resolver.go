/*
Package alias resolves alias bytes to accounts and creates accounts on the
first credit to an alias nobody owns yet.

A key alias creates a keyed account that keeps the alias. An EVM address
alias creates a hollow account: no key, no alias, no memo. The EVM address
stays resolvable through the alias index and the account receives its key
the first time it signs.
*/
package alias

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/crypto"
	"github.com/iov-one/ledger/errors"
	"github.com/iov-one/ledger/x/account"
)

// AutoCreatedMemo is the memo of an account created from a key alias.
const AutoCreatedMemo = "auto-created account"

// Resolver maps aliases to accounts.
//
// Only aliases of committed state are cached. Aliases created by a batch
// that is not committed yet are read from the store the batch runs against.
type Resolver struct {
	accounts *account.Bucket
	index    *account.AliasIndex
	cache    *lru.Cache[string, ledger.AccountID]
}

// NewResolver returns a resolver that caches up to cacheSize committed
// aliases.
func NewResolver(cacheSize int) (*Resolver, error) {
	cache, err := lru.New[string, ledger.AccountID](cacheSize)
	if err != nil {
		return nil, errors.Wrap(errors.ErrState, err.Error())
	}
	return &Resolver{
		accounts: account.NewBucket(),
		index:    account.NewAliasIndex(),
		cache:    cache,
	}, nil
}

// Resolve returns the account the alias points to. A malformed alias fails
// with ErrInvalidAliasKey.
func (r *Resolver) Resolve(db ledger.ReadOnlyKVStore, alias crypto.Alias) (ledger.AccountID, bool, error) {
	kind, key, err := alias.Parse()
	if err != nil {
		return 0, false, err
	}
	if id, ok, err := r.lookup(db, alias); err != nil || ok {
		return id, ok, err
	}
	// An ECDSA key is also reachable by its EVM address.
	if kind == crypto.AliasKey && key.Type == crypto.KeyECDSASecp256k1 {
		addr, err := key.EVMAddress()
		if err != nil {
			return 0, false, err
		}
		return r.lookup(db, crypto.Alias(addr))
	}
	return 0, false, nil
}

func (r *Resolver) lookup(db ledger.ReadOnlyKVStore, alias crypto.Alias) (ledger.AccountID, bool, error) {
	if id, ok := r.cache.Get(string(alias)); ok {
		return id, true, nil
	}
	return r.index.Lookup(db, alias)
}

// ResolveOrCreate returns the account the alias points to. If there is
// none, an account is created, provided that credit is positive. A zero or
// negative credit to an unknown alias fails with ErrInvalidAccountID.
//
// The returned flag is true if the account was created by this call.
func (r *Resolver) ResolveOrCreate(ctx context.Context, db ledger.KVStore, alias crypto.Alias, credit int64) (ledger.AccountID, bool, error) {
	switch id, ok, err := r.Resolve(db, alias); {
	case err != nil:
		return 0, false, err
	case ok:
		return id, false, nil
	}
	if credit <= 0 {
		return 0, false, errors.Wrapf(errors.ErrInvalidAccountID, "alias %s does not exist", alias)
	}
	id, err := r.create(ctx, db, alias)
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (r *Resolver) create(ctx context.Context, db ledger.KVStore, alias crypto.Alias) (ledger.AccountID, error) {
	kind, key, err := alias.Parse()
	if err != nil {
		return 0, err
	}
	conf, err := account.LoadConfiguration(db)
	if err != nil {
		return 0, err
	}

	acc := &account.Account{
		MaxAutoAssociations: account.UnlimitedAutoAssociations,
		AutoRenewPeriod:     conf.DefaultAutoRenewPeriod,
		Expiry:              account.Expiry(ctx, conf.DefaultAutoRenewPeriod),
	}
	var entries []crypto.Alias
	switch kind {
	case crypto.AliasKey:
		acc.Key = key
		acc.Alias = alias
		acc.Memo = AutoCreatedMemo
		entries = append(entries, alias)
		if key.Type == crypto.KeyECDSASecp256k1 {
			addr, err := key.EVMAddress()
			if err != nil {
				return 0, err
			}
			entries = append(entries, crypto.Alias(addr))
		}
	case crypto.AliasEVMAddress:
		// Hollow until the owner of the address signs.
		entries = append(entries, alias)
	}

	if err := r.accounts.Create(db, acc); err != nil {
		return 0, errors.Wrap(err, "create account")
	}
	clog := ledger.GetCreationLog(ctx)
	clog.Record(acc.ID)
	for _, a := range entries {
		if err := r.index.Assign(db, a, acc.ID); err != nil {
			return 0, err
		}
		clog.RecordAlias(a, acc.ID)
	}
	ledger.GetLogger(ctx).Debug("account created from alias",
		"account", acc.ID, "alias", alias, "hollow", acc.IsHollow())
	return acc.ID, nil
}

// Remember caches the aliases assigned by a committed batch.
func (r *Resolver) Remember(assignments []ledger.AliasAssignment) {
	for _, a := range assignments {
		r.cache.Add(string(a.Alias), a.Account)
	}
}

// Cached returns true if the alias is in the committed cache.
func (r *Resolver) Cached(alias crypto.Alias) bool {
	return r.cache.Contains(string(alias))
}
