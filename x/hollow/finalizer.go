/*
Package hollow authorizes required signers and finalizes hollow accounts.

A hollow account has no key. It was created by a credit to an EVM address
alias and the only thing known about its owner is that address. The first
time such an account must sign, the ECDSA key whose address maps to the
account in the alias index becomes the account key.
*/
package hollow

import (
	"context"

	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/crypto"
	"github.com/iov-one/ledger/errors"
	"github.com/iov-one/ledger/x"
	"github.com/iov-one/ledger/x/account"
	"github.com/iov-one/ledger/x/sigs"
)

// Finalizer is the Authenticator used by all handlers. It accepts the
// signature of a keyed account key and finalizes hollow accounts on the
// first valid signature of their owner.
type Finalizer struct {
	accounts *account.Bucket
	index    *account.AliasIndex
}

var _ x.Authenticator = (*Finalizer)(nil)

// NewFinalizer returns a finalizer reading signers from x/sigs.
func NewFinalizer() *Finalizer {
	return &Finalizer{
		accounts: account.NewBucket(),
		index:    account.NewAliasIndex(),
	}
}

// HasKey returns true if the key signed the current transaction.
func (f *Finalizer) HasKey(ctx context.Context, key *crypto.Key) bool {
	return sigs.HasKey(ctx, key)
}

// RequireSigner returns nil if the account authorized the current
// transaction. A hollow account is finalized with the signer whose EVM
// address is bound to it.
func (f *Finalizer) RequireSigner(ctx context.Context, db ledger.KVStore, id ledger.AccountID) error {
	acc, err := f.accounts.Active(db, id)
	if err != nil {
		return err
	}
	if !acc.IsHollow() {
		if sigs.HasKey(ctx, acc.Key) {
			return nil
		}
		return errors.Wrapf(errors.ErrInvalidSignature, "account %s", id)
	}
	key, err := f.ownerKey(ctx, db, id)
	if err != nil {
		return err
	}
	return f.Finalize(ctx, db, id, key)
}

// ownerKey returns the signer whose EVM address resolves to the account.
func (f *Finalizer) ownerKey(ctx context.Context, db ledger.ReadOnlyKVStore, id ledger.AccountID) (*crypto.Key, error) {
	for _, k := range sigs.Signers(ctx) {
		if k.Type != crypto.KeyECDSASecp256k1 {
			continue
		}
		addr, err := k.EVMAddress()
		if err != nil {
			continue
		}
		owner, ok, err := f.index.Lookup(db, crypto.Alias(addr))
		if err != nil {
			return nil, err
		}
		if ok && owner == id {
			return k, nil
		}
	}
	return nil, errors.Wrapf(errors.ErrInvalidSignature, "no signature of hollow account %s", id)
}

// Finalize sets the key of a hollow account. The key must be the ECDSA key
// of the EVM address the account was created from. An account created by
// the running batch cannot be finalized before the batch is committed.
//
// Nothing but the key changes.
func (f *Finalizer) Finalize(ctx context.Context, db ledger.KVStore, id ledger.AccountID, key *crypto.Key) error {
	acc, err := f.accounts.Active(db, id)
	if err != nil {
		return err
	}
	if !acc.IsHollow() {
		return errors.Wrapf(errors.ErrState, "account %s is not hollow", id)
	}
	if key == nil || key.Type != crypto.KeyECDSASecp256k1 {
		return errors.Wrap(errors.ErrInvalidSignature, "hollow account requires an ecdsa key")
	}
	addr, err := key.EVMAddress()
	if err != nil {
		return errors.Wrap(errors.ErrInvalidSignature, err.Error())
	}
	switch owner, ok, err := f.index.Lookup(db, crypto.Alias(addr)); {
	case err != nil:
		return err
	case !ok || owner != id:
		return errors.Wrapf(errors.ErrInvalidSignature, "key does not own account %s", id)
	}
	if ledger.GetCreationLog(ctx).Created(id) {
		return errors.Wrapf(errors.ErrHollowInCreatingBatch, "account %s", id)
	}

	acc.Key = key
	if err := f.accounts.Save(db, acc); err != nil {
		return errors.Wrap(err, "save finalized account")
	}
	ledger.GetLogger(ctx).Info("hollow account finalized", "account", id)
	return nil
}
