package ledgertest

import (
	"context"

	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/crypto"
	"github.com/iov-one/ledger/errors"
	"github.com/iov-one/ledger/x"
)

// Auth is an authenticator that trusts a fixed set of keys and accounts.
type Auth struct {
	// Keys are reported as signers of the transaction.
	Keys []*crypto.Key
	// Accounts authorized the transaction.
	Accounts []ledger.AccountID
}

var _ x.Authenticator = (*Auth)(nil)

func (a *Auth) HasKey(ctx context.Context, key *crypto.Key) bool {
	for _, k := range a.Keys {
		if k.Equals(key) {
			return true
		}
	}
	return false
}

func (a *Auth) RequireSigner(ctx context.Context, db ledger.KVStore, id ledger.AccountID) error {
	for _, acc := range a.Accounts {
		if acc == id {
			return nil
		}
	}
	return errors.Wrapf(errors.ErrInvalidSignature, "account %s", id)
}
