/*
Package x contains the interfaces shared by all extensions.

Extensions live in the subpackages. Each of them owns a part of the state,
registers the message kinds it handles and exposes handlers for them.
*/
package x

import (
	"context"

	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/crypto"
)

// Authenticator is an interface we can use to extract authentication info
// from the context. This should be passed into the constructor of
// handlers, so we can plug in another authentication system,
// rather than hard-coding x/sigs for all extensions.
type Authenticator interface {
	// HasKey returns true if the current transaction carries a valid
	// signature made with given key.
	HasKey(ctx context.Context, key *crypto.Key) bool

	// RequireSigner returns an error unless the account authorized the
	// current transaction. A hollow account is finalized with the key that
	// signed for it.
	RequireSigner(ctx context.Context, db ledger.KVStore, id ledger.AccountID) error
}

// RequireAll returns the first authorization failure for given accounts.
func RequireAll(ctx context.Context, db ledger.KVStore, auth Authenticator, ids ...ledger.AccountID) error {
	for _, id := range ids {
		if err := auth.RequireSigner(ctx, db, id); err != nil {
			return err
		}
	}
	return nil
}
