package sigs

import (
	"context"

	"github.com/iov-one/ledger/crypto"
)

type contextKey int // local to the sigs module

const (
	contextKeySigners contextKey = iota
)

// withSigners is a private method, as only this module
// can add a signer
func withSigners(ctx context.Context, signers []*crypto.Key) context.Context {
	return context.WithValue(ctx, contextKeySigners, signers)
}

// Signers returns the keys that produced valid signatures of the current
// transaction. May be empty.
func Signers(ctx context.Context) []*crypto.Key {
	val, _ := ctx.Value(contextKeySigners).([]*crypto.Key)
	return val
}

// HasKey returns true if given key signed the current transaction.
func HasKey(ctx context.Context, key *crypto.Key) bool {
	if key == nil {
		return false
	}
	for _, s := range Signers(ctx) {
		if s.Equals(key) {
			return true
		}
	}
	return false
}
