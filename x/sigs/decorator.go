/*
Package sigs verifies the signatures of a transaction and makes the signing
keys available to the handlers down the stack.

Only the signatures of the transaction itself are visible. A batch
authorization key that signed the enclosing batch is not a signer of the
inner operations.
*/
package sigs

import (
	"context"

	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/crypto"
	"github.com/iov-one/ledger/errors"
)

// VerifyTxSignatures checks all signatures of the transaction, made for the
// chain with given id, and returns the keys that made them. A single invalid
// signature fails the whole transaction.
func VerifyTxSignatures(chainID string, tx *ledger.Tx) ([]*crypto.Key, error) {
	content, err := tx.SignBytes()
	if err != nil {
		return nil, err
	}
	bz := ledger.BuildSignBytes(content, chainID)
	signers := make([]*crypto.Key, 0, len(tx.Signatures))
	for i, sig := range tx.Signatures {
		if sig == nil {
			return nil, errors.Wrapf(errors.ErrInvalidSignature, "signature %d missing", i)
		}
		if err := sig.Key.Validate(); err != nil {
			return nil, errors.Wrapf(err, "signature %d", i)
		}
		if !sig.Verify(bz) {
			return nil, errors.Wrapf(errors.ErrInvalidSignature, "signature %d of %s", i, sig.Key)
		}
		key := sig.Key
		signers = append(signers, &key)
	}
	return signers, nil
}

// Verify checks the signatures of the transaction against the chain id of
// the context and returns a context carrying the keys that made them.
func Verify(ctx context.Context, tx *ledger.Tx) (context.Context, error) {
	signers, err := VerifyTxSignatures(ledger.GetChainID(ctx), tx)
	if err != nil {
		return ctx, err
	}
	return withSigners(ctx, signers), nil
}

// Decorator verifies the signatures and adds them to the context
type Decorator struct{}

var _ ledger.Decorator = Decorator{}

// NewDecorator returns a default authentication decorator.
func NewDecorator() Decorator {
	return Decorator{}
}

// Check verifies signatures before calling down the stack.
func (Decorator) Check(ctx context.Context, db ledger.ReadOnlyKVStore, tx *ledger.Tx, next ledger.Checker) (*ledger.CheckResult, error) {
	ctx, err := Verify(ctx, tx)
	if err != nil {
		return nil, err
	}
	return next.Check(ctx, db, tx)
}

// Deliver verifies signatures before calling down the stack.
func (Decorator) Deliver(ctx context.Context, db ledger.KVStore, tx *ledger.Tx, next ledger.Deliverer) (*ledger.DeliverResult, error) {
	ctx, err := Verify(ctx, tx)
	if err != nil {
		return nil, err
	}
	return next.Deliver(ctx, db, tx)
}
