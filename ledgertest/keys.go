package ledgertest

import (
	"context"

	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/crypto"
)

// NewKey returns a random ed25519 private key.
func NewKey() crypto.Signer {
	return crypto.GenEd25519()
}

// NewECDSAKey returns a random secp256k1 private key.
func NewECDSAKey() crypto.Signer {
	return crypto.GenSecp256k1()
}

// EVMAddress returns the address of given ECDSA signer.
func EVMAddress(s crypto.Signer) crypto.Alias {
	addr, err := s.PublicKey().EVMAddress()
	if err != nil {
		panic(err)
	}
	return crypto.Alias(addr)
}

// ChainID is the chain transactions signed by SignTx are valid on.
const ChainID = "test-chain"

// Context returns a context executing transactions on ChainID.
func Context() context.Context {
	return ledger.WithChainID(context.Background(), ChainID)
}

// SignTx signs the transaction for ChainID with all given keys, in order.
func SignTx(tx *ledger.Tx, signers ...crypto.Signer) *ledger.Tx {
	for _, s := range signers {
		if err := tx.Sign(ChainID, s); err != nil {
			panic(err)
		}
	}
	return tx
}
