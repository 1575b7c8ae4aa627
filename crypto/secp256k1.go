package crypto

import (
	"math/big"

	"github.com/btcsuite/btcd/btcec"
	"github.com/iov-one/ledger/errors"
)

const ecdsaSigLen = 64

// Secp256k1PrivateKey signs the keccak256 hash of a message.
type Secp256k1PrivateKey struct {
	key *btcec.PrivateKey
}

var _ Signer = (*Secp256k1PrivateKey)(nil)

// Sign returns a 64 byte r||s signature of the message hash.
func (p *Secp256k1PrivateKey) Sign(message []byte) ([]byte, error) {
	sig, err := p.key.Sign(Keccak256(message))
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidSignature, err.Error())
	}
	out := make([]byte, ecdsaSigLen)
	r, s := sig.R.Bytes(), sig.S.Bytes()
	copy(out[32-len(r):32], r)
	copy(out[64-len(s):], s)
	return out, nil
}

// PublicKey returns the compressed public key.
func (p *Secp256k1PrivateKey) PublicKey() *Key {
	return &Key{
		Type:  KeyECDSASecp256k1,
		Bytes: p.key.PubKey().SerializeCompressed(),
	}
}

// Serialize returns the 32 byte private scalar.
func (p *Secp256k1PrivateKey) Serialize() []byte {
	return p.key.Serialize()
}

// GenSecp256k1 returns a random new private key.
func GenSecp256k1() *Secp256k1PrivateKey {
	priv, err := btcec.NewPrivateKey(btcec.S256())
	if err != nil {
		panic(err)
	}
	return &Secp256k1PrivateKey{key: priv}
}

// Secp256k1FromBytes loads a private key from its 32 byte scalar.
func Secp256k1FromBytes(raw []byte) *Secp256k1PrivateKey {
	priv, _ := btcec.PrivKeyFromBytes(btcec.S256(), raw)
	return &Secp256k1PrivateKey{key: priv}
}

func verifySecp256k1(rawKey, message, sig []byte) bool {
	if len(sig) != ecdsaSigLen {
		return false
	}
	pub, err := btcec.ParsePubKey(rawKey, btcec.S256())
	if err != nil {
		return false
	}
	s := btcec.Signature{
		R: new(big.Int).SetBytes(sig[:32]),
		S: new(big.Int).SetBytes(sig[32:]),
	}
	return s.Verify(Keccak256(message), pub)
}
