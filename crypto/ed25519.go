package crypto

import (
	"golang.org/x/crypto/ed25519"
)

// Ed25519PrivateKey signs with an ed25519 private key.
type Ed25519PrivateKey struct {
	key ed25519.PrivateKey
}

var _ Signer = (*Ed25519PrivateKey)(nil)

// Sign returns a matching signature for this private key
func (p *Ed25519PrivateKey) Sign(message []byte) ([]byte, error) {
	return ed25519.Sign(p.key, message), nil
}

// PublicKey returns the corresponding public key.
func (p *Ed25519PrivateKey) PublicKey() *Key {
	pub := p.key.Public().(ed25519.PublicKey)
	return &Key{Type: KeyED25519, Bytes: []byte(pub)}
}

// Seed returns the 32 byte seed this key was derived from.
func (p *Ed25519PrivateKey) Seed() []byte {
	return p.key.Seed()
}

// GenEd25519 returns a random new private key.
func GenEd25519() *Ed25519PrivateKey {
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		panic(err)
	}
	return &Ed25519PrivateKey{key: priv}
}

// Ed25519FromSeed will deterministically generate a private key from a given
// seed. Use if you have a strong source of external randomness, or for
// deterministic keys in test cases.
func Ed25519FromSeed(seed []byte) *Ed25519PrivateKey {
	return &Ed25519PrivateKey{key: ed25519.NewKeyFromSeed(seed)}
}
