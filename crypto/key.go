package crypto

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/btcec"
	"github.com/iov-one/ledger/errors"
	"golang.org/x/crypto/ed25519"
	"golang.org/x/crypto/sha3"
)

// KeyType tells how the bytes of a Key must be interpreted.
type KeyType int32

const (
	KeyED25519        KeyType = 1
	KeyECDSASecp256k1 KeyType = 2
)

func (t KeyType) String() string {
	switch t {
	case KeyED25519:
		return "ed25519"
	case KeyECDSASecp256k1:
		return "ecdsa_secp256k1"
	default:
		return fmt.Sprintf("KeyType(%d)", int32(t))
	}
}

const (
	ed25519KeyLen = ed25519.PublicKeySize
	ecdsaKeyLen   = 33
	// EVMAddressLen is the length of an address derived from an ECDSA key.
	EVMAddressLen = 20
)

// Key is a public key. ECDSA keys are always kept in their compressed form.
type Key struct {
	Type  KeyType `json:"type"`
	Bytes []byte  `json:"bytes"`
}

// Validate returns an error if this key cannot be used to verify signatures.
func (k *Key) Validate() error {
	if k == nil {
		return errors.Wrap(errors.ErrInvalidSignature, "missing key")
	}
	switch k.Type {
	case KeyED25519:
		if len(k.Bytes) != ed25519KeyLen {
			return errors.Wrapf(errors.ErrInvalidSignature, "ed25519 key must be %d bytes", ed25519KeyLen)
		}
		return nil
	case KeyECDSASecp256k1:
		if len(k.Bytes) != ecdsaKeyLen {
			return errors.Wrapf(errors.ErrInvalidSignature, "ecdsa key must be %d bytes", ecdsaKeyLen)
		}
		if _, err := btcec.ParsePubKey(k.Bytes, btcec.S256()); err != nil {
			return errors.Wrapf(errors.ErrInvalidSignature, "ecdsa key: %s", err)
		}
		return nil
	default:
		return errors.Wrapf(errors.ErrInvalidSignature, "unsupported key type %d", k.Type)
	}
}

// Equals returns true if both keys are of the same type and hold the same
// bytes. Two nil keys are equal.
func (k *Key) Equals(other *Key) bool {
	if k == nil || other == nil {
		return k == other
	}
	return k.Type == other.Type && bytes.Equal(k.Bytes, other.Bytes)
}

// Verify returns true if sig is a valid signature of message made with the
// private counterpart of this key.
func (k *Key) Verify(message, sig []byte) bool {
	if k == nil {
		return false
	}
	switch k.Type {
	case KeyED25519:
		if len(k.Bytes) != ed25519KeyLen || len(sig) != ed25519.SignatureSize {
			return false
		}
		return ed25519.Verify(ed25519.PublicKey(k.Bytes), message, sig)
	case KeyECDSASecp256k1:
		return verifySecp256k1(k.Bytes, message, sig)
	default:
		return false
	}
}

// EVMAddress returns the 20 byte address derived from an ECDSA key.
func (k *Key) EVMAddress() ([]byte, error) {
	if k == nil || k.Type != KeyECDSASecp256k1 {
		return nil, errors.Wrap(errors.ErrType, "only ecdsa keys map to an evm address")
	}
	pub, err := btcec.ParsePubKey(k.Bytes, btcec.S256())
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidAliasKey, "ecdsa key: %s", err)
	}
	return evmAddress(pub), nil
}

func evmAddress(pub *btcec.PublicKey) []byte {
	// The uncompressed form is prefixed with 0x04.
	raw := pub.SerializeUncompressed()[1:]
	return Keccak256(raw)[32-EVMAddressLen:]
}

// Keccak256 returns the legacy keccak hash used by the EVM.
func Keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	return h.Sum(nil)
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%X", k.Type, k.Bytes)
}

// Signature binds signature bytes to the key that produced them.
type Signature struct {
	Key Key    `json:"key"`
	Sig []byte `json:"sig"`
}

// Verify returns true if this signature was made over message.
func (s *Signature) Verify(message []byte) bool {
	if s == nil {
		return false
	}
	return s.Key.Verify(message, s.Sig)
}

// Signer is the functionality we use from a private key.
type Signer interface {
	Sign(message []byte) ([]byte, error)
	PublicKey() *Key
}

// Sign creates a signature of message bound to the signer's key.
func Sign(s Signer, message []byte) (*Signature, error) {
	sig, err := s.Sign(message)
	if err != nil {
		return nil, err
	}
	return &Signature{Key: *s.PublicKey(), Sig: sig}, nil
}
