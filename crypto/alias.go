package crypto

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/btcsuite/btcd/btcec"
	"github.com/iov-one/ledger/crypto/bech32"
	"github.com/iov-one/ledger/errors"
)

// Key aliases are the serialized key wrapped in a single field header, so
// that the key type can be read back from the alias itself.
var (
	ed25519AliasPrefix = []byte{0x12, 0x20}
	ecdsaAliasPrefix   = []byte{0x3a, 0x21}
)

// AliasHRP is the human readable part used when an alias is displayed.
const AliasHRP = "alias"

// AliasKind tells what an alias was derived from.
type AliasKind int

const (
	AliasInvalid AliasKind = iota
	AliasKey
	AliasEVMAddress
)

// Alias is a forwarding pointer to an account. It is either a serialized
// public key or a 20 byte EVM address.
type Alias []byte

// KeyAlias returns the alias derived from given key.
func KeyAlias(k *Key) Alias {
	var prefix []byte
	switch k.Type {
	case KeyED25519:
		prefix = ed25519AliasPrefix
	case KeyECDSASecp256k1:
		prefix = ecdsaAliasPrefix
	default:
		return nil
	}
	a := make([]byte, 0, len(prefix)+len(k.Bytes))
	a = append(a, prefix...)
	return append(a, k.Bytes...)
}

// Parse classifies the alias. For a key alias the decoded key is returned.
// An ECDSA key alias must hold a point on the curve.
//
// Any malformed alias fails with ErrInvalidAliasKey, whether the length or
// the content is wrong.
func (a Alias) Parse() (AliasKind, *Key, error) {
	switch {
	case len(a) == EVMAddressLen:
		return AliasEVMAddress, nil, nil
	case len(a) == len(ed25519AliasPrefix)+ed25519KeyLen && bytes.HasPrefix(a, ed25519AliasPrefix):
		raw := append([]byte(nil), a[len(ed25519AliasPrefix):]...)
		return AliasKey, &Key{Type: KeyED25519, Bytes: raw}, nil
	case len(a) == len(ecdsaAliasPrefix)+ecdsaKeyLen && bytes.HasPrefix(a, ecdsaAliasPrefix):
		raw := append([]byte(nil), a[len(ecdsaAliasPrefix):]...)
		if _, err := btcec.ParsePubKey(raw, btcec.S256()); err != nil {
			return AliasInvalid, nil, errors.Wrapf(errors.ErrInvalidAliasKey, "ecdsa key not recoverable: %s", err)
		}
		return AliasKey, &Key{Type: KeyECDSASecp256k1, Bytes: raw}, nil
	case len(a) == 0:
		return AliasInvalid, nil, errors.Wrap(errors.ErrInvalidAliasKey, "empty")
	default:
		return AliasInvalid, nil, errors.Wrapf(errors.ErrInvalidAliasKey, "unrecognized alias of %d bytes", len(a))
	}
}

func (a Alias) String() string {
	if len(a) == 0 {
		return ""
	}
	s, err := bech32.Encode(AliasHRP, a)
	if err != nil {
		return "0x" + hex.EncodeToString(a)
	}
	return s
}

// MarshalJSON encodes the alias in its bech32 form.
func (a Alias) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts either the bech32 form or 0x prefixed hex.
func (a *Alias) UnmarshalJSON(raw []byte) error {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return errors.Wrap(errors.ErrInvalidAliasKey, err.Error())
	}
	parsed, err := ParseAlias(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAlias decodes the textual representation of an alias.
func ParseAlias(s string) (Alias, error) {
	if s == "" {
		return nil, nil
	}
	if strings.HasPrefix(s, "0x") {
		b, err := hex.DecodeString(s[2:])
		if err != nil {
			return nil, errors.Wrap(errors.ErrInvalidAliasKey, "not hex")
		}
		return Alias(b), nil
	}
	hrp, b, err := bech32.Decode(s)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidAliasKey, err.Error())
	}
	if hrp != AliasHRP {
		return nil, errors.Wrapf(errors.ErrInvalidAliasKey, "unexpected prefix %q", hrp)
	}
	return Alias(b), nil
}
