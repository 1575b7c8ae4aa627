// Package bech32 is a thin layer over the btcutil implementation that works
// on 8 bit payloads instead of 5 bit groups.
package bech32

import (
	"github.com/btcsuite/btcutil/bech32"
	"github.com/iov-one/ledger/errors"
)

// Decode converts given bech32 encoded representation into raw payload and a
// human readable part.
func Decode(raw string) (string, []byte, error) {
	hrp, groups, err := bech32.Decode(raw)
	if err != nil {
		return "", nil, errors.Wrap(errors.ErrInvalidTransactionBody, err.Error())
	}
	payload, err := bech32.ConvertBits(groups, 5, 8, false)
	if err != nil {
		return "", nil, errors.Wrapf(errors.ErrInvalidTransactionBody, "convert bits: %s", err)
	}
	return hrp, payload, nil
}

// Encode converts given bytes into bech32 encoded representation.
func Encode(hrp string, payload []byte) (string, error) {
	groups, err := bech32.ConvertBits(payload, 8, 5, true)
	if err != nil {
		return "", errors.Wrapf(errors.ErrInvalidTransactionBody, "convert bits: %s", err)
	}
	raw, err := bech32.Encode(hrp, groups)
	if err != nil {
		return "", errors.Wrapf(errors.ErrInvalidTransactionBody, "bech32 encode: %s", err)
	}
	return raw, nil
}
