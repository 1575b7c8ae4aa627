// Package codec holds the binary codec of all persisted models and signed
// payloads.
package codec

import (
	"github.com/iov-one/ledger/errors"
	amino "github.com/tendermint/go-amino"
)

var cdc = amino.NewCodec()

// Marshal returns the canonical binary encoding of given value.
func Marshal(o interface{}) ([]byte, error) {
	bz, err := cdc.MarshalBinaryBare(o)
	if err != nil {
		return nil, errors.Wrap(errors.ErrType, err.Error())
	}
	return bz, nil
}

// MustMarshal is Marshal for values that are known to be encodable.
func MustMarshal(o interface{}) []byte {
	bz, err := Marshal(o)
	if err != nil {
		panic(err)
	}
	return bz
}

// Unmarshal decodes bz into the value pointed to by ptr.
func Unmarshal(bz []byte, ptr interface{}) error {
	if err := cdc.UnmarshalBinaryBare(bz, ptr); err != nil {
		return errors.Wrap(errors.ErrType, err.Error())
	}
	return nil
}
