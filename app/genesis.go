package app

import (
	"encoding/json"
	"io/ioutil"

	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/errors"
	"github.com/iov-one/ledger/x/account"
	"github.com/iov-one/ledger/x/batch"
	"github.com/iov-one/ledger/x/cash"
	"github.com/iov-one/ledger/x/fees"
	"github.com/iov-one/ledger/x/token"
)

// Genesis is the content of a genesis file. Every extension reads its own
// key of AppState.
type Genesis struct {
	ChainID  string         `json:"chain_id"`
	AppState ledger.Options `json:"app_state"`
}

// LoadGenesis reads a genesis file.
func LoadGenesis(path string) (*Genesis, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrNotFound, err.Error())
	}
	var gen Genesis
	if err := json.Unmarshal(raw, &gen); err != nil {
		return nil, errors.Wrap(errors.ErrInvalidTransactionBody, err.Error())
	}
	return &gen, nil
}

// ChainInitializers lets you initialize many extensions with one function.
func ChainInitializers(inits ...ledger.Initializer) ledger.Initializer {
	return chainInitializer{inits: inits}
}

type chainInitializer struct {
	inits []ledger.Initializer
}

// FromGenesis passes opts to all initializers in order, aborting at the
// first error.
func (c chainInitializer) FromGenesis(opts ledger.Options, db ledger.KVStore) error {
	for _, i := range c.inits {
		if err := i.FromGenesis(opts, db); err != nil {
			return err
		}
	}
	return nil
}

// Initializers returns the initializers of every extension of the ledger.
// Configurations go first, so that accounts and tokens are created with
// the configured defaults.
func Initializers() ledger.Initializer {
	return ChainInitializers(
		fees.Initializer{},
		cash.Initializer{},
		batch.Initializer{},
		account.Initializer{},
		token.Initializer{},
	)
}
