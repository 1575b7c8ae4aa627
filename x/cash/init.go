package cash

import (
	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/gconf"
)

// Initializer stores the configuration found in the genesis file, falling
// back to the defaults for anything it does not set.
type Initializer struct{}

var _ ledger.Initializer = Initializer{}

func (Initializer) FromGenesis(opts ledger.Options, db ledger.KVStore) error {
	conf := DefaultConfiguration()
	return gconf.InitConfig(db, opts, "cash", &conf)
}
