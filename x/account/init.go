package account

import (
	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/crypto"
	"github.com/iov-one/ledger/errors"
	"github.com/iov-one/ledger/gconf"
)

const optKey = "accounts"

// GenesisAccount is used to parse the json from genesis file.
type GenesisAccount struct {
	ID                  ledger.AccountID `json:"id"`
	Key                 *crypto.Key      `json:"key,omitempty"`
	Alias               crypto.Alias     `json:"alias,omitempty"`
	Balance             int64            `json:"balance"`
	Memo                string           `json:"memo,omitempty"`
	MaxAutoAssociations int32            `json:"max_auto_associations,omitempty"`
	Hooks               []Hook           `json:"hooks,omitempty"`
}

// Initializer fulfils the Initializer interface to load data from the
// genesis file. Genesis accounts keep the ids they are declared with.
type Initializer struct{}

var _ ledger.Initializer = Initializer{}

// FromGenesis will parse initial account info from genesis and save it to
// the database.
func (Initializer) FromGenesis(opts ledger.Options, db ledger.KVStore) error {
	conf := DefaultConfiguration()
	if err := gconf.InitConfig(db, opts, "account", &conf); err != nil {
		return errors.Wrap(err, "init config")
	}

	var accts []GenesisAccount
	if err := opts.ReadOptions(optKey, &accts); err != nil {
		return errors.Wrap(errors.ErrInvalidTransactionBody, err.Error())
	}
	bucket := NewBucket()
	index := NewAliasIndex()
	for i, g := range accts {
		acc := &Account{
			ID:                  g.ID,
			Key:                 g.Key,
			Alias:               g.Alias,
			Balance:             g.Balance,
			Memo:                g.Memo,
			AutoRenewPeriod:     conf.DefaultAutoRenewPeriod,
			Expiry:              conf.DefaultAutoRenewPeriod,
			MaxAutoAssociations: g.MaxAutoAssociations,
			Hooks:               g.Hooks,
		}
		if g.Key != nil && len(g.Alias) != 0 {
			if err := validateKeyAlias(g.Key, g.Alias); err != nil {
				return errors.Wrapf(err, "account %d", i)
			}
		}
		switch ok, err := bucket.Has(db, g.ID.Bytes()); {
		case err != nil:
			return err
		case ok:
			return errors.Wrapf(errors.ErrDuplicate, "account %s", g.ID)
		}
		if err := bucket.Save(db, acc); err != nil {
			return errors.Wrapf(err, "account %d", i)
		}
		if err := bucket.Reserve(db, g.ID); err != nil {
			return err
		}
		if len(g.Alias) != 0 {
			if err := index.Assign(db, g.Alias, g.ID); err != nil {
				return errors.Wrapf(err, "account %s", g.ID)
			}
		}
	}
	return nil
}
