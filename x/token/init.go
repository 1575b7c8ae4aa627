package token

import (
	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/errors"
)

const optKey = "tokens"

// GenesisHolder is an account associated with a genesis token.
type GenesisHolder struct {
	Account ledger.AccountID `json:"account"`
	Balance int64            `json:"balance,omitempty"`
}

// GenesisToken is used to parse the json from genesis file. The treasury
// holds the total supply minus the balances of the holders.
type GenesisToken struct {
	ID          ledger.TokenID   `json:"id"`
	Name        string           `json:"name"`
	Symbol      string           `json:"symbol"`
	Type        Type             `json:"type"`
	Treasury    ledger.AccountID `json:"treasury"`
	TotalSupply int64            `json:"total_supply"`
	Decimals    int32            `json:"decimals,omitempty"`
	CustomFees  []FixedFee       `json:"custom_fees,omitempty"`
	Holders     []GenesisHolder  `json:"holders,omitempty"`
}

// Initializer fulfils the Initializer interface to load data from the
// genesis file. Only fungible tokens can be declared in the genesis.
type Initializer struct{}

var _ ledger.Initializer = Initializer{}

// FromGenesis will parse initial token info from genesis and save it to
// the database. Accounts must be initialized first.
func (Initializer) FromGenesis(opts ledger.Options, db ledger.KVStore) error {
	var tokens []GenesisToken
	if err := opts.ReadOptions(optKey, &tokens); err != nil {
		return errors.Wrap(errors.ErrInvalidTransactionBody, err.Error())
	}
	ctrl := NewController()
	for _, g := range tokens {
		if g.Type != FungibleCommon {
			return errors.Wrapf(errors.ErrNotSupported, "genesis token %s must be fungible", g.ID)
		}
		if _, err := ctrl.accounts.Active(db, g.Treasury); err != nil {
			return errors.Wrapf(errors.ErrInvalidTreasury, "token %s: %s", g.ID, err)
		}
		t := &Token{
			ID:          g.ID,
			Name:        g.Name,
			Symbol:      g.Symbol,
			Type:        g.Type,
			Treasury:    g.Treasury,
			TotalSupply: g.TotalSupply,
			Decimals:    g.Decimals,
			CustomFees:  g.CustomFees,
		}
		if err := ctrl.tokens.ModelBucket.Create(db, t.ID.Bytes(), t); err != nil {
			return errors.Wrapf(err, "token %s", g.ID)
		}
		if err := ctrl.tokens.Reserve(db, t.ID); err != nil {
			return err
		}
		if err := ctrl.issue(db, t, 0); err != nil {
			return errors.Wrapf(err, "token %s", g.ID)
		}
		for _, hold := range g.Holders {
			if err := ctrl.Associate(db, hold.Account, t.ID); err != nil && !errors.ErrTokenAlreadyAssociated.Is(err) {
				return errors.Wrapf(err, "token %s holder %s", g.ID, hold.Account)
			}
			if err := ctrl.MoveFungible(db, t.ID, t.Treasury, hold.Account, hold.Balance); err != nil {
				return errors.Wrapf(err, "token %s holder %s", g.ID, hold.Account)
			}
		}
	}
	return nil
}
