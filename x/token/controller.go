package token

import (
	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/errors"
	"github.com/iov-one/ledger/x/account"
)

// Controller moves tokens between accounts.
type Controller struct {
	accounts *account.Bucket
	tokens   *Bucket
	rels     *RelationshipBucket
	nfts     *NftBucket
}

// NewController returns a controller over the default buckets.
func NewController() *Controller {
	return &Controller{
		accounts: account.NewBucket(),
		tokens:   NewBucket(),
		rels:     NewRelationshipBucket(),
		nfts:     NewNftBucket(),
	}
}

// Token loads a token definition.
func (c *Controller) Token(db ledger.ReadOnlyKVStore, id ledger.TokenID) (*Token, error) {
	return c.tokens.Get(db, id)
}

// Associate creates an explicit relationship. An existing relationship
// fails with ErrTokenAlreadyAssociated.
func (c *Controller) Associate(db ledger.KVStore, acc ledger.AccountID, tok ledger.TokenID) error {
	if _, err := c.accounts.Active(db, acc); err != nil {
		return err
	}
	if _, err := c.tokens.Get(db, tok); err != nil {
		return err
	}
	switch ok, err := c.rels.Exists(db, acc, tok); {
	case err != nil:
		return err
	case ok:
		return errors.Wrapf(errors.ErrTokenAlreadyAssociated, "account %s token %s", acc, tok)
	}
	return c.rels.Save(db, &Relationship{Account: acc, Token: tok})
}

// Receiving returns the relationship over which the account receives the
// token. A missing relationship is created if the account has a free auto
// association slot. An account that does not accept any auto association
// fails with ErrTokenNotAssociated, one that used all its slots with
// ErrNoRemainingAutoAssoc.
func (c *Controller) Receiving(db ledger.KVStore, acc ledger.AccountID, tok ledger.TokenID) (*Relationship, error) {
	r, err := c.rels.Get(db, acc, tok)
	if err == nil {
		return r, nil
	}
	if !errors.ErrTokenNotAssociated.Is(err) {
		return nil, err
	}

	a, err := c.accounts.Active(db, acc)
	if err != nil {
		return nil, err
	}
	switch {
	case a.MaxAutoAssociations == 0:
		return nil, errors.Wrapf(errors.ErrTokenNotAssociated, "account %s token %s", acc, tok)
	case !a.HasFreeAutoAssociation():
		return nil, errors.Wrapf(errors.ErrNoRemainingAutoAssoc,
			"account %s used %d of %d", acc, a.UsedAutoAssociations, a.MaxAutoAssociations)
	}
	a.UsedAutoAssociations++
	if err := c.accounts.Save(db, a); err != nil {
		return nil, err
	}
	r = &Relationship{Account: acc, Token: tok, AutoAssociated: true}
	if err := c.rels.Save(db, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Adjust changes the fungible balance of an account. A credit may auto
// associate the account, a debit requires an existing relationship.
func (c *Controller) Adjust(db ledger.KVStore, tok ledger.TokenID, acc ledger.AccountID, amount int64) error {
	if amount == 0 {
		return nil
	}
	var (
		r   *Relationship
		err error
	)
	if amount > 0 {
		r, err = c.Receiving(db, acc, tok)
	} else {
		if _, err := c.accounts.Active(db, acc); err != nil {
			return err
		}
		r, err = c.rels.Get(db, acc, tok)
	}
	if err != nil {
		return err
	}
	if err := r.Add(amount); err != nil {
		return err
	}
	return c.rels.Save(db, r)
}

// MoveFungible transfers amount units of a fungible token.
func (c *Controller) MoveFungible(db ledger.KVStore, tok ledger.TokenID, from, to ledger.AccountID, amount int64) error {
	if amount < 0 {
		return errors.Wrap(errors.ErrInvalidAccountAmounts, "negative amount")
	}
	if err := c.Adjust(db, tok, from, -amount); err != nil {
		return err
	}
	return c.Adjust(db, tok, to, amount)
}

// MoveNft changes the owner of a serial.
func (c *Controller) MoveNft(db ledger.KVStore, tok ledger.TokenID, serial int64, from, to ledger.AccountID) error {
	n, err := c.nfts.Get(db, tok, serial)
	if err != nil {
		return err
	}
	if n.Owner != from {
		return errors.Wrapf(errors.ErrSenderDoesNotOwnNft, "%s owned by %s",
			ledger.NftID{Token: tok, Serial: serial}, n.Owner)
	}
	if err := c.Adjust(db, tok, from, -1); err != nil {
		return err
	}
	if err := c.Adjust(db, tok, to, 1); err != nil {
		return err
	}
	n.Owner = to
	return c.nfts.Save(db, n)
}

// Balance returns the balance of the account, zero if not associated.
func (c *Controller) Balance(db ledger.ReadOnlyKVStore, tok ledger.TokenID, acc ledger.AccountID) (int64, error) {
	r, err := c.rels.Get(db, acc, tok)
	switch {
	case errors.ErrTokenNotAssociated.Is(err):
		return 0, nil
	case err != nil:
		return 0, err
	}
	return r.Balance, nil
}

// Mint creates the token, associates the treasury and issues the initial
// supply or serials to it.
func (c *Controller) Mint(db ledger.KVStore, t *Token, serials int64) error {
	if err := c.tokens.Create(db, t); err != nil {
		return err
	}
	return c.issue(db, t, serials)
}

func (c *Controller) issue(db ledger.KVStore, t *Token, serials int64) error {
	supply := t.TotalSupply
	if !t.IsFungible() {
		supply = serials
		if t.NextSerial == 0 {
			t.NextSerial = 1
		}
		for i := int64(0); i < serials; i++ {
			n := &Nft{Token: t.ID, Serial: t.NextSerial, Owner: t.Treasury}
			if err := c.nfts.Save(db, n); err != nil {
				return err
			}
			t.NextSerial++
		}
		t.TotalSupply += serials
		if err := c.tokens.Save(db, t); err != nil {
			return err
		}
	}
	r, err := c.rels.Get(db, t.Treasury, t.ID)
	if errors.ErrTokenNotAssociated.Is(err) {
		r, err = &Relationship{Account: t.Treasury, Token: t.ID}, nil
	}
	if err != nil {
		return err
	}
	if err := r.Add(supply); err != nil {
		return err
	}
	return c.rels.Save(db, r)
}

// HasTokenBalance implements account.Holdings.
func (c *Controller) HasTokenBalance(db ledger.ReadOnlyKVStore, id ledger.AccountID) (bool, error) {
	return c.rels.HasTokenBalance(db, id)
}

var _ account.Holdings = (*Controller)(nil)
