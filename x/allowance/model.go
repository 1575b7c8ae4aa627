/*
Package allowance lets an owner approve a spender to debit its hbar or
tokens. An approved debit in a transfer is authorized by the spender instead
of the owner and decreases the allowance.
*/
package allowance

import (
	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/errors"
	"github.com/iov-one/ledger/orm"
)

// Allowance is the amount a spender may still debit from the owner. Token
// zero means hbar.
type Allowance struct {
	Owner   ledger.AccountID `json:"owner"`
	Spender ledger.AccountID `json:"spender"`
	Token   ledger.TokenID   `json:"token,omitempty"`
	Amount  int64            `json:"amount"`
}

var _ orm.Model = (*Allowance)(nil)

func (a *Allowance) Validate() error {
	var errs error
	if a.Owner <= 0 {
		errs = errors.AppendField(errs, "Owner", errors.ErrInvalidAccountID)
	}
	if a.Spender <= 0 || a.Spender == a.Owner {
		errs = errors.AppendField(errs, "Spender", errors.ErrInvalidAccountID)
	}
	if a.Token < 0 {
		errs = errors.AppendField(errs, "Token", errors.ErrInvalidTokenID)
	}
	if a.Amount <= 0 {
		errs = errors.AppendField(errs, "Amount", errors.ErrInvalidAccountAmounts)
	}
	return errs
}

// Bucket stores allowances by owner, spender and token so that all
// allowances granted by an owner share a key prefix.
type Bucket struct {
	orm.ModelBucket
}

// NewBucket returns the allowance bucket.
func NewBucket() *Bucket {
	return &Bucket{ModelBucket: orm.NewModelBucket("allowances")}
}

func key(owner, spender ledger.AccountID, tok ledger.TokenID) []byte {
	k := append(owner.Bytes(), spender.Bytes()...)
	return append(k, tok.Bytes()...)
}

// Get returns the allowance. ErrSpenderHasNoAllowance is returned if the
// owner did not approve the spender.
func (b *Bucket) Get(db ledger.ReadOnlyKVStore, owner, spender ledger.AccountID, tok ledger.TokenID) (*Allowance, error) {
	var a Allowance
	err := b.One(db, key(owner, spender, tok), &a)
	if errors.ErrNotFound.Is(err) {
		return nil, errors.Wrapf(errors.ErrSpenderHasNoAllowance, "owner %s spender %s", owner, spender)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Save stores the allowance. A zero amount removes it.
func (b *Bucket) Save(db ledger.KVStore, a *Allowance) error {
	if a.Amount == 0 {
		return b.Remove(db, a.Owner, a.Spender, a.Token)
	}
	return b.Put(db, key(a.Owner, a.Spender, a.Token), a)
}

// Remove deletes the allowance.
func (b *Bucket) Remove(db ledger.KVStore, owner, spender ledger.AccountID, tok ledger.TokenID) error {
	return b.Delete(db, key(owner, spender, tok))
}

// CountByOwner returns the number of allowances the owner granted.
func (b *Bucket) CountByOwner(db ledger.ReadOnlyKVStore, owner ledger.AccountID) (int, error) {
	keys, err := b.Keys(db, owner.Bytes())
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// Spend decreases the allowance by amount.
func (b *Bucket) Spend(db ledger.KVStore, owner, spender ledger.AccountID, tok ledger.TokenID, amount int64) error {
	a, err := b.Get(db, owner, spender, tok)
	if err != nil {
		return err
	}
	if amount > a.Amount {
		return errors.Wrapf(errors.ErrAmountExceedsAllowance, "%d left, %d requested", a.Amount, amount)
	}
	a.Amount -= amount
	return b.Save(db, a)
}
