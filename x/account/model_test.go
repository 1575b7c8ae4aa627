package account

import (
	"testing"

	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/crypto"
	"github.com/iov-one/ledger/errors"
	"github.com/iov-one/ledger/ledgertest"
	"github.com/iov-one/ledger/ledgertest/assert"
	"github.com/iov-one/ledger/store"
)

func TestAccountValidate(t *testing.T) {
	key := ledgertest.NewKey().PublicKey()

	cases := map[string]struct {
		acc      Account
		wantErrs map[string]*errors.Error
	}{
		"keyed account": {
			acc: Account{ID: 5, Key: key, Alias: crypto.KeyAlias(key), Balance: 10},
			wantErrs: map[string]*errors.Error{
				"ID":    nil,
				"Key":   nil,
				"Alias": nil,
			},
		},
		"hollow account": {
			acc: Account{ID: 5, MaxAutoAssociations: -1},
			wantErrs: map[string]*errors.Error{
				"Key":   nil,
				"Alias": nil,
			},
		},
		"hollow account with alias": {
			acc: Account{ID: 5, Alias: crypto.Alias(make([]byte, 20))},
			wantErrs: map[string]*errors.Error{
				"Alias": errors.ErrState,
			},
		},
		"missing id": {
			acc: Account{Key: key},
			wantErrs: map[string]*errors.Error{
				"ID": errors.ErrInvalidAccountID,
			},
		},
		"negative balance and cap": {
			acc: Account{ID: 1, Key: key, Balance: -1, MaxAutoAssociations: -2},
			wantErrs: map[string]*errors.Error{
				"Balance":             errors.ErrInsufficientAccountBalance,
				"MaxAutoAssociations": errors.ErrInvalidMaxAutoAssociations,
			},
		},
		"duplicated hook": {
			acc: Account{ID: 1, Key: key, Hooks: []Hook{{ID: 1}, {ID: 1}}},
			wantErrs: map[string]*errors.Error{
				"Hooks": errors.ErrHookIDRepeated,
			},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			err := tc.acc.Validate()
			for field, want := range tc.wantErrs {
				assert.FieldError(t, err, field, want)
			}
		})
	}
}

func TestDebitCredit(t *testing.T) {
	a := &Account{ID: 2, Balance: 10}
	assert.IsErr(t, errors.ErrInsufficientAccountBalance, a.Debit(11))
	assert.Equal(t, int64(10), a.Balance)
	assert.Nil(t, a.Debit(10))
	assert.Nil(t, a.Credit(3))
	assert.Nil(t, a.Credit(-1))
	assert.Equal(t, int64(2), a.Balance)

	a.Balance = 1<<63 - 1
	assert.IsErr(t, errors.ErrOverflow, a.Credit(1))
}

func TestHasFreeAutoAssociation(t *testing.T) {
	assert.Equal(t, true, (&Account{MaxAutoAssociations: -1, UsedAutoAssociations: 1000}).HasFreeAutoAssociation())
	assert.Equal(t, false, (&Account{MaxAutoAssociations: 0}).HasFreeAutoAssociation())
	assert.Equal(t, true, (&Account{MaxAutoAssociations: 2, UsedAutoAssociations: 1}).HasFreeAutoAssociation())
	assert.Equal(t, false, (&Account{MaxAutoAssociations: 2, UsedAutoAssociations: 2}).HasFreeAutoAssociation())
}

func TestBucket(t *testing.T) {
	db := store.MemStore()
	b := NewBucket()

	_, err := b.Get(db, 7)
	assert.IsErr(t, errors.ErrNotFound, err)
	_, err = b.Active(db, 7)
	assert.IsErr(t, errors.ErrInvalidAccountID, err)

	assert.Nil(t, b.Reserve(db, 1000))
	a := &Account{Key: ledgertest.NewKey().PublicKey(), Balance: 5}
	assert.Nil(t, b.Create(db, a))
	assert.Equal(t, ledger.AccountID(1001), a.ID)

	other := &Account{Key: ledgertest.NewKey().PublicKey()}
	assert.Nil(t, b.Create(db, other))
	assert.Equal(t, ledger.AccountID(1002), other.ID)

	assert.IsErr(t, errors.ErrInsufficientAccountBalance, b.Move(db, a.ID, other.ID, 6))
	assert.Nil(t, b.Move(db, a.ID, other.ID, 5))
	got, err := b.Get(db, other.ID)
	assert.Nil(t, err)
	assert.Equal(t, int64(5), got.Balance)

	got.Deleted = true
	assert.Nil(t, b.Save(db, got))
	_, err = b.Active(db, other.ID)
	assert.IsErr(t, errors.ErrAccountDeleted, err)
}

func TestAliasIndex(t *testing.T) {
	db := store.MemStore()
	idx := NewAliasIndex()
	alias := ledgertest.EVMAddress(ledgertest.NewECDSAKey())

	_, ok, err := idx.Lookup(db, alias)
	assert.Nil(t, err)
	assert.Equal(t, false, ok)

	assert.Nil(t, idx.Assign(db, alias, 1001))
	assert.IsErr(t, errors.ErrAliasAlreadyAssigned, idx.Assign(db, alias, 1002))

	id, ok, err := idx.Lookup(db, alias)
	assert.Nil(t, err)
	assert.Equal(t, true, ok)
	assert.Equal(t, ledger.AccountID(1001), id)

	assert.IsErr(t, errors.ErrInvalidAliasKey, idx.Assign(db, nil, 1))
}
