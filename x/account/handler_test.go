package account

import (
	"context"
	"testing"

	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/crypto"
	"github.com/iov-one/ledger/errors"
	"github.com/iov-one/ledger/ledgertest"
	"github.com/iov-one/ledger/ledgertest/assert"
	"github.com/iov-one/ledger/store"
)

const payerID ledger.AccountID = 2

type router map[string]ledger.Handler

func (r router) Handle(kind string, h ledger.Handler) {
	r[kind] = h
}

type holdings map[ledger.AccountID]bool

func (h holdings) HasTokenBalance(db ledger.ReadOnlyKVStore, id ledger.AccountID) (bool, error) {
	return h[id], nil
}

func newStore(t testing.TB, accounts ...*Account) ledger.CacheableKVStore {
	t.Helper()
	db := store.MemStore()
	b := NewBucket()
	for _, a := range accounts {
		assert.Nil(t, b.Save(db, a))
		assert.Nil(t, b.Reserve(db, a.ID))
	}
	return db
}

func TestCreateHandler(t *testing.T) {
	payerKey := ledgertest.NewKey()
	ecdsa := ledgertest.NewECDSAKey()
	taken := ledgertest.NewKey()

	cases := map[string]struct {
		msg           *CreateMsg
		wantCheckErr  *errors.Error
		wantErr       *errors.Error
		wantAccount   ledger.AccountID
		wantAliases   []crypto.Alias
		wantPayerLeft int64
	}{
		"funded account": {
			msg:           &CreateMsg{Key: ledgertest.NewKey().PublicKey(), InitialBalance: 40},
			wantAccount:   1001,
			wantPayerLeft: 60,
		},
		"ecdsa key alias indexes the evm address too": {
			msg:           &CreateMsg{Key: ecdsa.PublicKey(), Alias: crypto.KeyAlias(ecdsa.PublicKey())},
			wantAccount:   1001,
			wantAliases:   []crypto.Alias{crypto.KeyAlias(ecdsa.PublicKey()), ledgertest.EVMAddress(ecdsa)},
			wantPayerLeft: 100,
		},
		"alias already assigned": {
			msg:           &CreateMsg{Key: taken.PublicKey(), Alias: crypto.KeyAlias(taken.PublicKey())},
			wantErr:       errors.ErrAliasAlreadyAssigned,
			wantPayerLeft: 100,
		},
		"payer too poor": {
			msg:           &CreateMsg{Key: ledgertest.NewKey().PublicKey(), InitialBalance: 101},
			wantErr:       errors.ErrInsufficientPayerBalance,
			wantPayerLeft: 100,
		},
		"renew period out of range": {
			msg:           &CreateMsg{Key: ledgertest.NewKey().PublicKey(), AutoRenewPeriod: 10},
			wantErr:       errors.ErrInvalidRenewalPeriod,
			wantPayerLeft: 100,
		},
		"repeated hooks": {
			msg:           &CreateMsg{Key: ledgertest.NewKey().PublicKey(), Hooks: []Hook{{ID: 1}, {ID: 1}}},
			wantCheckErr:  errors.ErrHookIDRepeated,
			wantErr:       errors.ErrHookIDRepeated,
			wantPayerLeft: 100,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := newStore(t,
				&Account{ID: payerID, Key: payerKey.PublicKey(), Balance: 100},
				&Account{ID: 1000, Key: taken.PublicKey(), Alias: crypto.KeyAlias(taken.PublicKey())},
			)
			assert.Nil(t, NewAliasIndex().Assign(db, crypto.KeyAlias(taken.PublicKey()), 1000))

			r := router{}
			RegisterRoutes(r, &ledgertest.Auth{}, nil)
			h := r[tc.msg.Kind()]

			clog := ledger.NewCreationLog()
			ctx := ledger.WithCreationLog(context.Background(), clog)
			tx := &ledger.Tx{Payer: payerID, Msg: tc.msg}

			_, err := h.Check(ctx, db, tx)
			assert.IsErr(t, tc.wantCheckErr, err)

			cache := db.CacheWrap()
			_, err = h.Deliver(ctx, cache, tx)
			assert.IsErr(t, tc.wantErr, err)
			if err == nil {
				assert.Nil(t, cache.Write())
			} else {
				cache.Discard()
			}

			payer, err := NewBucket().Get(db, payerID)
			assert.Nil(t, err)
			assert.Equal(t, tc.wantPayerLeft, payer.Balance)

			if tc.wantAccount == 0 {
				assert.Equal(t, 0, len(clog.All()))
				return
			}
			acc, err := NewBucket().Get(db, tc.wantAccount)
			assert.Nil(t, err)
			assert.Equal(t, tc.msg.InitialBalance, acc.Balance)
			assert.Equal(t, true, acc.Key.Equals(tc.msg.Key))
			assert.Equal(t, DefaultConfiguration().DefaultAutoRenewPeriod, acc.AutoRenewPeriod)
			assert.Equal(t, []ledger.AccountID{tc.wantAccount}, clog.All())
			for _, a := range tc.wantAliases {
				id, ok, err := NewAliasIndex().Lookup(db, a)
				assert.Nil(t, err)
				assert.Equal(t, true, ok)
				assert.Equal(t, tc.wantAccount, id)
			}
		})
	}
}

func TestUpdateHandler(t *testing.T) {
	owner := ledgertest.NewKey()
	newKey := ledgertest.NewKey()
	memo := "updated"
	renew := int64(3000000)
	badRenew := int64(1)
	one := int32(1)
	unlimited := int32(-1)

	cases := map[string]struct {
		auth    *ledgertest.Auth
		msg     *UpdateMsg
		wantErr *errors.Error
		check   func(t *testing.T, a *Account)
	}{
		"memo and renew period": {
			auth: &ledgertest.Auth{Accounts: []ledger.AccountID{10}},
			msg:  &UpdateMsg{Account: 10, Memo: &memo, AutoRenewPeriod: &renew},
			check: func(t *testing.T, a *Account) {
				assert.Equal(t, memo, a.Memo)
				assert.Equal(t, renew, a.AutoRenewPeriod)
			},
		},
		"owner must sign": {
			auth:    &ledgertest.Auth{},
			msg:     &UpdateMsg{Account: 10, Memo: &memo},
			wantErr: errors.ErrInvalidSignature,
		},
		"missing account": {
			auth:    &ledgertest.Auth{Accounts: []ledger.AccountID{11}},
			msg:     &UpdateMsg{Account: 11, Memo: &memo},
			wantErr: errors.ErrInvalidAccountID,
		},
		"key rotation signed by the new key": {
			auth: &ledgertest.Auth{Accounts: []ledger.AccountID{10}, Keys: []*crypto.Key{newKey.PublicKey()}},
			msg:  &UpdateMsg{Account: 10, Key: newKey.PublicKey()},
			check: func(t *testing.T, a *Account) {
				assert.Equal(t, true, a.Key.Equals(newKey.PublicKey()))
			},
		},
		"key rotation without the new key signature": {
			auth:    &ledgertest.Auth{Accounts: []ledger.AccountID{10}},
			msg:     &UpdateMsg{Account: 10, Key: newKey.PublicKey()},
			wantErr: errors.ErrInvalidSignature,
		},
		"renew period out of range": {
			auth:    &ledgertest.Auth{Accounts: []ledger.AccountID{10}},
			msg:     &UpdateMsg{Account: 10, AutoRenewPeriod: &badRenew},
			wantErr: errors.ErrInvalidRenewalPeriod,
		},
		"cap below used slots": {
			auth:    &ledgertest.Auth{Accounts: []ledger.AccountID{10}},
			msg:     &UpdateMsg{Account: 10, MaxAutoAssociations: &one},
			wantErr: errors.ErrInvalidMaxAutoAssociations,
		},
		"unlimited cap": {
			auth: &ledgertest.Auth{Accounts: []ledger.AccountID{10}},
			msg:  &UpdateMsg{Account: 10, MaxAutoAssociations: &unlimited},
			check: func(t *testing.T, a *Account) {
				assert.Equal(t, int32(-1), a.MaxAutoAssociations)
			},
		},
		"hook id in use": {
			auth:    &ledgertest.Auth{Accounts: []ledger.AccountID{10}},
			msg:     &UpdateMsg{Account: 10, AddHooks: []Hook{{ID: 1}}},
			wantErr: errors.ErrHookIDInUse,
		},
		"remove unknown hook": {
			auth:    &ledgertest.Auth{Accounts: []ledger.AccountID{10}},
			msg:     &UpdateMsg{Account: 10, RemoveHooks: []ledger.HookID{9}},
			wantErr: errors.ErrHookNotFound,
		},
		"replace hook": {
			auth: &ledgertest.Auth{Accounts: []ledger.AccountID{10}},
			msg:  &UpdateMsg{Account: 10, RemoveHooks: []ledger.HookID{1}, AddHooks: []Hook{{ID: 1, Contract: 400}, {ID: 2}}},
			check: func(t *testing.T, a *Account) {
				assert.Equal(t, []Hook{{ID: 1, Contract: 400}, {ID: 2}}, a.Hooks)
			},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := newStore(t, &Account{
				ID:                   10,
				Key:                  owner.PublicKey(),
				MaxAutoAssociations:  5,
				UsedAutoAssociations: 2,
				Hooks:                []Hook{{ID: 1}},
			})
			r := router{}
			RegisterRoutes(r, tc.auth, nil)
			tx := &ledger.Tx{Payer: payerID, Msg: tc.msg}

			_, err := r[tc.msg.Kind()].Deliver(context.Background(), db, tx)
			assert.IsErr(t, tc.wantErr, err)
			if tc.check != nil {
				acc, err := NewBucket().Get(db, 10)
				assert.Nil(t, err)
				tc.check(t, acc)
			}
		})
	}
}

func TestDeleteHandler(t *testing.T) {
	cases := map[string]struct {
		auth     *ledgertest.Auth
		holdings holdings
		msg      *DeleteMsg
		wantErr  *errors.Error
	}{
		"balance moves to the transfer account": {
			auth: &ledgertest.Auth{Accounts: []ledger.AccountID{10}},
			msg:  &DeleteMsg{Account: 10, TransferAccount: 11},
		},
		"signature required": {
			auth:    &ledgertest.Auth{},
			msg:     &DeleteMsg{Account: 10, TransferAccount: 11},
			wantErr: errors.ErrInvalidSignature,
		},
		"token balances left": {
			auth:     &ledgertest.Auth{Accounts: []ledger.AccountID{10}},
			holdings: holdings{10: true},
			msg:      &DeleteMsg{Account: 10, TransferAccount: 11},
			wantErr:  errors.ErrRequiresZeroTokenBalance,
		},
		"deleted transfer account": {
			auth:    &ledgertest.Auth{Accounts: []ledger.AccountID{10}},
			msg:     &DeleteMsg{Account: 10, TransferAccount: 12},
			wantErr: errors.ErrAccountDeleted,
		},
		"same account": {
			auth:    &ledgertest.Auth{Accounts: []ledger.AccountID{10}},
			msg:     &DeleteMsg{Account: 10, TransferAccount: 10},
			wantErr: errors.ErrTransferAccountSameAsDel,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := newStore(t,
				&Account{ID: 10, Key: ledgertest.NewKey().PublicKey(), Balance: 70},
				&Account{ID: 11, Key: ledgertest.NewKey().PublicKey(), Balance: 1},
				&Account{ID: 12, Key: ledgertest.NewKey().PublicKey(), Deleted: true},
			)
			r := router{}
			RegisterRoutes(r, tc.auth, tc.holdings)
			tx := &ledger.Tx{Payer: payerID, Msg: tc.msg}

			_, err := r[tc.msg.Kind()].Deliver(context.Background(), db, tx)
			assert.IsErr(t, tc.wantErr, err)
			if tc.wantErr != nil {
				return
			}
			b := NewBucket()
			deleted, err := b.Get(db, 10)
			assert.Nil(t, err)
			assert.Equal(t, true, deleted.Deleted)
			assert.Equal(t, int64(0), deleted.Balance)
			dst, err := b.Get(db, 11)
			assert.Nil(t, err)
			assert.Equal(t, int64(71), dst.Balance)
		})
	}
}
