package cash

import (
	"context"
	"testing"

	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/crypto"
	"github.com/iov-one/ledger/errors"
	"github.com/iov-one/ledger/gconf"
	"github.com/iov-one/ledger/ledgertest"
	"github.com/iov-one/ledger/ledgertest/assert"
	"github.com/iov-one/ledger/store"
	"github.com/iov-one/ledger/x/account"
	"github.com/iov-one/ledger/x/alias"
	"github.com/iov-one/ledger/x/allowance"
	"github.com/iov-one/ledger/x/hooks"
	"github.com/iov-one/ledger/x/hooks/hookstest"
	"github.com/iov-one/ledger/x/token"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	payer     ledger.AccountID = 2
	alice     ledger.AccountID = 10
	bob       ledger.AccountID = 11
	carol     ledger.AccountID = 12
	dave      ledger.AccountID = 13
	erin      ledger.AccountID = 14
	collector ledger.AccountID = 20
)

type fixture struct {
	gold   ledger.TokenID // fungible, alice is the treasury
	taxed  ledger.TokenID // fungible with a fee of 3 hbar, collector is the treasury
	art    ledger.TokenID // non fungible, alice owns serials 1 and 2
	hooked ledger.HookID
}

func newFixture(t testing.TB) (ledger.CacheableKVStore, *fixture) {
	t.Helper()
	db := store.MemStore()
	accounts := account.NewBucket()
	for _, a := range []*account.Account{
		{ID: payer, Balance: 1000},
		{ID: alice, Balance: 100, Hooks: []account.Hook{{ID: 7}}},
		{ID: bob},
		{ID: carol, MaxAutoAssociations: 1, UsedAutoAssociations: 1},
		{ID: dave, Deleted: true},
		{ID: erin, MaxAutoAssociations: account.UnlimitedAutoAssociations},
		{ID: collector},
	} {
		a.Key = ledgertest.NewKey().PublicKey()
		require.NoError(t, accounts.Save(db, a))
	}
	require.NoError(t, accounts.Reserve(db, 1000))

	ctrl := token.NewController()
	gold := &token.Token{Name: "Gold", Symbol: "GLD", Type: token.FungibleCommon, Treasury: alice, TotalSupply: 1000}
	require.NoError(t, ctrl.Mint(db, gold, 0))
	taxed := &token.Token{
		Name: "Taxed", Symbol: "TAX", Type: token.FungibleCommon, Treasury: collector, TotalSupply: 500,
		CustomFees: []token.FixedFee{{Amount: 3, Collector: collector}},
	}
	require.NoError(t, ctrl.Mint(db, taxed, 0))
	require.NoError(t, ctrl.Associate(db, alice, taxed.ID))
	require.NoError(t, ctrl.MoveFungible(db, taxed.ID, collector, alice, 50))
	art := &token.Token{Name: "Art", Symbol: "ART", Type: token.NonFungibleUnique, Treasury: alice}
	require.NoError(t, ctrl.Mint(db, art, 2))

	return db, &fixture{gold: gold.ID, taxed: taxed.ID, art: art.ID, hooked: 7}
}

func hbar(t testing.TB, db ledger.ReadOnlyKVStore, id ledger.AccountID) int64 {
	t.Helper()
	a, err := account.NewBucket().Get(db, id)
	require.NoError(t, err)
	return a.Balance
}

func units(t testing.TB, db ledger.ReadOnlyKVStore, tok ledger.TokenID, id ledger.AccountID) int64 {
	t.Helper()
	n, err := token.NewController().Balance(db, tok, id)
	require.NoError(t, err)
	return n
}

func TestTransferHandler(t *testing.T) {
	keyAlias := crypto.KeyAlias(ledgertest.NewKey().PublicKey())

	cases := map[string]struct {
		msg       func(f *fixture) *TransferMsg
		signers   []ledger.AccountID
		evaluator hooks.Evaluator
		prepare   func(t testing.TB, db ledger.KVStore, f *fixture)
		wantErr   *errors.Error
		check     func(t testing.TB, db ledger.KVStore, f *fixture, res *ledger.DeliverResult)
	}{
		"hbar between accounts": {
			msg: func(f *fixture) *TransferMsg {
				return &TransferMsg{Hbar: []AccountAmount{{Account: alice, Amount: -40}, {Account: bob, Amount: 40}}}
			},
			signers: []ledger.AccountID{alice},
			check: func(t testing.TB, db ledger.KVStore, f *fixture, res *ledger.DeliverResult) {
				assert.Equal(t, int64(60), hbar(t, db, alice))
				assert.Equal(t, int64(40), hbar(t, db, bob))
			},
		},
		"sender must sign": {
			msg: func(f *fixture) *TransferMsg {
				return &TransferMsg{Hbar: []AccountAmount{{Account: alice, Amount: -40}, {Account: bob, Amount: 40}}}
			},
			signers: []ledger.AccountID{bob},
			wantErr: errors.ErrInvalidSignature,
		},
		"insufficient hbar": {
			msg: func(f *fixture) *TransferMsg {
				return &TransferMsg{Hbar: []AccountAmount{{Account: alice, Amount: -101}, {Account: bob, Amount: 101}}}
			},
			signers: []ledger.AccountID{alice},
			wantErr: errors.ErrInsufficientAccountBalance,
		},
		"credit to a deleted account": {
			msg: func(f *fixture) *TransferMsg {
				return &TransferMsg{Hbar: []AccountAmount{{Account: alice, Amount: -1}, {Account: dave, Amount: 1}}}
			},
			signers: []ledger.AccountID{alice},
			wantErr: errors.ErrAccountDeleted,
		},
		"credit to a key alias creates the account": {
			msg: func(f *fixture) *TransferMsg {
				return &TransferMsg{Hbar: []AccountAmount{{Account: alice, Amount: -5}, {Alias: keyAlias, Amount: 5}}}
			},
			signers: []ledger.AccountID{alice},
			check: func(t testing.TB, db ledger.KVStore, f *fixture, res *ledger.DeliverResult) {
				acc, err := account.NewBucket().Get(db, 1001)
				require.NoError(t, err)
				assert.Equal(t, int64(5), acc.Balance)
				assert.Equal(t, keyAlias, acc.Alias)
			},
		},
		"zero credit to an unknown alias": {
			msg: func(f *fixture) *TransferMsg {
				return &TransferMsg{Hbar: []AccountAmount{{Account: alice, Amount: 0}, {Alias: keyAlias, Amount: 0}}}
			},
			signers: []ledger.AccountID{alice},
			wantErr: errors.ErrInvalidAccountID,
		},
		"malformed alias": {
			msg: func(f *fixture) *TransferMsg {
				return &TransferMsg{Hbar: []AccountAmount{{Account: alice, Amount: -1}, {Alias: crypto.Alias{1, 2, 3}, Amount: 1}}}
			},
			signers: []ledger.AccountID{alice},
			wantErr: errors.ErrInvalidAliasKey,
		},
		"alias resolving to a listed account": {
			prepare: func(t testing.TB, db ledger.KVStore, f *fixture) {
				require.NoError(t, account.NewAliasIndex().Assign(db, keyAlias, bob))
			},
			msg: func(f *fixture) *TransferMsg {
				return &TransferMsg{Hbar: []AccountAmount{
					{Account: alice, Amount: -2},
					{Account: bob, Amount: 1},
					{Alias: keyAlias, Amount: 1},
				}}
			},
			signers: []ledger.AccountID{alice},
			wantErr: errors.ErrAccountRepeated,
		},
		"token to an account without association slots": {
			msg: func(f *fixture) *TransferMsg {
				return &TransferMsg{Tokens: []TokenTransferList{{Token: f.gold, Transfers: []AccountAmount{
					{Account: alice, Amount: -1}, {Account: bob, Amount: 1},
				}}}}
			},
			signers: []ledger.AccountID{alice},
			wantErr: errors.ErrTokenNotAssociated,
		},
		"token to an account with used up slots": {
			msg: func(f *fixture) *TransferMsg {
				return &TransferMsg{Tokens: []TokenTransferList{{Token: f.gold, Transfers: []AccountAmount{
					{Account: alice, Amount: -1}, {Account: carol, Amount: 1},
				}}}}
			},
			signers: []ledger.AccountID{alice},
			wantErr: errors.ErrNoRemainingAutoAssoc,
		},
		"token to a key alias auto associates": {
			msg: func(f *fixture) *TransferMsg {
				return &TransferMsg{Tokens: []TokenTransferList{{Token: f.gold, Transfers: []AccountAmount{
					{Account: alice, Amount: -1}, {Alias: keyAlias, Amount: 1},
				}}}}
			},
			signers: []ledger.AccountID{alice},
			check: func(t testing.TB, db ledger.KVStore, f *fixture, res *ledger.DeliverResult) {
				acc, err := account.NewBucket().Get(db, 1001)
				require.NoError(t, err)
				assert.Equal(t, int32(account.UnlimitedAutoAssociations), acc.MaxAutoAssociations)
				assert.Equal(t, int64(1), units(t, db, f.gold, 1001))
				assert.Equal(t, int64(999), units(t, db, f.gold, alice))
			},
		},
		"nft": {
			msg: func(f *fixture) *TransferMsg {
				return &TransferMsg{Tokens: []TokenTransferList{{Token: f.art, Nfts: []NftTransfer{
					{Sender: alice, Receiver: erin, Serial: 2},
				}}}}
			},
			signers: []ledger.AccountID{alice},
			check: func(t testing.TB, db ledger.KVStore, f *fixture, res *ledger.DeliverResult) {
				n, err := token.NewNftBucket().Get(db, f.art, 2)
				require.NoError(t, err)
				assert.Equal(t, erin, n.Owner)
				assert.Equal(t, int64(1), units(t, db, f.art, alice))
				assert.Equal(t, int64(1), units(t, db, f.art, erin))
			},
		},
		"nft not owned by the sender": {
			msg: func(f *fixture) *TransferMsg {
				return &TransferMsg{Tokens: []TokenTransferList{{Token: f.art, Nfts: []NftTransfer{
					{Sender: erin, Receiver: alice, Serial: 1},
				}}}}
			},
			signers: []ledger.AccountID{erin},
			wantErr: errors.ErrSenderDoesNotOwnNft,
		},
		"missing nft": {
			msg: func(f *fixture) *TransferMsg {
				return &TransferMsg{Tokens: []TokenTransferList{{Token: f.art, Nfts: []NftTransfer{
					{Sender: alice, Receiver: erin, Serial: 3},
				}}}}
			},
			signers: []ledger.AccountID{alice},
			wantErr: errors.ErrInvalidNftID,
		},
		"approved debit": {
			prepare: func(t testing.TB, db ledger.KVStore, f *fixture) {
				require.NoError(t, allowance.NewBucket().Save(db, &allowance.Allowance{Owner: alice, Spender: payer, Amount: 30}))
			},
			msg: func(f *fixture) *TransferMsg {
				return &TransferMsg{Hbar: []AccountAmount{{Account: alice, Amount: -20, Approved: true}, {Account: bob, Amount: 20}}}
			},
			check: func(t testing.TB, db ledger.KVStore, f *fixture, res *ledger.DeliverResult) {
				a, err := allowance.NewBucket().Get(db, alice, payer, 0)
				require.NoError(t, err)
				assert.Equal(t, int64(10), a.Amount)
				assert.Equal(t, int64(20), hbar(t, db, bob))
			},
		},
		"approved debit over the allowance": {
			prepare: func(t testing.TB, db ledger.KVStore, f *fixture) {
				require.NoError(t, allowance.NewBucket().Save(db, &allowance.Allowance{Owner: alice, Spender: payer, Amount: 10}))
			},
			msg: func(f *fixture) *TransferMsg {
				return &TransferMsg{Hbar: []AccountAmount{{Account: alice, Amount: -20, Approved: true}, {Account: bob, Amount: 20}}}
			},
			wantErr: errors.ErrAmountExceedsAllowance,
		},
		"approved debit without allowance": {
			msg: func(f *fixture) *TransferMsg {
				return &TransferMsg{Hbar: []AccountAmount{{Account: alice, Amount: -20, Approved: true}, {Account: bob, Amount: 20}}}
			},
			wantErr: errors.ErrSpenderHasNoAllowance,
		},
		"hook authorizes the debit": {
			evaluator: hookstest.Returning(hooks.Authorized, 900),
			msg: func(f *fixture) *TransferMsg {
				return &TransferMsg{Hbar: []AccountAmount{
					{Account: alice, Amount: -20, Hook: &HookCall{ID: f.hooked, GasLimit: 1000}},
					{Account: bob, Amount: 20},
				}}
			},
			check: func(t testing.TB, db ledger.KVStore, f *fixture, res *ledger.DeliverResult) {
				assert.Equal(t, ledger.FeeExtras{ledger.ExtraGas: 900}, res.Extras)
				assert.Equal(t, int64(20), hbar(t, db, bob))
			},
		},
		"hook rejects the debit": {
			evaluator: hookstest.Returning(hooks.Rejected, 10),
			msg: func(f *fixture) *TransferMsg {
				return &TransferMsg{Hbar: []AccountAmount{
					{Account: alice, Amount: -20, Hook: &HookCall{ID: f.hooked, GasLimit: 1000}},
					{Account: bob, Amount: 20},
				}}
			},
			wantErr: errors.ErrRejectedByHook,
		},
		"undeclared hook": {
			evaluator: hookstest.Returning(hooks.Authorized, 10),
			msg: func(f *fixture) *TransferMsg {
				return &TransferMsg{Hbar: []AccountAmount{
					{Account: alice, Amount: -20, Hook: &HookCall{ID: 99, GasLimit: 1000}},
					{Account: bob, Amount: 20},
				}}
			},
			wantErr: errors.ErrHookNotFound,
		},
		"custom fee is paid by the sender": {
			msg: func(f *fixture) *TransferMsg {
				return &TransferMsg{Tokens: []TokenTransferList{{Token: f.taxed, Transfers: []AccountAmount{
					{Account: alice, Amount: -10}, {Account: erin, Amount: 10},
				}}}}
			},
			signers: []ledger.AccountID{alice},
			check: func(t testing.TB, db ledger.KVStore, f *fixture, res *ledger.DeliverResult) {
				assert.Equal(t, []ledger.AssessedCustomFee{{Amount: 3, Collector: collector, Payer: alice}}, res.AssessedCustomFees)
				assert.Equal(t, int64(97), hbar(t, db, alice))
				assert.Equal(t, int64(3), hbar(t, db, collector))
				assert.Equal(t, int64(10), units(t, db, f.taxed, erin))
			},
		},
		"custom fee not affordable": {
			prepare: func(t testing.TB, db ledger.KVStore, f *fixture) {
				acc, err := account.NewBucket().Get(db, alice)
				require.NoError(t, err)
				acc.Balance = 2
				require.NoError(t, account.NewBucket().Save(db, acc))
			},
			msg: func(f *fixture) *TransferMsg {
				return &TransferMsg{Tokens: []TokenTransferList{{Token: f.taxed, Transfers: []AccountAmount{
					{Account: alice, Amount: -10}, {Account: erin, Amount: 10},
				}}}}
			},
			signers: []ledger.AccountID{alice},
			wantErr: errors.ErrInsufficientBalanceForFee,
		},
		"amount transfer of a non fungible token": {
			msg: func(f *fixture) *TransferMsg {
				return &TransferMsg{Tokens: []TokenTransferList{{Token: f.art, Transfers: []AccountAmount{
					{Account: alice, Amount: -1}, {Account: erin, Amount: 1},
				}}}}
			},
			signers: []ledger.AccountID{alice},
			wantErr: errors.ErrNotSupported,
		},
		"unknown token": {
			msg: func(f *fixture) *TransferMsg {
				return &TransferMsg{Tokens: []TokenTransferList{{Token: 404, Transfers: []AccountAmount{
					{Account: alice, Amount: -1}, {Account: erin, Amount: 1},
				}}}}
			},
			signers: []ledger.AccountID{alice},
			wantErr: errors.ErrInvalidTokenID,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db, f := newFixture(t)
			if tc.prepare != nil {
				tc.prepare(t, db, f)
			}
			resolver, err := alias.NewResolver(8)
			require.NoError(t, err)
			r := router{}
			RegisterRoutes(r, &ledgertest.Auth{Accounts: tc.signers}, resolver, tc.evaluator)
			h := r[TransferMsg{}.Kind()]

			tx := &ledger.Tx{Payer: payer, Msg: tc.msg(f)}
			_, err = h.Check(context.Background(), db, tx)
			require.NoError(t, err)

			cache := db.CacheWrap()
			res, err := h.Deliver(context.Background(), cache, tx)
			assert.IsErr(t, tc.wantErr, err)
			if tc.wantErr != nil {
				cache.Discard()
				return
			}
			require.NoError(t, cache.Write())
			if tc.check != nil {
				tc.check(t, db, f, res)
			}
		})
	}
}

func TestTransferCheckExtras(t *testing.T) {
	keyAlias := crypto.KeyAlias(ledgertest.NewKey().PublicKey())
	msg := &TransferMsg{
		Hbar: []AccountAmount{
			{Account: alice, Amount: -3, Hook: &HookCall{ID: 1, GasLimit: 500}},
			{Account: bob, Amount: 1},
			{Alias: keyAlias, Amount: 2},
		},
		Tokens: []TokenTransferList{
			{Token: 1, Transfers: []AccountAmount{{Account: alice, Amount: -1}, {Account: carol, Amount: 1}}},
			{Token: 2, Nfts: []NftTransfer{{Sender: alice, Receiver: erin, Serial: 1}, {Sender: alice, Receiver: erin, Serial: 2}}},
		},
	}
	res, err := NewTransferHandler(&ledgertest.Auth{}, nil, nil).Check(context.Background(), store.MemStore(), &ledger.Tx{Payer: payer, Msg: msg})
	require.NoError(t, err)
	assert.Equal(t, ledger.FeeExtras{
		ledger.ExtraAccounts:   5,
		ledger.ExtraTokens:     1,
		ledger.ExtraNftSerials: 2,
		ledger.ExtraGas:        500,
	}, res.Extras)
}

func TestCustomFeeDepthIsConfigured(t *testing.T) {
	db, f := newFixture(t)
	ctrl := token.NewController()

	// Moving "outer" charges a fee in "taxed", which charges a fee in hbar.
	outer := &token.Token{
		Name: "Outer", Symbol: "OUT", Type: token.FungibleCommon, Treasury: collector, TotalSupply: 100,
		CustomFees: []token.FixedFee{{Amount: 1, DenominatingToken: f.taxed, Collector: collector}},
	}
	require.NoError(t, ctrl.Mint(db, outer, 0))
	require.NoError(t, ctrl.Associate(db, alice, outer.ID))
	require.NoError(t, ctrl.MoveFungible(db, outer.ID, collector, alice, 10))

	msg := &TransferMsg{Tokens: []TokenTransferList{{Token: outer.ID, Transfers: []AccountAmount{
		{Account: alice, Amount: -1}, {Account: erin, Amount: 1},
	}}}}
	resolver, err := alias.NewResolver(8)
	require.NoError(t, err)
	h := NewTransferHandler(&ledgertest.Auth{Accounts: []ledger.AccountID{alice}}, resolver, nil)
	tx := &ledger.Tx{Payer: payer, Msg: msg}

	conf := Configuration{MaxCustomFeeDepth: 0, MaxAccountAmounts: 20}
	require.NoError(t, gconf.Save(db, "cash", &conf))
	_, err = h.Deliver(context.Background(), db.CacheWrap(), tx)
	assert.IsErr(t, errors.ErrCustomFeeMaxDepth, err)

	conf.MaxCustomFeeDepth = 1
	require.NoError(t, gconf.Save(db, "cash", &conf))
	res, err := h.Deliver(context.Background(), db.CacheWrap(), tx)
	require.NoError(t, err)
	assert.Equal(t, 2, len(res.AssessedCustomFees))
}

func TestHookEvaluatorReceivesCall(t *testing.T) {
	db, f := newFixture(t)
	ev := &hookstest.Evaluator{}
	want := hooks.Call{Account: alice, HookID: f.hooked, GasLimit: 300, CallData: []byte("data")}
	ev.On("Evaluate", mock.Anything, want).Return(hooks.Outcome{Result: hooks.Authorized, GasUsed: 120}, nil).Once()

	resolver, err := alias.NewResolver(8)
	require.NoError(t, err)
	h := NewTransferHandler(&ledgertest.Auth{}, resolver, ev)
	msg := &TransferMsg{Hbar: []AccountAmount{
		{Account: alice, Amount: -1, Hook: &HookCall{ID: f.hooked, GasLimit: 300, CallData: []byte("data")}},
		{Account: bob, Amount: 1},
	}}
	res, err := h.Deliver(context.Background(), db, &ledger.Tx{Payer: payer, Msg: msg})
	require.NoError(t, err)
	assert.Equal(t, int64(120), res.Extras[ledger.ExtraGas])
	ev.AssertExpectations(t)
}

type router map[string]ledger.Handler

func (r router) Handle(kind string, h ledger.Handler) {
	r[kind] = h
}

func TestTransferListSizeLimit(t *testing.T) {
	spread := func(n int) *TransferMsg {
		msg := &TransferMsg{Hbar: []AccountAmount{{Account: alice, Amount: -int64(n - 1)}}}
		for i := 1; i < n; i++ {
			msg.Hbar = append(msg.Hbar, AccountAmount{Alias: crypto.KeyAlias(ledgertest.NewKey().PublicKey()), Amount: 1})
		}
		return msg
	}
	deliver := func(t *testing.T, conf Configuration, msg *TransferMsg) (*ledger.DeliverResult, error) {
		db, _ := newFixture(t)
		require.NoError(t, gconf.Save(db, "cash", &conf))
		resolver, err := alias.NewResolver(8)
		require.NoError(t, err)
		h := NewTransferHandler(&ledgertest.Auth{Accounts: []ledger.AccountID{alice}}, resolver, nil)
		return h.Deliver(context.Background(), db.CacheWrap(), &ledger.Tx{Payer: payer, Msg: msg})
	}
	conf := Configuration{MaxCustomFeeDepth: 2, MaxAccountAmounts: 20}

	t.Run("hbar to twenty accounts", func(t *testing.T) {
		_, err := deliver(t, conf, spread(21))
		assert.IsErr(t, errors.ErrTransferListSizeLimitExceeded, err)
	})

	t.Run("limit is inclusive", func(t *testing.T) {
		res, err := deliver(t, conf, spread(20))
		require.NoError(t, err)
		assert.Equal(t, 20, len(res.Tags))
	})

	t.Run("custom fees over the limit", func(t *testing.T) {
		db, f := newFixture(t)
		// alice and erin in taxed, alice and collector in hbar.
		small := Configuration{MaxCustomFeeDepth: 2, MaxAccountAmounts: 3}
		require.NoError(t, gconf.Save(db, "cash", &small))
		resolver, err := alias.NewResolver(8)
		require.NoError(t, err)
		h := NewTransferHandler(&ledgertest.Auth{Accounts: []ledger.AccountID{alice}}, resolver, nil)
		msg := &TransferMsg{Tokens: []TokenTransferList{{Token: f.taxed, Transfers: []AccountAmount{
			{Account: alice, Amount: -10}, {Account: erin, Amount: 10},
		}}}}
		_, err = h.Deliver(context.Background(), db.CacheWrap(), &ledger.Tx{Payer: payer, Msg: msg})
		assert.IsErr(t, errors.ErrCustomFeeMaxAccountAmounts, err)
	})
}
