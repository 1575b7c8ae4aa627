package batch_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/iov-one/ledger"
	"github.com/iov-one/ledger/app"
	"github.com/iov-one/ledger/crypto"
	"github.com/iov-one/ledger/ledgertest"
	"github.com/iov-one/ledger/store"
	"github.com/iov-one/ledger/x/account"
	"github.com/iov-one/ledger/x/alias"
	"github.com/iov-one/ledger/x/batch"
	"github.com/iov-one/ledger/x/cash"
	"github.com/iov-one/ledger/x/fees"
	"github.com/iov-one/ledger/x/hooks"
	"github.com/iov-one/ledger/x/token"
	"github.com/stretchr/testify/require"
)

const (
	sender    ledger.AccountID = 1000
	bob       ledger.AccountID = 1001
	collector ledger.AccountID = 1002
	poor      ledger.AccountID = 1003
	// firstNew is the id of the first account created by a transaction.
	firstNew ledger.AccountID = 1004

	nodeAccount    ledger.AccountID = 3
	fundingAccount ledger.AccountID = 98
)

// freeFees charges nothing.
func freeFees() fees.Configuration {
	return fees.Configuration{
		NodeAccount:    nodeAccount,
		FundingAccount: fundingAccount,
		Rate:           fees.ExchangeRate{HbarEquiv: 1, CentEquiv: 1},
		Schedule:       []fees.KindSchedule{},
	}
}

// flatFees charges 80 for a batch, 130 for a standalone transfer and 100 for
// a transfer inside of a batch.
func flatFees() fees.Configuration {
	conf := freeFees()
	conf.NodeFee = 10
	conf.NetworkFee = 20
	conf.Schedule = []fees.KindSchedule{
		{Kind: batch.AtomicKind, Base: 50},
		{Kind: "crypto/transfer", Base: 100},
	}
	return conf
}

// ledgerFixture is a store initialized from a genesis and the dispatcher
// running transactions against it.
type ledgerFixture struct {
	db         ledger.CacheableKVStore
	dispatcher *batch.Dispatcher
	resolver   *alias.Resolver
	keys       map[ledger.AccountID]crypto.Signer
	batchKey   crypto.Signer
}

type genesisOpts struct {
	fees   fees.Configuration
	cash   *cash.Configuration
	batch  *batch.Configuration
	tokens []token.GenesisToken
}

func newLedger(t testing.TB, opts genesisOpts) *ledgerFixture {
	t.Helper()
	f := &ledgerFixture{
		db:       store.MemStore(),
		keys:     make(map[ledger.AccountID]crypto.Signer),
		batchKey: ledgertest.NewKey(),
	}
	accts := []account.GenesisAccount{{ID: nodeAccount}, {ID: fundingAccount}}
	for id, bal := range map[ledger.AccountID]int64{sender: 1000, bob: 1000, collector: 0, poor: 100} {
		k := ledgertest.NewKey()
		f.keys[id] = k
		accts = append(accts, account.GenesisAccount{ID: id, Key: k.PublicKey(), Balance: bal})
	}

	conf := map[string]interface{}{"fees": opts.fees}
	if opts.cash != nil {
		conf["cash"] = opts.cash
	}
	if opts.batch != nil {
		conf["batch"] = opts.batch
	}
	raw := func(v interface{}) json.RawMessage {
		b, err := json.Marshal(v)
		require.NoError(t, err)
		return b
	}
	gen := ledger.Options{
		"conf":     raw(conf),
		"accounts": raw(accts),
		"tokens":   raw(opts.tokens),
	}
	require.NoError(t, app.Initializers().FromGenesis(gen, f.db))

	var err error
	f.resolver, err = alias.NewResolver(16)
	require.NoError(t, err)
	f.dispatcher = app.NewDispatcher(f.resolver, hooks.NewStatic(hooks.Rejected, 0))
	return f
}

func (f *ledgerFixture) ctx() context.Context {
	return ledger.WithConsensusTime(ledgertest.Context(), time.Unix(1600000000, 0))
}

// inner returns a transaction tagged with the batch key and signed by the
// payer and the extra signers.
func (f *ledgerFixture) inner(payer ledger.AccountID, msg ledger.Msg, signers ...crypto.Signer) *ledger.Tx {
	tx := &ledger.Tx{Payer: payer, BatchKey: f.batchKey.PublicKey(), Msg: msg}
	return ledgertest.SignTx(tx, append([]crypto.Signer{f.keys[payer]}, signers...)...)
}

// batch returns a batch paid by sender and signed by the sender and the
// batch key.
func (f *ledgerFixture) batch(inner ...*ledger.Tx) *ledger.Tx {
	tx := &ledger.Tx{
		Payer: sender,
		Msg:   &batch.AtomicMsg{BatchKey: f.batchKey.PublicKey(), Transactions: inner},
	}
	return ledgertest.SignTx(tx, f.keys[sender], f.batchKey)
}

func (f *ledgerFixture) balance(t testing.TB, id ledger.AccountID) int64 {
	t.Helper()
	acc, err := account.NewBucket().Get(f.db, id)
	require.NoError(t, err)
	return acc.Balance
}

func (f *ledgerFixture) tokenBalance(t testing.TB, tok ledger.TokenID, id ledger.AccountID) int64 {
	t.Helper()
	b, err := token.NewController().Balance(f.db, tok, id)
	require.NoError(t, err)
	return b
}

func (f *ledgerFixture) dump(t testing.TB) []store.Model {
	t.Helper()
	models, err := store.Dump(f.db)
	require.NoError(t, err)
	return models
}

func hbar(from, to ledger.AccountID, amount int64) *cash.TransferMsg {
	return &cash.TransferMsg{Hbar: []cash.AccountAmount{
		{Account: from, Amount: -amount},
		{Account: to, Amount: amount},
	}}
}
